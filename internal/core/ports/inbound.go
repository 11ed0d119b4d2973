package ports

import (
	"context"
	"io"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
)

// DocumentIngestor is the inbound contract for upload and vectorization.
type DocumentIngestor interface {
	Upload(ctx context.Context, namespace, filename string, body io.Reader, sink ProgressSink) (*domain.Document, error)
}

// DocumentRemover drops a document and its vectors from a namespace.
type DocumentRemover interface {
	DeleteDocument(ctx context.Context, namespace, documentID string) error
}

// IndicatorExtractor runs the extraction pipeline over a document set.
// It always returns one result per catalog indicator.
type IndicatorExtractor interface {
	Extract(ctx context.Context, namespace string, documentIDs []string, sink ProgressSink) domain.ExtractionReport
	Catalog() []domain.IndicatorSpec
}

// ExtractionJobService is the inbound contract for asynchronous extraction.
type ExtractionJobService interface {
	Enqueue(ctx context.Context, namespace string, documentIDs []string) (*domain.ExtractionJob, error)
	Get(ctx context.Context, id string) (*domain.ExtractionJob, error)
}

// ExtractionJobProcessor runs a queued job; used by the worker.
type ExtractionJobProcessor interface {
	ProcessJob(ctx context.Context, jobID string) error
}
