package ports

import (
	"context"
	"io"
	"time"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, namespace, id string) (*domain.Document, error)
	ListByNamespace(ctx context.Context, namespace string) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetChunkCount(ctx context.Context, id string, chunkCount int) error
}

// JobRepository persists asynchronous extraction jobs and their results.
type JobRepository interface {
	CreateJob(ctx context.Context, job *domain.ExtractionJob) error
	GetJob(ctx context.Context, id string) (*domain.ExtractionJob, error)
	UpdateJobStatus(ctx context.Context, id string, status domain.JobStatus, errMessage string) error
	SaveResults(ctx context.Context, jobID string, results []domain.IndicatorResult) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes extraction job events.
type MessageQueue interface {
	PublishExtractionRequested(ctx context.Context, jobID string) error
	SubscribeExtractionRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// PageExtractor pulls per-page text out of a stored document.
type PageExtractor interface {
	ExtractPages(ctx context.Context, filename string, data []byte) ([]domain.PageText, error)
}

// Chunker cuts page texts into word windows.
type Chunker interface {
	Split(documentID string, pages []domain.PageText) []domain.Chunk
}

// Embedder builds vectors for chunks and query text. Vector length is
// stable across calls.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// SimilarityIndex is the namespaced vector index. Match.Score is a distance.
type SimilarityIndex interface {
	Query(ctx context.Context, namespace string, vector []float32, topK int, documentID string) ([]domain.Match, error)
	Upsert(ctx context.Context, namespace string, records []domain.VectorRecord) error
	DeleteDocument(ctx context.Context, namespace, documentID string) error
}

// Tokenizer turns text into lowercase lexical tokens. It never fails; an
// empty result means no lexical signal.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Extractor performs structured extraction of one indicator from chunks.
type Extractor interface {
	Extract(ctx context.Context, req domain.ExtractionRequest) (domain.ExtractionResponse, error)
}

// ProgressSink receives human-readable status messages. Push must not block.
type ProgressSink interface {
	Push(message string)
}

// ExtractionMetrics records pipeline outcomes.
type ExtractionMetrics interface {
	RecordIndicator(status domain.IndicatorStatus, attempts int, duration time.Duration)
	RecordPartitionQuery(ok bool)
}
