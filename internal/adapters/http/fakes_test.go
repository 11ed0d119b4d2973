package httpadapter

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/acrobyte007/Sustainability/internal/config"
	"github.com/acrobyte007/Sustainability/internal/core/domain"
	"github.com/acrobyte007/Sustainability/internal/core/ports"
)

type ingestFake struct {
	err error
}

func (f ingestFake) Upload(_ context.Context, namespace, filename string, body io.Reader, sink ports.ProgressSink) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("empty file"))
	}
	sink.Push("Extracting chunks from PDF...")
	sink.Push("Upload + vectorization complete.")

	now := time.Now().UTC()
	return &domain.Document{
		ID:          "doc-1",
		Namespace:   namespace,
		Filename:    filename,
		MimeType:    "text/plain",
		StoragePath: namespace + "/doc-1_" + filename,
		ChunkCount:  1,
		Status:      domain.StatusReady,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

type removerFake struct {
	err     error
	removed []string
}

func (f *removerFake) DeleteDocument(_ context.Context, namespace, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, namespace+"/"+documentID)
	return nil
}

type docsFake struct {
	err error
}

func (f docsFake) GetByID(_ context.Context, namespace, id string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: id, Namespace: namespace, Status: domain.StatusReady}, nil
}

func (f docsFake) ListByNamespace(_ context.Context, namespace string) ([]domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Document{{ID: "doc-1", Namespace: namespace, Status: domain.StatusReady}}, nil
}

type extractorFake struct {
	calls [][]string
}

func (f *extractorFake) Extract(_ context.Context, namespace string, documentIDs []string, sink ports.ProgressSink) domain.ExtractionReport {
	f.calls = append(f.calls, append([]string{namespace}, documentIDs...))
	value, conf, unit := 1200.0, 0.9, "tCO2e"
	page := domain.PageRef("4")
	push := func(msg string) {
		if sink != nil {
			sink.Push(msg)
		}
	}
	push("Extracting Scope1_Emissions...")
	push("Scope1_Emissions: ok")
	push("Indicator extraction complete.")
	return domain.ExtractionReport{Results: []domain.IndicatorResult{
		{Key: "Scope1_Emissions", IndicatorName: "Scope 1 GHG Emissions", Value: &value, Unit: &unit, Page: &page, Confidence: conf, Status: domain.IndicatorOK, Attempts: 1},
	}}
}

func (f *extractorFake) Catalog() []domain.IndicatorSpec {
	return []domain.IndicatorSpec{{Key: "Scope1_Emissions", IndicatorName: "Scope 1 GHG Emissions", Units: []string{"tCO2e"}, Question: "q"}}
}

type jobsFake struct {
	job *domain.ExtractionJob
	err error
}

func (f *jobsFake) Enqueue(_ context.Context, namespace string, documentIDs []string) (*domain.ExtractionJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ExtractionJob{ID: "job-1", Namespace: namespace, DocumentIDs: documentIDs, Status: domain.JobQueued}, nil
}

func (f *jobsFake) Get(_ context.Context, id string) (*domain.ExtractionJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.job == nil || f.job.ID != id {
		return nil, domain.WrapError(domain.ErrJobNotFound, "get job", errors.New("id="+id))
	}
	return f.job, nil
}

type testEnv struct {
	handler   http.Handler
	remover   *removerFake
	extractor *extractorFake
	jobs      *jobsFake
}

func newTestEnv(cfg config.Config) *testEnv {
	env := &testEnv{
		remover:   &removerFake{},
		extractor: &extractorFake{},
		jobs:      &jobsFake{},
	}
	env.handler = NewRouter(cfg, Dependencies{
		Ingestor:  ingestFake{},
		Remover:   env.remover,
		Documents: docsFake{},
		Extractor: env.extractor,
		Jobs:      env.jobs,
	}).Handler()
	return env
}

func newTestHandler(cfg config.Config) http.Handler {
	return newTestEnv(cfg).handler
}
