package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
	"github.com/acrobyte007/Sustainability/internal/core/ports"
)

// IngestDocumentUseCase stores an upload, cuts it into chunks and writes
// the embedded chunks to the similarity index of the namespace.
type IngestDocumentUseCase struct {
	repo      ports.DocumentRepository
	storage   ports.ObjectStorage
	pages     ports.PageExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	index     ports.SimilarityIndex
	logger    *slog.Logger
	batchSize int
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	pages ports.PageExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.SimilarityIndex,
	logger *slog.Logger,
) *IngestDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestDocumentUseCase{
		repo:      repo,
		storage:   storage,
		pages:     pages,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		logger:    logger,
		batchSize: 64,
	}
}

func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	namespace, filename string,
	body io.Reader,
	sink ports.ProgressSink,
) (*domain.Document, error) {
	if strings.TrimSpace(namespace) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", errors.New("namespace is required"))
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", errors.New("empty file"))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s/%s_%s", sanitizeFilename(namespace), id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:          id,
		Namespace:   namespace,
		Filename:    filename,
		MimeType:    detectMimeType(filename),
		StoragePath: storageKey,
		Status:      domain.StatusProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	chunkCount, err := uc.vectorize(ctx, doc, raw, sink)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusFailed, err.Error()); failErr != nil {
			return nil, fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return nil, err
	}

	if err := uc.repo.SetChunkCount(ctx, doc.ID, chunkCount); err != nil {
		return nil, fmt.Errorf("save chunk count: %w", err)
	}
	if err := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusReady, ""); err != nil {
		return nil, fmt.Errorf("set status=ready: %w", err)
	}
	doc.ChunkCount = chunkCount
	doc.Status = domain.StatusReady

	uc.logger.Info("document_ingested",
		"namespace", namespace,
		"document_id", doc.ID,
		"filename", filename,
		"chunks", chunkCount,
	)
	push(sink, "Upload + vectorization complete.")
	return doc, nil
}

func (uc *IngestDocumentUseCase) vectorize(ctx context.Context, doc *domain.Document, raw []byte, sink ports.ProgressSink) (int, error) {
	push(sink, "Extracting chunks from PDF...")
	pages, err := uc.pages.ExtractPages(ctx, doc.Filename, raw)
	if err != nil {
		return 0, fmt.Errorf("extract pages: %w", err)
	}

	chunks := uc.chunker.Split(doc.ID, pages)
	if len(chunks) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}

	push(sink, fmt.Sprintf("Embedding %d chunks...", len(chunks)))
	records := make([]domain.VectorRecord, 0, len(chunks))
	for start := 0; start < len(chunks); start += uc.batchSize {
		end := min(start+uc.batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vectors, err := uc.embedder.Embed(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vectors) != len(batch) {
			return 0, domain.WrapError(
				domain.ErrInvalidInput,
				"embed chunks",
				fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(batch)),
			)
		}
		for i, c := range batch {
			records = append(records, domain.VectorRecord{Chunk: c, Vector: vectors[i]})
		}
	}

	push(sink, "Upserting vectors to database...")
	if err := uc.index.Upsert(ctx, doc.Namespace, records); err != nil {
		return 0, fmt.Errorf("upsert vectors: %w", err)
	}
	return len(chunks), nil
}

// DeleteDocument removes every vector of the document from the namespace
// and marks the document deleted.
func (uc *IngestDocumentUseCase) DeleteDocument(ctx context.Context, namespace, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, namespace, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}
	if err := uc.index.DeleteDocument(ctx, namespace, documentID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := uc.storage.Delete(ctx, doc.StoragePath); err != nil {
		uc.logger.Warn("stored_file_delete_failed", "document_id", documentID, "error", err)
	}
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusDeleted, ""); err != nil {
		return fmt.Errorf("set status=deleted: %w", err)
	}
	return nil
}

func detectMimeType(filename string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); t != "" {
		return t
	}
	return "application/octet-stream"
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}
