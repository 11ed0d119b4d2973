package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/acrobyte007/Sustainability/internal/config"
	"github.com/acrobyte007/Sustainability/internal/core/ports"
	"github.com/acrobyte007/Sustainability/internal/core/usecase"
	"github.com/acrobyte007/Sustainability/internal/indicators"
	"github.com/acrobyte007/Sustainability/internal/infrastructure/chunking"
	"github.com/acrobyte007/Sustainability/internal/infrastructure/embedcache"
	"github.com/acrobyte007/Sustainability/internal/infrastructure/extractor"
	"github.com/acrobyte007/Sustainability/internal/infrastructure/lexical"
	"github.com/acrobyte007/Sustainability/internal/infrastructure/llm/ollama"
	"github.com/acrobyte007/Sustainability/internal/infrastructure/queue/nats"
	"github.com/acrobyte007/Sustainability/internal/infrastructure/repository/postgres"
	"github.com/acrobyte007/Sustainability/internal/infrastructure/resilience"
	"github.com/acrobyte007/Sustainability/internal/infrastructure/storage/localfs"
	"github.com/acrobyte007/Sustainability/internal/infrastructure/vector/qdrant"
)

// Options tune what New wires. ExtractionOnly skips Postgres, NATS and
// object storage, which the MCP server does not need.
type Options struct {
	Metrics         ports.ExtractionMetrics
	BreakerObserver resilience.StateObserver
	ExtractionOnly  bool
}

type App struct {
	Config config.Config
	Logger *slog.Logger

	Documents *postgres.DocumentRepository
	Queue     *nats.Queue

	IngestUC  *usecase.IngestDocumentUseCase
	ExtractUC *usecase.ExtractIndicatorsUseCase
	JobsUC    *usecase.ExtractionJobUseCase

	closers []func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	catalog, err := indicators.Load(cfg.IndicatorCatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load indicator catalog: %w", err)
	}

	executor := resilience.NewExecutor(cfg.Resilience(), logger)
	if opts.BreakerObserver != nil {
		executor.WithStateObserver(opts.BreakerObserver)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaChatModel, cfg.OllamaEmbedModel, executor)
	embedder := embedcache.New(ollama.NewEmbedder(ollamaClient), ollamaClient.EmbedModel(), cfg.EmbedCacheSize)
	index := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection,
		qdrant.WithAPIKey(cfg.QdrantAPIKey),
		qdrant.WithExecutor(executor),
		qdrant.WithLogger(logger),
	)

	fanout := usecase.NewFanoutQuery(index, cfg.PartitionTimeout(), opts.Metrics, logger)
	reranker := usecase.NewHybridReranker(lexical.NewTokenizer(logger), cfg.LexicalWorkers)
	extractUC := usecase.NewExtractIndicatorsUseCase(
		catalog,
		embedder,
		fanout,
		reranker,
		ollama.NewExtractor(ollamaClient),
		opts.Metrics,
		logger,
		usecase.ExtractionOptions{
			TopK:                cfg.RetrievalTopK,
			TopN:                cfg.RerankTopN,
			ConfidenceThreshold: cfg.ConfidenceThreshold,
		},
	)

	app := &App{Config: cfg, Logger: logger, ExtractUC: extractUC}
	if opts.ExtractionOnly {
		return app, nil
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	app.closers = append(app.closers, func() { _ = db.Close() })

	if err := app.wireStorage(ctx, db, embedder, index, executor); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wireStorage(ctx context.Context, db *sql.DB, embedder ports.Embedder, index ports.SimilarityIndex, executor *resilience.Executor) error {
	cfg := a.Config
	docs := postgres.NewDocumentRepository(db)
	if err := docs.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	jobs := postgres.NewJobRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             a.Logger,
	})
	if err != nil {
		return fmt.Errorf("init message queue: %w", err)
	}
	a.closers = append(a.closers, queue.Close)

	a.Documents = docs
	a.Queue = queue
	a.IngestUC = usecase.NewIngestDocumentUseCase(
		docs,
		storage,
		extractor.New(),
		chunking.NewSplitter(cfg.ChunkWords, cfg.ChunkOverlap),
		embedder,
		index,
		a.Logger,
	)
	a.JobsUC = usecase.NewExtractionJobUseCase(jobs, queue, a.ExtractUC, a.Logger)
	return nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
