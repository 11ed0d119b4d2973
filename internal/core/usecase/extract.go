package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
	"github.com/acrobyte007/Sustainability/internal/core/ports"
)

const DefaultConfidenceThreshold = 0.6

type ExtractionOptions struct {
	TopK                int
	TopN                int
	ConfidenceThreshold float64
}

func (o ExtractionOptions) withDefaults() ExtractionOptions {
	if o.TopK <= 0 {
		o.TopK = 30
	}
	if o.TopN <= 0 {
		o.TopN = 9
	}
	if o.ConfidenceThreshold <= 0 {
		o.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	return o
}

// ExtractIndicatorsUseCase drives retrieval and confidence-gated extraction
// for every indicator of the catalog, one indicator at a time.
type ExtractIndicatorsUseCase struct {
	catalog   []domain.IndicatorSpec
	embedder  ports.Embedder
	fanout    *FanoutQuery
	reranker  *HybridReranker
	extractor ports.Extractor
	metrics   ports.ExtractionMetrics
	logger    *slog.Logger
	opts      ExtractionOptions
}

func NewExtractIndicatorsUseCase(
	catalog []domain.IndicatorSpec,
	embedder ports.Embedder,
	fanout *FanoutQuery,
	reranker *HybridReranker,
	extractor ports.Extractor,
	metrics ports.ExtractionMetrics,
	logger *slog.Logger,
	opts ExtractionOptions,
) *ExtractIndicatorsUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractIndicatorsUseCase{
		catalog:   catalog,
		embedder:  embedder,
		fanout:    fanout,
		reranker:  reranker,
		extractor: extractor,
		metrics:   metrics,
		logger:    logger,
		opts:      opts.withDefaults(),
	}
}

func (uc *ExtractIndicatorsUseCase) Catalog() []domain.IndicatorSpec {
	out := make([]domain.IndicatorSpec, len(uc.catalog))
	copy(out, uc.catalog)
	return out
}

// Extract never fails: every indicator gets a result with an explicit status.
func (uc *ExtractIndicatorsUseCase) Extract(ctx context.Context, namespace string, documentIDs []string, sink ports.ProgressSink) domain.ExtractionReport {
	report := domain.ExtractionReport{Results: make([]domain.IndicatorResult, 0, len(uc.catalog))}
	for _, spec := range uc.catalog {
		push(sink, fmt.Sprintf("Extracting %s...", spec.Key))
		started := time.Now()

		result := uc.resolve(ctx, namespace, documentIDs, spec)
		report.Add(result)

		uc.logger.Info("indicator_resolved",
			"namespace", namespace,
			"indicator", spec.Key,
			"status", result.Status,
			"attempts", result.Attempts,
			"confidence", result.Confidence,
		)
		if uc.metrics != nil {
			uc.metrics.RecordIndicator(result.Status, result.Attempts, time.Since(started))
		}
		push(sink, fmt.Sprintf("%s: %s", spec.Key, result.Status))
	}
	push(sink, "Indicator extraction complete.")
	return report
}

// Rank embeds the question and returns the reranked chunks for it. Failures
// of the embedder yield an empty result.
func (uc *ExtractIndicatorsUseCase) Rank(ctx context.Context, namespace string, documentIDs []string, question string) []domain.RankedChunk {
	vector, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil {
		uc.logger.Warn("question_embedding_failed", "namespace", namespace, "error", err)
		return nil
	}
	pool := uc.fanout.Query(ctx, namespace, vector, documentIDs, uc.opts.TopK)
	if pool.Len() == 0 {
		return nil
	}
	return uc.reranker.RerankPool(question, pool, uc.opts.TopN)
}

func (uc *ExtractIndicatorsUseCase) resolve(ctx context.Context, namespace string, documentIDs []string, spec domain.IndicatorSpec) domain.IndicatorResult {
	ranked := uc.Rank(ctx, namespace, documentIDs, spec.Question)
	if len(ranked) == 0 {
		return domain.IndicatorResult{
			Key:           spec.Key,
			IndicatorName: spec.IndicatorName,
			Status:        domain.IndicatorNoChunksFound,
		}
	}

	chunks := domain.SourceChunks(ranked)
	questions := make([]string, 0, 1+len(spec.AltQuestions))
	questions = append(questions, spec.Question)
	questions = append(questions, spec.AltQuestions...)

	var last domain.ExtractionResponse
	for i, question := range questions {
		last = uc.ask(ctx, spec, question, chunks)
		if last.Accepted(uc.opts.ConfidenceThreshold) {
			return buildResult(spec, last, domain.IndicatorOK, i+1)
		}
	}
	return buildResult(spec, last, domain.IndicatorNotFound, len(questions))
}

// ask converts extractor failures into an empty response so the gate
// treats them as a miss.
func (uc *ExtractIndicatorsUseCase) ask(ctx context.Context, spec domain.IndicatorSpec, question string, chunks []domain.SourceChunk) domain.ExtractionResponse {
	resp, err := uc.extractor.Extract(ctx, domain.ExtractionRequest{
		IndicatorName: spec.IndicatorName,
		Question:      question,
		Units:         spec.Units,
		Chunks:        chunks,
	})
	if err != nil {
		uc.logger.Warn("extraction_call_failed", "indicator", spec.Key, "error", err)
		return domain.ExtractionResponse{}
	}
	return resp
}

func buildResult(spec domain.IndicatorSpec, resp domain.ExtractionResponse, status domain.IndicatorStatus, attempts int) domain.IndicatorResult {
	result := domain.IndicatorResult{
		Key:           spec.Key,
		IndicatorName: spec.IndicatorName,
		Value:         resp.Value,
		Page:          resp.PageReference,
		SourceSection: resp.SourceSection,
		Notes:         resp.Notes,
		Status:        status,
		Attempts:      attempts,
	}
	if resp.Unit != nil && spec.AllowsUnit(*resp.Unit) {
		result.Unit = resp.Unit
	}
	if resp.Confidence != nil {
		result.Confidence = *resp.Confidence
	}
	return result
}

func push(sink ports.ProgressSink, message string) {
	if sink != nil {
		sink.Push(message)
	}
}
