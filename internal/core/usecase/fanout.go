package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
	"github.com/acrobyte007/Sustainability/internal/core/ports"
)

var errEmptyQueryVector = errors.New("query vector is empty")

// FanoutQuery issues one similarity query per document partition and merges
// the matches into a single candidate pool.
type FanoutQuery struct {
	index   ports.SimilarityIndex
	metrics ports.ExtractionMetrics
	logger  *slog.Logger
	timeout time.Duration
}

func NewFanoutQuery(index ports.SimilarityIndex, timeout time.Duration, metrics ports.ExtractionMetrics, logger *slog.Logger) *FanoutQuery {
	if logger == nil {
		logger = slog.Default()
	}
	return &FanoutQuery{
		index:   index,
		metrics: metrics,
		logger:  logger,
		timeout: timeout,
	}
}

// QueryPartitions runs all partition queries concurrently and waits for every
// one of them. The returned slice is in partition order; a failed partition
// carries its error and no matches.
func (q *FanoutQuery) QueryPartitions(ctx context.Context, namespace string, vector []float32, partitionIDs []string, topK int) []domain.PartitionResult {
	results := make([]domain.PartitionResult, len(partitionIDs))
	var g errgroup.Group
	for i, partitionID := range partitionIDs {
		g.Go(func() error {
			results[i] = q.queryOne(ctx, namespace, vector, partitionID, topK)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Query returns the merged pool. Later partitions overwrite earlier matches
// with the same chunk id.
func (q *FanoutQuery) Query(ctx context.Context, namespace string, vector []float32, partitionIDs []string, topK int) *domain.CandidatePool {
	results := q.QueryPartitions(ctx, namespace, vector, partitionIDs, topK)
	return mergePartitionResults(results)
}

func (q *FanoutQuery) queryOne(ctx context.Context, namespace string, vector []float32, partitionID string, topK int) domain.PartitionResult {
	result := domain.PartitionResult{PartitionID: partitionID}
	if len(vector) == 0 {
		result.Err = errEmptyQueryVector
		q.record(result)
		return result
	}

	callCtx := ctx
	if q.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	matches, err := q.index.Query(callCtx, namespace, vector, topK, partitionID)
	if err != nil {
		result.Err = err
	} else {
		result.Matches = matches
	}
	q.record(result)
	return result
}

func (q *FanoutQuery) record(result domain.PartitionResult) {
	if !result.OK() {
		q.logger.Warn("partition_query_failed",
			"partition_id", result.PartitionID,
			"error", result.Err,
		)
	}
	if q.metrics != nil {
		q.metrics.RecordPartitionQuery(result.OK())
	}
}

func mergePartitionResults(results []domain.PartitionResult) *domain.CandidatePool {
	size := 0
	for _, r := range results {
		size += len(r.Matches)
	}
	pool := domain.NewCandidatePool(size)
	for _, r := range results {
		if !r.OK() {
			continue
		}
		for _, m := range r.Matches {
			if m.ID == "" {
				continue
			}
			pool.Put(domain.CandidateFromMatch(m))
		}
	}
	return pool
}
