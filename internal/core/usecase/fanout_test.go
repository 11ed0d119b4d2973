package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
)

type partitionMetricsFake struct {
	ok, failed int
}

func (f *partitionMetricsFake) RecordIndicator(domain.IndicatorStatus, int, time.Duration) {}
func (f *partitionMetricsFake) RecordPartitionQuery(ok bool) {
	if ok {
		f.ok++
		return
	}
	f.failed++
}

// stallingIndex blocks queries for stalled partitions until the call
// context ends.
type stallingIndex struct {
	indexFake
	stalled map[string]bool
}

func (f *stallingIndex) Query(ctx context.Context, namespace string, vector []float32, topK int, documentID string) ([]domain.Match, error) {
	if f.stalled[documentID] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.indexFake.Query(ctx, namespace, vector, topK, documentID)
}

func TestFanoutToleratesFailedPartition(t *testing.T) {
	index := &indexFake{
		byDoc: map[string][]domain.Match{
			"doc-1": {{ID: "doc-1#p1c1", Score: 0.2, DocumentID: "doc-1", Page: 1, ChunkIndex: 1, Text: "a"}},
			"doc-3": {{ID: "doc-3#p4c2", Score: 0.1, DocumentID: "doc-3", Page: 4, ChunkIndex: 2, Text: "c"}},
		},
		failDocs: map[string]error{"doc-2": errors.New("index unavailable")},
	}
	metrics := &partitionMetricsFake{}
	q := NewFanoutQuery(index, 0, metrics, nil)

	results := q.QueryPartitions(context.Background(), "user-1", []float32{1}, []string{"doc-1", "doc-2", "doc-3"}, 30)
	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.True(t, results[2].OK())
	assert.Equal(t, "doc-2", results[1].PartitionID)
	assert.Empty(t, results[1].Matches)
	assert.Equal(t, 2, metrics.ok)
	assert.Equal(t, 1, metrics.failed)

	pool := mergePartitionResults(results)
	require.Equal(t, 2, pool.Len())
	c, ok := pool.Get("doc-3#p4c2")
	require.True(t, ok)
	assert.Equal(t, 4, c.Page)
	assert.Equal(t, 0.1, c.VectorScore)
}

func TestFanoutTimedOutPartitionCountsAsFailed(t *testing.T) {
	index := &stallingIndex{
		indexFake: indexFake{byDoc: map[string][]domain.Match{
			"fast": {{ID: "fast#p1c1", Score: 0.2, DocumentID: "fast", Page: 1, ChunkIndex: 1, Text: "a"}},
		}},
		stalled: map[string]bool{"slow": true},
	}
	metrics := &partitionMetricsFake{}
	q := NewFanoutQuery(index, 50*time.Millisecond, metrics, nil)

	started := time.Now()
	results := q.QueryPartitions(context.Background(), "user-1", []float32{1}, []string{"fast", "slow"}, 30)
	elapsed := time.Since(started)

	require.Len(t, results, 2)
	assert.Less(t, elapsed, 2*time.Second)
	assert.True(t, results[0].OK())
	assert.Len(t, results[0].Matches, 1)
	assert.ErrorIs(t, results[1].Err, context.DeadlineExceeded)
	assert.Empty(t, results[1].Matches)
	assert.Equal(t, 1, metrics.failed)

	pool := mergePartitionResults(results)
	assert.Equal(t, 1, pool.Len())
}

func TestFanoutDuplicatePartitionIsIdempotent(t *testing.T) {
	index := &indexFake{byDoc: map[string][]domain.Match{
		"doc-1": {
			{ID: "doc-1#p1c1", Score: 0.2, Text: "a"},
			{ID: "doc-1#p2c1", Score: 0.3, Text: "b"},
		},
	}}
	q := NewFanoutQuery(index, 0, nil, nil)

	once := q.Query(context.Background(), "user-1", []float32{1}, []string{"doc-1"}, 30)
	twice := q.Query(context.Background(), "user-1", []float32{1}, []string{"doc-1", "doc-1"}, 30)

	assert.Equal(t, once.Candidates(), twice.Candidates())
}

func TestFanoutLaterPartitionOverwritesDuplicateID(t *testing.T) {
	results := []domain.PartitionResult{
		{PartitionID: "p1", Matches: []domain.Match{{ID: "x", Score: 0.5, Text: "old"}}},
		{PartitionID: "p2", Matches: []domain.Match{{ID: "x", Score: 0.1, Text: "new"}, {ID: ""}}},
	}
	pool := mergePartitionResults(results)
	require.Equal(t, 1, pool.Len())

	c, _ := pool.Get("x")
	assert.Equal(t, 0.1, c.VectorScore)
	assert.Equal(t, "new", c.Text)
}

func TestFanoutEmptyVectorFailsEveryPartition(t *testing.T) {
	index := &indexFake{}
	q := NewFanoutQuery(index, 0, nil, nil)

	pool := q.Query(context.Background(), "user-1", nil, []string{"doc-1"}, 30)
	assert.Equal(t, 0, pool.Len())
	assert.Empty(t, index.queries)
}
