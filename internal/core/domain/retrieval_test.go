package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkIDFormat(t *testing.T) {
	assert.Equal(t, "report.pdf#p12c3", ChunkID("report.pdf", 12, 3))
	c := Chunk{DocumentID: "doc-1", Page: 1, ChunkIndex: 2}
	assert.Equal(t, "doc-1#p1c2", c.ID())
}

func TestCandidatePoolLastWriteWinsKeepsFirstPosition(t *testing.T) {
	pool := NewCandidatePool(4)
	pool.Put(ChunkCandidate{ID: "a", Text: "old", VectorScore: 0.4})
	pool.Put(ChunkCandidate{ID: "b", Text: "b", VectorScore: 0.2})
	pool.Put(ChunkCandidate{ID: "a", Text: "new", VectorScore: 0.1})

	require.Equal(t, 2, pool.Len())
	got := pool.Candidates()
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "new", got[0].Text)
	assert.Equal(t, 0.1, got[0].VectorScore)
}

func TestCandidatePoolZeroValueUsable(t *testing.T) {
	var pool CandidatePool
	pool.Put(ChunkCandidate{ID: "x"})
	_, ok := pool.Get("x")
	assert.True(t, ok)

	var nilPool *CandidatePool
	assert.Zero(t, nilPool.Len())
	assert.Nil(t, nilPool.Candidates())
}

func TestSourceChunksKeepsPageAndText(t *testing.T) {
	src := SourceChunks([]RankedChunk{{ID: "d#p2c1", Page: 2, Text: "scope 1"}})
	assert.Equal(t, []SourceChunk{{Page: 2, Text: "scope 1"}}, src)
}
