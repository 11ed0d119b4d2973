package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
)

func TestLoadIncludesRetrievalDefaults(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "")
	t.Setenv("RERANK_TOP_N", "")
	t.Setenv("CONFIDENCE_THRESHOLD", "")
	t.Setenv("CHUNK_WORDS", "")
	t.Setenv("CHUNK_OVERLAP", "")

	cfg := Load()
	assert.Equal(t, 30, cfg.RetrievalTopK)
	assert.Equal(t, 9, cfg.RerankTopN)
	assert.Equal(t, 0.6, cfg.ConfidenceThreshold)
	assert.Equal(t, 500, cfg.ChunkWords)
	assert.Equal(t, 75, cfg.ChunkOverlap)
	require.NoError(t, cfg.Validate())
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "50")
	t.Setenv("RERANK_TOP_N", "5")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.75")
	t.Setenv("RESILIENCE_BREAKER_ENABLED", "false")
	t.Setenv("RESILIENCE_RETRY_INITIAL_BACKOFF_MS", "100")

	cfg := Load()
	assert.Equal(t, 50, cfg.RetrievalTopK)
	assert.Equal(t, 5, cfg.RerankTopN)
	assert.Equal(t, 0.75, cfg.ConfidenceThreshold)

	res := cfg.Resilience()
	assert.False(t, res.BreakerEnabled)
	assert.Equal(t, 100*time.Millisecond, res.RetryInitialBackoff)
}

func TestLoadFallsBackOnUnparsableNumbers(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "many")
	t.Setenv("CONFIDENCE_THRESHOLD", "high")

	cfg := Load()
	assert.Equal(t, 30, cfg.RetrievalTopK)
	assert.Equal(t, 0.6, cfg.ConfidenceThreshold)
}

func TestValidateReportsMissingSettings(t *testing.T) {
	cfg := Load()
	cfg.QdrantURL = ""
	cfg.OllamaChatModel = " "
	cfg.ChunkOverlap = cfg.ChunkWords

	err := cfg.Validate()
	assert.True(t, domain.IsKind(err, domain.ErrConfig), "got %v", err)
}

func TestValidateRejectsConfidenceThresholdOutsideUnitInterval(t *testing.T) {
	for _, threshold := range []float64{0, -0.1, 1.5} {
		t.Setenv("CONFIDENCE_THRESHOLD", "")
		cfg := Load()
		cfg.ConfidenceThreshold = threshold

		err := cfg.Validate()
		require.Error(t, err, "threshold %v", threshold)
		assert.True(t, domain.IsKind(err, domain.ErrConfig), "got %v", err)
		assert.Contains(t, err.Error(), "CONFIDENCE_THRESHOLD")
	}

	cfg := Load()
	cfg.ConfidenceThreshold = 1
	assert.NoError(t, cfg.Validate())
}
