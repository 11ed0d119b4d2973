package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/acrobyte007/Sustainability/internal/core/ports"
)

const DefaultSize = 512

// QueryCache memoizes question embeddings. Indicator questions repeat on
// every extraction run, chunk texts do not, so Embed is passed through.
type QueryCache struct {
	inner ports.Embedder
	model string
	cache *lru.Cache[string, []float32]
}

func New(inner ports.Embedder, model string, size int) *QueryCache {
	if size <= 0 {
		size = DefaultSize
	}
	cache, _ := lru.New[string, []float32](size)
	return &QueryCache{inner: inner, model: model, cache: cache}
}

func (c *QueryCache) key(text string) string {
	sum := sha256.Sum256([]byte(text + "\x00" + c.model))
	return hex.EncodeToString(sum[:])
}

func (c *QueryCache) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}
	vec, err := c.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, vec)
	return vec, nil
}

func (c *QueryCache) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return c.inner.Embed(ctx, texts)
}

func (c *QueryCache) Len() int {
	return c.cache.Len()
}
