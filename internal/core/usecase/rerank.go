package usecase

import (
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
	"github.com/acrobyte007/Sustainability/internal/core/ports"
)

const (
	semanticWeight   = 0.7
	lexicalWeight    = 0.3
	lexicalNormDelta = 1e-6
)

// HybridReranker mixes vector similarity with BM25 relevance.
type HybridReranker struct {
	tokenizer ports.Tokenizer
	workers   int
}

func NewHybridReranker(tokenizer ports.Tokenizer, workers int) *HybridReranker {
	if workers <= 0 {
		workers = 4
	}
	return &HybridReranker{tokenizer: tokenizer, workers: workers}
}

// Rerank deduplicates candidates by id, scores them and returns at most topN
// chunks by descending hybrid score. Ties keep first-seen order.
func (r *HybridReranker) Rerank(query string, candidates []domain.ChunkCandidate, topN int) []domain.RankedChunk {
	pool := domain.NewCandidatePool(len(candidates))
	for _, c := range candidates {
		pool.Put(c)
	}
	return r.RerankPool(query, pool, topN)
}

func (r *HybridReranker) RerankPool(query string, pool *domain.CandidatePool, topN int) []domain.RankedChunk {
	unique := pool.Candidates()
	if len(unique) == 0 {
		return nil
	}

	corpus, queryTokens := r.tokenizeAll(query, unique)
	lexical := normalizedLexicalScores(corpus, queryTokens)

	ranked := make([]domain.RankedChunk, len(unique))
	for i, c := range unique {
		ranked[i] = domain.RankedChunk{
			ID:          c.ID,
			DocumentID:  c.DocumentID,
			Page:        c.Page,
			Text:        c.Text,
			HybridScore: hybridScore(similarity(c.VectorScore), lexical[i]),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].HybridScore > ranked[j].HybridScore
	})

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// tokenizeAll runs the tokenizer over every candidate and the query on a
// bounded pool. Each result lands at its candidate's index.
func (r *HybridReranker) tokenizeAll(query string, candidates []domain.ChunkCandidate) ([][]string, []string) {
	corpus := make([][]string, len(candidates))
	var queryTokens []string

	var g errgroup.Group
	g.SetLimit(r.workers)
	g.Go(func() error {
		queryTokens = r.tokenizer.Tokenize(query)
		return nil
	})
	for i, c := range candidates {
		g.Go(func() error {
			corpus[i] = r.tokenizer.Tokenize(c.Text)
			return nil
		})
	}
	_ = g.Wait()
	return corpus, queryTokens
}

// normalizedLexicalScores returns BM25 scores scaled so the maximum is 1.
// When no candidate produced tokens every score is zero.
func normalizedLexicalScores(corpus [][]string, query []string) []float64 {
	out := make([]float64, len(corpus))
	if allEmpty(corpus) {
		return out
	}

	raw := newBM25Okapi(corpus).scores(query)
	maxScore := 0.0
	for i, s := range raw {
		if s < 0 {
			s = 0
		}
		raw[i] = s
		if s > maxScore {
			maxScore = s
		}
	}
	denom := maxScore + lexicalNormDelta
	for i, s := range raw {
		out[i] = s / denom
	}
	return out
}

func allEmpty(corpus [][]string) bool {
	for _, doc := range corpus {
		if len(doc) > 0 {
			return false
		}
	}
	return true
}

// similarity converts an index distance to a similarity. Out of range
// distances pass through unclamped.
func similarity(distance float64) float64 {
	return 1 - distance
}

func hybridScore(sim, lexical float64) float64 {
	return semanticWeight*sim + lexicalWeight*lexical
}
