package usecase

import (
	"context"
	"strings"
	"sync"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
)

// wordTokenizer splits on whitespace and lowercases.
type wordTokenizer struct{}

func (wordTokenizer) Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// emptyTokenizer simulates a failed lexical model.
type emptyTokenizer struct{}

func (emptyTokenizer) Tokenize(string) []string { return nil }

type embedderFake struct {
	mu        sync.Mutex
	queries   []string
	texts     []string
	queryErr  error
	embedErr  error
	dimension int
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	f.texts = append(f.texts, texts...)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, max(f.dimension, 2))
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, text)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return []float32{0.1, 0.2}, nil
}

type indexFake struct {
	mu        sync.Mutex
	byDoc     map[string][]domain.Match
	failDocs  map[string]error
	queries   []string
	upserted  []domain.VectorRecord
	upsertNS  string
	upsertErr error
	deleted   []string
}

func (f *indexFake) Query(_ context.Context, _ string, _ []float32, topK int, documentID string) ([]domain.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, documentID)
	if err := f.failDocs[documentID]; err != nil {
		return nil, err
	}
	matches := f.byDoc[documentID]
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	out := make([]domain.Match, len(matches))
	copy(out, matches)
	return out, nil
}

func (f *indexFake) Upsert(_ context.Context, namespace string, records []domain.VectorRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upsertNS = namespace
	f.upserted = append(f.upserted, records...)
	return nil
}

func (f *indexFake) DeleteDocument(_ context.Context, namespace, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, namespace+"/"+documentID)
	return nil
}

// scriptedExtractor returns responses keyed by question, in call order.
type scriptedExtractor struct {
	responses map[string]domain.ExtractionResponse
	errs      map[string]error
	calls     []domain.ExtractionRequest
}

func (f *scriptedExtractor) Extract(_ context.Context, req domain.ExtractionRequest) (domain.ExtractionResponse, error) {
	f.calls = append(f.calls, req)
	if err := f.errs[req.Question]; err != nil {
		return domain.ExtractionResponse{}, err
	}
	return f.responses[req.Question], nil
}

type sinkFake struct {
	messages []string
}

func (s *sinkFake) Push(message string) {
	s.messages = append(s.messages, message)
}

func ptrFloat(v float64) *float64 { return &v }
func ptrString(v string) *string  { return &v }

func response(value, confidence float64, unit string) domain.ExtractionResponse {
	return domain.ExtractionResponse{
		Value:      ptrFloat(value),
		Confidence: ptrFloat(confidence),
		Unit:       ptrString(unit),
	}
}
