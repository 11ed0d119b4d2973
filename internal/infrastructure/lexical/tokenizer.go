// Package lexical turns free text into stemmed lowercase terms for BM25
// scoring.
package lexical

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/registry"
	"golang.org/x/text/unicode/norm"
)

// AnalyzerLoader builds the text analyzer. It is called at most once.
type AnalyzerLoader func() (analysis.Analyzer, error)

// Tokenizer wraps the English bleve analyzer (unicode segmentation,
// possessive and stop-word removal, lowercase, Porter stemming).
type Tokenizer struct {
	load   AnalyzerLoader
	logger *slog.Logger

	once     sync.Once
	analyzer analysis.Analyzer
	loadErr  error
}

func NewTokenizer(logger *slog.Logger) *Tokenizer {
	return NewTokenizerWithLoader(EnglishAnalyzer, logger)
}

func NewTokenizerWithLoader(load AnalyzerLoader, logger *slog.Logger) *Tokenizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tokenizer{load: load, logger: logger}
}

func EnglishAnalyzer() (analysis.Analyzer, error) {
	cache := registry.NewCache()
	analyzer, err := cache.AnalyzerNamed(en.AnalyzerName)
	if err != nil {
		return nil, fmt.Errorf("load %s analyzer: %w", en.AnalyzerName, err)
	}
	return analyzer, nil
}

// Tokenize never fails. When the analyzer cannot be loaded or panics the
// result is empty, which callers treat as no lexical signal.
func (t *Tokenizer) Tokenize(text string) (tokens []string) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Warn("tokenize_failed", "panic", fmt.Sprint(r))
			tokens = nil
		}
	}()

	analyzer, err := t.get()
	if err != nil || text == "" {
		return nil
	}

	stream := analyzer.Analyze([]byte(norm.NFKC.String(text)))
	tokens = make([]string, 0, len(stream))
	for _, tok := range stream {
		term := strings.TrimSpace(string(tok.Term))
		if term == "" {
			continue
		}
		tokens = append(tokens, strings.ToLower(term))
	}
	return tokens
}

func (t *Tokenizer) get() (analysis.Analyzer, error) {
	t.once.Do(func() {
		if t.load == nil {
			t.loadErr = fmt.Errorf("no analyzer loader")
		} else {
			t.analyzer, t.loadErr = t.load()
		}
		if t.loadErr != nil {
			t.logger.Error("lexical_model_load_failed", "error", t.loadErr)
		}
	})
	return t.analyzer, t.loadErr
}
