package lexical

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeStemsAndDropsStopWords(t *testing.T) {
	tok := NewTokenizer(nil)

	tokens := tok.Tokenize("The Company reported its Emissions")
	require.NotEmpty(t, tokens)
	assert.NotContains(t, tokens, "the")
	assert.NotContains(t, tokens, "its")
	for _, term := range tokens {
		assert.Equal(t, strings.ToLower(term), term)
	}

	assert.Equal(t, tok.Tokenize("emissions"), tok.Tokenize("Emission"))
}

func TestTokenizeNormalizesCompatibilityForms(t *testing.T) {
	tok := NewTokenizer(nil)
	assert.Equal(t, tok.Tokenize("energy"), tok.Tokenize("ｅｎｅｒｇｙ"))
}

func TestTokenizeWhitespaceOnlyIsEmpty(t *testing.T) {
	tok := NewTokenizer(nil)
	assert.Empty(t, tok.Tokenize("   \n\t "))
	assert.Empty(t, tok.Tokenize(""))
}

func TestTokenizeLoaderFailureYieldsEmptyAndLoadsOnce(t *testing.T) {
	var calls atomic.Int32
	tok := NewTokenizerWithLoader(func() (analysis.Analyzer, error) {
		calls.Add(1)
		return nil, errors.New("model missing")
	}, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Empty(t, tok.Tokenize("scope 1 emissions"))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

type panickingAnalyzer struct{}

func (panickingAnalyzer) Analyze([]byte) analysis.TokenStream { panic("boom") }

func TestTokenizeRecoversFromAnalyzerPanic(t *testing.T) {
	tok := NewTokenizerWithLoader(func() (analysis.Analyzer, error) {
		return panickingAnalyzer{}, nil
	}, nil)
	assert.Empty(t, tok.Tokenize("text"))
}
