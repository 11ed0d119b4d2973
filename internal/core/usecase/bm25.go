package usecase

import "math"

const (
	bm25K1      = 1.5
	bm25B       = 0.75
	bm25Epsilon = 0.25
)

// bm25Okapi scores documents of a tokenized corpus against a query.
// Negative idf values are floored to epsilon times the mean idf.
type bm25Okapi struct {
	docFreqs []map[string]int
	docLens  []int
	avgdl    float64
	idf      map[string]float64
}

func newBM25Okapi(corpus [][]string) *bm25Okapi {
	m := &bm25Okapi{
		docFreqs: make([]map[string]int, len(corpus)),
		docLens:  make([]int, len(corpus)),
		idf:      make(map[string]float64),
	}

	df := make(map[string]int)
	total := 0
	for i, doc := range corpus {
		freqs := make(map[string]int, len(doc))
		for _, token := range doc {
			freqs[token]++
		}
		for token := range freqs {
			df[token]++
		}
		m.docFreqs[i] = freqs
		m.docLens[i] = len(doc)
		total += len(doc)
	}
	if len(corpus) > 0 {
		m.avgdl = float64(total) / float64(len(corpus))
	}

	n := float64(len(corpus))
	idfSum := 0.0
	var negative []string
	for token, freq := range df {
		idf := math.Log(n-float64(freq)+0.5) - math.Log(float64(freq)+0.5)
		m.idf[token] = idf
		idfSum += idf
		if idf < 0 {
			negative = append(negative, token)
		}
	}
	if len(m.idf) > 0 {
		eps := bm25Epsilon * idfSum / float64(len(m.idf))
		for _, token := range negative {
			m.idf[token] = eps
		}
	}
	return m
}

func (m *bm25Okapi) scores(query []string) []float64 {
	out := make([]float64, len(m.docFreqs))
	if m.avgdl == 0 {
		return out
	}
	for _, q := range query {
		idf, ok := m.idf[q]
		if !ok {
			continue
		}
		for i, freqs := range m.docFreqs {
			tf := float64(freqs[q])
			if tf == 0 {
				continue
			}
			norm := 1 - bm25B + bm25B*float64(m.docLens[i])/m.avgdl
			out[i] += idf * (tf * (bm25K1 + 1)) / (tf + bm25K1*norm)
		}
	}
	return out
}
