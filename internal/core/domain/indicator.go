package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// IndicatorSpec is a static definition of a fact to extract.
type IndicatorSpec struct {
	Key           string   `json:"key" yaml:"key"`
	IndicatorName string   `json:"indicator_name" yaml:"indicator_name"`
	Units         []string `json:"units" yaml:"units"`
	Question      string   `json:"question" yaml:"question"`
	AltQuestions  []string `json:"alt_questions" yaml:"alt_questions"`
}

func (s IndicatorSpec) AllowsUnit(unit string) bool {
	for _, u := range s.Units {
		if u == unit {
			return true
		}
	}
	return false
}

// PageRef is a page reference as returned by the extractor: either a page
// number or a free-form label such as "12-13".
type PageRef string

func (p *PageRef) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*p = PageRef(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return fmt.Errorf("page reference: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*p = PageRef(strconv.FormatInt(i, 10))
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("page reference: %w", err)
	}
	*p = PageRef(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

func (p PageRef) MarshalJSON() ([]byte, error) {
	if n, err := strconv.Atoi(string(p)); err == nil {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(string(p))
}

// ExtractionResponse is what the extractor returns for one question attempt.
type ExtractionResponse struct {
	Value         *float64 `json:"value"`
	Unit          *string  `json:"unit"`
	PageReference *PageRef `json:"page_reference"`
	Confidence    *float64 `json:"confidence"`
	SourceSection *string  `json:"source_section"`
	Notes         *string  `json:"notes"`
}

// Accepted reports whether the response passes the confidence gate. A zero
// value counts as found; only a missing value does not.
func (r ExtractionResponse) Accepted(threshold float64) bool {
	return r.Value != nil && r.Confidence != nil && *r.Confidence >= threshold
}

type IndicatorStatus string

const (
	IndicatorOK            IndicatorStatus = "ok"
	IndicatorNotFound      IndicatorStatus = "not_found"
	IndicatorNoChunksFound IndicatorStatus = "no_chunks_found"
)

// IndicatorResult is the terminal outcome for one indicator in a run.
type IndicatorResult struct {
	Key           string          `json:"key"`
	IndicatorName string          `json:"indicator_name"`
	Value         *float64        `json:"value"`
	Unit          *string         `json:"unit"`
	Page          *PageRef        `json:"page"`
	Confidence    float64         `json:"confidence"`
	SourceSection *string         `json:"source_section,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	Status        IndicatorStatus `json:"status"`
	Attempts      int             `json:"attempts"`
}

// ExtractionReport keeps results in catalog order.
type ExtractionReport struct {
	Results []IndicatorResult
}

func (r *ExtractionReport) Add(result IndicatorResult) {
	r.Results = append(r.Results, result)
}

func (r ExtractionReport) Get(key string) (IndicatorResult, bool) {
	for _, res := range r.Results {
		if res.Key == key {
			return res, true
		}
	}
	return IndicatorResult{}, false
}

func (r ExtractionReport) Keys() []string {
	out := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, res.Key)
	}
	return out
}

// MarshalJSON renders the report as a JSON object keyed by indicator key,
// preserving catalog order.
func (r ExtractionReport) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, res := range r.Results {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(res.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(res)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ExtractionRequest is one question attempt handed to the extractor.
type ExtractionRequest struct {
	IndicatorName string
	Question      string
	Units         []string
	Chunks        []SourceChunk
}
