package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractionResponseDecodesNumericAndStringPages(t *testing.T) {
	var numeric ExtractionResponse
	require.NoError(t, json.Unmarshal([]byte(`{"value":12.5,"unit":"tCO2e","page_reference":14,"confidence":0.9}`), &numeric))
	require.NotNil(t, numeric.PageReference)
	assert.Equal(t, PageRef("14"), *numeric.PageReference)

	var label ExtractionResponse
	require.NoError(t, json.Unmarshal([]byte(`{"value":null,"page_reference":"12-13","confidence":null}`), &label))
	require.NotNil(t, label.PageReference)
	assert.Equal(t, PageRef("12-13"), *label.PageReference)
	assert.Nil(t, label.Value)
	assert.Nil(t, label.Confidence)
}

func TestPageRefMarshalsNumbersAsNumbers(t *testing.T) {
	raw, err := json.Marshal(struct {
		A PageRef `json:"a"`
		B PageRef `json:"b"`
	}{A: "7", B: "iv"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":7,"b":"iv"}`, string(raw))
}

func TestAcceptedTreatsZeroAsFound(t *testing.T) {
	zero, conf, low := 0.0, 0.6, 0.59
	assert.True(t, ExtractionResponse{Value: &zero, Confidence: &conf}.Accepted(0.6))
	assert.False(t, ExtractionResponse{Value: &zero, Confidence: &low}.Accepted(0.6))
	assert.False(t, ExtractionResponse{Confidence: &conf}.Accepted(0.6), "null value")
	assert.False(t, ExtractionResponse{Value: &zero}.Accepted(0.6), "null confidence")
}

func TestExtractionReportMarshalKeepsCatalogOrder(t *testing.T) {
	var report ExtractionReport
	report.Add(IndicatorResult{Key: "Zeta", Status: IndicatorNotFound})
	report.Add(IndicatorResult{Key: "Alpha", Status: IndicatorOK})

	raw, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Less(t, strings.Index(string(raw), `"Zeta"`), strings.Index(string(raw), `"Alpha"`))
	_, ok := report.Get("Alpha")
	assert.True(t, ok)
}

func TestIndicatorSpecAllowsUnit(t *testing.T) {
	spec := IndicatorSpec{Units: []string{"tCO2e", "ktCO2e"}}
	assert.True(t, spec.AllowsUnit("ktCO2e"))
	assert.False(t, spec.AllowsUnit("kg"))
}
