package mcpadapter

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
	"github.com/acrobyte007/Sustainability/internal/core/ports"
)

type extractorFake struct {
	namespace string
	docIDs    []string
}

func (f *extractorFake) Extract(_ context.Context, namespace string, documentIDs []string, _ ports.ProgressSink) domain.ExtractionReport {
	f.namespace, f.docIDs = namespace, documentIDs
	return domain.ExtractionReport{Results: []domain.IndicatorResult{
		{Key: "Board_Meetings", IndicatorName: "Board Meetings Held", Status: domain.IndicatorNotFound, Attempts: 4},
	}}
}

func (f *extractorFake) Catalog() []domain.IndicatorSpec {
	return []domain.IndicatorSpec{{Key: "Board_Meetings", Units: []string{"count/year"}, Question: "q"}}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestExtractIndicatorsTool(t *testing.T) {
	fake := &extractorFake{}
	h := NewHandlers(fake, nil)

	res, err := h.ExtractIndicators(context.Background(), callRequest("extract_indicators", map[string]any{
		"user_id": " alice ",
		"doc_ids": []any{"doc-1", " ", "doc-2"},
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "alice", fake.namespace)
	assert.Equal(t, []string{"doc-1", "doc-2"}, fake.docIDs)

	var payload struct {
		Indicators map[string]domain.IndicatorResult `json:"indicators"`
		ESRS       []domain.DerivedIndicator         `json:"esrs"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	assert.Equal(t, domain.IndicatorNotFound, payload.Indicators["Board_Meetings"].Status)
	assert.Len(t, payload.ESRS, len(domain.ESRSOrder))
}

func TestExtractIndicatorsToolRejectsMissingArguments(t *testing.T) {
	fake := &extractorFake{}
	h := NewHandlers(fake, nil)

	res, err := h.ExtractIndicators(context.Background(), callRequest("extract_indicators", map[string]any{"user_id": "alice"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = h.ExtractIndicators(context.Background(), callRequest("extract_indicators", map[string]any{"doc_ids": []any{"doc-1"}}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Empty(t, fake.namespace)
}

func TestListIndicatorsTool(t *testing.T) {
	h := NewHandlers(&extractorFake{}, nil)
	res, err := h.ListIndicators(context.Background(), callRequest("list_indicators", nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), `"key":"Board_Meetings"`)
}
