package ollama

import (
	"fmt"
	"strings"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
)

const systemPrompt = `You extract one quantitative sustainability indicator from report excerpts.
Answer with a single JSON object that matches the provided schema.
Use only the provided chunks. Do not infer or estimate values.
Return one value, keep the unit exactly as written, prefer consolidated group figures and the latest reporting year.
If the value is not present, return null fields and confidence 0.
Do not use thousands separators in numbers.`

var nullableNumber = map[string]any{"type": []string{"number", "null"}}
var nullableString = map[string]any{"type": []string{"string", "null"}}

var extractionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"value":          nullableNumber,
		"unit":           nullableString,
		"page_reference": map[string]any{"type": []string{"integer", "string", "null"}},
		"confidence":     nullableNumber,
		"source_section": nullableString,
		"notes":          nullableString,
	},
	"required": []string{"value", "unit", "page_reference", "confidence"},
}

func buildExtractionPrompt(req domain.ExtractionRequest) string {
	var chunks strings.Builder
	for _, chunk := range req.Chunks {
		page := "Unknown"
		if chunk.Page > 0 {
			page = fmt.Sprintf("%d", chunk.Page)
		}
		fmt.Fprintf(&chunks, "\n[PAGE %s]\n%s\n", page, chunk.Text)
	}

	return fmt.Sprintf(`Indicator:
%s
Question:
%s
Allowed units:
%s
Document Chunks:
%s
`, req.IndicatorName, req.Question, strings.Join(req.Units, ", "), chunks.String())
}
