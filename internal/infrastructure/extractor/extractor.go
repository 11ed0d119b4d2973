// Package extractor turns uploaded files into per-page text.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
)

var pdfMagic = []byte("%PDF-")

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// ExtractPages returns 1-based pages. PDF files are split by page, UTF-8
// text files become a single page.
func (e *Extractor) ExtractPages(ctx context.Context, filename string, data []byte) ([]domain.PageText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic) || strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return extractPDF(data)
	}
	if !utf8.Valid(data) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract pages", fmt.Errorf("unsupported binary format: %s", filename))
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract pages", errors.New("empty document"))
	}
	return []domain.PageText{{Page: 1, Text: text}}, nil
}
