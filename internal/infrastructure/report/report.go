// Package report renders the ESRS table derived from an extraction run.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const sheetName = "ESRS"

var Header = []string{
	"indicator_code",
	"indicator_name",
	"value",
	"unit",
	"confidence",
	"source_page",
	"source_section",
	"notes",
}

func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "parse report format", fmt.Errorf("unsupported format %q", raw))
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

func (f Format) Filename() string {
	return "esrs_report." + string(f)
}

// Rows flattens derived indicators into string cells; missing values are
// empty cells.
func Rows(rows []domain.DerivedIndicator) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Code,
			r.IndicatorName,
			formatFloat(r.Value),
			deref(r.Unit),
			strconv.FormatFloat(r.Confidence, 'f', -1, 64),
			derefPage(r.Page),
			deref(r.SourceSection),
			deref(r.Notes),
		})
	}
	return out
}

func WriteCSV(w io.Writer, rows []domain.DerivedIndicator) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(Rows(rows)); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

func WriteXLSX(w io.Writer, rows []domain.DerivedIndicator) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", "H1", bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{r.Code, r.IndicatorName, nil, deref(r.Unit), r.Confidence, derefPage(r.Page), deref(r.SourceSection), deref(r.Notes)}
		if r.Value != nil {
			values[2] = *r.Value
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(sheetName, "A", "B", 36); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefPage(p *domain.PageRef) string {
	if p == nil {
		return ""
	}
	return string(*p)
}
