package exports

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/kpierre24/studio-sub001/internal/errors"
	"github.com/kpierre24/studio-sub001/internal/models"
)

// documentRowsPerPage is how many data rows a document page holds.
const documentRowsPerPage = 40

// serialize renders a report into the requested format and returns the
// bytes plus their content type.
func serialize(report *models.ReportData, format models.ExportFormat) ([]byte, string, error) {
	switch format {
	case models.FormatCSV:
		data, err := serializeCSV(report)
		return data, "text/csv", err
	case models.FormatJSON:
		data, err := serializeJSON(report)
		return data, "application/json", err
	case models.FormatXLSX:
		data, err := serializeXLSX(report)
		return data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", err
	case models.FormatDocument:
		data, err := serializeDocument(report)
		return data, "text/plain", err
	default:
		return nil, "", apperrors.NewConfigurationError("format", string(format), "unknown export format")
	}
}

// columnOrder is the union of keys across all rows: first-row order
// first, later-appearing keys appended in sorted order.
func columnOrder(rows []map[string]any) []string {
	var columns []string
	seen := make(map[string]bool)
	if len(rows) > 0 {
		keys := make([]string, 0, len(rows[0]))
		for key := range rows[0] {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			columns = append(columns, key)
			seen[key] = true
		}
	}

	var extra []string
	for _, row := range rows[1:] {
		for key := range row {
			if !seen[key] {
				seen[key] = true
				extra = append(extra, key)
			}
		}
	}
	sort.Strings(extra)
	return append(columns, extra...)
}

func cellString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		// Avoid the %v exponent form for large numbers.
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func serializeCSV(report *models.ReportData) ([]byte, error) {
	columns := columnOrder(report.Data)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	record := make([]string, len(columns))
	for _, row := range report.Data {
		for i, column := range columns {
			record[i] = cellString(row[column])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv output: %w", err)
	}
	return buf.Bytes(), nil
}

// serializeJSON emits the {metadata, summary, data} envelope.
func serializeJSON(report *models.ReportData) ([]byte, error) {
	envelope := map[string]any{
		"metadata": report.Metadata,
		"summary":  report.Summary,
		"data":     report.Data,
	}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}

func serializeXLSX(report *models.ReportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Report"
	f.SetSheetName("Sheet1", sheet)

	columns := columnOrder(report.Data)
	for i, column := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to address header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, column); err != nil {
			return nil, fmt.Errorf("failed to write header cell: %w", err)
		}
	}

	for rowIdx, row := range report.Data {
		for colIdx, column := range columns {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, row[column]); err != nil {
				return nil, fmt.Errorf("failed to write cell: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// serializeDocument renders a paginated plain-text document.
func serializeDocument(report *models.ReportData) ([]byte, error) {
	columns := columnOrder(report.Data)

	var b strings.Builder
	totalPages := (len(report.Data) + documentRowsPerPage - 1) / documentRowsPerPage
	if totalPages == 0 {
		totalPages = 1
	}

	for page := 0; page < totalPages; page++ {
		fmt.Fprintf(&b, "Report %s, page %d of %d\n", report.ReportID, page+1, totalPages)
		fmt.Fprintf(&b, "Generated at %s, %d records\n\n",
			report.Metadata.GeneratedAt.Format("2006-01-02 15:04:05"), report.Metadata.TotalRecords)

		start := page * documentRowsPerPage
		end := start + documentRowsPerPage
		if end > len(report.Data) {
			end = len(report.Data)
		}
		for _, row := range report.Data[start:end] {
			parts := make([]string, 0, len(columns))
			for _, column := range columns {
				parts = append(parts, fmt.Sprintf("%s: %s", column, cellString(row[column])))
			}
			b.WriteString(strings.Join(parts, " | "))
			b.WriteByte('\n')
		}

		if page == totalPages-1 && report.Summary != nil {
			b.WriteString("\nSummary\n")
			for _, insight := range report.Summary.Insights {
				b.WriteString("- " + insight + "\n")
			}
		}
		b.WriteString("\f")
	}
	return []byte(b.String()), nil
}
