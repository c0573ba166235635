// Package sheets reads spreadsheet and CSV files into bounded previews used
// for item creation and digest building.
package sheets

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mirahq/ingest-manager/internal/models"
)

// maxPreviewRows bounds how many data rows a preview carries.
const maxPreviewRows = 10

// Worksheet is one sheet of a workbook together with its preview.
type Worksheet struct {
	Name    string
	Preview models.Preview
}

// PreviewXLSX opens the workbook at path and returns a preview per worksheet.
// The first row becomes the header row; missing header cells get positional
// names.
func PreviewXLSX(path string) ([]Worksheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var sheets []Worksheet
	for _, name := range f.GetSheetList() {
		preview, previewErr := sheetPreview(f, name)
		if previewErr != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, previewErr)
		}
		sheets = append(sheets, Worksheet{Name: name, Preview: preview})
	}

	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return sheets, nil
}

func sheetPreview(f *excelize.File, sheet string) (models.Preview, error) {
	rows, err := f.Rows(sheet)
	if err != nil {
		return models.Preview{}, err
	}
	defer rows.Close()

	var preview models.Preview
	first := true
	for rows.Next() {
		cells, rowErr := rows.Columns()
		if rowErr != nil {
			return models.Preview{}, rowErr
		}

		if first {
			preview.Headers = normalizeHeaders(cells)
			first = false
			continue
		}

		preview.Rows = append(preview.Rows, cells)
		if len(preview.Rows) >= maxPreviewRows {
			break
		}
	}

	return preview, rows.Error()
}

// PreviewCSV reads the CSV at path into a single preview. A UTF-8 BOM on the
// first header cell is stripped.
func PreviewCSV(path string) (models.Preview, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Preview{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return models.Preview{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return models.Preview{}, fmt.Errorf("csv file is empty")
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	preview := models.Preview{Headers: normalizeHeaders(header)}
	for _, row := range records[1:] {
		preview.Rows = append(preview.Rows, row)
		if len(preview.Rows) >= maxPreviewRows {
			break
		}
	}
	return preview, nil
}

// normalizeHeaders trims header cells and fills blanks with positional names.
func normalizeHeaders(cells []string) []string {
	headers := make([]string, len(cells))
	for i, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			c = fmt.Sprintf("Column %d", i+1)
		}
		headers[i] = c
	}
	return headers
}
