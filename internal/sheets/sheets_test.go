package sheets

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Customers"))
	require.NoError(t, f.SetSheetRow("Customers", "A1", &[]any{"Name", "", "Plan"}))
	require.NoError(t, f.SetSheetRow("Customers", "A2", &[]any{"Ada", "ada@example.com", "pro"}))
	require.NoError(t, f.SetSheetRow("Customers", "A3", &[]any{"Grace", "grace@example.com", "free"}))

	_, err := f.NewSheet("Orders")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Orders", "A1", &[]any{"OrderID", "Total"}))
	for i := range 15 {
		cell := fmt.Sprintf("A%d", i+2)
		require.NoError(t, f.SetSheetRow("Orders", cell, &[]any{fmt.Sprintf("ord-%d", i), "9.99"}))
	}

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestPreviewXLSX(t *testing.T) {
	path := writeWorkbook(t)

	worksheets, err := PreviewXLSX(path)
	require.NoError(t, err)
	require.Len(t, worksheets, 2)

	customers := worksheets[0]
	assert.Equal(t, "Customers", customers.Name)
	// Blank header cells get positional names.
	assert.Equal(t, []string{"Name", "Column 2", "Plan"}, customers.Preview.Headers)
	require.Len(t, customers.Preview.Rows, 2)
	assert.Equal(t, []string{"Ada", "ada@example.com", "pro"}, customers.Preview.Rows[0])

	orders := worksheets[1]
	assert.Equal(t, "Orders", orders.Name)
	assert.Equal(t, []string{"OrderID", "Total"}, orders.Preview.Headers)
	// Sample rows are bounded.
	assert.Len(t, orders.Preview.Rows, maxPreviewRows)
}

func TestPreviewXLSXMissingFile(t *testing.T) {
	_, err := PreviewXLSX(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestPreviewCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	content := "\uFEFFName,Plan\nAda,pro\nGrace,free\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	preview, err := PreviewCSV(path)
	require.NoError(t, err)

	// The UTF-8 BOM must not leak into the first header.
	assert.Equal(t, []string{"Name", "Plan"}, preview.Headers)
	assert.Equal(t, [][]string{{"Ada", "pro"}, {"Grace", "free"}}, preview.Rows)
}

func TestPreviewCSVBoundsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.csv")
	content := "id\n"
	for i := range 30 {
		content += fmt.Sprintf("%d\n", i)
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	preview, err := PreviewCSV(path)
	require.NoError(t, err)
	assert.Len(t, preview.Rows, maxPreviewRows)
}

func TestPreviewCSVEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, err := PreviewCSV(path)
	assert.Error(t, err)
}

func TestNormalizeHeaders(t *testing.T) {
	got := normalizeHeaders([]string{" Name ", "", "Total"})
	assert.Equal(t, []string{"Name", "Column 2", "Total"}, got)
}
