// =============================================================================
// ANDPAD Invoice Converter - XLSX Parser Module
// =============================================================================
//
// This module reads vendor workbooks into a types.Sheet using excelize.
// Only the first sheet is read. Cell values are read raw, so dates arrive
// as Excel serial numbers and amounts without display grouping; the
// extractors handle both.
//
// CUSTOMIZATION:
//   - Options.SheetName reads a named sheet instead of the first one.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

// Options configures the reader.
type Options struct {
	// SheetName selects a sheet. Empty means the first sheet.
	SheetName string
}

// Parse reads a workbook file.
//
// PARAMETERS:
//   - path: The path to the .xlsx file.
//   - opts: Sheet selection.
//
// RETURNS:
//   - The sheet, named after the file's base name.
//   - An error if the workbook cannot be opened or has no such sheet.
func Parse(path string, opts Options) (types.Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Sheet{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return ParseReader(f, filepath.Base(path), opts)
}

// ParseReader reads a workbook from r.
func ParseReader(r io.Reader, filename string, opts Options) (types.Sheet, error) {
	sheet := types.Sheet{Filename: filename}

	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return sheet, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	name := opts.SheetName
	if name == "" {
		name = f.GetSheetName(0)
	}
	if name == "" {
		return sheet, fmt.Errorf("workbook has no sheets")
	}
	if idx, err := f.GetSheetIndex(name); err != nil || idx < 0 {
		return sheet, fmt.Errorf("sheet %q not found", name)
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return sheet, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return sheet, nil
	}

	sheet.Headers = make([]string, len(rows[0]))
	for i, h := range rows[0] {
		sheet.Headers[i] = strings.TrimSpace(h)
	}
	for _, row := range rows[1:] {
		sheet.Rows = append(sheet.Rows, types.RawRow{Headers: sheet.Headers, Cells: row})
	}
	return sheet, nil
}
