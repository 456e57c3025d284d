// =============================================================================
// ANDPAD Invoice Converter - Output Module
// =============================================================================
//
// This module renders finished rows into the file the import accepts.
//
// FORMATS:
//   - xlsx: one sheet, fixed column order, widths per column name, and
//           vertically merged runs of equal values in the merge columns
//   - csv:  UTF-8 with a byte order mark so spreadsheet tools detect the
//           encoding of the Japanese headers
//
// Rendering is deterministic: the same rows always produce the same cells.
//
// CUSTOMIZATION:
//   - MergeColumns selects which columns are merged (config merge_columns)
//   - ColumnWidth holds the width rules
//
// =============================================================================

package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/logging"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

// Format is an output file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatCSV:
		return f, nil
	case "":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want xlsx or csv)", s)
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string { return string(f) }

// ImportSheetName is the sheet name of the import workbook.
const ImportSheetName = "ANDPAD Import"

// utf8BOM prefixes CSV output.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a renderer-neutral sheet: a column set and its rows.
type Table struct {
	SheetName string
	Columns   []string
	Rows      [][]string

	// Width overrides ColumnWidth for this table.
	Width func(col string) float64
}

// ImportTable lays items out in the import column order.
func ImportTable(items []types.LineItem) Table {
	t := Table{SheetName: ImportSheetName, Columns: types.MasterColumns}
	for _, li := range items {
		t.Rows = append(t.Rows, li.Record())
	}
	return t
}

// =============================================================================
// ASSEMBLER
// =============================================================================

// Assembler renders tables.
type Assembler struct {
	mergeColumns []string
	logger       *slog.Logger
}

// New returns an Assembler merging the given columns in workbooks.
func New(mergeColumns []string, logger *slog.Logger) *Assembler {
	return &Assembler{mergeColumns: mergeColumns, logger: logging.OrDefault(logger)}
}

// Assemble renders import rows.
func (a *Assembler) Assemble(items []types.LineItem, f Format) ([]byte, error) {
	return a.Render(ImportTable(items), f)
}

// Render renders t in format f.
func (a *Assembler) Render(t Table, f Format) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch f {
	case FormatXLSX:
		data, err = a.renderXLSX(t)
	case FormatCSV:
		data, err = renderCSV(t)
	default:
		return nil, fmt.Errorf("unsupported output format %q", f)
	}
	if err != nil {
		return nil, err
	}
	a.logger.Info("output.rendered", "format", string(f), "sheet", t.SheetName, "rows", len(t.Rows), "bytes", len(data))
	return data, nil
}

// =============================================================================
// CSV
// =============================================================================

func renderCSV(t Table) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	return buf.Bytes(), nil
}

// =============================================================================
// XLSX
// =============================================================================

func (a *Assembler) renderXLSX(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.SheetName
	if sheet == "" {
		sheet = ImportSheetName
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("xlsx header: %w", err)
	}
	for r, row := range t.Rows {
		values := make([]any, len(row))
		for i, v := range row {
			values[i] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("xlsx row %d: %w", r+1, err)
		}
	}

	width := t.Width
	if width == nil {
		width = ColumnWidth
	}
	for i, c := range t.Columns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("xlsx column %d: %w", i+1, err)
		}
		if err := f.SetColWidth(sheet, col, col, width(c)); err != nil {
			return nil, fmt.Errorf("xlsx width %s: %w", c, err)
		}
	}

	if err := a.mergeRuns(f, sheet, t); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// mergeRuns merges each run of two or more equal, non-empty values in the
// merge columns and aligns the merged cell to the top.
func (a *Assembler) mergeRuns(f *excelize.File, sheet string, t Table) error {
	style, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}

	for _, name := range a.mergeColumns {
		idx := indexOf(t.Columns, name)
		if idx < 0 {
			continue
		}
		col, _ := excelize.ColumnNumberToName(idx + 1)
		for _, run := range Runs(t.Rows, idx) {
			top := fmt.Sprintf("%s%d", col, run.Start+2)
			bottom := fmt.Sprintf("%s%d", col, run.End+2)
			if err := f.MergeCell(sheet, top, bottom); err != nil {
				return fmt.Errorf("xlsx merge %s:%s: %w", top, bottom, err)
			}
			if err := f.SetCellStyle(sheet, top, bottom, style); err != nil {
				return fmt.Errorf("xlsx style %s:%s: %w", top, bottom, err)
			}
		}
	}
	return nil
}

// Run is an inclusive range of data row indexes holding one value.
type Run struct {
	Start, End int
}

// Runs finds the runs of two or more equal, non-empty values in column col.
func Runs(rows [][]string, col int) []Run {
	var runs []Run
	start := 0
	for i := 1; i <= len(rows); i++ {
		if i < len(rows) && cell(rows[i], col) == cell(rows[start], col) {
			continue
		}
		if i-start > 1 && cell(rows[start], col) != "" {
			runs = append(runs, Run{Start: start, End: i - 1})
		}
		start = i
	}
	return runs
}

// ColumnWidth returns the display width for a column name.
func ColumnWidth(col string) float64 {
	switch {
	case strings.Contains(col, "管理ID") && col != types.ColProjectID:
		return 15
	case strings.Contains(col, "取引先"):
		return 12
	case strings.Contains(col, "請求名"):
		return 35
	case col == types.ColProjectID:
		return 18
	case strings.Contains(col, "明細名"):
		return 35
	case strings.Contains(col, "担当者") || strings.Contains(col, "監督"):
		return 12
	case strings.Contains(col, "日"):
		return 12
	case strings.Contains(col, "金額") || strings.Contains(col, "単価"):
		return 12
	case strings.Contains(col, "備考"):
		return 30
	default:
		return 10
	}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
