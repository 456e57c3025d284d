package xlsxparser

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]any) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	return f
}

func TestParseReader(t *testing.T) {
	f := workbook(t, [][]any{
		{" 日付 ", "品名", "", "金額"},
		{45870, "木材", nil, 12000},
		{nil, "合計"},
	})
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	sheet, err := ParseReader(bytes.NewReader(buf.Bytes()), "v.xlsx", Options{})
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if len(sheet.Headers) != 4 || sheet.Headers[0] != "日付" || sheet.Headers[2] != "" {
		t.Fatalf("headers = %q", sheet.Headers)
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(sheet.Rows))
	}

	tests := []struct {
		col, want string
	}{
		{"日付", "45870"},
		{"品名", "木材"},
		{"金額", "12000"},
	}
	for _, tt := range tests {
		t.Run(tt.col, func(t *testing.T) {
			if got := sheet.Rows[0].Get(tt.col); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.col, got, tt.want)
			}
		})
	}
	if sheet.Rows[1].At(1) != "合計" {
		t.Errorf("second row = %q", sheet.Rows[1].Cells)
	}
}

func TestParseFileAndSheetSelection(t *testing.T) {
	f := workbook(t, [][]any{{"a"}, {"1"}})
	if _, err := f.NewSheet("請求"); err != nil {
		t.Fatal(err)
	}
	_ = f.SetCellValue("請求", "A1", "b")
	path := filepath.Join(t.TempDir(), "book.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	first, err := Parse(path, Options{})
	if err != nil || first.Headers[0] != "a" || first.Filename != "book.xlsx" {
		t.Errorf("first sheet = %+v, err %v", first, err)
	}
	named, err := Parse(path, Options{SheetName: "請求"})
	if err != nil || named.Headers[0] != "b" {
		t.Errorf("named sheet = %+v, err %v", named, err)
	}
	if _, err := Parse(path, Options{SheetName: "missing"}); err == nil {
		t.Error("expected an error for a missing sheet")
	}
}

func TestParseReaderRejectsGarbage(t *testing.T) {
	if _, err := ParseReader(bytes.NewReader([]byte("not a zip")), "x.xlsx", Options{}); err == nil {
		t.Error("expected an error")
	}
}
