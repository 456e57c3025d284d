package csvparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"
)

func TestParseBytes(t *testing.T) {
	content := "\xEF\xBB\xBF日付,現場名,,金額\n2025/8/1,現場A,x,\"1,000\"\n合計,,\n"
	sheet, err := ParseBytes([]byte(content), "a.csv", Options{})
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}

	wantHeaders := []string{"日付", "現場名", "", "金額"}
	if len(sheet.Headers) != len(wantHeaders) {
		t.Fatalf("headers = %q", sheet.Headers)
	}
	for i, h := range wantHeaders {
		if sheet.Headers[i] != h {
			t.Errorf("header %d = %q, want %q", i, sheet.Headers[i], h)
		}
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(sheet.Rows))
	}
	if got := sheet.Rows[0].Get("金額"); got != "1,000" {
		t.Errorf("金額 = %q", got)
	}
	if got := sheet.Rows[1].Get("金額"); got != "" {
		t.Errorf("short row 金額 = %q, want empty", got)
	}
	if sheet.Filename != "a.csv" {
		t.Errorf("Filename = %q", sheet.Filename)
	}
}

func TestParseBytesEncodings(t *testing.T) {
	text := "品名,金額\n木材,500\n"
	sjis, err := japanese.ShiftJIS.NewEncoder().String(text)
	if err != nil {
		t.Fatal(err)
	}
	euc, err := japanese.EUCJP.NewEncoder().String(text)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		data     string
		encoding string
	}{
		{"utf-8", text, ""},
		{"shift_jis detected", sjis, ""},
		{"shift_jis explicit", sjis, EncodingShiftJIS},
		{"euc-jp explicit", euc, EncodingEUCJP},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := ParseBytes([]byte(tt.data), "x.csv", Options{Encoding: tt.encoding})
			if err != nil {
				t.Fatalf("ParseBytes: %v", err)
			}
			if sheet.Headers[0] != "品名" || sheet.Rows[0].Get("品名") != "木材" {
				t.Errorf("decoded headers %q, row %q", sheet.Headers, sheet.Rows[0].Cells)
			}
		})
	}

	if _, err := ParseBytes([]byte(text), "x.csv", Options{Encoding: "latin9"}); err == nil {
		t.Error("expected an error for an unsupported encoding")
	}
}

func TestParseDelimiterAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tab.csv")
	if err := os.WriteFile(path, []byte("a\tb\n1\t2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	sheet, err := Parse(path, Options{Delimiter: "tab"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sheet.Filename != "tab.csv" || sheet.Rows[0].Get("b") != "2" {
		t.Errorf("sheet = %+v", sheet)
	}

	empty, err := ParseReader(strings.NewReader(""), "empty.csv", Options{})
	if err != nil || len(empty.Rows) != 0 {
		t.Errorf("empty input: rows %d, err %v", len(empty.Rows), err)
	}
}
