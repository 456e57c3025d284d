package extractor

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/common"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/logging"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

func testEnv() Env {
	return Env{
		Now:    time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
		Logger: logging.New(&logging.Config{Output: io.Discard}),
	}
}

func newSheet(headers []string, rows ...[]string) types.Sheet {
	s := types.Sheet{Filename: "test.csv", Headers: headers}
	for _, r := range rows {
		s.Rows = append(s.Rows, types.NewRawRow(headers, r...))
	}
	return s
}

func statementMapping() *config.VendorMapping {
	return &config.VendorMapping{
		Vendor: "汎用明細",
		ColumnMap: []config.ColumnMapping{
			{Source: "日付", Target: "納品実績日"},
			{Source: "品名", Target: "請求納品明細名"},
			{Source: "金額", Target: "金額(税抜)"},
		},
		SkipRows: []string{"合計"},
	}
}

func TestMapperExtract(t *testing.T) {
	sheet := newSheet([]string{"日付", "品名", "金額"},
		[]string{"2025/08/01", "セメント", "¥1,000"},
		[]string{"20250802", "砂", "2000円"},
		[]string{"合計", "", "3000"},
		[]string{"", "空行", "1"},
	)

	items, err := NewMapper(testEnv(), statementMapping()).Extract(sheet)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	tests := []struct {
		idx                int
		date, item, amount string
	}{
		{0, "2025/08/01", "セメント", "1000"},
		{1, "2025/8/2", "砂", "2000"},
	}
	for _, tt := range tests {
		got := items[tt.idx]
		if got.Date != tt.date || got.Item != tt.item || got.Amount != tt.amount {
			t.Errorf("item %d = %+v", tt.idx, got)
		}
		if got.Vendor != "汎用明細" {
			t.Errorf("item %d vendor = %q", tt.idx, got.Vendor)
		}
	}
}

func TestMapperMissingColumns(t *testing.T) {
	sheet := newSheet([]string{"日付", "品名"}, []string{"2025/08/01", "セメント"})

	_, err := NewMapper(testEnv(), statementMapping()).Extract(sheet)
	var missing *MissingColumnsError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want MissingColumnsError", err)
	}
	if len(missing.Columns) != 1 || missing.Columns[0] != "金額" {
		t.Errorf("Columns = %v, want [金額]", missing.Columns)
	}
	if err.Error() != "Missing columns: 金額" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestMapperNoRows(t *testing.T) {
	sheet := newSheet([]string{"日付", "品名", "金額"}, []string{"合計", "", "0"})

	_, err := NewMapper(testEnv(), statementMapping()).Extract(sheet)
	if !errors.Is(err, common.ErrNoExtractableRows) {
		t.Fatalf("error = %v, want ErrNoExtractableRows", err)
	}
	if common.KindOf(err) != common.KindExtraction {
		t.Errorf("kind = %q", common.KindOf(err))
	}
}

func TestMapperTransforms(t *testing.T) {
	m := &config.VendorMapping{
		Vendor: "汎用明細",
		ColumnMap: []config.ColumnMapping{
			{Source: "品名", Target: "item"},
			{Source: "金額", Target: "amount"},
			{Source: "工事番号", Target: "project_id", Transforms: []config.TransformationAction{
				{Type: "trim"},
				{Type: "uppercase"},
			}},
			{Source: "単位", Target: "unit", Transforms: []config.TransformationAction{
				{Type: "lookup", LookupTable: map[string]string{"ｺ": "個"}},
			}},
		},
	}
	sheet := newSheet([]string{"品名", "金額", "工事番号", "単位"},
		[]string{"釘", "500", " ab-12 ", "ｺ"},
	)
	items, err := NewMapper(testEnv(), m).Extract(sheet)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if items[0].ProjectID != "AB-12" || items[0].Unit != "個" {
		t.Errorf("got %+v", items[0])
	}
}

func TestMapperUnknownTarget(t *testing.T) {
	m := &config.VendorMapping{
		Vendor:    "x",
		ColumnMap: []config.ColumnMapping{{Source: "a", Target: "nowhere"}},
	}
	if _, err := NewMapper(testEnv(), m).Extract(newSheet([]string{"a"}, []string{"1"})); err == nil {
		t.Fatal("expected error for unknown target")
	}
}

func TestRegistryFor(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name       string
		mapping    *config.VendorMapping
		procedural bool
		wantErr    bool
	}{
		{"procedural vendor", &config.VendorMapping{Vendor: VendorTaiman, Procedural: true}, true, false},
		{"alternate spelling", &config.VendorMapping{Vendor: VendorTakabishiAlt, Procedural: true}, true, false},
		{"declarative", statementMapping(), false, false},
		{"procedural with fallback map", &config.VendorMapping{
			Vendor: "新業者", Procedural: true,
			ColumnMap: []config.ColumnMapping{{Source: "a", Target: "item"}},
		}, false, false},
		{"procedural without anything", &config.VendorMapping{Vendor: "新業者", Procedural: true}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, err := r.For(tt.mapping, testEnv())
			if (err != nil) != tt.wantErr {
				t.Fatalf("For() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			_, isMapper := x.(*Mapper)
			if isMapper == tt.procedural {
				t.Errorf("For() returned %T", x)
			}
		})
	}
}
