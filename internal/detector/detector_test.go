package detector

import (
	"testing"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
)

func testMappings() []*config.VendorMapping {
	return []*config.VendorMapping{
		{
			Vendor:       "汎用明細",
			FilePatterns: []string{"明細"},
			ColumnMap: []config.ColumnMapping{
				{Source: "摘要", Target: "description"},
				{Source: "請求額", Target: "amount"},
				{Source: "日付", Target: "delivery_date"},
				{Source: "現場名", Target: "site"},
			},
		},
		{
			Vendor:       "クリーン産業",
			Procedural:   true,
			FilePatterns: []string{"クリーン産業"},
		},
		{
			Vendor:            "オメガジャパン",
			Procedural:        true,
			FilePatterns:      []string{"オメガジャパン"},
			AlternatePatterns: []string{"omega"},
		},
		{
			Vendor:     "大萬",
			Procedural: true,
			FilePatterns: []string{
				"大萬",
			},
			ColumnMap: []config.ColumnMapping{
				{Source: "商品名", Target: "description"},
				{Source: "仕入金額", Target: "amount"},
			},
		},
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"【クリーン産業】請求書 2025年8月.csv", "クリーン産業請求書2025年8月"},
		{"ｸﾘｰﾝ産業（8月分）.CSV", "クリーン産業8月分"},
		{"Omega_Japan-Invoice.xlsx", "omegajapaninvoice"},
		{"ＯＭＥＧＡ　請求.xls", "omega請求"},
		{"a.b.c.txt", "abc"},
		{"「大萬」・明細/2025", "大萬明細2025"},
		{"  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeName(tt.in); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDetectByFilename(t *testing.T) {
	d := New(testMappings(), nil)

	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"exact", "クリーン産業_202508.csv", "クリーン産業"},
		{"bracketed", "【クリーン産業】8月.csv", "クリーン産業"},
		{"alternate pattern", "OMEGA-2025-08.xlsx", "オメガジャパン"},
		// Both the procedural 大萬 and the declarative 明細 patterns are
		// present; procedural vendors win.
		{"procedural first", "明細_大萬.csv", "大萬"},
		{"declarative", "仕入明細.csv", "汎用明細"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := d.Detect(tt.filename, nil)
			if !res.Detected {
				t.Fatalf("Detect(%q) not detected", tt.filename)
			}
			if res.Mapping.Vendor != tt.want {
				t.Errorf("vendor = %s, want %s", res.Mapping.Vendor, tt.want)
			}
			if res.Method != MethodFilename {
				t.Errorf("method = %s, want filename", res.Method)
			}
		})
	}
}

func TestDetectByHeaders(t *testing.T) {
	d := New(testMappings(), nil)

	tests := []struct {
		name    string
		headers []string
		want    string
		score   float64
	}{
		{"full match", []string{"摘要", "請求額", "日付", "現場名"}, "汎用明細", 1},
		{"half match", []string{"摘要", "請求額(税抜)", "備考"}, "汎用明細", 0.5},
		{"case and width folding", []string{"商品名 ", "ＸＸ", "仕入金額"}, "大萬", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := d.Detect("unknown.csv", tt.headers)
			if !res.Detected {
				t.Fatalf("not detected, sample=%v", res.HeadersSample)
			}
			if res.Mapping.Vendor != tt.want || res.Method != MethodHeaders {
				t.Errorf("got %s via %s, want %s via headers", res.Mapping.Vendor, res.Method, tt.want)
			}
			if res.Score != tt.score {
				t.Errorf("score = %v, want %v", res.Score, tt.score)
			}
		})
	}
}

func TestDetectFailureCarriesSample(t *testing.T) {
	d := New(testMappings(), nil)
	headers := []string{"a", "b", "c", "d", "e", "f", "g"}

	res := d.Detect("unknown.csv", headers)
	if res.Detected {
		t.Fatalf("unexpected detection: %s", res.Mapping.Vendor)
	}
	if len(res.HeadersSample) != 5 || res.HeadersSample[0] != "a" {
		t.Errorf("HeadersSample = %v", res.HeadersSample)
	}
}

func TestDetectIgnoresBlankHeaders(t *testing.T) {
	d := New(testMappings(), nil)
	res := d.Detect("unknown.csv", []string{"", " ", ""})
	if res.Detected {
		t.Errorf("blank headers should not match anything, got %s", res.Mapping.Vendor)
	}
}

func TestDetectIsPure(t *testing.T) {
	d := New(testMappings(), nil)
	headers := []string{"品名", "金額"}
	first := d.Detect("x.csv", headers)
	for i := 0; i < 3; i++ {
		again := d.Detect("x.csv", headers)
		if again.Detected != first.Detected || again.Mapping != first.Mapping || again.Score != first.Score {
			t.Fatalf("Detect not stable across calls: %+v vs %+v", first, again)
		}
	}
}

func TestHeaderScoreTieKeepsEarlierMapping(t *testing.T) {
	a := &config.VendorMapping{Vendor: "A", ColumnMap: []config.ColumnMapping{{Source: "品名", Target: "description"}, {Source: "x", Target: "amount"}}}
	b := &config.VendorMapping{Vendor: "B", ColumnMap: []config.ColumnMapping{{Source: "品名", Target: "description"}, {Source: "y", Target: "amount"}}}
	d := New([]*config.VendorMapping{a, b}, nil)

	res := d.Detect("z.csv", []string{"品名"})
	if !res.Detected || res.Mapping.Vendor != "A" {
		t.Errorf("tie should go to the earlier mapping, got %+v", res)
	}
}

func TestLookup(t *testing.T) {
	d := New(testMappings(), nil)
	if m, ok := d.Lookup("大萬"); !ok || m.Vendor != "大萬" {
		t.Error("Lookup(大萬) failed")
	}
	if _, ok := d.Lookup("不明"); ok {
		t.Error("Lookup(不明) should fail")
	}
	if first := d.Mappings()[0]; !first.Procedural {
		t.Errorf("first mapping %s should be procedural", first.Vendor)
	}
}
