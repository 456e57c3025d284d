package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/ginjaninja78/andpad-invoice-converter/configs"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadMainConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadMainConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadMainConfig() error = %v", err)
	}
	if cfg.OutputFormat != "xlsx" {
		t.Errorf("OutputFormat = %q, want xlsx", cfg.OutputFormat)
	}
	if cfg.Defaults.DealType != "紙発注" || cfg.Defaults.OrdererStaffID != "925646" || cfg.Defaults.TaxFlag != "課税" {
		t.Errorf("unexpected defaults: %+v", cfg.Defaults)
	}
	if cfg.ContinueOnError == nil || !*cfg.ContinueOnError {
		t.Error("ContinueOnError should default to true")
	}
	if len(cfg.MergeColumns) != 2 {
		t.Errorf("MergeColumns = %v", cfg.MergeColumns)
	}
}

func TestLoadMainConfig(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
		check   func(t *testing.T, cfg *MainConfig)
	}{
		{
			name: "overrides",
			content: `
output_format: csv
output_dir: /tmp/out
strict_totals: true
continue_on_error: false
merge_columns: []
defaults:
  supervisor_id: "100200"
vendor_rules:
  - vendor: 三高産業
    discount_percent: "2"
    note: "[2%割引適用]"
`,
			check: func(t *testing.T, cfg *MainConfig) {
				if cfg.OutputFormat != "csv" || cfg.OutputDir != "/tmp/out" {
					t.Errorf("unexpected output settings: %+v", cfg)
				}
				if !cfg.StrictTotals {
					t.Error("StrictTotals should be true")
				}
				if *cfg.ContinueOnError {
					t.Error("ContinueOnError should be false")
				}
				if len(cfg.MergeColumns) != 0 {
					t.Errorf("explicit empty merge_columns should stay empty, got %v", cfg.MergeColumns)
				}
				if cfg.Defaults.SupervisorID != "100200" || cfg.Defaults.OrdererStaffID != "925646" {
					t.Errorf("unexpected defaults: %+v", cfg.Defaults)
				}
				if len(cfg.VendorRules) != 1 || cfg.VendorRules[0].DiscountPercent != "2" {
					t.Errorf("VendorRules = %+v", cfg.VendorRules)
				}
			},
		},
		{
			name:    "bad format",
			content: "output_format: pdf\n",
			wantErr: "output_format",
		},
		{
			name:    "rule without vendor",
			content: "vendor_rules:\n  - discount_percent: \"1\"\n",
			wantErr: "vendor is required",
		},
		{
			name:    "invalid yaml",
			content: "output_format: [\n",
			wantErr: "failed to parse",
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeFile(t, dir, filepath.Base(t.Name())+string(rune('a'+i))+".yaml", tt.content)
			cfg, err := LoadMainConfig(p)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadMainConfig() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadVendorMappings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yml", `
vendor: ベンダーB
file_patterns: [vendorb]
column_map:
  - source: 品名
    target: description
  - source: 金額
    target: amount
skip_rows: [合計]
`)
	writeFile(t, dir, "a.yaml", `
vendor: ベンダーA
procedural: true
file_patterns: [vendora]
`)
	writeFile(t, dir, "notes.txt", "ignored")

	mappings, err := LoadVendorMappings(dir)
	if err != nil {
		t.Fatalf("LoadVendorMappings() error = %v", err)
	}
	if len(mappings) != 2 {
		t.Fatalf("got %d mappings, want 2", len(mappings))
	}
	if mappings[0].Vendor != "ベンダーA" || mappings[1].Vendor != "ベンダーB" {
		t.Errorf("mappings not in file name order: %s, %s", mappings[0].Vendor, mappings[1].Vendor)
	}
	if got := mappings[1].SourceColumns(); len(got) != 2 || got[0] != "品名" || got[1] != "金額" {
		t.Errorf("SourceColumns() = %v", got)
	}
}

func TestLoadVendorMappingsErrors(t *testing.T) {
	tests := []struct {
		name    string
		files   fstest.MapFS
		wantErr string
	}{
		{
			name: "duplicate vendor",
			files: fstest.MapFS{
				"m/a.yaml": {Data: []byte("vendor: X\nprocedural: true\nfile_patterns: [x]\n")},
				"m/b.yaml": {Data: []byte("vendor: X\nprocedural: true\nfile_patterns: [y]\n")},
			},
			wantErr: "defined in both",
		},
		{
			name: "declarative without columns",
			files: fstest.MapFS{
				"m/a.yaml": {Data: []byte("vendor: X\nfile_patterns: [x]\n")},
			},
			wantErr: "needs a column_map",
		},
		{
			name: "missing vendor",
			files: fstest.MapFS{
				"m/a.yaml": {Data: []byte("procedural: true\nfile_patterns: [x]\n")},
			},
			wantErr: "vendor is required",
		},
		{
			name: "half column mapping",
			files: fstest.MapFS{
				"m/a.yaml": {Data: []byte("vendor: X\ncolumn_map:\n  - source: a\n")},
			},
			wantErr: "needs source and target",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadVendorMappingsFS(tt.files, "m")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEmbeddedVendorMappings(t *testing.T) {
	mappings, err := LoadVendorMappingsFS(configs.Vendors, configs.VendorsDir)
	if err != nil {
		t.Fatalf("embedded mappings failed to load: %v", err)
	}
	want := map[string]bool{
		"クリーン産業": true, "三高産業": true, "北恵株式会社": true, "ナンセイ": true, "大萬": true,
		"高菱管理": true, "オメガジャパン": true, "ナカザワ建販": true, "トキワシステム": true, "汎用明細": false,
	}
	if len(mappings) != len(want) {
		t.Fatalf("got %d embedded mappings, want %d", len(mappings), len(want))
	}
	for _, m := range mappings {
		procedural, ok := want[m.Vendor]
		if !ok {
			t.Errorf("unexpected vendor %q", m.Vendor)
			continue
		}
		if m.Procedural != procedural {
			t.Errorf("%s: Procedural = %v, want %v", m.Vendor, m.Procedural, procedural)
		}
	}
}
