// =============================================================================
// ANDPAD Invoice Converter - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration files.
// It handles both the main application configuration and the vendor mappings
// that describe how each supplier's invoice file is recognized and read.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global application settings
//   2. Vendor Mappings (mappings/*.yaml): One file per vendor invoice shape
//
// When no mappings directory is configured, the mappings embedded in the
// binary (configs/vendors) are used.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned by the process command for vendor files.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is where generated import files are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives input files after a successful conversion.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// MappingsDir holds the vendor mapping YAML files. Empty means the
	// embedded defaults.
	MappingsDir string `yaml:"mappings_dir"`

	// InputEncoding is the CSV encoding: auto, utf-8, shift_jis or euc-jp.
	// Default: "auto"
	InputEncoding string `yaml:"input_encoding"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the slog handler: "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputFormat is "xlsx" or "csv".
	// Default: "xlsx"
	OutputFormat string `yaml:"output_format"`

	// OutputNameFormat defines the output file name.
	// Placeholders:
	//   {vendor}    - Vendor name, or "Combined" for batches
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {uuid}      - A random UUID
	//   {ext}       - Output format extension
	// Default: "ANDPAD_{vendor}_{timestamp}.{ext}"
	OutputNameFormat string `yaml:"output_name_format"`

	// MergeColumns lists the workbook columns whose repeated values are
	// merged vertically.
	// Default: ["取引先", "請求名"]
	MergeColumns []string `yaml:"merge_columns"`

	// =========================================================================
	// IMPORT DEFAULTS
	// =========================================================================

	// Defaults are the constant values written into every import row.
	Defaults ImportDefaults `yaml:"defaults"`

	// VendorRules adds discount rules on top of the built-in ones.
	VendorRules []VendorRule `yaml:"vendor_rules"`

	// StrictTotals turns the invoice/line total mismatch warning into a
	// failure.
	// Default: false
	StrictTotals bool `yaml:"strict_totals"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files converted at once by
	// the process command. Set to 1 for sequential processing.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError keeps the process command going after a failed file.
	// Default: true
	ContinueOnError *bool `yaml:"continue_on_error"`

	// ArchiveInputs moves converted inputs into InputArchiveDir.
	// Default: false
	ArchiveInputs bool `yaml:"archive_inputs"`
}

// ImportDefaults holds the fixed values of the import sheet.
type ImportDefaults struct {
	// DealType is written to 取引設定.
	// Default: "紙発注"
	DealType string `yaml:"deal_type"`

	// OrdererStaffID is written to 担当者(発注側).
	// Default: "925646"
	OrdererStaffID string `yaml:"orderer_staff_id"`

	// SupervisorID is written to 現場監督.
	// Default: "925646"
	SupervisorID string `yaml:"supervisor_id"`

	// TaxFlag is written to 課税フラグ.
	// Default: "課税"
	TaxFlag string `yaml:"tax_flag"`
}

// VendorRule is a declarative per-vendor discount.
type VendorRule struct {
	// Vendor must equal the vendor name exactly.
	Vendor string `yaml:"vendor"`

	// DiscountPercent is applied multiplicatively, e.g. 1 means x0.99.
	DiscountPercent string `yaml:"discount_percent"`

	// Note is appended to the remarks of every adjusted row.
	Note string `yaml:"note"`
}

// =============================================================================
// VENDOR MAPPING STRUCTURE
// =============================================================================

// VendorMapping describes how one vendor's invoice file is recognized and
// read. Mappings are immutable once loaded.
type VendorMapping struct {
	// Vendor is the vendor name used for lookups and in invoice labels.
	Vendor string `yaml:"vendor"`

	// FilePatterns are matched as substrings of the normalized file name.
	FilePatterns []string `yaml:"file_patterns"`

	// AlternatePatterns are tried after FilePatterns.
	AlternatePatterns []string `yaml:"alternate_patterns,omitempty"`

	// ColumnMap maps source columns to target fields. Every source column
	// is required. Procedural vendors may list columns here purely as a
	// header signature for detection.
	ColumnMap []ColumnMapping `yaml:"column_map,omitempty"`

	// SkipRows drops rows whose first cell contains any of these strings.
	SkipRows []string `yaml:"skip_rows,omitempty"`

	// Procedural selects the vendor's hand-written extractor.
	Procedural bool `yaml:"procedural"`

	// ConstructionCategory forces 工事種類 for every row of this vendor.
	ConstructionCategory string `yaml:"construction_category,omitempty"`

	// SystemID overrides the built-in vendor system id table.
	SystemID string `yaml:"system_id,omitempty"`
}

// ColumnMapping maps one source column to one target field.
type ColumnMapping struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`

	// Transforms run in order on the source value before it is assigned.
	Transforms []TransformationAction `yaml:"transforms,omitempty"`
}

// TransformationAction defines a single transformation action.
type TransformationAction struct {
	// Type is the type of transformation to apply.
	// Supported types:
	//   - "trim", "uppercase", "lowercase", "normalize_whitespace"
	//   - "prepend_string", "append_string"
	//   - "replace", "regex_replace"
	//   - "extract_digits"
	//   - "lookup"
	//   - "if_empty_use_default"
	Type string `yaml:"type"`

	// Value is the parameter for the transformation.
	Value string `yaml:"value"`

	// Find is used for "replace" and "regex_replace" transformations.
	Find string `yaml:"find,omitempty"`

	// LookupTable is used for "lookup" transformations.
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// SourceColumns returns the required source columns in mapping order.
func (m *VendorMapping) SourceColumns() []string {
	cols := make([]string, 0, len(m.ColumnMap))
	for _, c := range m.ColumnMap {
		cols = append(cols, c.Source)
	}
	return cols
}

// Patterns returns FilePatterns followed by AlternatePatterns.
func (m *VendorMapping) Patterns() []string {
	out := make([]string, 0, len(m.FilePatterns)+len(m.AlternatePatterns))
	out = append(out, m.FilePatterns...)
	return append(out, m.AlternatePatterns...)
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file. A missing file
//     is not an error; defaults are returned instead.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	// Read the configuration file.
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Run with defaults.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply default values.
	applyMainConfigDefaults(&config)

	// Validate the configuration.
	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a MainConfig with every default applied.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.InputEncoding == "" {
		config.InputEncoding = "auto"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
	if config.OutputFormat == "" {
		config.OutputFormat = "xlsx"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "ANDPAD_{vendor}_{timestamp}.{ext}"
	}
	if config.MergeColumns == nil {
		config.MergeColumns = []string{"取引先", "請求名"}
	}
	if config.Defaults.DealType == "" {
		config.Defaults.DealType = "紙発注"
	}
	if config.Defaults.OrdererStaffID == "" {
		config.Defaults.OrdererStaffID = "925646"
	}
	if config.Defaults.SupervisorID == "" {
		config.Defaults.SupervisorID = "925646"
	}
	if config.Defaults.TaxFlag == "" {
		config.Defaults.TaxFlag = "課税"
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}
	if config.ContinueOnError == nil {
		yes := true
		config.ContinueOnError = &yes
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	switch config.OutputFormat {
	case "xlsx", "csv":
	default:
		return fmt.Errorf("output_format must be xlsx or csv, got %q", config.OutputFormat)
	}
	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be positive, got %d", config.MaxConcurrency)
	}
	for i, r := range config.VendorRules {
		if strings.TrimSpace(r.Vendor) == "" {
			return fmt.Errorf("vendor_rules[%d]: vendor is required", i)
		}
	}
	return nil
}

// LoadVendorMappings loads all vendor mappings from a directory.
//
// PARAMETERS:
//   - mappingsDir: The path to the directory containing mapping files.
//
// RETURNS:
//   - The mappings in file name order.
//   - An error if the directory cannot be read or any file is invalid.
func LoadVendorMappings(mappingsDir string) ([]*VendorMapping, error) {
	return LoadVendorMappingsFS(os.DirFS(mappingsDir), ".")
}

// LoadVendorMappingsFS loads every *.yaml and *.yml file under dir in fsys.
// Files are read in lexical order so detection priority is reproducible.
func LoadVendorMappingsFS(fsys fs.FS, dir string) ([]*VendorMapping, error) {
	// Find all YAML files in the mappings directory.
	files, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list mapping files: %w", err)
	}

	// Also check for .yml extension.
	ymlFiles, err := fs.Glob(fsys, path.Join(dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list mapping files: %w", err)
	}
	files = append(files, ymlFiles...)
	sort.Strings(files)

	mappings := make([]*VendorMapping, 0, len(files))
	seen := make(map[string]string)

	// Load each mapping file.
	for _, file := range files {
		mapping, err := loadVendorMapping(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		if prev, ok := seen[mapping.Vendor]; ok {
			return nil, fmt.Errorf("vendor %q defined in both %s and %s", mapping.Vendor, prev, file)
		}
		seen[mapping.Vendor] = file
		mappings = append(mappings, mapping)
	}

	return mappings, nil
}

// loadVendorMapping loads a single vendor mapping file.
func loadVendorMapping(fsys fs.FS, filePath string) (*VendorMapping, error) {
	// Read the mapping file.
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Parse the YAML.
	var mapping VendorMapping
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	if err := ValidateVendorMapping(&mapping); err != nil {
		return nil, err
	}

	return &mapping, nil
}

// ValidateVendorMapping checks the fields every mapping needs.
func ValidateVendorMapping(m *VendorMapping) error {
	if strings.TrimSpace(m.Vendor) == "" {
		return errors.New("vendor is required")
	}
	if len(m.Patterns()) == 0 && len(m.ColumnMap) == 0 {
		return fmt.Errorf("vendor %q: needs file_patterns or column_map to be detectable", m.Vendor)
	}
	if !m.Procedural && len(m.ColumnMap) == 0 {
		return fmt.Errorf("vendor %q: declarative mapping needs a column_map", m.Vendor)
	}
	for i, c := range m.ColumnMap {
		if strings.TrimSpace(c.Source) == "" || strings.TrimSpace(c.Target) == "" {
			return fmt.Errorf("vendor %q: column_map[%d] needs source and target", m.Vendor, i)
		}
	}
	return nil
}
