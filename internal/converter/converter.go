// =============================================================================
// ANDPAD Invoice Converter - Converter Module
// =============================================================================
//
// This module contains the core conversion logic. It orchestrates the whole
// pipeline for a single file or a batch of files, from the decoded sheet to
// the rendered import file.
//
// CONVERSION PIPELINE:
//   1. Reject empty and already-converted sheets
//   2. Detect the vendor from the file name or headers
//   3. Extract item descriptors with the vendor's extractor
//   4. Normalize descriptors into import rows
//   5. Apply vendor rules (once per vendor group)
//   6. Consolidate to one row per project and validate
//   7. Render the xlsx or csv output
//
// CONCURRENCY:
//   A Converter holds only immutable tables and can be shared between
//   goroutines. Every call creates its own job.Job, so counters such as the
//   management id sequence are never shared between conversions.
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/common"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/consolidation"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/detector"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/extractor"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/job"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/logging"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/normalizer"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/output"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/rules"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/validation"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of a conversion.
type Result struct {
	// JobID correlates the log lines of this conversion.
	JobID string

	// Data is the rendered import file.
	Data []byte

	// RowCount is the number of consolidated rows written.
	RowCount int

	// Vendors lists the detected vendors in input order.
	Vendors []string

	// Format is the format of Data.
	Format output.Format

	// Warnings collects data-quality findings that did not stop the run.
	Warnings []string

	// Skipped lists the files a batch left out.
	Skipped []Skip

	// ProcessingTime is the time taken by the conversion.
	ProcessingTime time.Duration
}

// Skip records why a batch left a file out.
type Skip struct {
	Filename string
	Kind     common.Kind
	Reason   string
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Options configures a Converter.
type Options struct {
	Format       output.Format
	MergeColumns []string
	StrictTotals bool
	Defaults     config.ImportDefaults
	VendorRules  []config.VendorRule

	// Registry defaults to extractor.DefaultRegistry().
	Registry *extractor.Registry

	// Now is the job clock. Default: time.Now.
	Now func() time.Time
}

// OptionsFromConfig maps the main configuration onto Options.
func OptionsFromConfig(cfg *config.MainConfig) (Options, error) {
	format, err := output.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Format:       format,
		MergeColumns: cfg.MergeColumns,
		StrictTotals: cfg.StrictTotals,
		Defaults:     cfg.Defaults,
		VendorRules:  cfg.VendorRules,
	}, nil
}

// Converter runs the pipeline.
type Converter struct {
	detector      *detector.Detector
	registry      *extractor.Registry
	normalizer    *normalizer.Normalizer
	rules         *rules.Engine
	consolidation *consolidation.Engine
	output        *output.Assembler
	format        output.Format
	now           func() time.Time
	logger        *slog.Logger
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - mappings: The vendor mappings in load order.
//   - opts: Output, rule and default settings.
//   - logger: nil means slog.Default().
//
// RETURNS:
//   - A new Converter instance.
//   - A configuration error when a vendor rule is invalid.
func New(mappings []*config.VendorMapping, opts Options, logger *slog.Logger) (*Converter, error) {
	logger = logging.OrDefault(logger)

	engine, err := rules.NewEngine(opts.VendorRules, logger)
	if err != nil {
		return nil, common.NewAppError(common.KindConfiguration, common.Message{
			EN: "Invalid vendor rule",
			JA: "業者ルールが不正です",
		}, err)
	}

	registry := opts.Registry
	if registry == nil {
		registry = extractor.DefaultRegistry()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	format := opts.Format
	if format == "" {
		format = output.FormatXLSX
	}

	return &Converter{
		detector:      detector.New(mappings, logger),
		registry:      registry,
		normalizer:    normalizer.New(opts.Defaults, logger),
		rules:         engine,
		consolidation: consolidation.New(consolidation.Options{StrictTotals: opts.StrictTotals}, logger),
		output:        output.New(opts.MergeColumns, logger),
		format:        format,
		now:           now,
		logger:        logger,
	}, nil
}

// Detector exposes the vendor detector.
func (c *Converter) Detector() *detector.Detector { return c.detector }

// =============================================================================
// MAIN PROCESSING FUNCTIONS
// =============================================================================

// Convert runs the pipeline for a single sheet.
//
// RETURNS:
//   - The rendered output and its statistics.
//   - An *common.AppError classifying the failure.
func (c *Converter) Convert(sheet types.Sheet) (Result, error) {
	startTime := time.Now()
	j := job.New(c.now())
	logger := c.logger.With("job_id", j.ID)

	// =========================================================================
	// STEP 1-4: PER-FILE STAGES
	// =========================================================================

	parsed, err := c.parse(j, logger, sheet)
	if err != nil {
		return Result{JobID: j.ID}, err
	}

	// =========================================================================
	// STEP 5-7: RULES, CONSOLIDATION, OUTPUT
	// =========================================================================

	result, err := c.finish(j, logger, []parsedFile{parsed})
	if err != nil {
		return result, err
	}
	result.ProcessingTime = time.Since(startTime)
	logger.Info("convert.ok", "file", sheet.Filename, "vendor", parsed.vendor, "rows", result.RowCount, "elapsed_ms", result.ProcessingTime.Milliseconds())
	return result, nil
}

// ConvertBatch converts several sheets into one combined output.
//
// Each sheet runs through detection, extraction and normalization on its
// own. A sheet that fails any of these is skipped with a warning; only a
// batch where every sheet was skipped fails, with ErrEmptyBatch. Rules
// then run once per vendor group and the combined rows are consolidated
// and rendered once.
func (c *Converter) ConvertBatch(sheets []types.Sheet) (Result, error) {
	startTime := time.Now()
	j := job.New(c.now())
	logger := c.logger.With("job_id", j.ID)
	logger.Info("batch.start", "files", len(sheets))

	var (
		files   []parsedFile
		skipped []Skip
	)
	for _, sheet := range sheets {
		parsed, err := c.parse(j, logger, sheet)
		if err != nil {
			skip := Skip{Filename: sheet.Filename, Kind: common.KindOf(err), Reason: err.Error()}
			logger.Warn("batch.file.skipped", "file", sheet.Filename, "kind", skip.Kind, "error", err)
			skipped = append(skipped, skip)
			continue
		}
		files = append(files, parsed)
	}
	if len(files) == 0 {
		return Result{JobID: j.ID, Skipped: skipped}, common.EmptyBatch().WithDetail("skipped", len(skipped))
	}

	result, err := c.finish(j, logger, files)
	result.Skipped = skipped
	if err != nil {
		return result, err
	}
	result.ProcessingTime = time.Since(startTime)
	logger.Info("batch.ok", "files", len(files), "skipped", len(skipped), "rows", result.RowCount, "elapsed_ms", result.ProcessingTime.Milliseconds())
	return result, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// parsedFile is one sheet after normalization.
type parsedFile struct {
	filename string
	vendor   string
	items    []types.LineItem
}

// parse runs detection, extraction and normalization for one sheet.
func (c *Converter) parse(j *job.Job, logger *slog.Logger, sheet types.Sheet) (parsedFile, error) {
	if len(sheet.Rows) == 0 {
		return parsedFile{}, common.EmptyInput(sheet.Filename)
	}
	if extractor.IsImportSheet(sheet.Headers) {
		return parsedFile{}, common.AlreadyConverted().WithDetail("filename", sheet.Filename)
	}

	det := c.detector.Detect(sheet.Filename, sheet.Headers)
	if !det.Detected {
		return parsedFile{}, common.VendorNotDetected(sheet.Filename, det.HeadersSample)
	}
	vendor := det.Mapping.Vendor
	logger.Info("convert.detected", "file", sheet.Filename, "vendor", vendor, "method", det.Method)

	x, err := c.registry.For(det.Mapping, extractor.Env{Now: j.Now(), Logger: logger})
	if err != nil {
		return parsedFile{}, err
	}
	descriptors, err := x.Extract(sheet)
	if err != nil {
		return parsedFile{}, classifyExtraction(vendor, sheet.Filename, err)
	}

	items := c.normalizer.NormalizeAll(j, det.Mapping, descriptors)
	return parsedFile{filename: sheet.Filename, vendor: vendor, items: items}, nil
}

// finish applies rules per vendor group, consolidates and renders.
func (c *Converter) finish(j *job.Job, logger *slog.Logger, files []parsedFile) (Result, error) {
	result := Result{JobID: j.ID, Format: c.format}

	// Group by detected vendor, first appearance order.
	var (
		order  []string
		groups = make(map[string][]types.LineItem)
	)
	for _, f := range files {
		if !slices.Contains(result.Vendors, f.vendor) {
			result.Vendors = append(result.Vendors, f.vendor)
		}
		for _, li := range f.items {
			key := li.SourceVendor
			if key == "" {
				key = f.vendor
			}
			if _, ok := groups[key]; !ok {
				order = append(order, key)
			}
			groups[key] = append(groups[key], li)
		}
	}

	var all []types.LineItem
	for _, vendor := range order {
		all = append(all, c.rules.Apply(vendor, groups[vendor])...)
	}

	for _, li := range all {
		if validation.IsPlaceholderID(li.ProjectID) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: placeholder project id %s", li.VendorName, li.ProjectID))
		}
	}

	consolidated, err := c.consolidation.Consolidate(j, all)
	if consolidated.Validation != nil {
		result.Warnings = append(result.Warnings, consolidated.Validation.Warnings()...)
	}
	if err != nil {
		return result, err
	}

	data, err := c.output.Assemble(consolidated.Invoices, c.format)
	if err != nil {
		return result, common.GenerationFailed(err)
	}
	result.Data = data
	result.RowCount = len(consolidated.Invoices)
	return result, nil
}

// classifyExtraction keeps typed failures, reports missing mapped columns as
// a configuration error and files everything else under KindExtraction.
func classifyExtraction(vendor, filename string, err error) error {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr.WithDetail("filename", filename)
	}
	var missing *extractor.MissingColumnsError
	if errors.As(err, &missing) {
		return common.NewAppError(common.KindConfiguration, common.Message{
			EN: missing.Error(),
			JA: "必要な列がありません: " + strings.Join(missing.Columns, ", "),
		}, err).WithDetail("vendor", vendor).WithDetail("filename", filename).WithDetail("columns", missing.Columns)
	}
	return common.NewAppError(common.KindExtraction, common.Message{
		EN: "Extraction failed",
		JA: "データ抽出に失敗しました",
	}, err).WithDetail("vendor", vendor).WithDetail("filename", filename)
}
