// =============================================================================
// ANDPAD Invoice Converter - Process Command
// =============================================================================
//
// This file defines the 'process' command, which converts every vendor file
// found in the input directory.
//
// COMMAND USAGE:
//   andpad-converter process [flags]
//
// FLAGS:
//   --dry-run  : Convert without writing output or archiving inputs
//   --combine  : Produce one combined import file instead of one per input
//
// PROCESSING PIPELINE:
//   1. Load configuration and vendor mappings
//   2. Discover CSV and xlsx files in the input directory
//   3. Convert each file concurrently (max_concurrency at a time), each in
//      its own job, or the whole directory as one batch with --combine
//   4. Write the import files and archive the converted inputs
//   5. Write a summary report
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/common"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/converter"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
	"github.com/ginjaninja78/andpad-invoice-converter/pkg/utils"
)

var (
	dryRun  bool
	combine bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Convert every vendor file in the input directory",
	Long: `The process command scans the input directory for vendor CSV and xlsx
files and converts them into ANDPAD import files.

Files are converted concurrently. Each file is independent, so a failure in
one does not stop the others unless continue_on_error is false.

On success:
  - The import file is placed in the output directory
  - The input is moved to the input archive when archive_inputs is set

On error:
  - The input remains in the input directory
  - The failure is listed in the summary report`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess()
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Convert without writing output files")
	processCmd.Flags().BoolVar(&combine, "combine", false, "Combine all inputs into one import file")
}

// fileResult is the outcome for one input file.
type fileResult struct {
	path    string
	output  string
	result  converter.Result
	err     error
	elapsed time.Duration
}

func runProcess() error {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	env, err := setup()
	if err != nil {
		return err
	}
	opts, err := converter.OptionsFromConfig(env.config)
	if err != nil {
		return err
	}
	conv, err := converter.New(env.mappings, opts, env.logger)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	fm := utils.NewFileManager(env.config.InputDir, env.config.OutputDir, env.config.InputArchiveDir)
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}
	inputFiles, err := fm.DiscoverInputFiles()
	if err != nil {
		return err
	}
	if len(inputFiles) == 0 {
		fmt.Println("No vendor files found in the input directory.")
		return nil
	}
	env.logger.Info("process.discovered", "files", len(inputFiles), "dir", env.config.InputDir)

	// =========================================================================
	// STEP 3: CONVERT
	// =========================================================================

	var results []fileResult
	if combine {
		results = processCombined(conv, fm, env.config, inputFiles)
	} else {
		results = processEach(conv, fm, env.config, inputFiles)
	}

	// =========================================================================
	// STEP 4: ARCHIVE AND SUMMARIZE
	// =========================================================================

	summary := utils.ProcessingSummary{StartTime: startTime, TotalFiles: len(inputFiles)}
	counted := make(map[string]bool)
	for _, r := range results {
		name := filepath.Base(r.path)
		if r.err != nil {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile: name, ErrorType: string(common.KindOf(r.err)), ErrorMessage: r.err.Error(),
			})
			fmt.Printf("  ✗ %s: %v\n", name, r.err)
			if !*env.config.ContinueOnError && !combine {
				break
			}
			continue
		}

		summary.SuccessfulFiles++
		if !combine || !counted[r.output] {
			summary.TotalRows += r.result.RowCount
			counted[r.output] = true
		}
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   name,
			OutputFile:  r.output,
			Vendor:      vendorLabel(r.result.Vendors),
			Rows:        r.result.RowCount,
			Warnings:    len(r.result.Warnings),
			ProcessTime: r.elapsed,
		})
		fmt.Printf("  ✓ %s -> %s (%d rows)\n", name, r.output, r.result.RowCount)

		if env.config.ArchiveInputs && !dryRun {
			if _, err := fm.ArchiveInputFile(r.path, time.Now()); err != nil {
				env.logger.Warn("process.archive.failed", "file", name, "error", err)
			}
		}
	}
	summary.EndTime = time.Now()

	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Total files:     %d\n", summary.TotalFiles)
	fmt.Printf("Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Printf("Errors:          %d\n", summary.FailedFiles)
	fmt.Printf("Time elapsed:    %s\n", summary.EndTime.Sub(startTime))

	if !dryRun {
		if path, err := utils.WriteSummaryLog(summary, env.config.OutputDir); err != nil {
			env.logger.Warn("process.summary.failed", "error", err)
		} else {
			fmt.Printf("Summary:         %s\n", path)
		}
	}

	if summary.FailedFiles > 0 && !*env.config.ContinueOnError {
		return fmt.Errorf("%d file(s) failed", summary.FailedFiles)
	}
	return nil
}

// processEach converts files concurrently, at most MaxConcurrency at a time.
func processEach(conv *converter.Converter, fm *utils.FileManager, cfg *config.MainConfig, files []string) []fileResult {
	var wg sync.WaitGroup
	sem := make(chan struct{}, cfg.MaxConcurrency)
	results := make([]fileResult, len(files))

	for i, file := range files {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			start := time.Now()
			r := fileResult{path: path}
			sheet, err := readSheet(path, cfg.InputEncoding)
			if err == nil {
				r.result, err = conv.Convert(sheet)
			}
			if err == nil && !dryRun {
				name := utils.GenerateOutputFileName(cfg.OutputNameFormat, vendorLabel(r.result.Vendors), r.result.Format.Extension(), time.Now())
				r.output, err = fm.WriteOutput(name, r.result.Data)
			}
			r.err = err
			r.elapsed = time.Since(start)
			results[i] = r
		}(i, file)
	}

	wg.Wait()
	return results
}

// processCombined converts all files as one batch.
func processCombined(conv *converter.Converter, fm *utils.FileManager, cfg *config.MainConfig, files []string) []fileResult {
	start := time.Now()
	var (
		sheets  []types.Sheet
		results []fileResult
		byName  = make(map[string]string)
	)
	for _, path := range files {
		sheet, err := readSheet(path, cfg.InputEncoding)
		if err != nil {
			results = append(results, fileResult{path: path, err: err})
			continue
		}
		byName[sheet.Filename] = path
		sheets = append(sheets, sheet)
	}

	res, err := conv.ConvertBatch(sheets)
	skipped := make(map[string]bool)
	for _, s := range res.Skipped {
		skipped[s.Filename] = true
		results = append(results, fileResult{path: byName[s.Filename], err: fmt.Errorf("%s: %s", s.Kind, s.Reason)})
	}
	if err != nil {
		return results
	}

	out := ""
	if !dryRun {
		name := utils.GenerateOutputFileName(cfg.OutputNameFormat, vendorLabel(res.Vendors), res.Format.Extension(), time.Now())
		out, err = fm.WriteOutput(name, res.Data)
	}
	for _, sheet := range sheets {
		if skipped[sheet.Filename] {
			continue
		}
		results = append(results, fileResult{path: byName[sheet.Filename], output: out, result: res, err: err, elapsed: time.Since(start)})
	}
	return results
}

func vendorLabel(vendors []string) string {
	if len(vendors) == 1 {
		return vendors[0]
	}
	return "Combined"
}
