// =============================================================================
// ANDPAD Invoice Converter - Convert Command
// =============================================================================
//
// COMMAND USAGE:
//   andpad-converter convert <file> [<file>...] [flags]
//
// One file runs the single-file pipeline. Several files run as a batch:
// files that cannot be read, detected or extracted are skipped with a
// warning, and the rest are combined into one import file.
//
// FLAGS:
//   --format, -f  : xlsx or csv (default from config)
//   --output, -o  : output file path (default: output_dir + output_name_format)
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/common"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/converter"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/output"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
	"github.com/ginjaninja78/andpad-invoice-converter/pkg/utils"
)

var (
	convertFormat string
	convertOutput string
)

var convertCmd = &cobra.Command{
	Use:   "convert <file> [<file>...]",
	Short: "Convert vendor invoice files into one ANDPAD import file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(args)
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "", "Output format: xlsx or csv (default from config)")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Output file path")
}

func runConvert(paths []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	if convertFormat != "" {
		env.config.OutputFormat = convertFormat
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
	// STEP 1: READ INPUTS
	// =========================================================================

	var (
		sheets     []types.Sheet
		unreadable []converter.Skip
	)
	for _, p := range paths {
		sheet, err := readSheet(p, env.config.InputEncoding)
		if err != nil {
			if len(paths) == 1 {
				return err
			}
			env.logger.Warn("convert.read.failed", "file", p, "error", err)
			unreadable = append(unreadable, converter.Skip{Filename: filepath.Base(p), Kind: common.KindEmptyInput, Reason: err.Error()})
			continue
		}
		sheets = append(sheets, sheet)
	}

	// =========================================================================
	// STEP 2: CONVERT
	// =========================================================================

	var result converter.Result
	if len(paths) == 1 {
		result, err = conv.Convert(sheets[0])
	} else {
		result, err = conv.ConvertBatch(sheets)
		result.Skipped = append(unreadable, result.Skipped...)
	}
	printSkipped(result.Skipped)
	if err != nil {
		return describe(err)
	}

	// =========================================================================
	// STEP 3: WRITE OUTPUT
	// =========================================================================

	vendor := "Combined"
	if len(result.Vendors) == 1 {
		vendor = result.Vendors[0]
	}
	outPath, err := writeResult(env.config.OutputDir, env.config.OutputNameFormat, convertOutput, vendor, result)
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		fmt.Printf("  ! %s\n", w)
	}
	fmt.Printf("✓ %d row(s) -> %s\n", result.RowCount, outPath)
	return nil
}

// writeResult writes the rendered file to explicit, or to a generated name
// in outputDir.
func writeResult(outputDir, nameFormat, explicit, vendor string, result converter.Result) (string, error) {
	if explicit != "" {
		return writeFile(explicit, result.Format, result.Data)
	}
	fm := utils.NewFileManager("", outputDir, "")
	name := utils.GenerateOutputFileName(nameFormat, vendor, result.Format.Extension(), time.Now())
	return fm.WriteOutput(name, result.Data)
}

// writeFile writes data to path, adding the format extension when path has
// none.
func writeFile(path string, format output.Format, data []byte) (string, error) {
	if filepath.Ext(path) == "" {
		path += "." + format.Extension()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write output: %w", err)
	}
	return path, nil
}

func printSkipped(skipped []converter.Skip) {
	for _, s := range skipped {
		fmt.Printf("  ✗ %s (%s): %s\n", s.Filename, s.Kind, s.Reason)
	}
}

// describe adds the Japanese message of an application error.
func describe(err error) error {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return fmt.Errorf("%w\n%s", err, appErr.Message.JA)
	}
	return err
}
