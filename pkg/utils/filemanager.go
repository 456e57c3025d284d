// =============================================================================
// ANDPAD Invoice Converter - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the CLI, including:
//   - Input discovery (vendor CSV and workbook files)
//   - Input archival after a successful conversion
//   - Output naming and writing
//   - Processing summaries
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to input_archive after successful processing
//   - Failed files remain in their original location
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InputExtensions are the file types the converter reads.
var InputExtensions = []string{".csv", ".xlsx"}

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the converter.
type FileManager struct {
	// InputDir is the directory where vendor files are placed.
	InputDir string

	// OutputDir is the directory where import files are written.
	OutputDir string

	// InputArchiveDir is the directory for archived input files.
	InputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: input_archive/2025/09/15/file.csv
	UseTimestampSubdirs bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:        inputDir,
		OutputDir:       outputDir,
		InputArchiveDir: inputArchiveDir,
	}
}

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.InputDir, fm.OutputDir, fm.InputArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles lists the readable vendor files in the input directory,
// sorted by name. Hidden files and spreadsheet lock files (~$name.xlsx) are
// ignored.
func (fm *FileManager) DiscoverInputFiles() ([]string, error) {
	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var result []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			continue
		}
		if IsInputFile(name) {
			result = append(result, filepath.Join(fm.InputDir, name))
		}
	}
	return result, nil
}

// IsInputFile reports whether name has a supported input extension.
func IsInputFile(name string) bool {
	return slices.Contains(InputExtensions, strings.ToLower(filepath.Ext(name)))
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string, now time.Time) (string, error) {
	archivePath := fm.getArchivePath(filePath, now)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Cross-device moves fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}
	return archivePath, nil
}

func (fm *FileManager) getArchivePath(filePath string, now time.Time) string {
	fileName := filepath.Base(filePath)
	if fm.UseTimestampSubdirs {
		return filepath.Join(fm.InputArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName)
	}
	return filepath.Join(fm.InputArchiveDir, fileName)
}

// =============================================================================
// OUTPUT FILES
// =============================================================================

// WriteOutput writes data to name inside the output directory.
func (fm *FileManager) WriteOutput(name string, data []byte) (string, error) {
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(fm.OutputDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write output: %w", err)
	}
	return path, nil
}

// GenerateOutputFileName expands an output name format.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {vendor}    - Vendor name
//               {timestamp} - Timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Date (YYYYMMDD)
//               {uuid}      - A random UUID
//               {ext}       - Output extension
//   - vendor: The vendor name; path separators are replaced.
//   - ext: The output extension without the dot.
//   - now: The timestamp source.
//
// EXAMPLE:
//   format: "ANDPAD_{vendor}_{timestamp}.{ext}"
//   output: "ANDPAD_大萬_20250915_101500.xlsx"
func GenerateOutputFileName(format, vendor, ext string, now time.Time) string {
	replacer := strings.NewReplacer(
		"{vendor}", safeName(vendor),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
		"{uuid}", uuid.NewString(),
		"{ext}", ext,
	)
	result := replacer.Replace(format)

	if !strings.HasSuffix(strings.ToLower(result), "."+ext) {
		result += "." + ext
	}
	return result
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	StartTime       time.Time
	EndTime         time.Time
	TotalFiles      int
	SuccessfulFiles int
	FailedFiles     int
	TotalRows       int
	ProcessedFiles  []ProcessedFileInfo
	FailedFilesList []FailedFileInfo
}

// ProcessedFileInfo contains information about a successfully processed file.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	Vendor      string
	Rows        int
	Warnings    int
	ProcessTime time.Duration
}

// FailedFileInfo contains information about a failed file.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
	ErrorType    string
}

// WriteSummaryLog writes a processing summary to a log file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	summaryPath := filepath.Join(outputDir,
		fmt.Sprintf("processing_summary_%s.txt", summary.EndTime.Format("20060102_150405")))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	writeSummary(writer, summary)
	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}
	return summaryPath, nil
}

func writeSummary(w io.Writer, s ProcessingSummary) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintf(w, "ANDPAD Invoice Converter - Processing Summary\n%s\n\n", rule)
	fmt.Fprintf(w, "Run Information:\n  Start Time:     %s\n  End Time:       %s\n  Duration:       %s\n\n",
		s.StartTime.Format("2006-01-02 15:04:05"),
		s.EndTime.Format("2006-01-02 15:04:05"),
		s.EndTime.Sub(s.StartTime))
	fmt.Fprintf(w, "Statistics:\n  Total Files:  %d\n  Successful:   %d\n  Failed:       %d\n  Total Rows:   %d\n\n",
		s.TotalFiles, s.SuccessfulFiles, s.FailedFiles, s.TotalRows)

	if len(s.ProcessedFiles) > 0 {
		fmt.Fprintf(w, "Successful Files:\n%s\n", strings.Repeat("-", 80))
		for _, pf := range s.ProcessedFiles {
			fmt.Fprintf(w, "  Input:        %s\n  Output:       %s\n  Vendor:       %s\n  Rows:         %d\n  Warnings:     %d\n  Process Time: %s\n\n",
				pf.InputFile, pf.OutputFile, pf.Vendor, pf.Rows, pf.Warnings, pf.ProcessTime)
		}
	}
	if len(s.FailedFilesList) > 0 {
		fmt.Fprintf(w, "Failed Files:\n%s\n", strings.Repeat("-", 80))
		for _, ff := range s.FailedFilesList {
			fmt.Fprintf(w, "  File:  %s\n  Type:  %s\n  Error: %s\n\n", ff.InputFile, ff.ErrorType, ff.ErrorMessage)
		}
	}
	fmt.Fprintf(w, "%s\nEnd of Summary\n", rule)
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
