// =============================================================================
// ANDPAD Invoice Converter - CSV Parser Module
// =============================================================================
//
// This module reads vendor CSV files into a types.Sheet. Vendor exports come
// from many systems, so it handles:
//   - UTF-8 with or without a byte order mark
//   - Shift_JIS (CP932) and EUC-JP, detected or configured
//   - Different delimiters (comma, tab, pipe, semicolon)
//   - Ragged rows and loosely quoted fields
//
// The first physical row is always the header row. Header cells are kept
// as-is, blanks included, because several vendors are read by position.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

// Encoding names accepted by Options.Encoding.
const (
	EncodingAuto     = "auto"
	EncodingUTF8     = "utf-8"
	EncodingShiftJIS = "shift_jis"
	EncodingEUCJP    = "euc-jp"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options configures the reader.
type Options struct {
	// Delimiter is ",", "tab", "|" or ";". Default: ",".
	Delimiter string

	// Encoding is one of the Encoding constants. Default: auto, which
	// reads valid UTF-8 as UTF-8 and anything else as Shift_JIS.
	Encoding string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - opts: Delimiter and encoding settings.
//
// RETURNS:
//   - The sheet, named after the file's base name.
//   - An error if the file cannot be read or decoded.
func Parse(filePath string, opts Options) (types.Sheet, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return types.Sheet{}, fmt.Errorf("failed to open file: %w", err)
	}
	return ParseBytes(data, filepath.Base(filePath), opts)
}

// ParseReader reads CSV content from r.
func ParseReader(r io.Reader, filename string, opts Options) (types.Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return types.Sheet{}, fmt.Errorf("failed to read CSV: %w", err)
	}
	return ParseBytes(data, filename, opts)
}

// ParseBytes decodes and parses raw CSV content.
//
// PARSING PROCESS:
//   1. Strip a UTF-8 byte order mark
//   2. Decode to UTF-8 when the content is Shift_JIS or EUC-JP
//   3. Read every record with a lenient csv.Reader
//   4. Use the first record as headers and the rest as rows
func ParseBytes(data []byte, filename string, opts Options) (types.Sheet, error) {
	sheet := types.Sheet{Filename: filename}

	data = bytes.TrimPrefix(data, utf8BOM)
	dec, err := decoder(opts.Encoding, data)
	if err != nil {
		return sheet, err
	}
	var r io.Reader = bytes.NewReader(data)
	if dec != nil {
		r = transform.NewReader(r, dec.NewDecoder())
	}

	csvReader := csv.NewReader(r)
	configureReader(csvReader, opts)

	records, err := csvReader.ReadAll()
	if err != nil {
		return sheet, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return sheet, nil
	}

	sheet.Headers = cleanHeaders(records[0])
	for _, rec := range records[1:] {
		sheet.Rows = append(sheet.Rows, types.RawRow{Headers: sheet.Headers, Cells: rec})
	}
	return sheet, nil
}

// configureReader configures the CSV reader based on the options.
func configureReader(reader *csv.Reader, opts Options) {
	switch opts.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		reader.Comma = ','
	}

	// Vendor files have totals rows and notes with fewer fields.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
}

// decoder picks the source encoding; nil means the content is UTF-8.
func decoder(name string, data []byte) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingAuto:
		if utf8.Valid(data) {
			return nil, nil
		}
		return japanese.ShiftJIS, nil
	case EncodingUTF8, "utf8":
		return nil, nil
	case EncodingShiftJIS, "sjis", "cp932", "windows-31j":
		return japanese.ShiftJIS, nil
	case EncodingEUCJP, "eucjp":
		return japanese.EUCJP, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// cleanHeaders trims header cells. Blank headers stay blank.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, h := range headers {
		cleaned[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return cleaned
}
