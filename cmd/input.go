package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/csvparser"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/xlsxparser"
)

// readSheet decodes one input file by extension.
func readSheet(path, encoding string) (types.Sheet, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		return csvparser.Parse(path, csvparser.Options{Encoding: encoding})
	case ".xlsx", ".xlsm":
		return xlsxparser.Parse(path, xlsxparser.Options{})
	case ".xls":
		return types.Sheet{}, fmt.Errorf("%s: legacy .xls workbooks are not supported, save the file as .xlsx", filepath.Base(path))
	default:
		return types.Sheet{}, fmt.Errorf("%s: unsupported file type %q", filepath.Base(path), ext)
	}
}
