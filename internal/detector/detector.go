// =============================================================================
// ANDPAD Invoice Converter - Vendor Detection Module
// =============================================================================
//
// This module decides which vendor mapping applies to an input file.
//
// DETECTION ORDER:
//   1. File name: the normalized file name is searched for each mapping's
//      patterns. Procedural vendors are tried before declarative ones so a
//      short generic pattern cannot shadow a specific vendor.
//   2. Headers: mappings with a column map are scored by the share of their
//      source columns present in the observed headers. The best score wins
//      if it reaches MinHeaderScore.
//
// Detection is a pure function of (file name, headers, mapping table).
//
// =============================================================================

package detector

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/logging"
	"golang.org/x/text/unicode/norm"
)

// MinHeaderScore is the minimum matched/total ratio for header detection.
const MinHeaderScore = 0.5

// headersSampleSize is how many observed headers a failed detection reports.
const headersSampleSize = 5

// Method records how a vendor was detected.
type Method string

const (
	MethodFilename Method = "filename"
	MethodHeaders  Method = "headers"
)

// Result is the outcome of Detect.
type Result struct {
	Detected bool
	Mapping  *config.VendorMapping
	Method   Method

	// Score is the header match ratio when Method is MethodHeaders.
	Score float64

	// HeadersSample is set when nothing matched.
	HeadersSample []string
}

// Detector holds the mapping table in priority order.
type Detector struct {
	mappings []*config.VendorMapping
	logger   *slog.Logger
}

// New builds a Detector. Procedural mappings are moved ahead of declarative
// ones; the relative order within each class is kept.
func New(mappings []*config.VendorMapping, logger *slog.Logger) *Detector {
	ordered := make([]*config.VendorMapping, 0, len(mappings))
	for _, m := range mappings {
		if m.Procedural {
			ordered = append(ordered, m)
		}
	}
	for _, m := range mappings {
		if !m.Procedural {
			ordered = append(ordered, m)
		}
	}
	return &Detector{mappings: ordered, logger: logging.OrDefault(logger)}
}

// Mappings returns the table in detection priority order.
func (d *Detector) Mappings() []*config.VendorMapping {
	return d.mappings
}

// Lookup returns the mapping for an exact vendor name.
func (d *Detector) Lookup(vendor string) (*config.VendorMapping, bool) {
	for _, m := range d.mappings {
		if m.Vendor == vendor {
			return m, true
		}
	}
	return nil, false
}

// Detect maps a file name and its observed headers to a vendor mapping.
func (d *Detector) Detect(filename string, headers []string) Result {
	// =========================================================================
	// STEP 1: FILE NAME
	// =========================================================================

	name := NormalizeName(filename)
	for _, m := range d.mappings {
		for _, pattern := range m.Patterns() {
			p := NormalizeName(pattern)
			if p == "" {
				continue
			}
			if strings.Contains(name, p) {
				d.logger.Debug("detect.filename.ok", "vendor", m.Vendor, "pattern", pattern)
				return Result{Detected: true, Mapping: m, Method: MethodFilename}
			}
		}
	}

	// =========================================================================
	// STEP 2: HEADERS
	// =========================================================================

	var best *config.VendorMapping
	bestScore := 0.0
	for _, m := range d.mappings {
		if len(m.ColumnMap) == 0 {
			continue
		}
		score := HeaderScore(m.SourceColumns(), headers)
		d.logger.Debug("detect.headers.score", "vendor", m.Vendor, "score", score)
		if score > bestScore {
			best, bestScore = m, score
		}
	}
	if best != nil && bestScore >= MinHeaderScore {
		d.logger.Debug("detect.headers.ok", "vendor", best.Vendor, "score", bestScore)
		return Result{Detected: true, Mapping: best, Method: MethodHeaders, Score: bestScore}
	}

	sample := headers
	if len(sample) > headersSampleSize {
		sample = sample[:headersSampleSize]
	}
	d.logger.Warn("detect.failed", "filename", filename, "headers", sample)
	return Result{HeadersSample: append([]string(nil), sample...)}
}

// HeaderScore returns the share of required columns found in headers.
// A column matches a header when either contains the other, compared
// case-insensitively after width folding. Blank headers never match.
func HeaderScore(required, headers []string) float64 {
	if len(required) == 0 {
		return 0
	}
	observed := make([]string, 0, len(headers))
	for _, h := range headers {
		if f := foldHeader(h); f != "" {
			observed = append(observed, f)
		}
	}

	matched := 0
	for _, col := range required {
		c := foldHeader(col)
		if c == "" {
			continue
		}
		for _, h := range observed {
			if h == c || strings.Contains(h, c) || strings.Contains(c, h) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(required))
}

func foldHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
}

// =============================================================================
// FILE NAME NORMALIZATION
// =============================================================================

var knownExtensions = []string{".xlsx", ".xls", ".csv", ".tsv", ".txt"}

// NFKC already maps full-width brackets and slashes to ASCII; the CJK
// brackets below have no compatibility form and are listed explicitly.
var strippedRunes = map[rune]bool{
	'(': true, ')': true, '[': true, ']': true,
	'【': true, '】': true, '「': true, '」': true,
	'『': true, '』': true, '〔': true, '〕': true,
	'_': true, '-': true, '.': true, '・': true, '/': true,
}

// NormalizeName folds a file name (or a pattern) for substring matching:
// NFKC width folding, lower case, no extension, no whitespace, no brackets
// and no separators.
func NormalizeName(s string) string {
	s = strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
	for _, ext := range knownExtensions {
		if strings.HasSuffix(s, ext) {
			s = strings.TrimSuffix(s, ext)
			break
		}
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || strippedRunes[r] {
			return -1
		}
		return r
	}, s)
}
