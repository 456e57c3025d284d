package extractor

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/fields"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

// Shared row heuristics used by the procedural extractors.

// CommonSkipPatterns marks boilerplate cells found on most vendor sheets.
var CommonSkipPatterns = []string{
	"請求書", "株式会社", "御中", "〒", "TEL", "FAX",
	"登録番号", "振込先", "銀行", "合計", "小計", "消費税",
}

// DefaultProjectIDKeywords flag the header cells that precede a project id.
var DefaultProjectIDKeywords = []string{"案件管理ID", "工事番号", "現場No", "物件No"}

// CleanNumber strips currency marks and separators and returns "" unless
// what is left is numeric.
func CleanNumber(s string) string { return fields.CleanNumber(s) }

// FindDataStart returns the index of the first data row, i.e. the row after
// the first one holding at least minMatches of patterns. The header names
// count as row -1, so a match there returns 0. It returns -1 when nothing
// within maxRows matches.
func FindDataStart(sheet types.Sheet, patterns []string, maxRows, minMatches int) int {
	if countMatches(strings.Join(sheet.Headers, "|"), patterns) >= minMatches {
		return 0
	}
	for i, row := range sheet.Rows {
		if i >= maxRows {
			break
		}
		if countMatches(row.Text(), patterns) >= minMatches {
			return i + 1
		}
	}
	return -1
}

func countMatches(text string, patterns []string) int {
	n := 0
	for _, p := range patterns {
		if strings.Contains(text, p) {
			n++
		}
	}
	return n
}

// containsAny reports whether s contains any of subs.
func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// TrailingNumbers reads the right-hand numeric block of a free-form row.
// The last non-zero number is the amount, the one before it the unit price
// and the one before that the quantity. Missing positions are "".
func TrailingNumbers(values []string) (qty, price, amount string) {
	var nums []string
	for _, v := range values {
		if c := fields.CleanNumber(v); c != "" && fields.IsNonZero(c) {
			nums = append(nums, c)
		}
	}
	n := len(nums)
	if n >= 1 {
		amount = nums[n-1]
	}
	if n >= 2 {
		price = nums[n-2]
	}
	if n >= 3 {
		qty = nums[n-3]
	}
	return qty, price, amount
}

// =============================================================================
// PROJECT IDS
// =============================================================================

var (
	datePattern       = regexp.MustCompile(`^\d{4}[/-]\d{1,2}[/-]\d{1,2}`)
	whitespacePattern = regexp.MustCompile(`[\s\p{Zs}]+`)
)

// ProjectIDScanner searches the free-text header region of a sheet for a
// project id. A value qualifies when it is not a keyword itself, not a
// date and not company-like.
type ProjectIDScanner struct {
	// Keywords flag the cells whose row (or following row) holds the id.
	Keywords []string

	// Columns are dedicated id columns; a value there wins immediately.
	Columns []string

	// Exclude disqualifies candidate values containing any of these.
	Exclude []string

	// MaxRows bounds the scan. Zero means 15.
	MaxRows int
}

// NewProjectIDScanner returns a scanner with the default keywords, the
// default exclusions and any vendor specific keywords appended.
func NewProjectIDScanner(extraKeywords ...string) ProjectIDScanner {
	kw := append([]string{}, DefaultProjectIDKeywords...)
	return ProjectIDScanner{
		Keywords: append(kw, extraKeywords...),
		Columns:  []string{"案件管理ID"},
		Exclude:  []string{"請求", "株式会社", "ALLAGI", "TEL", "FAX"},
	}
}

// Scan returns the first qualifying id or "".
func (s ProjectIDScanner) Scan(rows []types.RawRow) string {
	limit := s.MaxRows
	if limit <= 0 {
		limit = 15
	}
	for i, row := range rows {
		if i >= limit {
			break
		}
		for _, col := range s.Columns {
			if v := strings.TrimSpace(row.Get(col)); v != "" && v != col {
				return v
			}
		}

		values := row.Values()
		if !s.flagged(values) {
			continue
		}
		for _, v := range values {
			if id := s.inline(v); id != "" {
				return id
			}
			if s.qualifies(v) {
				return v
			}
		}
		if i+1 < len(rows) {
			for _, v := range rows[i+1].Values() {
				if s.qualifies(v) {
					return v
				}
			}
		}
	}
	return ""
}

func (s ProjectIDScanner) flagged(values []string) bool {
	for _, v := range values {
		if containsAny(v, s.Keywords...) {
			return true
		}
	}
	return false
}

// inline handles "工事番号: A-1" style cells.
func (s ProjectIDScanner) inline(v string) string {
	for _, kw := range s.Keywords {
		rest, ok := strings.CutPrefix(v, kw)
		if !ok {
			continue
		}
		rest = strings.TrimLeft(rest, ":： ")
		if rest != "" && s.qualifies(rest) {
			return rest
		}
	}
	return ""
}

func (s ProjectIDScanner) qualifies(v string) bool {
	if v == "" || datePattern.MatchString(v) {
		return false
	}
	for _, kw := range s.Keywords {
		if v == kw || strings.HasPrefix(v, kw) {
			return false
		}
	}
	return !containsAny(v, s.Exclude...)
}

// RowProjectID returns the first non-empty value among the dedicated id
// columns of row.
func RowProjectID(row types.RawRow, columns ...string) string {
	if len(columns) == 0 {
		columns = DefaultProjectIDKeywords
	}
	for _, c := range columns {
		if v := strings.TrimSpace(row.Get(c)); v != "" {
			return v
		}
	}
	return ""
}

// MissingIDSentinel marks a row whose project id could not be found.
func MissingIDSentinel(label string, row int) string {
	return fmt.Sprintf("MISSING_ID_%s_ROW%d", whitespacePattern.ReplaceAllString(label, "_"), row)
}

// =============================================================================
// HEADER METADATA
// =============================================================================

// Metadata is what the free-text header region of a sheet says about the
// invoice as a whole.
type Metadata struct {
	Site        string
	Client      string
	InvoiceDate string
}

// ExtractMetadata scans the first maxRows rows for the site (様邸, 工事),
// the client (得意先, ALLAGI) and the first date.
func ExtractMetadata(rows []types.RawRow, maxRows int, now time.Time) Metadata {
	var md Metadata
	for i, row := range rows {
		if i >= maxRows {
			break
		}
		for _, v := range row.Values() {
			if v == "" {
				continue
			}
			if md.Site == "" && (strings.Contains(v, "様邸") || strings.Contains(v, "工事")) {
				md.Site = v
			}
			if md.Client == "" && (strings.Contains(v, "得意先") || strings.Contains(v, "ALLAGI")) {
				md.Client = v
			}
			if md.InvoiceDate == "" {
				if _, ok := fields.ParseDate(v, now); ok && (datePattern.MatchString(v) || strings.Contains(v, "年")) {
					md.InvoiceDate = fields.FormatDate(v, now)
				}
			}
		}
	}
	return md
}

// ParseMonthDay resolves an embedded "M月D日" date against the billing
// period, falling back to the first of the period month. It returns ""
// when no period is known.
func ParseMonthDay(s string, year, month int) string {
	if m, d, ok := fields.MonthDay(s); ok {
		if year == 0 {
			return ""
		}
		return fmt.Sprintf("%d/%d/%d", year, m, d)
	}
	if year == 0 || month == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d/1", year, month)
}

// longestText returns the longest value that is neither a number nor a date.
func longestText(values []string) string {
	best := ""
	for _, v := range values {
		if v == "" || fields.CleanNumber(v) != "" || fields.IsSlashDate(v) {
			continue
		}
		if len([]rune(v)) > len([]rune(best)) {
			best = v
		}
	}
	return best
}

// nonEmptyCount counts the non-blank values.
func nonEmptyCount(values []string) int {
	n := 0
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return n
}

// firstNonEmpty returns the first non-blank argument.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// orDefault returns v, or def when v is blank.
func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
