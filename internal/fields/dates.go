package fields

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

var (
	slashDate   = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`)
	dashDate    = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})`)
	compactDate = regexp.MustCompile(`^\d{8}$`)
	kanjiDate   = regexp.MustCompile(`^(\d{4})年(\d{1,2})月(\d{1,2})日`)
	monthDay    = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})$`)
	kanjiMD     = regexp.MustCompile(`^(\d{1,2})月(\d{1,2})日?`)
	serialDate  = regexp.MustCompile(`^\d{5}(\.\d+)?$`)
	yearMonth   = regexp.MustCompile(`(\d{4})[/-](\d{1,2})`)
	periodYM    = regexp.MustCompile(`(\d{4})年(\d{1,2})月`)
	anySlash    = regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})`)
)

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// FormatDate renders the date forms vendors use as YYYY/M/D. Values that
// already have that shape pass through untouched; unrecognized text is
// returned as is. now supplies the year for month/day-only values.
//
//	"2025/08/01" -> "2025/08/01"
//	"20250801"   -> "2025/8/1"
//	"2025-08-01" -> "2025/8/1"
//	"45870"      -> "2025/8/1"  (spreadsheet serial)
//	"8/1"        -> "<now year>/8/1"
//	"8月1日"      -> "<now year>/8/1"
func FormatDate(s string, now time.Time) string {
	s = strings.TrimSpace(norm.NFKC.String(s))
	if s == "" {
		return ""
	}
	if slashDate.MatchString(s) {
		return s
	}
	if compactDate.MatchString(s) {
		return ymd(s[0:4], s[4:6], s[6:8])
	}
	if m := dashDate.FindStringSubmatch(s); m != nil {
		return ymd(m[1], m[2], m[3])
	}
	if m := kanjiDate.FindStringSubmatch(s); m != nil {
		return ymd(m[1], m[2], m[3])
	}
	if serialDate.MatchString(s) {
		days, err := strconv.ParseFloat(s, 64)
		if err == nil {
			t := excelEpoch.AddDate(0, 0, int(days))
			return fmt.Sprintf("%d/%d/%d", t.Year(), int(t.Month()), t.Day())
		}
	}
	if monthDay.MatchString(s) {
		return fmt.Sprintf("%d/%s", now.Year(), s)
	}
	if m := kanjiMD.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%d/%s/%s", now.Year(), trimZeros(m[1]), trimZeros(m[2]))
	}
	return s
}

// ParseDate parses a value FormatDate understands into a calendar date.
func ParseDate(s string, now time.Time) (time.Time, bool) {
	f := FormatDate(s, now)
	m := slashDate.FindStringSubmatch(f)
	if m == nil {
		return time.Time{}, false
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	if mo < 1 || mo > 12 || d < 1 || d > daysIn(y, time.Month(mo)) {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, now.Location()), true
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DueDate returns the last calendar day of the month after the date in s,
// formatted YYYY/M/D, or "" when s is not a date.
func DueDate(s string, now time.Time) string {
	t, ok := ParseDate(s, now)
	if !ok {
		return ""
	}
	// Day 0 of month+2 is the last day of month+1.
	last := time.Date(t.Year(), t.Month()+2, 0, 0, 0, 0, 0, t.Location())
	return fmt.Sprintf("%d/%d/%d", last.Year(), int(last.Month()), last.Day())
}

// YearMonth extracts YYYY and zero-padded MM from the first YYYY/M or
// YYYY-M in s.
func YearMonth(s string) (year, month string, ok bool) {
	m := yearMonth.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	mo, _ := strconv.Atoi(m[2])
	return m[1], fmt.Sprintf("%02d", mo), true
}

// Period extracts the billing period from text like "2025年8月分".
func Period(s string) (year, month int, ok bool) {
	m := periodYM.FindStringSubmatch(norm.NFKC.String(s))
	if m == nil {
		return 0, 0, false
	}
	year, _ = strconv.Atoi(m[1])
	month, _ = strconv.Atoi(m[2])
	return year, month, true
}

// MonthDay parses a leading "8月1日" or "8月1" into month and day.
func MonthDay(s string) (month, day int, ok bool) {
	m := kanjiMD.FindStringSubmatch(norm.NFKC.String(strings.TrimSpace(s)))
	if m == nil {
		return 0, 0, false
	}
	month, _ = strconv.Atoi(m[1])
	day, _ = strconv.Atoi(m[2])
	return month, day, true
}

// IsSlashDate reports whether s is exactly YYYY/M/D.
func IsSlashDate(s string) bool {
	return slashDate.MatchString(strings.TrimSpace(s))
}

// SlashDates returns every YYYY/MM/DD found in s, zero padded.
func SlashDates(s string) []string {
	var out []string
	for _, m := range anySlash.FindAllStringSubmatch(s, -1) {
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		out = append(out, fmt.Sprintf("%s/%02d/%02d", m[1], mo, d))
	}
	return out
}

func ymd(y, m, d string) string {
	return fmt.Sprintf("%s/%s/%s", y, trimZeros(m), trimZeros(d))
}

func trimZeros(s string) string {
	n, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	return strconv.Itoa(n)
}
