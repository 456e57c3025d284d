// Package fields parses the loosely formatted numbers and dates found in
// vendor invoice cells.
package fields

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// TaxRate is the flat consumption tax multiplier.
var TaxRate = decimal.RequireFromString("1.1")

var (
	numericPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)
	half           = decimal.RequireFromString("0.5")
)

// CleanNumber strips currency marks, grouping commas and whitespace and
// returns the remaining text when it is a plain number, or "" otherwise.
// Full-width digits are folded first.
//
//	"¥1,200円" -> "1200"
//	"１２００"   -> "1200"
//	"abc"      -> ""
func CleanNumber(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '¥' || r == '\\' || r == ',' || r == '円':
			return -1
		case unicode.IsSpace(r):
			return -1
		}
		return r
	}, s)
	if numericPattern.MatchString(s) {
		return s
	}
	return ""
}

// IsNonZero reports whether s cleans to a number other than zero.
func IsNonZero(s string) bool {
	d, ok := Decimal(s)
	return ok && !d.IsZero()
}

// Decimal parses s through CleanNumber.
func Decimal(s string) (decimal.Decimal, bool) {
	c := CleanNumber(s)
	if c == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(c)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Round rounds to the nearest integer with halves going up, matching the
// rounding the import system applies (so -2.5 becomes -2, not -3).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}

// WithTax returns Round(d * TaxRate).
func WithTax(d decimal.Decimal) decimal.Decimal {
	return Round(d.Mul(TaxRate))
}

// WithoutTax returns Round(d / TaxRate).
func WithoutTax(d decimal.Decimal) decimal.Decimal {
	return Round(d.Div(TaxRate))
}

// UnitPrice derives amount/qty rounded, or "" when qty is not positive.
func UnitPrice(amount, qty string) string {
	a, ok := Decimal(amount)
	if !ok {
		return ""
	}
	q, ok := Decimal(qty)
	if !ok {
		q = decimal.NewFromInt(1)
	}
	if !q.IsPositive() {
		return ""
	}
	return Round(a.Div(q)).String()
}
