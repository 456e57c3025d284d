// Package rules applies per-vendor contractual adjustments to normalized
// line items.
package rules

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/fields"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/logging"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/normalizer"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

// Rule adjusts the items of one vendor in place.
type Rule interface {
	Apply(items []types.LineItem)
	Name() string
}

// Discount multiplies every money field by (100 - Percent)/100, rounding
// each value to an integer, and notes the adjustment in the remarks.
type Discount struct {
	Percent decimal.Decimal
	Note    string
}

// Name implements Rule.
func (d Discount) Name() string { return "discount " + d.Percent.String() + "%" }

// Apply implements Rule.
func (d Discount) Apply(items []types.LineItem) {
	factor := decimal.NewFromInt(100).Sub(d.Percent).Div(decimal.NewFromInt(100))
	for i := range items {
		li := &items[i]
		if li.AmountExTax.Valid {
			normalizer.SetAmount(li, fields.Round(li.AmountExTax.Decimal.Mul(factor)))
		}
		if li.UnitPriceExTax.Valid {
			normalizer.SetUnitPrice(li, fields.Round(li.UnitPriceExTax.Decimal.Mul(factor)))
		}
		if li.InvoiceTotalExTax.Valid {
			normalizer.SetInvoiceTotal(li, fields.Round(li.InvoiceTotalExTax.Decimal.Mul(factor)))
		}
		li.AppendRemark(d.Note)
	}
}

// Built-in vendor rules.
var builtin = map[string][]Rule{
	"大萬": {Discount{Percent: decimal.NewFromInt(1), Note: "[1%割引適用]"}},
}

// Engine looks rules up by exact vendor name.
type Engine struct {
	rules  map[string][]Rule
	logger *slog.Logger
}

// NewEngine returns an engine with the built-in rules. A configured rule
// replaces the built-in rules of its vendor.
func NewEngine(configured []config.VendorRule, logger *slog.Logger) (*Engine, error) {
	e := &Engine{rules: make(map[string][]Rule), logger: logging.OrDefault(logger)}
	for vendor, rs := range builtin {
		e.rules[vendor] = rs
	}
	seen := make(map[string]bool)
	for _, r := range configured {
		pct, err := decimal.NewFromString(r.DiscountPercent)
		if err != nil {
			return nil, fmt.Errorf("vendor rule %s: invalid discount_percent %q: %w", r.Vendor, r.DiscountPercent, err)
		}
		if !pct.IsPositive() || pct.GreaterThanOrEqual(decimal.NewFromInt(100)) {
			return nil, fmt.Errorf("vendor rule %s: discount_percent must be between 0 and 100, got %s", r.Vendor, pct)
		}
		note := r.Note
		if note == "" {
			note = fmt.Sprintf("[%s%%割引適用]", pct)
		}
		if !seen[r.Vendor] {
			e.rules[r.Vendor] = nil
			seen[r.Vendor] = true
		}
		e.rules[r.Vendor] = append(e.rules[r.Vendor], Discount{Percent: pct, Note: note})
	}
	return e, nil
}

// Apply runs vendor's rules over items and returns them. Vendors without
// rules are a no-op.
func (e *Engine) Apply(vendor string, items []types.LineItem) []types.LineItem {
	for _, r := range e.rules[vendor] {
		e.logger.Info("rules.applied", "vendor", vendor, "rule", r.Name(), "items", len(items))
		r.Apply(items)
	}
	return items
}

// Has reports whether vendor has any rule.
func (e *Engine) Has(vendor string) bool {
	return len(e.rules[vendor]) > 0
}
