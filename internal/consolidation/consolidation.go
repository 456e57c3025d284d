// =============================================================================
// ANDPAD Invoice Converter - Consolidation Module
// =============================================================================
//
// Consolidation folds normalized line items into one import row per project:
//
//   PHASE A: Site totals
//     Lines are grouped by (vendor, site). Each group's summed amount is
//     stamped onto the invoice total fields of its members.
//
//   PHASE B: Project fold
//     Lines are grouped by project id in first-seen order. Each group
//     becomes one row: amounts summed, quantity 1, unit 式, unit price equal
//     to the amount, remarks de-duplicated, a fresh management id and a
//     regenerated invoice label.
//
//   VALIDATION
//     Every output row is checked; total/line gaps above 1% are warnings,
//     or failures in strict mode.
//
// =============================================================================

package consolidation

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/common"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/job"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/logging"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/normalizer"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/validation"
)

// RemarkSeparator joins the remarks of folded lines.
const RemarkSeparator = "; "

// Options configures an Engine.
type Options struct {
	// StrictTotals fails consolidation on an invoice/line total gap.
	StrictTotals bool
}

// Engine consolidates line items.
type Engine struct {
	validator *validation.Validator
	logger    *slog.Logger
}

// New returns an Engine.
func New(opts Options, logger *slog.Logger) *Engine {
	v := validation.NewValidatorWithOptions(validation.ValidationOptions{
		TreatWarningsAsErrors: opts.StrictTotals,
	})
	return &Engine{validator: v, logger: logging.OrDefault(logger)}
}

// Result is the consolidated output.
type Result struct {
	Invoices   []types.LineItem
	Validation *validation.ValidationResult
}

// Consolidate runs both phases and validates the output.
//
// RETURNS:
//   - The consolidated rows, one per distinct project id.
//   - A validation error when a row breaks an invariant, or when strict
//     totals are on and a total gap was found.
func (e *Engine) Consolidate(j *job.Job, items []types.LineItem) (Result, error) {
	e.logger.Info("consolidate.start", "items", len(items))

	siteTotals := StampSiteTotals(items)
	invoices := FoldByProject(j, items, siteTotals)

	vr := e.validator.ValidateAll(invoices)
	for _, ve := range vr.Errors {
		if ve.Severity == validation.SeverityWarning {
			e.logger.Warn("consolidate.validation", "row", ve.Row, "rule", ve.Rule, "field", ve.Field, "value", ve.Value, "message", ve.Message)
		}
	}
	e.logger.Info("consolidate.done", "items", len(items), "invoices", len(invoices), "sites", len(siteTotals.order), "warnings", vr.WarningCount)

	if err := vr.Err(); err != nil {
		return Result{Invoices: invoices, Validation: vr}, common.NewAppError(common.KindValidation, common.Message{
			EN: "Consolidated rows failed validation",
			JA: "集約後の行が検証に失敗しました",
		}, err).WithDetail("errors", vr.ErrorCount)
	}
	return Result{Invoices: invoices, Validation: vr}, nil
}

// =============================================================================
// PHASE A
// =============================================================================

// SiteTotals holds the per (vendor, site) sums.
type SiteTotals struct {
	order  []string
	totals map[string]decimal.Decimal
}

// Total returns the sum for key.
func (s SiteTotals) Total(key string) decimal.Decimal { return s.totals[key] }

// SiteKey identifies the (vendor, site) group of li.
func SiteKey(li types.LineItem) string {
	return li.VendorName + "___" + li.Site
}

// StampSiteTotals sums the tax-exclusive amounts per (vendor, site) and
// writes each group's sum onto its members' invoice totals.
func StampSiteTotals(items []types.LineItem) SiteTotals {
	st := SiteTotals{totals: make(map[string]decimal.Decimal)}
	for _, li := range items {
		key := SiteKey(li)
		if _, ok := st.totals[key]; !ok {
			st.order = append(st.order, key)
		}
		st.totals[key] = st.totals[key].Add(amountOf(li))
	}
	for i := range items {
		normalizer.SetInvoiceTotal(&items[i], st.totals[SiteKey(items[i])])
	}
	return st
}

// =============================================================================
// PHASE B
// =============================================================================

type projectGroup struct {
	members []types.LineItem
	sites   []string
}

// FoldByProject collapses items into one row per project id, in the order
// project ids first appear.
func FoldByProject(j *job.Job, items []types.LineItem, st SiteTotals) []types.LineItem {
	var order []string
	groups := make(map[string]*projectGroup)
	for _, li := range items {
		g, ok := groups[li.ProjectID]
		if !ok {
			g = &projectGroup{}
			groups[li.ProjectID] = g
			order = append(order, li.ProjectID)
		}
		g.members = append(g.members, li)
		if key := SiteKey(li); !slices.Contains(g.sites, key) {
			g.sites = append(g.sites, key)
		}
	}

	seq := j.NewSequence()
	out := make([]types.LineItem, 0, len(order))
	for _, id := range order {
		out = append(out, fold(j, seq, groups[id], st))
	}
	return out
}

func fold(j *job.Job, seq *job.Sequence, g *projectGroup, st SiteTotals) types.LineItem {
	first := g.members[0]
	row := first

	amount := decimal.Zero
	var remarks, items []string
	for _, li := range g.members {
		amount = amount.Add(amountOf(li))
		if r := strings.TrimSpace(li.Remarks); r != "" && !slices.Contains(remarks, r) {
			remarks = append(remarks, r)
		}
		if li.ItemName != "" {
			items = append(items, li.ItemName)
		}
	}
	total := decimal.Zero
	for _, key := range g.sites {
		total = total.Add(st.Total(key))
	}

	row.ManagementID = seq.Next()
	row.SetInvoiceLabel(normalizer.InvoiceLabel(first.VendorName, first.DeliveryDate, j.Now()))
	row.Quantity = "1"
	row.Unit = types.WholeInvoiceUnit
	normalizer.SetAmount(&row, amount)
	normalizer.SetUnitPrice(&row, amount)
	normalizer.SetInvoiceTotal(&row, total)
	row.Remarks = strings.Join(remarks, RemarkSeparator)
	row.ItemName = strings.Join(items, ", ")
	return row
}

func amountOf(li types.LineItem) decimal.Decimal {
	if li.AmountExTax.Valid {
		return li.AmountExTax.Decimal
	}
	return decimal.Zero
}
