// =============================================================================
// ANDPAD Invoice Converter - Normalizer Module
// =============================================================================
//
// The normalizer turns extractor output into canonical import rows. It owns
// every default, every derived value and all tax math:
//
//   STEP 1: Identity      - management id, counterparty id, invoice label
//   STEP 2: Project       - extracted id, else one id per vendor site
//   STEP 3: Dates         - delivery date and payment due date
//   STEP 4: Money         - quantities, unit price and tax-inclusive values
//   STEP 5: Classification and remarks
//
// All mutable counters live on the job.Job passed in, so a Normalizer can
// be shared across concurrent conversions.
//
// =============================================================================

package normalizer

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/fields"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/job"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/logging"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

// Normalizer builds LineItems from ItemDescriptors.
type Normalizer struct {
	defaults config.ImportDefaults
	logger   *slog.Logger
}

// New returns a Normalizer writing defaults into every row.
func New(defaults config.ImportDefaults, logger *slog.Logger) *Normalizer {
	return &Normalizer{defaults: defaults, logger: logging.OrDefault(logger)}
}

// NormalizeAll normalizes every descriptor of one file.
func (n *Normalizer) NormalizeAll(j *job.Job, m *config.VendorMapping, ds []types.ItemDescriptor) []types.LineItem {
	out := make([]types.LineItem, 0, len(ds))
	for _, d := range ds {
		out = append(out, n.Normalize(j, m, d))
	}
	return out
}

// Normalize builds one import row.
//
// PARAMETERS:
//   - j: The running job; supplies ids and the clock.
//   - m: The detected mapping; supplies the system id override and the
//     forced category.
//   - d: The extracted item.
func (n *Normalizer) Normalize(j *job.Job, m *config.VendorMapping, d types.ItemDescriptor) types.LineItem {
	now := j.Now()
	vendor := strings.TrimSpace(d.Vendor)
	if vendor == "" {
		vendor = m.Vendor
	}
	site := strings.TrimSpace(d.Site)

	li := types.LineItem{
		SourceVendor:   m.Vendor,
		VendorName:     vendor,
		Site:           site,
		ItemName:       strings.TrimSpace(d.Item),
		DealType:       n.defaults.DealType,
		OrdererStaffID: n.defaults.OrdererStaffID,
		SupervisorID:   n.defaults.SupervisorID,
		TaxFlag:        n.defaults.TaxFlag,
	}

	// =========================================================================
	// STEP 1: Identity
	// =========================================================================
	li.ManagementID = j.NextManagementID()
	li.CounterpartyID = n.counterparty(vendor, m)
	li.SetInvoiceLabel(InvoiceLabel(vendor, d.Date, now))

	// =========================================================================
	// STEP 2: Project
	// =========================================================================
	if id := strings.TrimSpace(d.ProjectID); id != "" {
		li.ProjectID = id
	} else {
		id, generated := j.ProjectIDForSite(vendor, site)
		if generated {
			n.logger.Warn("normalize.project_id.generated", "vendor", vendor, "site", site, "project_id", id)
		}
		li.ProjectID = id
	}

	// =========================================================================
	// STEP 3: Dates
	// =========================================================================
	li.DeliveryDate = fields.FormatDate(d.Date, now)
	li.DueDate = fields.DueDate(d.Date, now)

	// =========================================================================
	// STEP 4: Money
	// =========================================================================
	li.Quantity = orDefault(fields.CleanNumber(d.Qty), "1")
	li.Unit = orDefault(d.Unit, types.WholeInvoiceUnit)

	amount, ok := fields.Decimal(d.Amount)
	if !ok {
		if incl, inclOK := fields.Decimal(d.AmountInTax); inclOK {
			amount, ok = fields.WithoutTax(incl), true
		}
	}
	if ok {
		SetAmount(&li, amount)
	}
	if price, priceOK := fields.Decimal(d.Price); priceOK {
		SetUnitPrice(&li, price)
	} else if p := fields.UnitPrice(d.Amount, li.Quantity); p != "" {
		SetUnitPrice(&li, decimal.RequireFromString(p))
	}

	// =========================================================================
	// STEP 5: Classification and remarks
	// =========================================================================
	li.Category = Category(li.ItemName, n.forcedCategory(vendor, m))
	li.Remarks = strings.TrimSpace(d.WorkNo)
	li.AppendRemark(d.Remarks)

	return li
}

func (n *Normalizer) counterparty(vendor string, m *config.VendorMapping) string {
	if m.SystemID != "" && vendor == m.Vendor {
		return m.SystemID
	}
	if id, ok := SystemID(vendor); ok {
		return id
	}
	n.logger.Warn("normalize.vendor.unmapped", "vendor", vendor)
	return vendor
}

func (n *Normalizer) forcedCategory(vendor string, m *config.VendorMapping) string {
	if m.ConstructionCategory != "" {
		return m.ConstructionCategory
	}
	if c, ok := forcedCategories[vendor]; ok {
		return c
	}
	return forcedCategories[m.Vendor]
}

// SetAmount stores the tax-exclusive line amount and its tax-inclusive
// counterpart.
func SetAmount(li *types.LineItem, exTax decimal.Decimal) {
	li.AmountExTax = types.Money(exTax)
	li.AmountInTax = types.Money(fields.WithTax(exTax))
}

// SetUnitPrice stores the tax-exclusive unit price and its tax-inclusive
// counterpart.
func SetUnitPrice(li *types.LineItem, exTax decimal.Decimal) {
	li.UnitPriceExTax = types.Money(exTax)
	li.UnitPriceInTax = types.Money(fields.WithTax(exTax))
}

// SetInvoiceTotal stores the invoice-level totals.
func SetInvoiceTotal(li *types.LineItem, exTax decimal.Decimal) {
	li.InvoiceTotalExTax = types.Money(exTax)
	li.InvoiceTotalInTax = types.Money(fields.WithTax(exTax))
}

// InvoiceLabel returns YYYYMM<vendor>_請求書. The month comes from the
// first YYYY/M in the formatted date, else from now.
func InvoiceLabel(vendor, date string, now time.Time) string {
	y, m, ok := fields.YearMonth(fields.FormatDate(date, now))
	if !ok {
		ym := now.Format("200601")
		y, m = ym[:4], ym[4:]
	}
	return fmt.Sprintf("%s%s%s_請求書", y, m, vendor)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
