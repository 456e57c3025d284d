// =============================================================================
// ANDPAD Invoice Converter - Shared Types
// =============================================================================
//
// This package contains the types that flow between the pipeline stages.
// Keeping them here avoids import cycles between:
//   - detector / extractor (RawRow, Sheet)
//   - normalizer / rules / consolidation (ItemDescriptor, LineItem)
//   - output / validation (LineItem, column sets)
//
// =============================================================================

package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INPUT TYPES
// =============================================================================

// RawRow is one decoded input row. Cells are kept in source order so that
// header-less vendor files can be read positionally, while headered files
// are read by column name through Get.
type RawRow struct {
	// Headers is shared by every row of a sheet.
	Headers []string

	// Cells holds the cell values in column order. A row may be shorter
	// than Headers; missing cells read as "".
	Cells []string
}

// NewRawRow builds a row over the given headers.
func NewRawRow(headers []string, cells ...string) RawRow {
	return RawRow{Headers: headers, Cells: cells}
}

// Get returns the value under the first header equal to name, or "".
func (r RawRow) Get(name string) string {
	for i, h := range r.Headers {
		if h == name {
			if i < len(r.Cells) {
				return r.Cells[i]
			}
			return ""
		}
	}
	return ""
}

// Has reports whether the row's header set contains name.
func (r RawRow) Has(name string) bool {
	for _, h := range r.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// Values returns the trimmed cell values, padded to the header width.
func (r RawRow) Values() []string {
	n := len(r.Cells)
	if len(r.Headers) > n {
		n = len(r.Headers)
	}
	out := make([]string, n)
	for i := 0; i < n && i < len(r.Cells); i++ {
		out[i] = strings.TrimSpace(r.Cells[i])
	}
	return out
}

// At returns the trimmed cell at position i, or "".
func (r RawRow) At(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[i])
}

// Text joins the cells with "|" for keyword scanning.
func (r RawRow) Text() string {
	return strings.Join(r.Cells, "|")
}

// IsEmpty reports whether every cell is blank.
func (r RawRow) IsEmpty() bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Sheet is the full input of one conversion: the display filename and the
// buffered rows. The first physical row of the source is always the header.
type Sheet struct {
	Filename string
	Headers  []string
	Rows     []RawRow
}

// =============================================================================
// EXTRACTION OUTPUT
// =============================================================================

// ItemDescriptor is the partially normalized record an extractor produces.
// All fields are strings straight from the source; the normalizer owns
// parsing, defaults and tax math.
type ItemDescriptor struct {
	Vendor    string
	Site      string
	Date      string
	Item      string
	Qty       string
	Unit      string
	Price     string
	Amount    string
	WorkNo    string
	Remarks   string
	ProjectID string

	// AmountInTax overrides the computed tax-inclusive amount (and unit
	// price) when the source states gross figures directly.
	AmountInTax string
}

// =============================================================================
// CANONICAL RECORD
// =============================================================================

// LineItem is the canonical import row.
type LineItem struct {
	ManagementID   string
	CounterpartyID string
	DealType       string
	OrdererStaffID string
	ProjectID      string
	SupervisorID   string
	DeliveryDate   string
	DueDate        string
	Quantity       string
	Unit           string
	Category       string
	TaxFlag        string
	Remarks        string
	Result         string

	InvoiceTotalExTax decimal.NullDecimal
	InvoiceTotalInTax decimal.NullDecimal
	UnitPriceExTax    decimal.NullDecimal
	UnitPriceInTax    decimal.NullDecimal
	AmountExTax       decimal.NullDecimal
	AmountInTax       decimal.NullDecimal

	// Not exported to the sheet; used for grouping.
	SourceVendor string // detected mapping vendor
	VendorName   string // vendor name as read from the invoice
	Site         string
	ItemName     string

	invoiceLabel string
	description  string
}

// SetInvoiceLabel sets the invoice label and the line description together.
// They must be identical for the import to group lines into one invoice.
func (li *LineItem) SetInvoiceLabel(label string) {
	li.invoiceLabel = label
	li.description = label
}

// InvoiceLabel returns the 請求名 value.
func (li LineItem) InvoiceLabel() string { return li.invoiceLabel }

// Description returns the 請求納品明細名 value.
func (li LineItem) Description() string { return li.description }

// AppendRemark adds note to the remarks, space separated.
func (li *LineItem) AppendRemark(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if li.Remarks == "" {
		li.Remarks = note
		return
	}
	li.Remarks = li.Remarks + " " + note
}

// =============================================================================
// OUTPUT COLUMNS
// =============================================================================

// Column names of the ANDPAD import sheet.
const (
	ColManagementID      = "請求管理ID"
	ColCounterparty      = "取引先"
	ColDealType          = "取引設定"
	ColOrdererStaff      = "担当者(発注側)"
	ColInvoiceLabel      = "請求名"
	ColProjectID         = "案件管理ID"
	ColInvoiceTotalExTax = "請求納品金額(税抜)"
	ColInvoiceTotalInTax = "請求納品金額(税込)"
	ColSupervisor        = "現場監督"
	ColDeliveryDate      = "納品実績日"
	ColDueDate           = "支払予定日"
	ColDescription       = "請求納品明細名"
	ColQuantity          = "数量"
	ColUnit              = "単位"
	ColUnitPriceExTax    = "単価(税抜)"
	ColUnitPriceInTax    = "単価(税込)"
	ColAmountExTax       = "金額(税抜)"
	ColAmountInTax       = "金額(税込)"
	ColCategory          = "工事種類"
	ColTaxFlag           = "課税フラグ"
	ColRemarks           = "請求納品明細備考"
	ColResult            = "結果"
)

// MasterColumns is the fixed column order of the import sheet.
var MasterColumns = []string{
	ColManagementID,
	ColCounterparty,
	ColDealType,
	ColOrdererStaff,
	ColInvoiceLabel,
	ColProjectID,
	ColInvoiceTotalExTax,
	ColInvoiceTotalInTax,
	ColSupervisor,
	ColDeliveryDate,
	ColDueDate,
	ColDescription,
	ColQuantity,
	ColUnit,
	ColUnitPriceExTax,
	ColUnitPriceInTax,
	ColAmountExTax,
	ColAmountInTax,
	ColCategory,
	ColTaxFlag,
	ColRemarks,
	ColResult,
}

// WholeInvoiceUnit is the unit used for whole-invoice lines.
const WholeInvoiceUnit = "式"

// Record returns the row values in MasterColumns order.
func (li LineItem) Record() []string {
	return []string{
		li.ManagementID,
		li.CounterpartyID,
		li.DealType,
		li.OrdererStaffID,
		li.invoiceLabel,
		li.ProjectID,
		FormatMoney(li.InvoiceTotalExTax),
		FormatMoney(li.InvoiceTotalInTax),
		li.SupervisorID,
		li.DeliveryDate,
		li.DueDate,
		li.description,
		li.Quantity,
		li.Unit,
		FormatMoney(li.UnitPriceExTax),
		FormatMoney(li.UnitPriceInTax),
		FormatMoney(li.AmountExTax),
		FormatMoney(li.AmountInTax),
		li.Category,
		li.TaxFlag,
		li.Remarks,
		li.Result,
	}
}

// FormatMoney renders a money value the way the import expects it: plain
// digits, no grouping, empty when absent.
func FormatMoney(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}

// Money wraps d as a present value.
func Money(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
