package consolidation

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/common"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/job"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/logging"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/normalizer"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

var testNow = time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)

func line(vendor, site, project string, amount int64, remarks string) types.LineItem {
	li := types.LineItem{
		ManagementID:   "x",
		CounterpartyID: "564361",
		VendorName:     vendor,
		Site:           site,
		ProjectID:      project,
		DeliveryDate:   "2025/8/1",
		Quantity:       "3",
		Unit:           "個",
		Remarks:        remarks,
	}
	li.SetInvoiceLabel("old")
	normalizer.SetAmount(&li, decimal.NewFromInt(amount))
	normalizer.SetUnitPrice(&li, decimal.NewFromInt(amount))
	return li
}

func newEngine(strict bool) *Engine {
	return New(Options{StrictTotals: strict}, logging.New(&logging.Config{Output: io.Discard}))
}

func TestConsolidateSameProject(t *testing.T) {
	items := []types.LineItem{
		line("大萬", "A邸", "P1", 1000, "W-1"),
		line("大萬", "A邸", "P1", 2000, "W-1"),
	}
	res, err := newEngine(false).Consolidate(job.New(testNow), items)
	if err != nil {
		t.Fatalf("Consolidate() error = %v", err)
	}
	if len(res.Invoices) != 1 {
		t.Fatalf("got %d rows, want 1", len(res.Invoices))
	}
	got := res.Invoices[0]

	checks := []struct {
		name, got, want string
	}{
		{"amount", types.FormatMoney(got.AmountExTax), "3000"},
		{"amount incl", types.FormatMoney(got.AmountInTax), "3300"},
		{"unit price", types.FormatMoney(got.UnitPriceExTax), "3000"},
		{"invoice total", types.FormatMoney(got.InvoiceTotalExTax), "3000"},
		{"quantity", got.Quantity, "1"},
		{"unit", got.Unit, "式"},
		{"management id", got.ManagementID, "20250915001"},
		{"label", got.InvoiceLabel(), "202508大萬_請求書"},
		{"description", got.Description(), "202508大萬_請求書"},
		{"remarks", got.Remarks, "W-1"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
	if res.Validation.WarningCount != 0 {
		t.Errorf("warnings = %v", res.Validation.Warnings())
	}
}

func TestConsolidateRowPerProject(t *testing.T) {
	items := []types.LineItem{
		line("大萬", "A邸", "P1", 1000, "a"),
		line("大萬", "B邸", "P2", 500, ""),
		line("大萬", "A邸", "P1", 1000, "b"),
		line("ナンセイ", "C邸", "P3", 700, ""),
	}
	res, err := newEngine(false).Consolidate(job.New(testNow), items)
	if err != nil {
		t.Fatalf("Consolidate() error = %v", err)
	}

	wantIDs := []string{"P1", "P2", "P3"}
	if len(res.Invoices) != len(wantIDs) {
		t.Fatalf("got %d rows, want %d", len(res.Invoices), len(wantIDs))
	}
	for i, id := range wantIDs {
		if res.Invoices[i].ProjectID != id {
			t.Errorf("row %d project = %q, want %q", i, res.Invoices[i].ProjectID, id)
		}
	}
	if res.Invoices[0].Remarks != "a; b" {
		t.Errorf("remarks = %q", res.Invoices[0].Remarks)
	}
	if res.Invoices[2].ManagementID != "20250915003" {
		t.Errorf("management id = %q", res.Invoices[2].ManagementID)
	}
}

func TestConsolidatePreservesSum(t *testing.T) {
	amounts := []int64{1, 333, 4999, 12, 7}
	var items []types.LineItem
	var want int64
	for _, a := range amounts {
		items = append(items, line("大萬", "A邸", "P1", a, ""))
		want += a
	}
	res, err := newEngine(false).Consolidate(job.New(testNow), items)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Invoices[0].AmountExTax.Decimal.Equal(decimal.NewFromInt(want)) {
		t.Errorf("sum = %s, want %d", res.Invoices[0].AmountExTax.Decimal, want)
	}
}

func TestTotalsMismatch(t *testing.T) {
	// One site split over two projects: each row's invoice total is the
	// whole site, its line amount only part of it.
	items := []types.LineItem{
		line("大萬", "A邸", "P1", 1000, ""),
		line("大萬", "A邸", "P2", 1000, ""),
	}

	res, err := newEngine(false).Consolidate(job.New(testNow), items)
	if err != nil {
		t.Fatalf("lenient Consolidate() error = %v", err)
	}
	if res.Validation.WarningCount != 2 {
		t.Errorf("warnings = %d, want 2", res.Validation.WarningCount)
	}
	if got := types.FormatMoney(res.Invoices[0].InvoiceTotalExTax); got != "2000" {
		t.Errorf("invoice total = %s, want 2000", got)
	}

	_, err = newEngine(true).Consolidate(job.New(testNow), items)
	if !errors.Is(err, common.ErrTotalsMismatch) {
		t.Fatalf("strict error = %v, want ErrTotalsMismatch", err)
	}
	if common.KindOf(err) != common.KindValidation {
		t.Errorf("kind = %q", common.KindOf(err))
	}
}

func TestStampSiteTotals(t *testing.T) {
	items := []types.LineItem{
		line("大萬", "A邸", "P1", 1000, ""),
		line("大萬", "B邸", "P1", 300, ""),
		line("大萬", "A邸", "P2", 500, ""),
	}
	st := StampSiteTotals(items)
	if got := types.FormatMoney(items[2].InvoiceTotalExTax); got != "1500" {
		t.Errorf("A邸 total = %s, want 1500", got)
	}
	if got := types.FormatMoney(items[1].InvoiceTotalInTax); got != "330" {
		t.Errorf("B邸 total incl = %s, want 330", got)
	}
	if !st.Total(SiteKey(items[0])).Equal(decimal.NewFromInt(1500)) {
		t.Errorf("Total = %s", st.Total(SiteKey(items[0])))
	}
}
