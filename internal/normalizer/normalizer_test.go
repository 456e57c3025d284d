package normalizer

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/fields"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/job"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/logging"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

var testNow = time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)

func newTestNormalizer() *Normalizer {
	return New(config.Default().Defaults, logging.New(&logging.Config{Output: io.Discard}))
}

func TestNormalizeAmounts(t *testing.T) {
	n := newTestNormalizer()
	j := job.New(testNow)
	m := &config.VendorMapping{Vendor: "X"}

	li := n.Normalize(j, m, types.ItemDescriptor{Vendor: "X", Item: "resin", Amount: "1000"})

	if got := types.FormatMoney(li.AmountExTax); got != "1000" {
		t.Errorf("AmountExTax = %q, want 1000", got)
	}
	if got := types.FormatMoney(li.AmountInTax); got != "1100" {
		t.Errorf("AmountInTax = %q, want 1100", got)
	}
	if li.Quantity != "1" || li.Unit != "式" {
		t.Errorf("Quantity/Unit = %q/%q", li.Quantity, li.Unit)
	}
	if got := types.FormatMoney(li.UnitPriceExTax); got != "1000" {
		t.Errorf("UnitPriceExTax = %q, want derived 1000", got)
	}
	if li.DealType != "紙発注" || li.OrdererStaffID != "925646" || li.SupervisorID != "925646" || li.TaxFlag != "課税" {
		t.Errorf("defaults not applied: %+v", li)
	}
	if li.Result != "" {
		t.Errorf("Result = %q, want empty", li.Result)
	}
}

func TestNormalizeTaxInvariant(t *testing.T) {
	n := newTestNormalizer()
	j := job.New(testNow)
	m := &config.VendorMapping{Vendor: "大萬"}

	for _, amount := range []string{"1", "5", "15", "999", "1234", "99999", "0", "-500"} {
		li := n.Normalize(j, m, types.ItemDescriptor{Amount: amount, Price: amount})
		want := fields.WithTax(li.AmountExTax.Decimal)
		if !li.AmountInTax.Decimal.Equal(want) {
			t.Errorf("amount %s: incl = %s, want %s", amount, li.AmountInTax.Decimal, want)
		}
		if !li.UnitPriceInTax.Decimal.Equal(fields.WithTax(li.UnitPriceExTax.Decimal)) {
			t.Errorf("price %s: incl = %s", amount, li.UnitPriceInTax.Decimal)
		}
	}
}

func TestNormalizeLabel(t *testing.T) {
	n := newTestNormalizer()
	j := job.New(testNow)

	tests := []struct {
		name   string
		vendor string
		date   string
		want   string
	}{
		{"slash date", "大萬", "2025/8/3", "202508大萬_請求書"},
		{"compact date", "大萬", "20250703", "202507大萬_請求書"},
		{"no date", "ナンセイ", "", "202509ナンセイ_請求書"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			li := n.Normalize(j, &config.VendorMapping{Vendor: tt.vendor}, types.ItemDescriptor{Vendor: tt.vendor, Date: tt.date, Amount: "1"})
			if li.InvoiceLabel() != tt.want {
				t.Errorf("label = %q, want %q", li.InvoiceLabel(), tt.want)
			}
			if li.InvoiceLabel() != li.Description() {
				t.Errorf("label %q != description %q", li.InvoiceLabel(), li.Description())
			}
		})
	}
}

func TestNormalizeDates(t *testing.T) {
	n := newTestNormalizer()
	j := job.New(testNow)
	m := &config.VendorMapping{Vendor: "大萬"}

	li := n.Normalize(j, m, types.ItemDescriptor{Date: "2025/12/10", Amount: "1"})
	if li.DeliveryDate != "2025/12/10" || li.DueDate != "2026/1/31" {
		t.Errorf("dates = %q/%q", li.DeliveryDate, li.DueDate)
	}

	li = n.Normalize(j, m, types.ItemDescriptor{Amount: "1"})
	if li.DeliveryDate != "" || li.DueDate != "" {
		t.Errorf("empty date gave %q/%q", li.DeliveryDate, li.DueDate)
	}
}

func TestNormalizeProjectIDs(t *testing.T) {
	n := newTestNormalizer()
	j := job.New(testNow)
	m := &config.VendorMapping{Vendor: "大萬"}

	explicit := n.Normalize(j, m, types.ItemDescriptor{Site: "A邸", ProjectID: "K-1", Amount: "1"})
	first := n.Normalize(j, m, types.ItemDescriptor{Site: "A邸", Amount: "1"})
	again := n.Normalize(j, m, types.ItemDescriptor{Site: "A邸", Amount: "1"})
	other := n.Normalize(j, m, types.ItemDescriptor{Site: "B邸", Amount: "1"})

	if explicit.ProjectID != "K-1" {
		t.Errorf("explicit = %q", explicit.ProjectID)
	}
	if first.ProjectID != "PRJ-20250915-001" || again.ProjectID != first.ProjectID {
		t.Errorf("site ids = %q, %q", first.ProjectID, again.ProjectID)
	}
	if other.ProjectID != "PRJ-20250915-002" {
		t.Errorf("other site = %q", other.ProjectID)
	}
}

func TestNormalizeManagementIDs(t *testing.T) {
	n := newTestNormalizer()
	j := job.New(testNow)
	m := &config.VendorMapping{Vendor: "大萬"}

	a := n.Normalize(j, m, types.ItemDescriptor{Amount: "1"})
	b := n.Normalize(j, m, types.ItemDescriptor{Amount: "1"})
	if a.ManagementID != "20250915001" || b.ManagementID != "20250915002" {
		t.Errorf("ids = %q, %q", a.ManagementID, b.ManagementID)
	}
}

func TestNormalizeCounterparty(t *testing.T) {
	n := newTestNormalizer()
	j := job.New(testNow)

	tests := []struct {
		name    string
		mapping *config.VendorMapping
		vendor  string
		want    string
	}{
		{"table", &config.VendorMapping{Vendor: "大萬"}, "大萬", "564361"},
		{"override", &config.VendorMapping{Vendor: "新業者", SystemID: "700001"}, "新業者", "700001"},
		{"unknown passes through", &config.VendorMapping{Vendor: "新業者"}, "新業者", "新業者"},
		{"empty vendor uses mapping", &config.VendorMapping{Vendor: "ナンセイ"}, "", "563829"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			li := n.Normalize(j, tt.mapping, types.ItemDescriptor{Vendor: tt.vendor, Amount: "1"})
			if li.CounterpartyID != tt.want {
				t.Errorf("CounterpartyID = %q, want %q", li.CounterpartyID, tt.want)
			}
		})
	}
}

func TestNormalizeGrossOnly(t *testing.T) {
	n := newTestNormalizer()
	li := n.Normalize(job.New(testNow), &config.VendorMapping{Vendor: "オメガジャパン"},
		types.ItemDescriptor{AmountInTax: "110000"})
	if got := types.FormatMoney(li.AmountExTax); got != "100000" {
		t.Errorf("AmountExTax = %q", got)
	}
	if got := types.FormatMoney(li.AmountInTax); got != "110000" {
		t.Errorf("AmountInTax = %q", got)
	}
}

func TestNormalizeRemarksAndCategory(t *testing.T) {
	n := newTestNormalizer()
	j := job.New(testNow)

	li := n.Normalize(j, &config.VendorMapping{Vendor: "大萬"}, types.ItemDescriptor{Item: "送料", WorkNo: "W-1", Remarks: "至急", Amount: "1"})
	if li.Remarks != "W-1 至急" {
		t.Errorf("Remarks = %q", li.Remarks)
	}
	if li.Category != CategoryOther {
		t.Errorf("Category = %q", li.Category)
	}

	forced := n.Normalize(j, &config.VendorMapping{Vendor: "高菱管理"}, types.ItemDescriptor{Item: "外壁塗装", Amount: "1"})
	if forced.Category != CategoryOther {
		t.Errorf("forced Category = %q", forced.Category)
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		item, forced, want string
	}{
		{"石膏ボード", "", CategoryMaterials},
		{"断熱材 送料", "", CategoryOther},
		{"出精値引", "", CategoryOther},
		{"事務用品", "", CategoryOther},
		{"事務用品", CategoryMaterials, CategoryMaterials},
	}
	for _, tt := range tests {
		if got := Category(tt.item, tt.forced); got != tt.want {
			t.Errorf("Category(%q, %q) = %q, want %q", tt.item, tt.forced, got, tt.want)
		}
	}
}

func TestSetters(t *testing.T) {
	var li types.LineItem
	SetInvoiceTotal(&li, decimal.NewFromInt(3000))
	if types.FormatMoney(li.InvoiceTotalInTax) != "3300" {
		t.Errorf("InvoiceTotalInTax = %q", types.FormatMoney(li.InvoiceTotalInTax))
	}
}

func TestGeneratedProjectIDIsWarned(t *testing.T) {
	var buf bytes.Buffer
	n := New(config.Default().Defaults, slog.New(slog.NewTextHandler(&buf, nil)))
	j := job.New(testNow)
	m := &config.VendorMapping{Vendor: "X"}

	first := n.Normalize(j, m, types.ItemDescriptor{Vendor: "X", Site: "山田様邸", Item: "resin", Amount: "1000"})
	second := n.Normalize(j, m, types.ItemDescriptor{Vendor: "X", Site: "山田様邸", Item: "glue", Amount: "500"})

	if first.ProjectID == "" || first.ProjectID != second.ProjectID {
		t.Errorf("ProjectID = %q/%q, want one shared generated id", first.ProjectID, second.ProjectID)
	}
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "normalize.project_id.generated") {
		t.Errorf("log = %q, want a WARN line for the generated id", out)
	}
	if c := strings.Count(out, "normalize.project_id.generated"); c != 1 {
		t.Errorf("generated id logged %d times, want 1", c)
	}
}
