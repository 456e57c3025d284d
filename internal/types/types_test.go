package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRawRowAccess(t *testing.T) {
	row := NewRawRow([]string{"品名", "金額", "備考"}, " ボルト ", "1,200")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"get by header", row.Get("金額"), "1,200"},
		{"get past short row", row.Get("備考"), ""},
		{"get unknown header", row.Get("数量"), ""},
		{"at trims", row.At(0), "ボルト"},
		{"at out of range", row.At(5), ""},
		{"text", row.Text(), " ボルト |1,200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}

	if vals := row.Values(); len(vals) != 3 || vals[0] != "ボルト" || vals[2] != "" {
		t.Errorf("Values() = %q", vals)
	}
	if !row.Has("備考") || row.Has("数量") {
		t.Error("Has() disagrees with headers")
	}
	if row.IsEmpty() {
		t.Error("IsEmpty() = true for a row with values")
	}
	if !NewRawRow(nil, " ", "").IsEmpty() {
		t.Error("IsEmpty() = false for a blank row")
	}
}

func TestLineItemRecord(t *testing.T) {
	var li LineItem
	li.ManagementID = "20250915-0001"
	li.SetInvoiceLabel("大萬 2025年9月分")
	li.AmountExTax = Money(decimal.NewFromInt(12000))
	li.AppendRemark("A")
	li.AppendRemark("  ")
	li.AppendRemark("B")

	rec := li.Record()
	if len(rec) != len(MasterColumns) {
		t.Fatalf("record width = %d, want %d", len(rec), len(MasterColumns))
	}

	col := func(name string) string {
		for i, c := range MasterColumns {
			if c == name {
				return rec[i]
			}
		}
		t.Fatalf("column %s not found", name)
		return ""
	}
	if col(ColInvoiceLabel) != col(ColDescription) {
		t.Errorf("label %q and description %q differ", col(ColInvoiceLabel), col(ColDescription))
	}
	if got := col(ColAmountExTax); got != "12000" {
		t.Errorf("amount = %q, want 12000", got)
	}
	if got := col(ColAmountInTax); got != "" {
		t.Errorf("absent amount = %q, want empty", got)
	}
	if got := col(ColRemarks); got != "A B" {
		t.Errorf("remarks = %q, want %q", got, "A B")
	}
}
