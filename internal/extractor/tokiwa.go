package extractor

import (
	"strings"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/fields"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

// tokiwa reads the トキワシステム invoice, which has no stable column
// layout. Each detail row is read right to left: amount, unit price and
// quantity are the trailing numbers, the item is the longest text.
type tokiwa struct {
	env    Env
	vendor string
}

var tkSkipPatterns = []string{
	"合計", "小計", "消費税", "請求書", "株式会社", "御中", "TEL", "FAX", "〒",
	"振込先", "登録番号", "品名", "商品", "金額", "数量", "トキワ",
}

var tkUnits = []string{"個", "本", "枚", "箱", "式", "台", "m", "セット", "組", "缶"}

func newTokiwa(env Env, m *config.VendorMapping) Extractor {
	return &tokiwa{env: env, vendor: m.Vendor}
}

func (x *tokiwa) Extract(sheet types.Sheet) ([]types.ItemDescriptor, error) {
	t := newTally(x.env, x.vendor, len(sheet.Rows))
	md := ExtractMetadata(sheet.Rows, 10, x.env.now())
	headerID := NewProjectIDScanner().Scan(sheet.Rows)

	start := FindDataStart(sheet, []string{"品名", "商品", "金額", "数量"}, 20, 2)
	if start < 0 {
		start = min(10, len(sheet.Rows))
	}

	var items []types.ItemDescriptor
	for i := start; i < len(sheet.Rows); i++ {
		v := sheet.Rows[i].Values()
		if skipTokiwaRow(v) {
			t.skip(i, "boilerplate")
			continue
		}
		item := longestText(v)
		qty, price, amount := TrailingNumbers(v)
		if item == "" || amount == "" {
			t.skip(i, "incomplete")
			continue
		}
		if qty == "" {
			qty = "1"
		}
		date := md.InvoiceDate
		for _, cell := range v {
			if fields.IsSlashDate(cell) {
				date = cell
				break
			}
		}
		projectID := x.env.projectID(x.vendor, firstNonEmpty(RowProjectID(sheet.Rows[i]), headerID), md.Site, i)
		items = append(items, types.ItemDescriptor{
			Vendor:    x.vendor,
			Site:      md.Site,
			Date:      date,
			Item:      item,
			Qty:       qty,
			Unit:      tokiwaUnit(v),
			Price:     price,
			Amount:    amount,
			ProjectID: projectID,
		})
	}
	return t.finish(items)
}

func skipTokiwaRow(v []string) bool {
	if nonEmptyCount(v) < 2 {
		return true
	}
	return containsAny(strings.Join(v, "|"), tkSkipPatterns...)
}

func tokiwaUnit(v []string) string {
	for _, cell := range v {
		for _, u := range tkUnits {
			if cell == u {
				return u
			}
		}
	}
	return "個"
}
