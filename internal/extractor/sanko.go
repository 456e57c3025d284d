package extractor

import (
	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/fields"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

// 三高産業 sends a header-less statement: a free-text block naming client
// and site, then positional detail rows.
const (
	skDate = iota
	skWorkNo
	skRemarks
	skItem
	skQty
	skPrice
	skAmount
)

type sanko struct {
	env    Env
	vendor string
}

func newSanko(env Env, m *config.VendorMapping) Extractor {
	return &sanko{env: env, vendor: m.Vendor}
}

func (x *sanko) Extract(sheet types.Sheet) ([]types.ItemDescriptor, error) {
	t := newTally(x.env, x.vendor, len(sheet.Rows))
	md := ExtractMetadata(sheet.Rows, 10, x.env.now())
	headerID := NewProjectIDScanner().Scan(sheet.Rows)

	start := FindDataStart(sheet, []string{"日付", "商品名"}, 15, 2)
	if start < 0 {
		start = 10
	}

	var items []types.ItemDescriptor
	for i := start; i < len(sheet.Rows); i++ {
		v := sheet.Rows[i].Values()
		item := at(v, skItem)
		if skipSankoRow(v) {
			t.skip(i, "summary")
			continue
		}
		amount := CleanNumber(at(v, skAmount))
		if item == "" || amount == "" {
			t.skip(i, "incomplete")
			continue
		}
		projectID := x.env.projectID(x.vendor, firstNonEmpty(RowProjectID(sheet.Rows[i]), headerID), md.Site, i)
		items = append(items, types.ItemDescriptor{
			Vendor:    x.vendor,
			Site:      md.Site,
			Date:      fields.FormatDate(firstNonEmpty(at(v, skDate), md.InvoiceDate), x.env.now()),
			Item:      item,
			Qty:       orDefault(CleanNumber(at(v, skQty)), "1"),
			Price:     CleanNumber(at(v, skPrice)),
			Amount:    amount,
			WorkNo:    at(v, skWorkNo),
			Remarks:   at(v, skRemarks),
			ProjectID: projectID,
		})
	}
	return t.finish(items)
}

func skipSankoRow(v []string) bool {
	return containsAny(at(v, skDate), "合計") || containsAny(at(v, skItem), "合計")
}
