package extractor

import (
	"strings"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/fields"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

// nansei reads the ナンセイ billing summary: one row per invoice, so every
// row becomes a single whole-invoice line.
type nansei struct {
	env    Env
	vendor string
}

func newNansei(env Env, m *config.VendorMapping) Extractor {
	return &nansei{env: env, vendor: m.Vendor}
}

func (x *nansei) Extract(sheet types.Sheet) ([]types.ItemDescriptor, error) {
	t := newTally(x.env, x.vendor, len(sheet.Rows))
	headerID := NewProjectIDScanner().Scan(sheet.Rows)

	var items []types.ItemDescriptor
	for i, row := range sheet.Rows {
		customer := strings.TrimSpace(row.Get("取引先名"))
		amount := firstNonEmpty(CleanNumber(row.Get("今回取引額(税抜)")), CleanNumber(row.Get("今回取引額")))
		if skipNanseiRow(customer) || !fields.IsNonZero(amount) {
			t.skip(i, "summary")
			continue
		}

		projectID := x.env.projectID(x.vendor, firstNonEmpty(RowProjectID(row), headerID), customer, i)

		items = append(items, types.ItemDescriptor{
			Vendor:    x.vendor,
			Site:      strings.TrimSpace(row.Get("振込銀行名")),
			Date:      fields.FormatDate(row.Get("請求日付"), x.env.now()),
			Item:      "請求",
			Qty:       "1",
			Unit:      types.WholeInvoiceUnit,
			Price:     amount,
			Amount:    amount,
			WorkNo:    strings.TrimSpace(row.Get("請求番号")),
			Remarks:   strings.TrimSpace(row.Get("取引先CD")),
			ProjectID: projectID,
		})
	}
	return t.finish(items)
}

func skipNanseiRow(customer string) bool {
	return customer == "" || customer == "取引先名" || containsAny(customer, "合計")
}
