package extractor

import (
	"strings"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/fields"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

// hokukei reads the 北恵 sales ledger export: one headered row per item.
type hokukei struct {
	env    Env
	vendor string
}

func newHokukei(env Env, m *config.VendorMapping) Extractor {
	return &hokukei{env: env, vendor: m.Vendor}
}

func (x *hokukei) Extract(sheet types.Sheet) ([]types.ItemDescriptor, error) {
	t := newTally(x.env, x.vendor, len(sheet.Rows))
	headerID := NewProjectIDScanner().Scan(sheet.Rows)

	var items []types.ItemDescriptor
	for i, row := range sheet.Rows {
		maker := strings.TrimSpace(row.Get("メーカー名"))
		name := strings.TrimSpace(row.Get("品名"))
		item := joinNonEmpty(" ", maker, name)
		if item == "" || skipHokukeiRow(item) {
			t.skip(i, "summary")
			continue
		}
		amount := CleanNumber(row.Get("売上金額"))
		if amount == "" {
			t.skip(i, "amount")
			continue
		}
		site := strings.TrimSpace(row.Get("下店名3"))
		items = append(items, types.ItemDescriptor{
			Vendor:    x.vendor,
			Site:      site,
			Date:      fields.FormatDate(row.Get("伝票日付"), x.env.now()),
			Item:      item,
			Qty:       orDefault(CleanNumber(row.Get("数量")), "1"),
			Unit:      strings.TrimSpace(row.Get("単位名")),
			Price:     CleanNumber(row.Get("単価")),
			Amount:    amount,
			WorkNo:    strings.TrimSpace(row.Get("品番")),
			Remarks:   maker,
			ProjectID: x.env.projectID(x.vendor, firstNonEmpty(RowProjectID(row), headerID), site, i),
		})
	}
	return t.finish(items)
}

func skipHokukeiRow(item string) bool {
	return containsAny(item, "品名", "合計")
}
