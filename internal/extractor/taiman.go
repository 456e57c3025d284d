package extractor

import (
	"strings"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/fields"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

// taiman reads the 大萬 purchase ledger. Amounts are list prices; the
// contractual discount is applied later by the rule engine.
type taiman struct {
	env    Env
	vendor string
}

func newTaiman(env Env, m *config.VendorMapping) Extractor {
	return &taiman{env: env, vendor: m.Vendor}
}

func (x *taiman) Extract(sheet types.Sheet) ([]types.ItemDescriptor, error) {
	t := newTally(x.env, x.vendor, len(sheet.Rows))
	headerID := NewProjectIDScanner("伝票番号").Scan(sheet.Rows)

	var items []types.ItemDescriptor
	for i, row := range sheet.Rows {
		item := strings.TrimSpace(row.Get("商品名"))
		if skipTaimanRow(item) {
			t.skip(i, "summary")
			continue
		}
		amount := CleanNumber(row.Get("仕入金額"))
		if amount == "" {
			t.skip(i, "amount")
			continue
		}

		projectID := x.env.projectID(x.vendor, firstNonEmpty(RowProjectID(row), headerID), "TAIMAN", i)

		items = append(items, types.ItemDescriptor{
			Vendor:    x.vendor,
			Site:      strings.TrimSpace(row.Get("現場名")),
			Date:      fields.FormatDate(row.Get("出荷日"), x.env.now()),
			Item:      item,
			Qty:       orDefault(CleanNumber(row.Get("数量")), "1"),
			Unit:      orDefault(row.Get("単位"), "個"),
			Price:     CleanNumber(row.Get("仕入単価")),
			Amount:    amount,
			WorkNo:    strings.TrimSpace(row.Get("商品コード")),
			Remarks:   strings.TrimSpace(row.Get("備考")),
			ProjectID: projectID,
		})
	}
	return t.finish(items)
}

func skipTaimanRow(item string) bool {
	return item == "" || item == "商品名" || containsAny(item, "合計", "小計")
}
