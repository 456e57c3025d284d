package extractor

import (
	"strings"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/fields"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

// nakazawa reads the ナカザワ建販 sales detail export.
type nakazawa struct {
	env    Env
	vendor string
}

func newNakazawa(env Env, m *config.VendorMapping) Extractor {
	return &nakazawa{env: env, vendor: m.Vendor}
}

func (x *nakazawa) Extract(sheet types.Sheet) ([]types.ItemDescriptor, error) {
	t := newTally(x.env, x.vendor, len(sheet.Rows))
	headerID := NewProjectIDScanner("現場コード").Scan(sheet.Rows)

	var items []types.ItemDescriptor
	for i, row := range sheet.Rows {
		product := strings.TrimSpace(row.Get("商品名"))
		if skipNakazawaRow(product) {
			t.skip(i, "summary")
			continue
		}
		amount := CleanNumber(row.Get("売上金額"))
		if amount == "" {
			t.skip(i, "amount")
			continue
		}
		site := strings.TrimSpace(row.Get("現場名"))
		projectID := firstNonEmpty(RowProjectID(row, "案件管理ID", "工事番号", "現場No", "物件No", "現場コード"), headerID)
		items = append(items, types.ItemDescriptor{
			Vendor:    x.vendor,
			Site:      site,
			Date:      fields.FormatDate(row.Get("売上日"), x.env.now()),
			Item:      nakazawaItemName(row),
			Qty:       firstNonEmpty(CleanNumber(row.Get("数量")), CleanNumber(row.Get("個数")), "1"),
			Unit:      orDefault(row.Get("売上単価単位名"), "個"),
			Price:     CleanNumber(row.Get("売上単価")),
			Amount:    amount,
			WorkNo:    firstNonEmpty(row.Get("商品コード"), row.Get("売上Ｎｏ")),
			Remarks:   nakazawaRemarks(row),
			ProjectID: x.env.projectID(x.vendor, projectID, site, i),
		})
	}
	return t.finish(items)
}

// nakazawaItemName builds "maker product [規格] (code)".
func nakazawaItemName(row types.RawRow) string {
	name := joinNonEmpty(" ", row.Get("メーカー名"), row.Get("商品名"))
	if std := strings.TrimSpace(row.Get("規格")); std != "" {
		name += " [" + std + "]"
	}
	if code := strings.TrimSpace(row.Get("商品コード")); code != "" {
		name += " (" + code + ")"
	}
	return name
}

func nakazawaRemarks(row types.RawRow) string {
	var parts []string
	add := func(label, col string) {
		if v := strings.TrimSpace(row.Get(col)); v != "" {
			parts = append(parts, label+v)
		}
	}
	add("伝票:", "売上Ｎｏ")
	add("区分:", "区分名")
	add("担当:", "担当者名")
	if n := CleanNumber(row.Get("入数")); fields.IsNonZero(n) {
		parts = append(parts, "入数:"+n)
	}
	add("", "備考")
	return strings.Join(parts, " ")
}

func skipNakazawaRow(product string) bool {
	return product == "" || product == "商品名" || containsAny(product, "合計", "小計")
}
