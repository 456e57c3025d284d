package extractor

import (
	"strings"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/common"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/fields"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

// Column positions of the クリーン産業 statement.
const (
	ciVendor = iota
	ciSite
	ciDate
	ciWorkNo
	ciItem
	ciQty
	ciUnit
	ciPrice
	ciAmount
	ciTax
	ciTotal
)

// ciFallbackStart is the first data row when no header row is found.
const ciFallbackStart = 8

var (
	ciHeaderTokens     = []string{"業者名", "現場名", "品名"}
	ciInvoiceDateLabel = []string{"請求年月日", "請求日", "発行日"}
	ciSkipVendor       = []string{
		"株式会社クリーン産業", "TEL", "FAX", "〒", "530-", "100-", "600-",
		"振込先", "登録番号", "大阪府", "東京都", "京都府",
	}
	ciSkipKeywords = []string{"請求年月日", "今回御請求額", "今回取引額", "コード", "御中"}
	ciRowIDColumns = []string{"案件管理ID", "工事番号", "現場No", "物件No"}
)

type cleanIndustry struct {
	env    Env
	vendor string
}

func newCleanIndustry(env Env, m *config.VendorMapping) Extractor {
	return &cleanIndustry{env: env, vendor: m.Vendor}
}

func (x *cleanIndustry) Extract(sheet types.Sheet) ([]types.ItemDescriptor, error) {
	if IsImportSheet(sheet.Headers) {
		return nil, common.AlreadyConverted()
	}

	t := newTally(x.env, x.vendor, len(sheet.Rows))
	start := FindDataStart(sheet, ciHeaderTokens, 20, len(ciHeaderTokens))
	if start < 0 {
		start = ciFallbackStart
	}
	header := sheet.Rows[:min(start, len(sheet.Rows))]
	data := sheet.Rows[min(start, len(sheet.Rows)):]

	invoiceDate := x.invoiceDate(header, data)
	headerID := NewProjectIDScanner().Scan(header)
	year := ""
	if y, _, ok := fields.YearMonth(invoiceDate); ok {
		year = y
	}

	var items []types.ItemDescriptor
	for i, row := range data {
		idx := start + i
		v := row.Values()
		if strings.Contains(row.Text(), "【") {
			t.skip(idx, "summary")
			continue
		}
		if skipCleanIndustryRow(v) {
			t.skip(idx, "header")
			continue
		}
		vendorName := at(v, ciVendor)
		item := at(v, ciItem)
		if !validCleanIndustryItem(item, vendorName) {
			t.skip(idx, "item")
			continue
		}
		amount := firstNonEmpty(CleanNumber(at(v, ciAmount)), CleanNumber(at(v, ciTotal)))
		if !fields.IsNonZero(amount) {
			t.skip(idx, "amount")
			continue
		}
		qty := orDefault(CleanNumber(at(v, ciQty)), "1")
		price := CleanNumber(at(v, ciPrice))
		if price == "" {
			price = fields.UnitPrice(amount, qty)
		}

		site := orDefault(at(v, ciSite), DefaultSite)
		remarks := ""
		if vendorName != DefaultSite {
			remarks = vendorName
		}

		projectID := firstNonEmpty(RowProjectID(row, ciRowIDColumns...), headerID)
		if projectID == "" {
			projectID = "SITE_" + whitespacePattern.ReplaceAllString(site, "_")
			x.env.logger().Warn("extract.project_id.site_fallback", "vendor", x.vendor, "row", idx, "site", site)
		}

		items = append(items, types.ItemDescriptor{
			Vendor:    x.vendor,
			Site:      site,
			Date:      x.rowDate(at(v, ciDate), year, invoiceDate),
			Item:      item,
			Qty:       qty,
			Unit:      at(v, ciUnit),
			Price:     price,
			Amount:    amount,
			WorkNo:    at(v, ciWorkNo),
			Remarks:   remarks,
			ProjectID: projectID,
		})
	}
	return t.finish(items)
}

// invoiceDate prefers the labelled 請求年月日 cell, then the latest date in
// the header region, then the latest transaction date, then today.
func (x *cleanIndustry) invoiceDate(header, data []types.RawRow) string {
	for i, row := range header {
		if !containsAny(row.Text(), ciInvoiceDateLabel...) {
			continue
		}
		if i+1 < len(header) {
			if d := fields.SlashDates(header[i+1].Text()); len(d) > 0 {
				return d[0]
			}
		}
		if d := fields.SlashDates(row.Text()); len(d) > 0 {
			return d[0]
		}
	}
	if d := latestDate(header); d != "" {
		return d
	}
	if d := latestDate(data); d != "" {
		return d
	}
	now := x.env.now()
	return now.Format("2006/01/02")
}

// rowDate completes a month/day transaction date with the invoice year.
func (x *cleanIndustry) rowDate(raw, year, invoiceDate string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return invoiceDate
	}
	if strings.Count(raw, "/") == 1 && year != "" {
		return year + "/" + raw
	}
	return fields.FormatDate(raw, x.env.now())
}

// latestDate returns the greatest YYYY/MM/DD in rows.
func latestDate(rows []types.RawRow) string {
	best := ""
	for _, row := range rows {
		for _, d := range fields.SlashDates(row.Text()) {
			// Zero padded, so lexical order is date order.
			if d > best {
				best = d
			}
		}
	}
	return best
}

func skipCleanIndustryRow(v []string) bool {
	vendorName, item := at(v, ciVendor), at(v, ciItem)
	if vendorName == "業者名" || item == "品名" {
		return true
	}
	if containsAny(vendorName, ciSkipVendor...) {
		return true
	}
	if nonEmptyCount(v) <= 2 {
		return true
	}
	return containsAny(strings.Join(v, "|"), ciSkipKeywords...)
}

func validCleanIndustryItem(item, vendorName string) bool {
	return len([]rune(item)) >= 2 && item != vendorName && !strings.Contains(item, "クリーン産業")
}

// IsImportSheet reports whether headers already look like the import
// sheet, i.e. at least three of its first six columns are present.
func IsImportSheet(headers []string) bool {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.TrimSpace(h)] = true
	}
	n := 0
	for _, c := range types.MasterColumns[:6] {
		if present[c] {
			n++
		}
	}
	return n >= 3
}

// at returns v[i] or "".
func at(v []string, i int) string {
	if i < 0 || i >= len(v) {
		return ""
	}
	return v[i]
}
