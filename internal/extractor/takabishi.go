package extractor

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/fields"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

// takabishi reads the 高菱管理 management fee export. Rows are sectioned:
// an invoice header row (type INV in the unnamed column, or H in column H)
// is followed by M detail rows. Each header row becomes one whole-invoice
// line; the detail rows only itemize it.
type takabishi struct {
	env    Env
	vendor string
}

const tkTypeColumn = 7

func newTakabishi(env Env, m *config.VendorMapping) Extractor {
	return &takabishi{env: env, vendor: m.Vendor}
}

func (x *takabishi) Extract(sheet types.Sheet) ([]types.ItemDescriptor, error) {
	t := newTally(x.env, x.vendor, len(sheet.Rows))

	// Every invoice row may carry its own 案件管理ID, so the header scan
	// only looks at free-text keyword cells.
	scanner := NewProjectIDScanner()
	scanner.Columns = nil
	headerID := scanner.Scan(sheet.Rows)

	var items []types.ItemDescriptor
	for i, row := range sheet.Rows {
		if !isTakabishiInvoiceRow(row) {
			t.skip(i, "detail")
			continue
		}
		amount := takabishiAmount(row)
		if amount == "" {
			t.skip(i, "amount")
			continue
		}

		customer := strings.TrimSpace(row.Get("得意先番号"))
		place := strings.TrimSpace(row.Get("配置先番号"))
		date := fields.FormatDate(row.Get("請求日付"), x.env.now())
		if raw := strings.TrimSpace(row.Get("請求日付")); len(raw) == 8 && CleanNumber(raw) == raw {
			date = raw[0:4] + "/" + raw[4:6] + "/" + raw[6:8]
		}

		projectID := firstNonEmpty(RowProjectID(row, "案件管理ID", "工事番号"), headerID)
		if projectID == "" {
			projectID = fmt.Sprintf("CUST%s_PLACE%s", customer, place)
			x.env.logger().Warn("extract.project_id.missing", "vendor", x.vendor, "row", i, "sentinel", projectID)
		}

		item := x.vendor + " 請求分"
		if y, m, ok := fields.YearMonth(date); ok {
			item = fmt.Sprintf("%s %s年%s月 請求分", x.vendor, y, m)
		}

		items = append(items, types.ItemDescriptor{
			Vendor:    x.vendor,
			Site:      fmt.Sprintf("得意先%s_配置先%s", customer, place),
			Date:      date,
			Item:      item,
			Qty:       "1",
			Unit:      types.WholeInvoiceUnit,
			Price:     amount,
			Amount:    amount,
			WorkNo:    customer,
			Remarks:   "配置先:" + place,
			ProjectID: projectID,
		})
	}
	return t.finish(items)
}

func isTakabishiInvoiceRow(row types.RawRow) bool {
	if row.Has("") && strings.TrimSpace(row.Get("")) == "INV" {
		return true
	}
	return row.At(tkTypeColumn) == "H"
}

// takabishiAmount is 請求金額, or 請求合計 less its tax.
func takabishiAmount(row types.RawRow) string {
	if a := CleanNumber(row.Get("請求金額")); a != "" {
		return a
	}
	total, ok := fields.Decimal(row.Get("請求合計"))
	if !ok {
		return ""
	}
	if tax, ok := fields.Decimal(firstNonEmpty(row.Get("消費税"), row.Get("外税"))); ok {
		total = total.Sub(tax)
	}
	return total.String()
}
