package extractor

import (
	"strings"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/fields"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

// オメガジャパン sends two layouts:
//
//   - an estimate style CSV with named columns, construction sections
//     (工事部, オプション, 内訳) and positional item rows;
//   - a monthly invoice listing one tax-inclusive amount per site and
//     delivery date.
//
// The CSV layout is recognized by its item columns in the header.

const (
	omItemAlt = iota
	omItem
	omSpec1
	omSpec2
	omSpec3
	omUnit
	omQty
	omPrice
	omAmount
)

var (
	omCSVHeaders   = []string{"品名", "金額", "単価", "数量"}
	omUnits        = []string{"箱", "本", "缶", "個", "枚", "式", "セット", "ボトル", "㎥"}
	omWorkMarkers  = []string{"外断熱", "塗装工事"}
	omSections     = []string{"工事部", "オプション", "内訳"}
	omSkipPatterns = []string{"ALLAGI", "御中", "請求書", "合計"}
)

type omega struct {
	env    Env
	vendor string
}

func newOmega(env Env, m *config.VendorMapping) Extractor {
	return &omega{env: env, vendor: m.Vendor}
}

func (x *omega) Extract(sheet types.Sheet) ([]types.ItemDescriptor, error) {
	if isOmegaCSV(sheet.Headers) {
		return x.extractCSV(sheet)
	}
	return x.extractInvoice(sheet)
}

func isOmegaCSV(headers []string) bool {
	for _, h := range headers {
		if containsAny(strings.TrimSpace(h), omCSVHeaders...) {
			return true
		}
	}
	return false
}

// =============================================================================
// CSV LAYOUT
// =============================================================================

func (x *omega) extractCSV(sheet types.Sheet) ([]types.ItemDescriptor, error) {
	t := newTally(x.env, x.vendor, len(sheet.Rows))
	md := ExtractMetadata(sheet.Rows, 15, x.env.now())
	headerID := NewProjectIDScanner().Scan(sheet.Rows)
	start := omegaDataStart(sheet.Rows)
	section := ""

	var items []types.ItemDescriptor
	for i := start; i < len(sheet.Rows); i++ {
		v := sheet.Rows[i].Values()
		text := strings.Join(v, "|")
		if s := omegaSection(v); s != "" {
			section = s
			t.skip(i, "section")
			continue
		}
		if skipOmegaRow(v, text) {
			t.skip(i, "boilerplate")
			continue
		}
		item := firstNonEmpty(at(v, omItem), at(v, omItemAlt))
		amount := CleanNumber(at(v, omAmount))
		if item == "" || amount == "" {
			t.skip(i, "incomplete")
			continue
		}
		if std := joinNonEmpty(" ", at(v, omSpec1), at(v, omSpec2), at(v, omSpec3)); std != "" {
			item += " " + std
		}

		var remarks []string
		if section != "" {
			remarks = append(remarks, "工事区分:"+section)
		}
		if strings.Contains(item, "値引") {
			remarks = append(remarks, "値引")
		}
		if strings.Contains(item, "配送料") || strings.Contains(item, "送料") {
			remarks = append(remarks, "配送料")
		}

		projectID := x.env.projectID(x.vendor, firstNonEmpty(RowProjectID(sheet.Rows[i]), headerID), md.Site, i)
		items = append(items, types.ItemDescriptor{
			Vendor:    x.vendor,
			Site:      md.Site,
			Date:      md.InvoiceDate,
			Item:      item,
			Qty:       orDefault(CleanNumber(at(v, omQty)), "1"),
			Unit:      at(v, omUnit),
			Price:     CleanNumber(at(v, omPrice)),
			Amount:    amount,
			Remarks:   strings.Join(remarks, " "),
			ProjectID: projectID,
		})
	}
	return t.finish(items)
}

// omegaDataStart is the first row with a known unit or a work marker.
func omegaDataStart(rows []types.RawRow) int {
	for i, row := range rows {
		v := row.Values()
		for _, u := range omUnits {
			if at(v, omUnit) == u {
				return i
			}
		}
		if containsAny(row.Text(), omWorkMarkers...) {
			return i
		}
	}
	return min(15, len(rows))
}

// omegaSection returns the section a heading row opens, or "".
func omegaSection(v []string) string {
	if nonEmptyCount(v) > 2 || CleanNumber(at(v, omAmount)) != "" {
		return ""
	}
	for _, cell := range v {
		for _, s := range omSections {
			if strings.Contains(cell, s) {
				return cell
			}
		}
	}
	return ""
}

func skipOmegaRow(v []string, text string) bool {
	if containsAny(text, omSkipPatterns...) {
		return true
	}
	return strings.Contains(at(v, omItem), "オメガジャパン")
}

// =============================================================================
// INVOICE LAYOUT
// =============================================================================

func (x *omega) extractInvoice(sheet types.Sheet) ([]types.ItemDescriptor, error) {
	t := newTally(x.env, x.vendor, len(sheet.Rows))

	year, month := 0, 0
	for _, row := range sheet.Rows {
		if y, m, ok := fields.Period(row.Text()); ok {
			year, month = y, m
			break
		}
	}
	if year == 0 {
		if y, m, ok := fields.Period(strings.Join(sheet.Headers, "|")); ok {
			year, month = y, m
		}
	}

	headerID := NewProjectIDScanner().Scan(sheet.Rows)
	start := FindDataStart(sheet, []string{"納品日", "現場名"}, len(sheet.Rows), 2)
	if start < 0 {
		start = min(10, len(sheet.Rows))
	}

	var items []types.ItemDescriptor
	for i := start; i < len(sheet.Rows); i++ {
		v := sheet.Rows[i].Values()
		if containsAny(strings.Join(v, "|"), "合計", "小計", "消費税") {
			t.skip(i, "summary")
			continue
		}
		var texts []string
		for _, cell := range v {
			if cell != "" {
				texts = append(texts, cell)
			}
		}
		_, _, incl := TrailingNumbers(v)
		if len(texts) < 2 || incl == "" {
			t.skip(i, "incomplete")
			continue
		}
		delivered, site := texts[0], texts[1]
		if CleanNumber(site) != "" {
			t.skip(i, "site")
			continue
		}
		gross, _ := fields.Decimal(incl)

		remarks := ""
		if strings.Contains(delivered, "追加") {
			remarks = "追加工事"
		}
		projectID := x.env.projectID(x.vendor, firstNonEmpty(RowProjectID(sheet.Rows[i]), headerID), site, i)
		items = append(items, types.ItemDescriptor{
			Vendor:      x.vendor,
			Site:        site,
			Date:        ParseMonthDay(delivered, year, month),
			Item:        site + " 工事",
			Qty:         "1",
			Unit:        types.WholeInvoiceUnit,
			Amount:      fields.WithoutTax(gross).String(),
			AmountInTax: gross.String(),
			Remarks:     remarks,
			ProjectID:   projectID,
		})
	}
	return t.finish(items)
}
