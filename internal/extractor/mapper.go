package extractor

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/fields"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

// MissingColumnsError reports required source columns absent from a file.
type MissingColumnsError struct {
	Vendor  string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "Missing columns: " + strings.Join(e.Columns, ", ")
}

// target is a descriptor field a column can be mapped onto.
type target int

const (
	targetUnknown target = iota
	targetItem
	targetAmount
	targetAmountInTax
	targetPrice
	targetQty
	targetUnit
	targetDate
	targetProjectID
	targetSite
	targetRemarks
	targetWorkNo
	targetVendor
)

var targetNames = map[string]target{
	"description":   targetItem,
	"item":          targetItem,
	"請求納品明細名":       targetItem,
	"amount":        targetAmount,
	"金額(税抜)":        targetAmount,
	"amount_in_tax": targetAmountInTax,
	"金額(税込)":        targetAmountInTax,
	"unit_price":    targetPrice,
	"単価(税抜)":        targetPrice,
	"quantity":      targetQty,
	"数量":            targetQty,
	"unit":          targetUnit,
	"単位":            targetUnit,
	"delivery_date": targetDate,
	"date":          targetDate,
	"納品実績日":         targetDate,
	"project_id":    targetProjectID,
	"案件管理ID":        targetProjectID,
	"site":          targetSite,
	"現場名":           targetSite,
	"remarks":       targetRemarks,
	"請求納品明細備考":      targetRemarks,
	"work_no":       targetWorkNo,
	"vendor":        targetVendor,
	"取引先":           targetVendor,
}

// ValidTarget reports whether name is a known mapping target.
func ValidTarget(name string) bool {
	_, ok := targetNames[name]
	return ok
}

// ValidateMapping checks the column map targets and transforms of m.
func ValidateMapping(m *config.VendorMapping) error {
	for _, c := range m.ColumnMap {
		if !ValidTarget(c.Target) {
			return fmt.Errorf("vendor %s: unknown target %q for column %q", m.Vendor, c.Target, c.Source)
		}
		if err := ValidateTransforms(c.Transforms); err != nil {
			return fmt.Errorf("vendor %s: column %q: %w", m.Vendor, c.Source, err)
		}
	}
	return nil
}

// Mapper is the declarative extractor. Every column_map source column is
// required; each row's values are copied onto their targets, money targets
// through CleanNumber and date targets through FormatDate.
type Mapper struct {
	env     Env
	mapping *config.VendorMapping
}

// NewMapper returns the declarative extractor for mapping.
func NewMapper(env Env, mapping *config.VendorMapping) *Mapper {
	return &Mapper{env: env, mapping: mapping}
}

// Extract implements Extractor.
func (m *Mapper) Extract(sheet types.Sheet) ([]types.ItemDescriptor, error) {
	if err := ValidateMapping(m.mapping); err != nil {
		return nil, err
	}
	if missing := m.missingColumns(sheet.Headers); len(missing) > 0 {
		return nil, &MissingColumnsError{Vendor: m.mapping.Vendor, Columns: missing}
	}

	t := newTally(m.env, m.mapping.Vendor, len(sheet.Rows))
	var items []types.ItemDescriptor
	for i, row := range sheet.Rows {
		if m.skipRow(row) {
			t.skip(i, "skip_rows")
			continue
		}
		item, err := m.mapRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if item.Item == "" && item.Amount == "" {
			t.skip(i, "no item or amount")
			continue
		}
		items = append(items, item)
	}
	return t.finish(items)
}

func (m *Mapper) missingColumns(headers []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, c := range m.mapping.SourceColumns() {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// skipRow drops rows whose first cell is blank or matches skip_rows.
func (m *Mapper) skipRow(row types.RawRow) bool {
	first := row.At(0)
	if first == "" {
		return true
	}
	return containsAny(first, m.mapping.SkipRows...)
}

func (m *Mapper) mapRow(row types.RawRow) (types.ItemDescriptor, error) {
	d := types.ItemDescriptor{Vendor: m.mapping.Vendor}

	var source map[string]string
	for _, c := range m.mapping.ColumnMap {
		value := strings.TrimSpace(row.Get(c.Source))
		if len(c.Transforms) > 0 {
			if source == nil {
				source = make(map[string]string, len(row.Headers))
				for i, h := range row.Headers {
					source[h] = row.At(i)
				}
			}
			var err error
			value, err = Transform(value, c.Transforms, source)
			if err != nil {
				return d, fmt.Errorf("column %s: %w", c.Source, err)
			}
		}

		switch targetNames[c.Target] {
		case targetItem:
			d.Item = value
		case targetAmount:
			d.Amount = fields.CleanNumber(value)
		case targetAmountInTax:
			d.AmountInTax = fields.CleanNumber(value)
		case targetPrice:
			d.Price = fields.CleanNumber(value)
		case targetQty:
			d.Qty = orDefault(fields.CleanNumber(value), value)
		case targetUnit:
			d.Unit = value
		case targetDate:
			d.Date = fields.FormatDate(value, m.env.now())
		case targetProjectID:
			d.ProjectID = value
		case targetSite:
			d.Site = value
		case targetRemarks:
			d.Remarks = joinNonEmpty(" ", d.Remarks, value)
		case targetWorkNo:
			d.WorkNo = value
		case targetVendor:
			if value != "" {
				d.Vendor = value
			}
		}
	}
	return d, nil
}

// joinNonEmpty joins the non-blank parts with sep.
func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
