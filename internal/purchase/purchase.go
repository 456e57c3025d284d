// =============================================================================
// ANDPAD Invoice Converter - Purchase Project Module
// =============================================================================
//
// This module converts land purchase lists into the 仕入案件 (purchase
// project) import sheet. It shares the output renderer with the invoice
// pipeline through output.Table.
//
// INPUT COLUMNS (first match wins):
//   - 顧客名 / お客様名          customer name (required)
//   - 物件名 / 現場名            property name (required)
//   - 案件名                     project name, defaults to the property name
//   - 種別 / 個人/法人           個人 or 法人, defaults to 個人
//   - 案件種別                   defaults to 土地仕入
//   - 案件管理ID / 工事番号
//   - 物件管理ID / 工事番号
//   - 顧客管理ID
//   - 案件管理者 / 担当者
//
// =============================================================================

package purchase

import (
	"log/slog"
	"strings"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/common"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/logging"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/output"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

// SheetName is the sheet name of the purchase project workbook.
const SheetName = "仕入案件作成"

// Columns of the purchase project sheet, in order.
var Columns = []string{
	"種別",
	"顧客名",
	"顧客名 敬称",
	"物件名",
	"案件名",
	"案件種別",
	"案件管理ID",
	"物件管理ID",
	"顧客管理ID",
	"案件フロー",
	"案件管理者",
}

// Defaults.
const (
	TypeIndividual  = "個人"
	TypeCorporate   = "法人"
	HonorificPerson = "様"
	HonorificCorp   = "御中"
	DefaultKind     = "土地仕入"
	DefaultFlow     = "契約前"

	maxIDLength = 50
)

// Project is one row of the purchase project sheet.
type Project struct {
	Type                 string
	CustomerName         string
	PropertyName         string
	ProjectName          string
	ProjectKind          string
	ProjectManagementID  string
	PropertyManagementID string
	CustomerManagementID string
	ProjectManager       string
}

// Honorific is 御中 for corporations and 様 otherwise.
func (p Project) Honorific() string {
	if p.Type == TypeCorporate {
		return HonorificCorp
	}
	return HonorificPerson
}

// Record returns the row in Columns order.
func (p Project) Record() []string {
	return []string{
		p.Type,
		p.CustomerName,
		p.Honorific(),
		p.PropertyName,
		p.ProjectName,
		p.ProjectKind,
		p.ProjectManagementID,
		p.PropertyManagementID,
		p.CustomerManagementID,
		DefaultFlow,
		p.ProjectManager,
	}
}

// Result is the outcome of a purchase conversion.
type Result struct {
	Projects []Project
	Skipped  []string
}

// Converter reads purchase lists.
type Converter struct {
	logger *slog.Logger
}

// New returns a Converter. A nil logger means slog.Default().
func New(logger *slog.Logger) *Converter {
	return &Converter{logger: logging.OrDefault(logger)}
}

// Parse reads every project row of sheet.
//
// Rows missing a customer or property name, rows with an unknown 種別, and
// rows with an over-long 案件管理ID are skipped with a reason. A sheet with
// no usable rows returns ErrNoExtractableRows.
func (c *Converter) Parse(sheet types.Sheet) (Result, error) {
	var res Result

	for i, row := range sheet.Rows {
		line := i + 2
		if row.IsEmpty() || isHeaderRow(row) {
			continue
		}

		p := Project{
			Type:                 first(row, "種別", "個人/法人"),
			CustomerName:         first(row, "顧客名", "お客様名"),
			PropertyName:         first(row, "物件名", "現場名"),
			ProjectKind:          first(row, "案件種別"),
			ProjectManagementID:  first(row, "案件管理ID", "工事番号"),
			PropertyManagementID: first(row, "物件管理ID", "工事番号"),
			CustomerManagementID: first(row, "顧客管理ID"),
			ProjectManager:       first(row, "案件管理者", "担当者"),
		}
		p.ProjectName = first(row, "案件名")
		if p.ProjectName == "" {
			p.ProjectName = p.PropertyName
		}
		if p.Type == "" {
			p.Type = TypeIndividual
		}
		if p.ProjectKind == "" {
			p.ProjectKind = DefaultKind
		}

		if reason := invalid(p); reason != "" {
			c.logger.Warn("purchase.row.skipped", "file", sheet.Filename, "row", line, "reason", reason)
			res.Skipped = append(res.Skipped, reason)
			continue
		}
		res.Projects = append(res.Projects, p)
	}

	if len(res.Projects) == 0 {
		return res, common.NoExtractableRows("仕入案件")
	}
	c.logger.Info("purchase.parsed", "file", sheet.Filename, "projects", len(res.Projects), "skipped", len(res.Skipped))
	return res, nil
}

// Table lays projects out for the renderer.
func Table(projects []Project) output.Table {
	t := output.Table{SheetName: SheetName, Columns: Columns, Width: ColumnWidth}
	for _, p := range projects {
		t.Rows = append(t.Rows, p.Record())
	}
	return t
}

// ColumnWidth returns the display width of a purchase sheet column.
func ColumnWidth(col string) float64 {
	switch {
	case strings.Contains(col, "管理ID"):
		return 20
	case strings.Contains(col, "敬称"):
		return 8
	case strings.Contains(col, "名"):
		return 30
	case strings.Contains(col, "種別"):
		return 10
	case strings.Contains(col, "フロー"):
		return 12
	default:
		return 15
	}
}

func invalid(p Project) string {
	switch {
	case p.CustomerName == "":
		return "顧客名 is required"
	case p.PropertyName == "":
		return "物件名 is required"
	case p.Type != TypeIndividual && p.Type != TypeCorporate:
		return "種別 must be 個人 or 法人: " + p.Type
	case len([]rune(p.ProjectManagementID)) > maxIDLength:
		return "案件管理ID too long"
	}
	return ""
}

var headerKeywords = []string{"顧客名", "お客様名", "物件名", "案件管理ID", "種別", "個人/法人"}

// isHeaderRow catches header lines repeated inside the data.
func isHeaderRow(row types.RawRow) bool {
	v := row.At(0)
	for _, kw := range headerKeywords {
		if v == kw {
			return true
		}
	}
	return false
}

func first(row types.RawRow, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(row.Get(n)); v != "" {
			return v
		}
	}
	return ""
}
