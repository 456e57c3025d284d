// =============================================================================
// ANDPAD Invoice Converter - Extractor Module
// =============================================================================
//
// Extractors turn the buffered rows of one vendor file into item
// descriptors. There are two kinds:
//
//   - Mapper: the declarative default, driven by a mapping's column_map.
//   - Procedural extractors: one per vendor whose files cannot be described
//     by a column map (positional layouts, multi-section sheets, free text
//     header regions).
//
// The Registry picks one for a detected mapping. Extractors never touch the
// filesystem and never fail on a malformed row: bad rows are skipped and
// counted. Only a file that yields no rows at all is an error.
//
// CUSTOMIZATION:
//   - Register a new procedural vendor with Registry.Register.
//   - Declarative vendors need only a YAML mapping.
//
// =============================================================================

package extractor

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/common"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/config"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/logging"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

// Extractor reads one vendor sheet.
type Extractor interface {
	Extract(sheet types.Sheet) ([]types.ItemDescriptor, error)
}

// Env carries what an extractor may need from the running job.
type Env struct {
	// Now is the job clock. Month/day-only dates take their year from it.
	Now time.Time

	Logger *slog.Logger
}

func (e Env) logger() *slog.Logger { return logging.OrDefault(e.Logger) }

func (e Env) now() time.Time {
	if e.Now.IsZero() {
		return time.Now()
	}
	return e.Now
}

// projectID returns id when it is set. Otherwise the row gets a missing-id
// sentinel built from label, and the defect is logged.
func (e Env) projectID(vendor, id, label string, row int) string {
	if id != "" {
		return id
	}
	sentinel := MissingIDSentinel(orDefault(label, vendor), row)
	e.logger().Warn("extract.project_id.missing", "vendor", vendor, "row", row, "sentinel", sentinel)
	return sentinel
}

// Factory builds an extractor for one mapping.
type Factory func(env Env, mapping *config.VendorMapping) Extractor

// =============================================================================
// REGISTRY
// =============================================================================

// Registry maps vendor names to procedural extractor factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry. Every mapping resolves to the
// declarative Mapper until factories are registered.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with every built-in vendor.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(VendorCleanIndustry, newCleanIndustry)
	r.Register(VendorSanko, newSanko)
	r.Register(VendorHokukei, newHokukei)
	r.Register(VendorNansei, newNansei)
	r.Register(VendorTaiman, newTaiman)
	r.Register(VendorTakabishi, newTakabishi)
	r.Register(VendorTakabishiAlt, newTakabishi)
	r.Register(VendorOmega, newOmega)
	r.Register(VendorNakazawa, newNakazawa)
	r.Register(VendorTokiwa, newTokiwa)
	return r
}

// Register binds vendor to f, replacing any earlier binding.
func (r *Registry) Register(vendor string, f Factory) {
	r.factories[vendor] = f
}

// Vendors returns the registered vendor names, sorted.
func (r *Registry) Vendors() []string {
	return slices.Sorted(maps.Keys(r.factories))
}

// Has reports whether vendor has a procedural extractor.
func (r *Registry) Has(vendor string) bool {
	_, ok := r.factories[vendor]
	return ok
}

// For returns the extractor for mapping.
//
// RETURNS:
//   - The vendor's procedural extractor when the mapping is procedural and
//     one is registered.
//   - The declarative Mapper otherwise.
//   - A configuration error for a procedural mapping with neither a
//     registered extractor nor a column map to fall back on.
func (r *Registry) For(mapping *config.VendorMapping, env Env) (Extractor, error) {
	if mapping.Procedural {
		if f, ok := r.factories[mapping.Vendor]; ok {
			return f(env, mapping), nil
		}
		if len(mapping.ColumnMap) == 0 {
			return nil, common.NewAppError(common.KindConfiguration, common.Message{
				EN: fmt.Sprintf("No extractor registered for vendor %s", mapping.Vendor),
				JA: fmt.Sprintf("業者 %s の抽出処理が登録されていません", mapping.Vendor),
			}, nil).WithDetail("vendor", mapping.Vendor)
		}
		env.logger().Warn("extract.procedural.fallback", "vendor", mapping.Vendor)
	}
	return NewMapper(env, mapping), nil
}

// =============================================================================
// SHARED BOOKKEEPING
// =============================================================================

// tally counts processed and skipped rows for the completion log line.
type tally struct {
	vendor    string
	logger    *slog.Logger
	processed int
	skipped   int
}

func newTally(env Env, vendor string, rows int) *tally {
	l := env.logger()
	l.Info("extract.start", "vendor", vendor, "rows", rows)
	return &tally{vendor: vendor, logger: l}
}

func (t *tally) skip(row int, reason string) {
	t.skipped++
	t.logger.Debug("extract.row.skipped", "vendor", t.vendor, "row", row, "reason", reason)
}

// finish logs the outcome and applies the zero-row check.
func (t *tally) finish(items []types.ItemDescriptor) ([]types.ItemDescriptor, error) {
	t.processed = len(items)
	t.logger.Info("extract.done", "vendor", t.vendor, "processed", t.processed, "skipped", t.skipped)
	if len(items) == 0 {
		return nil, common.NoExtractableRows(t.vendor)
	}
	return items, nil
}
