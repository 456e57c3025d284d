// =============================================================================
// ANDPAD Invoice Converter - Validation Engine
// =============================================================================
//
// This module checks finished import rows before they are rendered.
//
// CHECKS:
//   - Required fields: 請求管理ID, 取引先, 請求名, 案件管理ID
//   - 請求名 and 請求納品明細名 are identical
//   - Tax-inclusive values equal round(tax-exclusive x 1.1)
//   - The invoice total agrees with the line amount within 1%
//   - Dates have the YYYY/M/D shape
//   - Project ids that are placeholders for a missing id
//
// ERROR HANDLING:
//   - Problems are collected, not returned one at a time
//   - Each problem names the row, field and value
//   - Broken invariants are errors; data-quality defects are warnings
//   - TreatWarningsAsErrors promotes total mismatches to failures
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/andpad-invoice-converter/internal/common"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/fields"
	"github.com/ginjaninja78/andpad-invoice-converter/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rule names.
const (
	RuleRequired       = "required"
	RuleLabelIdentity  = "label_identity"
	RuleTaxInvariant   = "tax_invariant"
	RuleTotalsMismatch = "totals_mismatch"
	RuleDateFormat     = "date_format"
	RuleSentinelID     = "project_id_placeholder"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation problem.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Field is the import column that failed validation.
	Field string

	// Value is the offending value.
	Value string

	// Rule is the check that was violated.
	Rule string

	// Message is a human-readable description.
	Message string

	// Row is the 1-based output row number.
	Row int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] Row %d, Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.Row,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no errors.
	IsValid bool

	// Errors contains all problems, warnings included.
	Errors []*ValidationError

	ErrorCount    int
	WarningCount  int
	RowsValidated int
}

// Warnings returns the warning messages.
func (r *ValidationResult) Warnings() []string {
	var out []string
	for _, e := range r.Errors {
		if e.Severity == SeverityWarning {
			out = append(out, e.Error())
		}
	}
	return out
}

// Err returns nil for a valid result. A result whose only errors are total
// mismatches wraps common.ErrTotalsMismatch.
func (r *ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	var fatal []*ValidationError
	onlyTotals := true
	for _, e := range r.Errors {
		if e.Severity != SeverityError {
			continue
		}
		fatal = append(fatal, e)
		if e.Rule != RuleTotalsMismatch {
			onlyTotals = false
		}
	}
	err := errors.New(FormatErrors(fatal))
	if onlyTotals {
		return fmt.Errorf("%w: %v", common.ErrTotalsMismatch, err)
	}
	return err
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// TreatWarningsAsErrors turns total mismatches into errors.
	// Default: false
	TreatWarningsAsErrors bool

	// Tolerance is the allowed relative gap between invoice total and line
	// amount.
	// Default: 0.01
	Tolerance decimal.Decimal
}

// DefaultValidationOptions returns the default options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{Tolerance: decimal.RequireFromString("0.01")}
}

// Validator checks import rows.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a validator with default options.
func NewValidator() *Validator {
	return NewValidatorWithOptions(DefaultValidationOptions())
}

// NewValidatorWithOptions creates a validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	if options.Tolerance.IsZero() {
		options.Tolerance = DefaultValidationOptions().Tolerance
	}
	return &Validator{options: options}
}

// ValidateAll checks every row.
func (v *Validator) ValidateAll(items []types.LineItem) *ValidationResult {
	result := &ValidationResult{IsValid: true}
	for i := range items {
		for _, e := range v.ValidateLineItem(i+1, items[i]) {
			result.Errors = append(result.Errors, e)
			if e.Severity == SeverityError {
				result.ErrorCount++
				result.IsValid = false
			} else {
				result.WarningCount++
			}
		}
		result.RowsValidated++
	}
	return result
}

// ValidateLineItem checks one row.
func (v *Validator) ValidateLineItem(row int, li types.LineItem) []*ValidationError {
	var errs []*ValidationError
	add := func(severity, field, value, rule, msg string) {
		errs = append(errs, &ValidationError{
			Severity: severity, Field: field, Value: value, Rule: rule, Message: msg, Row: row,
		})
	}

	required := []struct{ field, value string }{
		{types.ColManagementID, li.ManagementID},
		{types.ColCounterparty, li.CounterpartyID},
		{types.ColInvoiceLabel, li.InvoiceLabel()},
		{types.ColProjectID, li.ProjectID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			add(SeverityError, r.field, r.value, RuleRequired, "value is required")
		}
	}

	if li.InvoiceLabel() != li.Description() {
		add(SeverityError, types.ColDescription, li.Description(), RuleLabelIdentity,
			fmt.Sprintf("must equal %s %q", types.ColInvoiceLabel, li.InvoiceLabel()))
	}

	pairs := []struct {
		field  string
		ex, in decimal.NullDecimal
	}{
		{types.ColAmountInTax, li.AmountExTax, li.AmountInTax},
		{types.ColUnitPriceInTax, li.UnitPriceExTax, li.UnitPriceInTax},
		{types.ColInvoiceTotalInTax, li.InvoiceTotalExTax, li.InvoiceTotalInTax},
	}
	for _, p := range pairs {
		if !p.ex.Valid {
			continue
		}
		want := fields.WithTax(p.ex.Decimal)
		if !p.in.Valid || !p.in.Decimal.Equal(want) {
			add(SeverityError, p.field, types.FormatMoney(p.in), RuleTaxInvariant,
				fmt.Sprintf("expected %s", want))
		}
	}

	if e := v.checkTotals(li); e != "" {
		severity := SeverityWarning
		if v.options.TreatWarningsAsErrors {
			severity = SeverityError
		}
		add(severity, types.ColInvoiceTotalExTax, types.FormatMoney(li.InvoiceTotalExTax), RuleTotalsMismatch, e)
	}

	for _, d := range []struct{ field, value string }{
		{types.ColDeliveryDate, li.DeliveryDate},
		{types.ColDueDate, li.DueDate},
	} {
		if d.value != "" && !fields.IsSlashDate(d.value) {
			add(SeverityWarning, d.field, d.value, RuleDateFormat, "not a YYYY/M/D date")
		}
	}

	if IsPlaceholderID(li.ProjectID) {
		add(SeverityWarning, types.ColProjectID, li.ProjectID, RuleSentinelID, "project id was not found in the source")
	}

	return errs
}

// checkTotals describes a gap above tolerance between the invoice total
// and the line amount, or returns "".
func (v *Validator) checkTotals(li types.LineItem) string {
	if !li.InvoiceTotalExTax.Valid || !li.AmountExTax.Valid {
		return ""
	}
	total, line := li.InvoiceTotalExTax.Decimal, li.AmountExTax.Decimal
	if total.IsZero() {
		if line.IsZero() {
			return ""
		}
		return fmt.Sprintf("invoice total 0 but lines sum to %s", line)
	}
	gap := total.Sub(line).Abs().Div(total.Abs())
	if gap.GreaterThan(v.options.Tolerance) {
		return fmt.Sprintf("invoice total %s differs from line total %s by %s%%",
			total, line, gap.Mul(decimal.NewFromInt(100)).StringFixed(1))
	}
	return ""
}

// IsPlaceholderID reports whether id was synthesized for a row whose
// project id could not be read.
func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, "MISSING_ID_") || strings.HasPrefix(id, "SITE_") || customerPlaceID.MatchString(id)
}

// customerPlaceID matches the CUST<customer>_PLACE<place> ids of management
// fee invoices that carry no project id.
var customerPlaceID = regexp.MustCompile(`^CUST[^_]*_PLACE`)

// =============================================================================
// REPORTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errs []*ValidationError) string {
	if len(errs) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Validation completed with %d problem(s):\n\n", len(errs))
	for i, err := range errs {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, err.Error())
	}
	return builder.String()
}

// WriteErrorLog writes validation errors to filePath.
func WriteErrorLog(errs []*ValidationError, filePath string) error {
	return os.WriteFile(filePath, []byte(FormatErrors(errs)), 0o644)
}
