// =============================================================================
// Revenue XML - Validation Engine
// =============================================================================
//
// This module checks synthesized documents before they are written. It
// validates:
//   - Item structure (exactly three items in tier order high, low, none)
//   - Totals (summary totals equal the item amounts)
//   - Required header references (number, accounting, centre)
//   - Gross consistency (|base + VAT - gross| within the configured tolerance)
//
// ERROR HANDLING:
//   - Errors are collected, not returned one at a time
//   - Each error names the document, tier and field involved
//   - Structural problems are always fatal
//   - Gross mismatches follow the configured policy:
//       trust  - not reported
//       warn   - reported as warnings, the document is still written
//       reject - reported as errors, the day fails
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/revenue-xml/internal/config"
	"github.com/ginjaninja78/revenue-xml/internal/document"
	"github.com/ginjaninja78/revenue-xml/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Gross mismatch policies.
const (
	PolicyTrust  = "trust"
	PolicyWarn   = "warn"
	PolicyReject = "reject"
)

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is SeverityError (the document must not be written) or
	// SeverityWarning.
	Severity string

	// Method is the payment method of the checked document.
	Method types.Method

	// Tier is the VAT tier involved, when the finding concerns one item.
	Tier *types.Tier

	// Field names the checked element, e.g. "items" or "priceSum".
	Field string

	// Value is the offending value as text.
	Value string

	// Rule is the short rule identifier, e.g. "tier_order".
	Rule string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	where := string(e.Method)
	if e.Tier != nil {
		where += "/" + e.Tier.String()
	}
	msg := fmt.Sprintf("[%s] %s, field '%s': %s", strings.ToUpper(e.Severity), where, e.Field, e.Message)
	if e.Value != "" {
		msg += fmt.Sprintf(" (value: '%s')", e.Value)
	}
	return msg
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the findings for one document.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all findings, including warnings.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int
}

// Err returns nil for a valid result, or the first fatal finding.
func (r *ValidationResult) Err() error {
	for _, e := range r.Errors {
		if e.Severity == SeverityError {
			return e
		}
	}
	return nil
}

// Warnings returns only the non-fatal findings.
func (r *ValidationResult) Warnings() []*ValidationError {
	var out []*ValidationError
	for _, e := range r.Errors {
		if e.Severity == SeverityWarning {
			out = append(out, e)
		}
	}
	return out
}

func (r *ValidationResult) add(e *ValidationError) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
	} else {
		r.WarningCount++
	}
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks documents against one extraction configuration.
type Validator struct {
	policy    string
	tolerance decimal.Decimal
}

// NewValidator creates a Validator from the extraction settings.
func NewValidator(settings config.ExtractionConfig) *Validator {
	policy := settings.GrossMismatch
	if policy == "" {
		policy = PolicyTrust
	}
	return &Validator{
		policy:    policy,
		tolerance: decimal.NewFromFloat(settings.RoundingTolerance),
	}
}

// Validate runs the structural checks and the gross mismatch policy.
//
// PARAMETERS:
//   - doc: The synthesized document.
//
// RETURNS:
//   - The collected findings. IsValid is false when the document must not be
//     written.
func (v *Validator) Validate(doc *document.Document) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	for _, e := range CheckDocument(doc) {
		result.add(e)
	}

	if v.policy == PolicyTrust {
		return result
	}

	severity := SeverityWarning
	if v.policy == PolicyReject {
		severity = SeverityError
	}
	for _, e := range CheckGross(doc, v.tolerance) {
		e.Severity = severity
		result.add(e)
	}

	return result
}

// =============================================================================
// DOCUMENT CHECKS
// =============================================================================

// CheckDocument verifies the structural rules every document must satisfy.
// All findings are fatal.
func CheckDocument(doc *document.Document) []*ValidationError {
	var errs []*ValidationError
	fail := func(tier *types.Tier, field, value, rule, msg string) {
		errs = append(errs, &ValidationError{
			Severity: SeverityError,
			Method:   doc.Method,
			Tier:     tier,
			Field:    field,
			Value:    value,
			Rule:     rule,
			Message:  msg,
		})
	}

	if len(doc.Items) != len(types.Tiers) {
		fail(nil, "items", fmt.Sprint(len(doc.Items)), "item_count",
			fmt.Sprintf("document must have exactly %d items", len(types.Tiers)))
		return errs
	}

	for i, tier := range types.Tiers {
		item := doc.Items[i]
		if item.Tier != tier {
			fail(&tier, "rateVAT", item.Tier.String(), "tier_order",
				fmt.Sprintf("item %d must be the %s tier", i+1, tier))
			continue
		}
		if item.Account == "" {
			fail(&tier, "accounting", "", "required", "item account is empty")
		}

		total := doc.Summary.Totals[tier]
		if !total.Base.Equal(item.Amounts.Base) || !total.VAT.Equal(item.Amounts.VAT) {
			fail(&tier, "homeCurrency", total.Sum().String(), "totals",
				fmt.Sprintf("summary total does not match item amount %s", item.Amounts.Sum()))
		}
	}

	if doc.Header.Number == "" {
		fail(nil, "number", "", "required", "document number is empty")
	}
	if doc.Header.Accounting == "" {
		fail(nil, "accounting", "", "required", "header account is empty")
	}
	if doc.Header.Centre == "" {
		fail(nil, "centre", "", "required", "centre is empty")
	}
	if doc.Kind == document.Invoice && doc.Header.Payment.IDs == "" {
		fail(nil, "paymentType", "", "required", "payment type is empty")
	}

	return errs
}

// CheckGross reports tiers whose supplied gross value differs from base+VAT
// by more than tolerance. Tiers with a derived gross value are skipped.
// Findings are returned with warning severity.
func CheckGross(doc *document.Document, tolerance decimal.Decimal) []*ValidationError {
	var errs []*ValidationError
	for _, item := range doc.Items {
		a := item.Amounts
		if !a.GrossPresent {
			continue
		}
		diff := a.Sum().Sub(a.Gross).Abs()
		if diff.GreaterThan(tolerance) {
			tier := item.Tier
			errs = append(errs, &ValidationError{
				Severity: SeverityWarning,
				Method:   doc.Method,
				Tier:     &tier,
				Field:    "gross",
				Value:    a.Gross.String(),
				Rule:     "gross_mismatch",
				Message:  fmt.Sprintf("base %s + VAT %s differs from gross by %s", a.Base, a.VAT, diff),
			})
		}
	}
	return errs
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d finding(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
