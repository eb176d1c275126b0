// =============================================================================
// Suenlace Generator - Validation Engine
// =============================================================================
//
// Validation of user input before it reaches the store or a generator:
//   - Invoice documents (number, fiscal year, client subaccount width)
//   - Templates (required accounts per kind)
//   - Spreadsheet mappings (required semantic columns)
//   - Tax ids (DNI / NIE / CIF checksums, see taxid.go)
//
// Errors are collected, not thrown one at a time, so a form or a batch can
// report every problem at once. Fatal findings are turned into taxonomy
// errors by ValidationResult.Err.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/suenlace/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is "error" (fatal) or "warning".
	Severity string

	// Field is the name of the field that failed validation.
	Field string

	// Value is the actual value that failed validation.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable error message.
	Message string

	// Kind is the taxonomy error this finding maps to.
	Kind error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(e.Severity), e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s (value: '%s')", strings.ToUpper(e.Severity), e.Field, e.Message, e.Value)
}

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all findings, warnings included.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int
}

func newResult() *ValidationResult {
	return &ValidationResult{IsValid: true}
}

func (r *ValidationResult) add(e *ValidationError) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityWarning {
		r.WarningCount++
		return
	}
	r.ErrorCount++
	r.IsValid = false
}

func (r *ValidationResult) fail(kind error, field, value, rule, format string, args ...any) {
	r.add(&ValidationError{Severity: SeverityError, Field: field, Value: value, Rule: rule, Message: fmt.Sprintf(format, args...), Kind: kind})
}

func (r *ValidationResult) warn(field, value, rule, format string, args ...any) {
	r.add(&ValidationError{Severity: SeverityWarning, Field: field, Value: value, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

// Err returns nil when the result is valid. Otherwise it wraps the taxonomy
// kind of the first fatal finding and lists every fatal message.
func (r *ValidationResult) Err(op string) error {
	if r.IsValid {
		return nil
	}
	var kind error
	var msgs []string
	for _, e := range r.Errors {
		if e.Severity != SeverityError {
			continue
		}
		if kind == nil {
			kind = e.Kind
		}
		msgs = append(msgs, e.Field+": "+e.Message)
	}
	if kind == nil {
		kind = types.ErrInvalidDocument
	}
	return types.NewError(op, kind, strings.Join(msgs, "; "))
}

// FormatErrors formats findings for display.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Validation found %d issue(s):\n", len(errors))
	for i, e := range errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, e.Error())
	}
	return sb.String()
}
