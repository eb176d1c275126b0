package types

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the generators, the store and the CLI.
var (
	// ErrTemplateIncomplete is returned when required accounts are missing on a template.
	ErrTemplateIncomplete = errors.New("template incomplete")

	// ErrMappingMissing is returned when required semantic columns are not mapped.
	ErrMappingMissing = errors.New("mapping missing required columns")

	// ErrInvalidDate marks a date that no accepted layout could parse.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidAmount marks an amount cell that could not be parsed.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrSubaccountTooLong is returned when a subaccount has more digits than the chart allows.
	ErrSubaccountTooLong = errors.New("subaccount does not fit the chart of accounts")

	// ErrTotalMismatch marks a provided invoice total that differs from the computed one.
	ErrTotalMismatch = errors.New("invoice total mismatch")

	// ErrNoRows is returned when a batch produced no records.
	ErrNoRows = errors.New("no rows produced")

	// ErrIO is returned when the posting file could not be written.
	ErrIO = errors.New("i/o error")

	// ErrAdminDenied is returned when a destructive action lacks the admin passphrase.
	ErrAdminDenied = errors.New("admin passphrase rejected")

	// ErrNotFound is returned by the store when a lookup has no result.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTaxID is returned when a tax id fails normalization or checksum.
	ErrInvalidTaxID = errors.New("invalid tax id")

	// ErrDuplicateTaxID is returned when two third parties share a normalized tax id.
	ErrDuplicateTaxID = errors.New("duplicate tax id")

	// ErrDuplicateSubaccount is returned when a link reuses a subaccount for the same role.
	ErrDuplicateSubaccount = errors.New("subaccount already linked")

	// ErrInvalidDocument is returned when an invoice document fails validation.
	ErrInvalidDocument = errors.New("invalid invoice document")
)

// GenerationError wraps a taxonomy error with the failing operation and details.
type GenerationError struct {
	// Op is the operation that failed (e.g., "bank.Generate", "store.DeleteCompany").
	Op string

	// Err is the underlying taxonomy error.
	Err error

	// Details provides additional context, such as the missing keys.
	Details string
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on the wrapped taxonomy error.
func (e *GenerationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError builds a GenerationError.
func NewError(op string, err error, details string) error {
	return &GenerationError{Op: op, Err: err, Details: details}
}
