/*
errors.go - Centralized error types for the vacation domain

PURPOSE:
  All domain error types in one place. Every error here is a user-input
  validation failure: the API layer surfaces the message verbatim with a
  4xx status. Storage failures are not represented here; they pass
  through wrapped and are treated as internal.

ERROR CATEGORIES:
  1. Range errors    - Malformed or past date ranges
  2. Balance errors  - Requests exceeding available days
  3. Lookup errors   - Missing employees or requests

USAGE:
  Callers classify with errors.Is:

    if errors.Is(err, vacation.ErrInsufficientBalance) {
        // 400 with the message
    }

SEE ALSO:
  - service.go: Produces these errors in the validation workflow
  - api/handlers.go: Maps them to HTTP statuses
*/
package vacation

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when a start date falls after its end date.
	ErrInvalidRange = errors.New("start date must be before end date")

	// ErrPastDate is returned when an operation targets a date that has
	// already passed: scheduling a vacation in the past, or deleting a
	// request that already started.
	ErrPastDate = errors.New("date is in the past")

	// ErrNoBusinessDays is returned when a requested range contains only
	// weekends and holidays.
	ErrNoBusinessDays = errors.New("no business days in selected date range")

	// ErrInsufficientBalance is returned when a request needs more days
	// than the employee has available.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNotFound is returned when an employee or request does not exist,
	// including requests owned by a different employee.
	ErrNotFound = errors.New("not found")

	// ErrInvalidType is returned for an unknown request type.
	ErrInvalidType = errors.New("invalid request type")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports how far a request exceeds the balance.
type InsufficientBalanceError struct {
	Type      RequestType
	Available int
	Requested int
}

func (e *InsufficientBalanceError) Error() string {
	category := "vacation days"
	if e.Type == TypeOptionalHoliday {
		category = "optional holidays"
	}
	return fmt.Sprintf("insufficient %s: available %d, requested %d",
		category, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether the error is a user-input validation
// failure that should surface as a 4xx response.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrPastDate) ||
		errors.Is(err, ErrNoBusinessDays) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidType)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
