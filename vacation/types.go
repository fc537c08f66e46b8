/*
Package vacation implements the vacation tracking domain.

PURPOSE:
  This package contains the business rules for employee vacation tracking:
  corporate holiday calculation, business-day counting, monthly accrual,
  balance computation with year-over-year carryover, and the validation
  workflow for creating and deleting vacation requests.

KEY CONCEPTS IN THIS FILE (types.go):
  - Date: A calendar day (UTC, day granularity) used for all date math
  - Identity: The authenticated caller as seen by the OIDC provider
  - Employee: An employee record, created lazily on first access
  - Request: A vacation or optional-holiday request
  - Balance: The computed balance snapshot for one employee and year

DESIGN PRINCIPLES:
  1. Pure calculation: holidays, business days, and accrual are pure
     functions of their inputs; storage is consulted only for usage
  2. Whole days: every quantity in this domain is an integer day count
  3. Explicit storage handle: the Service receives its Store, there is
     no package-level connection state

SEE ALSO:
  - calendar.go: Holiday and business-day calculation
  - accrual.go: Monthly accrual rules
  - service.go: Balance engine and request workflow
  - store.go: Persistence contract
*/
package vacation

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day abstraction
// =============================================================================

// Date is a calendar day. The embedded time is always midnight UTC so
// values constructed through this package compare with ==.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar day.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// Comparison
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool  { return d.Time.Equal(other.Time) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }

func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// MarshalJSON renders the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s (use YYYY-MM-DD)", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func minDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

// =============================================================================
// IDENTITY - Authenticated caller
// =============================================================================

// Identity carries the claims this system cares about from a verified
// OIDC access token.
type Identity struct {
	Subject   string
	Email     string
	FirstName string
	LastName  string
	Username  string
}

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee is created on first authenticated access and keyed internally
// by a UUID. Subject is the OIDC subject claim and is unique.
// HireDate is nil until the employee sets it.
type Employee struct {
	ID        string
	Subject   string
	Email     string
	FirstName string
	LastName  string
	HireDate  *Date
	CreatedAt time.Time
}

// =============================================================================
// REQUEST - Vacation / optional holiday entry
// =============================================================================

type RequestType string

const (
	TypeVacation        RequestType = "vacation"
	TypeOptionalHoliday RequestType = "optional_holiday"
)

// Valid reports whether t is a known request type.
func (t RequestType) Valid() bool {
	return t == TypeVacation || t == TypeOptionalHoliday
}

type RequestStatus string

const (
	// StatusApproved is the only status in use: there is no manager
	// approval workflow, requests are approved on creation.
	StatusApproved RequestStatus = "approved"
)

// Request is a persisted vacation request. BusinessDays is computed from
// the date range and the holiday calendar at creation time and never
// recomputed afterwards (requests cannot be edited, only deleted).
type Request struct {
	ID           string
	EmployeeID   string
	Type         RequestType
	StartDate    Date
	EndDate      Date
	BusinessDays int
	Status       RequestStatus
	Notes        string
	CreatedAt    time.Time
}

// =============================================================================
// HOLIDAY
// =============================================================================

// Holiday is a corporate holiday. The calendar calculation in calendar.go
// is the source of truth; stored rows are a cache for reporting.
type Holiday struct {
	Name string `json:"name"`
	Date Date   `json:"date"`
}

// =============================================================================
// BALANCE - Computed snapshot, never stored
// =============================================================================

// Balance is the vacation balance for one employee and one year.
// Available figures can go negative when historical data violates the
// caps; only new requests are validated against them.
type Balance struct {
	Year                      int
	VacationAccrued           int
	VacationUsed              int
	VacationCarryover         int
	VacationAvailable         int
	OptionalHolidaysUsed      int
	OptionalHolidaysAvailable int
}

// UsedDays aggregates approved business-day usage by request type for
// requests starting within a single year.
type UsedDays struct {
	Vacation int
	Optional int
}
