/*
service.go - Balance engine and request workflow

PURPOSE:
  Service is the single entry point for all vacation operations. It
  combines the pure calculations (calendar.go, accrual.go) with stored
  usage to produce balances, and runs the validation workflow for
  creating and deleting requests.

BALANCE ALGORITHM (per employee and year):
  1. Accrual window: from the hire date when hired that year, otherwise
     Jan 1; until today or Dec 31, whichever is earlier.
  2. Accrued = months worked in the window, clamped to [0, 12].
  3. Used = sum of approved business days by type, start date in year.
  4. Carryover (only for years after the hire year) = previous year's
     accrued minus previous year's used vacation, clamped to [0, 5].
  5. Available = accrued + carryover - used.
     Optional holidays: flat 3 per year, no accrual, no carryover.

REQUEST VALIDATION (ordered, first failure wins):
  1. start <= end
  2. start >= today
  3. business days over the range > 0
  4. requested days <= available days for the request type
  The final check runs inside the store's creation transaction so
  concurrent requests cannot both spend the same balance.

SEE ALSO:
  - errors.go: The validation error taxonomy
  - store.go: Persistence contract
*/
package vacation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxAnnualAccrual caps accrued vacation days in any single year.
	MaxAnnualAccrual = 12

	// MaxCarryover caps vacation days carried into the next year.
	MaxCarryover = 5

	// OptionalHolidayAllowance is the flat annual optional-holiday cap.
	OptionalHolidayAllowance = 3
)

// Service implements the vacation operations exposed to the API and the
// assistant tool layers.
type Service struct {
	store Store
	log   *slog.Logger
	now   func() Date
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the "today" source. Tests use this to pin dates.
func WithClock(now func() Date) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{store: store, log: logger, now: Today}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// EMPLOYEE OPERATIONS
// =============================================================================

// Profile returns the employee record for the authenticated identity,
// creating it on first access.
func (s *Service) Profile(ctx context.Context, ident Identity) (*Employee, error) {
	return s.store.GetOrCreateEmployee(ctx, ident)
}

// UpdateHireDate sets the hire date on the caller's employee record.
func (s *Service) UpdateHireDate(ctx context.Context, ident Identity, hireDate Date) (*Employee, error) {
	emp, err := s.store.GetOrCreateEmployee(ctx, ident)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateHireDate(ctx, emp.ID, hireDate)
}

// =============================================================================
// BALANCE ENGINE
// =============================================================================

// Balance computes the caller's balance for a year (zero year means the
// current year).
func (s *Service) Balance(ctx context.Context, ident Identity, year int) (*Balance, error) {
	emp, err := s.store.GetOrCreateEmployee(ctx, ident)
	if err != nil {
		return nil, err
	}
	return s.balanceForEmployee(ctx, emp, year)
}

// BalanceForEmployee computes the balance for an employee by ID.
// Returns (nil, nil) when the employee does not exist; callers translate
// that into a not-found response.
func (s *Service) BalanceForEmployee(ctx context.Context, employeeID string, year int) (*Balance, error) {
	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, nil
	}
	return s.balanceForEmployee(ctx, emp, year)
}

func (s *Service) balanceForEmployee(ctx context.Context, emp *Employee, year int) (*Balance, error) {
	if year == 0 {
		year = s.now().Year()
	}

	accrued, carryover, err := s.accrualParts(ctx, emp, year)
	if err != nil {
		return nil, err
	}

	used, err := s.store.UsedDays(ctx, emp.ID, year)
	if err != nil {
		return nil, fmt.Errorf("load used days: %w", err)
	}

	return &Balance{
		Year:                      year,
		VacationAccrued:           accrued,
		VacationUsed:              used.Vacation,
		VacationCarryover:         carryover,
		VacationAvailable:         accrued + carryover - used.Vacation,
		OptionalHolidaysUsed:      used.Optional,
		OptionalHolidaysAvailable: OptionalHolidayAllowance - used.Optional,
	}, nil
}

// accrualParts computes the accrued and carryover components for a year.
// An employee with no hire date set accrues nothing and carries nothing
// over; usage still counts against the zero balance.
func (s *Service) accrualParts(ctx context.Context, emp *Employee, year int) (accrued, carryover int, err error) {
	if emp.HireDate == nil {
		return 0, 0, nil
	}
	hire := *emp.HireDate

	accrualStart := NewDate(year, time.January, 1)
	if hire.Year() == year {
		accrualStart = hire
	}
	accrualEnd := minDate(s.now(), NewDate(year, time.December, 31))

	if !accrualStart.After(accrualEnd) {
		accrued = clamp(MonthsWorked(accrualStart, accrualEnd), 0, MaxAnnualAccrual)
	}

	// Carryover only applies for years strictly after the hire year.
	if year > hire.Year() {
		prevAccrued := clamp(AccruedDays(hire, NewDate(year-1, time.December, 31)), 0, MaxAnnualAccrual)
		prevUsed, uerr := s.store.UsedDays(ctx, emp.ID, year-1)
		if uerr != nil {
			return 0, 0, fmt.Errorf("load previous year usage: %w", uerr)
		}
		carryover = clamp(prevAccrued-prevUsed.Vacation, 0, MaxCarryover)
	}

	return accrued, carryover, nil
}

// =============================================================================
// REQUEST WORKFLOW
// =============================================================================

// ListRequests returns the caller's requests, most recent first.
func (s *Service) ListRequests(ctx context.Context, ident Identity) ([]Request, error) {
	emp, err := s.store.GetOrCreateEmployee(ctx, ident)
	if err != nil {
		return nil, err
	}
	return s.store.ListRequests(ctx, emp.ID)
}

// CreateRequest validates and persists a new vacation request. The
// checks run in order and the first failure wins; the balance check is
// re-evaluated inside the creation transaction against fresh usage.
func (s *Service) CreateRequest(ctx context.Context, ident Identity, reqType RequestType, start, end Date, notes string) (*Request, error) {
	if !reqType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, reqType)
	}

	emp, err := s.store.GetOrCreateEmployee(ctx, ident)
	if err != nil {
		return nil, err
	}

	if start.After(end) {
		return nil, ErrInvalidRange
	}
	if start.Before(s.now()) {
		return nil, fmt.Errorf("cannot schedule vacation in the past: %w", ErrPastDate)
	}

	holidays := HolidaysForRange(start, end)
	businessDays := BusinessDays(start, end, holidays)
	if businessDays == 0 {
		return nil, ErrNoBusinessDays
	}

	// Accrued and carryover are pure given the hire date and prior-year
	// usage; only current-year usage can change concurrently, and the
	// store re-reads it under lock before running the check.
	year := start.Year()
	accrued, carryover, err := s.accrualParts(ctx, emp, year)
	if err != nil {
		return nil, err
	}

	check := func(used UsedDays) error {
		switch reqType {
		case TypeVacation:
			available := accrued + carryover - used.Vacation
			if businessDays > available {
				return &InsufficientBalanceError{Type: reqType, Available: available, Requested: businessDays}
			}
		case TypeOptionalHoliday:
			available := OptionalHolidayAllowance - used.Optional
			if businessDays > available {
				return &InsufficientBalanceError{Type: reqType, Available: available, Requested: businessDays}
			}
		}
		return nil
	}

	req := Request{
		ID:           uuid.NewString(),
		EmployeeID:   emp.ID,
		Type:         reqType,
		StartDate:    start,
		EndDate:      end,
		BusinessDays: businessDays,
		Status:       StatusApproved,
		Notes:        notes,
	}

	created, err := s.store.CreateRequest(ctx, req, check)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "vacation request created",
		"employee_id", emp.ID,
		"request_id", created.ID,
		"type", string(reqType),
		"start", start.String(),
		"end", end.String(),
		"business_days", businessDays)

	return created, nil
}

// DeleteRequest removes one of the caller's requests. Requests that
// belong to someone else are reported as not found, and requests whose
// start date has passed cannot be deleted.
func (s *Service) DeleteRequest(ctx context.Context, ident Identity, requestID string) error {
	emp, err := s.store.GetOrCreateEmployee(ctx, ident)
	if err != nil {
		return err
	}

	req, err := s.store.GetRequest(ctx, requestID, emp.ID)
	if err != nil {
		return err
	}
	if req == nil {
		return fmt.Errorf("vacation request %w", ErrNotFound)
	}
	if req.StartDate.Before(s.now()) {
		return fmt.Errorf("cannot delete past vacation requests: %w", ErrPastDate)
	}

	if err := s.store.DeleteRequest(ctx, requestID); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "vacation request deleted",
		"employee_id", emp.ID, "request_id", requestID)
	return nil
}

// =============================================================================
// HOLIDAY OPERATIONS
// =============================================================================

// HolidaysForYear returns the computed corporate holidays for a year
// (zero year means the current year). No storage involved.
func (s *Service) HolidaysForYear(year int) []Holiday {
	if year == 0 {
		year = s.now().Year()
	}
	return CorporateHolidays(year)
}

// SyncHolidays recomputes and upserts the holiday cache for a year, then
// returns the cached rows. Idempotent; existing dates are left alone.
func (s *Service) SyncHolidays(ctx context.Context, year int) ([]Holiday, error) {
	if year == 0 {
		year = s.now().Year()
	}
	if err := s.store.UpsertHolidays(ctx, CorporateHolidays(year)); err != nil {
		return nil, fmt.Errorf("sync holidays for %d: %w", year, err)
	}
	return s.store.ListHolidays(ctx, year)
}

// EnsureHolidayCache upserts cache rows for the current and next year.
// Callers invoke this as explicit maintenance (on the balance path and
// at startup) so historical balance reads never need to write.
func (s *Service) EnsureHolidayCache(ctx context.Context) error {
	year := s.now().Year()
	for _, y := range []int{year, year + 1} {
		if err := s.store.UpsertHolidays(ctx, CorporateHolidays(y)); err != nil {
			return fmt.Errorf("ensure holiday cache for %d: %w", y, err)
		}
	}
	return nil
}

// =============================================================================
// BUSINESS DAY QUERIES
// =============================================================================

// BusinessDayReport is the result of a business-day calculation between
// two dates, with the holidays that fell inside the range.
type BusinessDayReport struct {
	StartDate       Date      `json:"start_date"`
	EndDate         Date      `json:"end_date"`
	BusinessDays    int       `json:"business_days"`
	HolidaysInRange []Holiday `json:"holidays_in_range"`
}

// ComputeBusinessDays counts business days in [start, end] considering
// the holidays of every year the range touches. Unlike the raw counter,
// a reversed range here is a validation error.
func (s *Service) ComputeBusinessDays(start, end Date) (*BusinessDayReport, error) {
	if start.After(end) {
		return nil, ErrInvalidRange
	}
	holidays := HolidaysForRange(start, end)
	return &BusinessDayReport{
		StartDate:       start,
		EndDate:         end,
		BusinessDays:    BusinessDays(start, end, holidays),
		HolidaysInRange: holidays.InRange(start, end),
	}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
