/*
store.go - Persistence contract for the vacation domain

PURPOSE:
  Defines the Store interface the Service depends on. Implementations
  live under store/ (sqlite for development, postgres for production,
  memory for tests). The Service receives its Store explicitly; there is
  no package-level pool or global connection.

TRANSACTIONAL GUARD:
  CreateRequest runs its balance check and insert inside one storage
  transaction with the employee row locked, so two concurrent requests
  from the same employee cannot both pass the availability check against
  a stale balance.

SEE ALSO:
  - service.go: The only consumer of this interface
  - store/sqlite, store/postgres, store/memory: Implementations
*/
package vacation

import "context"

// BalanceCheck validates a pending request against fresh usage numbers.
// It is invoked inside the creation transaction, after the employee row
// is locked and usage for the request's start year has been re-read.
// Returning an error aborts the transaction.
type BalanceCheck func(used UsedDays) error

// Store is the persistence contract for employees, requests, and the
// holiday cache. Every method is a single all-or-nothing write or a
// plain read; there is no partial-failure handling above this layer.
type Store interface {
	// GetOrCreateEmployee finds the employee by OIDC subject, creating
	// the record on first access.
	GetOrCreateEmployee(ctx context.Context, ident Identity) (*Employee, error)

	// GetEmployee returns the employee by internal ID, or nil when the
	// employee does not exist.
	GetEmployee(ctx context.Context, employeeID string) (*Employee, error)

	// UpdateHireDate sets the employee's hire date and returns the
	// updated record.
	UpdateHireDate(ctx context.Context, employeeID string, hireDate Date) (*Employee, error)

	// UsedDays sums the business days of approved requests, by type,
	// whose start date falls in the given year.
	UsedDays(ctx context.Context, employeeID string, year int) (UsedDays, error)

	// ListRequests returns all requests for the employee, most recent
	// start date first.
	ListRequests(ctx context.Context, employeeID string) ([]Request, error)

	// GetRequest returns the request only when it belongs to the given
	// employee; nil otherwise.
	GetRequest(ctx context.Context, requestID, employeeID string) (*Request, error)

	// DeleteRequest removes the request. Hard delete, no audit trail.
	DeleteRequest(ctx context.Context, requestID string) error

	// CreateRequest persists req after the check passes. The check runs
	// in the same transaction as the insert with the employee locked
	// against concurrent request creation. A nil check skips validation.
	CreateRequest(ctx context.Context, req Request, check BalanceCheck) (*Request, error)

	// UpsertHolidays inserts holiday cache rows, silently ignoring dates
	// that already exist. Idempotent.
	UpsertHolidays(ctx context.Context, holidays []Holiday) error

	// ListHolidays returns cached holiday rows for a year, by date.
	ListHolidays(ctx context.Context, year int) ([]Holiday, error)
}
