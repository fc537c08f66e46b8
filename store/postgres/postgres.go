/*
Package postgres provides a PostgreSQL-backed implementation of
vacation.Store.

PURPOSE:
  The production store. Mirrors store/sqlite semantically; dialect
  differences are parameter placeholders, native DATE/TIMESTAMPTZ
  columns, and row-level locking instead of a process mutex.

LOCKING:
  CreateRequest locks the employee row (SELECT ... FOR UPDATE) before
  re-reading usage and running the balance check, so two concurrent
  requests from the same employee serialize on the row and cannot both
  spend the same balance.

MIGRATION:
  Versioned SQL migrations are embedded and applied with golang-migrate
  on New(). Already-applied migrations are a no-op.

SEE ALSO:
  - vacation/store.go: Interface definition
  - store/sqlite: Development implementation
*/
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/warp/vacation-tracker/vacation"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements vacation.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New connects to PostgreSQL with the given URL, applies pending
// migrations, and returns the store.
func New(databaseURL string) (*Store, error) {
	if err := runMigrations(databaseURL); err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func runMigrations(databaseURL string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) GetOrCreateEmployee(ctx context.Context, ident vacation.Identity) (*vacation.Employee, error) {
	emp, err := s.employeeBySubject(ctx, ident.Subject)
	if err != nil {
		return nil, err
	}
	if emp != nil {
		return emp, nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO employees (id, oidc_subject, email, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (oidc_subject) DO NOTHING`,
		uuid.NewString(), ident.Subject, ident.Email, ident.FirstName, ident.LastName)
	if err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}

	return s.employeeBySubject(ctx, ident.Subject)
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (*vacation.Employee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, oidc_subject, email, first_name, last_name, hire_date, created_at
		FROM employees WHERE id = $1`, employeeID)
	return scanEmployee(row)
}

func (s *Store) employeeBySubject(ctx context.Context, subject string) (*vacation.Employee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, oidc_subject, email, first_name, last_name, hire_date, created_at
		FROM employees WHERE oidc_subject = $1`, subject)
	return scanEmployee(row)
}

func (s *Store) UpdateHireDate(ctx context.Context, employeeID string, hireDate vacation.Date) (*vacation.Employee, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE employees SET hire_date = $1 WHERE id = $2`,
		hireDate.Time, employeeID)
	if err != nil {
		return nil, fmt.Errorf("update hire date: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("employee %w", vacation.ErrNotFound)
	}
	return s.GetEmployee(ctx, employeeID)
}

func scanEmployee(row *sql.Row) (*vacation.Employee, error) {
	var (
		emp       vacation.Employee
		hireDate  sql.NullTime
		createdAt time.Time
	)
	err := row.Scan(&emp.ID, &emp.Subject, &emp.Email, &emp.FirstName, &emp.LastName, &hireDate, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan employee: %w", err)
	}
	if hireDate.Valid {
		d := vacation.NewDate(hireDate.Time.Year(), hireDate.Time.Month(), hireDate.Time.Day())
		emp.HireDate = &d
	}
	emp.CreatedAt = createdAt
	return &emp, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) UsedDays(ctx context.Context, employeeID string, year int) (vacation.UsedDays, error) {
	return usedDays(ctx, s.db, employeeID, year)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func usedDays(ctx context.Context, q querier, employeeID string, year int) (vacation.UsedDays, error) {
	var used vacation.UsedDays
	err := q.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(business_days) FILTER (WHERE request_type = 'vacation'), 0),
			COALESCE(SUM(business_days) FILTER (WHERE request_type = 'optional_holiday'), 0)
		FROM vacation_requests
		WHERE employee_id = $1 AND status = 'approved'
		  AND EXTRACT(YEAR FROM start_date) = $2`,
		employeeID, year).Scan(&used.Vacation, &used.Optional)
	if err != nil {
		return vacation.UsedDays{}, fmt.Errorf("sum used days: %w", err)
	}
	return used, nil
}

func (s *Store) ListRequests(ctx context.Context, employeeID string) ([]vacation.Request, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, request_type, start_date, end_date, business_days, status, notes, created_at
		FROM vacation_requests
		WHERE employee_id = $1
		ORDER BY start_date DESC`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []vacation.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func (s *Store) GetRequest(ctx context.Context, requestID, employeeID string) (*vacation.Request, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, request_type, start_date, end_date, business_days, status, notes, created_at
		FROM vacation_requests
		WHERE id = $1 AND employee_id = $2`, requestID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRequest(rows)
}

func (s *Store) DeleteRequest(ctx context.Context, requestID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM vacation_requests WHERE id = $1`, requestID); err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	return nil
}

func (s *Store) CreateRequest(ctx context.Context, req vacation.Request, check vacation.BalanceCheck) (*vacation.Request, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create request: %w", err)
	}
	defer tx.Rollback()

	// Serialize concurrent creations for the same employee on the row
	// lock; usage is re-read under the lock before the balance check.
	var locked string
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM employees WHERE id = $1 FOR UPDATE`,
		req.EmployeeID).Scan(&locked); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("employee %w", vacation.ErrNotFound)
		}
		return nil, fmt.Errorf("lock employee: %w", err)
	}

	if check != nil {
		used, err := usedDays(ctx, tx, req.EmployeeID, req.StartDate.Year())
		if err != nil {
			return nil, err
		}
		if err := check(used); err != nil {
			return nil, err
		}
	}

	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO vacation_requests (id, employee_id, request_type, start_date, end_date, business_days, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		req.ID, req.EmployeeID, string(req.Type), req.StartDate.Time, req.EndDate.Time,
		req.BusinessDays, string(req.Status), req.Notes, req.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create request: %w", err)
	}
	return &req, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*vacation.Request, error) {
	var (
		req        vacation.Request
		reqType    string
		start, end time.Time
		status     string
	)
	err := row.Scan(&req.ID, &req.EmployeeID, &reqType, &start, &end,
		&req.BusinessDays, &status, &req.Notes, &req.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan request: %w", err)
	}
	req.Type = vacation.RequestType(reqType)
	req.Status = vacation.RequestStatus(status)
	req.StartDate = vacation.NewDate(start.Year(), start.Month(), start.Day())
	req.EndDate = vacation.NewDate(end.Year(), end.Month(), end.Day())
	return &req, nil
}

// =============================================================================
// HOLIDAY CACHE
// =============================================================================

func (s *Store) UpsertHolidays(ctx context.Context, holidays []vacation.Holiday) error {
	for _, h := range holidays {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO corporate_holidays (holiday_date, name, year)
			VALUES ($1, $2, $3)
			ON CONFLICT (holiday_date) DO NOTHING`,
			h.Date.Time, h.Name, h.Date.Year())
		if err != nil {
			return fmt.Errorf("upsert holiday %s: %w", h.Date, err)
		}
	}
	return nil
}

func (s *Store) ListHolidays(ctx context.Context, year int) ([]vacation.Holiday, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT holiday_date, name FROM corporate_holidays
		WHERE year = $1 ORDER BY holiday_date`, year)
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	defer rows.Close()

	var out []vacation.Holiday
	for rows.Next() {
		var (
			h    vacation.Holiday
			date time.Time
		)
		if err := rows.Scan(&date, &h.Name); err != nil {
			return nil, fmt.Errorf("scan holiday: %w", err)
		}
		h.Date = vacation.NewDate(date.Year(), date.Month(), date.Day())
		out = append(out, h)
	}
	return out, rows.Err()
}

// compile-time interface check
var _ vacation.Store = (*Store)(nil)
