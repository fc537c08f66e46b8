/*
Package sqlite provides a SQLite-backed implementation of vacation.Store.

PURPOSE:
  The development default. The same patterns apply to PostgreSQL (see
  store/postgres) - only SQL dialect and locking primitives differ.

KEY TABLES:
  employees:          One row per OIDC subject, created lazily
  vacation_requests:  Approved vacation / optional-holiday entries
  corporate_holidays: Cache of calculated holidays, keyed by date

CONCURRENCY:
  A sync.Mutex serializes writes. SQLite has a single writer anyway;
  the mutex also makes the balance-check-then-insert in CreateRequest
  atomic with respect to other request creations in this process.

WAL MODE:
  Opened with WAL so readers are not blocked by the writer.

DATE ENCODING:
  Calendar dates are stored as YYYY-MM-DD TEXT, timestamps as RFC3339.

USAGE:
  store, err := sqlite.New("./data/vacation.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). The PostgreSQL store uses versioned
  migrations instead; SQLite keeps the zero-setup developer experience.

SEE ALSO:
  - vacation/store.go: Interface definition
  - store/postgres: Production implementation
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/vacation-tracker/vacation"
)

// Store implements vacation.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		oidc_subject TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		hire_date TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vacation_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		request_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		business_days INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'approved',
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON vacation_requests(employee_id);

	-- Usage sums filter on employee, status, type, and start-date year.
	CREATE INDEX IF NOT EXISTS idx_requests_employee_start
		ON vacation_requests(employee_id, status, request_type, start_date);

	CREATE TABLE IF NOT EXISTS corporate_holidays (
		holiday_date TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		year INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_year
		ON corporate_holidays(year);
	`
	_, err := s.db.Exec(schema)
	return err
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

	s.mu.Lock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO employees (id, oidc_subject, email, first_name, last_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(oidc_subject) DO NOTHING`,
		uuid.NewString(), ident.Subject, ident.Email, ident.FirstName, ident.LastName,
		time.Now().UTC().Format(time.RFC3339))
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}

	return s.employeeBySubject(ctx, ident.Subject)
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (*vacation.Employee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, oidc_subject, email, first_name, last_name, hire_date, created_at
		FROM employees WHERE id = ?`, employeeID)
	return scanEmployee(row)
}

func (s *Store) employeeBySubject(ctx context.Context, subject string) (*vacation.Employee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, oidc_subject, email, first_name, last_name, hire_date, created_at
		FROM employees WHERE oidc_subject = ?`, subject)
	return scanEmployee(row)
}

func (s *Store) UpdateHireDate(ctx context.Context, employeeID string, hireDate vacation.Date) (*vacation.Employee, error) {
	s.mu.Lock()
	res, err := s.db.ExecContext(ctx,
		`UPDATE employees SET hire_date = ? WHERE id = ?`,
		hireDate.String(), employeeID)
	s.mu.Unlock()
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
		hireDate  sql.NullString
		createdAt string
	)
	err := row.Scan(&emp.ID, &emp.Subject, &emp.Email, &emp.FirstName, &emp.LastName, &hireDate, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan employee: %w", err)
	}
	if hireDate.Valid {
		d, err := vacation.ParseDate(hireDate.String)
		if err != nil {
			return nil, fmt.Errorf("stored hire date: %w", err)
		}
		emp.HireDate = &d
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		emp.CreatedAt = t
	}
	return &emp, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) UsedDays(ctx context.Context, employeeID string, year int) (vacation.UsedDays, error) {
	return s.usedDays(ctx, s.db, employeeID, year)
}

// querier lets usedDays run against the pool or an open transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) usedDays(ctx context.Context, q querier, employeeID string, year int) (vacation.UsedDays, error) {
	var used vacation.UsedDays
	err := q.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN request_type = 'vacation' THEN business_days ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN request_type = 'optional_holiday' THEN business_days ELSE 0 END), 0)
		FROM vacation_requests
		WHERE employee_id = ? AND status = 'approved'
		  AND start_date >= ? AND start_date <= ?`,
		employeeID, yearStart(year), yearEnd(year)).Scan(&used.Vacation, &used.Optional)
	if err != nil {
		return vacation.UsedDays{}, fmt.Errorf("sum used days: %w", err)
	}
	return used, nil
}

func yearStart(year int) string { return fmt.Sprintf("%04d-01-01", year) }
func yearEnd(year int) string   { return fmt.Sprintf("%04d-12-31", year) }

func (s *Store) ListRequests(ctx context.Context, employeeID string) ([]vacation.Request, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, request_type, start_date, end_date, business_days, status, notes, created_at
		FROM vacation_requests
		WHERE employee_id = ?
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
		WHERE id = ? AND employee_id = ?`, requestID, employeeID)
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
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM vacation_requests WHERE id = ?`, requestID); err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	return nil
}

func (s *Store) CreateRequest(ctx context.Context, req vacation.Request, check vacation.BalanceCheck) (*vacation.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create request: %w", err)
	}
	defer tx.Rollback()

	if check != nil {
		used, err := s.usedDays(ctx, tx, req.EmployeeID, req.StartDate.Year())
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.EmployeeID, string(req.Type), req.StartDate.String(), req.EndDate.String(),
		req.BusinessDays, string(req.Status), req.Notes, req.CreatedAt.Format(time.RFC3339))
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
		start, end string
		status     string
		createdAt  string
	)
	err := row.Scan(&req.ID, &req.EmployeeID, &reqType, &start, &end,
		&req.BusinessDays, &status, &req.Notes, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("scan request: %w", err)
	}
	req.Type = vacation.RequestType(reqType)
	req.Status = vacation.RequestStatus(status)
	if req.StartDate, err = vacation.ParseDate(start); err != nil {
		return nil, fmt.Errorf("stored start date: %w", err)
	}
	if req.EndDate, err = vacation.ParseDate(end); err != nil {
		return nil, fmt.Errorf("stored end date: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		req.CreatedAt = t
	}
	return &req, nil
}

// =============================================================================
// HOLIDAY CACHE
// =============================================================================

func (s *Store) UpsertHolidays(ctx context.Context, holidays []vacation.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, h := range holidays {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO corporate_holidays (holiday_date, name, year)
			VALUES (?, ?, ?)
			ON CONFLICT(holiday_date) DO NOTHING`,
			h.Date.String(), h.Name, h.Date.Year())
		if err != nil {
			return fmt.Errorf("upsert holiday %s: %w", h.Date, err)
		}
	}
	return nil
}

func (s *Store) ListHolidays(ctx context.Context, year int) ([]vacation.Holiday, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT holiday_date, name FROM corporate_holidays
		WHERE year = ? ORDER BY holiday_date`, year)
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	defer rows.Close()

	var out []vacation.Holiday
	for rows.Next() {
		var (
			h    vacation.Holiday
			date string
		)
		if err := rows.Scan(&date, &h.Name); err != nil {
			return nil, fmt.Errorf("scan holiday: %w", err)
		}
		if h.Date, err = vacation.ParseDate(date); err != nil {
			return nil, fmt.Errorf("stored holiday date: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// compile-time interface check
var _ vacation.Store = (*Store)(nil)
