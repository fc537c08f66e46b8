// Package memory provides an in-memory Store implementation (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/vacation-tracker/vacation"
)

// Store keeps everything behind one mutex. The single lock doubles as
// the per-employee creation guard the Store contract requires.
type Store struct {
	mu        sync.RWMutex
	employees map[string]vacation.Employee // by internal ID
	bySubject map[string]string            // OIDC subject -> internal ID
	requests  map[string]vacation.Request  // by request ID
	holidays  map[vacation.Date]vacation.Holiday
}

func New() *Store {
	return &Store{
		employees: make(map[string]vacation.Employee),
		bySubject: make(map[string]string),
		requests:  make(map[string]vacation.Request),
		holidays:  make(map[vacation.Date]vacation.Holiday),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Store) GetOrCreateEmployee(_ context.Context, ident vacation.Identity) (*vacation.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.bySubject[ident.Subject]; ok {
		emp := m.employees[id]
		return &emp, nil
	}

	emp := vacation.Employee{
		ID:        uuid.NewString(),
		Subject:   ident.Subject,
		Email:     ident.Email,
		FirstName: ident.FirstName,
		LastName:  ident.LastName,
		CreatedAt: time.Now().UTC(),
	}
	m.employees[emp.ID] = emp
	m.bySubject[emp.Subject] = emp.ID
	return &emp, nil
}

func (m *Store) GetEmployee(_ context.Context, employeeID string) (*vacation.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	emp, ok := m.employees[employeeID]
	if !ok {
		return nil, nil
	}
	return &emp, nil
}

func (m *Store) UpdateHireDate(_ context.Context, employeeID string, hireDate vacation.Date) (*vacation.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	emp, ok := m.employees[employeeID]
	if !ok {
		return nil, vacation.ErrNotFound
	}
	emp.HireDate = &hireDate
	m.employees[employeeID] = emp
	return &emp, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (m *Store) UsedDays(_ context.Context, employeeID string, year int) (vacation.UsedDays, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usedDaysLocked(employeeID, year), nil
}

func (m *Store) usedDaysLocked(employeeID string, year int) vacation.UsedDays {
	var used vacation.UsedDays
	for _, r := range m.requests {
		if r.EmployeeID != employeeID || r.Status != vacation.StatusApproved || r.StartDate.Year() != year {
			continue
		}
		switch r.Type {
		case vacation.TypeVacation:
			used.Vacation += r.BusinessDays
		case vacation.TypeOptionalHoliday:
			used.Optional += r.BusinessDays
		}
	}
	return used
}

func (m *Store) ListRequests(_ context.Context, employeeID string) ([]vacation.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []vacation.Request
	for _, r := range m.requests {
		if r.EmployeeID == employeeID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (m *Store) GetRequest(_ context.Context, requestID, employeeID string) (*vacation.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.requests[requestID]
	if !ok || r.EmployeeID != employeeID {
		return nil, nil
	}
	return &r, nil
}

func (m *Store) DeleteRequest(_ context.Context, requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.requests, requestID)
	return nil
}

func (m *Store) CreateRequest(_ context.Context, req vacation.Request, check vacation.BalanceCheck) (*vacation.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if check != nil {
		if err := check(m.usedDaysLocked(req.EmployeeID, req.StartDate.Year())); err != nil {
			return nil, err
		}
	}

	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	m.requests[req.ID] = req
	return &req, nil
}

// =============================================================================
// HOLIDAY CACHE
// =============================================================================

func (m *Store) UpsertHolidays(_ context.Context, holidays []vacation.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, h := range holidays {
		if _, exists := m.holidays[h.Date]; exists {
			continue
		}
		m.holidays[h.Date] = h
	}
	return nil
}

func (m *Store) ListHolidays(_ context.Context, year int) ([]vacation.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []vacation.Holiday
	for d, h := range m.holidays {
		if d.Year() == year {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// compile-time interface check
var _ vacation.Store = (*Store)(nil)
