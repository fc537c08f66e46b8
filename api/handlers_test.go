package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-tracker/api"
	"github.com/warp/vacation-tracker/config"
	"github.com/warp/vacation-tracker/store/memory"
	"github.com/warp/vacation-tracker/vacation"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRouter wires the full router against an in-memory store with
// "today" pinned to Monday 2025-06-02 and the dev identity installed.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	store := memory.New()
	svc := vacation.NewService(store, nil, vacation.WithClock(func() vacation.Date {
		return vacation.NewDate(2025, time.June, 2)
	}))

	cfg := &config.Config{
		FrontendURL: "http://localhost:3001/dashboard",
		OAuth:       config.OAuthConfig{CookieName: "pkce_cookie"},
	}

	h := api.NewHandler(svc, nil, nil, cfg, testLogger(), nil)
	return api.NewRouter(h, api.RouterConfig{
		Identity:   api.DevIdentity(),
		CORSOrigin: "http://localhost:3001",
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out), "body: %s", w.Body.String())
	return out
}

// setHireDate provisions the dev employee and sets the hire date.
func setHireDate(t *testing.T, router http.Handler, hireDate string) {
	t.Helper()
	w := doJSON(t, router, http.MethodPut, "/employees/me", api.UpdateProfileRequest{HireDate: hireDate})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
}

// =============================================================================
// PROFILE ENDPOINTS
// =============================================================================

func TestGetProfile_AutoProvisions(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/employees/me", nil)
	require.Equal(t, http.StatusOK, w.Code)

	dto := decodeBody[api.EmployeeDTO](t, w)
	assert.NotEmpty(t, dto.ID)
	assert.Equal(t, "dev@localhost", dto.Email)
	assert.Nil(t, dto.HireDate)
}

func TestUpdateProfile_SetsHireDate(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPut, "/employees/me", api.UpdateProfileRequest{HireDate: "2024-01-15"})
	require.Equal(t, http.StatusOK, w.Code)

	dto := decodeBody[api.EmployeeDTO](t, w)
	require.NotNil(t, dto.HireDate)
	assert.Equal(t, "2024-01-15", *dto.HireDate)
}

func TestUpdateProfile_RejectsMalformedDate(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPut, "/employees/me", map[string]string{"hire_date": "15/01/2024"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// BALANCE ENDPOINT
// =============================================================================

func TestGetBalance(t *testing.T) {
	router := newTestRouter(t)
	setHireDate(t, router, "2024-01-15")

	w := doJSON(t, router, http.MethodGet, "/employees/me/balance?year=2025", nil)
	require.Equal(t, http.StatusOK, w.Code)

	bal := decodeBody[api.BalanceDTO](t, w)
	assert.Equal(t, 2025, bal.Year)
	assert.Equal(t, 6, bal.VacationAccrued)
	assert.Equal(t, 5, bal.VacationCarryover)
	assert.Equal(t, 11, bal.VacationAvailable)
	assert.Equal(t, 3, bal.OptionalHolidaysAvailable)
}

func TestGetBalance_InvalidYear(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/employees/me/balance?year=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// VACATION ENDPOINTS
// =============================================================================

func TestCreateVacation(t *testing.T) {
	router := newTestRouter(t)
	setHireDate(t, router, "2024-01-15")

	w := doJSON(t, router, http.MethodPost, "/vacations", api.CreateVacationRequest{
		VacationType: "vacation",
		StartDate:    "2025-06-09",
		EndDate:      "2025-06-10",
		Notes:        "city trip",
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	dto := decodeBody[api.VacationDTO](t, w)
	assert.NotEmpty(t, dto.ID)
	assert.Equal(t, 2, dto.BusinessDays)
	assert.Equal(t, "approved", dto.Status)
}

func TestCreateVacation_ValidationFailuresReturn400(t *testing.T) {
	router := newTestRouter(t)
	setHireDate(t, router, "2024-01-15")

	cases := []struct {
		name string
		req  api.CreateVacationRequest
	}{
		{"unknown type", api.CreateVacationRequest{VacationType: "sick", StartDate: "2025-06-09", EndDate: "2025-06-09"}},
		{"missing dates", api.CreateVacationRequest{VacationType: "vacation"}},
		{"past start", api.CreateVacationRequest{VacationType: "vacation", StartDate: "2025-05-30", EndDate: "2025-05-30"}},
		{"reversed range", api.CreateVacationRequest{VacationType: "vacation", StartDate: "2025-06-10", EndDate: "2025-06-09"}},
		{"weekend only", api.CreateVacationRequest{VacationType: "vacation", StartDate: "2025-06-07", EndDate: "2025-06-08"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/vacations", tc.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateVacation_InsufficientBalanceMessage(t *testing.T) {
	router := newTestRouter(t)
	setHireDate(t, router, "2024-01-15")

	// 15 business days against 11 available.
	w := doJSON(t, router, http.MethodPost, "/vacations", api.CreateVacationRequest{
		VacationType: "vacation",
		StartDate:    "2025-06-09",
		EndDate:      "2025-06-27",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeBody[api.ErrorResponse](t, w)
	assert.Equal(t, "insufficient vacation days: available 11, requested 15", resp.Error)
}

func TestListVacations(t *testing.T) {
	router := newTestRouter(t)
	setHireDate(t, router, "2024-01-15")

	w := doJSON(t, router, http.MethodPost, "/vacations", api.CreateVacationRequest{
		VacationType: "vacation", StartDate: "2025-06-09", EndDate: "2025-06-09",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/vacations", nil)
	require.Equal(t, http.StatusOK, w.Code)

	list := decodeBody[[]api.VacationDTO](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "2025-06-09", list[0].StartDate)
}

func TestDeleteVacation(t *testing.T) {
	router := newTestRouter(t)
	setHireDate(t, router, "2024-01-15")

	w := doJSON(t, router, http.MethodPost, "/vacations", api.CreateVacationRequest{
		VacationType: "vacation", StartDate: "2025-06-09", EndDate: "2025-06-09",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody[api.VacationDTO](t, w)

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/vacations/%s", created.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/vacations/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =============================================================================
// HOLIDAY AND UTILITY ENDPOINTS
// =============================================================================

func TestGetHolidays(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/holidays?year=2025", nil)
	require.Equal(t, http.StatusOK, w.Code)

	holidays := decodeBody[[]vacation.Holiday](t, w)
	assert.Len(t, holidays, 6)
}

func TestCalculateDays(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/vacations/calculate-days", api.CalculateDaysRequest{
		StartDate: "2025-06-30",
		EndDate:   "2025-07-06",
	})
	require.Equal(t, http.StatusOK, w.Code)

	report := decodeBody[vacation.BusinessDayReport](t, w)
	assert.Equal(t, 4, report.BusinessDays)
	assert.Len(t, report.HolidaysInRange, 1)
}

func TestCalculateDays_ReversedRange(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/vacations/calculate-days", api.CalculateDaysRequest{
		StartDate: "2025-07-06",
		EndDate:   "2025-06-30",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// UNCONFIGURED OPTIONAL FEATURES
// =============================================================================

func TestUnconfiguredFeaturesReturn503(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(t, router, http.MethodPost, "/chat", api.ChatRequest{Message: "hello"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
