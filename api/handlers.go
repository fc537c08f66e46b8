/*
handlers.go - HTTP API handlers for the vacation tracker

PURPOSE:
  Exposes the vacation engine via REST API. Handles HTTP request/response,
  JSON serialization, input validation, and delegates to domain logic.

ENDPOINTS:
  Auth (public):
    GET    /login               Start the OIDC PKCE flow
    GET    /auth/callback       Exchange code for tokens, redirect to frontend
    GET    /testrefresh         Refresh an access token
    GET    /logout              Redirect to the provider's logout endpoint

  Employees (authenticated):
    GET    /employees/me            Own profile (auto-provisioned)
    PUT    /employees/me            Set hire date
    GET    /employees/me/balance    Balance for a year (?year=YYYY)

  Vacations (authenticated):
    GET    /vacations               Own requests, newest first
    POST   /vacations               Create request
    DELETE /vacations/{id}          Delete own request

  Utility:
    GET    /holidays                        Corporate holidays (?year=YYYY)
    POST   /vacations/calculate-days        Business-day count for a range
    POST   /chat                            HR assistant (authenticated)

ERROR HANDLING:
  Domain errors carry their classification; handlers only translate:
  - vacation.IsValidation  -> 400 with the domain message
  - vacation.IsNotFound    -> 404
  - anything else          -> 500, generic message, details logged

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - vacation/service.go: Domain operations
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/warp/vacation-tracker/auth"
	"github.com/warp/vacation-tracker/chat"
	"github.com/warp/vacation-tracker/config"
	"github.com/warp/vacation-tracker/vacation"
)

// pkceCookieMaxAge bounds how long a login attempt may take.
const pkceCookieMaxAge = 600

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies needed by HTTP handlers.
type Handler struct {
	svc      *vacation.Service
	provider *auth.Provider // nil when OAuth is not configured
	chat     *chat.Service  // nil when the assistant is not configured
	validate *validator.Validate
	log      *slog.Logger
	metrics  *Metrics

	frontendURL string
	cookieName  string
}

// NewHandler creates a Handler. provider and chatSvc may be nil; the
// corresponding endpoints then answer 503.
func NewHandler(svc *vacation.Service, provider *auth.Provider, chatSvc *chat.Service, cfg *config.Config, log *slog.Logger, metrics *Metrics) *Handler {
	return &Handler{
		svc:         svc,
		provider:    provider,
		chat:        chatSvc,
		validate:    validator.New(),
		log:         log,
		metrics:     metrics,
		frontendURL: cfg.FrontendURL,
		cookieName:  cfg.OAuth.CookieName,
	}
}

// Root is a liveness probe.
// GET /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "vacation-tracker"})
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// Login starts the OIDC authorization-code flow. The PKCE verifier is
// stashed in an HttpOnly cookie so the callback can complete the exchange.
// GET /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeError(w, http.StatusServiceUnavailable, "authentication is not configured", nil)
		return
	}

	pkce, err := auth.NewPKCE()
	if err != nil {
		h.internalError(w, r, "generate pkce", err)
		return
	}

	raw, err := json.Marshal(pkce)
	if err != nil {
		h.internalError(w, r, "encode pkce cookie", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    url.QueryEscape(string(raw)),
		Path:     "/",
		MaxAge:   pkceCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthURL(pkce), http.StatusFound)
}

// AuthCallback completes the PKCE flow and hands the tokens to the frontend.
// GET /auth/callback?code=...
func (h *Handler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeError(w, http.StatusServiceUnavailable, "authentication is not configured", nil)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code", nil)
		return
	}

	cookie, err := r.Cookie(h.cookieName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "pkce cookie missing", nil)
		return
	}

	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed pkce cookie", nil)
		return
	}

	var pkce auth.PKCEDetails
	if err := json.Unmarshal([]byte(raw), &pkce); err != nil {
		writeError(w, http.StatusBadRequest, "malformed pkce cookie", nil)
		return
	}

	tokens, err := h.provider.ExchangeCode(r.Context(), code, pkce.CodeVerifier)
	if err != nil {
		h.internalError(w, r, "exchange authorization code", err)
		return
	}

	// One-shot cookie: the verifier must not survive the exchange.
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	redirectURL := fmt.Sprintf("%s/callback.html?access_token=%s&refresh_token=%s",
		frontendBase(h.frontendURL),
		url.QueryEscape(tokens.AccessToken),
		url.QueryEscape(tokens.RefreshToken),
	)
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// TestRefresh exchanges a refresh token for fresh tokens.
// GET /testrefresh
func (h *Handler) TestRefresh(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeError(w, http.StatusServiceUnavailable, "authentication is not configured", nil)
		return
	}

	token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	if token == "" {
		writeError(w, http.StatusBadRequest, "Authorization header required", nil)
		return
	}

	tokens, err := h.provider.Refresh(r.Context(), token)
	if err != nil {
		h.internalError(w, r, "refresh token", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"accessToken":  tokens.AccessToken,
		"idToken":      tokens.IDToken,
		"refreshToken": tokens.RefreshToken,
	})
}

// Logout redirects the browser to the provider's end-session endpoint.
// GET /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeError(w, http.StatusServiceUnavailable, "authentication is not configured", nil)
		return
	}

	redirectURI := frontendBase(h.frontendURL) + "/"
	http.Redirect(w, r, h.provider.LogoutURL(redirectURI), http.StatusFound)
}

// frontendBase strips the dashboard path from the configured frontend URL.
func frontendBase(frontendURL string) string {
	if i := strings.Index(frontendURL, "/dashboard"); i >= 0 {
		return frontendURL[:i]
	}
	return strings.TrimSuffix(frontendURL, "/")
}

// =============================================================================
// EMPLOYEE ENDPOINTS
// =============================================================================

// GetProfile returns the caller's profile, creating it on first contact.
// GET /employees/me
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r.Context())

	emp, err := h.svc.Profile(r.Context(), *ident)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// UpdateProfile sets the caller's hire date.
// PUT /employees/me
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r.Context())

	var req UpdateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	hireDate, err := vacation.ParseDate(req.HireDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hire_date", err)
		return
	}

	emp, err := h.svc.UpdateHireDate(r.Context(), *ident, hireDate)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// GetBalance returns the caller's balance for a year (default: current).
// GET /employees/me/balance?year=YYYY
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r.Context())

	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}

	bal, err := h.svc.Balance(r.Context(), *ident, year)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(bal))
}

// =============================================================================
// VACATION ENDPOINTS
// =============================================================================

// ListVacations returns the caller's requests, newest first.
// GET /vacations
func (h *Handler) ListVacations(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r.Context())

	reqs, err := h.svc.ListRequests(r.Context(), *ident)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVacationDTOs(reqs))
}

// CreateVacation submits a new vacation or optional-holiday entry.
// POST /vacations
func (h *Handler) CreateVacation(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r.Context())

	var req CreateVacationRequest
	if !h.decode(w, r, &req) {
		return
	}

	start, err := vacation.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date", err)
		return
	}
	end, err := vacation.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date", err)
		return
	}

	created, err := h.svc.CreateRequest(r.Context(), *ident, vacation.RequestType(req.VacationType), start, end, req.Notes)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRequestCreated(req.VacationType)
	}
	writeJSON(w, http.StatusCreated, toVacationDTO(created))
}

// DeleteVacation removes one of the caller's requests.
// DELETE /vacations/{id}
func (h *Handler) DeleteVacation(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.svc.DeleteRequest(r.Context(), *ident, id); err != nil {
		h.domainError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRequestDeleted()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// =============================================================================
// HOLIDAY AND UTILITY ENDPOINTS
// =============================================================================

// GetHolidays returns the corporate holidays for a year (default: current),
// refreshing the persistent cache as a side effect.
// GET /holidays?year=YYYY
func (h *Handler) GetHolidays(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}

	holidays, err := h.svc.SyncHolidays(r.Context(), year)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, holidays)
}

// CalculateDays returns the business-day count for a range without creating
// anything. Useful for frontend previews.
// POST /vacations/calculate-days
func (h *Handler) CalculateDays(w http.ResponseWriter, r *http.Request) {
	var req CalculateDaysRequest
	if !h.decode(w, r, &req) {
		return
	}

	start, err := vacation.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date", err)
		return
	}
	end, err := vacation.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date", err)
		return
	}

	report, err := h.svc.ComputeBusinessDays(start, end)
	if err != nil {
		h.domainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// =============================================================================
// CHAT ENDPOINT
// =============================================================================

// Chat runs one turn of the HR assistant conversation. The caller's bearer
// token is forwarded to the tool layer so tools act as the caller.
// POST /chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	if h.chat == nil {
		writeError(w, http.StatusServiceUnavailable, "assistant is not configured", nil)
		return
	}

	var req ChatRequest
	if !h.decode(w, r, &req) {
		return
	}

	token, _ := auth.BearerToken(r.Header.Get("Authorization"))

	history := make([]chat.Message, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, chat.Message{Role: m.Role, Content: m.Content})
	}

	reply, updated, err := h.chat.Chat(r.Context(), token, history, req.Message)
	if err != nil {
		h.internalError(w, r, "assistant turn", err)
		return
	}

	out := ChatResponse{Reply: reply, History: make([]ChatMessage, 0, len(updated))}
	for _, m := range updated {
		out.History = append(out.History, ChatMessage{Role: m.Role, Content: m.Content})
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// HELPERS
// =============================================================================

// decode unmarshals the body into dst and runs struct validation. On failure
// it writes a 400 response and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err)
		return false
	}
	return true
}

// yearParam parses the optional ?year= query parameter. Zero means "current
// year" downstream.
func (h *Handler) yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return 0, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 9999 {
		writeError(w, http.StatusBadRequest, "invalid year", errors.New("year must be a four-digit number"))
		return 0, false
	}
	return year, true
}

// domainError translates a vacation package error into an HTTP response.
func (h *Handler) domainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case vacation.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case vacation.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		h.internalError(w, r, "domain operation", err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.log.ErrorContext(r.Context(), "internal error", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error", nil)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
