/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Request types carry go-playground/validator struct tags. Handlers call
  Handler.validate.Struct after decoding; tag failures map to 400.
  Domain-level validation (balance, date ordering against today, business
  days) lives in the vacation package, not here.

SEE ALSO:
  - handlers.go: Uses these types
  - vacation/service.go: Domain operations behind these DTOs
*/
package api

import (
	"time"

	"github.com/warp/vacation-tracker/vacation"
)

// =============================================================================
// EMPLOYEE DTOs
// =============================================================================

// EmployeeDTO is the API representation of an employee profile.
type EmployeeDTO struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	HireDate  *string `json:"hire_date"` // YYYY-MM-DD, null until set
	CreatedAt string  `json:"created_at"`
}

// UpdateProfileRequest sets the employee's hire date.
type UpdateProfileRequest struct {
	HireDate string `json:"hire_date" validate:"required,datetime=2006-01-02"`
}

// =============================================================================
// BALANCE DTOs
// =============================================================================

// BalanceDTO reports the computed balance for one calendar year.
type BalanceDTO struct {
	Year                      int `json:"year"`
	VacationAccrued           int `json:"vacation_accrued"`
	VacationUsed              int `json:"vacation_used"`
	VacationCarryover         int `json:"vacation_carryover"`
	VacationAvailable         int `json:"vacation_available"`
	OptionalHolidaysUsed      int `json:"optional_holidays_used"`
	OptionalHolidaysAvailable int `json:"optional_holidays_available"`
}

// =============================================================================
// VACATION REQUEST DTOs
// =============================================================================

// VacationDTO is the API representation of a vacation request.
type VacationDTO struct {
	ID           string `json:"id"`
	VacationType string `json:"vacation_type"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	BusinessDays int    `json:"business_days"`
	Status       string `json:"status"`
	Notes        string `json:"notes,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// CreateVacationRequest submits a new vacation or optional-holiday entry.
type CreateVacationRequest struct {
	VacationType string `json:"vacation_type" validate:"required,oneof=vacation optional_holiday"`
	StartDate    string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Notes        string `json:"notes" validate:"max=500"`
}

// CalculateDaysRequest asks for the business-day count of a range without
// creating anything.
type CalculateDaysRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// =============================================================================
// CHAT DTOs
// =============================================================================

// ChatRequest carries one user turn plus the prior conversation. The client
// echoes back the history returned by the previous response; the server is
// stateless between turns.
type ChatRequest struct {
	Message string        `json:"message" validate:"required,max=4000"`
	History []ChatMessage `json:"history" validate:"max=100,dive"`
}

// ChatMessage is one prior turn of the conversation.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatResponse returns the assistant reply and the updated history to echo
// back on the next turn.
type ChatResponse struct {
	Reply   string        `json:"reply"`
	History []ChatMessage `json:"history"`
}

// =============================================================================
// ERROR RESPONSE
// =============================================================================

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toEmployeeDTO(e *vacation.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:        e.ID,
		Email:     e.Email,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
	if e.HireDate != nil {
		s := e.HireDate.String()
		dto.HireDate = &s
	}
	return dto
}

func toBalanceDTO(b *vacation.Balance) BalanceDTO {
	return BalanceDTO{
		Year:                      b.Year,
		VacationAccrued:           b.VacationAccrued,
		VacationUsed:              b.VacationUsed,
		VacationCarryover:         b.VacationCarryover,
		VacationAvailable:         b.VacationAvailable,
		OptionalHolidaysUsed:      b.OptionalHolidaysUsed,
		OptionalHolidaysAvailable: b.OptionalHolidaysAvailable,
	}
}

func toVacationDTO(r *vacation.Request) VacationDTO {
	return VacationDTO{
		ID:           r.ID,
		VacationType: string(r.Type),
		StartDate:    r.StartDate.String(),
		EndDate:      r.EndDate.String(),
		BusinessDays: r.BusinessDays,
		Status:       string(r.Status),
		Notes:        r.Notes,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
}

func toVacationDTOs(rs []vacation.Request) []VacationDTO {
	dtos := make([]VacationDTO, 0, len(rs))
	for i := range rs {
		dtos = append(dtos, toVacationDTO(&rs[i]))
	}
	return dtos
}
