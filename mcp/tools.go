/*
tools.go - MCP tool definitions and handler implementations

PURPOSE:
  One ServerTool per operation the assistant can perform. Handlers resolve
  the caller's identity from the context, delegate to the vacation service,
  and serialise results as JSON tool content. Domain validation failures
  come back as tool errors (IsError=true) so the model can relay them,
  never as transport errors.

TOOLS:
  get_corporate_holidays   Holidays for a year
  get_my_profile           Caller's profile
  update_my_profile        Set hire date
  get_my_balance           Balance for a year
  get_my_vacations         Caller's vacation entries
  create_vacation_entry    Book vacation or optional holiday
  delete_vacation_entry    Cancel a future entry
  calc_business_days       Business days in a range
*/
package mcp

import (
	"context"
	"errors"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/warp/vacation-tracker/vacation"
)

// tools returns all MCP tools that this server exposes.
func (s *Server) tools() []mcpsrv.ServerTool {
	return []mcpsrv.ServerTool{
		s.toolGetCorporateHolidays(),
		s.toolGetMyProfile(),
		s.toolUpdateMyProfile(),
		s.toolGetMyBalance(),
		s.toolGetMyVacations(),
		s.toolCreateVacationEntry(),
		s.toolDeleteVacationEntry(),
		s.toolCalcBusinessDays(),
	}
}

// ─── get_corporate_holidays ──────────────────────────────────────────────────

func (s *Server) toolGetCorporateHolidays() mcpsrv.ServerTool {
	tool := mcplib.NewTool("get_corporate_holidays",
		mcplib.WithDescription("List the corporate holidays for a year. Each entry has a name and a YYYY-MM-DD date. Defaults to the current year."),
		mcplib.WithNumber("year",
			mcplib.Description("Four-digit year. Omit for the current year."),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetCorporateHolidays}
}

func (s *Server) handleGetCorporateHolidays(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	year := intArg(req, "year", 0)
	if year == 0 {
		year = vacation.Today().Year()
	}

	holidays, err := s.svc.SyncHolidays(ctx, year)
	if err != nil {
		return resultErr(fmt.Errorf("get_corporate_holidays: %w", err)), nil
	}
	return resultJSON(holidays)
}

// ─── get_my_profile ──────────────────────────────────────────────────────────

func (s *Server) toolGetMyProfile() mcpsrv.ServerTool {
	tool := mcplib.NewTool("get_my_profile",
		mcplib.WithDescription("Get the authenticated employee's profile: name, email, and hire date. The hire date is null until the employee sets it."),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetMyProfile}
}

type profileSummary struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	HireDate  *string `json:"hire_date"`
}

func toProfileSummary(emp *vacation.Employee) profileSummary {
	p := profileSummary{
		ID:        emp.ID,
		Email:     emp.Email,
		FirstName: emp.FirstName,
		LastName:  emp.LastName,
	}
	if emp.HireDate != nil {
		hd := emp.HireDate.String()
		p.HireDate = &hd
	}
	return p
}

func (s *Server) handleGetMyProfile(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	ident, err := s.identity(ctx)
	if err != nil {
		return resultErr(err), nil
	}

	emp, err := s.svc.Profile(ctx, *ident)
	if err != nil {
		return resultErr(fmt.Errorf("get_my_profile: %w", err)), nil
	}
	return resultJSON(toProfileSummary(emp))
}

// ─── update_my_profile ───────────────────────────────────────────────────────

func (s *Server) toolUpdateMyProfile() mcpsrv.ServerTool {
	tool := mcplib.NewTool("update_my_profile",
		mcplib.WithDescription("Set the authenticated employee's hire date. The hire date drives vacation accrual, so it must be set before balances are meaningful."),
		mcplib.WithString("hire_date",
			mcplib.Description("Hire date in YYYY-MM-DD format."),
			mcplib.Required(),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleUpdateMyProfile}
}

func (s *Server) handleUpdateMyProfile(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	ident, err := s.identity(ctx)
	if err != nil {
		return resultErr(err), nil
	}

	raw, ok := stringArg(req, "hire_date")
	if !ok || raw == "" {
		return resultErr(errors.New("update_my_profile: hire_date is required")), nil
	}
	hireDate, err := vacation.ParseDate(raw)
	if err != nil {
		return resultErr(fmt.Errorf("update_my_profile: invalid hire_date: %w", err)), nil
	}

	emp, err := s.svc.UpdateHireDate(ctx, *ident, hireDate)
	if err != nil {
		return resultErr(fmt.Errorf("update_my_profile: %w", err)), nil
	}

	s.logger.InfoContext(ctx, "mcp: hire date updated", "employee_id", emp.ID, "hire_date", raw)
	return resultJSON(toProfileSummary(emp))
}

// ─── get_my_balance ──────────────────────────────────────────────────────────

func (s *Server) toolGetMyBalance() mcpsrv.ServerTool {
	tool := mcplib.NewTool("get_my_balance",
		mcplib.WithDescription("Get the authenticated employee's vacation balance for a year: accrued, used, carryover, and available vacation days, plus optional-holiday usage. Defaults to the current year."),
		mcplib.WithNumber("year",
			mcplib.Description("Four-digit year. Omit for the current year."),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetMyBalance}
}

type balanceSummary struct {
	Year                      int `json:"year"`
	VacationAccrued           int `json:"vacation_accrued"`
	VacationUsed              int `json:"vacation_used"`
	Carryover                 int `json:"carryover"`
	VacationAvailable         int `json:"vacation_available"`
	OptionalHolidaysUsed      int `json:"optional_holidays_used"`
	OptionalHolidaysAvailable int `json:"optional_holidays_available"`
}

func (s *Server) handleGetMyBalance(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	ident, err := s.identity(ctx)
	if err != nil {
		return resultErr(err), nil
	}

	bal, err := s.svc.Balance(ctx, *ident, intArg(req, "year", 0))
	if err != nil {
		return resultErr(fmt.Errorf("get_my_balance: %w", err)), nil
	}
	return resultJSON(balanceSummary{
		Year:                      bal.Year,
		VacationAccrued:           bal.VacationAccrued,
		VacationUsed:              bal.VacationUsed,
		Carryover:                 bal.VacationCarryover,
		VacationAvailable:         bal.VacationAvailable,
		OptionalHolidaysUsed:      bal.OptionalHolidaysUsed,
		OptionalHolidaysAvailable: bal.OptionalHolidaysAvailable,
	})
}

// ─── get_my_vacations ────────────────────────────────────────────────────────

func (s *Server) toolGetMyVacations() mcpsrv.ServerTool {
	tool := mcplib.NewTool("get_my_vacations",
		mcplib.WithDescription("List the authenticated employee's vacation entries, newest first. Each entry has an id, type (vacation or optional_holiday), start and end dates, and the business days charged."),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetMyVacations}
}

type vacationSummary struct {
	ID           string `json:"id"`
	VacationType string `json:"vacation_type"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	BusinessDays int    `json:"business_days"`
	Status       string `json:"status"`
	Notes        string `json:"notes,omitempty"`
}

func (s *Server) handleGetMyVacations(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	ident, err := s.identity(ctx)
	if err != nil {
		return resultErr(err), nil
	}

	reqs, err := s.svc.ListRequests(ctx, *ident)
	if err != nil {
		return resultErr(fmt.Errorf("get_my_vacations: %w", err)), nil
	}

	summaries := make([]vacationSummary, 0, len(reqs))
	for _, r := range reqs {
		summaries = append(summaries, vacationSummary{
			ID:           r.ID,
			VacationType: string(r.Type),
			StartDate:    r.StartDate.String(),
			EndDate:      r.EndDate.String(),
			BusinessDays: r.BusinessDays,
			Status:       string(r.Status),
			Notes:        r.Notes,
		})
	}
	return resultJSON(summaries)
}

// ─── create_vacation_entry ───────────────────────────────────────────────────

func (s *Server) toolCreateVacationEntry() mcpsrv.ServerTool {
	tool := mcplib.NewTool("create_vacation_entry",
		mcplib.WithDescription(`Book time off for the authenticated employee.

Weekends and corporate holidays inside the range are not charged; only
business days count against the balance. The range must contain at least
one business day, must not start in the past, and must fit within the
remaining balance.`),
		mcplib.WithString("vacation_type",
			mcplib.Description("Either \"vacation\" or \"optional_holiday\"."),
			mcplib.Required(),
		),
		mcplib.WithString("start_date",
			mcplib.Description("First day off, YYYY-MM-DD."),
			mcplib.Required(),
		),
		mcplib.WithString("end_date",
			mcplib.Description("Last day off (inclusive), YYYY-MM-DD."),
			mcplib.Required(),
		),
		mcplib.WithString("notes",
			mcplib.Description("Optional free-text note."),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleCreateVacationEntry}
}

func (s *Server) handleCreateVacationEntry(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	ident, err := s.identity(ctx)
	if err != nil {
		return resultErr(err), nil
	}

	reqType, _ := stringArg(req, "vacation_type")
	rawStart, _ := stringArg(req, "start_date")
	rawEnd, _ := stringArg(req, "end_date")
	notes, _ := stringArg(req, "notes")

	start, err := vacation.ParseDate(rawStart)
	if err != nil {
		return resultErr(fmt.Errorf("create_vacation_entry: invalid start_date: %w", err)), nil
	}
	end, err := vacation.ParseDate(rawEnd)
	if err != nil {
		return resultErr(fmt.Errorf("create_vacation_entry: invalid end_date: %w", err)), nil
	}

	created, err := s.svc.CreateRequest(ctx, *ident, vacation.RequestType(reqType), start, end, notes)
	if err != nil {
		return resultErr(fmt.Errorf("create_vacation_entry: %w", err)), nil
	}

	s.logger.InfoContext(ctx, "mcp: vacation entry created",
		"id", created.ID, "type", reqType, "start", rawStart, "end", rawEnd, "business_days", created.BusinessDays)

	return resultJSON(vacationSummary{
		ID:           created.ID,
		VacationType: string(created.Type),
		StartDate:    created.StartDate.String(),
		EndDate:      created.EndDate.String(),
		BusinessDays: created.BusinessDays,
		Status:       string(created.Status),
		Notes:        created.Notes,
	})
}

// ─── delete_vacation_entry ───────────────────────────────────────────────────

func (s *Server) toolDeleteVacationEntry() mcpsrv.ServerTool {
	tool := mcplib.NewTool("delete_vacation_entry",
		mcplib.WithDescription("Cancel one of the authenticated employee's vacation entries. Entries that already started cannot be deleted."),
		mcplib.WithString("vacation_id",
			mcplib.Description("ID of the vacation entry, as returned by get_my_vacations."),
			mcplib.Required(),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleDeleteVacationEntry}
}

func (s *Server) handleDeleteVacationEntry(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	ident, err := s.identity(ctx)
	if err != nil {
		return resultErr(err), nil
	}

	id, ok := stringArg(req, "vacation_id")
	if !ok || id == "" {
		return resultErr(errors.New("delete_vacation_entry: vacation_id is required")), nil
	}

	if err := s.svc.DeleteRequest(ctx, *ident, id); err != nil {
		return resultErr(fmt.Errorf("delete_vacation_entry: %w", err)), nil
	}

	s.logger.InfoContext(ctx, "mcp: vacation entry deleted", "id", id)
	return resultText(fmt.Sprintf("Vacation entry %s deleted.", id)), nil
}

// ─── calc_business_days ──────────────────────────────────────────────────────

func (s *Server) toolCalcBusinessDays() mcpsrv.ServerTool {
	tool := mcplib.NewTool("calc_business_days",
		mcplib.WithDescription("Count the business days in a date range, excluding weekends and corporate holidays. Also lists the holidays that fall inside the range."),
		mcplib.WithString("start_date",
			mcplib.Description("Range start, YYYY-MM-DD."),
			mcplib.Required(),
		),
		mcplib.WithString("end_date",
			mcplib.Description("Range end (inclusive), YYYY-MM-DD."),
			mcplib.Required(),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleCalcBusinessDays}
}

func (s *Server) handleCalcBusinessDays(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	rawStart, _ := stringArg(req, "start_date")
	rawEnd, _ := stringArg(req, "end_date")

	start, err := vacation.ParseDate(rawStart)
	if err != nil {
		return resultErr(fmt.Errorf("calc_business_days: invalid start_date: %w", err)), nil
	}
	end, err := vacation.ParseDate(rawEnd)
	if err != nil {
		return resultErr(fmt.Errorf("calc_business_days: invalid end_date: %w", err)), nil
	}

	report, err := s.svc.ComputeBusinessDays(start, end)
	if err != nil {
		return resultErr(fmt.Errorf("calc_business_days: %w", err)), nil
	}
	return resultJSON(report)
}
