/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the calculation engine via REST API. Handles HTTP
  request/response, JSON serialization, assembles engine inputs from the
  store, and hands results back to it.

ENDPOINTS:
  Employees:
    GET    /api/employees?company_id=   List employees
    POST   /api/employees               Create employee + assignment
    GET    /api/employees/{id}          Get employee details
    GET    /api/employees/{id}/payslips Persisted payslips
    GET    /api/employees/{id}/loans    Outstanding loans

  Payroll:
    POST   /api/payroll/preview         Compute without persisting
    POST   /api/payroll/run             Compute and persist the payslip

  Policies:
    GET    /api/policies?company_id=    List policy documents
    POST   /api/policies                Create/replace from JSON
    GET    /api/policies/{id}
    DELETE /api/policies/{id}

  Configuration:
    POST   /api/gosi                    Replace active GOSI configuration
    GET    /api/gosi/{companyID}
    POST   /api/settings                Replace company settings
    GET    /api/settings/{companyID}
    POST   /api/loans
    POST   /api/adjustments/disciplinary
    POST   /api/adjustments/retro
    POST   /api/adjustments/manual

  Scenarios:
    GET    /api/scenarios               List demo scenarios
    POST   /api/scenarios/load          Load a demo scenario
    POST   /api/scenarios/reset         Wipe the database

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Assemble engine.Input from the store + request facts
  4. Run the engine / store mutation
  5. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/policy"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store
	Log   zerolog.Logger

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, log zerolog.Logger) *Handler {
	return &Handler{Store: store, Log: log}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees of a company.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "company_id query parameter is required", nil)
		return
	}
	employees, err := h.Store.ListEmployees(r.Context(), companyID)
	if err != nil {
		h.fail(w, "Failed to list employees", err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee creates an employee with its active salary assignment
// and optional structure.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	hireDate, err := time.Parse("2006-01-02", req.HireDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hire_date format (use YYYY-MM-DD)", err)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CompanyID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "company_id and name are required", nil)
		return
	}

	emp := sqlite.Employee{
		ID:           req.ID,
		CompanyID:    req.CompanyID,
		Name:         req.Name,
		BranchID:     req.BranchID,
		DepartmentID: req.DepartmentID,
		JobTitleID:   req.JobTitleID,
		HireDate:     hireDate,
		GosiEligible: req.GosiEligible,
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		h.fail(w, "Failed to save employee", err)
		return
	}

	structureID := req.StructureID
	if len(req.Structure) > 0 {
		if structureID == "" {
			structureID = "st-" + req.ID
		}
		lines := make([]engine.StructureLine, len(req.Structure))
		for i, sl := range req.Structure {
			lines[i] = engine.StructureLine{
				ComponentCode: sl.ComponentCode,
				Source:        engine.ValueSource(sl.Source),
				Amount:        money.New(sl.Amount),
				Percent:       sl.Percent,
				Formula:       sl.Formula,
			}
		}
		if err := h.Store.SaveStructureLines(r.Context(), structureID, lines); err != nil {
			h.fail(w, "Failed to save structure", err)
			return
		}
	}

	assignment := sqlite.Assignment{
		ID:          uuid.NewString(),
		EmployeeID:  req.ID,
		TotalSalary: money.New(req.TotalSalary),
		StructureID: structureID,
	}
	if err := h.Store.SaveAssignment(r.Context(), assignment); err != nil {
		h.fail(w, "Failed to save assignment", err)
		return
	}

	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// ListEmployeePayslips returns persisted payslips, newest first.
func (h *Handler) ListEmployeePayslips(w http.ResponseWriter, r *http.Request) {
	slips, err := h.Store.ListPayslips(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to list payslips", err)
		return
	}
	dtos := make([]PayslipDTO, len(slips))
	for i, p := range slips {
		dtos[i] = PayslipDTO{
			ID:          p.ID,
			EmployeeID:  p.EmployeeID,
			PeriodStart: p.Period.Start.String(),
			PeriodEnd:   p.Period.End.String(),
			Gross:       p.Gross,
			Deductions:  p.Deductions,
			Net:         p.Net,
			CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListEmployeeLoans returns the employee's outstanding loans.
func (h *Handler) ListEmployeeLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.Store.ListActiveLoans(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to list loans", err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}

func toEmployeeDTO(e sqlite.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:           e.ID,
		CompanyID:    e.CompanyID,
		Name:         e.Name,
		BranchID:     e.BranchID,
		DepartmentID: e.DepartmentID,
		JobTitleID:   e.JobTitleID,
		HireDate:     e.HireDate.Format("2006-01-02"),
		GosiEligible: e.GosiEligible,
	}
	if e.TerminationDate != nil {
		dto.TerminationDate = e.TerminationDate.Format("2006-01-02")
	}
	return dto
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// PreviewPayroll computes a full result without persisting anything.
func (h *Handler) PreviewPayroll(w http.ResponseWriter, r *http.Request) {
	input, _, ok := h.parseAndAssemble(w, r)
	if !ok {
		return
	}
	result, err := engine.Calculate(input)
	if err != nil {
		h.calculationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultDTO(result))
}

// RunPayroll computes and persists: stores the payslip, reduces loan
// balances and marks applied retroactive records settled.
func (h *Handler) RunPayroll(w http.ResponseWriter, r *http.Request) {
	input, req, ok := h.parseAndAssemble(w, r)
	if !ok {
		return
	}
	result, err := engine.Calculate(input)
	if err != nil {
		h.calculationError(w, err)
		return
	}

	ctx := r.Context()
	raw, err := marshalResult(result)
	if err != nil {
		h.fail(w, "Failed to serialize result", err)
		return
	}
	slip := sqlite.Payslip{
		ID:         uuid.NewString(),
		EmployeeID: result.EmployeeID,
		Period:     result.Period,
		Gross:      result.Gross,
		Deductions: result.TotalDeductions,
		Net:        result.Net,
		ResultJSON: raw,
	}
	if err := h.Store.SavePayslip(ctx, slip); err != nil {
		h.fail(w, "Failed to persist payslip", err)
		return
	}

	if err := h.applyInstallments(ctx, input); err != nil {
		h.fail(w, "Failed to apply loan installments", err)
		return
	}
	if len(result.SettledRetroIDs) > 0 {
		if err := h.Store.MarkRetroSettled(ctx, result.SettledRetroIDs); err != nil {
			h.fail(w, "Failed to settle retroactive records", err)
			return
		}
	}

	h.Log.Info().
		Str("employee_id", req.EmployeeID).
		Int("year", req.Year).
		Int("month", req.Month).
		Str("net", result.Net.String()).
		Msg("payroll run persisted")
	writeJSON(w, http.StatusOK, toResultDTO(result))
}

// applyInstallments reduces every loan by the installment the run deducted.
func (h *Handler) applyInstallments(ctx context.Context, input *engine.Input) error {
	for _, loan := range input.Loans {
		installment := loan.MonthlyDeduction.Min(loan.Balance)
		if installment.IsZero() {
			continue
		}
		if err := h.Store.ApplyLoanInstallment(ctx, loan.ID, installment); err != nil {
			return err
		}
	}
	return nil
}

// parseAndAssemble decodes a PayrollRequest and loads everything else the
// engine needs from the store.
func (h *Handler) parseAndAssemble(w http.ResponseWriter, r *http.Request) (*engine.Input, *PayrollRequest, bool) {
	var req PayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return nil, nil, false
	}
	if req.EmployeeID == "" || req.Year == 0 || req.Month < 1 || req.Month > 12 {
		writeError(w, http.StatusBadRequest, "employee_id, year and month are required", nil)
		return nil, nil, false
	}

	input, err := h.assembleInput(r.Context(), &req)
	if err != nil {
		h.calculationError(w, err)
		return nil, nil, false
	}
	return input, &req, true
}

// assembleInput gathers the full engine input for one employee and period.
func (h *Handler) assembleInput(ctx context.Context, req *PayrollRequest) (*engine.Input, error) {
	row, err := h.Store.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, engine.ErrEmployeeNotFound
	}
	emp := row.ToDomain()

	assignment, err := h.Store.GetActiveAssignment(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, fmt.Errorf("employee %s: %w", req.EmployeeID, engine.ErrAssignmentNotFound)
	}

	var structure []engine.StructureLine
	if assignment.StructureID != "" {
		structure, err = h.Store.ListStructureLines(ctx, assignment.StructureID)
		if err != nil {
			return nil, err
		}
	}

	components, err := h.Store.ListComponents(ctx, row.CompanyID)
	if err != nil {
		return nil, err
	}

	doc, err := h.Store.GetSettings(ctx, row.CompanyID)
	if err != nil {
		return nil, err
	}
	settings := engine.Settings{CompanyID: row.CompanyID}
	var tiers []engine.SickTier
	if doc != nil {
		settings = doc.Settings
		tiers = doc.SickTiers
	}

	policies, err := h.Store.ParsedPolicies(ctx, row.CompanyID)
	if err != nil {
		return nil, err
	}
	gosi, err := h.Store.GetActiveGosiConfig(ctx, row.CompanyID)
	if err != nil {
		return nil, err
	}

	period := calendar.MonthPeriod(req.Year, time.Month(req.Month))

	loans, err := h.Store.ListActiveLoans(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	disciplinary, err := h.Store.ListDisciplinary(ctx, req.EmployeeID, period)
	if err != nil {
		return nil, err
	}
	retro, err := h.Store.ListPendingRetro(ctx, req.EmployeeID, period.End)
	if err != nil {
		return nil, err
	}
	manual, err := h.Store.ListManualAdjustments(ctx, req.EmployeeID, period.Start)
	if err != nil {
		return nil, err
	}

	input := &engine.Input{
		Employee:   emp,
		Assignment: assignment.ToDomain(),
		Structure:  structure,
		Components: components,
		Settings:   settings,
		Period:     period,
		Attendance: engine.Attendance{
			PresentDays:          req.Attendance.PresentDays,
			AbsentDays:           req.Attendance.AbsentDays,
			LateMinutes:          req.Attendance.LateMinutes,
			OvertimeWeekdayHours: req.Attendance.OvertimeWeekdayHours,
			OvertimeWeekendHours: req.Attendance.OvertimeWeekendHours,
			OvertimeHolidayHours: req.Attendance.OvertimeHolidayHours,
		},
		Leave: engine.Leave{
			PaidDays:         req.Leave.PaidDays,
			UnpaidDays:       req.Leave.UnpaidDays,
			SickDays:         req.Leave.SickDays,
			SickDaysPrior:    req.Leave.SickDaysPrior,
			AccruedLeaveDays: req.Leave.AccruedLeaveDays,
		},
		SickTiers:    tiers,
		Policies:     policies,
		Gosi:         gosi,
		Loans:        loans,
		Disciplinary: disciplinary,
		Retro:        retro,
		Manual:       manual,
	}

	if req.TerminationDate != "" {
		t, err := time.Parse("2006-01-02", req.TerminationDate)
		if err != nil {
			return nil, &engine.ValidationError{Field: "termination_date", Reason: "use YYYY-MM-DD"}
		}
		reason := engine.TerminationReason(req.TerminationReason)
		if reason == "" {
			reason = engine.ReasonTermination
		}
		input.Termination = &engine.Termination{Date: calendar.FromTime(t), Reason: reason}
	}
	return input, nil
}

// marshalResult serializes the full breakdown for payslip storage.
func marshalResult(res *engine.Result) (string, error) {
	raw, err := json.Marshal(toResultDTO(res))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func toResultDTO(res *engine.Result) ResultDTO {
	dto := ResultDTO{
		EmployeeID:      res.EmployeeID,
		PeriodStart:     res.Period.Start.String(),
		PeriodEnd:       res.Period.End.String(),
		BaseSalary:      res.BaseSalary,
		DailyRate:       res.DailyRate,
		HourlyRate:      res.HourlyRate,
		Gross:           res.Gross,
		TotalDeductions: res.TotalDeductions,
		Net:             res.Net,
		NetNegative:     res.NetNegative,
	}
	dto.Lines = make([]LineDTO, len(res.Lines))
	for i, l := range res.Lines {
		dto.Lines[i] = LineDTO{
			ComponentCode: l.ComponentCode,
			Description:   l.Description,
			Sign:          string(l.Sign),
			Amount:        l.Amount,
			Units:         l.Units,
			Source:        string(l.Source),
			PolicyID:      l.PolicyID,
			RuleID:        l.RuleID,
			EmployerOnly:  l.EmployerOnly,
		}
	}
	for _, warning := range res.Warnings {
		dto.Warnings = append(dto.Warnings, WarningDTO{
			Kind:    "deduction_ceiling",
			Message: warning.String(),
		})
	}
	dto.Trace = make([]TraceStepDTO, len(res.Trace))
	for i, s := range res.Trace {
		dto.Trace[i] = TraceStepDTO{Label: s.Label, Formula: s.Formula, Result: s.Result}
	}
	return dto
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// ListPolicies returns all stored policy documents for a company.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "company_id query parameter is required", nil)
		return
	}
	records, err := h.Store.ListPolicies(r.Context(), companyID)
	if err != nil {
		h.fail(w, "Failed to list policies", err)
		return
	}
	dtos := make([]PolicyDTO, len(records))
	for i, rec := range records {
		dtos[i] = toPolicyDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPolicy returns one policy document.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.GetPolicy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get policy", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Policy not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyDTO(*rec))
}

// CreatePolicy validates the posted document and stores it.
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	parsed, err := policy.ParsePolicy(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid policy document", err)
		return
	}
	id := parsed.ID
	if id == "" {
		id = uuid.NewString()
	}
	rec := sqlite.PolicyRecord{
		ID:         id,
		CompanyID:  parsed.CompanyID,
		Code:       parsed.Code,
		Type:       string(parsed.Type),
		ConfigJSON: string(raw),
	}
	if err := h.Store.SavePolicy(r.Context(), rec); err != nil {
		h.fail(w, "Failed to save policy", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPolicyDTO(rec))
}

// DeletePolicy removes a policy document.
func (h *Handler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeletePolicy(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "Failed to delete policy", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toPolicyDTO(rec sqlite.PolicyRecord) PolicyDTO {
	return PolicyDTO{
		ID:        rec.ID,
		CompanyID: rec.CompanyID,
		Code:      rec.Code,
		Type:      rec.Type,
		Config:    json.RawMessage(rec.ConfigJSON),
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// CONFIGURATION HANDLERS
// =============================================================================

// SaveGosiConfig replaces the company's active GOSI configuration.
func (h *Handler) SaveGosiConfig(w http.ResponseWriter, r *http.Request) {
	var req GosiConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CompanyID == "" {
		writeError(w, http.StatusBadRequest, "company_id is required", nil)
		return
	}
	cfg := engine.GosiConfig{
		CompanyID:     req.CompanyID,
		EmployeeRate:  req.EmployeeRate,
		SanedRate:     req.SanedRate,
		EmployerRate:  req.EmployerRate,
		HazardRate:    req.HazardRate,
		MinBase:       money.New(req.MinBase),
		MaxCap:        money.New(req.MaxCap),
		NationalsOnly: req.NationalsOnly,
		Active:        true,
	}
	if err := h.Store.SaveGosiConfig(r.Context(), uuid.NewString(), cfg); err != nil {
		h.fail(w, "Failed to save GOSI configuration", err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

// GetGosiConfig returns the active configuration.
func (h *Handler) GetGosiConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Store.GetActiveGosiConfig(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		h.fail(w, "Failed to get GOSI configuration", err)
		return
	}
	if cfg == nil {
		writeError(w, http.StatusNotFound, "No active GOSI configuration", nil)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// SaveSettings replaces the company's settings document.
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Settings.CompanyID == "" {
		writeError(w, http.StatusBadRequest, "settings.CompanyID is required", nil)
		return
	}
	doc := sqlite.SettingsDocument{Settings: req.Settings, SickTiers: req.SickTiers}
	if err := h.Store.SaveSettings(r.Context(), doc); err != nil {
		h.fail(w, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// GetSettings returns the company's settings document.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Store.GetSettings(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		h.fail(w, "Failed to get settings", err)
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "No settings for company", nil)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// CreateLoan registers an outstanding advance.
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req LoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return
	}
	loan := engine.Loan{
		ID:               uuid.NewString(),
		Description:      req.Description,
		MonthlyDeduction: money.New(req.MonthlyDeduction),
		Balance:          money.New(req.Balance),
	}
	if err := h.Store.SaveLoan(r.Context(), req.EmployeeID, loan); err != nil {
		h.fail(w, "Failed to save loan", err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

// CreateDisciplinary registers a penalty or reversing credit.
func (h *Handler) CreateDisciplinary(w http.ResponseWriter, r *http.Request) {
	var req DisciplinaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	effective, err := time.Parse("2006-01-02", req.EffectiveDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effective_date format (use YYYY-MM-DD)", err)
		return
	}
	kind := engine.DisciplinaryKind(req.Kind)
	if kind != engine.DisciplinaryDeduction && kind != engine.DisciplinaryCredit {
		writeError(w, http.StatusBadRequest, "kind must be DEDUCTION or CREDIT", nil)
		return
	}
	d := engine.Disciplinary{
		ID:            uuid.NewString(),
		Kind:          kind,
		Days:          req.Days,
		Amount:        money.New(req.Amount),
		EffectiveDate: calendar.FromTime(effective),
		Description:   req.Description,
	}
	if err := h.Store.SaveDisciplinary(r.Context(), req.EmployeeID, d); err != nil {
		h.fail(w, "Failed to save disciplinary record", err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// CreateRetro registers a pending retroactive pay record.
func (h *Handler) CreateRetro(w http.ResponseWriter, r *http.Request) {
	var req RetroRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	effective, err := time.Parse("2006-01-02", req.EffectiveDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effective_date format (use YYYY-MM-DD)", err)
		return
	}
	rp := engine.RetroPay{
		ID:            uuid.NewString(),
		Amount:        money.New(req.Amount),
		Sign:          policy.Sign(req.Sign),
		EffectiveDate: calendar.FromTime(effective),
		Description:   req.Description,
	}
	if err := h.Store.SaveRetro(r.Context(), req.EmployeeID, rp); err != nil {
		h.fail(w, "Failed to save retroactive record", err)
		return
	}
	writeJSON(w, http.StatusCreated, rp)
}

// CreateManualAdjustment registers an approved adjustment for a period.
func (h *Handler) CreateManualAdjustment(w http.ResponseWriter, r *http.Request) {
	var req ManualAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Year == 0 || req.Month < 1 || req.Month > 12 {
		writeError(w, http.StatusBadRequest, "year and month are required", nil)
		return
	}
	kind := engine.AdjustmentKind(req.Kind)
	switch kind {
	case engine.AdjustManualAddition, engine.AdjustManualDeduction, engine.AdjustWaiveDeduction:
	default:
		writeError(w, http.StatusBadRequest,
			"kind must be MANUAL_ADDITION, MANUAL_DEDUCTION or WAIVE_DEDUCTION", nil)
		return
	}
	m := engine.ManualAdjustment{
		ID:            uuid.NewString(),
		Kind:          kind,
		ComponentCode: req.ComponentCode,
		Amount:        money.New(req.Amount),
		Description:   req.Description,
	}
	period := calendar.MonthPeriod(req.Year, time.Month(req.Month))
	if err := h.Store.SaveManualAdjustment(r.Context(), req.EmployeeID, period.Start, m); err != nil {
		h.fail(w, "Failed to save adjustment", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := errorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// fail logs and returns a 500.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	h.Log.Error().Err(err).Msg(message)
	writeError(w, http.StatusInternalServerError, message, err)
}

// calculationError maps engine error categories to HTTP statuses.
func (h *Handler) calculationError(w http.ResponseWriter, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Record not found", err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Calculation rejected", err)
	default:
		h.fail(w, "Calculation failed", err)
	}
}
