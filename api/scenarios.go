/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates a company's employees,
	components, salary structures, settings and policies that demonstrate
	specific engine features.

AVAILABLE SCENARIOS:

	standard-monthly:  Structured salary, GOSI, standard policies
	scoped-overtime:   Department overtime override beats the company rate
	loans-adjustments: Loan installments, disciplinary penalty, sick tiers
	end-of-service:    Long-tenure employee ready for final settlement

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Save settings, components and GOSI configuration
 3. Save policy documents (built from presets)
 4. Create employees with structures and assignments
 5. Optionally register loans and adjustments

USAGE VIA API:

	POST /api/scenarios/load
	{"id": "standard-monthly"}

	then preview a month:

	POST /api/payroll/preview
	{"employee_id": "emp-001", "year": 2025, "month": 6,
	 "attendance": {"present_days": 22, "overtime_weekday_hours": 6}}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: route handlers and input assembly
  - policy/presets.go: the policy configurations the loaders store
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/policy"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

const demoCompanyID = "co-1"

var scenarios = []ScenarioDTO{
	{
		ID:          "standard-monthly",
		Name:        "Standard Monthly Payroll",
		Description: "Structured salary with GOSI, overtime and lateness policies",
		Category:    "payroll",
	},
	{
		ID:          "scoped-overtime",
		Name:        "Scoped Overtime Override",
		Description: "Department-level overtime multiplier overriding the company rate",
		Category:    "policies",
	},
	{
		ID:          "loans-adjustments",
		Name:        "Loans & Adjustments",
		Description: "Loan installments, a disciplinary penalty and tiered sick leave",
		Category:    "adjustments",
	},
	{
		ID:          "end-of-service",
		Name:        "End of Service",
		Description: "Long-tenure employee ready for termination settlement",
		Category:    "settlement",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	// Scenario ID exists but not in list (shouldn't happen)
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ID {
	case "standard-monthly":
		err = h.loadStandardMonthlyScenario(ctx)
	case "scoped-overtime":
		err = h.loadScopedOvertimeScenario(ctx)
	case "loans-adjustments":
		err = h.loadLoansAdjustmentsScenario(ctx)
	case "end-of-service":
		err = h.loadEndOfServiceScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ID})
}

// ResetDatabase wipes all stored data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadStandardMonthlyScenario seeds a single company with one structured
// employee and the standard policy set.
func (h *Handler) loadStandardMonthlyScenario(ctx context.Context) error {
	if err := h.seedCompanyBaseline(ctx); err != nil {
		return err
	}

	from := calendar.NewDate(2024, time.January, 1)
	presets := []policy.Policy{
		policy.StandardOvertimePolicy("pol-ot-std", demoCompanyID, from),
		policy.LatenessDeductionPolicy("pol-late-std", demoCompanyID, from),
		policy.AbsenceDeductionPolicy("pol-abs-std", demoCompanyID, from),
		policy.UnpaidLeavePolicy("pol-leave-std", demoCompanyID, from),
	}
	if err := h.savePolicies(ctx, presets); err != nil {
		return err
	}

	return h.seedStructuredEmployee(ctx, "emp-001", "Amal Hassan",
		calendar.NewDate(2023, time.March, 1), 9000)
}

// loadScopedOvertimeScenario seeds a company-wide 1.5x overtime policy plus
// a department override at 2.0x. Operations staff resolve to the override;
// everyone else keeps the company rate.
func (h *Handler) loadScopedOvertimeScenario(ctx context.Context) error {
	if err := h.seedCompanyBaseline(ctx); err != nil {
		return err
	}

	from := calendar.NewDate(2024, time.January, 1)
	company := policy.StandardOvertimePolicy("pol-ot-company", demoCompanyID, from)

	override := policy.StandardOvertimePolicy("pol-ot-ops", demoCompanyID, from)
	override.Code = "OT-OPS"
	override.Name = "Operations Overtime"
	override.Scope = policy.ScopeDepartment
	override.DepartmentID = "dep-ops"
	for i := range override.Rules {
		override.Rules[i].Value = "2.0"
	}

	if err := h.savePolicies(ctx, []policy.Policy{company, override}); err != nil {
		return err
	}

	// Two employees, one inside the override's department.
	if err := h.seedStructuredEmployee(ctx, "emp-office", "Noor Saleh",
		calendar.NewDate(2022, time.June, 1), 8000); err != nil {
		return err
	}
	ops := sqlite.Employee{
		ID:           "emp-ops",
		CompanyID:    demoCompanyID,
		Name:         "Faisal Qahtani",
		DepartmentID: "dep-ops",
		HireDate:     time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC),
		GosiEligible: true,
	}
	if err := h.Store.SaveEmployee(ctx, ops); err != nil {
		return err
	}
	return h.Store.SaveAssignment(ctx, sqlite.Assignment{
		ID:          "assign-ops",
		EmployeeID:  "emp-ops",
		TotalSalary: money.FromFloat(8000),
	})
}

// loadLoansAdjustmentsScenario seeds an employee carrying a loan, a
// disciplinary penalty and a sick-leave history on tiered pay.
func (h *Handler) loadLoansAdjustmentsScenario(ctx context.Context) error {
	if err := h.seedCompanyBaseline(ctx); err != nil {
		return err
	}

	from := calendar.NewDate(2024, time.January, 1)
	if err := h.savePolicies(ctx, []policy.Policy{
		policy.LatenessDeductionPolicy("pol-late-std", demoCompanyID, from),
		policy.AbsenceDeductionPolicy("pol-abs-std", demoCompanyID, from),
	}); err != nil {
		return err
	}

	if err := h.seedStructuredEmployee(ctx, "emp-002", "Reem Otaibi",
		calendar.NewDate(2021, time.September, 15), 12000); err != nil {
		return err
	}

	loan := engine.Loan{
		ID:               "loan-001",
		Description:      "Car advance",
		MonthlyDeduction: money.FromFloat(750),
		Balance:          money.FromFloat(4500),
	}
	if err := h.Store.SaveLoan(ctx, "emp-002", loan); err != nil {
		return err
	}

	penalty := engine.Disciplinary{
		ID:            "disc-001",
		Kind:          engine.DisciplinaryDeduction,
		Days:          decimal.NewFromInt(2),
		EffectiveDate: calendar.NewDate(2025, time.June, 10),
		Description:   "Safety violation",
	}
	return h.Store.SaveDisciplinary(ctx, "emp-002", penalty)
}

// loadEndOfServiceScenario seeds an employee with eight years of service
// and an accrued leave balance. Run payroll with a termination_date to see
// the settlement lines.
func (h *Handler) loadEndOfServiceScenario(ctx context.Context) error {
	if err := h.seedCompanyBaseline(ctx); err != nil {
		return err
	}
	return h.seedStructuredEmployee(ctx, "emp-eos", "Khalid Harbi",
		calendar.NewDate(2017, time.May, 1), 15000)
}

// =============================================================================
// SEED HELPERS
// =============================================================================

// seedCompanyBaseline stores the demo company's settings, components and
// GOSI configuration.
func (h *Handler) seedCompanyBaseline(ctx context.Context) error {
	doc := sqlite.SettingsDocument{
		Settings: engine.Settings{
			CompanyID:          demoCompanyID,
			ProrationBasis:     calendar.BasisCalendarDays,
			GeneralRateBasis:   calendar.BasisFixed30,
			OvertimeRateBasis:  calendar.BasisFixed30,
			AbsenceRateBasis:   calendar.BasisFixed30,
			OvertimeBaseSource: engine.OvertimeBaseBasic,
			HoursPerDay:        8,
			GracePeriodMinutes: 15,
			RoundingUnit:       decimal.NewFromInt(1),
		},
		SickTiers: []engine.SickTier{
			{FromDay: 1, ToDay: 30, PayPercent: decimal.NewFromInt(100)},
			{FromDay: 31, ToDay: 90, PayPercent: decimal.NewFromInt(75)},
			{FromDay: 91, ToDay: 120, PayPercent: decimal.Zero},
		},
	}
	if err := h.Store.SaveSettings(ctx, doc); err != nil {
		return err
	}

	components := []engine.Component{
		{Code: "BASIC", Name: "Basic Salary", Nature: policy.SignEarning, GosiEligible: true, Taxable: true, WpsIncluded: true},
		{Code: "HOUSING", Name: "Housing Allowance", Nature: policy.SignEarning, GosiEligible: true, WpsIncluded: true},
		{Code: "TRANSPORT", Name: "Transport Allowance", Nature: policy.SignEarning, WpsIncluded: true},
		{Code: "OVERTIME", Name: "Overtime", Nature: policy.SignEarning},
		{Code: "LATE_DED", Name: "Lateness Deduction", Nature: policy.SignDeduction},
		{Code: "ABSENCE_DED", Name: "Absence Deduction", Nature: policy.SignDeduction},
	}
	for _, c := range components {
		if err := h.Store.SaveComponent(ctx, demoCompanyID, c); err != nil {
			return err
		}
	}

	gosi := engine.GosiConfig{
		CompanyID:    demoCompanyID,
		EmployeeRate: decimal.NewFromFloat(9),
		SanedRate:    decimal.NewFromFloat(0.75),
		EmployerRate: decimal.NewFromFloat(9),
		HazardRate:   decimal.NewFromFloat(2),
		MinBase:      money.FromFloat(1500),
		MaxCap:       money.FromFloat(45000),
		Active:       true,
	}
	return h.Store.SaveGosiConfig(ctx, "gosi-demo", gosi)
}

// seedStructuredEmployee creates an employee with the customary
// basic/housing/transport split: 60% basic, 25% housing, rest transport.
func (h *Handler) seedStructuredEmployee(ctx context.Context, id, name string, hired calendar.Date, total float64) error {
	emp := sqlite.Employee{
		ID:           id,
		CompanyID:    demoCompanyID,
		Name:         name,
		HireDate:     hired.Time,
		GosiEligible: true,
	}
	if err := h.Store.SaveEmployee(ctx, emp); err != nil {
		return err
	}

	structureID := "st-" + id
	basic := total * 0.60
	housing := total * 0.25
	lines := []engine.StructureLine{
		{ComponentCode: "BASIC", Source: engine.SourceFixed, Amount: money.FromFloat(basic)},
		{ComponentCode: "HOUSING", Source: engine.SourceFixed, Amount: money.FromFloat(housing)},
		{ComponentCode: "TRANSPORT", Source: engine.SourceFixed, Amount: money.FromFloat(total - basic - housing)},
	}
	if err := h.Store.SaveStructureLines(ctx, structureID, lines); err != nil {
		return err
	}

	return h.Store.SaveAssignment(ctx, sqlite.Assignment{
		ID:          "assign-" + id,
		EmployeeID:  id,
		TotalSalary: money.FromFloat(total),
		StructureID: structureID,
	})
}

// savePolicies marshals presets into documents and stores them.
func (h *Handler) savePolicies(ctx context.Context, presets []policy.Policy) error {
	for _, p := range presets {
		raw, err := policy.MarshalPolicy(p)
		if err != nil {
			return err
		}
		rec := sqlite.PolicyRecord{
			ID:         p.ID,
			CompanyID:  p.CompanyID,
			Code:       p.Code,
			Type:       string(p.Type),
			ConfigJSON: string(raw),
		}
		if err := h.Store.SavePolicy(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
