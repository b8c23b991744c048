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

TYPES:
  Employee:
    EmployeeDTO, CreateEmployeeRequest

  Payroll:
    PayrollRequest (period + attendance/leave facts), ResultDTO,
    LineDTO, TraceStepDTO, WarningDTO

  Configuration:
    GosiConfigRequest, LoanRequest, SettingsRequest, adjustment requests

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - engine/types.go: Domain records these map to
*/
package api

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/money"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID              string `json:"id"`
	CompanyID       string `json:"company_id"`
	Name            string `json:"name"`
	BranchID        string `json:"branch_id,omitempty"`
	DepartmentID    string `json:"department_id,omitempty"`
	JobTitleID      string `json:"job_title_id,omitempty"`
	HireDate        string `json:"hire_date"`
	TerminationDate string `json:"termination_date,omitempty"`
	GosiEligible    bool   `json:"gosi_eligible"`
}

// CreateEmployeeRequest creates an employee together with its active
// salary assignment and optional structure.
type CreateEmployeeRequest struct {
	ID           string `json:"id"`
	CompanyID    string `json:"company_id"`
	Name         string `json:"name"`
	BranchID     string `json:"branch_id,omitempty"`
	DepartmentID string `json:"department_id,omitempty"`
	JobTitleID   string `json:"job_title_id,omitempty"`
	HireDate     string `json:"hire_date"`
	GosiEligible bool   `json:"gosi_eligible"`

	TotalSalary decimal.Decimal      `json:"total_salary"`
	StructureID string               `json:"structure_id,omitempty"`
	Structure   []StructureLineDTO   `json:"structure,omitempty"`
}

// StructureLineDTO is one salary structure line.
type StructureLineDTO struct {
	ComponentCode string          `json:"component_code"`
	Source        string          `json:"source"` // FIXED | PERCENTAGE | FORMULA
	Amount        decimal.Decimal `json:"amount,omitempty"`
	Percent       decimal.Decimal `json:"percent,omitempty"`
	Formula       string          `json:"formula,omitempty"`
}

// =============================================================================
// PAYROLL
// =============================================================================

// PayrollRequest asks for a calculation of one employee and period.
// Attendance and leave facts come from the caller; everything else is
// loaded from the store.
type PayrollRequest struct {
	EmployeeID string `json:"employee_id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`

	Attendance AttendanceDTO `json:"attendance"`
	Leave      LeaveDTO      `json:"leave"`

	TerminationDate   string `json:"termination_date,omitempty"`
	TerminationReason string `json:"termination_reason,omitempty"`
}

// AttendanceDTO carries the period's attendance aggregates.
type AttendanceDTO struct {
	PresentDays          decimal.Decimal `json:"present_days"`
	AbsentDays           decimal.Decimal `json:"absent_days"`
	LateMinutes          decimal.Decimal `json:"late_minutes"`
	OvertimeWeekdayHours decimal.Decimal `json:"overtime_weekday_hours"`
	OvertimeWeekendHours decimal.Decimal `json:"overtime_weekend_hours"`
	OvertimeHolidayHours decimal.Decimal `json:"overtime_holiday_hours"`
}

// LeaveDTO carries the period's leave aggregates.
type LeaveDTO struct {
	PaidDays         decimal.Decimal `json:"paid_days"`
	UnpaidDays       decimal.Decimal `json:"unpaid_days"`
	SickDays         int             `json:"sick_days"`
	SickDaysPrior    int             `json:"sick_days_prior"`
	AccruedLeaveDays decimal.Decimal `json:"accrued_leave_days"`
}

// ResultDTO is the full calculation breakdown returned to clients.
type ResultDTO struct {
	EmployeeID  string `json:"employee_id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`

	BaseSalary money.Money `json:"base_salary"`
	DailyRate  money.Money `json:"daily_rate"`
	HourlyRate money.Money `json:"hourly_rate"`

	Lines []LineDTO `json:"lines"`

	Gross           money.Money `json:"gross"`
	TotalDeductions money.Money `json:"total_deductions"`
	Net             money.Money `json:"net"`
	NetNegative     bool        `json:"net_negative,omitempty"`

	Warnings []WarningDTO   `json:"warnings,omitempty"`
	Trace    []TraceStepDTO `json:"trace"`
}

// LineDTO is one payroll line.
type LineDTO struct {
	ComponentCode string          `json:"component_code"`
	Description   string          `json:"description"`
	Sign          string          `json:"sign"`
	Amount        money.Money     `json:"amount"`
	Units         decimal.Decimal `json:"units,omitempty"`
	Source        string          `json:"source"`
	PolicyID      string          `json:"policy_id,omitempty"`
	RuleID        string          `json:"rule_id,omitempty"`
	EmployerOnly  bool            `json:"employer_only,omitempty"`
}

// TraceStepDTO is one audited computation step.
type TraceStepDTO struct {
	Label   string `json:"label"`
	Formula string `json:"formula"`
	Result  string `json:"result"`
}

// WarningDTO flags a review condition attached to the result.
type WarningDTO struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// PayslipDTO is a persisted calculation summary.
type PayslipDTO struct {
	ID          string      `json:"id"`
	EmployeeID  string      `json:"employee_id"`
	PeriodStart string      `json:"period_start"`
	PeriodEnd   string      `json:"period_end"`
	Gross       money.Money `json:"gross"`
	Deductions  money.Money `json:"deductions"`
	Net         money.Money `json:"net"`
	CreatedAt   string      `json:"created_at"`
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// PolicyDTO wraps a stored policy document.
type PolicyDTO struct {
	ID        string          `json:"id"`
	CompanyID string          `json:"company_id"`
	Code      string          `json:"code"`
	Type      string          `json:"type"`
	Config    json.RawMessage `json:"config"`
	CreatedAt string          `json:"created_at,omitempty"`
}

// GosiConfigRequest creates or replaces the active GOSI configuration.
type GosiConfigRequest struct {
	CompanyID     string          `json:"company_id"`
	EmployeeRate  decimal.Decimal `json:"employee_rate"`
	SanedRate     decimal.Decimal `json:"saned_rate"`
	EmployerRate  decimal.Decimal `json:"employer_rate"`
	HazardRate    decimal.Decimal `json:"hazard_rate"`
	MinBase       decimal.Decimal `json:"min_base"`
	MaxCap        decimal.Decimal `json:"max_cap"`
	NationalsOnly bool            `json:"nationals_only"`
}

// LoanRequest registers an outstanding advance.
type LoanRequest struct {
	EmployeeID       string          `json:"employee_id"`
	Description      string          `json:"description,omitempty"`
	MonthlyDeduction decimal.Decimal `json:"monthly_deduction"`
	Balance          decimal.Decimal `json:"balance"`
}

// DisciplinaryRequest registers a penalty or reversing credit.
type DisciplinaryRequest struct {
	EmployeeID    string          `json:"employee_id"`
	Kind          string          `json:"kind"` // DEDUCTION | CREDIT
	Days          decimal.Decimal `json:"days,omitempty"`
	Amount        decimal.Decimal `json:"amount,omitempty"`
	EffectiveDate string          `json:"effective_date"`
	Description   string          `json:"description,omitempty"`
}

// RetroRequest registers a pending retroactive pay record.
type RetroRequest struct {
	EmployeeID    string          `json:"employee_id"`
	Amount        decimal.Decimal `json:"amount"`
	Sign          string          `json:"sign,omitempty"` // EARNING | DEDUCTION
	EffectiveDate string          `json:"effective_date"`
	Description   string          `json:"description,omitempty"`
}

// ManualAdjustmentRequest registers an approved manual adjustment for a
// specific period.
type ManualAdjustmentRequest struct {
	EmployeeID    string          `json:"employee_id"`
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	Kind          string          `json:"kind"` // MANUAL_ADDITION | MANUAL_DEDUCTION | WAIVE_DEDUCTION
	ComponentCode string          `json:"component_code,omitempty"`
	Amount        decimal.Decimal `json:"amount,omitempty"`
	Description   string          `json:"description,omitempty"`
}

// SettingsRequest replaces a company's calculation settings document.
type SettingsRequest struct {
	Settings  engine.Settings   `json:"settings"`
	SickTiers []engine.SickTier `json:"sick_tiers,omitempty"`
}

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

// LoadScenarioRequest picks a scenario by id.
type LoadScenarioRequest struct {
	ID string `json:"id"`
}
