/*
types.go - Input and output model of the payroll calculation engine

PURPOSE:
  Defines everything the orchestrator consumes and emits. The engine is
  computation-only: every record here is assembled up front by the caller
  (from whatever store it uses) and the engine never performs I/O.

KEY CONCEPTS:
  Input:
    One employee, one period, and every fact needed to pay them: the active
    salary assignment (optionally with a structure), company settings,
    attendance and leave aggregates, applicable policies, the active social
    insurance configuration, outstanding loans, pending adjustments, and an
    optional termination.

  Line:
    One monetary effect on the payslip. Carries a source tag (structure,
    statutory, policy, system fallback, loan, adjustment, retroactive,
    settlement) for downstream ledger classification, and provenance back
    to the policy/rule that produced it. Employer-only statutory lines are
    flagged so they never enter the employee-visible gross or net.

  Result:
    The full breakdown plus an ordered trace. Re-running Calculate with an
    identical Input produces an identical Result - there is no hidden state.

SEE ALSO:
  - calculator.go: The pipeline that turns Input into Result
  - policy/types.go: Policy and Rule records referenced here
*/
package engine

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/policy"
)

// =============================================================================
// ORGANIZATIONAL RECORDS
// =============================================================================

// Employee is the identity slice the engine needs. Immutable for the
// duration of one calculation.
type Employee struct {
	ID           string
	Name         string
	BranchID     string
	DepartmentID string
	JobTitleID   string

	HireDate        calendar.Date
	TerminationDate *calendar.Date

	// GosiEligible marks employees covered by social insurance
	// (e.g. nationals when the configuration is nationals-only).
	GosiEligible bool
}

// Scope returns the employee's organizational placement for policy
// resolution.
func (e Employee) Scope() policy.EmployeeScope {
	return policy.EmployeeScope{
		EmployeeID:   e.ID,
		JobTitleID:   e.JobTitleID,
		DepartmentID: e.DepartmentID,
		BranchID:     e.BranchID,
	}
}

// SalaryAssignment is the active contracted salary. Exactly one is active
// per employee at any instant; the caller enforces that.
type SalaryAssignment struct {
	EmployeeID  string
	TotalSalary money.Money
	StructureID string // empty when no structure is attached
}

// =============================================================================
// SALARY STRUCTURE
// =============================================================================

// ValueSource selects how a structure line produces its amount.
type ValueSource string

const (
	SourceFixed      ValueSource = "FIXED"
	SourcePercentage ValueSource = "PERCENTAGE" // percentage of total salary
	SourceFormula    ValueSource = "FORMULA"    // may reference other lines by component code
)

// StructureLine is one component of a salary structure. Formula-valued
// lines may reference other lines' component codes, forming a dependency
// graph that must be acyclic.
type StructureLine struct {
	ComponentCode string
	Source        ValueSource
	Amount        money.Money     // SourceFixed
	Percent       decimal.Decimal // SourcePercentage, 0-100
	Formula       string          // SourceFormula
}

// Component describes a salary component's nature and statutory flags.
type Component struct {
	Code         string
	Name         string
	Nature       policy.Sign // earning or deduction
	GosiEligible bool        // included in the social insurance base
	Taxable      bool
	WpsIncluded  bool // included in the wage protection export
}

// =============================================================================
// COMPANY SETTINGS
// =============================================================================

// OvertimeBase selects which earnings feed the overtime hourly rate.
type OvertimeBase string

const (
	OvertimeBaseBasic           OvertimeBase = "BASIC"
	OvertimeBaseBasicAllowances OvertimeBase = "BASIC_PLUS_ALLOWANCES"
)

// Settings carries the company's payroll calculation configuration.
type Settings struct {
	CompanyID string

	// Proration
	ProrationBasis   calendar.DayCountBasis
	ExcludeWeekends  bool // proration counts workdays only

	// Rate derivation bases; each purpose may use a different basis.
	GeneralRateBasis  calendar.DayCountBasis
	OvertimeRateBasis calendar.DayCountBasis
	AbsenceRateBasis  calendar.DayCountBasis

	OvertimeBaseSource OvertimeBase
	HoursPerDay        int // hourly rate = daily rate / HoursPerDay

	GracePeriodMinutes int // lateness below this costs nothing

	// RoundingUnit rounds the net to a multiple (e.g. 1 = whole riyals).
	// Zero disables net rounding.
	RoundingUnit decimal.Decimal

	// DeductionCeilingPercent flags (never blocks) calculations whose
	// deductions exceed this fraction of gross. Zero means the default.
	DeductionCeilingPercent float64
}

// DefaultDeductionCeilingPercent is the statutory review threshold applied
// when settings leave it unset.
const DefaultDeductionCeilingPercent = 50.0

// DefaultHoursPerDay applies when settings leave HoursPerDay unset.
const DefaultHoursPerDay = 8

// =============================================================================
// PERIOD FACTS
// =============================================================================

// Attendance aggregates the period's attendance facts. Overtime hours are
// split by day category because policies price them differently.
type Attendance struct {
	PresentDays decimal.Decimal
	AbsentDays  decimal.Decimal
	LateMinutes decimal.Decimal

	OvertimeWeekdayHours decimal.Decimal
	OvertimeWeekendHours decimal.Decimal
	OvertimeHolidayHours decimal.Decimal
}

// TotalOvertimeHours sums all overtime categories.
func (a Attendance) TotalOvertimeHours() decimal.Decimal {
	return a.OvertimeWeekdayHours.Add(a.OvertimeWeekendHours).Add(a.OvertimeHolidayHours)
}

// Leave aggregates the period's leave facts.
type Leave struct {
	PaidDays   decimal.Decimal
	UnpaidDays decimal.Decimal

	// SickDays taken inside this period; SickDaysPrior is the cumulative
	// count already taken in the rolling sick-leave year, used to place
	// this period's days on the pay tiers.
	SickDays      int
	SickDaysPrior int

	// AccruedLeaveDays is the untaken balance paid out on settlement.
	AccruedLeaveDays decimal.Decimal
}

// SickTier is one band of the sick-leave pay schedule: days FromDay..ToDay
// (cumulative, 1-based, inclusive) are paid at PayPercent of the daily rate.
type SickTier struct {
	FromDay    int
	ToDay      int
	PayPercent decimal.Decimal // 0-100
}

// =============================================================================
// STATUTORY CONFIGURATION
// =============================================================================

// GosiConfig is the per-company social insurance configuration.
// Rates are expressed 0-100.
type GosiConfig struct {
	CompanyID string

	EmployeeRate decimal.Decimal // pension, employee side
	SanedRate    decimal.Decimal // unemployment insurance, employee side
	EmployerRate decimal.Decimal // pension, employer side
	HazardRate   decimal.Decimal // occupational hazard, employer side

	MinBase money.Money
	MaxCap  money.Money // zero means the statutory default cap

	NationalsOnly bool
	Active        bool
}

// DefaultGosiCap is the statutory contribution base cap applied when the
// configuration leaves MaxCap unset.
var DefaultGosiCap = money.FromFloat(45000)

// =============================================================================
// OBLIGATIONS AND ADJUSTMENTS
// =============================================================================

// Loan is an outstanding advance repaid by monthly installment. The engine
// deducts the lesser of MonthlyDeduction and Balance.
type Loan struct {
	ID               string
	Description      string
	MonthlyDeduction money.Money
	Balance          money.Money
}

// DisciplinaryKind distinguishes penalty deductions from reversing credits.
type DisciplinaryKind string

const (
	DisciplinaryDeduction DisciplinaryKind = "DEDUCTION"
	DisciplinaryCredit    DisciplinaryKind = "CREDIT"
)

// Disciplinary is a penalty (or its reversal) applied this period. Either
// Days or Amount is set; days-based penalties are valued at the daily rate
// and capped to the days remaining in the period from EffectiveDate.
type Disciplinary struct {
	ID            string
	Kind          DisciplinaryKind
	Days          decimal.Decimal
	Amount        money.Money
	EffectiveDate calendar.Date
	Description   string
}

// RetroPay is a pending retroactive pay record. Records effective within
// or before the period are applied and reported settled in the result.
type RetroPay struct {
	ID            string
	Amount        money.Money
	Sign          policy.Sign
	EffectiveDate calendar.Date
	Description   string
}

// AdjustmentKind classifies approved manual payroll adjustments.
type AdjustmentKind string

const (
	AdjustManualAddition  AdjustmentKind = "MANUAL_ADDITION"
	AdjustManualDeduction AdjustmentKind = "MANUAL_DEDUCTION"
	AdjustWaiveDeduction  AdjustmentKind = "WAIVE_DEDUCTION"
)

// ManualAdjustment is an approved, reviewer-entered adjustment.
// WAIVE_DEDUCTION removes a previously emitted deduction line for the
// named component.
type ManualAdjustment struct {
	ID            string
	Kind          AdjustmentKind
	ComponentCode string
	Amount        money.Money
	Description   string
}

// TerminationReason drives end-of-service indemnity fractions.
type TerminationReason string

const (
	ReasonTermination TerminationReason = "TERMINATION"
	ReasonResignation TerminationReason = "RESIGNATION"
)

// Termination marks the end of employment inside the period.
type Termination struct {
	Date   calendar.Date
	Reason TerminationReason
}

// =============================================================================
// CALCULATION INPUT
// =============================================================================

// Input is everything one calculation needs, assembled up front.
type Input struct {
	Employee   *Employee
	Assignment *SalaryAssignment
	Structure  []StructureLine      // empty when no structure attached
	Components map[string]Component // by component code
	Settings   Settings
	Period     calendar.Period

	Attendance Attendance
	Leave      Leave
	SickTiers  []SickTier

	Policies []policy.Policy
	Gosi     *GosiConfig // nil means no statutory contribution

	Loans        []Loan
	Disciplinary []Disciplinary
	Retro        []RetroPay
	Manual       []ManualAdjustment
	Termination  *Termination
}

// =============================================================================
// CALCULATION OUTPUT
// =============================================================================

// LineSource classifies where a payroll line came from.
type LineSource string

const (
	LineStructure  LineSource = "STRUCTURE"
	LineStatutory  LineSource = "STATUTORY"
	LinePolicy     LineSource = "POLICY"
	LineFallback   LineSource = "SYSTEM_FALLBACK"
	LineLoan       LineSource = "LOAN"
	LineAdjustment LineSource = "ADJUSTMENT"
	LineRetro      LineSource = "RETROACTIVE"
	LineSettlement LineSource = "SETTLEMENT"
)

// Line is one emitted monetary effect.
type Line struct {
	ComponentCode string
	Description   string
	Sign          policy.Sign
	Amount        money.Money
	Units         decimal.Decimal
	Source        LineSource

	// Provenance for policy-derived lines.
	PolicyID string
	RuleID   string

	// EmployerOnly lines (employer GOSI share) are excluded from the
	// employee-visible gross, deductions and net.
	EmployerOnly bool
}

// TraceStep records one computation step for audit.
type TraceStep struct {
	Label   string
	Formula string
	Result  string
}

// Result is the complete payslip breakdown.
type Result struct {
	EmployeeID string
	Period     calendar.Period

	BaseSalary money.Money
	DailyRate  money.Money
	HourlyRate money.Money

	Attendance Attendance
	Lines      []Line

	Gross           money.Money
	TotalDeductions money.Money
	Net             money.Money
	NetNegative     bool

	SettledRetroIDs []string
	Warnings        []CeilingWarning
	Trace           []TraceStep
}
