/*
calculator.go - The payroll calculation orchestrator

PURPOSE:
  The engine's single entry point. Runs the strictly sequential pipeline:

    Load -> Expand Structure -> Prorate -> Attendance Integration ->
    Policy Evaluation -> Statutory Contributions -> System Fallbacks ->
    Adjustments -> Aggregate -> Result

  Every step appends to an ordered trace so a reviewer can reconstruct
  the computation without re-running it.

DESIGN PRINCIPLES:
  1. Pure function of Input; identical inputs produce identical Results
  2. Component-level failures (one structure line, one rule) contribute
     zero and are recorded in the trace; never abort the calculation
  3. Whole-employee failures (missing assignment, circular dependency,
     hire after period) return a typed error so a batch run can skip the
     employee and keep going
  4. All rounding happens inside money.Money; the orchestrator only picks
     where the configured net rounding unit applies

USAGE:
  result, err := engine.Calculate(input)
  if err != nil {
      // typed: engine.IsNotFound / engine.IsClientError
  }

SEE ALSO:
  - types.go: Input and Result
  - structure.go, proration.go, attendance.go, gosi.go, adjustments.go
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/policy"
)

// =============================================================================
// TRACE
// =============================================================================

type tracer struct {
	steps []TraceStep
}

func (t *tracer) step(label, formula, result string) {
	t.steps = append(t.steps, TraceStep{Label: label, Formula: formula, Result: result})
}

// =============================================================================
// PIPELINE
// =============================================================================

// Calculate runs the full payroll pipeline for one employee and period.
func Calculate(in *Input) (*Result, error) {
	tr := &tracer{}

	// Load.
	if err := validate(in); err != nil {
		return nil, err
	}

	// Expand structure (unprorated monthly amounts).
	structureLines, err := expandStructure(in, tr)
	if err != nil {
		return nil, err
	}

	basic := basicSalary(structureLines, in.Assignment.TotalSalary)
	otBase := overtimeBase(in, structureLines, basic)

	// Prorate.
	factor, arithmetic := prorationFactor(in)
	tr.step("Proration factor", arithmetic, factor.String())
	prorated := applyProration(structureLines, factor)

	// Attendance integration: rates derive from full monthly bases and stay
	// unrounded until a line is emitted from them.
	r := deriveRates(in, basic, otBase)
	tr.step("Daily rate", fmt.Sprintf("%s / %s basis", basic, rateBasisLabel(in, false)),
		r.Daily.Round(4).String())
	tr.step("Hourly rate", fmt.Sprintf("%s / %d h", r.Daily.Round(4), hoursPerDay(in)),
		r.Hourly.Round(4).String())

	lines := make([]Line, 0, len(prorated)+8)
	lines = append(lines, prorated...)

	// Policy evaluation + system fallbacks.
	lines = append(lines, policyLines(in, basic, r, tr)...)

	// Statutory contributions on the prorated eligible earnings.
	lines = append(lines, statutoryLines(in, prorated, basic.Mul(factor), tr)...)

	// Adjustments, each group independent and additive.
	lines = append(lines, loanLines(in, tr)...)
	lines = append(lines, disciplinaryLines(in, r, tr)...)
	lines = append(lines, sickLeaveLines(in, r, tr)...)
	retro, settled := retroLines(in, tr)
	lines = append(lines, retro...)
	lines = append(lines, settlementLines(in, r, tr)...)
	lines = applyManualAdjustments(in, lines, tr)

	// Aggregate.
	res := &Result{
		EmployeeID:      in.Employee.ID,
		Period:          in.Period,
		BaseSalary:      basic,
		DailyRate:       money.New(r.Daily),
		HourlyRate:      money.New(r.Hourly),
		Attendance:      in.Attendance,
		Lines:           lines,
		SettledRetroIDs: settled,
	}
	aggregate(in, res, tr)
	res.Trace = tr.steps
	return res, nil
}

// =============================================================================
// LOAD / VALIDATION
// =============================================================================

func validate(in *Input) error {
	if in.Employee == nil {
		return ErrEmployeeNotFound
	}
	if in.Assignment == nil {
		return fmt.Errorf("employee %s: %w", in.Employee.ID, ErrAssignmentNotFound)
	}
	if in.Period.End.Before(in.Period.Start) {
		return &ValidationError{Field: "period", Reason: "end before start"}
	}
	if in.Employee.HireDate.After(in.Period.Start) {
		return &ValidationError{
			Field: "hireDate",
			Reason: fmt.Sprintf("hire date %s is after period start %s",
				in.Employee.HireDate, in.Period.Start),
		}
	}
	return nil
}

// =============================================================================
// BASES
// =============================================================================

// basicSalary is the BASIC structure line, or the assigned total when the
// structure has no explicit basic component.
func basicSalary(lines []Line, total money.Money) money.Money {
	for _, l := range lines {
		if l.ComponentCode == BasicComponentCode {
			return l.Amount
		}
	}
	return total
}

// overtimeBase adds allowance earnings on top of basic when settings say so.
func overtimeBase(in *Input, lines []Line, basic money.Money) money.Money {
	if in.Settings.OvertimeBaseSource != OvertimeBaseBasicAllowances {
		return basic
	}
	base := basic
	for _, l := range lines {
		if l.ComponentCode == BasicComponentCode || l.Sign != policy.SignEarning {
			continue
		}
		base = base.Add(l.Amount)
	}
	return base
}

func componentNature(components map[string]Component, code string) policy.Sign {
	if c, ok := components[code]; ok && c.Nature != "" {
		return c.Nature
	}
	return policy.SignEarning
}

func hoursPerDay(in *Input) int {
	if in.Settings.HoursPerDay > 0 {
		return in.Settings.HoursPerDay
	}
	return DefaultHoursPerDay
}

func rateBasisLabel(in *Input, overtime bool) string {
	basis := in.Settings.GeneralRateBasis
	if overtime {
		basis = in.Settings.OvertimeRateBasis
	}
	if basis == "" {
		return "30 days"
	}
	return string(basis)
}

// =============================================================================
// AGGREGATION
// =============================================================================

func aggregate(in *Input, res *Result, tr *tracer) {
	var earnings, deductions []money.Money
	for _, l := range res.Lines {
		if l.EmployerOnly {
			continue
		}
		switch l.Sign {
		case policy.SignEarning:
			earnings = append(earnings, l.Amount)
		case policy.SignDeduction:
			deductions = append(deductions, l.Amount)
		}
	}

	res.Gross = money.Sum(earnings)
	res.TotalDeductions = money.Sum(deductions)
	net := res.Gross.Sub(res.TotalDeductions)
	tr.step("Aggregate", fmt.Sprintf("gross %s - deductions %s", res.Gross, res.TotalDeductions),
		net.String())

	if !in.Settings.RoundingUnit.IsZero() {
		rounded := net.RoundToUnit(in.Settings.RoundingUnit)
		tr.step("Net rounding", fmt.Sprintf("round %s to nearest %s", net, in.Settings.RoundingUnit),
			rounded.String())
		net = rounded
	}
	res.Net = net
	res.NetNegative = net.IsNegative()

	ceiling := in.Settings.DeductionCeilingPercent
	if ceiling <= 0 {
		ceiling = DefaultDeductionCeilingPercent
	}
	if res.Gross.IsPositive() {
		limit := res.Gross.Percent(decimal.NewFromFloat(ceiling))
		if res.TotalDeductions.GreaterThan(limit) {
			w := CeilingWarning{
				Gross:        res.Gross,
				Deductions:   res.TotalDeductions,
				LimitPercent: ceiling,
			}
			res.Warnings = append(res.Warnings, w)
			tr.step("Deduction ceiling", w.String(), "warning")
		}
	}
}
