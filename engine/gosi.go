/*
gosi.go - Statutory social insurance contributions

PURPOSE:
  Computes the GOSI employee deduction and employer contribution for one
  period. Missing configuration or an ineligible employee contributes
  nothing; this is a fallback, not an error.

KEY CONCEPTS:
  Contribution base:
    Sum of GOSI-eligible earning lines, falling back to the basic salary
    when no line is flagged eligible, then clamped to [MinBase, MaxCap].

  Shares (rates expressed 0-100):
    employee = base x (employeeRate + sanedRate) / 100
    employer = base x (employerRate + hazardRate) / 100
    SANED (unemployment insurance) is employee-side only.

  The employer share is flagged EmployerOnly so it never enters the
  employee-visible gross, deductions or net.

SEE ALSO:
  - types.go: GosiConfig, DefaultGosiCap
  - calculator.go: Stage six of the pipeline
*/
package engine

import (
	"fmt"

	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/policy"
)

const (
	gosiEmployeeComponent = "GOSI_EMPLOYEE"
	gosiEmployerComponent = "GOSI_EMPLOYER"
)

// statutoryLines returns the GOSI deduction and employer-contribution
// lines, or nothing when no active configuration covers the employee.
func statutoryLines(in *Input, structureLines []Line, basic money.Money, tr *tracer) []Line {
	cfg := in.Gosi
	if cfg == nil || !cfg.Active {
		tr.step("Statutory contributions", "no active configuration", "0.00")
		return nil
	}
	if cfg.NationalsOnly && !in.Employee.GosiEligible {
		tr.step("Statutory contributions", "employee not eligible", "0.00")
		return nil
	}

	base := gosiBase(in, structureLines, basic)
	cap := cfg.MaxCap
	if cap.IsZero() {
		cap = DefaultGosiCap
	}
	base = base.Clamp(cfg.MinBase, cap)
	tr.step("GOSI base", fmt.Sprintf("eligible earnings clamped to [%s, %s]",
		cfg.MinBase, cap), base.String())

	employeeRate := cfg.EmployeeRate.Add(cfg.SanedRate)
	employee := base.Percent(employeeRate)
	tr.step("GOSI employee share",
		fmt.Sprintf("%s x (%s + %s)%%", base, cfg.EmployeeRate, cfg.SanedRate),
		employee.String())

	employerRate := cfg.EmployerRate.Add(cfg.HazardRate)
	employer := base.Percent(employerRate)
	tr.step("GOSI employer share",
		fmt.Sprintf("%s x (%s + %s)%%", base, cfg.EmployerRate, cfg.HazardRate),
		employer.String())

	return []Line{
		{
			ComponentCode: gosiEmployeeComponent,
			Description:   "GOSI employee contribution",
			Sign:          policy.SignDeduction,
			Amount:        employee,
			Source:        LineStatutory,
		},
		{
			ComponentCode: gosiEmployerComponent,
			Description:   "GOSI employer contribution",
			Sign:          policy.SignDeduction,
			Amount:        employer,
			Source:        LineStatutory,
			EmployerOnly:  true,
		},
	}
}

// gosiBase sums eligible earning lines; the basic salary is the fallback
// when no component is flagged eligible.
func gosiBase(in *Input, lines []Line, basic money.Money) money.Money {
	var amounts []money.Money
	for _, l := range lines {
		if l.Sign != policy.SignEarning {
			continue
		}
		if c, ok := in.Components[l.ComponentCode]; ok && c.GosiEligible {
			amounts = append(amounts, l.Amount)
		}
	}
	if len(amounts) == 0 {
		return basic
	}
	return money.Sum(amounts)
}
