/*
attendance.go - Attendance integration, policy evaluation, system fallbacks

PURPOSE:
  Turns the period's attendance and leave aggregates into payroll lines.
  For each rule type with relevant non-zero data the applicable policy is
  resolved and evaluated; when attendance figures exist but no policy
  produced a line, a system fallback computes plain rate x quantity so
  attendance-driven pay is never silently dropped.

KEY CONCEPTS:
  Grace period:
    Effective late minutes = max(0, late - GracePeriodMinutes).

  Overtime categories:
    Weekday, weekend and holiday hours are evaluated separately against
    the overtime policy with a dayType fact, so a single policy can price
    them differently. Fallback multiplier is 1x the overtime hourly rate.

  Fallback scope:
    Overtime, lateness and absence only, judged per fact — a deduction
    policy that only prices lateness leaves the absence fallback armed.
    A missing allowance policy contributes zero.

SEE ALSO:
  - policy/resolver.go: Resolve
  - policy/evaluator.go: EvaluateRules, ConsolidateLines
  - calculator.go: Stages four, five and seven of the pipeline
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/policy"
)

// =============================================================================
// CONTEXT ASSEMBLY
// =============================================================================

// effectiveLateMinutes applies the grace period.
func effectiveLateMinutes(in *Input) decimal.Decimal {
	late := in.Attendance.LateMinutes
	grace := decimal.NewFromInt(int64(in.Settings.GracePeriodMinutes))
	if late.LessThanOrEqual(grace) {
		return decimal.Zero
	}
	return late.Sub(grace)
}

// baseVars builds the variable set shared by every formula-typed rule.
func baseVars(in *Input, basic money.Money, r rates, late decimal.Decimal) map[string]decimal.Decimal {
	p := in.Period
	vars := map[string]decimal.Decimal{
		"BASIC":             basic.Decimal(),
		"TOTAL":             in.Assignment.TotalSalary.Decimal(),
		"DAILY_RATE":        r.Daily,
		"HOURLY_RATE":       r.Hourly,
		"MINUTE_RATE":       r.MinuteRate,
		"OT_RATE":           r.OvertimeHour,
		"DAYS_WORKED":       in.Attendance.PresentDays,
		"DAYS_ABSENT":       in.Attendance.AbsentDays,
		"LATE_MINUTES":      late,
		"LATE_HOURS":        late.Div(decimal.NewFromInt(60)).Round(4),
		"OT_HOURS":          in.Attendance.TotalOvertimeHours(),
		"OT_HOURS_WEEKDAY":  in.Attendance.OvertimeWeekdayHours,
		"OT_HOURS_WEEKEND":  in.Attendance.OvertimeWeekendHours,
		"OT_HOURS_HOLIDAY":  in.Attendance.OvertimeHolidayHours,
		"UNPAID_DAYS":       in.Leave.UnpaidDays,
		"PAID_DAYS":         in.Leave.PaidDays,
		"DAYS_IN_MONTH":     decimal.NewFromInt(int64(p.CalendarDays())),
		"WORKING_DAYS":      decimal.NewFromInt(int64(p.WorkingDays())),
		"YEARS_OF_SERVICE":  decimal.NewFromFloat(yearsOfService(in, p.End)),
		"MONTHS_OF_SERVICE": decimal.NewFromFloat(yearsOfService(in, p.End) * 12).Round(2),
	}
	return vars
}

// =============================================================================
// POLICY EVALUATION
// =============================================================================

// policyLines resolves and evaluates every relevant rule type and returns
// consolidated policy lines plus fallback lines for uncovered attendance.
func policyLines(in *Input, basic money.Money, r rates, tr *tracer) []Line {
	late := effectiveLateMinutes(in)
	if in.Settings.GracePeriodMinutes > 0 && !in.Attendance.LateMinutes.IsZero() {
		tr.step("Grace period",
			fmt.Sprintf("max(0, %s - %d min grace)", in.Attendance.LateMinutes,
				in.Settings.GracePeriodMinutes),
			late.StringFixed(0)+" min")
	}
	vars := baseVars(in, basic, r, late)

	var collected []policy.Line
	var fallbacks []Line

	otPolicy, otFallback := overtimeLines(in, r, vars, tr)
	collected = append(collected, otPolicy...)
	fallbacks = append(fallbacks, otFallback...)

	dedPolicy, dedFallback := deductionLines(in, basic, r, vars, late, tr)
	collected = append(collected, dedPolicy...)
	fallbacks = append(fallbacks, dedFallback...)

	collected = append(collected, leaveLines(in, basic, r, vars, tr)...)
	collected = append(collected, allowanceLines(in, basic, r, vars, tr)...)

	out := make([]Line, 0, len(collected)+len(fallbacks))
	for _, pl := range policy.ConsolidateLines(collected) {
		out = append(out, fromPolicyLine(pl))
	}
	return append(out, fallbacks...)
}

func fromPolicyLine(pl policy.Line) Line {
	return Line{
		ComponentCode: pl.ComponentCode,
		Description:   pl.Description,
		Sign:          pl.Sign,
		Amount:        pl.Amount,
		Units:         pl.Units,
		Source:        LinePolicy,
		PolicyID:      pl.PolicyID,
		RuleID:        pl.RuleID,
	}
}

func overtimeLines(in *Input, r rates, vars map[string]decimal.Decimal, tr *tracer) ([]policy.Line, []Line) {
	if in.Attendance.TotalOvertimeHours().IsZero() {
		return nil, nil
	}
	pol := resolveFor(in, policy.TypeOvertime)
	categories := []struct {
		dayType string
		hours   decimal.Decimal
	}{
		{"WEEKDAY", in.Attendance.OvertimeWeekdayHours},
		{"WEEKEND", in.Attendance.OvertimeWeekendHours},
		{"HOLIDAY", in.Attendance.OvertimeHolidayHours},
	}

	var lines []policy.Line
	var fallbacks []Line
	for _, cat := range categories {
		if cat.hours.IsZero() {
			continue
		}
		if pol != nil {
			ctx := policy.Context{
				Facts:      map[string]policy.Value{"dayType": policy.Text(cat.dayType)},
				Base:       in.Assignment.TotalSalary,
				HourlyRate: r.OvertimeHour,
				Units:      cat.hours,
				Vars:       vars,
			}
			emitted, errs := policy.EvaluateRules(pol, ctx)
			recordRuleErrors(tr, "overtime", errs)
			if len(emitted) > 0 {
				for _, l := range emitted {
					tr.step("Overtime "+cat.dayType, l.Description, l.Amount.String())
				}
				lines = append(lines, emitted...)
				continue
			}
		}
		// Plain rate x quantity so uncovered hours are still paid.
		amount := money.New(r.OvertimeHour.Mul(cat.hours))
		tr.step("Overtime fallback "+cat.dayType,
			fmt.Sprintf("%s/h x %s h", r.OvertimeHour.Round(4), cat.hours), amount.String())
		fallbacks = append(fallbacks, Line{
			ComponentCode: "OVERTIME",
			Description:   fmt.Sprintf("Overtime %s (%s h)", cat.dayType, cat.hours),
			Sign:          policy.SignEarning,
			Amount:        amount,
			Units:         cat.hours,
			Source:        LineFallback,
		})
	}
	return lines, fallbacks
}

func deductionLines(in *Input, basic money.Money, r rates, vars map[string]decimal.Decimal, late decimal.Decimal, tr *tracer) ([]policy.Line, []Line) {
	hasLate := late.IsPositive()
	hasAbsence := in.Attendance.AbsentDays.IsPositive()
	if !hasLate && !hasAbsence {
		return nil, nil
	}

	// Coverage is judged per fact: a policy that only prices lateness still
	// leaves the absence fallback armed, and vice versa.
	var emitted []policy.Line
	lateCovered, absenceCovered := false, false

	pol := resolveFor(in, policy.TypeDeduction)
	if pol != nil {
		ctx := policy.Context{
			Facts: map[string]policy.Value{
				"lateMinutes": policy.Num(late),
				"absentDays":  policy.Num(in.Attendance.AbsentDays),
			},
			Base:       basic,
			HourlyRate: r.Hourly,
			Vars:       vars,
		}
		var errs []policy.RuleError
		emitted, errs = policy.EvaluateRules(pol, ctx)
		recordRuleErrors(tr, "deduction", errs)
		for _, l := range emitted {
			tr.step("Attendance deduction", l.Description, l.Amount.String())
			coversLate, coversAbsence := deductionFactCoverage(pol, l.RuleID)
			lateCovered = lateCovered || coversLate
			absenceCovered = absenceCovered || coversAbsence
		}
	}

	// Fallbacks: plain rate x quantity for each uncovered fact.
	var fallbacks []Line
	if hasLate && !lateCovered {
		amount := money.New(r.MinuteRate.Mul(late))
		tr.step("Lateness fallback",
			fmt.Sprintf("%s/min x %s min", r.MinuteRate.Round(4), late), amount.String())
		fallbacks = append(fallbacks, Line{
			ComponentCode: "LATE_DED",
			Description:   fmt.Sprintf("Late deduction (%s min)", late),
			Sign:          policy.SignDeduction,
			Amount:        amount,
			Units:         late,
			Source:        LineFallback,
		})
	}
	if hasAbsence && !absenceCovered {
		amount := money.New(r.AbsenceDaily.Mul(in.Attendance.AbsentDays))
		tr.step("Absence fallback",
			fmt.Sprintf("%s/day x %s days", r.AbsenceDaily.Round(4), in.Attendance.AbsentDays),
			amount.String())
		fallbacks = append(fallbacks, Line{
			ComponentCode: "ABSENCE_DED",
			Description:   fmt.Sprintf("Absence deduction (%s days)", in.Attendance.AbsentDays),
			Sign:          policy.SignDeduction,
			Amount:        amount,
			Units:         in.Attendance.AbsentDays,
			Source:        LineFallback,
		})
	}
	return emitted, fallbacks
}

// deductionFactCoverage reports which attendance facts the emitting rule
// conditioned on. An unconditioned rule covers both.
func deductionFactCoverage(pol *policy.Policy, ruleID string) (late, absence bool) {
	for _, rule := range pol.Rules {
		if rule.ID != ruleID {
			continue
		}
		_, late = rule.Conditions["lateMinutes"]
		_, absence = rule.Conditions["absentDays"]
		if !late && !absence {
			return true, true
		}
		return late, absence
	}
	return false, false
}

func leaveLines(in *Input, basic money.Money, r rates, vars map[string]decimal.Decimal, tr *tracer) []policy.Line {
	if in.Leave.UnpaidDays.IsZero() && in.Leave.PaidDays.IsZero() {
		return nil
	}
	pol := resolveFor(in, policy.TypeLeave)
	if pol == nil {
		// Leave has no system fallback; sick tiers are handled separately.
		return nil
	}
	ctx := policy.Context{
		Facts: map[string]policy.Value{
			"unpaidDays": policy.Num(in.Leave.UnpaidDays),
			"paidDays":   policy.Num(in.Leave.PaidDays),
		},
		Base:       basic,
		HourlyRate: r.Hourly,
		Vars:       vars,
	}
	emitted, errs := policy.EvaluateRules(pol, ctx)
	recordRuleErrors(tr, "leave", errs)
	for _, l := range emitted {
		tr.step("Leave", l.Description, l.Amount.String())
	}
	return emitted
}

func allowanceLines(in *Input, basic money.Money, r rates, vars map[string]decimal.Decimal, tr *tracer) []policy.Line {
	// Allowance policies always run; no fallback when absent.
	pol := resolveFor(in, policy.TypeAllowance)
	if pol == nil {
		return nil
	}
	ctx := policy.Context{
		Base:       basic,
		HourlyRate: r.Hourly,
		Vars:       vars,
	}
	emitted, errs := policy.EvaluateRules(pol, ctx)
	recordRuleErrors(tr, "allowance", errs)
	for _, l := range emitted {
		tr.step("Allowance", l.Description, l.Amount.String())
	}
	return emitted
}

func resolveFor(in *Input, typ policy.Type) *policy.Policy {
	return policy.Resolve(in.Policies, typ, in.Employee.Scope(),
		in.Settings.CompanyID, in.Period.End)
}

func recordRuleErrors(tr *tracer, area string, errs []policy.RuleError) {
	for _, e := range errs {
		tr.step("Rule error ("+area+")", e.Error(), "0.00")
	}
}
