/*
adjustments.go - Loans, disciplinary actions, sick-leave tiers, retroactive
pay, manual adjustments and end-of-service settlement

PURPOSE:
  Stage eight of the pipeline. Every adjustment applies independently and
  additively; none of them can see or veto another.

KEY CONCEPTS:
  Loan installment:
    min(configured monthly deduction, remaining balance). A loan with 300
    left against a 500 installment deducts exactly 300.

  Disciplinary day cap:
    A days-based penalty effective mid-period can only consume the days
    remaining from its effective date; capping is logged in the trace.

  Sick tiers:
    Each sick day is matched to its tier by cumulative day number across
    the rolling sick year. A day paid at 75% deducts 25% of the daily rate.

  End of service:
    Indemnity = half a month per year for the first five years, a full
    month after; resignation pays a tenure-based fraction of that
    (0 under 2y, 1/3 for 2-5y, 2/3 for 5-10y, full at 10y+). Accrued
    leave pays out at the daily rate.

SEE ALSO:
  - types.go: Loan, Disciplinary, RetroPay, ManualAdjustment, Termination
  - calculator.go: Invokes each group in order
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/policy"
)

// =============================================================================
// LOANS
// =============================================================================

func loanLines(in *Input, tr *tracer) []Line {
	var lines []Line
	for _, loan := range in.Loans {
		if loan.Balance.IsZero() || loan.Balance.IsNegative() {
			continue
		}
		installment := loan.MonthlyDeduction.Min(loan.Balance)
		tr.step("Loan "+loan.ID,
			fmt.Sprintf("min(%s monthly, %s balance)", loan.MonthlyDeduction, loan.Balance),
			installment.String())
		desc := loan.Description
		if desc == "" {
			desc = "Loan installment"
		}
		lines = append(lines, Line{
			ComponentCode: "LOAN",
			Description:   desc,
			Sign:          policy.SignDeduction,
			Amount:        installment,
			Source:        LineLoan,
		})
	}
	return lines
}

// =============================================================================
// DISCIPLINARY
// =============================================================================

func disciplinaryLines(in *Input, r rates, tr *tracer) []Line {
	var lines []Line
	for _, d := range in.Disciplinary {
		amount := d.Amount
		if !d.Days.IsZero() {
			days := capToRemainingDays(d, in.Period, tr)
			amount = money.New(r.Daily.Mul(days))
			tr.step("Disciplinary "+d.ID,
				fmt.Sprintf("%s days x %s/day", days, r.Daily.Round(4)), amount.String())
		}
		if amount.IsZero() {
			continue
		}
		sign := policy.SignDeduction
		if d.Kind == DisciplinaryCredit {
			sign = policy.SignEarning
		}
		desc := d.Description
		if desc == "" {
			desc = "Disciplinary adjustment"
		}
		lines = append(lines, Line{
			ComponentCode: "DISCIPLINARY",
			Description:   desc,
			Sign:          sign,
			Amount:        amount,
			Source:        LineAdjustment,
		})
	}
	return lines
}

// capToRemainingDays limits a days-based penalty to the days left in the
// period from its effective date.
func capToRemainingDays(d Disciplinary, p calendar.Period, tr *tracer) decimal.Decimal {
	from := d.EffectiveDate
	if from.Before(p.Start) {
		from = p.Start
	}
	if from.After(p.End) {
		return decimal.Zero
	}
	remaining := decimal.NewFromInt(int64(calendar.DaysBetween(from, p.End) + 1))
	if d.Days.LessThanOrEqual(remaining) {
		return d.Days
	}
	tr.step("Disciplinary "+d.ID+" capped",
		fmt.Sprintf("%s days exceed %s remaining from %s", d.Days, remaining, from),
		remaining.String())
	return remaining
}

// =============================================================================
// SICK-LEAVE TIERS
// =============================================================================

// sickLeaveLines deducts the unpaid fraction of each sick day per the pay
// tier its cumulative day number falls into. Days beyond the last tier are
// fully unpaid.
func sickLeaveLines(in *Input, r rates, tr *tracer) []Line {
	if in.Leave.SickDays <= 0 || len(in.SickTiers) == 0 {
		return nil
	}

	hundred := decimal.NewFromInt(100)
	unpaidTotal := decimal.Zero
	for i := 0; i < in.Leave.SickDays; i++ {
		dayNumber := in.Leave.SickDaysPrior + i + 1
		pay := sickPayPercent(in.SickTiers, dayNumber)
		unpaid := hundred.Sub(pay)
		if unpaid.IsZero() {
			continue
		}
		unpaidTotal = unpaidTotal.Add(r.Daily.Mul(unpaid).Div(hundred))
	}
	if unpaidTotal.IsZero() {
		return nil
	}
	deduction := money.New(unpaidTotal)
	tr.step("Sick leave",
		fmt.Sprintf("%d days from cumulative day %d, tiered pay",
			in.Leave.SickDays, in.Leave.SickDaysPrior+1),
		deduction.String())
	return []Line{{
		ComponentCode: "SICK_DED",
		Description:   fmt.Sprintf("Sick leave deduction (%d days)", in.Leave.SickDays),
		Sign:          policy.SignDeduction,
		Amount:        deduction,
		Units:         decimal.NewFromInt(int64(in.Leave.SickDays)),
		Source:        LineAdjustment,
	}}
}

func sickPayPercent(tiers []SickTier, dayNumber int) decimal.Decimal {
	for _, t := range tiers {
		if dayNumber >= t.FromDay && dayNumber <= t.ToDay {
			return t.PayPercent
		}
	}
	return decimal.Zero
}

// =============================================================================
// RETROACTIVE PAY
// =============================================================================

// retroLines applies pending retroactive records effective within or before
// the period and returns the ids the caller must mark settled.
func retroLines(in *Input, tr *tracer) ([]Line, []string) {
	var lines []Line
	var settled []string
	for _, rp := range in.Retro {
		if rp.EffectiveDate.After(in.Period.End) {
			continue
		}
		sign := rp.Sign
		if sign == "" {
			sign = policy.SignEarning
		}
		desc := rp.Description
		if desc == "" {
			desc = "Retroactive pay"
		}
		tr.step("Retroactive "+rp.ID,
			fmt.Sprintf("effective %s", rp.EffectiveDate), rp.Amount.String())
		lines = append(lines, Line{
			ComponentCode: "RETRO",
			Description:   desc,
			Sign:          sign,
			Amount:        rp.Amount,
			Source:        LineRetro,
		})
		settled = append(settled, rp.ID)
	}
	return lines, settled
}

// =============================================================================
// MANUAL ADJUSTMENTS
// =============================================================================

// applyManualAdjustments removes waived deduction lines and appends
// approved manual additions/deductions.
func applyManualAdjustments(in *Input, lines []Line, tr *tracer) []Line {
	waived := make(map[string]bool)
	for _, m := range in.Manual {
		if m.Kind == AdjustWaiveDeduction {
			waived[m.ComponentCode] = true
		}
	}

	out := lines[:0:0]
	for _, l := range lines {
		if waived[l.ComponentCode] && l.Sign == policy.SignDeduction && !l.EmployerOnly {
			tr.step("Waive deduction "+l.ComponentCode, l.Description, "0.00")
			continue
		}
		out = append(out, l)
	}

	for _, m := range in.Manual {
		switch m.Kind {
		case AdjustManualAddition, AdjustManualDeduction:
			sign := policy.SignEarning
			if m.Kind == AdjustManualDeduction {
				sign = policy.SignDeduction
			}
			desc := m.Description
			if desc == "" {
				desc = "Manual adjustment"
			}
			tr.step("Manual adjustment "+m.ID, string(m.Kind), m.Amount.String())
			out = append(out, Line{
				ComponentCode: m.ComponentCode,
				Description:   desc,
				Sign:          sign,
				Amount:        m.Amount,
				Source:        LineAdjustment,
			})
		}
	}
	return out
}

// =============================================================================
// END OF SERVICE
// =============================================================================

func yearsOfService(in *Input, asOf calendar.Date) float64 {
	return calendar.YearsBetween(in.Employee.HireDate, asOf)
}

// settlementLines computes the end-of-service indemnity and accrued-leave
// payout when the termination date falls inside the period.
func settlementLines(in *Input, r rates, tr *tracer) []Line {
	t := in.Termination
	if t == nil || !in.Period.Contains(t.Date) {
		return nil
	}

	years := calendar.YearsBetween(in.Employee.HireDate, t.Date)
	monthly := in.Assignment.TotalSalary
	indemnity := serviceIndemnity(monthly, years)

	if t.Reason == ReasonResignation {
		fraction := resignationFraction(years)
		indemnity = indemnity.Mul(fraction)
		tr.step("End of service (resignation)",
			fmt.Sprintf("%.2f years, fraction %s", years, fraction), indemnity.String())
	} else {
		tr.step("End of service",
			fmt.Sprintf("%.2f years x half/full month schedule", years), indemnity.String())
	}

	lines := []Line{{
		ComponentCode: "EOS",
		Description:   "End of service indemnity",
		Sign:          policy.SignEarning,
		Amount:        indemnity,
		Source:        LineSettlement,
	}}

	if in.Leave.AccruedLeaveDays.IsPositive() {
		payout := money.New(r.Daily.Mul(in.Leave.AccruedLeaveDays))
		tr.step("Accrued leave payout",
			fmt.Sprintf("%s days x %s/day", in.Leave.AccruedLeaveDays, r.Daily.Round(4)),
			payout.String())
		lines = append(lines, Line{
			ComponentCode: "LEAVE_PAYOUT",
			Description:   fmt.Sprintf("Accrued leave payout (%s days)", in.Leave.AccruedLeaveDays),
			Sign:          policy.SignEarning,
			Amount:        payout,
			Units:         in.Leave.AccruedLeaveDays,
			Source:        LineSettlement,
		})
	}
	return lines
}

// serviceIndemnity: half a month's salary per year for the first five
// years, a full month per year beyond.
func serviceIndemnity(monthly money.Money, years float64) money.Money {
	if years <= 0 {
		return money.Zero()
	}
	firstBand := years
	if firstBand > 5 {
		firstBand = 5
	}
	indemnity := monthly.Mul(decimal.NewFromFloat(firstBand * 0.5))
	if years > 5 {
		indemnity = indemnity.Add(monthly.Mul(decimal.NewFromFloat(years - 5)))
	}
	return indemnity
}

// resignationFraction: labor-law fractions of the indemnity on resignation.
func resignationFraction(years float64) decimal.Decimal {
	switch {
	case years < 2:
		return decimal.Zero
	case years < 5:
		return decimal.NewFromInt(1).Div(decimal.NewFromInt(3)).Round(6)
	case years < 10:
		return decimal.NewFromInt(2).Div(decimal.NewFromInt(3)).Round(6)
	default:
		return decimal.NewFromInt(1)
	}
}
