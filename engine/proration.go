/*
proration.go - Partial-period proration and pay-rate derivation

PURPOSE:
  Computes the proration factor for partial-month employment and derives
  the daily/hourly rates used by attendance-driven pay. Different purposes
  (general, overtime, absence) may use different day-count bases per
  company settings, so rates are derived per purpose.

KEY CONCEPTS:
  Proration factor:
    employed days in period / countable days in period, clamped to [0,1].
    A full-month employee always gets exactly 1. The basis picks what
    counts as a day (calendar, working Sun-Thu, fixed 30); the
    exclude-weekends method forces working-day counting.

  Rate bases:
    daily rate = base salary / basis days; hourly = daily / hours per day.
    The overtime base optionally includes allowance earnings on top of
    basic, per settings.

SEE ALSO:
  - calendar/calendar.go: DayCountBasis
  - calculator.go: Stages three and four of the pipeline
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/money"
)

// =============================================================================
// PRORATION
// =============================================================================

// prorationFactor returns the fraction of the period the employee was
// employed, always in [0,1], with the arithmetic text for the trace.
func prorationFactor(in *Input) (decimal.Decimal, string) {
	p := in.Period
	start := p.Start
	if in.Employee.HireDate.After(start) {
		start = in.Employee.HireDate
	}
	end := p.End
	if t := in.Termination; t != nil && t.Date.Before(end) {
		end = t.Date
	}
	if in.Employee.TerminationDate != nil && in.Employee.TerminationDate.Before(end) {
		end = *in.Employee.TerminationDate
	}

	total := prorationDays(in.Settings, p)
	if total == 0 || end.Before(start) {
		return decimal.Zero, "no countable days in period"
	}

	employed := prorationDays(in.Settings, calendar.Period{Start: start, End: end})
	if employed > total {
		employed = total
	}

	factor := decimal.NewFromInt(int64(employed)).
		Div(decimal.NewFromInt(int64(total))).Round(6)
	if factor.GreaterThan(decimal.NewFromInt(1)) {
		factor = decimal.NewFromInt(1)
	}
	if factor.IsNegative() {
		factor = decimal.Zero
	}
	return factor, fmt.Sprintf("%d / %d days", employed, total)
}

// prorationDays counts the period under the configured basis and method.
func prorationDays(s Settings, p calendar.Period) int {
	if s.ExcludeWeekends {
		return p.WorkingDays()
	}
	basis := s.ProrationBasis
	if basis == "" {
		basis = calendar.BasisCalendarDays
	}
	if basis == calendar.BasisFixed30 {
		// Fixed-30 caps partial periods at the full-month denominator.
		d := p.CalendarDays()
		if d > 30 {
			d = 30
		}
		return d
	}
	return basis.DaysInPeriod(p)
}

// applyProration scales structure lines by the factor. Other line sources
// (policies, loans, adjustments) are already period-scoped.
func applyProration(lines []Line, factor decimal.Decimal) []Line {
	if factor.Equal(decimal.NewFromInt(1)) {
		return lines
	}
	out := make([]Line, len(lines))
	for i, l := range lines {
		l.Amount = l.Amount.Mul(factor)
		out[i] = l
	}
	return out
}

// =============================================================================
// RATE DERIVATION
// =============================================================================

// rates holds the per-purpose daily/hourly rates for one calculation. Rates
// stay as raw decimals; rounding a rate before multiplying it compounds into
// the line amounts, so money.Money enters only at line emission.
type rates struct {
	Daily         decimal.Decimal // general purpose
	Hourly        decimal.Decimal
	OvertimeDaily decimal.Decimal
	OvertimeHour  decimal.Decimal
	AbsenceDaily  decimal.Decimal
	MinuteRate    decimal.Decimal // lateness, from the general hourly rate
}

// deriveRates computes all rate bases from the (unprorated) base salaries.
func deriveRates(in *Input, basic, overtimeBase money.Money) rates {
	hoursPerDay := in.Settings.HoursPerDay
	if hoursPerDay <= 0 {
		hoursPerDay = DefaultHoursPerDay
	}
	hpd := decimal.NewFromInt(int64(hoursPerDay))

	daily := perDay(basic, in.Settings.GeneralRateBasis, in.Period)
	otDaily := perDay(overtimeBase, in.Settings.OvertimeRateBasis, in.Period)
	absDaily := perDay(basic, in.Settings.AbsenceRateBasis, in.Period)

	hourly := daily.Div(hpd)
	return rates{
		Daily:         daily,
		Hourly:        hourly,
		OvertimeDaily: otDaily,
		OvertimeHour:  otDaily.Div(hpd),
		AbsenceDaily:  absDaily,
		MinuteRate:    hourly.Div(decimal.NewFromInt(60)),
	}
}

func perDay(base money.Money, basis calendar.DayCountBasis, p calendar.Period) decimal.Decimal {
	if basis == "" {
		basis = calendar.BasisFixed30
	}
	days := basis.DaysInPeriod(p)
	return base.Decimal().Div(decimal.NewFromInt(int64(days)))
}
