/*
Package calendar provides the date and pay-period arithmetic for payroll.

PURPOSE:
  Payroll works in whole days inside a monthly pay period. This package owns
  the day-count bases the engine chooses between (calendar days, working
  days, fixed 30) and the workweek convention (Sunday-Thursday, matching the
  Saudi labor calendar the statutory rules come from).

KEY CONCEPTS:
  - Date: a day-granularity point in time, always UTC
  - Period: an inclusive [Start, End] pay period, usually one month
  - DayCountBasis: how many days a month "has" for rate purposes

SEE ALSO:
  - engine/proration.go: proration factors built on these counts
*/
package calendar

import "time"

// =============================================================================
// DATE - Day-granularity point in time
// =============================================================================

type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func FromTime(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return FromTime(time.Now())
}

// Comparison
func (d Date) Before(o Date) bool        { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool         { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool         { return d.Time.Equal(o.Time) }
func (d Date) BeforeOrEqual(o Date) bool { return !d.After(o) }
func (d Date) AfterOrEqual(o Date) bool  { return !d.Before(o) }
func (d Date) IsZero() bool              { return d.Time.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }
func (d Date) AddYears(n int) Date  { return Date{Time: d.Time.AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }

// IsWeekend reports Friday/Saturday, the weekend of the Sunday-Thursday
// workweek the statutory rules assume.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Friday || wd == time.Saturday
}

func (d Date) IsWorkday() bool { return !d.IsWeekend() }

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// DaysBetween returns the whole-day distance from a to b.
func DaysBetween(a, b Date) int {
	return int(b.Time.Sub(a.Time).Hours() / 24)
}

// YearsBetween returns fractional years of service between two dates,
// using a 365-day year.
func YearsBetween(a, b Date) float64 {
	return float64(DaysBetween(a, b)) / 365.0
}

// =============================================================================
// PERIOD - Inclusive pay period
// =============================================================================

type Period struct {
	Start Date
	End   Date
}

// MonthPeriod returns the pay period covering the given calendar month.
func MonthPeriod(year int, month time.Month) Period {
	start := NewDate(year, month, 1)
	end := start.AddMonths(1).AddDays(-1)
	return Period{Start: start, End: end}
}

func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// CalendarDays returns the inclusive day count of the period.
func (p Period) CalendarDays() int {
	return DaysBetween(p.Start, p.End) + 1
}

// WorkingDays counts Sunday-Thursday days in the period.
func (p Period) WorkingDays() int {
	n := 0
	for d := p.Start; d.BeforeOrEqual(p.End); d = d.AddDays(1) {
		if d.IsWorkday() {
			n++
		}
	}
	return n
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// DAY COUNT BASIS - How many days a month "has" for rate purposes
// =============================================================================

type DayCountBasis string

const (
	BasisFixed30      DayCountBasis = "fixed_30"      // Always 30
	BasisCalendarDays DayCountBasis = "calendar_days" // Actual month length
	BasisWorkingDays  DayCountBasis = "working_days"  // Sunday-Thursday only
)

// DaysInPeriod resolves the basis against a concrete period.
func (b DayCountBasis) DaysInPeriod(p Period) int {
	switch b {
	case BasisCalendarDays:
		return p.CalendarDays()
	case BasisWorkingDays:
		return p.WorkingDays()
	default:
		return 30
	}
}
