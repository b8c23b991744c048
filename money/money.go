/*
Package money provides the monetary value type used across the payroll engine.

PURPOSE:
  Every monetary figure in a payroll calculation must be rounded to 2 decimal
  places at the point it is finalized. Instead of scattering round(x*100)/100
  across components, Money rounds on construction so drift between components
  is impossible.

KEY CONCEPTS:
  - Money: a decimal amount, always normalized to 2 fractional digits
  - Rate:  a raw decimal (percentages, multipliers, day factors) that is NOT
           rounded — only money is rounded, never intermediate rates

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal underneath, no float64 arithmetic
  2. Rounding once: New() rounds; arithmetic helpers re-round the result
  3. Percentages are 0-100 everywhere, matching policy and GOSI configuration

USAGE:
  base := money.New(decimal.NewFromInt(10000))
  share := base.Percent(decimal.NewFromFloat(9.75))
  // share == 975.00
*/
package money

import (
	"github.com/shopspring/decimal"
)

// Money is a monetary amount normalized to 2 decimal places.
type Money struct {
	d decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// New constructs Money from a decimal, rounding half-up to 2 places.
func New(d decimal.Decimal) Money {
	return Money{d: d.Round(2)}
}

// FromFloat constructs Money from a float64. Intended for literals in tests
// and fixtures; calculation code should stay in decimals.
func FromFloat(f float64) Money {
	return New(decimal.NewFromFloat(f))
}

// FromString parses a money amount. Invalid input yields zero.
func FromString(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}
	}
	return New(d)
}

// Zero is the zero amount.
func Zero() Money { return Money{} }

func (m Money) Decimal() decimal.Decimal { return m.d }
func (m Money) Float64() float64         { f, _ := m.d.Float64(); return f }
func (m Money) String() string           { return m.d.StringFixed(2) }

func (m Money) Add(o Money) Money { return New(m.d.Add(o.d)) }
func (m Money) Sub(o Money) Money { return New(m.d.Sub(o.d)) }
func (m Money) Neg() Money        { return Money{d: m.d.Neg()} }
func (m Money) Abs() Money        { return Money{d: m.d.Abs()} }

// Mul multiplies by an unrounded rate and rounds the result.
func (m Money) Mul(rate decimal.Decimal) Money { return New(m.d.Mul(rate)) }

// Div divides by an unrounded rate and rounds the result. Division by zero
// yields zero; callers that care must check the divisor first.
func (m Money) Div(rate decimal.Decimal) Money {
	if rate.IsZero() {
		return Money{}
	}
	return New(m.d.Div(rate))
}

// Percent applies a 0-100 percentage.
func (m Money) Percent(pct decimal.Decimal) Money {
	return New(m.d.Mul(pct).Div(hundred))
}

func (m Money) IsZero() bool        { return m.d.IsZero() }
func (m Money) IsNegative() bool    { return m.d.IsNegative() }
func (m Money) IsPositive() bool    { return m.d.IsPositive() }
func (m Money) Equal(o Money) bool  { return m.d.Equal(o.d) }
func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }
func (m Money) LessThan(o Money) bool    { return m.d.LessThan(o.d) }

func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}

func (m Money) Max(o Money) Money {
	if m.GreaterThan(o) {
		return m
	}
	return o
}

// Clamp bounds m to [lo, hi].
func (m Money) Clamp(lo, hi Money) Money {
	if m.LessThan(lo) {
		return lo
	}
	if m.GreaterThan(hi) {
		return hi
	}
	return m
}

// RoundToUnit rounds to the nearest multiple of unit (e.g. nearest 1 riyal,
// nearest 0.05). A zero or negative unit is a no-op.
func (m Money) RoundToUnit(unit decimal.Decimal) Money {
	if !unit.IsPositive() {
		return m
	}
	return New(m.d.Div(unit).Round(0).Mul(unit))
}

// Sum adds a slice of amounts.
func Sum(amounts []Money) Money {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.d)
	}
	return New(total)
}

// MarshalJSON renders the amount as a JSON number with 2 decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.StringFixed(2)), nil
}

// UnmarshalJSON accepts numbers or numeric strings.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	*m = New(d)
	return nil
}
