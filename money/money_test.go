package money_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/money"
)

func TestNew_RoundsOnConstruction(t *testing.T) {
	// GIVEN: A raw decimal with drift beyond 2 places
	// WHEN: Constructing Money
	// THEN: The value is rounded half-up to 2 places

	m := money.New(decimal.NewFromFloat(12.345))
	if m.String() != "12.35" {
		t.Errorf("expected 12.35, got %s", m.String())
	}

	m = money.New(decimal.NewFromFloat(12.344))
	if m.String() != "12.34" {
		t.Errorf("expected 12.34, got %s", m.String())
	}
}

func TestPercent_UsesZeroToHundredScale(t *testing.T) {
	// 10% of 8000 = 800.00 (percentages are 0-100, not 0-1)
	base := money.FromFloat(8000)
	got := base.Percent(decimal.NewFromInt(10))
	if got.String() != "800.00" {
		t.Errorf("expected 800.00, got %s", got.String())
	}
}

func TestDiv_ByZeroYieldsZero(t *testing.T) {
	m := money.FromFloat(100).Div(decimal.Zero)
	if !m.IsZero() {
		t.Errorf("expected zero, got %s", m.String())
	}
}

func TestClamp(t *testing.T) {
	lo, hi := money.FromFloat(400), money.FromFloat(45000)

	cases := []struct {
		in   float64
		want string
	}{
		{100, "400.00"},
		{10000, "10000.00"},
		{90000, "45000.00"},
	}
	for _, c := range cases {
		got := money.FromFloat(c.in).Clamp(lo, hi)
		if got.String() != c.want {
			t.Errorf("Clamp(%v): expected %s, got %s", c.in, c.want, got.String())
		}
	}
}

func TestRoundToUnit(t *testing.T) {
	// Nearest 1: 1234.56 -> 1235.00, and the result is a multiple of the unit
	got := money.FromFloat(1234.56).RoundToUnit(decimal.NewFromInt(1))
	if got.String() != "1235.00" {
		t.Errorf("expected 1235.00, got %s", got.String())
	}

	// Nearest 5
	got = money.FromFloat(1234.56).RoundToUnit(decimal.NewFromInt(5))
	if got.String() != "1235.00" {
		t.Errorf("expected 1235.00, got %s", got.String())
	}

	// Zero unit is a no-op
	got = money.FromFloat(1234.56).RoundToUnit(decimal.Zero)
	if got.String() != "1234.56" {
		t.Errorf("expected 1234.56, got %s", got.String())
	}
}

func TestSum(t *testing.T) {
	total := money.Sum([]money.Money{
		money.FromFloat(1.11),
		money.FromFloat(2.22),
		money.FromFloat(3.33),
	})
	if total.String() != "6.66" {
		t.Errorf("expected 6.66, got %s", total.String())
	}
}
