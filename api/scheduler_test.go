/*
scheduler_test.go - Tests for the month-end payroll scheduler
*/
package api

import (
	"context"
	"testing"
	"time"
)

func TestLastClosedMonth(t *testing.T) {
	now := time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
	p := lastClosedMonth(now)
	if p.Start.Year() != 2025 || p.Start.Month() != time.May || p.Start.Day() != 1 {
		t.Fatalf("Expected May 2025 start, got %s", p.Start)
	}
	if p.End.Day() != 31 {
		t.Fatalf("Expected May 31 end, got %s", p.End)
	}

	// Year boundary
	p = lastClosedMonth(time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC))
	if p.Start.Year() != 2024 || p.Start.Month() != time.December {
		t.Fatalf("Expected December 2024, got %s", p.Start)
	}

	// Month-end days must not slide into the current month: Mar 31 targets
	// February, not "Feb 31" normalized into March.
	p = lastClosedMonth(time.Date(2025, time.March, 31, 8, 0, 0, 0, time.UTC))
	if p.Start.Year() != 2025 || p.Start.Month() != time.February {
		t.Fatalf("Expected February 2025, got %s", p.Start)
	}
	if p.End.Day() != 28 {
		t.Fatalf("Expected Feb 28 end, got %s", p.End)
	}

	// Jan 31 crosses the year boundary cleanly as well.
	p = lastClosedMonth(time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC))
	if p.Start.Year() != 2025 || p.Start.Month() != time.December {
		t.Fatalf("Expected December 2025, got %s", p.Start)
	}
}

func TestScheduler_RunNowIsIdempotent(t *testing.T) {
	// GIVEN: A seeded employee with no payslip yet
	h := newTestHandler(t)
	ctx := context.Background()
	if err := h.loadStandardMonthlyScenario(ctx); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}
	ps := NewPayrollScheduler(h.Store, h)

	// WHEN: The scheduler runs twice
	ps.RunNow()
	ps.RunNow()

	// THEN: Exactly one automatic payslip exists for the closed month
	slips, err := h.Store.ListPayslips(ctx, "emp-001")
	if err != nil {
		t.Fatalf("Failed to list payslips: %v", err)
	}
	if len(slips) != 1 {
		t.Fatalf("Expected exactly 1 payslip, got %d", len(slips))
	}
	want := lastClosedMonth(time.Now())
	if !slips[0].Period.Start.Equal(want.Start) {
		t.Fatalf("Expected period %s, got %s", want.Start, slips[0].Period.Start)
	}
}
