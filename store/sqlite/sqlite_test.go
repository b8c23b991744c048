/*
sqlite_test.go - Store round-trip tests against an in-memory database
*/
package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/policy"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEmployeeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	term := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	emp := Employee{
		ID:              "emp-1",
		CompanyID:       "co-1",
		Name:            "Amal Hassan",
		DepartmentID:    "dep-hr",
		HireDate:        time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
		TerminationDate: &term,
		GosiEligible:    true,
	}
	require.NoError(t, s.SaveEmployee(ctx, emp))

	got, err := s.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Amal Hassan", got.Name)
	require.True(t, got.GosiEligible)
	require.NotNil(t, got.TerminationDate)
	require.Equal(t, "2026-03-31", got.TerminationDate.Format("2006-01-02"))

	// ToDomain carries the dates over
	dom := got.ToDomain()
	require.Equal(t, "2023-03-01", dom.HireDate.String())
	require.Equal(t, "dep-hr", dom.DepartmentID)

	list, err := s.ListEmployees(ctx, "co-1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	missing, err := s.GetEmployee(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestAssignment_ReplaceDeactivatesPrevious(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAssignment(ctx, Assignment{
		ID: "a-1", EmployeeID: "emp-1", TotalSalary: money.FromFloat(8000),
	}))
	require.NoError(t, s.SaveAssignment(ctx, Assignment{
		ID: "a-2", EmployeeID: "emp-1", TotalSalary: money.FromFloat(9500), StructureID: "st-1",
	}))

	active, err := s.GetActiveAssignment(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, "a-2", active.ID)
	require.Equal(t, "9500.00", active.TotalSalary.String())
	require.Equal(t, "st-1", active.StructureID)
}

func TestStructureLines_ReplaceAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := []engine.StructureLine{
		{ComponentCode: "BASIC", Source: engine.SourceFixed, Amount: money.FromFloat(5000)},
	}
	require.NoError(t, s.SaveStructureLines(ctx, "st-1", first))

	replacement := []engine.StructureLine{
		{ComponentCode: "BASIC", Source: engine.SourceFixed, Amount: money.FromFloat(6000)},
		{ComponentCode: "HOUSING", Source: engine.SourcePercentage, Percent: decimal.NewFromInt(25)},
		{ComponentCode: "BONUS", Source: engine.SourceFormula, Formula: "BASIC * 0.1"},
	}
	require.NoError(t, s.SaveStructureLines(ctx, "st-1", replacement))

	got, err := s.ListStructureLines(ctx, "st-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "BASIC", got[0].ComponentCode)
	require.Equal(t, "6000.00", got[0].Amount.String())
	require.Equal(t, "HOUSING", got[1].ComponentCode)
	require.True(t, got[1].Percent.Equal(decimal.NewFromInt(25)))
	require.Equal(t, "BASIC * 0.1", got[2].Formula)
}

func TestPolicies_ParseAndSkipInvalid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	good := policy.StandardOvertimePolicy("pol-1", "co-1", calendar.NewDate(2024, time.January, 1))
	raw, err := policy.MarshalPolicy(good)
	require.NoError(t, err)
	require.NoError(t, s.SavePolicy(ctx, PolicyRecord{
		ID: "pol-1", CompanyID: "co-1", Code: good.Code,
		Type: string(good.Type), ConfigJSON: string(raw),
	}))
	// A record whose document no longer parses
	require.NoError(t, s.SavePolicy(ctx, PolicyRecord{
		ID: "pol-broken", CompanyID: "co-1", Code: "BROKEN",
		Type: "OVERTIME", ConfigJSON: `{"scope": "GALAXY"}`,
	}))

	parsed, err := s.ParsedPolicies(ctx, "co-1")
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	require.Equal(t, "pol-1", parsed[0].ID)
	require.Len(t, parsed[0].Rules, 2)

	// The marshal/parse round trip keeps text operands text
	conds := parsed[0].Rules[0].Conditions["dayType"]
	require.NotEmpty(t, conds)
	require.False(t, conds[0].Value.IsNum)
	require.Equal(t, "WEEKDAY", conds[0].Value.Text)

	require.NoError(t, s.DeletePolicy(ctx, "pol-1"))
	rec, err := s.GetPolicy(ctx, "pol-1")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestGosiConfig_LatestActiveWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := engine.GosiConfig{CompanyID: "co-1", EmployeeRate: decimal.NewFromInt(9), Active: true}
	require.NoError(t, s.SaveGosiConfig(ctx, "g-1", old))
	updated := engine.GosiConfig{
		CompanyID:    "co-1",
		EmployeeRate: decimal.NewFromInt(10),
		SanedRate:    decimal.NewFromFloat(0.75),
		MaxCap:       money.FromFloat(45000),
		Active:       true,
	}
	require.NoError(t, s.SaveGosiConfig(ctx, "g-2", updated))

	got, err := s.GetActiveGosiConfig(ctx, "co-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.EmployeeRate.Equal(decimal.NewFromInt(10)))
	require.Equal(t, "45000.00", got.MaxCap.String())

	none, err := s.GetActiveGosiConfig(ctx, "co-other")
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestLoans_InstallmentFloorsAtZero(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	loan := engine.Loan{
		ID: "loan-1", Description: "Advance",
		MonthlyDeduction: money.FromFloat(750), Balance: money.FromFloat(1000),
	}
	require.NoError(t, s.SaveLoan(ctx, "emp-1", loan))

	require.NoError(t, s.ApplyLoanInstallment(ctx, "loan-1", money.FromFloat(750)))
	active, err := s.ListActiveLoans(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "250.00", active[0].Balance.String())

	// Final installment larger than the balance floors at zero, and a
	// settled loan leaves the active list.
	require.NoError(t, s.ApplyLoanInstallment(ctx, "loan-1", money.FromFloat(750)))
	active, err = s.ListActiveLoans(ctx, "emp-1")
	require.NoError(t, err)
	require.Empty(t, active)
}

func TestDisciplinary_FilteredByPeriod(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inside := engine.Disciplinary{
		ID: "d-1", Kind: engine.DisciplinaryDeduction, Days: decimal.NewFromInt(2),
		EffectiveDate: calendar.NewDate(2025, time.June, 10),
	}
	outside := engine.Disciplinary{
		ID: "d-2", Kind: engine.DisciplinaryDeduction, Days: decimal.NewFromInt(1),
		EffectiveDate: calendar.NewDate(2025, time.July, 2),
	}
	require.NoError(t, s.SaveDisciplinary(ctx, "emp-1", inside))
	require.NoError(t, s.SaveDisciplinary(ctx, "emp-1", outside))

	june := calendar.MonthPeriod(2025, time.June)
	got, err := s.ListDisciplinary(ctx, "emp-1", june)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "d-1", got[0].ID)
}

func TestRetro_PendingAndSettled(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	due := engine.RetroPay{
		ID: "r-1", Amount: money.FromFloat(400), Sign: policy.SignEarning,
		EffectiveDate: calendar.NewDate(2025, time.May, 1),
	}
	future := engine.RetroPay{
		ID: "r-2", Amount: money.FromFloat(100), Sign: policy.SignEarning,
		EffectiveDate: calendar.NewDate(2025, time.August, 1),
	}
	require.NoError(t, s.SaveRetro(ctx, "emp-1", due))
	require.NoError(t, s.SaveRetro(ctx, "emp-1", future))

	cutoff := calendar.NewDate(2025, time.June, 30)
	pending, err := s.ListPendingRetro(ctx, "emp-1", cutoff)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "r-1", pending[0].ID)

	require.NoError(t, s.MarkRetroSettled(ctx, []string{"r-1"}))
	pending, err = s.ListPendingRetro(ctx, "emp-1", cutoff)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestManualAdjustments_ScopedToPeriod(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	june := calendar.MonthPeriod(2025, time.June)
	july := calendar.MonthPeriod(2025, time.July)

	m := engine.ManualAdjustment{
		ID: "m-1", Kind: engine.AdjustManualAddition,
		ComponentCode: "BONUS", Amount: money.FromFloat(500),
	}
	require.NoError(t, s.SaveManualAdjustment(ctx, "emp-1", june.Start, m))

	got, err := s.ListManualAdjustments(ctx, "emp-1", june.Start)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "500.00", got[0].Amount.String())

	other, err := s.ListManualAdjustments(ctx, "emp-1", july.Start)
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestSettingsDocument_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := SettingsDocument{
		Settings: engine.Settings{
			CompanyID:          "co-1",
			ProrationBasis:     calendar.BasisCalendarDays,
			GeneralRateBasis:   calendar.BasisFixed30,
			HoursPerDay:        8,
			GracePeriodMinutes: 15,
			RoundingUnit:       decimal.NewFromInt(1),
		},
		SickTiers: []engine.SickTier{
			{FromDay: 1, ToDay: 30, PayPercent: decimal.NewFromInt(100)},
			{FromDay: 31, ToDay: 90, PayPercent: decimal.NewFromInt(75)},
		},
	}
	require.NoError(t, s.SaveSettings(ctx, doc))

	got, err := s.GetSettings(ctx, "co-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, calendar.BasisCalendarDays, got.Settings.ProrationBasis)
	require.Equal(t, 15, got.Settings.GracePeriodMinutes)
	require.Len(t, got.SickTiers, 2)
	require.True(t, got.SickTiers[1].PayPercent.Equal(decimal.NewFromInt(75)))
}

func TestPayslips_SaveListAndHas(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	june := calendar.MonthPeriod(2025, time.June)
	slip := Payslip{
		ID: "slip-1", EmployeeID: "emp-1", Period: june,
		Gross: money.FromFloat(9000), Deductions: money.FromFloat(975),
		Net: money.FromFloat(8025), ResultJSON: `{}`,
	}
	require.NoError(t, s.SavePayslip(ctx, slip))

	has, err := s.HasPayslip(ctx, "emp-1", june)
	require.NoError(t, err)
	require.True(t, has)

	// Re-running the same period replaces, not duplicates
	slip.ID = "slip-2"
	slip.Net = money.FromFloat(8000)
	require.NoError(t, s.SavePayslip(ctx, slip))

	list, err := s.ListPayslips(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "8000.00", list[0].Net.String())

	has, err = s.HasPayslip(ctx, "emp-1", calendar.MonthPeriod(2025, time.July))
	require.NoError(t, err)
	require.False(t, has)
}

func TestListCompanyIDsAndReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, e := range []Employee{
		{ID: "e-1", CompanyID: "co-b", Name: "A", HireDate: time.Now()},
		{ID: "e-2", CompanyID: "co-a", Name: "B", HireDate: time.Now()},
		{ID: "e-3", CompanyID: "co-a", Name: "C", HireDate: time.Now()},
	} {
		require.NoError(t, s.SaveEmployee(ctx, e))
	}

	ids, err := s.ListCompanyIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"co-a", "co-b"}, ids)

	require.NoError(t, s.Reset(ctx))
	ids, err = s.ListCompanyIDs(ctx)
	require.NoError(t, err)
	require.Empty(t, ids)
}
