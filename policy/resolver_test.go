package policy_test

import (
	"testing"
	"time"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/policy"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(y int, m time.Month, d int) calendar.Date {
	return calendar.NewDate(y, m, d)
}

func companyPolicy(id string, typ policy.Type, priority int, from calendar.Date) policy.Policy {
	return policy.Policy{
		ID: id, CompanyID: "co-1", Code: id, Type: typ,
		Scope: policy.ScopeCompany, Priority: priority,
		EffectiveFrom: from, Active: true,
	}
}

func testEmployee() policy.EmployeeScope {
	return policy.EmployeeScope{
		EmployeeID:   "emp-1",
		JobTitleID:   "jt-1",
		DepartmentID: "dep-1",
		BranchID:     "br-1",
	}
}

// =============================================================================
// RESOLUTION TESTS
// =============================================================================

func TestResolve_MostSpecificScopeWins(t *testing.T) {
	// GIVEN: Company, branch, department, and employee-scoped policies of
	//        the same type, all active and effective
	// WHEN: Resolving for an employee placed in all of them
	// THEN: The employee-scoped policy wins regardless of priority

	from := date(2025, time.January, 1)
	company := companyPolicy("p-company", policy.TypeOvertime, 100, from)

	branch := companyPolicy("p-branch", policy.TypeOvertime, 50, from)
	branch.Scope = policy.ScopeBranch
	branch.BranchID = "br-1"

	dept := companyPolicy("p-dept", policy.TypeOvertime, 50, from)
	dept.Scope = policy.ScopeDepartment
	dept.DepartmentID = "dep-1"

	emp := companyPolicy("p-emp", policy.TypeOvertime, 0, from)
	emp.Scope = policy.ScopeEmployee
	emp.EmployeeID = "emp-1"

	got := policy.Resolve([]policy.Policy{company, branch, dept, emp},
		policy.TypeOvertime, testEmployee(), "co-1", date(2025, time.June, 15))

	if got == nil || got.ID != "p-emp" {
		t.Fatalf("expected employee-scoped policy, got %+v", got)
	}
}

func TestResolve_ScopeRequiresMatchingAnchor(t *testing.T) {
	// A department policy for another department must not apply.
	from := date(2025, time.January, 1)
	other := companyPolicy("p-other-dept", policy.TypeOvertime, 0, from)
	other.Scope = policy.ScopeDepartment
	other.DepartmentID = "dep-999"

	got := policy.Resolve([]policy.Policy{other},
		policy.TypeOvertime, testEmployee(), "co-1", date(2025, time.June, 15))
	if got != nil {
		t.Fatalf("expected no policy, got %s", got.ID)
	}
}

func TestResolve_PriorityBreaksScopeTies(t *testing.T) {
	from := date(2025, time.January, 1)
	low := companyPolicy("p-low", policy.TypeAllowance, 1, from)
	high := companyPolicy("p-high", policy.TypeAllowance, 9, from)

	got := policy.Resolve([]policy.Policy{low, high},
		policy.TypeAllowance, testEmployee(), "co-1", date(2025, time.June, 15))
	if got == nil || got.ID != "p-high" {
		t.Fatalf("expected p-high, got %+v", got)
	}
}

func TestResolve_MostRecentEffectiveFromBreaksPriorityTies(t *testing.T) {
	older := companyPolicy("p-older", policy.TypeAllowance, 5, date(2024, time.January, 1))
	newer := companyPolicy("p-newer", policy.TypeAllowance, 5, date(2025, time.January, 1))

	got := policy.Resolve([]policy.Policy{older, newer},
		policy.TypeAllowance, testEmployee(), "co-1", date(2025, time.June, 15))
	if got == nil || got.ID != "p-newer" {
		t.Fatalf("expected p-newer, got %+v", got)
	}
}

func TestResolve_EffectiveIntervalFiltering(t *testing.T) {
	from := date(2025, time.March, 1)
	to := date(2025, time.March, 31)

	ramadan := companyPolicy("p-ramadan", policy.TypeOvertime, 0, from)
	ramadan.EffectiveTo = &to

	cases := []struct {
		asOf calendar.Date
		want bool
	}{
		{date(2025, time.February, 15), false},
		{date(2025, time.March, 1), true},
		{date(2025, time.March, 31), true},
		{date(2025, time.April, 1), false},
	}
	for _, c := range cases {
		got := policy.Resolve([]policy.Policy{ramadan},
			policy.TypeOvertime, testEmployee(), "co-1", c.asOf)
		if (got != nil) != c.want {
			t.Errorf("asOf %s: expected match=%v, got %+v", c.asOf, c.want, got)
		}
	}
}

func TestResolve_NoMatchIsNilNotError(t *testing.T) {
	got := policy.Resolve(nil, policy.TypeOvertime, testEmployee(), "co-1", date(2025, time.June, 1))
	if got != nil {
		t.Fatalf("expected nil for empty candidate set")
	}
}

func TestResolve_InactiveAndWrongTypeExcluded(t *testing.T) {
	from := date(2025, time.January, 1)
	inactive := companyPolicy("p-inactive", policy.TypeOvertime, 0, from)
	inactive.Active = false
	wrongType := companyPolicy("p-leave", policy.TypeLeave, 0, from)
	wrongCompany := companyPolicy("p-other-co", policy.TypeOvertime, 0, from)
	wrongCompany.CompanyID = "co-2"

	got := policy.Resolve([]policy.Policy{inactive, wrongType, wrongCompany},
		policy.TypeOvertime, testEmployee(), "co-1", date(2025, time.June, 15))
	if got != nil {
		t.Fatalf("expected no policy, got %s", got.ID)
	}
}

// =============================================================================
// SCOPE VALIDATION
// =============================================================================

func TestPolicyValidate_ScopeForeignKeys(t *testing.T) {
	from := date(2025, time.January, 1)

	p := companyPolicy("p-1", policy.TypeOvertime, 0, from)
	p.Scope = policy.ScopeDepartment // no DepartmentID set
	if err := p.Validate(); err == nil {
		t.Error("expected error for DEPARTMENT scope without department id")
	}

	p.DepartmentID = "dep-1"
	if err := p.Validate(); err != nil {
		t.Errorf("expected valid, got %v", err)
	}
}
