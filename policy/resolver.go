/*
resolver.go - Scope-ranked policy resolution

PURPOSE:
  Picks the SINGLE policy that applies to an employee for a rule type on a
  date. Candidates are filtered by type, active flag, effective interval,
  and scope match; the survivor is chosen by:

    1. Highest scope specificity (Employee > JobTitle > Department >
       Branch > Company)
    2. Highest configured priority
    3. Most recent effective-from date

  Returning nil is NOT an error — it means "no applicable policy" and the
  orchestrator falls back to system defaults.

SEE ALSO:
  - types.go: the ordered Scope enum the ranking is built on
*/
package policy

import (
	"sort"

	"github.com/warp/payroll-engine/calendar"
)

// EmployeeScope is the organizational placement of one employee, supplied
// by the caller from the employee record.
type EmployeeScope struct {
	EmployeeID   string
	JobTitleID   string
	DepartmentID string
	BranchID     string
}

// Resolve picks the applicable policy of the given type for the employee as
// of a date. The policies slice is whatever the caller fetched for the
// company; order does not matter. Returns nil when nothing applies.
func Resolve(policies []Policy, typ Type, emp EmployeeScope, companyID string, asOf calendar.Date) *Policy {
	var candidates []Policy
	for _, p := range policies {
		if p.Type != typ || !p.Active || p.CompanyID != companyID {
			continue
		}
		if !p.EffectiveOn(asOf) {
			continue
		}
		if !scopeMatches(p, emp) {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Scope != b.Scope {
			return a.Scope > b.Scope
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.EffectiveFrom.After(b.EffectiveFrom)
	})

	winner := candidates[0]
	return &winner
}

// scopeMatches reports whether the policy's scope anchor matches the
// employee directly or through an ancestor organizational attribute.
func scopeMatches(p Policy, emp EmployeeScope) bool {
	switch p.Scope {
	case ScopeEmployee:
		return p.EmployeeID != "" && p.EmployeeID == emp.EmployeeID
	case ScopeJobTitle:
		return p.JobTitleID != "" && p.JobTitleID == emp.JobTitleID
	case ScopeDepartment:
		return p.DepartmentID != "" && p.DepartmentID == emp.DepartmentID
	case ScopeBranch:
		return p.BranchID != "" && p.BranchID == emp.BranchID
	case ScopeCompany:
		return true
	default:
		return false
	}
}
