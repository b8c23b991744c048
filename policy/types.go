/*
Package policy provides scoped business-rule resolution and evaluation.

PURPOSE:
  Companies configure payroll behavior (overtime rates, lateness deductions,
  allowances, leave handling) as policies attached to an organizational
  scope. This package answers two questions:

    1. Which single policy applies to this employee for this rule type on
       this date? (resolver.go)
    2. What payroll lines do that policy's rules produce against the
       employee's context? (evaluator.go)

KEY CONCEPTS IN THIS FILE (types.go):
  - Scope: an ORDERED specificity ladder. Company < Branch < Department <
    JobTitle < Employee. The resolver always prefers the most specific
    matching scope.
  - Policy: a ruleset with an effective interval and a priority tiebreaker
  - Rule: condition set + value recipe + output component
  - Condition: a tagged operator variant (eq, ne, gt, gte, lt, lte, in,
    notIn) evaluated by exhaustive switch — no ad hoc property probing

DESIGN PRINCIPLES:
  1. Pure functions: the resolver and evaluator operate on records the
     caller already fetched; no I/O here
  2. Every matching, non-zero rule contributes a line independently —
     there is no first-match-wins, so a base overtime rule and a holiday
     surcharge rule can coexist
  3. Amounts are money.Money, rounded once at line creation

SEE ALSO:
  - resolver.go: scope ranking and effective-date filtering
  - evaluator.go: condition matching and value computation
  - presets.go: ready-to-use policy configurations
*/
package policy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/money"
)

// =============================================================================
// POLICY TYPE AND SCOPE
// =============================================================================

// Type classifies what a policy governs.
type Type string

const (
	TypeOvertime   Type = "OVERTIME"
	TypeDeduction  Type = "DEDUCTION"
	TypeLeave      Type = "LEAVE"
	TypeAllowance  Type = "ALLOWANCE"
	TypeAttendance Type = "ATTENDANCE"
	TypeGeneral    Type = "GENERAL"
)

// Scope is the ordered organizational specificity ladder. The integer
// values ARE the ranking: a higher value always wins resolution.
type Scope int

const (
	ScopeCompany Scope = iota + 1
	ScopeBranch
	ScopeDepartment
	ScopeJobTitle
	ScopeEmployee
)

func (s Scope) String() string {
	switch s {
	case ScopeCompany:
		return "COMPANY"
	case ScopeBranch:
		return "BRANCH"
	case ScopeDepartment:
		return "DEPARTMENT"
	case ScopeJobTitle:
		return "JOB_TITLE"
	case ScopeEmployee:
		return "EMPLOYEE"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// ParseScope converts the stored string form back to a Scope.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "COMPANY":
		return ScopeCompany, nil
	case "BRANCH":
		return ScopeBranch, nil
	case "DEPARTMENT":
		return ScopeDepartment, nil
	case "JOB_TITLE":
		return ScopeJobTitle, nil
	case "EMPLOYEE":
		return ScopeEmployee, nil
	default:
		return 0, fmt.Errorf("unknown scope %q", s)
	}
}

// =============================================================================
// POLICY AND RULES
// =============================================================================

// Sign marks which side of the payslip a rule output lands on.
type Sign string

const (
	SignEarning   Sign = "EARNING"
	SignDeduction Sign = "DEDUCTION"
)

// ValueType selects the value recipe of a rule.
type ValueType string

const (
	ValueFixed      ValueType = "FIXED"      // literal amount
	ValuePercentage ValueType = "PERCENTAGE" // base x value/100
	ValueFormula    ValueType = "FORMULA"    // delegate to the formula evaluator
	ValueMultiplier ValueType = "MULTIPLIER" // hourly rate x value x units
)

// Policy is a company business rule set, read-only to the engine.
type Policy struct {
	ID        string
	CompanyID string
	Code      string
	Name      string
	Type      Type
	Scope     Scope

	// Scope foreign keys. Exactly the one matching Scope must be set;
	// Validate enforces this.
	BranchID     string
	DepartmentID string
	JobTitleID   string
	EmployeeID   string

	Priority      int
	EffectiveFrom calendar.Date
	EffectiveTo   *calendar.Date // nil = open-ended
	Active        bool

	Rules []Rule
}

// Validate checks the scope carries its required foreign key.
func (p Policy) Validate() error {
	switch p.Scope {
	case ScopeCompany:
		// company scope needs nothing beyond CompanyID
	case ScopeBranch:
		if p.BranchID == "" {
			return fmt.Errorf("policy %s: BRANCH scope requires a branch id", p.Code)
		}
	case ScopeDepartment:
		if p.DepartmentID == "" {
			return fmt.Errorf("policy %s: DEPARTMENT scope requires a department id", p.Code)
		}
	case ScopeJobTitle:
		if p.JobTitleID == "" {
			return fmt.Errorf("policy %s: JOB_TITLE scope requires a job title id", p.Code)
		}
	case ScopeEmployee:
		if p.EmployeeID == "" {
			return fmt.Errorf("policy %s: EMPLOYEE scope requires an employee id", p.Code)
		}
	default:
		return fmt.Errorf("policy %s: unknown scope %d", p.Code, int(p.Scope))
	}
	if p.CompanyID == "" {
		return fmt.Errorf("policy %s: missing company id", p.Code)
	}
	return nil
}

// EffectiveOn reports whether the policy's interval contains the date.
func (p Policy) EffectiveOn(d calendar.Date) bool {
	if d.Before(p.EffectiveFrom) {
		return false
	}
	if p.EffectiveTo != nil && d.After(*p.EffectiveTo) {
		return false
	}
	return true
}

// Rule is one condition-gated value recipe inside a policy.
type Rule struct {
	ID         string
	Code       string
	Name       string
	Order      int
	Active     bool
	Conditions ConditionSet
	ValueType  ValueType
	Value      string // literal, percentage, multiplier, or formula text
	Output     string // component code the line is booked against
	OutputSign Sign
}

// =============================================================================
// CONDITIONS - Tagged operator variants
// =============================================================================

// Operator enumerates the supported comparison operators.
type Operator string

const (
	OpEq    Operator = "eq"
	OpNe    Operator = "ne"
	OpGt    Operator = "gt"
	OpGte   Operator = "gte"
	OpLt    Operator = "lt"
	OpLte   Operator = "lte"
	OpIn    Operator = "in"
	OpNotIn Operator = "notIn"
)

// Value is a condition operand: either a number or a text label
// (e.g. dayType "WEEKEND"). Comparisons are numeric when both sides are
// numbers, string equality otherwise.
type Value struct {
	Number decimal.Decimal
	Text   string
	IsNum  bool
}

func Num(d decimal.Decimal) Value { return Value{Number: d, IsNum: true} }
func NumFloat(f float64) Value    { return Num(decimal.NewFromFloat(f)) }
func Text(s string) Value         { return Value{Text: s} }

func (v Value) String() string {
	if v.IsNum {
		return v.Number.String()
	}
	return v.Text
}

// Condition is one operator applied to a context key. OpIn/OpNotIn use
// Values; every other operator uses Value.
type Condition struct {
	Op     Operator
	Value  Value
	Values []Value
}

// Eq is the shorthand for a bare equality condition (a condition stored
// without an operator object).
func Eq(v Value) Condition { return Condition{Op: OpEq, Value: v} }

// ConditionSet maps context keys to the conditions that must ALL hold.
// An empty set always matches.
type ConditionSet map[string][]Condition

// =============================================================================
// EVALUATION CONTEXT AND OUTPUT
// =============================================================================

// Context carries the facts a rule matches against and the bases its value
// recipes draw from. Assembled by the orchestrator per rule type.
type Context struct {
	// Facts for condition matching, e.g. "dayType" -> WEEKEND,
	// "lateMinutes" -> 34, "absentDays" -> 2.
	Facts map[string]Value

	// Base for PERCENTAGE rules (salary or a rule-specific base).
	Base money.Money

	// HourlyRate for MULTIPLIER rules. A raw decimal: rates are never
	// rounded, only the resulting line amount is.
	HourlyRate decimal.Decimal

	// Units scales MULTIPLIER results (overtime hours, absent days).
	// Zero means "no quantity": multiplier rules then price a single unit.
	Units decimal.Decimal

	// Vars is the variable table handed to FORMULA rules.
	Vars map[string]decimal.Decimal
}

// Fact returns a fact value and whether it exists.
func (c Context) Fact(key string) (Value, bool) {
	v, ok := c.Facts[key]
	return v, ok
}

// Line is one payroll line candidate produced by a matching rule.
type Line struct {
	ComponentCode string
	Sign          Sign
	Amount        money.Money
	Description   string
	Units         decimal.Decimal

	// Provenance
	PolicyID   string
	PolicyCode string
	RuleID     string
	RuleCode   string
}

// RuleError records a rule that failed to compute (bad formula, bad
// literal). Non-fatal: the orchestrator traces it and moves on.
type RuleError struct {
	RuleID   string
	RuleCode string
	Err      error
}

func (e RuleError) Error() string {
	return fmt.Sprintf("rule %s: %v", e.RuleCode, e.Err)
}
