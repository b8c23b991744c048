/*
evaluator.go - Rule condition matching and value computation

PURPOSE:
  Evaluates each active rule of a resolved policy against a Context and
  produces payroll line candidates. Rules run in stored order; EVERY
  matching, non-zero rule contributes a line — there is no first-match
  short circuit, so stacking rules (base overtime + holiday surcharge) is
  possible.

VALUE RECIPES:
  FIXED:      literal value as-is
  PERCENTAGE: Context.Base x value/100
  FORMULA:    delegated to the formula package with Context.Vars
  MULTIPLIER: Context.HourlyRate x value x Context.Units (units default 1)

FAILURE MODEL:
  A rule whose value fails to compute (bad literal, formula error) is
  dropped and reported in the returned RuleError slice so the orchestrator
  can trace it. A zero result is dropped silently — a rule that computes
  to nothing produces nothing.
*/
package policy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/formula"
	"github.com/warp/payroll-engine/money"
)

// EvaluateRules runs every active rule of the policy against the context.
// Line amounts are rounded to 2 decimals at creation. The error slice
// carries per-rule failures; it is advisory, never fatal.
func EvaluateRules(p *Policy, ctx Context) ([]Line, []RuleError) {
	if p == nil {
		return nil, nil
	}

	var (
		lines []Line
		errs  []RuleError
	)
	for _, rule := range p.Rules {
		if !rule.Active {
			continue
		}
		if !MatchConditions(rule.Conditions, ctx) {
			continue
		}

		amount, units, err := computeValue(rule, ctx)
		if err != nil {
			errs = append(errs, RuleError{RuleID: rule.ID, RuleCode: rule.Code, Err: err})
			continue
		}
		if amount.IsZero() {
			continue
		}

		lines = append(lines, Line{
			ComponentCode: rule.Output,
			Sign:          rule.OutputSign,
			Amount:        amount,
			Description:   ruleDescription(rule, units),
			Units:         units,
			PolicyID:      p.ID,
			PolicyCode:    p.Code,
			RuleID:        rule.ID,
			RuleCode:      rule.Code,
		})
	}
	return lines, errs
}

// ConsolidateLines merges lines that target the same component code,
// summing amounts and units, so a payslip never shows several rows for the
// same component. Order of first appearance is preserved.
func ConsolidateLines(lines []Line) []Line {
	byCode := map[string]int{}
	var out []Line
	for _, l := range lines {
		if i, ok := byCode[l.ComponentCode]; ok {
			out[i].Amount = out[i].Amount.Add(l.Amount)
			out[i].Units = out[i].Units.Add(l.Units)
			continue
		}
		byCode[l.ComponentCode] = len(out)
		out = append(out, l)
	}
	return out
}

// =============================================================================
// CONDITION MATCHING
// =============================================================================

// MatchConditions reports whether every condition in the set holds against
// the context facts. An empty set always matches. A condition on a fact the
// context does not carry fails the match.
func MatchConditions(set ConditionSet, ctx Context) bool {
	for key, conds := range set {
		fact, ok := ctx.Fact(key)
		if !ok {
			return false
		}
		for _, c := range conds {
			if !matchOne(c, fact) {
				return false
			}
		}
	}
	return true
}

func matchOne(c Condition, fact Value) bool {
	switch c.Op {
	case OpEq:
		return valueEqual(fact, c.Value)
	case OpNe:
		return !valueEqual(fact, c.Value)
	case OpGt:
		cmp, ok := valueCompare(fact, c.Value)
		return ok && cmp > 0
	case OpGte:
		cmp, ok := valueCompare(fact, c.Value)
		return ok && cmp >= 0
	case OpLt:
		cmp, ok := valueCompare(fact, c.Value)
		return ok && cmp < 0
	case OpLte:
		cmp, ok := valueCompare(fact, c.Value)
		return ok && cmp <= 0
	case OpIn:
		for _, v := range c.Values {
			if valueEqual(fact, v) {
				return true
			}
		}
		return false
	case OpNotIn:
		for _, v := range c.Values {
			if valueEqual(fact, v) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func valueEqual(a, b Value) bool {
	if a.IsNum && b.IsNum {
		return a.Number.Equal(b.Number)
	}
	if !a.IsNum && !b.IsNum {
		return a.Text == b.Text
	}
	return false
}

// valueCompare returns -1/0/+1 and whether an ordering comparison was
// possible (both operands numeric).
func valueCompare(a, b Value) (int, bool) {
	if !a.IsNum || !b.IsNum {
		return 0, false
	}
	return a.Number.Cmp(b.Number), true
}

// =============================================================================
// VALUE COMPUTATION
// =============================================================================

func computeValue(rule Rule, ctx Context) (money.Money, decimal.Decimal, error) {
	units := ctx.Units
	if units.IsZero() {
		units = decimal.NewFromInt(1)
	}

	switch rule.ValueType {
	case ValueFixed:
		v, err := decimal.NewFromString(rule.Value)
		if err != nil {
			return money.Zero(), units, fmt.Errorf("bad fixed value %q", rule.Value)
		}
		return money.New(v), units, nil

	case ValuePercentage:
		pct, err := decimal.NewFromString(rule.Value)
		if err != nil {
			return money.Zero(), units, fmt.Errorf("bad percentage %q", rule.Value)
		}
		return ctx.Base.Percent(pct), units, nil

	case ValueFormula:
		v, err := formula.Evaluate(rule.Value, ctx.Vars)
		if err != nil {
			return money.Zero(), units, err
		}
		return money.New(v), units, nil

	case ValueMultiplier:
		mult, err := decimal.NewFromString(rule.Value)
		if err != nil {
			return money.Zero(), units, fmt.Errorf("bad multiplier %q", rule.Value)
		}
		return money.New(ctx.HourlyRate.Mul(mult).Mul(units)), units, nil

	default:
		return money.Zero(), units, fmt.Errorf("unknown value type %q", rule.ValueType)
	}
}

func ruleDescription(rule Rule, units decimal.Decimal) string {
	name := rule.Name
	if name == "" {
		name = rule.Code
	}
	if units.Equal(decimal.NewFromInt(1)) {
		return name
	}
	return fmt.Sprintf("%s (%s units)", name, units.String())
}
