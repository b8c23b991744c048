/*
factory.go - JSON to policy conversion

PURPOSE:
  Converts JSON policy documents into Policy values. This is how the admin
  surface and the store exchange policies without code changes: HR defines
  a policy as JSON, the factory validates it and produces the typed form.

JSON SCHEMA:
  {
    "id": "ot-ramadan",
    "company_id": "co-1",
    "code": "OT-RAMADAN",
    "name": "Ramadan Overtime",
    "type": "OVERTIME",
    "scope": "DEPARTMENT",
    "department_id": "dep-ops",
    "priority": 10,
    "effective_from": "2025-03-01",
    "effective_to": "2025-04-01",
    "rules": [
      {
        "code": "OT-R1",
        "conditions": {"dayType": {"eq": "WEEKDAY"}, "otHours": {"gt": 2}},
        "value_type": "MULTIPLIER",
        "value": "2.0",
        "output_component": "OVERTIME",
        "output_sign": "EARNING"
      }
    ]
  }

CONDITION ENCODING:
  A condition value may be a bare literal (equality) or an operator object
  with any of eq, ne, gt, gte, lt, lte, in, notIn. Numbers stay numeric;
  strings compare as text.

VALIDATION:
  - scope string must parse, and the scope's foreign key must be present
  - every FORMULA rule must pass formula.Validate
  - effective_from is required; effective_to is optional
*/
package policy

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/formula"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

type policyJSON struct {
	ID            string              `json:"id"`
	CompanyID     string              `json:"company_id"`
	Code          string              `json:"code"`
	Name          string              `json:"name"`
	Type          string              `json:"type"`
	Scope         string              `json:"scope"`
	BranchID      string              `json:"branch_id,omitempty"`
	DepartmentID  string              `json:"department_id,omitempty"`
	JobTitleID    string              `json:"job_title_id,omitempty"`
	EmployeeID    string              `json:"employee_id,omitempty"`
	Priority      int                 `json:"priority,omitempty"`
	EffectiveFrom string              `json:"effective_from"`
	EffectiveTo   string              `json:"effective_to,omitempty"`
	Active        *bool               `json:"active,omitempty"`
	Rules         []ruleJSON          `json:"rules"`
}

type ruleJSON struct {
	ID         string                     `json:"id,omitempty"`
	Code       string                     `json:"code"`
	Name       string                     `json:"name,omitempty"`
	Order      int                        `json:"order,omitempty"`
	Active     *bool                      `json:"active,omitempty"`
	Conditions map[string]json.RawMessage `json:"conditions,omitempty"`
	ValueType  string                     `json:"value_type"`
	Value      string                     `json:"value"`
	Output     string                     `json:"output_component"`
	OutputSign string                     `json:"output_sign"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParsePolicy converts a JSON document into a validated Policy.
func ParsePolicy(data []byte) (Policy, error) {
	var pj policyJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return Policy{}, fmt.Errorf("parse policy: %w", err)
	}

	scope, err := ParseScope(pj.Scope)
	if err != nil {
		return Policy{}, fmt.Errorf("policy %s: %w", pj.Code, err)
	}

	from, err := parseDate(pj.EffectiveFrom)
	if err != nil {
		return Policy{}, fmt.Errorf("policy %s: bad effective_from: %w", pj.Code, err)
	}

	p := Policy{
		ID:            pj.ID,
		CompanyID:     pj.CompanyID,
		Code:          pj.Code,
		Name:          pj.Name,
		Type:          Type(pj.Type),
		Scope:         scope,
		BranchID:      pj.BranchID,
		DepartmentID:  pj.DepartmentID,
		JobTitleID:    pj.JobTitleID,
		EmployeeID:    pj.EmployeeID,
		Priority:      pj.Priority,
		EffectiveFrom: from,
		Active:        pj.Active == nil || *pj.Active,
	}

	if pj.EffectiveTo != "" {
		to, err := parseDate(pj.EffectiveTo)
		if err != nil {
			return Policy{}, fmt.Errorf("policy %s: bad effective_to: %w", pj.Code, err)
		}
		p.EffectiveTo = &to
	}

	for i, rj := range pj.Rules {
		rule, err := parseRule(rj, i)
		if err != nil {
			return Policy{}, fmt.Errorf("policy %s: %w", pj.Code, err)
		}
		p.Rules = append(p.Rules, rule)
	}

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

func parseRule(rj ruleJSON, idx int) (Rule, error) {
	rule := Rule{
		ID:         rj.ID,
		Code:       rj.Code,
		Name:       rj.Name,
		Order:      rj.Order,
		Active:     rj.Active == nil || *rj.Active,
		ValueType:  ValueType(rj.ValueType),
		Value:      rj.Value,
		Output:     rj.Output,
		OutputSign: Sign(rj.OutputSign),
	}
	if rule.Order == 0 {
		rule.Order = idx
	}
	if rule.Output == "" {
		return Rule{}, fmt.Errorf("rule %s: missing output_component", rj.Code)
	}
	switch rule.ValueType {
	case ValueFixed, ValuePercentage, ValueFormula, ValueMultiplier:
	default:
		return Rule{}, fmt.Errorf("rule %s: unknown value_type %q", rj.Code, rj.ValueType)
	}
	switch rule.OutputSign {
	case SignEarning, SignDeduction:
	default:
		return Rule{}, fmt.Errorf("rule %s: unknown output_sign %q", rj.Code, rj.OutputSign)
	}
	if rule.ValueType == ValueFormula {
		if err := formula.Validate(rule.Value, formulaExtensions); err != nil {
			return Rule{}, fmt.Errorf("rule %s: %w", rj.Code, err)
		}
	}

	if len(rj.Conditions) > 0 {
		rule.Conditions = ConditionSet{}
		for key, raw := range rj.Conditions {
			conds, err := parseCondition(raw)
			if err != nil {
				return Rule{}, fmt.Errorf("rule %s, condition %s: %w", rj.Code, key, err)
			}
			rule.Conditions[key] = conds
		}
	}
	return rule, nil
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// MarshalPolicy converts a Policy back into its JSON document form, the
// inverse of ParsePolicy. Used by seed data and the admin surface.
func MarshalPolicy(p Policy) ([]byte, error) {
	pj := policyJSON{
		ID:            p.ID,
		CompanyID:     p.CompanyID,
		Code:          p.Code,
		Name:          p.Name,
		Type:          string(p.Type),
		Scope:         p.Scope.String(),
		BranchID:      p.BranchID,
		DepartmentID:  p.DepartmentID,
		JobTitleID:    p.JobTitleID,
		EmployeeID:    p.EmployeeID,
		Priority:      p.Priority,
		EffectiveFrom: p.EffectiveFrom.String(),
		Active:        &p.Active,
	}
	if p.EffectiveTo != nil {
		pj.EffectiveTo = p.EffectiveTo.String()
	}
	for _, r := range p.Rules {
		rj := ruleJSON{
			ID:         r.ID,
			Code:       r.Code,
			Name:       r.Name,
			Order:      r.Order,
			Active:     &r.Active,
			ValueType:  string(r.ValueType),
			Value:      r.Value,
			Output:     r.Output,
			OutputSign: string(r.OutputSign),
		}
		if len(r.Conditions) > 0 {
			rj.Conditions = map[string]json.RawMessage{}
			for key, conds := range r.Conditions {
				obj := map[string]json.RawMessage{}
				for _, c := range conds {
					switch c.Op {
					case OpIn, OpNotIn:
						items := make([]json.RawMessage, len(c.Values))
						for i, v := range c.Values {
							items[i] = marshalValue(v)
						}
						arr, err := json.Marshal(items)
						if err != nil {
							return nil, err
						}
						obj[string(c.Op)] = arr
					default:
						obj[string(c.Op)] = marshalValue(c.Value)
					}
				}
				raw, err := json.Marshal(obj)
				if err != nil {
					return nil, err
				}
				rj.Conditions[key] = raw
			}
		}
		pj.Rules = append(pj.Rules, rj)
	}
	return json.Marshal(pj)
}

// marshalValue emits numbers unquoted so they re-parse as numeric values.
func marshalValue(v Value) json.RawMessage {
	if v.IsNum {
		return json.RawMessage(v.Number.String())
	}
	b, _ := json.Marshal(v.Text)
	return b
}

// formulaExtensions are the extra variables policy formulas may reference
// beyond the base whitelist.
var formulaExtensions = []string{"UNPAID_DAYS", "PAID_DAYS", "OT_HOURS_WEEKDAY", "OT_HOURS_WEEKEND", "OT_HOURS_HOLIDAY"}

// parseCondition decodes a bare literal (equality) or an operator object.
func parseCondition(raw json.RawMessage) ([]Condition, error) {
	// Operator object?
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		var conds []Condition
		for op, operand := range obj {
			cond := Condition{Op: Operator(op)}
			switch cond.Op {
			case OpIn, OpNotIn:
				var items []json.RawMessage
				if err := json.Unmarshal(operand, &items); err != nil {
					return nil, fmt.Errorf("%s expects an array", op)
				}
				for _, item := range items {
					v, err := parseValue(item)
					if err != nil {
						return nil, err
					}
					cond.Values = append(cond.Values, v)
				}
			case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
				v, err := parseValue(operand)
				if err != nil {
					return nil, err
				}
				cond.Value = v
			default:
				return nil, fmt.Errorf("unknown operator %q", op)
			}
			conds = append(conds, cond)
		}
		return conds, nil
	}

	// Bare literal: equality.
	v, err := parseValue(raw)
	if err != nil {
		return nil, err
	}
	return []Condition{Eq(v)}, nil
}

func parseValue(raw json.RawMessage) (Value, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return Text(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return Value{}, fmt.Errorf("bad number %q", n.String())
		}
		return Num(d), nil
	}
	return Value{}, fmt.Errorf("condition value must be a string or number")
}

func parseDate(s string) (calendar.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return calendar.Date{}, err
	}
	return calendar.FromTime(t), nil
}
