package policy_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/policy"
)

func fixedRule(code, value, output string) policy.Rule {
	return policy.Rule{
		ID: code, Code: code, Active: true,
		ValueType: policy.ValueFixed, Value: value,
		Output: output, OutputSign: policy.SignEarning,
	}
}

// =============================================================================
// VALUE TYPE SEMANTICS
// =============================================================================

func TestEvaluateRules_FixedIgnoresContext(t *testing.T) {
	// GIVEN: A FIXED rule of 500 and two contexts with very different bases
	// THEN: The emitted amount is 500.00 in both

	p := &policy.Policy{ID: "p-1", Active: true, Rules: []policy.Rule{
		fixedRule("r-1", "500", "TRANSPORT"),
	}}
	for _, base := range []float64{1000, 80000} {
		lines, errs := policy.EvaluateRules(p, policy.Context{Base: money.FromFloat(base)})
		if len(errs) != 0 {
			t.Fatalf("unexpected rule errors: %v", errs)
		}
		if len(lines) != 1 || lines[0].Amount.String() != "500.00" {
			t.Fatalf("base %v: expected single 500.00 line, got %+v", base, lines)
		}
	}
}

func TestEvaluateRules_PercentageOfBase(t *testing.T) {
	// GIVEN: valueType=PERCENTAGE value=10 and a base of 8000
	// THEN: The emitted amount is 800.00

	r := fixedRule("r-1", "10", "HOUSING")
	r.ValueType = policy.ValuePercentage
	p := &policy.Policy{ID: "p-1", Active: true, Rules: []policy.Rule{r}}

	lines, errs := policy.EvaluateRules(p, policy.Context{Base: money.FromFloat(8000)})
	if len(errs) != 0 {
		t.Fatalf("unexpected rule errors: %v", errs)
	}
	if len(lines) != 1 || lines[0].Amount.String() != "800.00" {
		t.Fatalf("expected 800.00, got %+v", lines)
	}
}

func TestEvaluateRules_MultiplierScalesHourlyRateByUnits(t *testing.T) {
	// 1.5x overtime at 50/hour for 4 hours = 300.00.
	r := fixedRule("r-ot", "1.5", "OT")
	r.ValueType = policy.ValueMultiplier
	p := &policy.Policy{ID: "p-1", Active: true, Rules: []policy.Rule{r}}

	ctx := policy.Context{
		HourlyRate: decimal.NewFromInt(50),
		Units:      decimal.NewFromInt(4),
	}
	lines, errs := policy.EvaluateRules(p, ctx)
	if len(errs) != 0 {
		t.Fatalf("unexpected rule errors: %v", errs)
	}
	if len(lines) != 1 || lines[0].Amount.String() != "300.00" {
		t.Fatalf("expected 300.00, got %+v", lines)
	}
	if !lines[0].Units.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("expected 4 units on the line, got %s", lines[0].Units)
	}
}

func TestEvaluateRules_MultiplierRoundsOnceAtEmission(t *testing.T) {
	// 25/h spread over 60 minutes prices 30 minutes at exactly 12.50 —
	// not 30 x round(25/60) = 12.60. The rate stays raw until the line.
	r := fixedRule("r-min", "1", "LATE_DED")
	r.ValueType = policy.ValueMultiplier
	r.OutputSign = policy.SignDeduction
	p := &policy.Policy{ID: "p-1", Active: true, Rules: []policy.Rule{r}}

	ctx := policy.Context{
		HourlyRate: decimal.NewFromInt(25).Div(decimal.NewFromInt(60)),
		Units:      decimal.NewFromInt(30),
	}
	lines, errs := policy.EvaluateRules(p, ctx)
	if len(errs) != 0 {
		t.Fatalf("unexpected rule errors: %v", errs)
	}
	if len(lines) != 1 || lines[0].Amount.String() != "12.50" {
		t.Fatalf("expected 12.50, got %+v", lines)
	}
}

func TestEvaluateRules_FormulaUsesContextVars(t *testing.T) {
	r := fixedRule("r-late", "LATE_MINUTES * MINUTE_RATE", "LATE_DED")
	r.ValueType = policy.ValueFormula
	r.OutputSign = policy.SignDeduction
	p := &policy.Policy{ID: "p-1", Active: true, Rules: []policy.Rule{r}}

	ctx := policy.Context{Vars: map[string]decimal.Decimal{
		"LATE_MINUTES": decimal.NewFromInt(30),
		"MINUTE_RATE":  decimal.RequireFromString("0.5"),
	}}
	lines, errs := policy.EvaluateRules(p, ctx)
	if len(errs) != 0 {
		t.Fatalf("unexpected rule errors: %v", errs)
	}
	if len(lines) != 1 || lines[0].Amount.String() != "15.00" {
		t.Fatalf("expected 15.00, got %+v", lines)
	}
	if lines[0].Sign != policy.SignDeduction {
		t.Fatalf("expected deduction sign, got %s", lines[0].Sign)
	}
}

func TestEvaluateRules_FormulaErrorIsReportedNotFatal(t *testing.T) {
	bad := fixedRule("r-bad", "UNKNOWN_VAR * 2", "X")
	bad.ValueType = policy.ValueFormula
	good := fixedRule("r-good", "100", "Y")
	p := &policy.Policy{ID: "p-1", Active: true, Rules: []policy.Rule{bad, good}}

	lines, errs := policy.EvaluateRules(p, policy.Context{})
	if len(errs) != 1 || errs[0].RuleID != "r-bad" {
		t.Fatalf("expected one rule error for r-bad, got %v", errs)
	}
	if len(lines) != 1 || lines[0].ComponentCode != "Y" {
		t.Fatalf("expected surviving line for r-good, got %+v", lines)
	}
}

func TestEvaluateRules_ZeroResultDropped(t *testing.T) {
	p := &policy.Policy{ID: "p-1", Active: true, Rules: []policy.Rule{
		fixedRule("r-zero", "0", "NOOP"),
	}}
	lines, errs := policy.EvaluateRules(p, policy.Context{})
	if len(errs) != 0 || len(lines) != 0 {
		t.Fatalf("expected no lines and no errors, got %+v %v", lines, errs)
	}
}

func TestEvaluateRules_MultipleMatchesAreAdditive(t *testing.T) {
	p := &policy.Policy{ID: "p-1", Active: true, Rules: []policy.Rule{
		fixedRule("r-1", "100", "A"),
		fixedRule("r-2", "200", "B"),
	}}
	lines, _ := policy.EvaluateRules(p, policy.Context{})
	if len(lines) != 2 {
		t.Fatalf("expected both rules to emit, got %+v", lines)
	}
}

func TestEvaluateRules_InactiveRuleSkipped(t *testing.T) {
	r := fixedRule("r-off", "100", "A")
	r.Active = false
	p := &policy.Policy{ID: "p-1", Active: true, Rules: []policy.Rule{r}}
	lines, errs := policy.EvaluateRules(p, policy.Context{})
	if len(lines) != 0 || len(errs) != 0 {
		t.Fatalf("expected nothing from inactive rule, got %+v %v", lines, errs)
	}
}

// =============================================================================
// CONDITION MATCHING
// =============================================================================

func TestMatchConditions_Operators(t *testing.T) {
	ctx := policy.Context{Facts: map[string]policy.Value{
		"dayType": policy.Text("WEEKEND"),
		"hours":   policy.NumFloat(3),
	}}

	cases := []struct {
		name string
		set  policy.ConditionSet
		want bool
	}{
		{"empty set matches", policy.ConditionSet{}, true},
		{"eq text", policy.ConditionSet{"dayType": {policy.Eq(policy.Text("WEEKEND"))}}, true},
		{"eq text miss", policy.ConditionSet{"dayType": {policy.Eq(policy.Text("WEEKDAY"))}}, false},
		{"ne", policy.ConditionSet{"dayType": {{Op: policy.OpNe, Value: policy.Text("WEEKDAY")}}}, true},
		{"gt", policy.ConditionSet{"hours": {{Op: policy.OpGt, Value: policy.NumFloat(2)}}}, true},
		{"gte boundary", policy.ConditionSet{"hours": {{Op: policy.OpGte, Value: policy.NumFloat(3)}}}, true},
		{"lt miss", policy.ConditionSet{"hours": {{Op: policy.OpLt, Value: policy.NumFloat(3)}}}, false},
		{"lte boundary", policy.ConditionSet{"hours": {{Op: policy.OpLte, Value: policy.NumFloat(3)}}}, true},
		{"in", policy.ConditionSet{"dayType": {{
			Op: policy.OpIn, Values: []policy.Value{policy.Text("WEEKEND"), policy.Text("HOLIDAY")},
		}}}, true},
		{"notIn", policy.ConditionSet{"dayType": {{
			Op: policy.OpNotIn, Values: []policy.Value{policy.Text("WEEKDAY")},
		}}}, true},
		{"missing fact fails", policy.ConditionSet{"shift": {policy.Eq(policy.Text("NIGHT"))}}, false},
		{"all keys must match", policy.ConditionSet{
			"dayType": {policy.Eq(policy.Text("WEEKEND"))},
			"hours":   {{Op: policy.OpGt, Value: policy.NumFloat(10)}},
		}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := policy.MatchConditions(c.set, ctx); got != c.want {
				t.Errorf("expected %v, got %v", c.want, got)
			}
		})
	}
}

func TestEvaluateRules_ConditionGatesRule(t *testing.T) {
	r := fixedRule("r-weekend", "200", "OT")
	r.Conditions = policy.ConditionSet{"dayType": {policy.Eq(policy.Text("WEEKEND"))}}
	p := &policy.Policy{ID: "p-1", Active: true, Rules: []policy.Rule{r}}

	weekday := policy.Context{Facts: map[string]policy.Value{"dayType": policy.Text("WEEKDAY")}}
	if lines, _ := policy.EvaluateRules(p, weekday); len(lines) != 0 {
		t.Fatalf("rule must not fire on weekday, got %+v", lines)
	}
	weekend := policy.Context{Facts: map[string]policy.Value{"dayType": policy.Text("WEEKEND")}}
	if lines, _ := policy.EvaluateRules(p, weekend); len(lines) != 1 {
		t.Fatalf("rule must fire on weekend, got %+v", lines)
	}
}

// =============================================================================
// CONSOLIDATION
// =============================================================================

func TestConsolidateLines_MergesByComponentCode(t *testing.T) {
	lines := []policy.Line{
		{ComponentCode: "OT", Sign: policy.SignEarning, Amount: money.FromFloat(100), Units: decimal.NewFromInt(2)},
		{ComponentCode: "LATE_DED", Sign: policy.SignDeduction, Amount: money.FromFloat(15)},
		{ComponentCode: "OT", Sign: policy.SignEarning, Amount: money.FromFloat(50), Units: decimal.NewFromInt(1)},
	}
	out := policy.ConsolidateLines(lines)
	if len(out) != 2 {
		t.Fatalf("expected 2 consolidated lines, got %d", len(out))
	}
	// First-appearance order is preserved.
	if out[0].ComponentCode != "OT" || out[1].ComponentCode != "LATE_DED" {
		t.Fatalf("unexpected order: %+v", out)
	}
	if out[0].Amount.String() != "150.00" {
		t.Fatalf("expected merged OT of 150.00, got %s", out[0].Amount)
	}
	if !out[0].Units.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("expected merged units 3, got %s", out[0].Units)
	}
}

// =============================================================================
// FACTORY
// =============================================================================

func TestParsePolicy_OperatorObjectsAndBareLiterals(t *testing.T) {
	raw := []byte(`{
		"id": "p-ot",
		"company_id": "co-1",
		"code": "OT_STD",
		"name": "Standard Overtime",
		"type": "OVERTIME",
		"scope": "COMPANY",
		"effective_from": "2025-01-01",
		"active": true,
		"rules": [
			{
				"code": "weekday",
				"conditions": {
					"dayType": "WEEKDAY",
					"hours": {"gt": 0, "lte": 12}
				},
				"value_type": "MULTIPLIER",
				"value": "1.5",
				"output_component": "OT",
				"output_sign": "EARNING"
			}
		]
	}`)

	p, err := policy.ParsePolicy(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if p.Type != policy.TypeOvertime || p.Scope != policy.ScopeCompany {
		t.Fatalf("unexpected header fields: %+v", p)
	}
	if len(p.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(p.Rules))
	}
	conds := p.Rules[0].Conditions
	if len(conds["dayType"]) != 1 || conds["dayType"][0].Op != policy.OpEq {
		t.Fatalf("bare literal must parse as equality: %+v", conds["dayType"])
	}
	if len(conds["hours"]) != 2 {
		t.Fatalf("operator object must yield one condition per operator: %+v", conds["hours"])
	}
}

func TestParsePolicy_RejectsInvalidFormula(t *testing.T) {
	raw := []byte(`{
		"id": "p-bad",
		"company_id": "co-1",
		"code": "BAD",
		"name": "Bad Formula",
		"type": "DEDUCTION",
		"scope": "COMPANY",
		"effective_from": "2025-01-01",
		"active": true,
		"rules": [
			{
				"code": "r1",
				"value_type": "FORMULA",
				"value": "system($PATH)",
				"output_component": "X",
				"output_sign": "DEDUCTION"
			}
		]
	}`)
	if _, err := policy.ParsePolicy(raw); err == nil {
		t.Fatal("expected formula validation error")
	}
}
