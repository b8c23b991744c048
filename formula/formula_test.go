package formula_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/formula"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func vars(pairs ...any) formula.Vars {
	v := formula.Vars{}
	for i := 0; i < len(pairs); i += 2 {
		v.Set(pairs[i].(string), decimal.NewFromFloat(pairs[i+1].(float64)))
	}
	return v
}

func evalOK(t *testing.T, expr string, v formula.Vars) decimal.Decimal {
	t.Helper()
	got, err := formula.Evaluate(expr, v)
	if err != nil {
		t.Fatalf("Evaluate(%q): unexpected error: %v", expr, err)
	}
	return got
}

func expectValue(t *testing.T, expr string, v formula.Vars, want string) {
	t.Helper()
	got := evalOK(t, expr, v)
	if got.String() != want {
		t.Errorf("Evaluate(%q): expected %s, got %s", expr, want, got)
	}
}

// =============================================================================
// ARITHMETIC AND PRECEDENCE
// =============================================================================

func TestEvaluate_OperatorPrecedence(t *testing.T) {
	expectValue(t, "2 + 3 * 4", nil, "14")
	expectValue(t, "(2 + 3) * 4", nil, "20")
	expectValue(t, "10 - 4 - 3", nil, "3") // left-associative
	expectValue(t, "2 ^ 3 ^ 2", nil, "512") // right-associative
	expectValue(t, "7 % 3", nil, "1")
	expectValue(t, "-5 + 10", nil, "5")
}

func TestEvaluate_Variables_CaseInsensitive(t *testing.T) {
	v := vars("BASIC", 8000.0)
	expectValue(t, "basic * 0.25", v, "2000")
	expectValue(t, "Basic + BASIC", v, "16000")
}

func TestEvaluate_ResultRoundedToTwoPlaces(t *testing.T) {
	expectValue(t, "10 / 3", nil, "3.33")
}

// =============================================================================
// FUNCTIONS AND CONDITIONALS
// =============================================================================

func TestEvaluate_Functions(t *testing.T) {
	expectValue(t, "MIN(3, 1, 2)", nil, "1")
	expectValue(t, "MAX(3, 1, 2)", nil, "3")
	expectValue(t, "ROUND(2.456, 1)", nil, "2.5")
	expectValue(t, "FLOOR(2.9)", nil, "2")
	expectValue(t, "CEIL(2.1)", nil, "3")
	expectValue(t, "ABS(0 - 5)", nil, "5")
	expectValue(t, "POW(2, 10)", nil, "1024")
}

func TestEvaluate_If_NestedAndShortCircuit(t *testing.T) {
	// GIVEN: A tiered overtime formula
	// WHEN: OT_HOURS crosses the tier boundary
	// THEN: The matching branch is used, and the untaken branch is not
	//       evaluated (division by zero in it must not fail the formula)

	expr := "IF(OT_HOURS > 10, HOURLY_RATE * 2, HOURLY_RATE * 1.5)"

	expectValue(t, expr, vars("OT_HOURS", 12.0, "HOURLY_RATE", 50.0), "100")
	expectValue(t, expr, vars("OT_HOURS", 8.0, "HOURLY_RATE", 50.0), "75")

	// Untaken branch would divide by zero
	expectValue(t, "IF(DAYS_ABSENT > 0, BASIC / DAYS_ABSENT, 0)",
		vars("DAYS_ABSENT", 0.0, "BASIC", 9000.0), "0")

	// Nested IF
	expectValue(t, "IF(X > 10, 1, IF(X > 5, 2, 3))", vars("X", 7.0), "2")
}

// =============================================================================
// ERROR MODEL
// =============================================================================

func TestEvaluate_Errors_ReturnZeroAndStructuredError(t *testing.T) {
	cases := []struct {
		name string
		expr string
		v    formula.Vars
	}{
		{"empty", "", nil},
		{"unknown variable", "BASIC + BOGUS_VAR", vars("BASIC", 1.0)},
		{"division by zero", "10 / 0", nil},
		{"disallowed character", "BASIC; DROP TABLE", vars("BASIC", 1.0)},
		{"unknown function", "EVAL(1)", nil},
		{"unbalanced parens", "(1 + 2", nil},
		{"trailing garbage", "1 + 2 3", nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := formula.Evaluate(c.expr, c.v)
			if err == nil {
				t.Fatalf("Evaluate(%q): expected error", c.expr)
			}
			var fe *formula.Error
			if !errors.As(err, &fe) {
				t.Errorf("Evaluate(%q): expected *formula.Error, got %T", c.expr, err)
			}
			if !got.IsZero() {
				t.Errorf("Evaluate(%q): expected zero value on error, got %s", c.expr, got)
			}
		})
	}
}

func TestEvaluate_ForbiddenIdentifiersRejected(t *testing.T) {
	// Identifiers outside the variable table never resolve; there is no
	// pathway from a formula to host execution.
	for _, expr := range []string{"__PROTO__", "CONSTRUCTOR + 1", "PROCESS * 2"} {
		if _, err := formula.Evaluate(expr, vars("BASIC", 1.0)); err == nil {
			t.Errorf("Evaluate(%q): expected rejection", expr)
		}
	}
}

// =============================================================================
// DEPENDENCIES AND VALIDATION
// =============================================================================

func TestExtractDependencies(t *testing.T) {
	deps := formula.ExtractDependencies("BASIC * 0.25 + MIN(HOUSING, BASIC / 2)")
	want := []string{"BASIC", "HOUSING"}
	if len(deps) != len(want) {
		t.Fatalf("expected %v, got %v", want, deps)
	}
	for i := range want {
		if deps[i] != want[i] {
			t.Errorf("expected %v, got %v", want, deps)
		}
	}
}

func TestExtractDependencies_IgnoresFunctionNames(t *testing.T) {
	deps := formula.ExtractDependencies("MAX(OT_HOURS, 0) * HOURLY_RATE")
	for _, d := range deps {
		if d == "MAX" {
			t.Errorf("function name leaked into dependencies: %v", deps)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := formula.Validate("BASIC * 0.1", nil); err != nil {
		t.Errorf("expected valid, got %v", err)
	}
	if err := formula.Validate("HOUSING_ALLOW * 2", []string{"HOUSING_ALLOW"}); err != nil {
		t.Errorf("expected valid with extension, got %v", err)
	}
	if err := formula.Validate("NOPE * 2", nil); err == nil {
		t.Error("expected unknown-variable error")
	}
}
