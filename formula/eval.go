package formula

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PUBLIC API
// =============================================================================

// Vars is the variable table for one evaluation. Keys are uppercase.
type Vars map[string]decimal.Decimal

// Set stores a variable under its canonical uppercase name.
func (v Vars) Set(name string, value decimal.Decimal) {
	v[strings.ToUpper(name)] = value
}

// BaseVariables is the whitelist of variable names every evaluation context
// carries, before caller-supplied extensions (component codes). Exposed so
// admin UIs can list what a formula may reference.
var BaseVariables = []string{
	"BASIC", "TOTAL", "GROSS", "NET",
	"HOUSING", "TRANSPORT", "FOOD", "OTHER_ALLOWANCES",
	"OT_HOURS", "OT_RATE",
	"DAYS_WORKED", "DAYS_ABSENT", "LATE_MINUTES", "LATE_HOURS",
	"DAILY_RATE", "HOURLY_RATE", "MINUTE_RATE",
	"GOSI_BASE",
	"DAYS_IN_MONTH", "WORKING_DAYS",
	"YEARS_OF_SERVICE", "MONTHS_OF_SERVICE",
}

// Error is the structured, non-fatal evaluation failure. The orchestrator
// records it in the calculation trace and continues with a zero value.
type Error struct {
	Expr   string
	Pos    int
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("formula %q: %s", e.Expr, e.Reason)
}

func errAt(expr string, pos int, reason string) *Error {
	return &Error{Expr: expr, Pos: pos, Reason: reason}
}

// Evaluate parses and evaluates a formula against the variable table.
// On any failure it returns decimal zero and a *Error; it never panics.
// The result is rounded to 2 decimal places.
func Evaluate(expr string, vars Vars) (decimal.Decimal, error) {
	if strings.TrimSpace(expr) == "" {
		return decimal.Zero, errAt(expr, 0, "empty formula")
	}
	root, err := parse(expr)
	if err != nil {
		return decimal.Zero, err
	}
	v, err := eval(root, vars, expr)
	if err != nil {
		return decimal.Zero, err
	}
	return v.Round(2), nil
}

// Validate checks that a formula parses and references only known variables,
// without evaluating it. Used when an administrator saves a structure line
// or policy rule.
func Validate(expr string, extraVars []string) error {
	root, err := parse(expr)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(BaseVariables)+len(extraVars))
	for _, n := range BaseVariables {
		known[n] = true
	}
	for _, n := range extraVars {
		known[strings.ToUpper(n)] = true
	}
	for _, dep := range collectVars(root, nil) {
		if !known[dep] {
			return errAt(expr, 0, fmt.Sprintf("unknown variable %s", dep))
		}
	}
	return nil
}

// ExtractDependencies returns every variable name the formula references,
// sorted and de-duplicated. It works on any parseable formula regardless of
// whether the variables would resolve at evaluation time — the orchestrator
// uses it to order structure lines before their values exist.
func ExtractDependencies(expr string) []string {
	root, err := parse(expr)
	if err != nil {
		return nil
	}
	seen := map[string]bool{}
	var deps []string
	for _, name := range collectVars(root, nil) {
		if !seen[name] {
			seen[name] = true
			deps = append(deps, name)
		}
	}
	sort.Strings(deps)
	return deps
}

func collectVars(n node, acc []string) []string {
	switch t := n.(type) {
	case *variableNode:
		acc = append(acc, t.name)
	case *binaryNode:
		acc = collectVars(t.left, acc)
		acc = collectVars(t.right, acc)
	case *compareNode:
		acc = collectVars(t.left, acc)
		acc = collectVars(t.right, acc)
	case *callNode:
		for _, a := range t.args {
			acc = collectVars(a, acc)
		}
	}
	return acc
}

// =============================================================================
// EVALUATOR
// =============================================================================

var (
	decOne = decimal.NewFromInt(1)
)

func eval(n node, vars Vars, expr string) (decimal.Decimal, error) {
	switch t := n.(type) {
	case *numberNode:
		d, err := decimal.NewFromString(t.value)
		if err != nil {
			return decimal.Zero, errAt(expr, 0, fmt.Sprintf("bad number %q", t.value))
		}
		return d, nil

	case *variableNode:
		v, ok := vars[t.name]
		if !ok {
			return decimal.Zero, errAt(expr, 0, fmt.Sprintf("unknown variable %s", t.name))
		}
		return v, nil

	case *binaryNode:
		return evalBinary(t, vars, expr)

	case *compareNode:
		ok, err := evalCompare(t, vars, expr)
		if err != nil {
			return decimal.Zero, err
		}
		if ok {
			return decOne, nil
		}
		return decimal.Zero, nil

	case *callNode:
		return evalCall(t, vars, expr)

	default:
		return decimal.Zero, errAt(expr, 0, "malformed expression")
	}
}

func evalBinary(b *binaryNode, vars Vars, expr string) (decimal.Decimal, error) {
	left, err := eval(b.left, vars, expr)
	if err != nil {
		return decimal.Zero, err
	}
	right, err := eval(b.right, vars, expr)
	if err != nil {
		return decimal.Zero, err
	}

	switch b.op {
	case "+":
		return left.Add(right), nil
	case "-":
		return left.Sub(right), nil
	case "*":
		return left.Mul(right), nil
	case "/":
		if right.IsZero() {
			return decimal.Zero, errAt(expr, 0, "division by zero")
		}
		return left.Div(right), nil
	case "%":
		if right.IsZero() {
			return decimal.Zero, errAt(expr, 0, "division by zero")
		}
		return left.Mod(right), nil
	case "^":
		return pow(left, right), nil
	default:
		return decimal.Zero, errAt(expr, 0, fmt.Sprintf("unknown operator %s", b.op))
	}
}

func evalCompare(c *compareNode, vars Vars, expr string) (bool, error) {
	left, err := eval(c.left, vars, expr)
	if err != nil {
		return false, err
	}
	right, err := eval(c.right, vars, expr)
	if err != nil {
		return false, err
	}
	switch c.op {
	case ">":
		return left.GreaterThan(right), nil
	case "<":
		return left.LessThan(right), nil
	case ">=":
		return left.GreaterThanOrEqual(right), nil
	case "<=":
		return left.LessThanOrEqual(right), nil
	case "==":
		return left.Equal(right), nil
	case "!=":
		return !left.Equal(right), nil
	default:
		return false, errAt(expr, 0, fmt.Sprintf("unknown comparison %s", c.op))
	}
}

func evalCall(c *callNode, vars Vars, expr string) (decimal.Decimal, error) {
	// IF short-circuits: only the taken branch is evaluated, so a formula
	// like IF(DAYS_ABSENT > 0, BASIC / DAYS_ABSENT, 0) is safe.
	if c.fn == "IF" {
		cond, err := eval(c.args[0], vars, expr)
		if err != nil {
			return decimal.Zero, err
		}
		if !cond.IsZero() {
			return eval(c.args[1], vars, expr)
		}
		return eval(c.args[2], vars, expr)
	}

	args := make([]decimal.Decimal, len(c.args))
	for i, a := range c.args {
		v, err := eval(a, vars, expr)
		if err != nil {
			return decimal.Zero, err
		}
		args[i] = v
	}

	switch c.fn {
	case "MIN":
		m := args[0]
		for _, a := range args[1:] {
			if a.LessThan(m) {
				m = a
			}
		}
		return m, nil
	case "MAX":
		m := args[0]
		for _, a := range args[1:] {
			if a.GreaterThan(m) {
				m = a
			}
		}
		return m, nil
	case "ROUND":
		places := int32(2)
		if len(args) == 2 {
			places = int32(args[1].IntPart())
		}
		return args[0].Round(places), nil
	case "FLOOR":
		return args[0].Floor(), nil
	case "CEIL":
		return args[0].Ceil(), nil
	case "ABS":
		return args[0].Abs(), nil
	case "TRUNC":
		return args[0].Truncate(0), nil
	case "SQRT":
		f, _ := args[0].Float64()
		if f < 0 {
			return decimal.Zero, errAt(expr, 0, "sqrt of negative value")
		}
		return decimal.NewFromFloat(math.Sqrt(f)), nil
	case "POW":
		return pow(args[0], args[1]), nil
	default:
		return decimal.Zero, errAt(expr, 0, fmt.Sprintf("unknown function %s", c.fn))
	}
}

// pow stays in decimal for integer exponents and falls back to float math
// for fractional ones.
func pow(base, exp decimal.Decimal) decimal.Decimal {
	if exp.Equal(exp.Truncate(0)) {
		return base.Pow(exp)
	}
	b, _ := base.Float64()
	e, _ := exp.Float64()
	return decimal.NewFromFloat(math.Pow(b, e))
}
