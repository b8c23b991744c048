/*
structure.go - Salary structure expansion

PURPOSE:
  Turns a salary structure into concrete earning/deduction lines. Formula
  lines may reference other lines' component codes, so expansion first
  orders lines by dependency and then evaluates them in that order.

KEY CONCEPTS:
  Dependency order:
    HOUSING = "BASIC * 0.25" must see BASIC's computed amount. Dependencies
    are extracted from each formula and restricted to component codes that
    exist in the structure; everything else is an ordinary variable.

  Cycles:
    A cycle is a configuration error. Expansion fails with a
    CircularDependencyError naming a component on the cycle and produces
    no partial monetary result.

  Degenerate case:
    No structure at all means the whole assigned salary is one basic
    salary line.

SEE ALSO:
  - formula/eval.go: Evaluate and ExtractDependencies
  - calculator.go: Calls expandStructure as pipeline stage two
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/formula"
	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/policy"
)

// BasicComponentCode is the component used for the degenerate
// single-line structure.
const BasicComponentCode = "BASIC"

// expandStructure evaluates structure lines in dependency order and returns
// the resulting payroll lines. Formula failures contribute zero for that
// line and are recorded in the trace; cycles abort the whole calculation.
func expandStructure(in *Input, tr *tracer) ([]Line, error) {
	if len(in.Structure) == 0 {
		line := Line{
			ComponentCode: BasicComponentCode,
			Description:   "Basic salary",
			Sign:          policy.SignEarning,
			Amount:        in.Assignment.TotalSalary,
			Source:        LineStructure,
		}
		tr.step("Expand structure", "no structure attached; total salary as basic",
			line.Amount.String())
		return []Line{line}, nil
	}

	ordered, err := sortByDependency(in.Structure)
	if err != nil {
		return nil, err
	}

	total := in.Assignment.TotalSalary
	computed := make(map[string]decimal.Decimal, len(ordered))
	lines := make([]Line, 0, len(ordered))

	for _, sl := range ordered {
		var amount money.Money

		switch sl.Source {
		case SourceFixed:
			amount = sl.Amount
			tr.step("Structure "+sl.ComponentCode, "fixed", amount.String())

		case SourcePercentage:
			amount = total.Percent(sl.Percent)
			tr.step("Structure "+sl.ComponentCode,
				fmt.Sprintf("%s%% of total %s", sl.Percent, total), amount.String())

		case SourceFormula:
			vars := formula.Vars{}
			vars.Set("TOTAL", total.Decimal())
			for code, v := range computed {
				vars.Set(code, v)
			}
			v, evalErr := formula.Evaluate(sl.Formula, vars)
			if evalErr != nil {
				// A single misconfigured line must not block payroll.
				tr.step("Structure "+sl.ComponentCode,
					sl.Formula+" [error: "+evalErr.Error()+"]", "0.00")
				v = decimal.Zero
			} else {
				tr.step("Structure "+sl.ComponentCode, sl.Formula, v.StringFixed(2))
			}
			amount = money.New(v)

		default:
			return nil, &ValidationError{
				Field:  "structure." + sl.ComponentCode,
				Reason: fmt.Sprintf("unknown value source %q", sl.Source),
			}
		}

		computed[sl.ComponentCode] = amount.Decimal()
		lines = append(lines, Line{
			ComponentCode: sl.ComponentCode,
			Description:   structureDescription(sl),
			Sign:          componentNature(in.Components, sl.ComponentCode),
			Amount:        amount,
			Source:        LineStructure,
		})
	}
	return lines, nil
}

func structureDescription(sl StructureLine) string {
	switch sl.Source {
	case SourcePercentage:
		return fmt.Sprintf("%s (%s%% of total)", sl.ComponentCode, sl.Percent)
	case SourceFormula:
		return sl.ComponentCode + " (formula)"
	default:
		return sl.ComponentCode
	}
}

// =============================================================================
// DEPENDENCY ORDERING
// =============================================================================

// sortByDependency returns the lines in an order where every formula's
// referenced components are computed before it. Depth-first with a gray set
// for cycle detection; ties keep the stored order.
func sortByDependency(lines []StructureLine) ([]StructureLine, error) {
	byCode := make(map[string]int, len(lines))
	for i, sl := range lines {
		byCode[sl.ComponentCode] = i
	}

	deps := make(map[string][]string, len(lines))
	for _, sl := range lines {
		if sl.Source != SourceFormula {
			continue
		}
		for _, ref := range formula.ExtractDependencies(sl.Formula) {
			if ref == sl.ComponentCode {
				// Self-reference is the smallest possible cycle.
				return nil, &CircularDependencyError{Component: sl.ComponentCode}
			}
			if _, ok := byCode[ref]; ok {
				deps[sl.ComponentCode] = append(deps[sl.ComponentCode], ref)
			}
		}
	}

	const (
		white = iota // unvisited
		gray         // on the current path
		black        // done
	)
	state := make(map[string]int, len(lines))
	ordered := make([]StructureLine, 0, len(lines))

	var visit func(code string) error
	visit = func(code string) error {
		switch state[code] {
		case black:
			return nil
		case gray:
			return &CircularDependencyError{Component: code}
		}
		state[code] = gray
		for _, dep := range deps[code] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[code] = black
		ordered = append(ordered, lines[byCode[code]])
		return nil
	}

	for _, sl := range lines {
		if err := visit(sl.ComponentCode); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}
