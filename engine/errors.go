/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All engine error types in one place for consistency and discoverability.
  A payroll run over many employees relies on these to decide which failures
  abort a single employee and which merely annotate the result.

ERROR CATEGORIES:
  1. Not-found errors    - Missing employee or salary assignment (fatal)
  2. Validation errors   - Hire date after period start, bad configuration
                           (fatal for this employee, must not abort a batch)
  3. Structure errors    - Circular formula dependency (fatal, names component)
  4. Warnings            - Deduction-ceiling breaches; attached to the result,
                           never returned as an error

USAGE:
  result, err := engine.Calculate(input)
  if engine.IsNotFound(err) {
      // skip employee, report, continue the run
  }

SEE ALSO:
  - calculator.go: Produces these errors
  - structure.go: CircularDependencyError
  - formula/eval.go: Expression-level errors (non-fatal, recorded in trace)
*/
package engine

import (
	"errors"
	"fmt"

	"github.com/warp/payroll-engine/money"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmployeeNotFound is returned when the employee record is missing.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrAssignmentNotFound is returned when no active salary assignment
	// exists for the employee.
	ErrAssignmentNotFound = errors.New("salary assignment not found")

	// ErrValidation is the base of all input validation failures. A batch
	// caller skips the employee and keeps going.
	ErrValidation = errors.New("validation failed")

	// ErrCircularDependency is the base of structure dependency cycles.
	ErrCircularDependency = errors.New("circular dependency in salary structure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which input field failed and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// CircularDependencyError names at least one component on the cycle so an
// operator can find the offending structure line.
type CircularDependencyError struct {
	Component string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency in salary structure at component %s", e.Component)
}

func (e *CircularDependencyError) Unwrap() error {
	return ErrCircularDependency
}

// =============================================================================
// WARNINGS - Attached to the result, never block a calculation
// =============================================================================

// CeilingWarning flags deductions exceeding the configured fraction of gross.
// Downstream review acts on it; the calculation itself completes.
type CeilingWarning struct {
	Gross        money.Money
	Deductions   money.Money
	LimitPercent float64
}

func (w CeilingWarning) String() string {
	return fmt.Sprintf("deductions %s exceed %.0f%% of gross %s",
		w.Deductions, w.LimitPercent, w.Gross)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrAssignmentNotFound)
}

// IsClientError returns true if the error is due to invalid input rather
// than an engine defect.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrCircularDependency) ||
		IsNotFound(err)
}
