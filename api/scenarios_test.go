/*
scenarios_test.go - Tests for demo scenario loading

Tests for:
- Loading scenarios through the API
- Scope resolution in the scoped-overtime scenario
- Settlement lines in the end-of-service scenario
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoadScenario_ViaAPI(t *testing.T) {
	// GIVEN: A fresh handler
	h := newTestHandler(t)

	// WHEN: Loading the standard scenario through the API
	rec := doJSON(t, h, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ID: "standard-monthly"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// THEN: The current scenario reflects it and data is queryable
	cur := doJSON(t, h, http.MethodGet, "/api/scenarios/current", nil)
	var dto ScenarioDTO
	if err := json.NewDecoder(cur.Body).Decode(&dto); err != nil {
		t.Fatalf("Failed to decode current scenario: %v", err)
	}
	if dto.ID != "standard-monthly" {
		t.Fatalf("Expected standard-monthly, got %q", dto.ID)
	}

	emps := doJSON(t, h, http.MethodGet, "/api/employees?company_id="+demoCompanyID, nil)
	var list []EmployeeDTO
	if err := json.NewDecoder(emps.Body).Decode(&list); err != nil {
		t.Fatalf("Failed to decode employees: %v", err)
	}
	if len(list) != 1 || list[0].ID != "emp-001" {
		t.Fatalf("Expected emp-001 seeded, got %+v", list)
	}
}

func TestLoadScenario_Unknown(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ID: "nope"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestResetDatabase_ClearsData(t *testing.T) {
	h := newTestHandler(t)
	if err := h.loadStandardMonthlyScenario(context.Background()); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	rec := doJSON(t, h, http.MethodPost, "/api/scenarios/reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	emps, err := h.Store.ListEmployees(context.Background(), demoCompanyID)
	if err != nil {
		t.Fatalf("Failed to list employees: %v", err)
	}
	if len(emps) != 0 {
		t.Fatalf("Expected empty database after reset, got %d employees", len(emps))
	}
}

func TestScopedOvertimeScenario_DepartmentOverrideWins(t *testing.T) {
	// GIVEN: Company-wide 1.5x overtime plus an operations override at 2.0x
	h := newTestHandler(t)
	if err := h.loadScopedOvertimeScenario(context.Background()); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	preview := func(employeeID string) ResultDTO {
		rec := doJSON(t, h, http.MethodPost, "/api/payroll/preview", PayrollRequest{
			EmployeeID: employeeID, Year: 2025, Month: 6,
			Attendance: AttendanceDTO{OvertimeWeekdayHours: decimal.NewFromInt(4)},
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("Preview %s: expected 200, got %d: %s", employeeID, rec.Code, rec.Body.String())
		}
		return decodeResult(t, rec)
	}

	// WHEN: Both employees work the same overtime
	office := findLine(preview("emp-office"), "OVERTIME")
	ops := findLine(preview("emp-ops"), "OVERTIME")
	if office == nil || ops == nil {
		t.Fatal("Expected OVERTIME lines for both employees")
	}

	// THEN: The operations employee resolves to the department policy
	if ops.PolicyID != "pol-ot-ops" {
		t.Errorf("Expected ops overtime from pol-ot-ops, got %q", ops.PolicyID)
	}
	if office.PolicyID != "pol-ot-company" {
		t.Errorf("Expected office overtime from pol-ot-company, got %q", office.PolicyID)
	}
}

func TestEndOfServiceScenario_Settlement(t *testing.T) {
	// GIVEN: Eight years of service (hired 2017-05-01, salary 15000)
	h := newTestHandler(t)
	if err := h.loadEndOfServiceScenario(context.Background()); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	// WHEN: Previewing the final month with a resignation and leave balance
	rec := doJSON(t, h, http.MethodPost, "/api/payroll/preview", PayrollRequest{
		EmployeeID:        "emp-eos",
		Year:              2025,
		Month:             6,
		TerminationDate:   "2025-06-30",
		TerminationReason: "RESIGNATION",
		Leave:             LeaveDTO{AccruedLeaveDays: decimal.NewFromInt(10)},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	res := decodeResult(t, rec)

	// THEN: Indemnity and leave payout lines are present
	eos := findLine(res, "EOS")
	if eos == nil {
		t.Fatal("Expected an EOS settlement line")
	}
	if eos.Source != "SETTLEMENT" || !eos.Amount.IsPositive() {
		t.Fatalf("Expected positive SETTLEMENT indemnity, got %+v", eos)
	}
	payout := findLine(res, "LEAVE_PAYOUT")
	if payout == nil || !payout.Amount.IsPositive() {
		t.Fatalf("Expected positive leave payout, got %+v", payout)
	}
}
