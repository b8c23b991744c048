/*
presets.go - Pre-built payroll policy configurations

PURPOSE:
  Ready-to-use policies for common payroll patterns. These are convenience
  constructors the demo scenarios and seed data use; real companies edit
  them through the admin surface.

AVAILABLE PRESETS:
  StandardOvertimePolicy:  1.5x weekday / 2.0x weekend-holiday overtime
  LatenessDeductionPolicy: per-minute deduction above a threshold
  AbsenceDeductionPolicy:  one daily rate per absent day
  UnpaidLeavePolicy:       daily-rate deduction per unpaid leave day
  TransportAllowancePolicy: fixed monthly allowance
  HousingAllowancePolicy:  percentage-of-basic allowance

CUSTOMIZATION:
  These are starting points. Real configurations often add scoped variants
  (a department-level overtime multiplier, an employee-level allowance) —
  the resolver's specificity ladder handles the layering.
*/
package policy

import "github.com/warp/payroll-engine/calendar"

// StandardOvertimePolicy pays weekday overtime at 1.5x and weekend/holiday
// overtime at 2.0x, the statutory floor of the labor law the engine's
// defaults come from.
func StandardOvertimePolicy(id, companyID string, from calendar.Date) Policy {
	return Policy{
		ID:            id,
		CompanyID:     companyID,
		Code:          "OT-STD",
		Name:          "Standard Overtime",
		Type:          TypeOvertime,
		Scope:         ScopeCompany,
		Priority:      0,
		EffectiveFrom: from,
		Active:        true,
		Rules: []Rule{
			{
				ID: id + "-weekday", Code: "OT-WEEKDAY", Name: "Weekday overtime",
				Order: 0, Active: true,
				Conditions: ConditionSet{"dayType": {Eq(Text("WEEKDAY"))}},
				ValueType:  ValueMultiplier, Value: "1.5",
				Output: "OVERTIME", OutputSign: SignEarning,
			},
			{
				ID: id + "-weekend", Code: "OT-WEEKEND", Name: "Weekend and holiday overtime",
				Order: 1, Active: true,
				Conditions: ConditionSet{"dayType": {{Op: OpIn, Values: []Value{Text("WEEKEND"), Text("HOLIDAY")}}}},
				ValueType:  ValueMultiplier, Value: "2.0",
				Output: "OVERTIME", OutputSign: SignEarning,
			},
		},
	}
}

// LatenessDeductionPolicy deducts the per-minute rate for lateness beyond
// the grace period (the engine subtracts the grace before matching).
func LatenessDeductionPolicy(id, companyID string, from calendar.Date) Policy {
	return Policy{
		ID:            id,
		CompanyID:     companyID,
		Code:          "LATE-STD",
		Name:          "Lateness Deduction",
		Type:          TypeDeduction,
		Scope:         ScopeCompany,
		EffectiveFrom: from,
		Active:        true,
		Rules: []Rule{
			{
				ID: id + "-late", Code: "LATE-MINUTES", Name: "Late arrival deduction",
				Order: 0, Active: true,
				Conditions: ConditionSet{"lateMinutes": {{Op: OpGt, Value: NumFloat(0)}}},
				ValueType:  ValueFormula, Value: "LATE_MINUTES * MINUTE_RATE",
				Output: "LATE_DED", OutputSign: SignDeduction,
			},
		},
	}
}

// AbsenceDeductionPolicy deducts one daily rate per unexcused absent day.
func AbsenceDeductionPolicy(id, companyID string, from calendar.Date) Policy {
	return Policy{
		ID:            id,
		CompanyID:     companyID,
		Code:          "ABS-STD",
		Name:          "Absence Deduction",
		Type:          TypeDeduction,
		Scope:         ScopeCompany,
		EffectiveFrom: from,
		Active:        true,
		Rules: []Rule{
			{
				ID: id + "-absence", Code: "ABSENCE-DAYS", Name: "Absence deduction",
				Order: 0, Active: true,
				Conditions: ConditionSet{"absentDays": {{Op: OpGt, Value: NumFloat(0)}}},
				ValueType:  ValueFormula, Value: "DAYS_ABSENT * DAILY_RATE",
				Output: "ABSENCE_DED", OutputSign: SignDeduction,
			},
		},
	}
}

// UnpaidLeavePolicy deducts the daily rate for each unpaid leave day.
func UnpaidLeavePolicy(id, companyID string, from calendar.Date) Policy {
	return Policy{
		ID:            id,
		CompanyID:     companyID,
		Code:          "LEAVE-UNPAID",
		Name:          "Unpaid Leave Deduction",
		Type:          TypeLeave,
		Scope:         ScopeCompany,
		EffectiveFrom: from,
		Active:        true,
		Rules: []Rule{
			{
				ID: id + "-unpaid", Code: "LEAVE-UNPAID-DAYS", Name: "Unpaid leave deduction",
				Order: 0, Active: true,
				Conditions: ConditionSet{"unpaidDays": {{Op: OpGt, Value: NumFloat(0)}}},
				ValueType: ValueFormula, Value: "UNPAID_DAYS * DAILY_RATE",
				Output: "UNPAID_LEAVE_DED", OutputSign: SignDeduction,
			},
		},
	}
}

// TransportAllowancePolicy grants a fixed monthly transport allowance.
func TransportAllowancePolicy(id, companyID string, amount string, from calendar.Date) Policy {
	return Policy{
		ID:            id,
		CompanyID:     companyID,
		Code:          "ALW-TRANSPORT",
		Name:          "Transport Allowance",
		Type:          TypeAllowance,
		Scope:         ScopeCompany,
		EffectiveFrom: from,
		Active:        true,
		Rules: []Rule{
			{
				ID: id + "-transport", Code: "TRANSPORT", Name: "Transport allowance",
				Order: 0, Active: true,
				ValueType: ValueFixed, Value: amount,
				Output: "TRANSPORT", OutputSign: SignEarning,
			},
		},
	}
}

// HousingAllowancePolicy grants a percentage-of-basic housing allowance,
// 25% being the customary default.
func HousingAllowancePolicy(id, companyID string, percent string, from calendar.Date) Policy {
	return Policy{
		ID:            id,
		CompanyID:     companyID,
		Code:          "ALW-HOUSING",
		Name:          "Housing Allowance",
		Type:          TypeAllowance,
		Scope:         ScopeCompany,
		EffectiveFrom: from,
		Active:        true,
		Rules: []Rule{
			{
				ID: id + "-housing", Code: "HOUSING", Name: "Housing allowance",
				Order: 0, Active: true,
				ValueType: ValuePercentage, Value: percent,
				Output: "HOUSING", OutputSign: SignEarning,
			},
		},
	}
}
