package payroll

import "github.com/shopspring/decimal"

// Attendance is the absence summary supplied by the attendance service
type Attendance struct {
	WorkingDays int
	AbsentDays  int
}

// SalaryComputation is the result of applying a structure to a period
type SalaryComputation struct {
	GrossSalary         decimal.Decimal
	AttendanceDeduction decimal.Decimal
	TotalDeductions     decimal.Decimal
	NetSalary           decimal.Decimal
	WorkingDays         int
	AbsentDays          int
}

// ComputeSalary derives the monthly figures of a structure.
//
// The attendance deduction is base / working_days * absent_days, rounded to
// two places, and only applies when the structure enables it and working
// days are known. Absences beyond the working days are capped.
func ComputeSalary(s *SalaryStructure, att Attendance) SalaryComputation {
	c := SalaryComputation{
		GrossSalary:         s.Gross(),
		AttendanceDeduction: decimal.Zero,
		WorkingDays:         att.WorkingDays,
		AbsentDays:          att.AbsentDays,
	}
	if s.AttendanceBasedDeduction && att.WorkingDays > 0 && att.AbsentDays > 0 {
		absent := min(att.AbsentDays, att.WorkingDays)
		c.AttendanceDeduction = s.BaseSalary.
			Mul(decimal.NewFromInt(int64(absent))).
			Div(decimal.NewFromInt(int64(att.WorkingDays))).
			Round(2)
	}
	c.TotalDeductions = s.FixedDeductions.Add(c.AttendanceDeduction)
	c.NetSalary = decimal.Max(decimal.Zero, c.GrossSalary.Sub(c.TotalDeductions))
	return c
}
