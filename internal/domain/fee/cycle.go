package fee

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/schoolfee/backend/internal/domain/shared"
)

// FeeCycle is the recurrence pattern deciding whether a component is billed in a period
type FeeCycle string

const (
	CycleOneTime   FeeCycle = "one_time"
	CycleMonthly   FeeCycle = "monthly"
	CycleQuarterly FeeCycle = "quarterly"
	CycleYearly    FeeCycle = "yearly"
	CyclePerBill   FeeCycle = "per_bill" // custom fees only
)

// IsValid checks if the cycle is known
func (c FeeCycle) IsValid() bool {
	switch c {
	case CycleOneTime, CycleMonthly, CycleQuarterly, CycleYearly, CyclePerBill:
		return true
	}
	return false
}

// IsValidForComponent reports whether catalog components (class, transport,
// optional) may use the cycle. per_bill only makes sense for custom fees.
func (c FeeCycle) IsValidForComponent() bool {
	return c.IsValid() && c != CyclePerBill
}

// String returns the string representation of FeeCycle
func (c FeeCycle) String() string {
	return string(c)
}

// ParseFeeCycle accepts both snake_case and hyphenated spellings
func ParseFeeCycle(s string) (FeeCycle, error) {
	c := FeeCycle(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !c.IsValid() {
		return "", shared.NewValidationError(fmt.Sprintf("unknown fee cycle %q", s))
	}
	return c, nil
}

// BillingPolicy is the school-level configuration that maps fee cycles onto
// billing months.
type BillingPolicy struct {
	AcademicYearStartMonth int
	QuarterlyDueMonths     []int
	YearlyDueMonth         int
	DefaultDueDay          int
}

// DefaultBillingPolicy starts the academic year in April, bills quarterly
// components every third month from there and yearly components in April.
func DefaultBillingPolicy() BillingPolicy {
	p, _ := NewBillingPolicy(4, nil, 0, 10)
	return p
}

// NewBillingPolicy builds a policy, deriving unset values from the academic
// year start month, and validates the result.
func NewBillingPolicy(startMonth int, quarterly []int, yearly, dueDay int) (BillingPolicy, error) {
	if startMonth == 0 {
		startMonth = 4
	}
	if len(quarterly) == 0 {
		for i := 0; i < 4; i++ {
			quarterly = append(quarterly, (startMonth-1+3*i)%12+1)
		}
	}
	if yearly == 0 {
		yearly = startMonth
	}
	if dueDay == 0 {
		dueDay = 10
	}
	p := BillingPolicy{
		AcademicYearStartMonth: startMonth,
		QuarterlyDueMonths:     slices.Clone(quarterly),
		YearlyDueMonth:         yearly,
		DefaultDueDay:          dueDay,
	}
	return p, p.Validate()
}

// Validate checks every month is in 1..12 and quarterly months are distinct
func (p BillingPolicy) Validate() error {
	if !validMonth(p.AcademicYearStartMonth) {
		return shared.NewValidationError("academic year start month must be between 1 and 12")
	}
	if !validMonth(p.YearlyDueMonth) {
		return shared.NewValidationError("yearly due month must be between 1 and 12")
	}
	if len(p.QuarterlyDueMonths) != 4 {
		return shared.NewValidationError("exactly four quarterly due months are required")
	}
	seen := make(map[int]bool, 4)
	for _, m := range p.QuarterlyDueMonths {
		if !validMonth(m) {
			return shared.NewValidationError("quarterly due months must be between 1 and 12")
		}
		if seen[m] {
			return shared.NewValidationError("quarterly due months must be distinct")
		}
		seen[m] = true
	}
	if p.DefaultDueDay < 1 || p.DefaultDueDay > 28 {
		return shared.NewValidationError("default due day must be between 1 and 28")
	}
	return nil
}

func validMonth(m int) bool {
	return m >= 1 && m <= 12
}

// AcademicYearStart returns the first period of the academic year containing p
func (p BillingPolicy) AcademicYearStart(period shared.Period) shared.Period {
	year := period.Year
	if period.Month < p.AcademicYearStartMonth {
		year--
	}
	return shared.Period{Month: p.AcademicYearStartMonth, Year: year}
}

// IsDue reports whether a component with the given cycle is billed in period.
// versionStart is the effective_from of the version group's first version.
// Components are resolved as of the period start, so a one-time component is
// billed in the first period starting on or after versionStart.
func (p BillingPolicy) IsDue(cycle FeeCycle, period shared.Period, versionStart time.Time) bool {
	switch cycle {
	case CycleMonthly, CyclePerBill:
		return true
	case CycleQuarterly:
		return slices.Contains(p.QuarterlyDueMonths, period.Month)
	case CycleYearly:
		return period.Month == p.YearlyDueMonth
	case CycleOneTime:
		return shared.FirstPeriodFrom(versionStart) == period
	}
	return false
}
