package payroll

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TimeScope selects the window of the unpaid-salary report
type TimeScope string

// ScopeCurrentAcademicYear runs from the academic year start to the current month
const ScopeCurrentAcademicYear TimeScope = "current_academic_year"

// DefaultTimeScope is used when the caller does not pick one
const DefaultTimeScope TimeScope = "last_3_months"

var lastMonthsPattern = regexp.MustCompile(`^last_(\d{1,2})_months$`)

// ParseTimeScope accepts last_month, last_N_months (N = 2..12) and
// current_academic_year
func ParseTimeScope(s string) (TimeScope, error) {
	if s == "" {
		return DefaultTimeScope, nil
	}
	if s == "last_month" || s == string(ScopeCurrentAcademicYear) {
		return TimeScope(s), nil
	}
	if m := lastMonthsPattern.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n >= 2 && n <= 12 {
			return TimeScope(s), nil
		}
	}
	return "", shared.NewValidationError(fmt.Sprintf("unsupported time scope %q", s))
}

// Months returns N for last_N_months scopes and 0 otherwise
func (t TimeScope) Months() int {
	if t == "last_month" {
		return 1
	}
	if m := lastMonthsPattern.FindStringSubmatch(string(t)); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

// Window returns the inclusive range of periods covered by the scope.
// last_N_months covers the N full months before the current one.
func (t TimeScope) Window(today time.Time, academicYearStartMonth int) (from, to shared.Period) {
	current := shared.PeriodOf(today)
	if t == ScopeCurrentAcademicYear {
		year := current.Year
		if current.Month < academicYearStartMonth {
			year--
		}
		return shared.Period{Month: academicYearStartMonth, Year: year}, current
	}
	n := t.Months()
	return current.AddMonths(-n), current.AddMonths(-1)
}

// UnpaidTeacher summarises one teacher's outstanding salary
type UnpaidTeacher struct {
	TeacherID            uuid.UUID       `json:"teacher_id"`
	TeacherName          string          `json:"teacher_name"`
	UnpaidMonthsCount    int             `json:"unpaid_months_count"`
	TotalUnpaidAmount    decimal.Decimal `json:"total_unpaid_amount"`
	OldestUnpaidMonth    shared.Period   `json:"oldest_unpaid_month"`
	LatestUnpaidMonth    shared.Period   `json:"latest_unpaid_month"`
	DaysSincePeriodStart int             `json:"days_since_period_start"`
}

// UnpaidSummary totals the whole report
type UnpaidSummary struct {
	TotalTeachers     int             `json:"total_teachers"`
	TotalUnpaidAmount decimal.Decimal `json:"total_unpaid_amount"`
	TotalUnpaidMonths int             `json:"total_unpaid_months"`
}

// UnpaidReport is one page of the unpaid-salary aggregation
type UnpaidReport struct {
	Scope    TimeScope       `json:"time_scope"`
	From     shared.Period   `json:"from"`
	To       shared.Period   `json:"to"`
	Summary  UnpaidSummary   `json:"summary"`
	Teachers []UnpaidTeacher `json:"teachers"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// AggregateUnpaid groups records with a pending amount by teacher. The result
// is ordered by total unpaid descending, then teacher name and id, so pages
// are stable across calls.
func AggregateUnpaid(records []SalaryRecord, names map[uuid.UUID]string, today time.Time) ([]UnpaidTeacher, UnpaidSummary) {
	byTeacher := make(map[uuid.UUID]*UnpaidTeacher)
	summary := UnpaidSummary{TotalUnpaidAmount: decimal.Zero}

	for i := range records {
		r := &records[i]
		if !r.IsUnpaid() {
			continue
		}
		t, ok := byTeacher[r.TeacherID]
		if !ok {
			t = &UnpaidTeacher{
				TeacherID:         r.TeacherID,
				TeacherName:       names[r.TeacherID],
				TotalUnpaidAmount: decimal.Zero,
				OldestUnpaidMonth: r.Period(),
				LatestUnpaidMonth: r.Period(),
			}
			byTeacher[r.TeacherID] = t
		}
		t.UnpaidMonthsCount++
		t.TotalUnpaidAmount = t.TotalUnpaidAmount.Add(r.PendingAmount)
		if r.Period().Before(t.OldestUnpaidMonth) {
			t.OldestUnpaidMonth = r.Period()
		}
		if t.LatestUnpaidMonth.Before(r.Period()) {
			t.LatestUnpaidMonth = r.Period()
		}
		summary.TotalUnpaidMonths++
		summary.TotalUnpaidAmount = summary.TotalUnpaidAmount.Add(r.PendingAmount)
	}

	day := shared.DateOf(today)
	teachers := make([]UnpaidTeacher, 0, len(byTeacher))
	for _, t := range byTeacher {
		t.DaysSincePeriodStart = int(day.Sub(t.OldestUnpaidMonth.Start()).Hours() / 24)
		teachers = append(teachers, *t)
	}
	slices.SortFunc(teachers, func(a, b UnpaidTeacher) int {
		if c := b.TotalUnpaidAmount.Cmp(a.TotalUnpaidAmount); c != 0 {
			return c
		}
		if c := cmp.Compare(a.TeacherName, b.TeacherName); c != 0 {
			return c
		}
		return cmp.Compare(a.TeacherID.String(), b.TeacherID.String())
	})
	summary.TotalTeachers = len(teachers)
	return teachers, summary
}
