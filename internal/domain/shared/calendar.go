package shared

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// DateOf truncates t to midnight UTC of its calendar day.
// All effective dates and billing periods are stored in this form so that
// half-open interval comparisons are exact.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, NewValidationError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s))
	}
	return t, nil
}

// Period is a calendar month
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// NewPeriod validates month and year
func NewPeriod(month, year int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, NewValidationError("month must be between 1 and 12")
	}
	if year < 2000 || year > 2200 {
		return Period{}, NewValidationError("year is out of range")
	}
	return Period{Month: month, Year: year}, nil
}

// PeriodOf returns the period containing t
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// FirstPeriodFrom returns the earliest period starting on or after t.
// A date past the 1st rolls over to the following month.
func FirstPeriodFrom(t time.Time) Period {
	p := PeriodOf(t)
	if DateOf(t).Equal(p.Start()) {
		return p
	}
	return p.AddMonths(1)
}

// Start is the first day of the month
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End is the last day of the month
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

// Day returns the given day of the period, clamped to the month length
func (p Period) Day(day int) time.Time {
	last := p.End().Day()
	if day < 1 {
		day = 1
	}
	if day > last {
		day = last
	}
	return time.Date(p.Year, time.Month(p.Month), day, 0, 0, 0, 0, time.UTC)
}

// AddMonths shifts the period by n months
func (p Period) AddMonths(n int) Period {
	return PeriodOf(p.Start().AddDate(0, n, 0))
}

// Before reports whether p is strictly earlier than o
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// String formats the period as YYYY-MM
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
