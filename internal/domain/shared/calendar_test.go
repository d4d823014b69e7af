package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriod(t *testing.T) {
	p, err := NewPeriod(2, 2024)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), p.Start())
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), p.End())
	assert.Equal(t, 29, p.Day(31).Day())
	assert.Equal(t, 1, p.Day(0).Day())
	assert.Equal(t, "2024-02", p.String())

	assert.Equal(t, Period{Month: 12, Year: 2023}, p.AddMonths(-2))
	assert.Equal(t, Period{Month: 1, Year: 2025}, p.AddMonths(11))
	assert.True(t, Period{Month: 12, Year: 2023}.Before(p))
	assert.False(t, p.Before(p))

	_, err = NewPeriod(13, 2024)
	assert.True(t, IsDomainCode(err, CodeValidation))
	_, err = NewPeriod(1, 1999)
	assert.Error(t, err)
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	d := DateOf(time.Date(2024, 3, 15, 23, 59, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), d)

	parsed, err := ParseDate("2024-04-01")
	require.NoError(t, err)
	assert.Equal(t, PeriodOf(parsed), Period{Month: 4, Year: 2024})

	_, err = ParseDate("01/04/2024")
	assert.ErrorIs(t, err, NewValidationError(""))
}

func TestFirstPeriodFrom(t *testing.T) {
	assert.Equal(t, Period{Month: 3, Year: 2024}, FirstPeriodFrom(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, Period{Month: 4, Year: 2024}, FirstPeriodFrom(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, Period{Month: 1, Year: 2025}, FirstPeriodFrom(time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, Period{Month: 6, Year: 2024}, FirstPeriodFrom(time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)))
}
