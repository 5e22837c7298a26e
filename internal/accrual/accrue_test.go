package accrual

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAccrue_WholeIntervalsOnly(t *testing.T) {
	c := Accrue(dec("100"), dec("5"), 5*time.Minute, t0, t0.Add(12*time.Minute))

	assert.Equal(t, int64(2), c.Intervals)
	assert.True(t, c.Profit.Equal(dec("10")), "profit %s", c.Profit)
	assert.Equal(t, t0.Add(10*time.Minute), c.NewLast)
}

func TestAccrue_RateOverride(t *testing.T) {
	c := Accrue(dec("100"), dec("8"), 5*time.Minute, t0, t0.Add(5*time.Minute))

	assert.Equal(t, int64(1), c.Intervals)
	assert.True(t, c.Profit.Equal(dec("8")))
}

func TestAccrue_NothingDue(t *testing.T) {
	for name, now := range map[string]time.Time{
		"partial interval": t0.Add(4*time.Minute + 59*time.Second),
		"same instant":     t0,
		"clock skew":       t0.Add(-time.Minute),
	} {
		t.Run(name, func(t *testing.T) {
			c := Accrue(dec("100"), dec("5"), 5*time.Minute, t0, now)
			assert.Zero(t, c.Intervals)
			assert.True(t, c.Profit.IsZero())
			assert.Equal(t, t0, c.NewLast)
		})
	}
}

func TestAccrue_RepeatedRunsDoNotDoubleCredit(t *testing.T) {
	now := t0.Add(12 * time.Minute)
	first := Accrue(dec("100"), dec("5"), 5*time.Minute, t0, now)
	second := Accrue(dec("100"), dec("5"), 5*time.Minute, first.NewLast, now)

	assert.True(t, first.Profit.Equal(dec("10")))
	assert.Zero(t, second.Intervals)

	// the 2 minutes carried over complete an interval 3 minutes later
	third := Accrue(dec("100"), dec("5"), 5*time.Minute, first.NewLast, now.Add(3*time.Minute))
	assert.Equal(t, int64(1), third.Intervals)
	assert.True(t, third.Profit.Equal(dec("5")))
}

func TestAccrue_RoundsToProfitScale(t *testing.T) {
	c := Accrue(dec("33.33"), dec("0.3333333"), time.Minute, t0, t0.Add(time.Minute))

	assert.Equal(t, int32(-ProfitScale), c.Profit.Exponent())
	assert.True(t, c.Profit.Equal(dec("0.111100")), "profit %s", c.Profit)
}
