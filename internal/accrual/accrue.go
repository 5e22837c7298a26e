// Package accrual credits periodic profit to approved investments.
package accrual

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProfitScale is the number of decimal places kept on total_profit.
const ProfitScale = 6

var hundred = decimal.NewFromInt(100)

// Credit is the result of accruing one investment at a point in time.
type Credit struct {
	Intervals int64
	Profit    decimal.Decimal
	NewLast   time.Time
}

// Accrue computes the profit owed for whole intervals elapsed since last.
// Profit is non-compounding: amount * rate/100 per interval. NewLast moves by
// exactly Intervals*interval so partial intervals carry over to the next run.
// Zero intervals yield a zero Credit with NewLast == last.
func Accrue(amount, rate decimal.Decimal, interval time.Duration, last, now time.Time) Credit {
	if interval <= 0 || !now.After(last) {
		return Credit{NewLast: last}
	}
	n := int64(now.Sub(last) / interval)
	if n < 1 {
		return Credit{NewLast: last}
	}

	profit := amount.Mul(rate).Div(hundred).Mul(decimal.NewFromInt(n)).Round(ProfitScale)
	return Credit{
		Intervals: n,
		Profit:    profit,
		NewLast:   last.Add(time.Duration(n) * interval),
	}
}
