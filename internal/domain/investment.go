package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvestmentStatus string

const (
	InvestmentPending  InvestmentStatus = "pending"
	InvestmentApproved InvestmentStatus = "approved"
	InvestmentRejected InvestmentStatus = "rejected"
)

func (s InvestmentStatus) Valid() bool {
	switch s {
	case InvestmentPending, InvestmentApproved, InvestmentRejected:
		return true
	}
	return false
}

// Investment is a user's principal placed into the platform. While approved it
// accrues profit; totalProfit never decreases.
type Investment struct {
	ID               uuid.UUID        `json:"id"`
	UserID           uuid.UUID        `json:"userId"`
	Amount           decimal.Decimal  `json:"amount"`
	Status           InvestmentStatus `json:"status"`
	Plan             string           `json:"plan,omitempty"`
	DailyProfitRate  *decimal.Decimal `json:"dailyProfitRate,omitempty"`
	TotalProfit      decimal.Decimal  `json:"totalProfit"`
	LastProfitUpdate *time.Time       `json:"lastProfitUpdate,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Rate returns the per-interval profit percentage for this investment:
// its own override when set, otherwise the global one.
func (i *Investment) Rate(global decimal.Decimal) decimal.Decimal {
	if i.DailyProfitRate != nil {
		return *i.DailyProfitRate
	}
	return global
}

func (i *Investment) Editable() bool {
	return i.Status == InvestmentPending
}

func (i *Investment) Accruing() bool {
	return i.Status == InvestmentApproved
}
