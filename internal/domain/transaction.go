package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is one journal line describing a balance mutation.
type Transaction struct {
	ID        int64           `json:"id"`
	UserID    uuid.UUID       `json:"userId"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Meta      map[string]any  `json:"meta,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Journal types
const (
	TxDepositApproved    = "deposit"
	TxWithdrawalApproved = "withdrawal"
	TxInvestmentRefund   = "investment_refund"
	TxReferralBonus      = "referral_bonus"
	TxAdminAdjustment    = "admin_adjustment"
)
