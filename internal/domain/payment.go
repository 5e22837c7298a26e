package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Deposit is a user's claim of an off-platform transfer, backed by a proof
// image and confirmed by an admin.
type Deposit struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	ProofImage    string          `json:"proofImage"`
	TransactionID string          `json:"transactionId"`
	Status        DepositStatus   `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// DepositStatus represents deposit processing status
type DepositStatus string

const (
	DepositPending  DepositStatus = "pending"
	DepositApproved DepositStatus = "approved"
	DepositRejected DepositStatus = "rejected"
	DepositDeleted  DepositStatus = "deleted"
)

// Built-in payment methods. Any key of Settings.DepositAddresses is accepted too.
var KnownPaymentMethods = []string{"BINANCE", "TRC20", "BEP20", "ERC20", "OPTIMISM"}

// NormalizePaymentMethod upper-cases and trims a method name.
func NormalizePaymentMethod(m string) string {
	return strings.ToUpper(strings.TrimSpace(m))
}

// PaymentMethodAllowed reports whether method is built in or configured.
func (s *Settings) PaymentMethodAllowed(method string) bool {
	method = NormalizePaymentMethod(method)
	if method == "" {
		return false
	}
	for _, m := range KnownPaymentMethods {
		if m == method {
			return true
		}
	}
	for m := range s.DepositAddresses {
		if NormalizePaymentMethod(m) == method {
			return true
		}
	}
	return false
}

// Withdrawal is a request to pay out part of the user's balance.
type Withdrawal struct {
	ID               uuid.UUID        `json:"id"`
	UserID           uuid.UUID        `json:"userId"`
	Amount           decimal.Decimal  `json:"amount"`
	WithdrawalMethod string           `json:"withdrawalMethod"`
	WalletAddress    string           `json:"walletAddress"`
	Fee              decimal.Decimal  `json:"fee"`
	Status           WithdrawalStatus `json:"status"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Total is what approval debits from the balance.
func (w *Withdrawal) Total() decimal.Decimal {
	return w.Amount.Add(w.Fee)
}

// WithdrawalStatus represents withdrawal processing status
type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
	WithdrawalRejected WithdrawalStatus = "rejected"
)

// WithdrawEstimate shows user what a withdrawal will cost
type WithdrawEstimate struct {
	Amount     decimal.Decimal `json:"amount"`
	Fee        decimal.Decimal `json:"fee"`
	Total      decimal.Decimal `json:"total"`
	FeePercent decimal.Decimal `json:"feePercent"`
}

// Decision is an admin verdict on a pending record.
type Decision string

const (
	DecisionApprove Decision = "approved"
	DecisionReject  Decision = "rejected"
)

func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(s))) {
	case DecisionApprove, "approve":
		return DecisionApprove, nil
	case DecisionReject, "reject":
		return DecisionReject, nil
	}
	return "", NewValidationError("status", "must be approved or rejected")
}

// MaxAmount is the first value that no longer fits a NUMERIC(12,2) column.
var MaxAmount = decimal.NewFromInt(10_000_000_000)

// CheckAmount validates a user-entered money amount as it will be stored,
// after rounding to cents.
func CheckAmount(amount decimal.Decimal) error {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return NewValidationError("amount", "must be greater than zero")
	}
	if !amount.LessThan(MaxAmount) {
		return NewValidationError("amount", "must be less than %s", MaxAmount.String())
	}
	return nil
}
