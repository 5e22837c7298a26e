package service

import (
	"context"
	"strings"

	"crypto_invest/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceStore reads and adjusts the single per-user balance.
type BalanceStore interface {
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal, meta map[string]any) (decimal.Decimal, error)
}

type TransactionLister interface {
	GetByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Transaction, error)
}

// BalanceService exposes the balance ledger. Deposits, withdrawals, refunds and
// referral bonuses mutate it inside their own repository transactions; this
// service only covers reads and admin corrections.
type BalanceService struct {
	store BalanceStore
	txs   TransactionLister
	audit Auditor
}

func NewBalanceService(store BalanceStore, txs TransactionLister, audit Auditor) *BalanceService {
	return &BalanceService{store: store, txs: txs, audit: orNopAuditor(audit)}
}

// Balance returns the user's current balance.
func (s *BalanceService) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return s.store.Balance(ctx, userID)
}

// Adjust applies a signed admin correction; the balance never goes below zero.
func (s *BalanceService) Adjust(ctx context.Context, adminID, userID uuid.UUID, delta decimal.Decimal, reason string) (decimal.Decimal, error) {
	delta = delta.Round(2)
	if delta.IsZero() {
		return decimal.Zero, domain.NewValidationError("amount", "must not be zero")
	}
	if !delta.Abs().LessThan(domain.MaxAmount) {
		return decimal.Zero, domain.NewValidationError("amount", "must be less than %s", domain.MaxAmount.String())
	}
	reason = strings.TrimSpace(reason)

	balance, err := s.store.AdjustBalance(ctx, userID, delta, map[string]any{
		"admin_id": adminID.String(),
		"reason":   reason,
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.audit.Log(ctx, &adminID, domain.AuditActionBalanceAdjust, domain.AuditCategoryBalance, map[string]any{
		"target_user_id": userID.String(),
		"delta":          delta.String(),
		"new_balance":    balance.String(),
		"reason":         reason,
	})
	return balance, nil
}

// History returns the caller's balance journal, newest first.
func (s *BalanceService) History(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	txs, err := s.txs.GetByUserID(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []*domain.Transaction{}
	}
	return txs, nil
}
