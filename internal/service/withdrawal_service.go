package service

import (
	"context"
	"fmt"
	"strings"

	"crypto_invest/internal/domain"
	"crypto_invest/internal/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WithdrawalStore interface {
	Create(ctx context.Context, w *domain.Withdrawal) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Withdrawal, error)
	List(ctx context.Context, status domain.WithdrawalStatus, limit, offset int) ([]domain.Withdrawal, error)
	HasPending(ctx context.Context, userID uuid.UUID) (bool, error)
	Approve(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error)
	Reject(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error)
	Cancel(ctx context.Context, id, userID uuid.UUID) (*domain.Withdrawal, error)
}

// BalanceReader returns a user's current balance.
type BalanceReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type WithdrawalService struct {
	store    WithdrawalStore
	users    BalanceReader
	settings SettingsProvider
	notifier Notifier
	audit    Auditor
}

func NewWithdrawalService(store WithdrawalStore, users BalanceReader, settings SettingsProvider, notifier Notifier, audit Auditor) *WithdrawalService {
	return &WithdrawalService{
		store:    store,
		users:    users,
		settings: settings,
		notifier: orNopNotifier(notifier),
		audit:    orNopAuditor(audit),
	}
}

// Estimate shows what a withdrawal of amount would cost.
func (s *WithdrawalService) Estimate(ctx context.Context, amount decimal.Decimal) (*domain.WithdrawEstimate, error) {
	if err := domain.CheckAmount(amount); err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	amount = amount.Round(2)
	fee := settings.WithdrawalFeeFor(amount)
	return &domain.WithdrawEstimate{
		Amount:     amount,
		Fee:        fee,
		Total:      amount.Add(fee),
		FeePercent: settings.WithdrawalFee,
	}, nil
}

// Request records a pending withdrawal. The balance is debited on approval.
func (s *WithdrawalService) Request(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, method, walletAddress string) (*domain.Withdrawal, error) {
	method = strings.TrimSpace(method)
	walletAddress = strings.TrimSpace(walletAddress)
	if method == "" {
		return nil, domain.NewValidationError("withdrawalMethod", "is required")
	}
	if walletAddress == "" {
		return nil, domain.NewValidationError("walletAddress", "is required")
	}

	est, err := s.Estimate(ctx, amount)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if est.Amount.LessThan(settings.MinWithdrawal) {
		return nil, domain.NewValidationError("amount", "minimum withdrawal is %s", settings.MinWithdrawal.StringFixed(2))
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Balance.LessThan(est.Total) {
		return nil, domain.ErrInsufficientFunds
	}
	pending, err := s.store.HasPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, fmt.Errorf("%w: a withdrawal is already pending", domain.ErrConflict)
	}

	w := &domain.Withdrawal{
		UserID:           userID,
		Amount:           est.Amount,
		WithdrawalMethod: domain.NormalizePaymentMethod(method),
		WalletAddress:    walletAddress,
		Fee:              est.Fee,
		Status:           domain.WithdrawalPending,
	}
	if err := s.store.Create(ctx, w); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, &userID, domain.AuditActionWithdrawRequest, domain.AuditCategoryWithdrawal, map[string]any{
		"withdrawal_id":  w.ID.String(),
		"amount":         w.Amount.String(),
		"fee":            w.Fee.String(),
		"wallet_address": w.WalletAddress,
	})
	return w, nil
}

func (s *WithdrawalService) Cancel(ctx context.Context, userID, id uuid.UUID) (*domain.Withdrawal, error) {
	w, err := s.store.Cancel(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	s.audit.Log(ctx, &userID, domain.AuditActionWithdrawCancel, domain.AuditCategoryWithdrawal, map[string]any{
		"withdrawal_id": w.ID.String(),
	})
	return w, nil
}

// HandleDecision approves (debiting amount+fee) or rejects a pending withdrawal.
func (s *WithdrawalService) HandleDecision(ctx context.Context, adminID, id uuid.UUID, status string) (*domain.Withdrawal, error) {
	decision, err := domain.ParseDecision(status)
	if err != nil {
		return nil, err
	}

	var (
		w      *domain.Withdrawal
		action = domain.AuditActionWithdrawApprove
		event  = EventWithdrawalApproved
	)
	if decision == domain.DecisionApprove {
		w, err = s.store.Approve(ctx, id)
	} else {
		w, err = s.store.Reject(ctx, id)
		action, event = domain.AuditActionWithdrawReject, EventWithdrawalRejected
	}
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("withdrawal decided", "withdrawal_id", w.ID, "user_id", w.UserID, "status", w.Status)
	s.audit.Log(ctx, &adminID, action, domain.AuditCategoryWithdrawal, map[string]any{
		"withdrawal_id": w.ID.String(),
		"user_id":       w.UserID.String(),
		"total":         w.Total().String(),
	})
	s.notifier.Notify(w.UserID, event, w)
	return w, nil
}

func (s *WithdrawalService) ListMine(ctx context.Context, userID uuid.UUID) ([]domain.Withdrawal, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *WithdrawalService) ListAll(ctx context.Context, status string, limit, offset int) ([]domain.Withdrawal, error) {
	limit, offset = page(limit, offset)
	return s.store.List(ctx, domain.WithdrawalStatus(status), limit, offset)
}
