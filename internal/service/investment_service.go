package service

import (
	"context"
	"time"

	"crypto_invest/internal/domain"
	"crypto_invest/internal/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvestmentStore persists investments and performs the transactional
// transitions that touch user balances.
type InvestmentStore interface {
	Create(ctx context.Context, inv *domain.Investment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Investment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Investment, error)
	List(ctx context.Context, status domain.InvestmentStatus, limit, offset int) ([]domain.Investment, error)
	UpdateAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error)
	Approve(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Investment, error)
	Reject(ctx context.Context, id uuid.UUID) (*domain.Investment, error)
	SetRate(ctx context.Context, id uuid.UUID, rate *decimal.Decimal) (*domain.Investment, error)
	DeleteWithRefund(ctx context.Context, id uuid.UUID) (*domain.Investment, decimal.Decimal, error)
}

// InvestmentService drives the investment lifecycle:
// pending -> approved | rejected, edits while pending, deletion with refund.
type InvestmentService struct {
	store    InvestmentStore
	settings SettingsProvider
	notifier Notifier
	audit    Auditor
	now      func() time.Time
}

func NewInvestmentService(store InvestmentStore, settings SettingsProvider, notifier Notifier, audit Auditor) *InvestmentService {
	return &InvestmentService{
		store:    store,
		settings: settings,
		notifier: orNopNotifier(notifier),
		audit:    orNopAuditor(audit),
		now:      time.Now,
	}
}

func (s *InvestmentService) validateAmount(ctx context.Context, amount decimal.Decimal) error {
	if err := domain.CheckAmount(amount); err != nil {
		return err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}
	if amount.LessThan(settings.MinInvestment) {
		return domain.NewValidationError("amount", "minimum investment is %s", settings.MinInvestment.StringFixed(2))
	}
	return nil
}

// Create records a pending investment. The balance is not touched.
func (s *InvestmentService) Create(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, plan string) (*domain.Investment, error) {
	if err := s.validateAmount(ctx, amount); err != nil {
		return nil, err
	}

	inv := &domain.Investment{
		UserID:      userID,
		Amount:      amount.Round(2),
		Status:      domain.InvestmentPending,
		Plan:        plan,
		TotalProfit: decimal.Zero,
	}
	if err := s.store.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, &userID, domain.AuditActionInvestmentCreate, domain.AuditCategoryInvestment, map[string]any{
		"investment_id": inv.ID.String(),
		"amount":        inv.Amount.String(),
	})
	return inv, nil
}

// Approve starts accrual for a pending investment.
func (s *InvestmentService) Approve(ctx context.Context, adminID, id uuid.UUID) (*domain.Investment, error) {
	now := s.now().UTC().Truncate(time.Microsecond)
	inv, err := s.store.Approve(ctx, id, now)
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("investment approved", "investment_id", inv.ID, "user_id", inv.UserID, "amount", inv.Amount.String())
	s.audit.Log(ctx, &adminID, domain.AuditActionInvestmentApprove, domain.AuditCategoryInvestment, map[string]any{
		"investment_id": inv.ID.String(),
		"user_id":       inv.UserID.String(),
	})
	s.notifier.Notify(inv.UserID, EventInvestmentApproved, inv)
	return inv, nil
}

// Reject closes a pending investment without any balance effect.
func (s *InvestmentService) Reject(ctx context.Context, adminID, id uuid.UUID) (*domain.Investment, error) {
	inv, err := s.store.Reject(ctx, id)
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, &adminID, domain.AuditActionInvestmentReject, domain.AuditCategoryInvestment, map[string]any{
		"investment_id": inv.ID.String(),
		"user_id":       inv.UserID.String(),
	})
	s.notifier.Notify(inv.UserID, EventInvestmentRejected, inv)
	return inv, nil
}

// HandleDecision dispatches an admin verdict given as a status string.
func (s *InvestmentService) HandleDecision(ctx context.Context, adminID, id uuid.UUID, status string) (*domain.Investment, error) {
	decision, err := domain.ParseDecision(status)
	if err != nil {
		return nil, err
	}
	if decision == domain.DecisionApprove {
		return s.Approve(ctx, adminID, id)
	}
	return s.Reject(ctx, adminID, id)
}

// Edit changes the principal of the caller's own pending investment.
func (s *InvestmentService) Edit(ctx context.Context, userID, id uuid.UUID, amount decimal.Decimal) (*domain.Investment, error) {
	inv, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !inv.Editable() {
		return nil, domain.NewValidationError("status", "only pending investments can be edited")
	}
	if err := s.validateAmount(ctx, amount); err != nil {
		return nil, err
	}

	amount = amount.Round(2)
	ok, err := s.store.UpdateAmount(ctx, id, amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		// approved or rejected between the read and the update
		return nil, domain.NewValidationError("status", "only pending investments can be edited")
	}

	s.audit.Log(ctx, &userID, domain.AuditActionInvestmentEdit, domain.AuditCategoryInvestment, map[string]any{
		"investment_id": id.String(),
		"old_amount":    inv.Amount.String(),
		"new_amount":    amount.String(),
	})
	inv.Amount = amount
	return inv, nil
}

// Delete removes an investment. Owners may delete their own; admins any.
// An approved investment's principal is refunded to the owner's balance.
func (s *InvestmentService) Delete(ctx context.Context, callerID uuid.UUID, isAdmin bool, id uuid.UUID) (decimal.Decimal, error) {
	if !isAdmin {
		if _, err := s.owned(ctx, callerID, id); err != nil {
			return decimal.Zero, err
		}
	}

	inv, refunded, err := s.store.DeleteWithRefund(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	logger.WithContext(ctx).Info("investment deleted",
		"investment_id", inv.ID, "user_id", inv.UserID, "status", inv.Status, "refunded", refunded.String())
	s.audit.Log(ctx, &callerID, domain.AuditActionInvestmentDelete, domain.AuditCategoryInvestment, map[string]any{
		"investment_id": inv.ID.String(),
		"user_id":       inv.UserID.String(),
		"status":        string(inv.Status),
		"refunded":      refunded.String(),
	})
	return refunded, nil
}

// SetRate sets or clears an investment's own profit rate.
func (s *InvestmentService) SetRate(ctx context.Context, adminID, id uuid.UUID, rate *decimal.Decimal) (*domain.Investment, error) {
	if rate != nil && (rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100))) {
		return nil, domain.NewValidationError("dailyProfitRate", "must be between 0 and 100")
	}
	inv, err := s.store.SetRate(ctx, id, rate)
	if err != nil {
		return nil, err
	}

	details := map[string]any{"investment_id": id.String(), "rate": nil}
	if rate != nil {
		details["rate"] = rate.String()
	}
	s.audit.Log(ctx, &adminID, domain.AuditActionInvestmentRate, domain.AuditCategoryInvestment, details)
	return inv, nil
}

func (s *InvestmentService) List(ctx context.Context, userID uuid.UUID) ([]domain.Investment, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *InvestmentService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Investment, error) {
	return s.owned(ctx, userID, id)
}

// ListAll is the admin view; status may be empty.
func (s *InvestmentService) ListAll(ctx context.Context, status string, limit, offset int) ([]domain.Investment, error) {
	st := domain.InvestmentStatus(status)
	if status != "" && !st.Valid() {
		return nil, domain.NewValidationError("status", "unknown status %q", status)
	}
	limit, offset = page(limit, offset)
	return s.store.List(ctx, st, limit, offset)
}

func (s *InvestmentService) owned(ctx context.Context, userID, id uuid.UUID) (*domain.Investment, error) {
	inv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return inv, nil
}
