package service

import (
	"context"

	"crypto_invest/internal/domain"

	"github.com/google/uuid"
)

// SettingsProvider returns the current platform settings.
type SettingsProvider interface {
	Get(ctx context.Context) (*domain.Settings, error)
}

// Notifier pushes a fire-and-forget event to a user's live connections.
type Notifier interface {
	Notify(userID uuid.UUID, event string, payload any)
}

// Auditor records an audit log entry. Failures are logged, never returned.
type Auditor interface {
	Log(ctx context.Context, userID *uuid.UUID, action, category string, details map[string]any)
}

// Notification events
const (
	EventInvestmentApproved = "investment.approved"
	EventInvestmentRejected = "investment.rejected"
	EventDepositApproved    = "deposit.approved"
	EventDepositRejected    = "deposit.rejected"
	EventWithdrawalApproved = "withdrawal.approved"
	EventWithdrawalRejected = "withdrawal.rejected"
	EventContactReplied     = "contact.replied"
	EventReferralBonus      = "referral.bonus"
)

type nopNotifier struct{}

func (nopNotifier) Notify(uuid.UUID, string, any) {}

type nopAuditor struct{}

func (nopAuditor) Log(context.Context, *uuid.UUID, string, string, map[string]any) {}

func orNopNotifier(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

func orNopAuditor(a Auditor) Auditor {
	if a == nil {
		return nopAuditor{}
	}
	return a
}

func ptr[T any](v T) *T { return &v }

// page clamps admin list paging parameters.
func page(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
