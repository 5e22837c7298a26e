package service

import (
	"context"
	"sync"
	"time"

	"crypto_invest/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixedSettings struct{ s *domain.Settings }

func (f fixedSettings) Get(context.Context) (*domain.Settings, error) {
	cp := *f.s
	return &cp, nil
}

func defaultSettings() fixedSettings { return fixedSettings{domain.DefaultSettings()} }

type sentEvent struct {
	UserID uuid.UUID
	Event  string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) Notify(userID uuid.UUID, event string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{userID, event})
}

// memInvestments mimics InvestmentRepository on a map and a balance table.
type memInvestments struct {
	rows     map[uuid.UUID]*domain.Investment
	balances map[uuid.UUID]decimal.Decimal
}

func newMemInvestments() *memInvestments {
	return &memInvestments{rows: map[uuid.UUID]*domain.Investment{}, balances: map[uuid.UUID]decimal.Decimal{}}
}

func (m *memInvestments) Create(_ context.Context, inv *domain.Investment) error {
	inv.ID = uuid.New()
	cp := *inv
	m.rows[inv.ID] = &cp
	return nil
}

func (m *memInvestments) GetByID(_ context.Context, id uuid.UUID) (*domain.Investment, error) {
	inv, ok := m.rows[id]
	if !ok {
		return nil, domain.NotFound("investment")
	}
	cp := *inv
	return &cp, nil
}

func (m *memInvestments) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Investment, error) {
	var out []domain.Investment
	for _, inv := range m.rows {
		if inv.UserID == userID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (m *memInvestments) List(context.Context, domain.InvestmentStatus, int, int) ([]domain.Investment, error) {
	return nil, nil
}

func (m *memInvestments) UpdateAmount(_ context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	inv, ok := m.rows[id]
	if !ok || inv.Status != domain.InvestmentPending {
		return false, nil
	}
	inv.Amount = amount
	return true, nil
}

func (m *memInvestments) transition(id uuid.UUID, to domain.InvestmentStatus) (*domain.Investment, error) {
	inv, ok := m.rows[id]
	if !ok {
		return nil, domain.NotFound("investment")
	}
	if inv.Status != domain.InvestmentPending {
		return nil, domain.NewValidationError("status", "investment is already %s", inv.Status)
	}
	inv.Status = to
	cp := *inv
	return &cp, nil
}

func (m *memInvestments) Approve(_ context.Context, id uuid.UUID, now time.Time) (*domain.Investment, error) {
	inv, err := m.transition(id, domain.InvestmentApproved)
	if err != nil {
		return nil, err
	}
	m.rows[id].LastProfitUpdate = &now
	inv.LastProfitUpdate = &now
	return inv, nil
}

func (m *memInvestments) Reject(_ context.Context, id uuid.UUID) (*domain.Investment, error) {
	return m.transition(id, domain.InvestmentRejected)
}

func (m *memInvestments) SetRate(_ context.Context, id uuid.UUID, rate *decimal.Decimal) (*domain.Investment, error) {
	inv, ok := m.rows[id]
	if !ok {
		return nil, domain.NotFound("investment")
	}
	inv.DailyProfitRate = rate
	cp := *inv
	return &cp, nil
}

func (m *memInvestments) DeleteWithRefund(_ context.Context, id uuid.UUID) (*domain.Investment, decimal.Decimal, error) {
	inv, ok := m.rows[id]
	if !ok {
		return nil, decimal.Zero, domain.NotFound("investment")
	}
	refunded := decimal.Zero
	if inv.Status == domain.InvestmentApproved {
		refunded = inv.Amount
		m.balances[inv.UserID] = m.balances[inv.UserID].Add(inv.Amount)
	}
	delete(m.rows, id)
	return inv, refunded, nil
}

// memWithdrawals is a WithdrawalStore backed by a slice.
type memWithdrawals struct {
	rows []*domain.Withdrawal
}

func (m *memWithdrawals) Create(_ context.Context, w *domain.Withdrawal) error {
	w.ID = uuid.New()
	cp := *w
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memWithdrawals) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Withdrawal, error) {
	var out []domain.Withdrawal
	for _, w := range m.rows {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (m *memWithdrawals) List(context.Context, domain.WithdrawalStatus, int, int) ([]domain.Withdrawal, error) {
	return nil, nil
}

func (m *memWithdrawals) HasPending(_ context.Context, userID uuid.UUID) (bool, error) {
	for _, w := range m.rows {
		if w.UserID == userID && w.Status == domain.WithdrawalPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *memWithdrawals) find(id uuid.UUID) (*domain.Withdrawal, error) {
	for _, w := range m.rows {
		if w.ID == id {
			return w, nil
		}
	}
	return nil, domain.NotFound("withdrawal")
}

func (m *memWithdrawals) setStatus(id uuid.UUID, to domain.WithdrawalStatus) (*domain.Withdrawal, error) {
	w, err := m.find(id)
	if err != nil {
		return nil, err
	}
	if w.Status != domain.WithdrawalPending {
		return nil, domain.NewValidationError("status", "withdrawal is already %s", w.Status)
	}
	w.Status = to
	cp := *w
	return &cp, nil
}

func (m *memWithdrawals) Approve(_ context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	return m.setStatus(id, domain.WithdrawalApproved)
}

func (m *memWithdrawals) Reject(_ context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	return m.setStatus(id, domain.WithdrawalRejected)
}

func (m *memWithdrawals) Cancel(_ context.Context, id, userID uuid.UUID) (*domain.Withdrawal, error) {
	w, err := m.find(id)
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return m.setStatus(id, domain.WithdrawalRejected)
}

type staticUsers map[uuid.UUID]*domain.User

func (u staticUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := u[id]
	if !ok {
		return nil, domain.NotFound("user")
	}
	return user, nil
}
