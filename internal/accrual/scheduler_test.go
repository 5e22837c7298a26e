package accrual

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"crypto_invest/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu          sync.Mutex
	investments map[uuid.UUID]*domain.Investment
	failOn      uuid.UUID
	staleOn     uuid.UUID
	// afterList runs once the batch is read, to simulate concurrent admin changes.
	afterList func(s *memStore)
}

func newMemStore(invs ...*domain.Investment) *memStore {
	s := &memStore{investments: map[uuid.UUID]*domain.Investment{}}
	for _, inv := range invs {
		s.investments[inv.ID] = inv
	}
	return s
}

func (s *memStore) ListAccruing(context.Context) ([]domain.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Investment
	for _, inv := range s.investments {
		if inv.Status == domain.InvestmentApproved {
			out = append(out, *inv)
		}
	}
	if s.afterList != nil {
		s.afterList(s)
	}
	return out, nil
}

func (s *memStore) CreditProfit(_ context.Context, id uuid.UUID, prev, next time.Time, profit decimal.Decimal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == s.failOn {
		return false, errors.New("boom")
	}
	inv := s.investments[id]
	if id == s.staleOn || inv.Status != domain.InvestmentApproved ||
		inv.LastProfitUpdate == nil || !inv.LastProfitUpdate.Equal(prev) {
		return false, nil
	}
	inv.TotalProfit = inv.TotalProfit.Add(profit)
	inv.LastProfitUpdate = &next
	return true, nil
}

func (s *memStore) StartProfitClock(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv := s.investments[id]
	if inv.Status != domain.InvestmentApproved || inv.LastProfitUpdate != nil {
		return false, nil
	}
	inv.LastProfitUpdate = &now
	return true, nil
}

type staticSettings struct{ s *domain.Settings }

func (f staticSettings) Get(context.Context) (*domain.Settings, error) { return f.s, nil }

type fixedLeader struct {
	ok  bool
	err error
}

func (l fixedLeader) Acquire(context.Context) (bool, error) { return l.ok, l.err }

func approved(amount string, last *time.Time, rate *decimal.Decimal) *domain.Investment {
	return &domain.Investment{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		Amount:           dec(amount),
		Status:           domain.InvestmentApproved,
		DailyProfitRate:  rate,
		TotalProfit:      decimal.Zero,
		LastProfitUpdate: last,
	}
}

func settings5pct() staticSettings {
	s := domain.DefaultSettings()
	s.ProfitPercentage = dec("5")
	s.ProfitInterval = 5
	return staticSettings{s}
}

func TestRunOnce_CreditsAndAdvancesClock(t *testing.T) {
	last := t0
	override := dec("8")
	a := approved("100", &last, nil)
	b := approved("100", &last, &override)
	store := newMemStore(a, b)

	sch := NewScheduler(store, settings5pct(), Options{Workers: 2})
	res, err := sch.RunOnce(context.Background(), t0.Add(12*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Investments)
	assert.Equal(t, 2, res.Credited)
	assert.True(t, res.Profit.Equal(dec("26")), "profit %s", res.Profit)
	assert.True(t, store.investments[a.ID].TotalProfit.Equal(dec("10")))
	assert.True(t, store.investments[b.ID].TotalProfit.Equal(dec("16")))
	assert.Equal(t, t0.Add(10*time.Minute), *store.investments[a.ID].LastProfitUpdate)

	// same instant again credits nothing
	res, err = sch.RunOnce(context.Background(), t0.Add(12*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, res.Credited)
	assert.True(t, store.investments[a.ID].TotalProfit.Equal(dec("10")))
}

func TestRunOnce_IsolatesFailures(t *testing.T) {
	last := t0
	good := approved("200", &last, nil)
	bad := approved("100", &last, nil)
	store := newMemStore(good, bad)
	store.failOn = bad.ID

	res, err := NewScheduler(store, settings5pct(), Options{}).RunOnce(context.Background(), t0.Add(5*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Credited)
	assert.Equal(t, 1, res.Failed)
	assert.True(t, store.investments[good.ID].TotalProfit.Equal(dec("10")))
	assert.True(t, store.investments[bad.ID].TotalProfit.IsZero())
}

func TestRunOnce_LostRaceIsSkipped(t *testing.T) {
	last := t0
	inv := approved("100", &last, nil)
	store := newMemStore(inv)
	store.staleOn = inv.ID

	res, err := NewScheduler(store, settings5pct(), Options{}).RunOnce(context.Background(), t0.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, res.Credited)
	assert.True(t, store.investments[inv.ID].TotalProfit.IsZero())
}

func TestRunOnce_StartsMissingClock(t *testing.T) {
	inv := approved("100", nil, nil)
	store := newMemStore(inv)
	now := t0.Add(time.Hour)

	res, err := NewScheduler(store, settings5pct(), Options{}).RunOnce(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Initialized)
	assert.Zero(t, res.Credited)
	require.NotNil(t, store.investments[inv.ID].LastProfitUpdate)
	assert.Equal(t, now, *store.investments[inv.ID].LastProfitUpdate)
	assert.True(t, store.investments[inv.ID].TotalProfit.IsZero())
}

func TestRunOnce_IgnoresNonApproved(t *testing.T) {
	last := t0
	pending := approved("100", &last, nil)
	pending.Status = domain.InvestmentPending
	store := newMemStore(pending)

	res, err := NewScheduler(store, settings5pct(), Options{}).RunOnce(context.Background(), t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, res.Investments)
}

func TestRunOnce_RejectedMidPassIsNotCredited(t *testing.T) {
	last := t0
	inv := approved("100", &last, nil)
	store := newMemStore(inv)
	store.afterList = func(s *memStore) { s.investments[inv.ID].Status = domain.InvestmentRejected }

	res, err := NewScheduler(store, settings5pct(), Options{}).RunOnce(context.Background(), t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Investments)
	assert.Zero(t, res.Credited)
	assert.Equal(t, 1, res.Skipped)
	assert.True(t, store.investments[inv.ID].TotalProfit.IsZero())
	assert.Equal(t, t0, *store.investments[inv.ID].LastProfitUpdate)
}

func TestAccrueOne_SkipsRowsThatAreNotApproved(t *testing.T) {
	last := t0
	for _, status := range []domain.InvestmentStatus{domain.InvestmentPending, domain.InvestmentRejected} {
		inv := approved("100", &last, nil)
		inv.Status = status
		store := newMemStore(inv)
		sch := NewScheduler(store, settings5pct(), Options{})

		got, profit, err := sch.accrueOne(context.Background(), inv, dec("5"), 5*time.Minute, t0.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, outcomeNothingDue, got, "status %s", status)
		assert.True(t, profit.IsZero())
		assert.True(t, store.investments[inv.ID].TotalProfit.IsZero())
	}
}

func TestRunOnce_LeaderGate(t *testing.T) {
	last := t0
	inv := approved("100", &last, nil)

	t.Run("not leader", func(t *testing.T) {
		store := newMemStore(inv)
		res, err := NewScheduler(store, settings5pct(), Options{Leader: fixedLeader{ok: false}}).
			RunOnce(context.Background(), t0.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, res.LeaderSkip)
		assert.Zero(t, res.Credited)
	})

	t.Run("lock service down", func(t *testing.T) {
		cp := *inv
		store := newMemStore(&cp)
		res, err := NewScheduler(store, settings5pct(), Options{Leader: fixedLeader{err: errors.New("redis down")}}).
			RunOnce(context.Background(), t0.Add(5*time.Minute))
		require.NoError(t, err)
		assert.False(t, res.LeaderSkip)
		assert.Equal(t, 1, res.Credited)
	})
}

func TestTick_RecordsLastPass(t *testing.T) {
	store := newMemStore(approved("100", &t0, nil))

	follower := NewScheduler(store, settings5pct(), Options{Leader: fixedLeader{ok: false}})
	follower.now = func() time.Time { return t0.Add(time.Hour) }
	follower.tick(context.Background())
	assert.True(t, follower.LastPass().IsZero())

	leader := NewScheduler(store, settings5pct(), Options{})
	leader.now = func() time.Time { return t0.Add(time.Hour) }
	leader.tick(context.Background())
	assert.True(t, leader.LastPass().Equal(t0.Add(time.Hour)))
}

func TestRunNow_RecordsLastPass(t *testing.T) {
	last := t0
	store := newMemStore(approved("100", &last, nil))
	s := NewScheduler(store, settings5pct(), Options{})
	s.now = func() time.Time { return t0.Add(10 * time.Minute) }

	res, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Credited)
	assert.True(t, s.LastPass().Equal(t0.Add(10*time.Minute)))

	skipped := NewScheduler(store, settings5pct(), Options{Leader: fixedLeader{ok: false}})
	res, err = skipped.RunNow(context.Background())
	require.NoError(t, err)
	assert.True(t, res.LeaderSkip)
	assert.True(t, skipped.LastPass().IsZero())
}
