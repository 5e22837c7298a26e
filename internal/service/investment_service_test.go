package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"crypto_invest/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInvestmentService(store *memInvestments, n *recordingNotifier) *InvestmentService {
	var notifier Notifier
	if n != nil {
		notifier = n
	}
	s := NewInvestmentService(store, defaultSettings(), notifier, nil)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestInvestmentCreate_BelowMinimumLeavesNoRecord(t *testing.T) {
	store := newMemInvestments()
	svc := newInvestmentService(store, nil)
	userID := uuid.New()

	_, err := svc.Create(context.Background(), userID, dec("49.99"), "")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, store.rows)

	_, err = svc.Create(context.Background(), userID, dec("-5"), "")
	assert.True(t, domain.IsValidation(err))
}

func TestInvestmentCreate_Pending(t *testing.T) {
	store := newMemInvestments()
	svc := newInvestmentService(store, nil)

	inv, err := svc.Create(context.Background(), uuid.New(), dec("100.456"), "gold")
	require.NoError(t, err)

	assert.Equal(t, domain.InvestmentPending, inv.Status)
	assert.True(t, inv.Amount.Equal(dec("100.46")))
	assert.True(t, inv.TotalProfit.IsZero())
	assert.Nil(t, inv.LastProfitUpdate)
}

func TestInvestmentApprove_StartsClockAndNotifies(t *testing.T) {
	store := newMemInvestments()
	n := &recordingNotifier{}
	svc := newInvestmentService(store, n)
	ctx := context.Background()

	inv, err := svc.Create(ctx, uuid.New(), dec("100"), "")
	require.NoError(t, err)

	approved, err := svc.HandleDecision(ctx, uuid.New(), inv.ID, "approved")
	require.NoError(t, err)
	assert.Equal(t, domain.InvestmentApproved, approved.Status)
	require.NotNil(t, approved.LastProfitUpdate)
	assert.Equal(t, svc.now(), *approved.LastProfitUpdate)
	assert.Equal(t, []sentEvent{{inv.UserID, EventInvestmentApproved}}, n.events)

	// a decided investment cannot be decided again
	_, err = svc.HandleDecision(ctx, uuid.New(), inv.ID, "rejected")
	assert.True(t, domain.IsValidation(err))
}

func TestInvestmentReject_PendingNeverStartsAccruing(t *testing.T) {
	store := newMemInvestments()
	n := &recordingNotifier{}
	svc := newInvestmentService(store, n)
	ctx := context.Background()
	owner := uuid.New()

	inv, err := svc.Create(ctx, owner, dec("100"), "")
	require.NoError(t, err)

	rejected, err := svc.HandleDecision(ctx, uuid.New(), inv.ID, "rejected")
	require.NoError(t, err)
	assert.Equal(t, domain.InvestmentRejected, rejected.Status)
	assert.Nil(t, rejected.LastProfitUpdate)
	assert.False(t, rejected.Accruing())
	assert.Nil(t, store.rows[inv.ID].LastProfitUpdate)
	assert.Equal(t, []sentEvent{{owner, EventInvestmentRejected}}, n.events)

	_, err = svc.Edit(ctx, owner, inv.ID, dec("200"))
	assert.True(t, domain.IsValidation(err))
	assert.True(t, store.rows[inv.ID].Amount.Equal(dec("100")))

	_, err = svc.HandleDecision(ctx, uuid.New(), inv.ID, "approved")
	assert.True(t, domain.IsValidation(err))

	refunded, err := svc.Delete(ctx, owner, false, inv.ID)
	require.NoError(t, err)
	assert.True(t, refunded.IsZero())
	assert.True(t, store.balances[owner].IsZero())
	assert.Empty(t, store.rows)
}

func TestInvestmentEdit(t *testing.T) {
	store := newMemInvestments()
	svc := newInvestmentService(store, nil)
	ctx := context.Background()
	owner := uuid.New()

	inv, err := svc.Create(ctx, owner, dec("100"), "")
	require.NoError(t, err)

	t.Run("other user is forbidden", func(t *testing.T) {
		_, err := svc.Edit(ctx, uuid.New(), inv.ID, dec("200"))
		assert.True(t, errors.Is(err, domain.ErrForbidden))
	})

	t.Run("below minimum", func(t *testing.T) {
		_, err := svc.Edit(ctx, owner, inv.ID, dec("10"))
		assert.True(t, domain.IsValidation(err))
		assert.True(t, store.rows[inv.ID].Amount.Equal(dec("100")))
	})

	t.Run("pending is editable", func(t *testing.T) {
		out, err := svc.Edit(ctx, owner, inv.ID, dec("250"))
		require.NoError(t, err)
		assert.True(t, out.Amount.Equal(dec("250")))
		assert.True(t, store.rows[inv.ID].Amount.Equal(dec("250")))
	})

	t.Run("approved is not editable", func(t *testing.T) {
		_, err := svc.Approve(ctx, uuid.New(), inv.ID)
		require.NoError(t, err)
		_, err = svc.Edit(ctx, owner, inv.ID, dec("300"))
		assert.True(t, domain.IsValidation(err))
		assert.True(t, store.rows[inv.ID].Amount.Equal(dec("250")))
	})
}

func TestInvestmentDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("approved refunds principal", func(t *testing.T) {
		store := newMemInvestments()
		svc := newInvestmentService(store, nil)
		owner := uuid.New()
		inv, _ := svc.Create(ctx, owner, dec("100"), "")
		_, err := svc.Approve(ctx, uuid.New(), inv.ID)
		require.NoError(t, err)

		refunded, err := svc.Delete(ctx, owner, false, inv.ID)
		require.NoError(t, err)
		assert.True(t, refunded.Equal(dec("100")))
		assert.True(t, store.balances[owner].Equal(dec("100")))
		assert.Empty(t, store.rows)
	})

	t.Run("pending refunds nothing", func(t *testing.T) {
		store := newMemInvestments()
		svc := newInvestmentService(store, nil)
		owner := uuid.New()
		inv, _ := svc.Create(ctx, owner, dec("100"), "")

		refunded, err := svc.Delete(ctx, owner, false, inv.ID)
		require.NoError(t, err)
		assert.True(t, refunded.IsZero())
		assert.True(t, store.balances[owner].IsZero())
	})

	t.Run("non-owner needs admin", func(t *testing.T) {
		store := newMemInvestments()
		svc := newInvestmentService(store, nil)
		inv, _ := svc.Create(ctx, uuid.New(), dec("100"), "")

		_, err := svc.Delete(ctx, uuid.New(), false, inv.ID)
		assert.True(t, errors.Is(err, domain.ErrForbidden))
		assert.Len(t, store.rows, 1)

		_, err = svc.Delete(ctx, uuid.New(), true, inv.ID)
		require.NoError(t, err)
		assert.Empty(t, store.rows)
	})
}

func TestInvestmentSetRate(t *testing.T) {
	store := newMemInvestments()
	svc := newInvestmentService(store, nil)
	ctx := context.Background()
	inv, _ := svc.Create(ctx, uuid.New(), dec("100"), "")

	bad := dec("150")
	_, err := svc.SetRate(ctx, uuid.New(), inv.ID, &bad)
	assert.True(t, domain.IsValidation(err))

	rate := dec("8")
	out, err := svc.SetRate(ctx, uuid.New(), inv.ID, &rate)
	require.NoError(t, err)
	assert.True(t, out.Rate(dec("5")).Equal(rate))

	out, err = svc.SetRate(ctx, uuid.New(), inv.ID, nil)
	require.NoError(t, err)
	assert.True(t, out.Rate(dec("5")).Equal(dec("5")))
}
