package service

import (
	"context"
	"testing"

	"crypto_invest/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSettingsStore struct {
	saved *domain.Settings
}

func (m *memSettingsStore) Get(context.Context) (*domain.Settings, error) {
	if m.saved == nil {
		return nil, domain.NotFound("settings")
	}
	cp := *m.saved
	return &cp, nil
}

func (m *memSettingsStore) Save(_ context.Context, s *domain.Settings) error {
	cp := *s
	m.saved = &cp
	return nil
}

func TestSettingsService_DefaultsWhenUnsaved(t *testing.T) {
	svc := NewSettingsService(&memSettingsStore{}, nil, nil)

	s, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, s.MinInvestment.Equal(domain.DefaultSettings().MinInvestment))
	assert.Equal(t, 5, s.ProfitInterval)
}

func TestSettingsService_Update(t *testing.T) {
	store := &memSettingsStore{}
	svc := NewSettingsService(store, nil, nil)
	ctx := context.Background()

	interval := 10
	rate := decimal.NewFromInt(7)
	s, err := svc.Update(ctx, uuid.New(), domain.SettingsPatch{ProfitInterval: &interval, ProfitPercentage: &rate})
	require.NoError(t, err)
	assert.Equal(t, 10, s.ProfitInterval)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, got.ProfitPercentage.Equal(rate))
	assert.True(t, got.MinDeposit.Equal(domain.DefaultSettings().MinDeposit))

	bad := 0
	_, err = svc.Update(ctx, uuid.New(), domain.SettingsPatch{ProfitInterval: &bad})
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, 10, store.saved.ProfitInterval)
}
