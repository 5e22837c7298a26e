package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"crypto_invest/internal/domain"
	"crypto_invest/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	settingsCacheKey = "settings:v1"
	settingsCacheTTL = 5 * time.Minute
)

// SettingsStore persists the settings row.
type SettingsStore interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Save(ctx context.Context, s *domain.Settings) error
}

// SettingsService reads settings through a Redis cache and writes them
// through to PostgreSQL. rdb may be nil.
//
// Readers fill the cache with SETNX and Update overwrites it with SET, so a
// reader holding a row loaded before an update cannot put it back.
type SettingsService struct {
	store    SettingsStore
	rdb      *redis.Client
	cacheKey string
	audit    Auditor
}

func NewSettingsService(store SettingsStore, rdb *redis.Client, audit Auditor) *SettingsService {
	return &SettingsService{store: store, rdb: rdb, cacheKey: settingsCacheKey, audit: orNopAuditor(audit)}
}

// Get returns the current settings, or the defaults when none were saved.
func (s *SettingsService) Get(ctx context.Context) (*domain.Settings, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	settings, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.fillCache(ctx, settings)
	return settings, nil
}

func (s *SettingsService) load(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.store.Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.DefaultSettings(), nil
	}
	return settings, err
}

// Update validates and saves a partial change, then publishes it to the cache.
func (s *SettingsService) Update(ctx context.Context, adminID uuid.UUID, patch domain.SettingsPatch) (*domain.Settings, error) {
	current, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	next := patch.Apply(current)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, next); err != nil {
		return nil, err
	}

	s.replaceCache(ctx, next)

	s.audit.Log(ctx, ptr(adminID), domain.AuditActionSettingsUpdate, domain.AuditCategoryAdmin, map[string]any{
		"profit_percentage": next.ProfitPercentage.String(),
		"profit_interval":   next.ProfitInterval,
		"withdrawal_fee":    next.WithdrawalFee.String(),
	})
	return next, nil
}

func (s *SettingsService) fromCache(ctx context.Context) *domain.Settings {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, s.cacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.WithContext(ctx).Debug("settings cache read failed", "error", err)
		}
		return nil
	}
	var settings domain.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil
	}
	if settings.DepositAddresses == nil {
		settings.DepositAddresses = map[string]string{}
	}
	return &settings
}

// fillCache stores a value read from the database unless an update already
// cached a newer one.
func (s *SettingsService) fillCache(ctx context.Context, settings *domain.Settings) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := s.rdb.SetNX(ctx, s.cacheKey, raw, settingsCacheTTL).Err(); err != nil {
		logger.WithContext(ctx).Debug("settings cache write failed", "error", err)
	}
}

// replaceCache publishes freshly saved settings. If that fails the key is
// dropped so readers go back to the database.
func (s *SettingsService) replaceCache(ctx context.Context, settings *domain.Settings) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(settings)
	if err == nil {
		err = s.rdb.Set(ctx, s.cacheKey, raw, settingsCacheTTL).Err()
	}
	if err == nil {
		return
	}
	log := logger.WithContext(ctx)
	log.Warn("settings cache update failed", "error", err)
	if err := s.rdb.Del(ctx, s.cacheKey).Err(); err != nil {
		log.Warn("settings cache invalidation failed", "error", err)
	}
}

// PublicSettings is the subset exposed to unauthenticated clients.
type PublicSettings struct {
	MinDeposit       string            `json:"minDeposit"`
	MinWithdrawal    string            `json:"minWithdrawal"`
	MinInvestment    string            `json:"minInvestment"`
	WithdrawalFee    string            `json:"withdrawalFee"`
	ProfitPercentage string            `json:"profitPercentage"`
	ProfitInterval   int               `json:"profitInterval"`
	DepositAddresses map[string]string `json:"depositAddresses"`
}

func (s *SettingsService) Public(ctx context.Context) (*PublicSettings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &PublicSettings{
		MinDeposit:       settings.MinDeposit.StringFixed(2),
		MinWithdrawal:    settings.MinWithdrawal.StringFixed(2),
		MinInvestment:    settings.MinInvestment.StringFixed(2),
		WithdrawalFee:    settings.WithdrawalFee.String(),
		ProfitPercentage: settings.ProfitPercentage.String(),
		ProfitInterval:   settings.ProfitInterval,
		DepositAddresses: settings.DepositAddresses,
	}, nil
}
