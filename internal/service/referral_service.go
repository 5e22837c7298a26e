package service

import (
	"context"
	"strings"

	"crypto_invest/internal/domain"
	"crypto_invest/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReferredLister interface {
	ListReferred(ctx context.Context, referrerID uuid.UUID) ([]repository.ReferredUser, error)
}

type ReferralService struct {
	users       BalanceReader
	referrals   ReferredLister
	settings    SettingsProvider
	frontendURL string
}

func NewReferralService(users BalanceReader, referrals ReferredLister, settings SettingsProvider, frontendURL string) *ReferralService {
	return &ReferralService{
		users:       users,
		referrals:   referrals,
		settings:    settings,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// ReferralStats summarises a user's referral progress.
type ReferralStats struct {
	Code                string                    `json:"referralCode"`
	Link                string                    `json:"referralLink"`
	ReferralCount       int                       `json:"referralCount"`
	SuccessfulReferrals int                       `json:"successfulReferrals"`
	ReferralEarnings    decimal.Decimal           `json:"referralEarnings"`
	ReferralBonus       decimal.Decimal           `json:"referralBonus"`
	ReferralsRequired   int                       `json:"referralsRequired"`
	UntilNextBonus      int                       `json:"untilNextBonus"`
	Referred            []repository.ReferredUser `json:"referredUsers"`
}

func (s *ReferralService) Code(ctx context.Context, userID uuid.UUID) (string, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.ReferralCode, nil
}

func (s *ReferralService) Link(ctx context.Context, userID uuid.UUID) (string, error) {
	code, err := s.Code(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.linkFor(code), nil
}

func (s *ReferralService) linkFor(code string) string {
	return s.frontendURL + "/register?ref=" + code
}

func (s *ReferralService) Stats(ctx context.Context, userID uuid.UUID) (*ReferralStats, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	referred, err := s.referrals.ListReferred(ctx, userID)
	if err != nil {
		return nil, err
	}
	if referred == nil {
		referred = []repository.ReferredUser{}
	}

	return &ReferralStats{
		Code:                u.ReferralCode,
		Link:                s.linkFor(u.ReferralCode),
		ReferralCount:       u.ReferralCount,
		SuccessfulReferrals: u.SuccessfulReferrals,
		ReferralEarnings:    u.ReferralEarnings,
		ReferralBonus:       settings.ReferralBonus,
		ReferralsRequired:   settings.ReferralsRequired,
		UntilNextBonus:      untilNextBonus(u.SuccessfulReferrals, settings),
		Referred:            referred,
	}, nil
}

func untilNextBonus(successful int, s *domain.Settings) int {
	if s.ReferralsRequired <= 0 {
		return 0
	}
	return s.ReferralsRequired - successful%s.ReferralsRequired
}
