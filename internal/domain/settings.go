package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settings is the single platform-wide record of financial parameters.
type Settings struct {
	MinDeposit        decimal.Decimal   `json:"minDeposit"`
	MinWithdrawal     decimal.Decimal   `json:"minWithdrawal"`
	MinInvestment     decimal.Decimal   `json:"minInvestment"`
	WithdrawalFee     decimal.Decimal   `json:"withdrawalFee"` // percent of the withdrawn amount
	ProfitPercentage  decimal.Decimal   `json:"profitPercentage"`
	ProfitInterval    int               `json:"profitInterval"` // minutes
	ReferralBonus     decimal.Decimal   `json:"referralBonus"`
	ReferralsRequired int               `json:"referralsRequired"`
	DepositAddresses  map[string]string `json:"depositAddresses"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// DefaultSettings is used until an admin saves the settings row.
func DefaultSettings() *Settings {
	return &Settings{
		MinDeposit:        decimal.NewFromInt(10),
		MinWithdrawal:     decimal.NewFromInt(10),
		MinInvestment:     decimal.NewFromInt(50),
		WithdrawalFee:     decimal.NewFromInt(2),
		ProfitPercentage:  decimal.NewFromInt(5),
		ProfitInterval:    5,
		ReferralBonus:     decimal.NewFromInt(10),
		ReferralsRequired: 5,
		DepositAddresses:  map[string]string{},
	}
}

// Interval is the accrual interval as a duration.
func (s *Settings) Interval() time.Duration {
	return time.Duration(s.ProfitInterval) * time.Minute
}

var hundred = decimal.NewFromInt(100)

// WithdrawalFeeFor returns the fee charged on a withdrawal of amount.
func (s *Settings) WithdrawalFeeFor(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(s.WithdrawalFee).Div(hundred).Round(2)
}

// ReferralBonusDue reports whether reaching successful referrals earns a bonus.
func (s *Settings) ReferralBonusDue(successful int) bool {
	if s.ReferralsRequired <= 0 || successful <= 0 || !s.ReferralBonus.IsPositive() {
		return false
	}
	return successful%s.ReferralsRequired == 0
}

func (s *Settings) Validate() error {
	for field, v := range map[string]decimal.Decimal{
		"minDeposit":    s.MinDeposit,
		"minWithdrawal": s.MinWithdrawal,
		"minInvestment": s.MinInvestment,
		"referralBonus": s.ReferralBonus,
	} {
		if v.IsNegative() {
			return NewValidationError(field, "must not be negative")
		}
	}
	if s.WithdrawalFee.IsNegative() || s.WithdrawalFee.GreaterThan(hundred) {
		return NewValidationError("withdrawalFee", "must be between 0 and 100")
	}
	if s.ProfitPercentage.IsNegative() || s.ProfitPercentage.GreaterThan(hundred) {
		return NewValidationError("profitPercentage", "must be between 0 and 100")
	}
	if s.ProfitInterval < 1 {
		return NewValidationError("profitInterval", "must be at least 1 minute")
	}
	if s.ReferralsRequired < 1 {
		return NewValidationError("referralsRequired", "must be at least 1")
	}
	for method, addr := range s.DepositAddresses {
		if method == "" || addr == "" {
			return NewValidationError("depositAddresses", "method and address must be non-empty")
		}
	}
	return nil
}

// SettingsPatch carries a partial admin update; nil fields are left unchanged.
type SettingsPatch struct {
	MinDeposit        *decimal.Decimal  `json:"minDeposit"`
	MinWithdrawal     *decimal.Decimal  `json:"minWithdrawal"`
	MinInvestment     *decimal.Decimal  `json:"minInvestment"`
	WithdrawalFee     *decimal.Decimal  `json:"withdrawalFee"`
	ProfitPercentage  *decimal.Decimal  `json:"profitPercentage"`
	ProfitInterval    *int              `json:"profitInterval"`
	ReferralBonus     *decimal.Decimal  `json:"referralBonus"`
	ReferralsRequired *int              `json:"referralsRequired"`
	DepositAddresses  map[string]string `json:"depositAddresses"`
}

// Apply returns a copy of s with the patch applied.
func (p SettingsPatch) Apply(s *Settings) *Settings {
	out := *s
	if p.MinDeposit != nil {
		out.MinDeposit = *p.MinDeposit
	}
	if p.MinWithdrawal != nil {
		out.MinWithdrawal = *p.MinWithdrawal
	}
	if p.MinInvestment != nil {
		out.MinInvestment = *p.MinInvestment
	}
	if p.WithdrawalFee != nil {
		out.WithdrawalFee = *p.WithdrawalFee
	}
	if p.ProfitPercentage != nil {
		out.ProfitPercentage = *p.ProfitPercentage
	}
	if p.ProfitInterval != nil {
		out.ProfitInterval = *p.ProfitInterval
	}
	if p.ReferralBonus != nil {
		out.ReferralBonus = *p.ReferralBonus
	}
	if p.ReferralsRequired != nil {
		out.ReferralsRequired = *p.ReferralsRequired
	}
	if p.DepositAddresses != nil {
		addrs := make(map[string]string, len(p.DepositAddresses))
		for k, v := range p.DepositAddresses {
			addrs[k] = v
		}
		out.DepositAddresses = addrs
	}
	return &out
}
