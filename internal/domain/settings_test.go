package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	require.NoError(t, DefaultSettings().Validate())
}

func TestSettingsValidate(t *testing.T) {
	neg := decimal.NewFromInt(-1)
	tooHigh := decimal.NewFromInt(101)
	zero := 0

	cases := map[string]SettingsPatch{
		"negative min deposit": {MinDeposit: &neg},
		"fee above 100":        {WithdrawalFee: &tooHigh},
		"negative profit":      {ProfitPercentage: &neg},
		"zero interval":        {ProfitInterval: &zero},
		"zero referrals":       {ReferralsRequired: &zero},
		"empty address":        {DepositAddresses: map[string]string{"TRC20": ""}},
	}
	for name, patch := range cases {
		t.Run(name, func(t *testing.T) {
			err := patch.Apply(DefaultSettings()).Validate()
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestSettingsPatchLeavesUnsetFields(t *testing.T) {
	base := DefaultSettings()
	fee := decimal.NewFromInt(3)

	out := SettingsPatch{WithdrawalFee: &fee}.Apply(base)

	assert.True(t, out.WithdrawalFee.Equal(fee))
	assert.True(t, out.MinDeposit.Equal(base.MinDeposit))
	assert.Equal(t, base.ProfitInterval, out.ProfitInterval)
	assert.True(t, base.WithdrawalFee.Equal(decimal.NewFromInt(2)), "base must not change")
}

func TestWithdrawalFeeFor(t *testing.T) {
	s := DefaultSettings()
	s.WithdrawalFee = decimal.RequireFromString("2.5")

	assert.True(t, s.WithdrawalFeeFor(decimal.NewFromInt(100)).Equal(decimal.RequireFromString("2.5")))
	assert.True(t, s.WithdrawalFeeFor(decimal.RequireFromString("33.33")).Equal(decimal.RequireFromString("0.83")))
}

func TestReferralBonusDue(t *testing.T) {
	s := DefaultSettings()
	s.ReferralsRequired = 3

	var due []int
	for n := 0; n <= 9; n++ {
		if s.ReferralBonusDue(n) {
			due = append(due, n)
		}
	}
	assert.Equal(t, []int{3, 6, 9}, due)

	s.ReferralBonus = decimal.Zero
	assert.False(t, s.ReferralBonusDue(3))
}

func TestPaymentMethodAllowed(t *testing.T) {
	s := DefaultSettings()
	s.DepositAddresses = map[string]string{"Solana": "addr"}

	assert.True(t, s.PaymentMethodAllowed(" trc20 "))
	assert.True(t, s.PaymentMethodAllowed("SOLANA"))
	assert.False(t, s.PaymentMethodAllowed("paypal"))
	assert.False(t, s.PaymentMethodAllowed(""))
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision("Approve")
	require.NoError(t, err)
	assert.Equal(t, DecisionApprove, d)

	d, err = ParseDecision("rejected")
	require.NoError(t, err)
	assert.Equal(t, DecisionReject, d)

	_, err = ParseDecision("maybe")
	assert.True(t, IsValidation(err))
}
