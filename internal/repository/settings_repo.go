package repository

import (
	"context"
	"encoding/json"

	"crypto_invest/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type SettingsRepository struct {
	db *pgxpool.Pool
}

func NewSettingsRepository(db *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get loads the settings row. It returns ErrNotFound until one has been saved.
func (r *SettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	var (
		s         domain.Settings
		addrsJSON []byte
	)
	err := r.db.QueryRow(ctx,
		`SELECT min_deposit, min_withdrawal, min_investment, withdrawal_fee, profit_percentage,
		        profit_interval, referral_bonus, referrals_required, deposit_addresses, updated_at
		 FROM settings WHERE id = 1`,
	).Scan(&s.MinDeposit, &s.MinWithdrawal, &s.MinInvestment, &s.WithdrawalFee, &s.ProfitPercentage,
		&s.ProfitInterval, &s.ReferralBonus, &s.ReferralsRequired, &addrsJSON, &s.UpdatedAt)
	if err != nil {
		if noRows(err) {
			return nil, domain.NotFound("settings")
		}
		return nil, wrapErr(err)
	}
	s.DepositAddresses = map[string]string{}
	if len(addrsJSON) > 0 {
		_ = json.Unmarshal(addrsJSON, &s.DepositAddresses)
	}
	return &s, nil
}

// Save upserts the single settings row.
func (r *SettingsRepository) Save(ctx context.Context, s *domain.Settings) error {
	addrsJSON, err := json.Marshal(s.DepositAddresses)
	if err != nil || s.DepositAddresses == nil {
		addrsJSON = []byte("{}")
	}
	return wrapErr(r.db.QueryRow(ctx,
		`INSERT INTO settings (id, min_deposit, min_withdrawal, min_investment, withdrawal_fee,
		                       profit_percentage, profit_interval, referral_bonus, referrals_required,
		                       deposit_addresses, updated_at)
		 VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		 ON CONFLICT (id) DO UPDATE SET
		     min_deposit = EXCLUDED.min_deposit,
		     min_withdrawal = EXCLUDED.min_withdrawal,
		     min_investment = EXCLUDED.min_investment,
		     withdrawal_fee = EXCLUDED.withdrawal_fee,
		     profit_percentage = EXCLUDED.profit_percentage,
		     profit_interval = EXCLUDED.profit_interval,
		     referral_bonus = EXCLUDED.referral_bonus,
		     referrals_required = EXCLUDED.referrals_required,
		     deposit_addresses = EXCLUDED.deposit_addresses,
		     updated_at = NOW()
		 RETURNING updated_at`,
		s.MinDeposit, s.MinWithdrawal, s.MinInvestment, s.WithdrawalFee, s.ProfitPercentage,
		s.ProfitInterval, s.ReferralBonus, s.ReferralsRequired, addrsJSON,
	).Scan(&s.UpdatedAt))
}
