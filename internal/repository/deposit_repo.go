package repository

import (
	"context"

	"crypto_invest/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type DepositRepository struct {
	db *pgxpool.Pool
}

func NewDepositRepository(db *pgxpool.Pool) *DepositRepository {
	return &DepositRepository{db: db}
}

const depositColumns = `id, user_id, amount, payment_method, proof_image, transaction_id, status, created_at, updated_at`

// ReferralPayout describes the referral bookkeeping done by a deposit approval.
type ReferralPayout struct {
	ReferrerID          uuid.UUID
	SuccessfulReferrals int
	Bonus               decimal.Decimal // zero when no bonus was due
}

// Create persists a new pending deposit
func (r *DepositRepository) Create(ctx context.Context, d *domain.Deposit) error {
	return wrapErr(r.db.QueryRow(ctx,
		`INSERT INTO deposits (user_id, amount, payment_method, proof_image, transaction_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		d.UserID, d.Amount, d.PaymentMethod, d.ProofImage, d.TransactionID, d.Status,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt))
}

// GetByID retrieves deposit by ID
func (r *DepositRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deposit, error) {
	d, err := scanDeposit(r.db.QueryRow(ctx, `SELECT `+depositColumns+` FROM deposits WHERE id = $1`, id))
	if err != nil {
		if noRows(err) {
			return nil, domain.NotFound("deposit")
		}
		return nil, wrapErr(err)
	}
	return d, nil
}

// ListByUser returns a user's deposits, soft-deleted ones excluded.
func (r *DepositRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Deposit, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+depositColumns+` FROM deposits
		 WHERE user_id = $1 AND status <> 'deleted'
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()
	return scanDeposits(rows)
}

// List returns deposits for the admin view; empty status means all.
func (r *DepositRepository) List(ctx context.Context, status domain.DepositStatus, limit, offset int) ([]domain.Deposit, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+depositColumns+` FROM deposits
		 WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()
	return scanDeposits(rows)
}

// UpdatePending changes amount and method of a pending deposit owned by userID.
func (r *DepositRepository) UpdatePending(ctx context.Context, id, userID uuid.UUID, amount decimal.Decimal, method string) (*domain.Deposit, error) {
	d, err := scanDeposit(r.db.QueryRow(ctx,
		`UPDATE deposits SET amount = $3, payment_method = $4, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND status = 'pending'
		 RETURNING `+depositColumns, id, userID, amount, method))
	if err != nil {
		if noRows(err) {
			return nil, r.explainPending(ctx, id, userID)
		}
		return nil, wrapErr(err)
	}
	return d, nil
}

// SoftDelete marks a pending deposit owned by userID as deleted.
func (r *DepositRepository) SoftDelete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE deposits SET status = 'deleted', updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND status = 'pending'`, id, userID)
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return r.explainPending(ctx, id, userID)
	}
	return nil
}

// explainPending turns a failed owner+pending guard into the matching error.
func (r *DepositRepository) explainPending(ctx context.Context, id, userID uuid.UUID) error {
	d, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if d.UserID != userID {
		return domain.ErrForbidden
	}
	return domain.NewValidationError("status", "deposit is already %s", d.Status)
}

// Approve credits the deposit amount to its owner. On the owner's first
// approved deposit the referrer's successful_referrals is incremented and,
// when the count reaches a multiple of referralsRequired, the referral bonus
// is credited to the referrer. Everything happens in one transaction.
func (r *DepositRepository) Approve(ctx context.Context, id uuid.UUID, s *domain.Settings) (*domain.Deposit, *ReferralPayout, error) {
	var (
		d      *domain.Deposit
		payout *ReferralPayout
	)
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		d, err = r.lockPending(ctx, tx, id)
		if err != nil {
			return err
		}

		meta := map[string]any{"deposit_id": d.ID.String(), "transaction_id": d.TransactionID}
		if _, err := applyBalanceDelta(ctx, tx, d.UserID, d.Amount, domain.TxDepositApproved, meta); err != nil {
			return err
		}

		var (
			referrer      *uuid.UUID
			earlierFunded bool
		)
		if err := tx.QueryRow(ctx,
			`SELECT referred_by,
			        EXISTS(SELECT 1 FROM deposits WHERE user_id = $1 AND status = 'approved' AND id <> $2)
			 FROM users WHERE id = $1`, d.UserID, d.ID,
		).Scan(&referrer, &earlierFunded); err != nil {
			return wrapErr(err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE deposits SET status = 'approved', updated_at = NOW() WHERE id = $1`, d.ID); err != nil {
			return wrapErr(err)
		}
		d.Status = domain.DepositApproved

		if referrer == nil || earlierFunded {
			return nil
		}

		payout = &ReferralPayout{ReferrerID: *referrer}
		if err := tx.QueryRow(ctx,
			`UPDATE users SET successful_referrals = successful_referrals + 1, updated_at = NOW()
			 WHERE id = $1 RETURNING successful_referrals`, *referrer,
		).Scan(&payout.SuccessfulReferrals); err != nil {
			if noRows(err) {
				payout = nil
				return nil
			}
			return wrapErr(err)
		}

		if !s.ReferralBonusDue(payout.SuccessfulReferrals) {
			return nil
		}
		bonusMeta := map[string]any{
			"referred_user_id":     d.UserID.String(),
			"successful_referrals": payout.SuccessfulReferrals,
		}
		if _, err := applyBalanceDelta(ctx, tx, *referrer, s.ReferralBonus, domain.TxReferralBonus, bonusMeta); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE users SET referral_earnings = referral_earnings + $2 WHERE id = $1`,
			*referrer, s.ReferralBonus); err != nil {
			return wrapErr(err)
		}
		payout.Bonus = s.ReferralBonus
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return d, payout, nil
}

// Reject moves a pending deposit to rejected.
func (r *DepositRepository) Reject(ctx context.Context, id uuid.UUID) (*domain.Deposit, error) {
	var d *domain.Deposit
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		d, err = r.lockPending(ctx, tx, id)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE deposits SET status = 'rejected', updated_at = NOW() WHERE id = $1`, id)
		d.Status = domain.DepositRejected
		return wrapErr(err)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DepositRepository) lockPending(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Deposit, error) {
	d, err := scanDeposit(tx.QueryRow(ctx, `SELECT `+depositColumns+` FROM deposits WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if noRows(err) {
			return nil, domain.NotFound("deposit")
		}
		return nil, wrapErr(err)
	}
	if d.Status != domain.DepositPending {
		return nil, domain.NewValidationError("status", "deposit is already %s", d.Status)
	}
	return d, nil
}

func scanDeposit(row pgx.Row) (*domain.Deposit, error) {
	var d domain.Deposit
	if err := row.Scan(
		&d.ID, &d.UserID, &d.Amount, &d.PaymentMethod, &d.ProofImage, &d.TransactionID,
		&d.Status, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

func scanDeposits(rows pgx.Rows) ([]domain.Deposit, error) {
	var deposits []domain.Deposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, wrapErr(err)
		}
		deposits = append(deposits, *d)
	}
	return deposits, wrapErr(rows.Err())
}
