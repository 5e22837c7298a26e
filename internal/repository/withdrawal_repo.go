package repository

import (
	"context"
	"fmt"

	"crypto_invest/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WithdrawalRepository struct {
	db *pgxpool.Pool
}

func NewWithdrawalRepository(db *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

const withdrawalColumns = `id, user_id, amount, withdrawal_method, wallet_address, fee, status, created_at, updated_at`

// Create records a pending withdrawal request. A second pending request for the
// same user violates idx_withdrawals_one_pending and yields ErrConflict.
func (r *WithdrawalRepository) Create(ctx context.Context, w *domain.Withdrawal) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO withdrawals (user_id, amount, withdrawal_method, wallet_address, fee, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		w.UserID, w.Amount, w.WithdrawalMethod, w.WalletAddress, w.Fee, w.Status,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if isUniqueViolation(err, "idx_withdrawals_one_pending") {
		return fmt.Errorf("%w: a withdrawal is already pending", domain.ErrConflict)
	}
	return wrapErr(err)
}

// GetByID retrieves withdrawal by ID
func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	w, err := scanWithdrawal(r.db.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id))
	if err != nil {
		if noRows(err) {
			return nil, domain.NotFound("withdrawal")
		}
		return nil, wrapErr(err)
	}
	return w, nil
}

// ListByUser returns a user's withdrawals, newest first.
func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals
		 WHERE user_id = $1
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()
	return scanWithdrawals(rows)
}

// List returns withdrawals for the admin view; empty status means all.
func (r *WithdrawalRepository) List(ctx context.Context, status domain.WithdrawalStatus, limit, offset int) ([]domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals
		 WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()
	return scanWithdrawals(rows)
}

// HasPending checks if user has a pending withdrawal
func (r *WithdrawalRepository) HasPending(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM withdrawals WHERE user_id = $1 AND status = 'pending')`, userID,
	).Scan(&exists)
	return exists, wrapErr(err)
}

// Approve debits amount+fee from the owner's balance and marks the request
// approved. The balance is re-checked under the user row lock.
func (r *WithdrawalRepository) Approve(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	var w *domain.Withdrawal
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		w, err = lockPendingWithdrawal(ctx, tx, id)
		if err != nil {
			return err
		}
		meta := map[string]any{
			"withdrawal_id": w.ID.String(),
			"fee":           w.Fee.String(),
			"method":        w.WithdrawalMethod,
		}
		if _, err := applyBalanceDelta(ctx, tx, w.UserID, w.Total().Neg(), domain.TxWithdrawalApproved, meta); err != nil {
			return err
		}
		return setWithdrawalStatus(ctx, tx, w, domain.WithdrawalApproved)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Reject marks a pending withdrawal rejected; the balance was never debited.
func (r *WithdrawalRepository) Reject(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	var w *domain.Withdrawal
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		w, err = lockPendingWithdrawal(ctx, tx, id)
		if err != nil {
			return err
		}
		return setWithdrawalStatus(ctx, tx, w, domain.WithdrawalRejected)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Cancel lets the owner withdraw their own pending request.
func (r *WithdrawalRepository) Cancel(ctx context.Context, id, userID uuid.UUID) (*domain.Withdrawal, error) {
	var w *domain.Withdrawal
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		w, err = lockPendingWithdrawal(ctx, tx, id)
		if err != nil {
			return err
		}
		if w.UserID != userID {
			return domain.ErrForbidden
		}
		return setWithdrawalStatus(ctx, tx, w, domain.WithdrawalRejected)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func lockPendingWithdrawal(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Withdrawal, error) {
	w, err := scanWithdrawal(tx.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if noRows(err) {
			return nil, domain.NotFound("withdrawal")
		}
		return nil, wrapErr(err)
	}
	if w.Status != domain.WithdrawalPending {
		return nil, domain.NewValidationError("status", "withdrawal is already %s", w.Status)
	}
	return w, nil
}

func setWithdrawalStatus(ctx context.Context, tx pgx.Tx, w *domain.Withdrawal, status domain.WithdrawalStatus) error {
	if err := tx.QueryRow(ctx,
		`UPDATE withdrawals SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`,
		w.ID, status,
	).Scan(&w.UpdatedAt); err != nil {
		return wrapErr(err)
	}
	w.Status = status
	return nil
}

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	if err := row.Scan(
		&w.ID, &w.UserID, &w.Amount, &w.WithdrawalMethod, &w.WalletAddress, &w.Fee,
		&w.Status, &w.CreatedAt, &w.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &w, nil
}

func scanWithdrawals(rows pgx.Rows) ([]domain.Withdrawal, error) {
	var withdrawals []domain.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, wrapErr(err)
		}
		withdrawals = append(withdrawals, *w)
	}
	return withdrawals, wrapErr(rows.Err())
}
