package repository

import (
	"context"
	"time"

	"crypto_invest/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type InvestmentRepository struct {
	db *pgxpool.Pool
}

func NewInvestmentRepository(db *pgxpool.Pool) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

const investmentColumns = `id, user_id, amount, status, plan, daily_profit_rate,
	total_profit, last_profit_update, created_at, updated_at`

// Create persists a new pending investment.
func (r *InvestmentRepository) Create(ctx context.Context, inv *domain.Investment) error {
	return wrapErr(r.db.QueryRow(ctx,
		`INSERT INTO investments (user_id, amount, status, plan, daily_profit_rate)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, total_profit, created_at, updated_at`,
		inv.UserID, inv.Amount, inv.Status, inv.Plan, inv.DailyProfitRate,
	).Scan(&inv.ID, &inv.TotalProfit, &inv.CreatedAt, &inv.UpdatedAt))
}

func (r *InvestmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Investment, error) {
	inv, err := scanInvestment(r.db.QueryRow(ctx,
		`SELECT `+investmentColumns+` FROM investments WHERE id = $1`, id))
	if err != nil {
		if noRows(err) {
			return nil, domain.NotFound("investment")
		}
		return nil, wrapErr(err)
	}
	return inv, nil
}

// ListByUser returns a user's investments, newest first.
func (r *InvestmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Investment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+investmentColumns+` FROM investments
		 WHERE user_id = $1
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()
	return scanInvestments(rows)
}

// List returns investments for the admin view; empty status means all.
func (r *InvestmentRepository) List(ctx context.Context, status domain.InvestmentStatus, limit, offset int) ([]domain.Investment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+investmentColumns+` FROM investments
		 WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()
	return scanInvestments(rows)
}

// ListAccruing returns every approved investment.
func (r *InvestmentRepository) ListAccruing(ctx context.Context) ([]domain.Investment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+investmentColumns+` FROM investments
		 WHERE status = 'approved'
		 ORDER BY last_profit_update ASC NULLS FIRST`)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()
	return scanInvestments(rows)
}

// UpdateAmount changes the principal of a pending investment. It reports
// false when the row is no longer pending.
func (r *InvestmentRepository) UpdateAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE investments SET amount = $2, updated_at = NOW()
		 WHERE id = $1 AND status = 'pending'`, id, amount)
	if err != nil {
		return false, wrapErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

// Approve moves a pending investment to approved, starts its profit clock at
// now and adds the principal to the owner's total_investments.
func (r *InvestmentRepository) Approve(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Investment, error) {
	var inv *domain.Investment
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		inv, err = r.transition(ctx, tx, id, domain.InvestmentApproved, &now)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE users SET total_investments = total_investments + $2, updated_at = NOW() WHERE id = $1`,
			inv.UserID, inv.Amount)
		return wrapErr(err)
	})
	return inv, err
}

// Reject moves a pending investment to rejected.
func (r *InvestmentRepository) Reject(ctx context.Context, id uuid.UUID) (*domain.Investment, error) {
	return r.transition(ctx, r.db, id, domain.InvestmentRejected, nil)
}

func (r *InvestmentRepository) transition(ctx context.Context, q querier, id uuid.UUID, to domain.InvestmentStatus, clock *time.Time) (*domain.Investment, error) {
	inv, err := scanInvestment(q.QueryRow(ctx,
		`UPDATE investments
		 SET status = $2, last_profit_update = COALESCE($3, last_profit_update), updated_at = NOW()
		 WHERE id = $1 AND status = 'pending'
		 RETURNING `+investmentColumns, id, to, clock))
	if err == nil {
		return inv, nil
	}
	if !noRows(err) {
		return nil, wrapErr(err)
	}

	var current domain.InvestmentStatus
	if err := q.QueryRow(ctx, `SELECT status FROM investments WHERE id = $1`, id).Scan(&current); err != nil {
		if noRows(err) {
			return nil, domain.NotFound("investment")
		}
		return nil, wrapErr(err)
	}
	return nil, domain.NewValidationError("status", "investment is already %s", current)
}

// SetRate sets or clears the per-investment profit rate override.
func (r *InvestmentRepository) SetRate(ctx context.Context, id uuid.UUID, rate *decimal.Decimal) (*domain.Investment, error) {
	inv, err := scanInvestment(r.db.QueryRow(ctx,
		`UPDATE investments SET daily_profit_rate = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+investmentColumns, id, rate))
	if err != nil {
		if noRows(err) {
			return nil, domain.NotFound("investment")
		}
		return nil, wrapErr(err)
	}
	return inv, nil
}

// DeleteWithRefund removes an investment. When it is approved at the moment of
// deletion, the principal is returned to the owner's balance in the same
// transaction. It returns the deleted row and the refunded amount.
func (r *InvestmentRepository) DeleteWithRefund(ctx context.Context, id uuid.UUID) (*domain.Investment, decimal.Decimal, error) {
	var (
		inv      *domain.Investment
		refunded = decimal.Zero
	)
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		inv, err = scanInvestment(tx.QueryRow(ctx,
			`SELECT `+investmentColumns+` FROM investments WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if noRows(err) {
				return domain.NotFound("investment")
			}
			return wrapErr(err)
		}

		if inv.Status == domain.InvestmentApproved {
			meta := map[string]any{
				"investment_id": inv.ID.String(),
				"total_profit":  inv.TotalProfit.String(),
			}
			if _, err := applyBalanceDelta(ctx, tx, inv.UserID, inv.Amount, domain.TxInvestmentRefund, meta); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx,
				`UPDATE users SET total_investments = GREATEST(total_investments - $2, 0) WHERE id = $1`,
				inv.UserID, inv.Amount); err != nil {
				return wrapErr(err)
			}
			refunded = inv.Amount
		}

		_, err = tx.Exec(ctx, `DELETE FROM investments WHERE id = $1`, id)
		return wrapErr(err)
	})
	if err != nil {
		return nil, decimal.Zero, err
	}
	return inv, refunded, nil
}

// CreditProfit adds profit and moves the profit clock from prev to next. The
// update only applies if the clock still reads prev and the investment is
// still approved, so a concurrent tick cannot credit the same interval twice.
func (r *InvestmentRepository) CreditProfit(ctx context.Context, id uuid.UUID, prev, next time.Time, profit decimal.Decimal) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE investments
		 SET total_profit = total_profit + $4, last_profit_update = $3, updated_at = NOW()
		 WHERE id = $1 AND status = 'approved' AND last_profit_update = $2`,
		id, prev, next, profit)
	if err != nil {
		return false, wrapErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

// StartProfitClock sets last_profit_update on an approved investment that has none.
func (r *InvestmentRepository) StartProfitClock(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE investments SET last_profit_update = $2, updated_at = NOW()
		 WHERE id = $1 AND status = 'approved' AND last_profit_update IS NULL`, id, now)
	if err != nil {
		return false, wrapErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanInvestment(row pgx.Row) (*domain.Investment, error) {
	var inv domain.Investment
	if err := row.Scan(
		&inv.ID, &inv.UserID, &inv.Amount, &inv.Status, &inv.Plan, &inv.DailyProfitRate,
		&inv.TotalProfit, &inv.LastProfitUpdate, &inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &inv, nil
}

func scanInvestments(rows pgx.Rows) ([]domain.Investment, error) {
	var investments []domain.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, wrapErr(err)
		}
		investments = append(investments, *inv)
	}
	return investments, wrapErr(rows.Err())
}
