package repository

import (
	"context"
	"encoding/json"

	"crypto_invest/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// GetByUserID returns recent journal entries for a user
func (r *TransactionRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, type, amount, meta, created_at
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func insertTransaction(ctx context.Context, q querier, tx *domain.Transaction) error {
	metaJSON, err := json.Marshal(tx.Meta)
	if err != nil || tx.Meta == nil {
		metaJSON = []byte("{}")
	}

	return wrapErr(q.QueryRow(ctx,
		`INSERT INTO transactions (user_id, type, amount, meta)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		tx.UserID, tx.Type, tx.Amount, metaJSON,
	).Scan(&tx.ID, &tx.CreatedAt))
}

// applyBalanceDelta locks the user's row, checks the new balance stays
// non-negative, writes it and journals the change. Must run inside tx.
func applyBalanceDelta(ctx context.Context, tx pgx.Tx, userID uuid.UUID, delta decimal.Decimal, txType string, meta map[string]any) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		if noRows(err) {
			return decimal.Zero, domain.NotFound("user")
		}
		return decimal.Zero, wrapErr(err)
	}

	newBalance := balance.Add(delta)
	if newBalance.IsNegative() {
		return balance, domain.ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET balance = $1, updated_at = NOW() WHERE id = $2`,
		newBalance, userID,
	); err != nil {
		return balance, wrapErr(err)
	}

	entry := &domain.Transaction{UserID: userID, Type: txType, Amount: delta, Meta: meta}
	if err := insertTransaction(ctx, tx, entry); err != nil {
		return balance, err
	}
	return newBalance, nil
}

func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var result []*domain.Transaction

	for rows.Next() {
		var (
			tx       domain.Transaction
			metaJSON []byte
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &metaJSON, &tx.CreatedAt); err != nil {
			return nil, wrapErr(err)
		}
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &tx.Meta)
		}
		result = append(result, &tx)
	}

	return result, wrapErr(rows.Err())
}
