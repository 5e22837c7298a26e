package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReferredUser is a user who registered with someone's referral code.
type ReferredUser struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	HasApprovedFunds bool      `json:"hasApprovedDeposit"`
	CreatedAt        time.Time `json:"createdAt"`
}

type ReferralRepository struct {
	db *pgxpool.Pool
}

func NewReferralRepository(db *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// GenerateReferralCode generates a random referral code
func GenerateReferralCode() string {
	bytes := make([]byte, 6)
	_, _ = rand.Read(bytes)
	return strings.ToUpper(hex.EncodeToString(bytes))
}

// ListReferred returns users referred by referrerID, newest first.
func (r *ReferralRepository) ListReferred(ctx context.Context, referrerID uuid.UUID) ([]ReferredUser, error) {
	rows, err := r.db.Query(ctx,
		`SELECT u.id, u.name, u.email,
		        EXISTS(SELECT 1 FROM deposits d WHERE d.user_id = u.id AND d.status = 'approved'),
		        u.created_at
		 FROM users u
		 WHERE u.referred_by = $1
		 ORDER BY u.created_at DESC`,
		referrerID,
	)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var referred []ReferredUser
	for rows.Next() {
		var ru ReferredUser
		if err := rows.Scan(&ru.ID, &ru.Name, &ru.Email, &ru.HasApprovedFunds, &ru.CreatedAt); err != nil {
			return nil, wrapErr(err)
		}
		referred = append(referred, ru)
	}
	return referred, wrapErr(rows.Err())
}
