package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"crypto_invest/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, balance, referral_code, referred_by,
	referral_count, successful_referrals, referral_earnings, is_admin,
	is_account_verified, is_email_verified, google_id, verify_otp, verify_otp_expire_at,
	reset_otp, reset_otp_expire_at, metadata, total_investments, created_at, updated_at`

// Create inserts a user with a fresh referral code. When ReferredBy is set the
// referrer's referral_count is incremented in the same transaction.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	metaJSON, err := json.Marshal(u.Metadata)
	if err != nil || u.Metadata == nil {
		metaJSON = []byte("{}")
	}

	var lastErr error
	for i := 0; i < 5; i++ { // retry on referral code collision
		u.ReferralCode = GenerateReferralCode()
		lastErr = withTx(ctx, r.db, func(tx pgx.Tx) error {
			err := tx.QueryRow(ctx,
				`INSERT INTO users (name, email, password_hash, referral_code, referred_by,
				                    is_email_verified, google_id, metadata)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				 RETURNING id, balance, created_at, updated_at`,
				u.Name, u.Email, u.PasswordHash, u.ReferralCode, u.ReferredBy,
				u.IsEmailVerified, u.GoogleID, metaJSON,
			).Scan(&u.ID, &u.Balance, &u.CreatedAt, &u.UpdatedAt)
			if err != nil {
				return err
			}

			if u.ReferredBy != nil {
				_, err = tx.Exec(ctx,
					`UPDATE users SET referral_count = referral_count + 1, updated_at = NOW() WHERE id = $1`,
					*u.ReferredBy,
				)
			}
			return err
		})
		if lastErr == nil {
			return nil
		}
		if !isUniqueViolation(lastErr, "users_referral_code_key") {
			break
		}
	}

	if isUniqueViolation(lastErr, "users_email_key") || isUniqueViolation(lastErr, "users_google_id_key") {
		return fmt.Errorf("%w: email already registered", domain.ErrConflict)
	}
	return wrapErr(lastErr)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID)
}

func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, strings.TrimSpace(code))
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if noRows(err) {
			return nil, domain.NotFound("user")
		}
		return nil, wrapErr(err)
	}
	return u, nil
}

// LinkGoogle attaches a Google account to an existing user. A verified Google
// email also verifies the account email.
func (r *UserRepository) LinkGoogle(ctx context.Context, id uuid.UUID, googleID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET google_id = $2, is_email_verified = TRUE, updated_at = NOW() WHERE id = $1`,
		id, googleID,
	)
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("user")
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name string, metadata map[string]any) error {
	metaJSON, err := json.Marshal(metadata)
	if err != nil || metadata == nil {
		metaJSON = []byte("{}")
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET name = $2, metadata = $3, updated_at = NOW() WHERE id = $1`,
		id, name, metaJSON,
	)
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("user")
	}
	return nil
}

// SetOTP stores a one-time code for the given purpose and resets its attempt counter.
func (r *UserRepository) SetOTP(ctx context.Context, id uuid.UUID, purpose domain.OTPPurpose, code string, expireAt time.Time) error {
	query := `UPDATE users SET verify_otp = $2, verify_otp_expire_at = $3, verify_otp_attempts = 0, updated_at = NOW() WHERE id = $1`
	if purpose == domain.OTPReset {
		query = `UPDATE users SET reset_otp = $2, reset_otp_expire_at = $3, reset_otp_attempts = 0, updated_at = NOW() WHERE id = $1`
	}
	_, err := r.db.Exec(ctx, query, id, code, expireAt)
	return wrapErr(err)
}

// RecordOTPFailure counts a wrong guess and clears the code once max guesses
// were made. It returns the attempt count after this failure.
func (r *UserRepository) RecordOTPFailure(ctx context.Context, id uuid.UUID, purpose domain.OTPPurpose, max int) (int, error) {
	query := `UPDATE users
		 SET verify_otp_attempts = verify_otp_attempts + 1,
		     verify_otp = CASE WHEN verify_otp_attempts + 1 >= $2 THEN '' ELSE verify_otp END,
		     verify_otp_expire_at = CASE WHEN verify_otp_attempts + 1 >= $2 THEN NULL ELSE verify_otp_expire_at END
		 WHERE id = $1
		 RETURNING verify_otp_attempts`
	if purpose == domain.OTPReset {
		query = `UPDATE users
		 SET reset_otp_attempts = reset_otp_attempts + 1,
		     reset_otp = CASE WHEN reset_otp_attempts + 1 >= $2 THEN '' ELSE reset_otp END,
		     reset_otp_expire_at = CASE WHEN reset_otp_attempts + 1 >= $2 THEN NULL ELSE reset_otp_expire_at END
		 WHERE id = $1
		 RETURNING reset_otp_attempts`
	}
	var attempts int
	if err := r.db.QueryRow(ctx, query, id, max).Scan(&attempts); err != nil {
		if noRows(err) {
			return 0, domain.NotFound("user")
		}
		return 0, wrapErr(err)
	}
	return attempts, nil
}

// MarkVerified clears the verify OTP and flags the account and email verified.
func (r *UserRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users
		 SET is_account_verified = TRUE, is_email_verified = TRUE,
		     verify_otp = '', verify_otp_expire_at = NULL, updated_at = NOW()
		 WHERE id = $1`, id)
	return wrapErr(err)
}

// ResetPassword stores a new hash and clears the reset OTP.
func (r *UserRepository) ResetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users
		 SET password_hash = $2, reset_otp = '', reset_otp_expire_at = NULL, updated_at = NOW()
		 WHERE id = $1`, id, hash)
	return wrapErr(err)
}

func (r *UserRepository) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET is_admin = $2, updated_at = NOW() WHERE id = $1`, id, isAdmin)
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("user")
	}
	return nil
}

func (r *UserRepository) Balance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	if err := r.db.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, id).Scan(&balance); err != nil {
		if noRows(err) {
			return decimal.Zero, domain.NotFound("user")
		}
		return decimal.Zero, wrapErr(err)
	}
	return balance, nil
}

// AdjustBalance applies an admin correction and journals it.
func (r *UserRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal, meta map[string]any) (decimal.Decimal, error) {
	var newBalance decimal.Decimal
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		newBalance, err = applyBalanceDelta(ctx, tx, id, delta, domain.TxAdminAdjustment, meta)
		return err
	})
	return newBalance, err
}

// Delete removes a user; child rows cascade.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("user")
	}
	return nil
}

// List returns a page of users matching search (name or email) and the total count.
func (r *UserRepository) List(ctx context.Context, search string, limit, offset int) ([]domain.User, int, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(search)) + "%"

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE LOWER(name) LIKE $1 OR email LIKE $1`, pattern,
	).Scan(&total); err != nil {
		return nil, 0, wrapErr(err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE LOWER(name) LIKE $1 OR email LIKE $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		pattern, limit, offset,
	)
	if err != nil {
		return nil, 0, wrapErr(err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, wrapErr(err)
		}
		users = append(users, *u)
	}
	return users, total, wrapErr(rows.Err())
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var metaJSON []byte
	if err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Balance, &u.ReferralCode, &u.ReferredBy,
		&u.ReferralCount, &u.SuccessfulReferrals, &u.ReferralEarnings, &u.IsAdmin,
		&u.IsAccountVerified, &u.IsEmailVerified, &u.GoogleID, &u.VerifyOTP, &u.VerifyOTPExpireAt,
		&u.ResetOTP, &u.ResetOTPExpireAt, &metaJSON, &u.TotalInvestments, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(metaJSON) > 0 {
		_ = json.Unmarshal(metaJSON, &u.Metadata)
	}
	return &u, nil
}
