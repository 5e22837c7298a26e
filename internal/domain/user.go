package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID                  uuid.UUID       `json:"id"`
	Name                string          `json:"name"`
	Email               string          `json:"email"`
	PasswordHash        *string         `json:"-"`
	Balance             decimal.Decimal `json:"balance"`
	ReferralCode        string          `json:"referralCode"`
	ReferredBy          *uuid.UUID      `json:"referredBy,omitempty"`
	ReferralCount       int             `json:"referralCount"`
	SuccessfulReferrals int             `json:"successfulReferrals"`
	ReferralEarnings    decimal.Decimal `json:"referralEarnings"`
	IsAdmin             bool            `json:"isAdmin"`
	IsAccountVerified   bool            `json:"isAccountVerified"`
	IsEmailVerified     bool            `json:"isEmailVerified"`
	GoogleID            *string         `json:"-"`
	VerifyOTP           string          `json:"-"`
	VerifyOTPExpireAt   *time.Time      `json:"-"`
	ResetOTP            string          `json:"-"`
	ResetOTPExpireAt    *time.Time      `json:"-"`
	Metadata            map[string]any  `json:"metadata,omitempty"`
	TotalInvestments    decimal.Decimal `json:"totalInvestments"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// HasPassword is false for accounts created through Google sign-in only.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// OTPPurpose selects which one-time code a request refers to.
type OTPPurpose string

const (
	OTPVerify OTPPurpose = "verify"
	OTPReset  OTPPurpose = "reset"
)

const (
	VerifyOTPTTL = 24 * time.Hour
	ResetOTPTTL  = 15 * time.Minute

	// MaxOTPAttempts wrong guesses burn the current code.
	MaxOTPAttempts = 5
)
