package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"crypto_invest/internal/domain"
	"crypto_invest/internal/logger"
	"crypto_invest/internal/oauth"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

var ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)

// UserStore is the persistence the auth flows need.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	GetByReferralCode(ctx context.Context, code string) (*domain.User, error)
	LinkGoogle(ctx context.Context, id uuid.UUID, googleID string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, name string, metadata map[string]any) error
	SetOTP(ctx context.Context, id uuid.UUID, purpose domain.OTPPurpose, code string, expireAt time.Time) error
	RecordOTPFailure(ctx context.Context, id uuid.UUID, purpose domain.OTPPurpose, max int) (int, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
	ResetPassword(ctx context.Context, id uuid.UUID, hash string) error
}

type AuthService struct {
	users  UserStore
	tokens *JWTManager
	mailer Mailer
	audit  Auditor
	now    func() time.Time
}

func NewAuthService(users UserStore, tokens *JWTManager, mailer Mailer, audit Auditor) *AuthService {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &AuthService{users: users, tokens: tokens, mailer: mailer, audit: orNopAuditor(audit), now: time.Now}
}

// AuthResult is returned by every successful sign-in.
type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type RegisterInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	ReferralCode string `json:"referralCode"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" {
		return nil, domain.NewValidationError("name", "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, domain.NewValidationError("email", "is not a valid address")
	}
	if len(in.Password) < minPasswordLen {
		return nil, domain.NewValidationError("password", "must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{Name: name, Email: email, PasswordHash: ptr(string(hash))}
	if code := strings.TrimSpace(in.ReferralCode); code != "" {
		referrer, err := s.users.GetByReferralCode(ctx, code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.NewValidationError("referralCode", "is not valid")
			}
			return nil, err
		}
		u.ReferredBy = &referrer.ID
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("user registered", "user_id", u.ID, "referred", u.ReferredBy != nil)
	s.audit.Log(ctx, &u.ID, domain.AuditActionRegister, domain.AuditCategoryAuth, nil)
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.HasPassword() {
		return nil, fmt.Errorf("%w: this account uses Google sign-in", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.audit.Log(ctx, &u.ID, domain.AuditActionLogin, domain.AuditCategoryAuth, nil)
	return s.issue(u)
}

// LoginWithGoogle signs in by Google account id, then by email (linking the
// account), and otherwise creates a password-less user.
func (s *AuthService) LoginWithGoogle(ctx context.Context, p *oauth.Profile) (*AuthResult, error) {
	if p.ID == "" || p.Email == "" {
		return nil, domain.NewValidationError("google", "profile is missing id or email")
	}

	u, err := s.users.GetByGoogleID(ctx, p.ID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		u, err = s.users.GetByEmail(ctx, p.Email)
		switch {
		case err == nil:
			if err := s.users.LinkGoogle(ctx, u.ID, p.ID); err != nil {
				return nil, err
			}
			u.GoogleID = &p.ID
			u.IsEmailVerified = true
		case errors.Is(err, domain.ErrNotFound):
			name := strings.TrimSpace(p.Name)
			if name == "" {
				name = strings.Split(p.Email, "@")[0]
			}
			u = &domain.User{
				Name:            name,
				Email:           p.Email,
				GoogleID:        &p.ID,
				IsEmailVerified: p.VerifiedEmail,
			}
			if err := s.users.Create(ctx, u); err != nil {
				return nil, err
			}
			s.audit.Log(ctx, &u.ID, domain.AuditActionRegister, domain.AuditCategoryAuth, map[string]any{"provider": "google"})
		default:
			return nil, err
		}
	default:
		return nil, err
	}

	s.audit.Log(ctx, &u.ID, domain.AuditActionGoogleLogin, domain.AuditCategoryAuth, nil)
	return s.issue(u)
}

func (s *AuthService) issue(u *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(u.ID, u.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, name string, metadata map[string]any) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" {
		u.Name = name
	}
	if metadata != nil {
		u.Metadata = metadata
	}
	if err := s.users.UpdateProfile(ctx, userID, u.Name, u.Metadata); err != nil {
		return nil, err
	}
	return u, nil
}

// SendVerifyOTP issues an account verification code.
func (s *AuthService) SendVerifyOTP(ctx context.Context, userID uuid.UUID) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.IsAccountVerified {
		return domain.NewValidationError("account", "is already verified")
	}
	return s.sendOTP(ctx, u, domain.OTPVerify, domain.VerifyOTPTTL)
}

func (s *AuthService) VerifyAccount(ctx context.Context, userID uuid.UUID, code string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.checkOTP(ctx, u.ID, domain.OTPVerify, u.VerifyOTP, u.VerifyOTPExpireAt, code); err != nil {
		return err
	}
	return s.users.MarkVerified(ctx, userID)
}

// SendResetOTP issues a password reset code. Unknown emails are reported as
// not found so the client can tell the user.
func (s *AuthService) SendResetOTP(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.sendOTP(ctx, u, domain.OTPReset, domain.ResetOTPTTL)
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return domain.NewValidationError("newPassword", "must be at least %d characters", minPasswordLen)
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.checkOTP(ctx, u.ID, domain.OTPReset, u.ResetOTP, u.ResetOTPExpireAt, code); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.ResetPassword(ctx, u.ID, string(hash))
}

func (s *AuthService) sendOTP(ctx context.Context, u *domain.User, purpose domain.OTPPurpose, ttl time.Duration) error {
	code, err := generateOTP()
	if err != nil {
		return err
	}
	if err := s.users.SetOTP(ctx, u.ID, purpose, code, s.now().Add(ttl)); err != nil {
		return err
	}
	return s.mailer.SendOTP(ctx, u.Email, purpose, code)
}

// checkOTP compares in constant time. Each wrong guess is counted and the
// code is burned after domain.MaxOTPAttempts.
func (s *AuthService) checkOTP(ctx context.Context, userID uuid.UUID, purpose domain.OTPPurpose, stored string, expireAt *time.Time, code string) error {
	code = strings.TrimSpace(code)
	if stored == "" {
		return domain.NewValidationError("otp", "is invalid")
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		attempts, err := s.users.RecordOTPFailure(ctx, userID, purpose, domain.MaxOTPAttempts)
		if err != nil {
			return err
		}
		if attempts >= domain.MaxOTPAttempts {
			logger.WithContext(ctx).Warn("otp burned after failed attempts", "user_id", userID, "purpose", purpose)
			return domain.NewValidationError("otp", "too many attempts, request a new code")
		}
		return domain.NewValidationError("otp", "is invalid")
	}
	if expireAt == nil || s.now().After(*expireAt) {
		return domain.NewValidationError("otp", "has expired")
	}
	return nil
}

// generateOTP returns a uniformly random 6-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
