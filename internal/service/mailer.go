package service

import (
	"context"

	"crypto_invest/internal/domain"
	"crypto_invest/internal/logger"
)

// Mailer delivers one-time codes to users.
type Mailer interface {
	SendOTP(ctx context.Context, to string, purpose domain.OTPPurpose, code string) error
}

// LogMailer is for development only: it records that a code was issued and
// prints the code itself at debug level. Production needs a real Mailer.
type LogMailer struct{}

func (LogMailer) SendOTP(ctx context.Context, to string, purpose domain.OTPPurpose, code string) error {
	log := logger.WithContext(ctx)
	log.Info("otp issued", "to", to, "purpose", purpose)
	log.Debug("otp code", "to", to, "purpose", purpose, "code", code)
	return nil
}
