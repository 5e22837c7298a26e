package service

import (
	"context"

	"crypto_invest/internal/domain"
	"crypto_invest/internal/logger"

	"github.com/google/uuid"
)

// AuditStore persists audit entries.
type AuditStore interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	List(ctx context.Context, f domain.AuditFilter) ([]*domain.AuditLog, error)
}

// AuditService records who did what. Writes never fail the caller.
type AuditService struct {
	repo AuditStore
}

func NewAuditService(repo AuditStore) *AuditService {
	return &AuditService{repo: repo}
}

type requestInfoKey struct{}

// RequestInfo is the client address attached to audit entries.
type RequestInfo struct {
	IP        string
	UserAgent string
}

// WithRequestInfo stores client info on ctx for later audit entries.
func WithRequestInfo(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, RequestInfo{IP: ip, UserAgent: userAgent})
}

// Log creates a new audit log entry
func (s *AuditService) Log(ctx context.Context, userID *uuid.UUID, action, category string, details map[string]any) {
	entry := &domain.AuditLog{
		UserID:   userID,
		Action:   action,
		Category: category,
		Details:  details,
	}
	if info, ok := ctx.Value(requestInfoKey{}).(RequestInfo); ok {
		entry.IP = info.IP
		entry.UserAgent = info.UserAgent
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		logger.WithContext(ctx).Error("failed to create audit log", "error", err, "action", action)
	}
}

// Recent pages through the audit trail, newest first.
func (s *AuditService) Recent(ctx context.Context, f domain.AuditFilter) ([]*domain.AuditLog, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	if f.Before < 0 {
		f.Before = 0
	}
	return s.repo.List(ctx, f)
}
