package service

import (
	"context"

	"crypto_invest/internal/domain"

	"github.com/google/uuid"
)

// UserAdminStore is what admin user management needs from storage.
type UserAdminStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context, search string, limit, offset int) ([]domain.User, int, error)
	SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserService struct {
	users UserAdminStore
	audit Auditor
}

func NewUserService(users UserAdminStore, audit Auditor) *UserService {
	return &UserService{users: users, audit: orNopAuditor(audit)}
}

// IsAdmin re-reads the admin flag so revoked admins lose access before their token expires.
func (s *UserService) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.IsAdmin, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

type UserPage struct {
	Users []domain.User `json:"users"`
	Total int           `json:"total"`
}

func (s *UserService) List(ctx context.Context, search string, limit, offset int) (*UserPage, error) {
	limit, offset = page(limit, offset)
	users, total, err := s.users.List(ctx, search, limit, offset)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return &UserPage{Users: users, Total: total}, nil
}

func (s *UserService) SetAdmin(ctx context.Context, adminID, userID uuid.UUID, isAdmin bool) error {
	if adminID == userID && !isAdmin {
		return domain.NewValidationError("isAdmin", "admins cannot revoke their own access")
	}
	if err := s.users.SetAdmin(ctx, userID, isAdmin); err != nil {
		return err
	}
	s.audit.Log(ctx, &adminID, domain.AuditActionSetAdmin, domain.AuditCategoryAdmin, map[string]any{
		"target_user_id": userID.String(),
		"is_admin":       isAdmin,
	})
	return nil
}

func (s *UserService) Delete(ctx context.Context, adminID, userID uuid.UUID) error {
	if adminID == userID {
		return domain.NewValidationError("id", "admins cannot delete themselves")
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.audit.Log(ctx, &adminID, domain.AuditActionUserDelete, domain.AuditCategoryAdmin, map[string]any{
		"target_user_id": userID.String(),
	})
	return nil
}
