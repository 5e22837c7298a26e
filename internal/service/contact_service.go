package service

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"crypto_invest/internal/domain"

	"github.com/google/uuid"
)

type ContactStore interface {
	Create(ctx context.Context, c *domain.Contact) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Contact, error)
	List(ctx context.Context, status domain.ContactStatus, limit, offset int) ([]domain.Contact, error)
	MarkRead(ctx context.Context, id uuid.UUID) (*domain.Contact, error)
	Reply(ctx context.Context, id uuid.UUID, reply string) (*domain.Contact, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ContactService struct {
	store    ContactStore
	notifier Notifier
}

func NewContactService(store ContactStore, notifier Notifier) *ContactService {
	return &ContactService{store: store, notifier: orNopNotifier(notifier)}
}

// ContactInput is a new inbox message.
type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Create stores a message; userID is nil for anonymous senders.
func (s *ContactService) Create(ctx context.Context, userID *uuid.UUID, in ContactInput) (*domain.Contact, error) {
	c := &domain.Contact{
		UserID:  userID,
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
	}
	switch {
	case c.Name == "":
		return nil, domain.NewValidationError("name", "is required")
	case c.Email == "":
		return nil, domain.NewValidationError("email", "is required")
	case c.Subject == "":
		return nil, domain.NewValidationError("subject", "is required")
	case c.Message == "":
		return nil, domain.NewValidationError("message", "is required")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return nil, domain.NewValidationError("email", "is not a valid address")
	}
	if utf8.RuneCountInString(c.Message) > domain.MaxContactMessageLen {
		return nil, domain.NewValidationError("message", "must be at most %d characters", domain.MaxContactMessageLen)
	}

	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContactService) ListMine(ctx context.Context, userID uuid.UUID) ([]domain.Contact, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *ContactService) ListAll(ctx context.Context, status string, limit, offset int) ([]domain.Contact, error) {
	limit, offset = page(limit, offset)
	return s.store.List(ctx, domain.ContactStatus(status), limit, offset)
}

func (s *ContactService) MarkRead(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	return s.store.MarkRead(ctx, id)
}

// Reply answers a message and notifies the sender when they have an account.
func (s *ContactService) Reply(ctx context.Context, id uuid.UUID, reply string) (*domain.Contact, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, domain.NewValidationError("reply", "is required")
	}
	c, err := s.store.Reply(ctx, id, reply)
	if err != nil {
		return nil, err
	}
	if c.UserID != nil {
		s.notifier.Notify(*c.UserID, EventContactReplied, c)
	}
	return c, nil
}

func (s *ContactService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}
