package service

import (
	"context"
	"strings"
	"testing"

	"crypto_invest/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memContacts struct {
	rows map[uuid.UUID]*domain.Contact
}

func (m *memContacts) Create(_ context.Context, c *domain.Contact) error {
	c.ID = uuid.New()
	c.Status = domain.ContactUnread
	m.rows[c.ID] = c
	return nil
}

func (m *memContacts) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Contact, error) {
	var out []domain.Contact
	for _, c := range m.rows {
		if c.UserID != nil && *c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memContacts) List(context.Context, domain.ContactStatus, int, int) ([]domain.Contact, error) {
	return nil, nil
}

func (m *memContacts) MarkRead(_ context.Context, id uuid.UUID) (*domain.Contact, error) {
	c, ok := m.rows[id]
	if !ok {
		return nil, domain.NotFound("contact")
	}
	c.IsRead = true
	c.Status = domain.ContactRead
	return c, nil
}

func (m *memContacts) Reply(_ context.Context, id uuid.UUID, reply string) (*domain.Contact, error) {
	c, ok := m.rows[id]
	if !ok {
		return nil, domain.NotFound("contact")
	}
	c.Reply = &reply
	c.Status = domain.ContactReplied
	return c, nil
}

func (m *memContacts) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.rows, id)
	return nil
}

func validContact() ContactInput {
	return ContactInput{Name: "Ann", Email: " Ann@Example.com ", Subject: "Hi", Message: "Where is my deposit?"}
}

func TestContactService_Create(t *testing.T) {
	svc := NewContactService(&memContacts{rows: map[uuid.UUID]*domain.Contact{}}, nil)

	c, err := svc.Create(context.Background(), nil, validContact())
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", c.Email)
	assert.Nil(t, c.UserID)
	assert.Equal(t, domain.ContactUnread, c.Status)
}

func TestContactService_CreateValidation(t *testing.T) {
	svc := NewContactService(&memContacts{rows: map[uuid.UUID]*domain.Contact{}}, nil)

	cases := map[string]func(*ContactInput){
		"name":    func(in *ContactInput) { in.Name = " " },
		"email":   func(in *ContactInput) { in.Email = "not-an-email" },
		"subject": func(in *ContactInput) { in.Subject = "" },
		"message": func(in *ContactInput) { in.Message = strings.Repeat("x", domain.MaxContactMessageLen+1) },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := validContact()
			mutate(&in)
			_, err := svc.Create(context.Background(), nil, in)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, field, verr.Field)
		})
	}
}

func TestContactService_ReplyNotifiesAccountHolder(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	svc := NewContactService(&memContacts{rows: map[uuid.UUID]*domain.Contact{}}, notifier)

	userID := uuid.New()
	mine, err := svc.Create(ctx, &userID, validContact())
	require.NoError(t, err)
	anon, err := svc.Create(ctx, nil, validContact())
	require.NoError(t, err)

	_, err = svc.Reply(ctx, mine.ID, "  ")
	assert.True(t, domain.IsValidation(err))

	replied, err := svc.Reply(ctx, mine.ID, "On its way")
	require.NoError(t, err)
	assert.Equal(t, domain.ContactReplied, replied.Status)
	require.NotNil(t, replied.Reply)
	assert.Equal(t, "On its way", *replied.Reply)

	_, err = svc.Reply(ctx, anon.ID, "Thanks")
	require.NoError(t, err)

	assert.Equal(t, []sentEvent{{userID, EventContactReplied}}, notifier.events)
}

func TestUntilNextBonus(t *testing.T) {
	s := domain.DefaultSettings()
	s.ReferralsRequired = 3
	assert.Equal(t, 3, untilNextBonus(0, s))
	assert.Equal(t, 1, untilNextBonus(2, s))
	assert.Equal(t, 3, untilNextBonus(3, s))
	s.ReferralsRequired = 0
	assert.Equal(t, 0, untilNextBonus(5, s))
}
