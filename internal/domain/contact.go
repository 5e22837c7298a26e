package domain

import (
	"time"

	"github.com/google/uuid"
)

type ContactStatus string

const (
	ContactUnread  ContactStatus = "unread"
	ContactRead    ContactStatus = "read"
	ContactReplied ContactStatus = "replied"
)

// Contact is a message sent to the platform, optionally by a signed-in user.
type Contact struct {
	ID        uuid.UUID     `json:"id"`
	UserID    *uuid.UUID    `json:"userId,omitempty"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Subject   string        `json:"subject"`
	Message   string        `json:"message"`
	Reply     *string       `json:"reply,omitempty"`
	Status    ContactStatus `json:"status"`
	IsRead    bool          `json:"isRead"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

const MaxContactMessageLen = 5000
