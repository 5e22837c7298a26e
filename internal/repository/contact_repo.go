package repository

import (
	"context"

	"crypto_invest/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ContactRepository struct {
	db *pgxpool.Pool
}

func NewContactRepository(db *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{db: db}
}

const contactColumns = `id, user_id, name, email, subject, message, reply, status, is_read, created_at, updated_at`

func (r *ContactRepository) Create(ctx context.Context, c *domain.Contact) error {
	return wrapErr(r.db.QueryRow(ctx,
		`INSERT INTO contacts (user_id, name, email, subject, message, status)
		 VALUES ($1, $2, $3, $4, $5, 'unread')
		 RETURNING id, status, is_read, created_at, updated_at`,
		c.UserID, c.Name, c.Email, c.Subject, c.Message,
	).Scan(&c.ID, &c.Status, &c.IsRead, &c.CreatedAt, &c.UpdatedAt))
}

func (r *ContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	c, err := scanContact(r.db.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id))
	if err != nil {
		if noRows(err) {
			return nil, domain.NotFound("contact")
		}
		return nil, wrapErr(err)
	}
	return c, nil
}

func (r *ContactRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Contact, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()
	return scanContacts(rows)
}

// List returns inbox messages; empty status means all.
func (r *ContactRepository) List(ctx context.Context, status domain.ContactStatus, limit, offset int) ([]domain.Contact, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()
	return scanContacts(rows)
}

// MarkRead flags a message read. A replied message keeps its status.
func (r *ContactRepository) MarkRead(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	return r.updateOne(ctx,
		`UPDATE contacts
		 SET is_read = TRUE,
		     status = CASE WHEN status = 'unread' THEN 'read' ELSE status END,
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+contactColumns, id)
}

func (r *ContactRepository) Reply(ctx context.Context, id uuid.UUID, reply string) (*domain.Contact, error) {
	return r.updateOne(ctx,
		`UPDATE contacts
		 SET reply = $2, status = 'replied', is_read = TRUE, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+contactColumns, id, reply)
}

func (r *ContactRepository) updateOne(ctx context.Context, query string, args ...any) (*domain.Contact, error) {
	c, err := scanContact(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if noRows(err) {
			return nil, domain.NotFound("contact")
		}
		return nil, wrapErr(err)
	}
	return c, nil
}

func (r *ContactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("contact")
	}
	return nil
}

func scanContact(row pgx.Row) (*domain.Contact, error) {
	var c domain.Contact
	if err := row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.Email, &c.Subject, &c.Message, &c.Reply,
		&c.Status, &c.IsRead, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanContacts(rows pgx.Rows) ([]domain.Contact, error) {
	var contacts []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, wrapErr(err)
		}
		contacts = append(contacts, *c)
	}
	return contacts, wrapErr(rows.Err())
}
