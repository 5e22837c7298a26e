package repository

import (
	"context"
	"encoding/json"

	"crypto_invest/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository stores the append-only audit trail.
type AuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	details, err := json.Marshal(entry.Details)
	if err != nil || entry.Details == nil {
		details = []byte("{}")
	}
	return wrapErr(r.db.QueryRow(ctx,
		`INSERT INTO audit_logs (user_id, action, category, details, ip, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		entry.UserID, entry.Action, entry.Category, details, entry.IP, entry.UserAgent,
	).Scan(&entry.ID, &entry.CreatedAt))
}

// List pages through the trail newest first using an id cursor.
func (r *AuditRepository) List(ctx context.Context, f domain.AuditFilter) ([]*domain.AuditLog, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, action, category, details, ip, user_agent, created_at
		 FROM audit_logs
		 WHERE ($1 = '' OR category = $1)
		   AND ($2::uuid IS NULL OR user_id = $2)
		   AND ($3::bigint = 0 OR id < $3)
		 ORDER BY id DESC
		 LIMIT $4`,
		f.Category, f.UserID, f.Before, f.Limit)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var entries []*domain.AuditLog
	for rows.Next() {
		var (
			e       domain.AuditLog
			details []byte
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Category, &details, &e.IP, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, wrapErr(err)
		}
		e.Details = map[string]any{}
		_ = json.Unmarshal(details, &e.Details)
		entries = append(entries, &e)
	}
	return entries, wrapErr(rows.Err())
}
