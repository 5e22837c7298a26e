package service

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// AdminService provides admin statistics
type AdminService struct {
	db *pgxpool.Pool
}

// NewAdminService creates a new admin service
func NewAdminService(db *pgxpool.Pool) *AdminService {
	return &AdminService{db: db}
}

// Stats represents platform statistics
type Stats struct {
	TotalUsers          int64           `json:"totalUsers"`
	TotalBalance        decimal.Decimal `json:"totalBalance"`
	PendingInvestments  int64           `json:"pendingInvestments"`
	ApprovedInvestments int64           `json:"approvedInvestments"`
	RejectedInvestments int64           `json:"rejectedInvestments"`
	ActivePrincipal     decimal.Decimal `json:"activePrincipal"` // sum of approved amounts
	TotalProfit         decimal.Decimal `json:"totalProfit"`     // accrued on approved investments
	PendingDeposits     int64           `json:"pendingDeposits"`
	ApprovedDeposits    decimal.Decimal `json:"approvedDeposits"` // sum
	PendingWithdrawals  int64           `json:"pendingWithdrawals"`
	ApprovedWithdrawals decimal.Decimal `json:"approvedWithdrawals"` // sum incl. fees
	UnreadContacts      int64           `json:"unreadContacts"`
}

// GetStats returns platform statistics
func (s *AdminService) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	if err := s.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(balance), 0) FROM users
	`).Scan(&stats.TotalUsers, &stats.TotalBalance); err != nil {
		return nil, err
	}

	if err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'approved'),
		       COUNT(*) FILTER (WHERE status = 'rejected'),
		       COALESCE(SUM(amount) FILTER (WHERE status = 'approved'), 0),
		       COALESCE(SUM(total_profit) FILTER (WHERE status = 'approved'), 0)
		FROM investments
	`).Scan(&stats.PendingInvestments, &stats.ApprovedInvestments, &stats.RejectedInvestments,
		&stats.ActivePrincipal, &stats.TotalProfit); err != nil {
		return nil, err
	}

	// Deposits
	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = 'pending'),
		       COALESCE(SUM(amount) FILTER (WHERE status = 'approved'), 0)
		FROM deposits
	`).Scan(&stats.PendingDeposits, &stats.ApprovedDeposits)

	// Withdrawals
	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = 'pending'),
		       COALESCE(SUM(amount + fee) FILTER (WHERE status = 'approved'), 0)
		FROM withdrawals
	`).Scan(&stats.PendingWithdrawals, &stats.ApprovedWithdrawals)

	_ = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM contacts WHERE status = 'unread'`).Scan(&stats.UnreadContacts)

	return stats, nil
}
