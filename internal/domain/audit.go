package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog represents an audit log entry for tracking important actions
type AuditLog struct {
	ID        int64          `json:"id"`
	UserID    *uuid.UUID     `json:"userId,omitempty"`
	Action    string         `json:"action"`
	Category  string         `json:"category"`
	Details   map[string]any `json:"details"`
	IP        string         `json:"ip,omitempty"`
	UserAgent string         `json:"userAgent,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// AuditFilter narrows an audit log listing. Before is an id cursor; results
// are returned newest first with ids strictly below it.
type AuditFilter struct {
	Category string
	UserID   *uuid.UUID
	Before   int64
	Limit    int
}

// Audit action categories
const (
	AuditCategoryAuth       = "auth"
	AuditCategoryInvestment = "investment"
	AuditCategoryPayment    = "payment"
	AuditCategoryBalance    = "balance"
	AuditCategoryAdmin      = "admin"
	AuditCategoryWithdrawal = "withdrawal"
)

// Audit actions
const (
	AuditActionRegister    = "register"
	AuditActionLogin       = "login"
	AuditActionGoogleLogin = "google_login"

	AuditActionInvestmentCreate  = "investment_create"
	AuditActionInvestmentEdit    = "investment_edit"
	AuditActionInvestmentDelete  = "investment_delete"
	AuditActionInvestmentApprove = "investment_approve"
	AuditActionInvestmentReject  = "investment_reject"
	AuditActionInvestmentRate    = "investment_rate"

	AuditActionDepositCreate  = "deposit_create"
	AuditActionDepositApprove = "deposit_approve"
	AuditActionDepositReject  = "deposit_reject"

	AuditActionWithdrawRequest = "withdraw_request"
	AuditActionWithdrawApprove = "withdraw_approve"
	AuditActionWithdrawReject  = "withdraw_reject"
	AuditActionWithdrawCancel  = "withdraw_cancel"

	AuditActionBalanceAdjust  = "balance_adjust"
	AuditActionSettingsUpdate = "settings_update"
	AuditActionUserDelete     = "user_delete"
	AuditActionSetAdmin       = "set_admin"
)
