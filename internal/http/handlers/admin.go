package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"crypto_invest/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type decisionRequest struct {
	InvestmentID uuid.UUID `json:"investmentId"`
	DepositID    uuid.UUID `json:"depositId"`
	WithdrawalID uuid.UUID `json:"withdrawalId"`
	Status       string    `json:"status" binding:"required"`
}

func bindDecision(c *gin.Context, id func(decisionRequest) uuid.UUID, field string) (uuid.UUID, string, bool) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil || id(req) == uuid.Nil {
		badRequest(c, field+" and status are required")
		return uuid.Nil, "", false
	}
	return id(req), req.Status, true
}

func (h *Handler) AdminHandleInvestment(c *gin.Context) {
	adminID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, status, ok := bindDecision(c, func(r decisionRequest) uuid.UUID { return r.InvestmentID }, "investmentId")
	if !ok {
		return
	}
	inv, err := h.Investments.HandleDecision(c.Request.Context(), adminID, id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"investment": inv})
}

func (h *Handler) AdminListInvestments(c *gin.Context) {
	limit, offset := pageQuery(c)
	list, err := h.Investments.ListAll(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"investments": nonNil(list)})
}

// AdminSetInvestmentRate sets a per-investment rate; a null rate restores the
// platform-wide profit percentage.
func (h *Handler) AdminSetInvestmentRate(c *gin.Context) {
	adminID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Rate *decimal.Decimal `json:"dailyProfitRate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid rate")
		return
	}
	inv, err := h.Investments.SetRate(c.Request.Context(), adminID, id, req.Rate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"investment": inv})
}

func (h *Handler) AdminHandleDeposit(c *gin.Context) {
	adminID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, status, ok := bindDecision(c, func(r decisionRequest) uuid.UUID { return r.DepositID }, "depositId")
	if !ok {
		return
	}
	d, err := h.Deposits.HandleDecision(c.Request.Context(), adminID, id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposit": d})
}

func (h *Handler) AdminListDeposits(c *gin.Context) {
	limit, offset := pageQuery(c)
	list, err := h.Deposits.ListAll(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposits": nonNil(list)})
}

func (h *Handler) AdminHandleWithdrawal(c *gin.Context) {
	adminID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, status, ok := bindDecision(c, func(r decisionRequest) uuid.UUID { return r.WithdrawalID }, "withdrawalId")
	if !ok {
		return
	}
	w, err := h.Withdrawals.HandleDecision(c.Request.Context(), adminID, id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawal": w})
}

func (h *Handler) AdminListWithdrawals(c *gin.Context) {
	limit, offset := pageQuery(c)
	list, err := h.Withdrawals.ListAll(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": nonNil(list)})
}

func (h *Handler) AdminListUsers(c *gin.Context) {
	limit, offset := pageQuery(c)
	page, err := h.Users.List(c.Request.Context(), c.Query("search"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": nonNil(page.Users), "total": page.Total})
}

func (h *Handler) AdminGetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	user, err := h.Users.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	investments, err := h.Investments.List(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "investments": nonNil(investments)})
}

func (h *Handler) AdminAdjustBalance(c *gin.Context) {
	adminID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Amount decimal.Decimal `json:"amount" binding:"required"`
		Reason string          `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "amount is required")
		return
	}
	balance, err := h.Balances.Adjust(c.Request.Context(), adminID, id, req.Amount, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *Handler) AdminSetAdmin(c *gin.Context) {
	adminID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		IsAdmin *bool `json:"isAdmin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "isAdmin is required")
		return
	}
	if err := h.Users.SetAdmin(c.Request.Context(), adminID, id, *req.IsAdmin); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isAdmin": *req.IsAdmin})
}

func (h *Handler) AdminDeleteUser(c *gin.Context) {
	adminID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Users.Delete(c.Request.Context(), adminID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

func (h *Handler) AdminListContacts(c *gin.Context) {
	limit, offset := pageQuery(c)
	list, err := h.Contacts.ListAll(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": nonNil(list)})
}

func (h *Handler) AdminMarkContactRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	msg, err := h.Contacts.MarkRead(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contact": msg})
}

func (h *Handler) AdminReplyContact(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reply string `json:"reply" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "reply is required")
		return
	}
	msg, err := h.Contacts.Reply(c.Request.Context(), id, req.Reply)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contact": msg})
}

func (h *Handler) AdminDeleteContact(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Contacts.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "contact deleted"})
}

func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.Admin.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// AdminAuditLog lists audit entries. Pass the last id seen as ?before= for the next page.
func (h *Handler) AdminAuditLog(c *gin.Context) {
	f := domain.AuditFilter{Category: c.Query("category")}
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	f.Before, _ = strconv.ParseInt(c.Query("before"), 10, 64)
	if raw := c.Query("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "invalid userId")
			return
		}
		f.UserID = &id
	}

	logs, err := h.Audit.Recent(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"logs": nonNil(logs)}
	if len(logs) > 0 {
		resp["nextBefore"] = logs[len(logs)-1].ID
	}
	c.JSON(http.StatusOK, resp)
}

const manualAccrualTimeout = 2 * time.Minute

// AdminRunAccrual triggers one accrual pass outside the scheduler cadence.
func (h *Handler) AdminRunAccrual(c *gin.Context) {
	if h.Accrual == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "accrual is disabled"})
		return
	}
	// the pass writes balances; a dropped connection must not cut it short
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), manualAccrualTimeout)
	defer cancel()
	res, err := h.Accrual.RunNow(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
