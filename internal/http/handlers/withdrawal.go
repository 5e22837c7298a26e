package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type withdrawalRequest struct {
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	WithdrawalMethod string          `json:"withdrawalMethod" binding:"required"`
	WalletAddress    string          `json:"walletAddress" binding:"required"`
}

func (h *Handler) RequestWithdrawal(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "amount, withdrawalMethod and walletAddress are required")
		return
	}
	w, err := h.Withdrawals.Request(c.Request.Context(), userID, req.Amount, req.WithdrawalMethod, req.WalletAddress)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"withdrawal": w, "total": w.Total()})
}

func (h *Handler) EstimateWithdrawal(c *gin.Context) {
	var req struct {
		Amount decimal.Decimal `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "amount is required")
		return
	}
	est, err := h.Withdrawals.Estimate(c.Request.Context(), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, est)
}

func (h *Handler) CancelWithdrawal(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	w, err := h.Withdrawals.Cancel(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawal": w})
}

func (h *Handler) ListWithdrawals(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	list, err := h.Withdrawals.ListMine(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": nonNil(list)})
}
