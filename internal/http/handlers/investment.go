package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type createInvestmentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Plan   string          `json:"plan"`
}

func (h *Handler) CreateInvestment(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req createInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "amount is required")
		return
	}
	inv, err := h.Investments.Create(c.Request.Context(), userID, req.Amount, req.Plan)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"investment": inv})
}

type editInvestmentRequest struct {
	InvestmentID uuid.UUID       `json:"investmentId" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
}

func (h *Handler) EditInvestment(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req editInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "investmentId and amount are required")
		return
	}
	inv, err := h.Investments.Edit(c.Request.Context(), userID, req.InvestmentID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"investment": inv})
}

func (h *Handler) DeleteInvestment(c *gin.Context) {
	h.deleteInvestment(c, false)
}

// AdminDeleteInvestment deletes any investment, refunding approved principal.
func (h *Handler) AdminDeleteInvestment(c *gin.Context) {
	h.deleteInvestment(c, true)
}

func (h *Handler) deleteInvestment(c *gin.Context, asAdmin bool) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	refunded, err := h.Investments.Delete(c.Request.Context(), userID, asAdmin, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "investment deleted", "refunded": refunded})
}

func (h *Handler) ListInvestments(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	list, err := h.Investments.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"investments": nonNil(list)})
}

func (h *Handler) GetInvestment(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	inv, err := h.Investments.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"investment": inv})
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
