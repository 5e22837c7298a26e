package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Transactions returns the caller's balance journal, newest first.
func (h *Handler) Transactions(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	txs, err := h.Balances.History(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": nonNil(txs)})
}

// Balance returns the caller's current balance.
func (h *Handler) Balance(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	balance, err := h.Balances.Balance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}
