package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetReferralCode returns the caller's referral code
func (h *Handler) GetReferralCode(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	code, err := h.Referrals.Code(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referralCode": code})
}

// GetReferralLink returns the registration link carrying the caller's code
func (h *Handler) GetReferralLink(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	link, err := h.Referrals.Link(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referralLink": link})
}

// GetReferralStats returns counts, earnings and the list of referred users
func (h *Handler) GetReferralStats(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	stats, err := h.Referrals.Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
