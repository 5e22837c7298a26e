package handlers

import (
	"net/http"

	"crypto_invest/internal/domain"

	"github.com/gin-gonic/gin"
)

// PublicSettings exposes the limits and deposit addresses clients need.
func (h *Handler) PublicSettings(c *gin.Context) {
	s, err := h.Settings.Public(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": s})
}

func (h *Handler) AdminGetSettings(c *gin.Context) {
	s, err := h.Settings.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": s})
}

func (h *Handler) AdminUpdateSettings(c *gin.Context) {
	adminID, ok := mustUserID(c)
	if !ok {
		return
	}
	var patch domain.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid settings payload")
		return
	}
	s, err := h.Settings.Update(c.Request.Context(), adminID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": s})
}
