package handlers

import (
	"net/http"

	"crypto_invest/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateContact accepts messages from guests and signed-in users alike.
func (h *Handler) CreateContact(c *gin.Context) {
	var req service.ContactInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	var sender *uuid.UUID
	if userID, ok := getUserID(c); ok {
		sender = &userID
	}
	msg, err := h.Contacts.Create(c.Request.Context(), sender, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"contact": msg})
}

func (h *Handler) MyContacts(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	list, err := h.Contacts.ListMine(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": nonNil(list)})
}
