package middleware

import (
	"context"
	"net/http"
	"strings"

	"crypto_invest/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CtxUserID  = "user_id"
	CtxIsAdmin = "is_admin"
)

// TokenParser validates bearer tokens.
type TokenParser interface {
	Parse(token string) (*service.Claims, error)
}

// AdminChecker re-reads the admin flag from storage.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// JWT rejects requests without a valid bearer token and stores the caller's id.
func JWT(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := tokens.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxIsAdmin, claims.IsAdmin)
		c.Next()
	}
}

// OptionalJWT attaches the caller when a valid token is present and lets
// anonymous requests through.
func OptionalJWT(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearer(c); token != "" {
			if claims, err := tokens.Parse(token); err == nil {
				c.Set(CtxUserID, claims.UserID)
				c.Set(CtxIsAdmin, claims.IsAdmin)
			}
		}
		c.Next()
	}
}

// RequireAdmin must run after JWT. The token's admin claim is not trusted on
// its own; the flag is checked against the database.
func RequireAdmin(checker AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		isAdmin, err := checker.IsAdmin(c.Request.Context(), userID)
		if err != nil || !isAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Set(CtxIsAdmin, true)
		c.Next()
	}
}

// UserID returns the caller id set by JWT or OptionalJWT.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func IsAdmin(c *gin.Context) bool {
	return c.GetBool(CtxIsAdmin)
}
