package handlers

import (
	"net/http"
	"strconv"

	"crypto_invest/internal/accrual"
	"crypto_invest/internal/http/middleware"
	"crypto_invest/internal/oauth"
	"crypto_invest/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	Auth        *service.AuthService
	Google      *oauth.Google // nil when Google sign-in is not configured
	Investments *service.InvestmentService
	Deposits    *service.DepositService
	Withdrawals *service.WithdrawalService
	Referrals   *service.ReferralService
	Contacts    *service.ContactService
	Users       *service.UserService
	Balances    *service.BalanceService
	Settings    *service.SettingsService
	Audit       *service.AuditService
	Admin       *service.AdminService
	Accrual     *accrual.Scheduler

	FrontendURL  string
	SecureCookie bool
}

// getUserID extracts the caller id set by the JWT middleware.
func getUserID(c *gin.Context) (uuid.UUID, bool) {
	return middleware.UserID(c)
}

// mustUserID writes 401 and returns false when no caller is attached.
func mustUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return userID, ok
}

func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// pageQuery reads ?limit=&offset=; bounds are applied by the services.
func pageQuery(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	offset, _ = strconv.Atoi(c.Query("offset"))
	return limit, offset
}
