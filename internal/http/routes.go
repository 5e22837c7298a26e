package http

import (
	"time"

	"crypto_invest/internal/config"
	"crypto_invest/internal/http/handlers"
	"crypto_invest/internal/http/middleware"
	"crypto_invest/internal/ws"

	"github.com/gin-gonic/gin"
)

// moneyRateLimit caps money-moving requests per user.
const (
	moneyRateLimit  = 20
	moneyRateWindow = time.Minute
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, health *handlers.HealthHandler, tokens middleware.TokenParser, hub *ws.Hub, cfg *config.Config) {
	// Health checks (no rate limiting)
	r.GET("/health", health.Health)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)

	// WebSocket authenticates with ?token= since browsers cannot set headers.
	r.GET("/ws", ws.HandleWS(hub, tokens, cfg.AllowedOrigin))

	api := r.Group("/api")
	api.Use(middleware.RateLimit("api", cfg.APIRateLimit, cfg.APIRateWindow))

	api.GET("/settings", h.PublicSettings)
	api.POST("/contact", middleware.OptionalJWT(tokens), h.CreateContact)

	auth := api.Group("/auth")
	{
		public := auth.Group("")
		public.Use(middleware.RateLimit("auth", cfg.AuthRateLimit, cfg.AuthRateWindow))
		public.POST("/register", h.Register)
		public.POST("/login", h.Login)
		public.GET("/google", h.GoogleLogin)
		public.GET("/google/callback", h.GoogleCallback)
		public.POST("/send-reset-otp", h.SendResetOTP)
		public.POST("/reset-password", h.ResetPassword)

		private := auth.Group("")
		private.Use(middleware.JWT(tokens))
		private.GET("/me", h.Me)
		private.PUT("/profile", h.UpdateProfile)
		private.POST("/send-verify-otp", middleware.RateLimit("otp", cfg.AuthRateLimit, cfg.AuthRateWindow), h.SendVerifyOTP)
		private.POST("/verify-account", h.VerifyAccount)
	}

	user := api.Group("")
	user.Use(middleware.JWT(tokens))
	money := middleware.RateLimit("money", moneyRateLimit, moneyRateWindow)
	{
		user.POST("/investments/create", money, h.CreateInvestment)
		user.PUT("/investments/edit", h.EditInvestment)
		user.DELETE("/investments/:id", money, h.DeleteInvestment)
		user.GET("/investments", h.ListInvestments)
		user.GET("/investments/:id", h.GetInvestment)

		user.POST("/deposits", money, h.CreateDeposit)
		user.PUT("/deposits/:id", h.UpdateDeposit)
		user.DELETE("/deposits/:id", h.DeleteDeposit)
		user.GET("/deposits", h.ListDeposits)

		user.POST("/withdrawals", money, h.RequestWithdrawal)
		user.POST("/withdrawals/estimate", h.EstimateWithdrawal)
		user.POST("/withdrawals/:id/cancel", h.CancelWithdrawal)
		user.GET("/withdrawals", h.ListWithdrawals)

		user.GET("/referral/code", h.GetReferralCode)
		user.GET("/referral/link", h.GetReferralLink)
		user.GET("/referral/stats", h.GetReferralStats)

		user.GET("/contact/mine", h.MyContacts)
		user.GET("/balance", h.Balance)
		user.GET("/transactions", h.Transactions)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.JWT(tokens), middleware.RequireAdmin(h.Users))
	{
		admin.POST("/handle-investment", h.AdminHandleInvestment)
		admin.GET("/investments", h.AdminListInvestments)
		admin.PUT("/investments/:id/rate", h.AdminSetInvestmentRate)
		admin.DELETE("/investments/:id", h.AdminDeleteInvestment)

		admin.POST("/handle-deposit", h.AdminHandleDeposit)
		admin.GET("/deposits", h.AdminListDeposits)
		admin.GET("/deposits/:id/proof", h.DepositProof)

		admin.POST("/handle-withdrawal", h.AdminHandleWithdrawal)
		admin.GET("/withdrawals", h.AdminListWithdrawals)

		admin.GET("/settings", h.AdminGetSettings)
		admin.PUT("/settings", h.AdminUpdateSettings)

		admin.GET("/users", h.AdminListUsers)
		admin.GET("/users/:id", h.AdminGetUser)
		admin.POST("/users/:id/balance", h.AdminAdjustBalance)
		admin.POST("/users/:id/admin", h.AdminSetAdmin)
		admin.DELETE("/users/:id", h.AdminDeleteUser)

		admin.GET("/contacts", h.AdminListContacts)
		admin.POST("/contacts/:id/read", h.AdminMarkContactRead)
		admin.POST("/contacts/:id/reply", h.AdminReplyContact)
		admin.DELETE("/contacts/:id", h.AdminDeleteContact)

		admin.GET("/stats", h.AdminStats)
		admin.GET("/audit", h.AdminAuditLog)
		admin.POST("/accrual/run", h.AdminRunAccrual)
	}
}
