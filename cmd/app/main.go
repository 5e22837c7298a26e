package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"crypto_invest/internal/accrual"
	"crypto_invest/internal/config"
	"crypto_invest/internal/db"
	httpServer "crypto_invest/internal/http"
	"crypto_invest/internal/http/handlers"
	"crypto_invest/internal/http/middleware"
	"crypto_invest/internal/logger"
	"crypto_invest/internal/oauth"
	"crypto_invest/internal/repository"
	"crypto_invest/internal/service"
	"crypto_invest/internal/storage"
	"crypto_invest/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	rdb := db.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb != nil {
		defer rdb.Close()
	}
	middleware.UseRedis(rdb)

	proofs := newProofStore(ctx, cfg)

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	investmentRepo := repository.NewInvestmentRepository(dbPool)
	depositRepo := repository.NewDepositRepository(dbPool)
	withdrawalRepo := repository.NewWithdrawalRepository(dbPool)
	referralRepo := repository.NewReferralRepository(dbPool)
	contactRepo := repository.NewContactRepository(dbPool)
	settingsRepo := repository.NewSettingsRepository(dbPool)
	txRepo := repository.NewTransactionRepository(dbPool)
	auditRepo := repository.NewAuditRepository(dbPool)

	// Services
	hub := ws.NewHub()
	tokens := service.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	audit := service.NewAuditService(auditRepo)
	settings := service.NewSettingsService(settingsRepo, rdb, audit)

	var scheduler *accrual.Scheduler
	if cfg.AccrualEnabled {
		opts := accrual.Options{Tick: cfg.AccrualTick, Workers: cfg.AccrualWorkers}
		if rdb != nil {
			opts.Leader = accrual.NewRedisLeader(rdb, 0)
		}
		scheduler = accrual.NewScheduler(investmentRepo, settings, opts)
	}

	h := &handlers.Handler{
		Auth:        service.NewAuthService(userRepo, tokens, service.LogMailer{}, audit),
		Investments: service.NewInvestmentService(investmentRepo, settings, hub, audit),
		Deposits:    service.NewDepositService(depositRepo, proofs, settings, hub, audit),
		Withdrawals: service.NewWithdrawalService(withdrawalRepo, userRepo, settings, hub, audit),
		Referrals:   service.NewReferralService(userRepo, referralRepo, settings, cfg.FrontendURL),
		Contacts:    service.NewContactService(contactRepo, hub),
		Users:       service.NewUserService(userRepo, audit),
		Balances:    service.NewBalanceService(userRepo, txRepo, audit),
		Settings:    settings,
		Audit:       audit,
		Admin:       service.NewAdminService(dbPool),
		Accrual:     scheduler,

		FrontendURL:  cfg.FrontendURL,
		SecureCookie: strings.HasPrefix(cfg.GoogleRedirectURL, "https://"),
	}
	if cfg.GoogleEnabled() {
		h.Google = oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	}

	if gin.Mode() == gin.ReleaseMode || cfg.LogJSON {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (cfg.AllowedOrigin == "" || origin == cfg.AllowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var accrualStatus handlers.AccrualStatus
	if scheduler != nil {
		accrualStatus = scheduler
	}
	health := handlers.NewHealthHandler(dbPool, rdb, accrualStatus, version)
	httpServer.RegisterRoutes(r, h, health, tokens, hub, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if scheduler != nil {
		go scheduler.Run(ctx)
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

// newProofStore uses S3 when a bucket is configured, the local disk otherwise.
func newProofStore(ctx context.Context, cfg *config.Config) storage.ProofStore {
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey)
		if err != nil {
			logger.Fatal("s3 storage init failed", "bucket", cfg.S3Bucket, "error", err)
		}
		logger.Info("deposit proofs stored in s3", "bucket", cfg.S3Bucket)
		return s3Store
	}
	local, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal("upload dir init failed", "dir", cfg.UploadDir, "error", err)
	}
	logger.Info("deposit proofs stored on disk", "dir", cfg.UploadDir)
	return local
}
