package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// AccrualStatus is satisfied by *accrual.Scheduler.
type AccrualStatus interface {
	LastPass() time.Time
}

type probe struct {
	name     string
	required bool
	check    func(ctx context.Context) error
}

// HealthHandler serves the probe endpoints. Only the database is required;
// Redis and the accrual loop are reported but never fail readiness.
type HealthHandler struct {
	db      *pgxpool.Pool
	accrual AccrualStatus
	probes  []probe
	started time.Time
	version string
}

// NewHealthHandler builds the probe set; rdb and accrual may be nil.
func NewHealthHandler(db *pgxpool.Pool, rdb *redis.Client, accrual AccrualStatus, version string) *HealthHandler {
	h := &HealthHandler{db: db, accrual: accrual, started: time.Now(), version: version}
	h.probes = append(h.probes, probe{name: "database", required: true, check: db.Ping})
	if rdb != nil {
		h.probes = append(h.probes, probe{name: "redis", check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	return h
}

type readiness struct {
	Status          string            `json:"status"`
	Version         string            `json:"version"`
	Uptime          string            `json:"uptime"`
	Checks          map[string]string `json:"checks"`
	AccrualLastPass *time.Time        `json:"accrualLastPass,omitempty"`
}

// Liveness never touches dependencies.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	res := readiness{
		Status:  "ready",
		Version: h.version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Checks:  make(map[string]string, len(h.probes)),
	}
	code := http.StatusOK
	for _, p := range h.probes {
		err := p.check(ctx)
		switch {
		case err == nil:
			res.Checks[p.name] = "ok"
		case p.required:
			res.Checks[p.name] = "down: " + err.Error()
			res.Status = "not ready"
			code = http.StatusServiceUnavailable
		default:
			res.Checks[p.name] = "degraded: " + err.Error()
		}
	}
	if h.accrual != nil {
		if last := h.accrual.LastPass(); !last.IsZero() {
			res.AccrualLastPass = &last
		}
	}
	c.JSON(code, res)
}

// Health is the short form used by load balancers.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}
