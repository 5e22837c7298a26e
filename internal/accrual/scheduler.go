package accrual

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"crypto_invest/internal/domain"
	"crypto_invest/internal/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence the scheduler needs.
type Store interface {
	ListAccruing(ctx context.Context) ([]domain.Investment, error)
	CreditProfit(ctx context.Context, id uuid.UUID, prev, next time.Time, profit decimal.Decimal) (bool, error)
	StartProfitClock(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

// SettingsSource returns the current platform settings.
type SettingsSource interface {
	Get(ctx context.Context) (*domain.Settings, error)
}

type Options struct {
	// Tick overrides the wake-up cadence; zero follows settings.profit_interval.
	Tick time.Duration
	// Workers bounds how many investments are processed concurrently.
	Workers int
	// Leader, when set, gates each pass on holding the leader lock.
	Leader Leader
}

// Result summarises one accrual pass.
type Result struct {
	Investments int             `json:"investments"`
	Credited    int             `json:"credited"`
	Initialized int             `json:"initialized"`
	Skipped     int             `json:"skipped"`
	Failed      int             `json:"failed"`
	Profit      decimal.Decimal `json:"profit"`
	LeaderSkip  bool            `json:"leaderSkip,omitempty"`
}

type Scheduler struct {
	store    Store
	settings SettingsSource
	opts     Options
	now      func() time.Time

	lastPass atomic.Int64 // unix nanos of the last completed pass on this instance
}

func NewScheduler(store Store, settings SettingsSource, opts Options) *Scheduler {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &Scheduler{store: store, settings: settings, opts: opts, now: time.Now}
}

// Run executes passes until ctx is cancelled. The first pass runs immediately.
func (s *Scheduler) Run(ctx context.Context) {
	log := logger.With("component", "accrual")
	log.Info("accrual scheduler started", "workers", s.opts.Workers, "tick_override", s.opts.Tick.String())

	for {
		s.tick(ctx)

		wait := s.cadence(ctx)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			if r, ok := s.opts.Leader.(*RedisLeader); ok {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				_ = r.Release(releaseCtx)
				cancel()
			}
			log.Info("accrual scheduler stopped")
			return
		case <-timer.C:
		}
	}
}

func (s *Scheduler) cadence(ctx context.Context) time.Duration {
	if s.opts.Tick > 0 {
		return s.opts.Tick
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return domain.DefaultSettings().Interval()
	}
	return settings.Interval()
}

func (s *Scheduler) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			errorsTotal.Inc()
			logger.Error("accrual pass panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	res, err := s.RunNow(ctx)
	if err != nil {
		logger.Error("accrual pass failed", "error", err)
		return
	}
	if res.LeaderSkip {
		logger.Debug("accrual pass skipped, not leader")
		return
	}
	if res.Credited > 0 || res.Failed > 0 {
		logger.Info("accrual pass finished",
			"investments", res.Investments, "credited", res.Credited, "initialized", res.Initialized,
			"skipped", res.Skipped, "failed", res.Failed, "profit", res.Profit.String())
	}
}

// LastPass reports when this instance last completed a pass; zero if never.
func (s *Scheduler) LastPass() time.Time {
	n := s.lastPass.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// RunNow runs a pass as of the current time and records it in LastPass,
// unless another instance holds the leader lock.
func (s *Scheduler) RunNow(ctx context.Context) (*Result, error) {
	res, err := s.RunOnce(ctx, s.now())
	if err == nil && !res.LeaderSkip {
		s.lastPass.Store(s.now().UnixNano())
	}
	return res, err
}

// RunOnce accrues every approved investment as of now. A failure on one
// investment is logged and counted; the others still run.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) (*Result, error) {
	if s.opts.Leader != nil {
		ok, err := s.opts.Leader.Acquire(ctx)
		if err != nil {
			// without the lock service every instance may tick; CAS keeps it correct
			logger.Warn("accrual leader check failed, running anyway", "error", err)
		} else if !ok {
			return &Result{LeaderSkip: true, Profit: decimal.Zero}, nil
		}
	}

	start := time.Now()
	defer func() { tickDuration.Observe(time.Since(start).Seconds()) }()
	ticksTotal.Inc()

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	investments, err := s.store.ListAccruing(ctx)
	if err != nil {
		return nil, fmt.Errorf("list approved investments: %w", err)
	}

	now = now.UTC().Truncate(time.Microsecond)
	interval := settings.Interval()

	var (
		credited, initialized, skipped, failed atomic.Int64
		profits                                = make([]decimal.Decimal, len(investments))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i := range investments {
		i := i
		inv := investments[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			outcome, profit, err := s.accrueOne(gctx, &inv, settings.ProfitPercentage, interval, now)
			if err != nil {
				failed.Add(1)
				errorsTotal.Inc()
				logger.Error("accrual failed", "investment_id", inv.ID, "error", err)
				return nil
			}
			switch outcome {
			case outcomeCredited:
				credited.Add(1)
				profits[i] = profit
				creditsTotal.Inc()
				profitCredited.Add(profit.InexactFloat64())
			case outcomeInitialized:
				initialized.Add(1)
			case outcomeSkipped:
				skipped.Add(1)
				skippedTotal.Inc()
			}
			return nil
		})
	}
	_ = g.Wait()

	total := decimal.Zero
	for _, p := range profits {
		total = total.Add(p)
	}
	return &Result{
		Investments: len(investments),
		Credited:    int(credited.Load()),
		Initialized: int(initialized.Load()),
		Skipped:     int(skipped.Load()),
		Failed:      int(failed.Load()),
		Profit:      total,
	}, ctx.Err()
}

type outcome int

const (
	outcomeNothingDue outcome = iota
	outcomeCredited
	outcomeInitialized
	outcomeSkipped
)

func (s *Scheduler) accrueOne(ctx context.Context, inv *domain.Investment, globalRate decimal.Decimal, interval time.Duration, now time.Time) (outcome, decimal.Decimal, error) {
	if !inv.Accruing() {
		return outcomeNothingDue, decimal.Zero, nil
	}
	if inv.LastProfitUpdate == nil {
		ok, err := s.store.StartProfitClock(ctx, inv.ID, now)
		if err != nil {
			return 0, decimal.Zero, err
		}
		if !ok {
			return outcomeSkipped, decimal.Zero, nil
		}
		return outcomeInitialized, decimal.Zero, nil
	}

	last := *inv.LastProfitUpdate
	credit := Accrue(inv.Amount, inv.Rate(globalRate), interval, last, now)
	if credit.Intervals == 0 {
		return outcomeNothingDue, decimal.Zero, nil
	}

	ok, err := s.store.CreditProfit(ctx, inv.ID, last, credit.NewLast, credit.Profit)
	if err != nil {
		return 0, decimal.Zero, err
	}
	if !ok {
		return outcomeSkipped, decimal.Zero, nil
	}
	return outcomeCredited, credit.Profit, nil
}
