package accrual

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ticksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "accrual_ticks_total",
		Help: "Number of accrual passes run on this instance",
	})
	creditsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "accrual_credits_total",
		Help: "Number of investments credited with profit",
	})
	errorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "accrual_errors_total",
		Help: "Number of investments that failed to accrue",
	})
	skippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "accrual_skipped_total",
		Help: "Number of credits lost to a concurrent update",
	})
	tickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "accrual_tick_duration_seconds",
		Help:    "Accrual pass duration",
		Buckets: prometheus.DefBuckets,
	})
	profitCredited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "accrual_profit_credited",
		Help: "Total profit credited across all investments",
	})
)

func init() {
	prometheus.MustRegister(ticksTotal, creditsTotal, errorsTotal, skippedTotal, tickDuration, profitCredited)
}
