// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	CommandsProcessed *prometheus.CounterVec
	UnknownCommands   prometheus.Counter
	WagersJackpot     prometheus.Counter
	WagersWon         prometheus.Counter
	WagersLost        prometheus.Counter
	PayoutRecipients  prometheus.Counter
	PlayersCreated    prometheus.Counter
	FeedEntries       prometheus.Counter

	// Histograms (seconds)
	CommandDuration prometheus.Observer

	// Gauges
	RegistrySizeGauge    prometheus.Gauge
	FeedSubscribersGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		CommandsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{Name: "bot_commands_total", Help: "Number of chat commands dispatched, by command name"}, []string{"command"})
		UnknownCommands = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_commands_unknown_total", Help: "Number of command-shaped messages with no registered handler"})
		WagersJackpot = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_wagers_jackpot_total", Help: "Number of wagers that hit the jackpot"})
		WagersWon = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_wagers_won_total", Help: "Number of wagers won"})
		WagersLost = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_wagers_lost_total", Help: "Number of wagers lost"})
		PayoutRecipients = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_payout_recipients_total", Help: "Number of grants issued by batched payouts"})
		PlayersCreated = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_players_created_total", Help: "Number of player accounts created on first sight"})
		FeedEntries = promauto.NewCounter(prometheus.CounterOpts{Name: "bot_feed_entries_total", Help: "Number of entries broadcast to the overlay feed"})
		CommandDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "bot_command_duration_seconds", Help: "Command handling duration seconds", Buckets: prometheus.DefBuckets})
		RegistrySizeGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "bot_registry_size", Help: "Current number of known chat participants"})
		FeedSubscribersGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "bot_feed_subscribers", Help: "Current number of connected overlay feed subscribers"})
	})
}

// CountCommand increments the per-command counter if metrics are initialized.
func CountCommand(name string) {
	if CommandsProcessed != nil {
		CommandsProcessed.WithLabelValues(name).Inc()
	}
}

// SetRegistrySize records the current participant registry size.
func SetRegistrySize(n int) {
	if RegistrySizeGauge != nil {
		RegistrySizeGauge.Set(float64(n))
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
