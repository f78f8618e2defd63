package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/onnwee/coinbot/config"
	"github.com/onnwee/coinbot/widget"
)

// RegistrySizer reports the current participant registry size.
type RegistrySizer interface {
	Size() int
}

// MarketReader reads the persisted market flag.
type MarketReader interface {
	MarketState(ctx context.Context) (string, error)
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	hub      *widget.Hub
	registry RegistrySizer
	market   MarketReader
	started  time.Time
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(db *sql.DB, cfg *config.Config, hub *widget.Hub, registry RegistrySizer, market MarketReader) *Handlers {
	return &Handlers{
		db:       db,
		cfg:      cfg,
		hub:      hub,
		registry: registry,
		market:   market,
		started:  time.Now(),
	}
}

// HandleHealthz responds to liveness probe requests by checking database connectivity.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probe requests with detailed system checks.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"database", func() error { return h.db.PingContext(r.Context()) }},
		{"schema", func() error {
			var count int
			return h.db.QueryRowContext(r.Context(),
				"SELECT COUNT(*) FROM players").Scan(&count)
		}},
		{"chat_credentials", func() error { return h.cfg.ValidateChatReady() }},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			// Set headers before writing status code
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
				"error":        err.Error(),
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// statusResponse is the /status payload consumed by the overlay and ops
// dashboards.
type statusResponse struct {
	Channel         string `json:"channel"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	RegistrySize    int    `json:"registry_size"`
	MarketState     string `json:"market_state"`
	SilentMode      bool   `json:"silent_mode"`
	FeedSubscribers int    `json:"feed_subscribers"`
}

// HandleStatus reports a coarse operational summary. The market read is best
// effort: a storage failure leaves the field empty rather than failing the
// whole endpoint.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Channel:       h.cfg.TwitchChannel,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		RegistrySize:  h.registry.Size(),
		SilentMode:    h.cfg.SilentBotMode,
	}
	if h.hub != nil {
		resp.FeedSubscribers = h.hub.SubscriberCount()
	}
	if state, err := h.market.MarketState(r.Context()); err == nil {
		resp.MarketState = state
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
