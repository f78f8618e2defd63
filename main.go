// Command coinbot is the main entrypoint for the chat command bot.
// It:
//   - Loads configuration and initializes structured logging.
//   - Connects to Postgres and runs idempotent migrations.
//   - Warms the participant registry from stored players and joins Twitch chat.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status, /metrics,
//     and the overlay widget websocket.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/coinbot/bot"
	"github.com/onnwee/coinbot/config"
	"github.com/onnwee/coinbot/db"
	"github.com/onnwee/coinbot/economy"
	"github.com/onnwee/coinbot/server"
	"github.com/onnwee/coinbot/settings"
	"github.com/onnwee/coinbot/telemetry"
	"github.com/onnwee/coinbot/twitchapi"
	"github.com/onnwee/coinbot/widget"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		// unknown level -> keep info but note once using temporary logger
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", map[bool]string{true: "json", false: "text"}[format == "json"]))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("coinbot", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// DB
	database, err := db.Connect(cfg.DBDsn)
	if err != nil {
		slog.Error("failed to open db", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("failed to close database", slog.Any("err", err))
		}
	}()

	slog.Info("running database migrations", slog.String("component", "db_migrate"))
	if err := db.Migrate(context.Background(), database); err != nil {
		slog.Error("failed to migrate db", slog.Any("err", err))
		os.Exit(1)
	}

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Economy ledger with configured odds
	ledger := economy.NewLedger(database, economy.Odds{
		JackpotChance:     cfg.GachaJackpotChance,
		WinChance:         cfg.GachaWinChance,
		JackpotMultiplier: cfg.GachaJackpotMultiplier,
	})
	marketStore := settings.NewStore(database)
	hub := widget.NewHub()
	chatters := &twitchapi.ChattersClient{BaseURL: cfg.TwitchAPIBase}

	// Participant registry, warmed from stored players so known chatters
	// never trigger a duplicate create.
	registry := bot.NewRegistry(func(rctx context.Context, username string) error {
		return db.CreatePlayer(rctx, database, username)
	})
	if usernames, err := db.AllUsernames(ctx, database); err != nil {
		slog.Warn("registry warm start failed", slog.Any("err", err))
	} else {
		registry.Warm(usernames)
		slog.Info("registry warmed", slog.Int("players", len(usernames)))
	}

	payout := &bot.PayoutCoordinator{
		Chatters: chatters,
		Grants:   ledger,
		Feed:     hub,
		Channel:  cfg.TwitchChannel,
	}
	service := bot.NewService(cfg, registry, bot.Deps{
		Bank:     ledger,
		Market:   marketStore,
		Payout:   payout,
		IsAdmin:  isAdminFunc(database),
		Feed:     hub,
		Chatters: chatters,
	})

	// Enable pprof profiling endpoints in debug mode (ENABLE_PPROF=1)
	if os.Getenv("ENABLE_PPROF") == "1" {
		pprofAddr := os.Getenv("PPROF_ADDR")
		if pprofAddr == "" {
			pprofAddr = "localhost:6060"
		}
		go func() {
			slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
			// Use an http.Server with timeouts to satisfy G114 and avoid DoS risks
			srv := &http.Server{
				Addr:              pprofAddr,
				Handler:           nil, // default mux exposes /debug/pprof
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("pprof server error", slog.Any("err", err))
			}
		}()
	}

	// HTTP server (health/status/metrics/widget)
	go func() {
		if err := server.Start(ctx, database, cfg, hub, registry, marketStore); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Chat client
	go func() {
		if err := service.Run(ctx); err != nil {
			slog.Error("chat service exited with error", slog.Any("err", err))
			stop()
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}

func isAdminFunc(database *sql.DB) bot.AdminChecker {
	return func(ctx context.Context, username string) (bool, error) {
		return db.IsAdmin(ctx, database, username)
	}
}
