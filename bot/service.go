package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/onnwee/coinbot/config"
)

// Deps are the external collaborators the command handlers run against.
type Deps struct {
	Bank     Bank
	Market   MarketStore
	Payout   *PayoutCoordinator
	IsAdmin  AdminChecker
	Feed     FeedSink
	Chatters ChatterLister
}

// Service owns the chat client, the participant registry, and the command
// router, and wires transport events to dispatch.
type Service struct {
	cfg      *config.Config
	client   *twitch.Client
	send     func(channel, text string)
	registry *Registry
	router   *Router
	handlers *Handlers
}

// NewService builds the full command engine around a Twitch IRC client.
func NewService(cfg *config.Config, registry *Registry, deps Deps) *Service {
	client := twitch.NewClient(cfg.TwitchBotUsername, cfg.TwitchOAuthToken)
	s := &Service{
		cfg:      cfg,
		client:   client,
		send:     client.Say,
		registry: registry,
	}
	s.handlers = NewHandlers(deps.Bank, deps.Market, deps.Payout, deps.IsAdmin, s.Say, deps.Feed, deps.Chatters, cfg.DevMode)
	s.router = NewRouter()
	s.handlers.Register(s.router)
	return s
}

// Registry exposes the participant registry for status reporting.
func (s *Service) Registry() *Registry { return s.registry }

// Say sends one chat line. In silent mode the line goes to the log instead
// of the network; everything else (feed entries, grants) is unaffected.
func (s *Service) Say(channel, text string) {
	if s.cfg.SilentBotMode {
		slog.Info("silent mode reply", slog.String("channel", channel), slog.String("text", text))
		return
	}
	s.send(channel, text)
}

// Run connects to Twitch chat for the configured channel and blocks until
// ctx is cancelled. Each inbound event is handled on its own goroutine so
// one suspended handler never delays unrelated messages.
func (s *Service) Run(ctx context.Context) error {
	if err := s.cfg.ValidateChatReady(); err != nil {
		return err
	}

	s.client.OnConnect(func() {
		slog.Info("connected to twitch", slog.String("channel", s.cfg.TwitchChannel))
	})
	s.client.OnUserJoinMessage(func(m twitch.UserJoinMessage) {
		go s.ensureRegistered(ctx, m.User)
	})
	s.client.OnUserPartMessage(func(m twitch.UserPartMessage) {
		slog.Debug("user left", slog.String("username", m.User))
	})
	s.client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		go s.handleMessage(ctx, msg)
	})

	// Handle context cancellation by closing the client
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := s.client.Disconnect(); err != nil {
			slog.Debug("twitch disconnect", slog.Any("err", err))
		}
		close(done)
	}()

	s.client.Join(s.cfg.TwitchChannel)
	if err := s.client.Connect(); err != nil && !errors.Is(err, twitch.ErrClientDisconnected) {
		return err
	}
	<-done
	return nil
}

// handleMessage registers the sender and dispatches a command if the line
// carries one. Echoes of the bot's own lines are dropped before any side
// effect, command-shaped or not.
func (s *Service) handleMessage(ctx context.Context, msg twitch.PrivateMessage) {
	sender := msg.User.Name
	if sender == "" || strings.EqualFold(sender, s.cfg.TwitchBotUsername) {
		return
	}
	s.ensureRegistered(ctx, sender)

	cmd, ok := ParseCommand(msg.Message)
	if !ok {
		return
	}
	s.router.Dispatch(ctx, cmd, msg.Channel, sender)
}

func (s *Service) ensureRegistered(ctx context.Context, username string) {
	if err := s.registry.Ensure(ctx, username); err != nil {
		slog.Error("participant registration failed", slog.String("username", username), slog.Any("err", err))
	}
}
