package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/onnwee/coinbot/economy"
	"github.com/onnwee/coinbot/settings"
	"github.com/onnwee/coinbot/telemetry"
	"github.com/onnwee/coinbot/widget"
)

// Bank is the slice of the economy ledger the command handlers consume.
type Bank interface {
	Balance(ctx context.Context, username string) (int64, error)
	Grant(ctx context.Context, username string, amount int64) (int64, error)
	AllIn(ctx context.Context, username string) (economy.WagerResult, error)
	Wager(ctx context.Context, username string, bet int64) (economy.WagerResult, error)
}

// MarketStore writes the market flag.
type MarketStore interface {
	SetMarketState(ctx context.Context, state string) error
}

// AdminChecker reports whether a participant carries the administrator flag.
type AdminChecker func(ctx context.Context, username string) (bool, error)

// SayFunc sends one chat line to a channel.
type SayFunc func(channel, text string)

// Coins granted to a subscriber on top of the audience payday.
const subscriberBonus = 10

var (
	// "!give <target> <amount>": one token, then an integer token.
	giveArgsPattern = regexp.MustCompile(`(\S+)\s+(\d+)`)
	// "!gacha [amount]": leading signed integer anywhere in the first token.
	wagerAmountPattern = regexp.MustCompile(`(-?\d+)`)
)

// Handlers implements every chat command. Malformed arguments are a
// user-visible no-op by contract; they get a debug log line only.
type Handlers struct {
	bank     Bank
	market   MarketStore
	payout   *PayoutCoordinator
	isAdmin  AdminChecker
	say      SayFunc
	feed     FeedSink
	chatters ChatterLister
	devMode  bool
}

func NewHandlers(bank Bank, market MarketStore, payout *PayoutCoordinator, isAdmin AdminChecker, say SayFunc, feed FeedSink, chatters ChatterLister, devMode bool) *Handlers {
	return &Handlers{
		bank:     bank,
		market:   market,
		payout:   payout,
		isAdmin:  isAdmin,
		say:      say,
		feed:     feed,
		chatters: chatters,
		devMode:  devMode,
	}
}

// Register installs every command, including the accepted-but-unimplemented
// placeholders, into the router.
func (h *Handlers) Register(r *Router) {
	r.Handle("!coin", h.HandleCoin)
	r.Handle("!give", h.HandleGive)
	r.Handle("!allin", h.HandleAllIn)
	r.Handle("!gacha", h.HandleGacha)
	r.Handle("!payday", h.HandlePayday)
	r.Handle("!payout", h.HandlePayout)
	r.Handle("!market", h.HandleMarket)
	r.Handle("!github", h.HandleGithub)
	r.Handle("!fetch", h.HandleFetch)
	for _, name := range []string{"!auction", "!botstat", "!draw", "!income", "!kick", "!raffle", "!reset", "!sentry", "!thanos", "!time"} {
		r.Handle(name, todoHandler(name))
	}
}

// HandleCoin replies with the caller's balance, or "no coins" when the
// caller has no account yet.
func (h *Handlers) HandleCoin(ctx context.Context, msg Message) error {
	balance, err := h.bank.Balance(ctx, msg.Sender)
	if errors.Is(err, economy.ErrNoAccount) {
		h.say(msg.Channel, fmt.Sprintf("@%s has no coins.", msg.Sender))
		return nil
	}
	if err != nil {
		return err
	}
	h.say(msg.Channel, fmt.Sprintf("@%s has %d coins.", msg.Sender, balance))
	return nil
}

// HandleGive transfers coins to a named user. Missing or non-numeric
// arguments and grant failures are silent no-ops.
func (h *Handlers) HandleGive(ctx context.Context, msg Message) error {
	m := giveArgsPattern.FindStringSubmatch(strings.Join(msg.Args, " "))
	if m == nil {
		slog.Debug("give: malformed arguments", slog.String("sender", msg.Sender), slog.Any("args", msg.Args))
		return nil
	}
	target := m[1]
	amount, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		slog.Debug("give: amount out of range", slog.String("sender", msg.Sender), slog.String("amount", m[2]))
		return nil
	}
	balance, err := h.bank.Grant(ctx, target, amount)
	if err != nil {
		slog.Debug("give: grant failed", slog.String("sender", msg.Sender), slog.String("target", target), slog.Any("err", err))
		return nil
	}
	h.say(msg.Channel, fmt.Sprintf("@%s gave %s %d coins (%d).", msg.Sender, target, amount, balance))
	return nil
}

// HandleAllIn wagers the caller's entire balance.
func (h *Handlers) HandleAllIn(ctx context.Context, msg Message) error {
	res, err := h.bank.AllIn(ctx, msg.Sender)
	if errors.Is(err, economy.ErrInsufficientFunds) {
		h.say(msg.Channel, fmt.Sprintf("@%s doesn't have enough coins!", msg.Sender))
		return nil
	}
	if err != nil {
		return err
	}
	return h.notifyWager(msg, res, StyleAllIn)
}

// HandleGacha wagers an optional amount parsed from the first argument,
// defaulting to 1.
func (h *Handlers) HandleGacha(ctx context.Context, msg Message) error {
	amount := int64(1)
	if len(msg.Args) > 0 {
		if m := wagerAmountPattern.FindStringSubmatch(msg.Args[0]); m != nil {
			n, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				slog.Debug("gacha: amount out of range", slog.String("sender", msg.Sender), slog.String("amount", m[1]))
				return nil
			}
			amount = n
		}
	}
	res, err := h.bank.Wager(ctx, msg.Sender, amount)
	if errors.Is(err, economy.ErrInvalidBet) {
		slog.Debug("gacha: invalid bet", slog.String("sender", msg.Sender), slog.Int64("bet", amount))
		return nil
	}
	if errors.Is(err, economy.ErrInsufficientFunds) {
		h.say(msg.Channel, fmt.Sprintf("@%s doesn't have enough coins!", msg.Sender))
		return nil
	}
	if err != nil {
		return err
	}
	return h.notifyWager(msg, res, StyleGacha)
}

func (h *Handlers) notifyWager(msg Message, res economy.WagerResult, style WagerStyle) error {
	out, err := RenderWager(msg.Sender, res, style)
	if err != nil {
		return err
	}
	switch res.State {
	case economy.WagerJackpot:
		if telemetry.WagersJackpot != nil {
			telemetry.WagersJackpot.Inc()
		}
	case economy.WagerWin:
		if telemetry.WagersWon != nil {
			telemetry.WagersWon.Inc()
		}
	case economy.WagerLose:
		if telemetry.WagersLost != nil {
			telemetry.WagersLost.Inc()
		}
	}
	h.say(msg.Channel, out.Reply)
	h.feed.Feed(out.Feed)
	return nil
}

// HandlePayday pays 1 coin to the full current chatter audience. Restricted
// to administrators; anyone else is silently ignored.
func (h *Handlers) HandlePayday(ctx context.Context, msg Message) error {
	ok, err := h.isAdmin(ctx, msg.Sender)
	if err != nil {
		return err
	}
	if !ok {
		slog.Debug("payday: not an administrator", slog.String("sender", msg.Sender))
		return nil
	}
	_, err = h.payout.Run(ctx, 1, msg.Sender)
	return err
}

// HandlePayout simulates a subscription event for the caller. Dev mode only.
func (h *Handlers) HandlePayout(ctx context.Context, msg Message) error {
	if !h.devMode {
		return nil
	}
	count, err := h.SubscriptionPayout(ctx, msg.Sender)
	if err != nil {
		return err
	}
	h.say(msg.Channel, fmt.Sprintf("%s received %d coins for subscribing and %d members received 1 coin.", msg.Sender, subscriberBonus, count))
	return nil
}

// SubscriptionPayout grants the subscriber bonus, announces it on the feed,
// and runs the audience payday attributed to the subscriber. Returns the
// payday recipient count.
func (h *Handlers) SubscriptionPayout(ctx context.Context, username string) (int, error) {
	if _, err := h.bank.Grant(ctx, username, subscriberBonus); err != nil {
		return 0, fmt.Errorf("subscriber bonus: %w", err)
	}
	h.feed.Feed(widget.Entry{
		Icon: widget.IconGift,
		Text: fmt.Sprintf("%s received %d coins for subscribing", username, subscriberBonus),
	})
	return h.payout.Run(ctx, 1, username)
}

// HandleMarket toggles the market flag and announces it on the feed only;
// it never emits a chat reply. Unknown subcommands are ignored.
func (h *Handlers) HandleMarket(ctx context.Context, msg Message) error {
	if len(msg.Args) == 0 {
		return nil
	}
	switch msg.Args[0] {
	case settings.MarketOpen:
		if err := h.market.SetMarketState(ctx, settings.MarketOpen); err != nil {
			return err
		}
		h.feed.Feed(widget.Entry{Icon: widget.IconMarket, Text: "the market is open"})
	case settings.MarketClosed:
		if err := h.market.SetMarketState(ctx, settings.MarketClosed); err != nil {
			return err
		}
		h.feed.Feed(widget.Entry{Icon: widget.IconMarket, Text: "the market is closed"})
	}
	return nil
}

// HandleGithub replies with the project link.
func (h *Handlers) HandleGithub(ctx context.Context, msg Message) error {
	h.say(msg.Channel, "https://github.com/thananon/twitch_tools")
	return nil
}

// HandleFetch logs the current chatter counts. Dev aid; precursor to the
// batched payout audience.
func (h *Handlers) HandleFetch(ctx context.Context, msg Message) error {
	snapshot, err := h.chatters.Chatters(ctx, msg.Channel)
	if err != nil {
		return err
	}
	slog.Info("chatter snapshot",
		slog.String("channel", msg.Channel),
		slog.Int("viewers", len(snapshot.Viewers)),
		slog.Int("moderators", len(snapshot.Moderators)),
		slog.Int("vips", len(snapshot.VIPs)))
	return nil
}

func todoHandler(name string) HandlerFunc {
	return func(ctx context.Context, msg Message) error {
		slog.Debug("command not implemented", slog.String("command", name))
		return nil
	}
}
