package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/onnwee/coinbot/telemetry"
	"github.com/onnwee/coinbot/twitchapi"
	"github.com/onnwee/coinbot/widget"
)

// ChatterLister fetches the live chatter snapshot for a channel.
type ChatterLister interface {
	Chatters(ctx context.Context, channel string) (twitchapi.Chatters, error)
}

// Granter issues batched grants. A partial failure fails the whole batch.
type Granter interface {
	GrantAll(ctx context.Context, usernames []string, amount int64) error
}

// FeedSink receives overlay feed entries.
type FeedSink interface {
	Feed(e widget.Entry)
}

// PayoutCoordinator computes the audience for a batched payout from the
// current chatter listing and issues one grant per unique recipient.
type PayoutCoordinator struct {
	Chatters ChatterLister
	Grants   Granter
	Feed     FeedSink
	Channel  string
}

// Run fetches a fresh chatter snapshot, grants amount to every unique
// chatter, and emits one feed entry crediting attributedTo. It returns the
// recipient count for use in chat replies. Fetch or grant failures are
// returned to the caller untouched; nothing is paid on failure.
func (p *PayoutCoordinator) Run(ctx context.Context, amount int64, attributedTo string) (int, error) {
	snapshot, err := p.Chatters.Chatters(ctx, p.Channel)
	if err != nil {
		return 0, fmt.Errorf("payout chatter fetch: %w", err)
	}
	recipients := mergeRecipients(snapshot)
	if err := p.Grants.GrantAll(ctx, recipients, amount); err != nil {
		return 0, fmt.Errorf("payout grants: %w", err)
	}
	if telemetry.PayoutRecipients != nil {
		telemetry.PayoutRecipients.Add(float64(len(recipients)))
	}
	p.Feed.Feed(widget.Entry{
		Icon: widget.IconGift,
		Text: fmt.Sprintf("%d members received %d coins courtesy of %s", len(recipients), amount, attributedTo),
	})
	return len(recipients), nil
}

// mergeRecipients concatenates vips, viewers, and moderators and removes
// duplicates case-insensitively, keeping first-seen order. A chatter listed
// in two categories must receive exactly one grant per payout.
func mergeRecipients(c twitchapi.Chatters) []string {
	seen := make(map[string]struct{}, len(c.VIPs)+len(c.Viewers)+len(c.Moderators))
	var out []string
	for _, group := range [][]string{c.VIPs, c.Viewers, c.Moderators} {
		for _, name := range group {
			lower := strings.ToLower(name)
			if _, ok := seen[lower]; ok {
				continue
			}
			seen[lower] = struct{}{}
			out = append(out, lower)
		}
	}
	return out
}
