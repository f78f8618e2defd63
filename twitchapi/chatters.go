// Package twitchapi contains a minimal helper for the unofficial TMI
// chatters endpoint, used to compute payout audiences.
package twitchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// Chatters is a point-in-time listing of present viewers, moderators, and
// VIPs for a channel. It is consumed once per payout; nothing is cached.
type Chatters struct {
	Viewers    []string
	Moderators []string
	VIPs       []string
}

// ChattersClient fetches the chatter listing for a channel.
type ChattersClient struct {
	BaseURL    string // e.g. https://tmi.twitch.tv
	HTTPClient *http.Client
}

func (cc *ChattersClient) http() *http.Client {
	if cc.HTTPClient != nil {
		return cc.HTTPClient
	}
	return http.DefaultClient
}

// Chatters performs one GET against the per-channel chatters endpoint.
func (cc *ChattersClient) Chatters(ctx context.Context, channel string) (Chatters, error) {
	if channel == "" {
		return Chatters{}, fmt.Errorf("channel empty")
	}
	if cc.BaseURL == "" {
		return Chatters{}, fmt.Errorf("base url empty")
	}
	endpoint := fmt.Sprintf("%s/group/user/%s/chatters", cc.BaseURL, url.PathEscape(channel))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Chatters{}, err
	}
	resp, err := cc.http().Do(req)
	if err != nil {
		return Chatters{}, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return Chatters{}, fmt.Errorf("chatters fetch for %s: status %d", channel, resp.StatusCode)
	}
	var body struct {
		Chatters struct {
			Viewers    []string `json:"viewers"`
			Moderators []string `json:"moderators"`
			VIPs       []string `json:"vips"`
		} `json:"chatters"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Chatters{}, fmt.Errorf("chatters decode: %w", err)
	}
	return Chatters{
		Viewers:    body.Chatters.Viewers,
		Moderators: body.Chatters.Moderators,
		VIPs:       body.Chatters.VIPs,
	}, nil
}
