package bot

import (
	"strings"
	"testing"

	"github.com/onnwee/coinbot/economy"
	"github.com/onnwee/coinbot/widget"
)

func TestRenderWager(t *testing.T) {
	tests := []struct {
		name      string
		res       economy.WagerResult
		style     WagerStyle
		wantReply []string
		wantIcon  string
	}{
		{
			name:      "gacha jackpot",
			res:       economy.WagerResult{State: economy.WagerJackpot, Bet: 10, Win: 100, Balance: 190},
			style:     StyleGacha,
			wantReply: []string{"JACKPOT", "@alice", "10", "100", "190"},
			wantIcon:  widget.IconJackpot,
		},
		{
			name:      "gacha win",
			res:       economy.WagerResult{State: economy.WagerWin, Bet: 10, Win: 10, Balance: 110},
			style:     StyleGacha,
			wantReply: []string{"@alice", "won 10 coins", "110"},
			wantIcon:  widget.IconUp,
		},
		{
			name:      "gacha lose",
			res:       economy.WagerResult{State: economy.WagerLose, Bet: 10, Win: 0, Balance: 90},
			style:     StyleGacha,
			wantReply: []string{"@alice", "busted", "90"},
			wantIcon:  widget.IconDown,
		},
		{
			name:      "allin jackpot",
			res:       economy.WagerResult{State: economy.WagerJackpot, Bet: 100, Win: 1000, Balance: 1000},
			style:     StyleAllIn,
			wantReply: []string{"ALL-IN JACKPOT", "@alice", "1000"},
			wantIcon:  widget.IconJackpot,
		},
		{
			name:      "allin win",
			res:       economy.WagerResult{State: economy.WagerWin, Bet: 100, Win: 100, Balance: 200},
			style:     StyleAllIn,
			wantReply: []string{"@alice", "all-in 100", "won 100 coins"},
			wantIcon:  widget.IconUp,
		},
		{
			name:      "allin lose",
			res:       economy.WagerResult{State: economy.WagerLose, Bet: 100, Win: 0, Balance: 0},
			style:     StyleAllIn,
			wantReply: []string{"@alice", "all-in 100", "busted"},
			wantIcon:  widget.IconDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := RenderWager("alice", tt.res, tt.style)
			if err != nil {
				t.Fatalf("RenderWager: %v", err)
			}
			for _, frag := range tt.wantReply {
				if !strings.Contains(out.Reply, frag) {
					t.Errorf("reply %q missing %q", out.Reply, frag)
				}
			}
			if out.Feed.Icon != tt.wantIcon {
				t.Errorf("feed icon = %q, want %q", out.Feed.Icon, tt.wantIcon)
			}
			if out.Feed.Text == "" {
				t.Error("feed text is empty")
			}
			if tt.res.State == economy.WagerLose && strings.Contains(out.Reply, "won") {
				t.Errorf("losing reply %q reads like a win", out.Reply)
			}
		})
	}
}

func TestRenderWagerUnknownState(t *testing.T) {
	_, err := RenderWager("alice", economy.WagerResult{State: economy.WagerState(99)}, StyleGacha)
	if err == nil {
		t.Fatal("expected an error for an unknown wager state")
	}
}
