package bot

import (
	"fmt"

	"github.com/onnwee/coinbot/economy"
	"github.com/onnwee/coinbot/widget"
)

// WagerStyle selects the reply wording for a wager command. All-in replies
// omit the resulting balance on plain wins and losses; gacha replies always
// surface the chosen bet and the resulting balance.
type WagerStyle int

const (
	StyleAllIn WagerStyle = iota
	StyleGacha
)

// WagerOutcome pairs the chat reply with its overlay feed entry. Every
// WagerResult variant maps to exactly one WagerOutcome.
type WagerOutcome struct {
	Reply string
	Feed  widget.Entry
}

// RenderWager maps a settled wager to its notification pair. An unknown
// state is an error so that a new variant cannot be silently dropped.
func RenderWager(username string, res economy.WagerResult, style WagerStyle) (WagerOutcome, error) {
	switch res.State {
	case economy.WagerJackpot:
		if style == StyleAllIn {
			return WagerOutcome{
				Reply: fmt.Sprintf("ALL-IN JACKPOT!! @%s went all-in %d -> won %d coins (%d).", username, res.Bet, res.Win, res.Balance),
				Feed:  widget.Entry{Icon: widget.IconJackpot, Text: fmt.Sprintf("%s ALL-IN JACKPOT!!! +%d coins (%d)", username, res.Win, res.Balance)},
			}, nil
		}
		return WagerOutcome{
			Reply: fmt.Sprintf("JACKPOT!! @%s bet %d -> won %d coins (%d).", username, res.Bet, res.Win, res.Balance),
			Feed:  widget.Entry{Icon: widget.IconJackpot, Text: fmt.Sprintf("%s JACKPOT!!! +%d coins (%d)", username, res.Win, res.Balance)},
		}, nil
	case economy.WagerWin:
		if style == StyleAllIn {
			return WagerOutcome{
				Reply: fmt.Sprintf("@%s went all-in %d -> won %d coins.", username, res.Bet, res.Win),
				Feed:  widget.Entry{Icon: widget.IconUp, Text: fmt.Sprintf("%s +%d coins", username, res.Win)},
			}, nil
		}
		return WagerOutcome{
			Reply: fmt.Sprintf("@%s bet %d -> won %d coins (%d).", username, res.Bet, res.Win, res.Balance),
			Feed:  widget.Entry{Icon: widget.IconUp, Text: fmt.Sprintf("%s +%d coins (%d)", username, res.Win, res.Balance)},
		}, nil
	case economy.WagerLose:
		if style == StyleAllIn {
			return WagerOutcome{
				Reply: fmt.Sprintf("@%s went all-in %d -> busted!", username, res.Bet),
				Feed:  widget.Entry{Icon: widget.IconDown, Text: fmt.Sprintf("%s -%d coins", username, res.Bet)},
			}, nil
		}
		return WagerOutcome{
			Reply: fmt.Sprintf("@%s bet %d -> busted! (%d).", username, res.Bet, res.Balance),
			Feed:  widget.Entry{Icon: widget.IconDown, Text: fmt.Sprintf("%s -%d coins (%d)", username, res.Bet, res.Balance)},
		}, nil
	}
	return WagerOutcome{}, fmt.Errorf("unhandled wager state %v", res.State)
}
