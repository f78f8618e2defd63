// Package economy implements the virtual-currency ledger: balance queries,
// grants, batched grants, and wagers against the players table.
//
// Wager odds are plain configuration and the random draw is injectable, so
// the outcome logic is testable without touching the probability source.
package economy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

var (
	// ErrNoAccount signals a balance query for a username with no player row.
	ErrNoAccount = errors.New("economy: no account")
	// ErrInsufficientFunds signals a wager precondition failure. It is a
	// distinct path from a lost wager: no WagerResult is produced.
	ErrInsufficientFunds = errors.New("economy: insufficient funds")
	// ErrInvalidBet signals a wager amount below the 1-coin minimum.
	ErrInvalidBet = errors.New("economy: invalid bet")
)

// WagerState is the tagged outcome variant of a wager.
type WagerState int

const (
	WagerLose WagerState = iota
	WagerWin
	WagerJackpot
)

func (s WagerState) String() string {
	switch s {
	case WagerLose:
		return "lose"
	case WagerWin:
		return "win"
	case WagerJackpot:
		return "win_jackpot"
	}
	return fmt.Sprintf("WagerState(%d)", int(s))
}

// WagerResult is the outcome of a settled wager. Bet is the amount risked,
// Win the net amount added on a win or jackpot, Balance the resulting balance.
type WagerResult struct {
	State   WagerState
	Bet     int64
	Win     int64
	Balance int64
}

// Odds holds the wager probability knobs. The model itself is intentionally
// simple: a jackpot slice, a double-or-nothing win slice, and a losing rest.
type Odds struct {
	JackpotChance     float64
	WinChance         float64
	JackpotMultiplier int64
}

// Ledger performs all balance mutations. Roll may be overridden to force
// outcomes; when nil, a uniform [0,1) draw is used.
type Ledger struct {
	DB   *sql.DB
	Odds Odds
	Roll func() float64
}

func NewLedger(dbx *sql.DB, odds Odds) *Ledger {
	return &Ledger{DB: dbx, Odds: odds}
}

func (l *Ledger) roll() float64 {
	if l.Roll != nil {
		return l.Roll()
	}
	return rand.Float64()
}

// Balance returns the current balance for username, or ErrNoAccount.
func (l *Ledger) Balance(ctx context.Context, username string) (int64, error) {
	var coins int64
	err := l.DB.QueryRowContext(ctx,
		`SELECT coins FROM players WHERE username=$1`,
		strings.ToLower(username)).Scan(&coins)
	if err == sql.ErrNoRows {
		return 0, ErrNoAccount
	}
	if err != nil {
		return 0, fmt.Errorf("balance %s: %w", username, err)
	}
	return coins, nil
}

// Grant credits amount to username, creating the player row if needed, and
// returns the resulting balance.
func (l *Ledger) Grant(ctx context.Context, username string, amount int64) (int64, error) {
	var coins int64
	err := l.DB.QueryRowContext(ctx,
		`INSERT INTO players(username, coins) VALUES($1,$2)
		 ON CONFLICT(username) DO UPDATE SET coins=players.coins+EXCLUDED.coins, updated_at=NOW()
		 RETURNING coins`,
		strings.ToLower(username), amount).Scan(&coins)
	if err != nil {
		return 0, fmt.Errorf("grant %d to %s: %w", amount, username, err)
	}
	return coins, nil
}

// GrantAll credits amount to every username in one transaction. A failure for
// any recipient rolls back the whole batch and is returned to the caller.
func (l *Ledger) GrantAll(ctx context.Context, usernames []string, amount int64) error {
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("grant all begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit
	for _, name := range usernames {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO players(username, coins) VALUES($1,$2)
			 ON CONFLICT(username) DO UPDATE SET coins=players.coins+EXCLUDED.coins, updated_at=NOW()`,
			strings.ToLower(name), amount); err != nil {
			return fmt.Errorf("grant all to %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("grant all commit: %w", err)
	}
	return nil
}

// Wager risks bet coins for username. Returns ErrInvalidBet for bets below 1
// and ErrInsufficientFunds when the balance cannot cover the bet; otherwise
// the wager settles atomically and the tagged result is returned.
func (l *Ledger) Wager(ctx context.Context, username string, bet int64) (WagerResult, error) {
	if bet < 1 {
		return WagerResult{}, ErrInvalidBet
	}
	return l.settle(ctx, username, func(balance int64) int64 { return bet })
}

// AllIn wagers the caller's entire balance. An empty or missing balance is an
// ErrInsufficientFunds, matching the insufficient-funds reply path.
func (l *Ledger) AllIn(ctx context.Context, username string) (WagerResult, error) {
	return l.settle(ctx, username, func(balance int64) int64 { return balance })
}

func (l *Ledger) settle(ctx context.Context, username string, betFor func(balance int64) int64) (WagerResult, error) {
	lower := strings.ToLower(username)
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return WagerResult{}, fmt.Errorf("wager begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var balance int64
	err = tx.QueryRowContext(ctx,
		`SELECT coins FROM players WHERE username=$1 FOR UPDATE`, lower).Scan(&balance)
	if err == sql.ErrNoRows {
		return WagerResult{}, ErrInsufficientFunds
	}
	if err != nil {
		return WagerResult{}, fmt.Errorf("wager balance %s: %w", username, err)
	}

	bet := betFor(balance)
	if bet < 1 || balance < bet {
		return WagerResult{}, ErrInsufficientFunds
	}

	res := draw(l.roll(), bet, l.Odds)
	res.Balance = balance + res.delta()

	if _, err := tx.ExecContext(ctx,
		`UPDATE players SET coins=$1, updated_at=NOW() WHERE username=$2`,
		res.Balance, lower); err != nil {
		return WagerResult{}, fmt.Errorf("wager settle %s: %w", username, err)
	}
	if err := tx.Commit(); err != nil {
		return WagerResult{}, fmt.Errorf("wager commit: %w", err)
	}
	return res, nil
}

// draw maps a uniform roll in [0,1) to a wager outcome. Balance is left for
// the caller to fill in.
func draw(roll float64, bet int64, odds Odds) WagerResult {
	switch {
	case roll < odds.JackpotChance:
		return WagerResult{State: WagerJackpot, Bet: bet, Win: bet * odds.JackpotMultiplier}
	case roll < odds.JackpotChance+odds.WinChance:
		return WagerResult{State: WagerWin, Bet: bet, Win: bet}
	default:
		return WagerResult{State: WagerLose, Bet: bet}
	}
}

// delta is the signed balance change the outcome implies.
func (r WagerResult) delta() int64 {
	if r.State == WagerLose {
		return -r.Bet
	}
	return r.Win
}
