package economy

import (
	"database/sql"
	"errors"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/onnwee/coinbot/db"
)

var testOdds = Odds{JackpotChance: 0.01, WinChance: 0.475, JackpotMultiplier: 10}

func TestDraw(t *testing.T) {
	tests := []struct {
		name      string
		roll      float64
		bet       int64
		wantState WagerState
		wantWin   int64
		wantDelta int64
	}{
		{name: "jackpot at zero", roll: 0, bet: 5, wantState: WagerJackpot, wantWin: 50, wantDelta: 50},
		{name: "jackpot just under threshold", roll: 0.0099, bet: 100, wantState: WagerJackpot, wantWin: 1000, wantDelta: 1000},
		{name: "win at jackpot boundary", roll: 0.01, bet: 100, wantState: WagerWin, wantWin: 100, wantDelta: 100},
		{name: "win mid band", roll: 0.3, bet: 7, wantState: WagerWin, wantWin: 7, wantDelta: 7},
		{name: "lose at win boundary", roll: 0.485, bet: 100, wantState: WagerLose, wantWin: 0, wantDelta: -100},
		{name: "lose high roll", roll: 0.999, bet: 42, wantState: WagerLose, wantWin: 0, wantDelta: -42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := draw(tt.roll, tt.bet, testOdds)
			if res.State != tt.wantState {
				t.Errorf("state = %v, want %v", res.State, tt.wantState)
			}
			if res.Win != tt.wantWin {
				t.Errorf("win = %d, want %d", res.Win, tt.wantWin)
			}
			if res.Bet != tt.bet {
				t.Errorf("bet = %d, want %d", res.Bet, tt.bet)
			}
			if res.delta() != tt.wantDelta {
				t.Errorf("delta = %d, want %d", res.delta(), tt.wantDelta)
			}
		})
	}
}

func TestWagerStateString(t *testing.T) {
	if WagerLose.String() != "lose" || WagerWin.String() != "win" || WagerJackpot.String() != "win_jackpot" {
		t.Errorf("unexpected state strings: %v %v %v", WagerLose, WagerWin, WagerJackpot)
	}
}

func TestWagerRejectsInvalidBet(t *testing.T) {
	l := NewLedger(nil, testOdds)
	for _, bet := range []int64{0, -1, -100} {
		if _, err := l.Wager(t.Context(), "anyone", bet); !errors.Is(err, ErrInvalidBet) {
			t.Errorf("Wager(bet=%d) err = %v, want ErrInvalidBet", bet, err)
		}
	}
}

// Postgres-backed ledger tests; skipped unless TEST_PG_DSN is set.

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set; skipping postgres test")
	}
	dbx, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { dbx.Close() })
	if err := db.Migrate(t.Context(), dbx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewLedger(dbx, testOdds)
}

func resetPlayer(t *testing.T, l *Ledger, username string) {
	t.Helper()
	if _, err := l.DB.ExecContext(t.Context(), `DELETE FROM players WHERE username=$1`, username); err != nil {
		t.Fatalf("reset player: %v", err)
	}
}

func TestBalanceNoAccount(t *testing.T) {
	l := openTestLedger(t)
	resetPlayer(t, l, "ledger_ghost")

	if _, err := l.Balance(t.Context(), "ledger_ghost"); !errors.Is(err, ErrNoAccount) {
		t.Errorf("Balance err = %v, want ErrNoAccount", err)
	}
}

func TestGrantCreatesAndAccumulates(t *testing.T) {
	l := openTestLedger(t)
	ctx := t.Context()
	resetPlayer(t, l, "ledger_grantee")

	bal, err := l.Grant(ctx, "Ledger_Grantee", 100)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if bal != 100 {
		t.Errorf("balance after first grant = %d, want 100", bal)
	}
	bal, err = l.Grant(ctx, "ledger_grantee", 5)
	if err != nil {
		t.Fatalf("second grant: %v", err)
	}
	if bal != 105 {
		t.Errorf("balance after second grant = %d, want 105", bal)
	}
}

func TestGrantAllSingleBatch(t *testing.T) {
	l := openTestLedger(t)
	ctx := t.Context()
	recipients := []string{"batch_a", "batch_b", "batch_c"}
	for _, r := range recipients {
		resetPlayer(t, l, r)
	}

	if err := l.GrantAll(ctx, recipients, 1); err != nil {
		t.Fatalf("grant all: %v", err)
	}
	for _, r := range recipients {
		bal, err := l.Balance(ctx, r)
		if err != nil {
			t.Fatalf("balance %s: %v", r, err)
		}
		if bal != 1 {
			t.Errorf("balance %s = %d, want 1", r, bal)
		}
	}
}

func TestWagerOutcomes(t *testing.T) {
	l := openTestLedger(t)
	ctx := t.Context()

	tests := []struct {
		name        string
		roll        float64
		bet         int64
		wantState   WagerState
		wantBalance int64
	}{
		{name: "jackpot", roll: 0.001, bet: 10, wantState: WagerJackpot, wantBalance: 200},
		{name: "win", roll: 0.2, bet: 10, wantState: WagerWin, wantBalance: 110},
		{name: "lose", roll: 0.9, bet: 10, wantState: WagerLose, wantBalance: 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetPlayer(t, l, "ledger_wagerer")
			if _, err := l.Grant(ctx, "ledger_wagerer", 100); err != nil {
				t.Fatalf("seed: %v", err)
			}
			l.Roll = func() float64 { return tt.roll }

			res, err := l.Wager(ctx, "ledger_wagerer", tt.bet)
			if err != nil {
				t.Fatalf("wager: %v", err)
			}
			if res.State != tt.wantState {
				t.Errorf("state = %v, want %v", res.State, tt.wantState)
			}
			if res.Balance != tt.wantBalance {
				t.Errorf("balance = %d, want %d", res.Balance, tt.wantBalance)
			}
			bal, err := l.Balance(ctx, "ledger_wagerer")
			if err != nil {
				t.Fatalf("balance: %v", err)
			}
			if bal != tt.wantBalance {
				t.Errorf("persisted balance = %d, want %d", bal, tt.wantBalance)
			}
		})
	}
}

func TestWagerInsufficientFunds(t *testing.T) {
	l := openTestLedger(t)
	ctx := t.Context()
	resetPlayer(t, l, "ledger_broke")
	if _, err := l.Grant(ctx, "ledger_broke", 3); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := l.Wager(ctx, "ledger_broke", 10); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Wager err = %v, want ErrInsufficientFunds", err)
	}
	// Balance untouched by the failed precondition.
	bal, err := l.Balance(ctx, "ledger_broke")
	if err != nil || bal != 3 {
		t.Errorf("balance after failed wager = %d, %v; want 3, nil", bal, err)
	}
}

func TestAllInUsesFullBalance(t *testing.T) {
	l := openTestLedger(t)
	ctx := t.Context()
	resetPlayer(t, l, "ledger_allin")
	if _, err := l.Grant(ctx, "ledger_allin", 64); err != nil {
		t.Fatalf("seed: %v", err)
	}
	l.Roll = func() float64 { return 0.9 } // lose

	res, err := l.AllIn(ctx, "ledger_allin")
	if err != nil {
		t.Fatalf("all in: %v", err)
	}
	if res.Bet != 64 {
		t.Errorf("bet = %d, want full balance 64", res.Bet)
	}
	if res.Balance != 0 {
		t.Errorf("balance = %d, want 0", res.Balance)
	}
}

func TestAllInEmptyBalance(t *testing.T) {
	l := openTestLedger(t)
	resetPlayer(t, l, "ledger_empty")

	if _, err := l.AllIn(t.Context(), "ledger_empty"); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("AllIn err = %v, want ErrInsufficientFunds", err)
	}
}
