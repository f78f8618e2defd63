// Package settings stores mutable operational flags in the kv table.
package settings

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/onnwee/coinbot/db"
)

const marketStateKey = "market_state"

// Market states. The dispatcher itself does not enforce the flag; it is
// read and written by the !market handler and surfaced on /status.
const (
	MarketOpen   = "open"
	MarketClosed = "close"
)

// Store reads and writes settings backed by the kv table.
type Store struct {
	DB *sql.DB
}

func NewStore(dbx *sql.DB) *Store {
	return &Store{DB: dbx}
}

// MarketState returns the current market flag; a never-written flag reads as closed.
func (s *Store) MarketState(ctx context.Context) (string, error) {
	v, err := db.GetKV(ctx, s.DB, marketStateKey)
	if err != nil {
		return "", fmt.Errorf("market state: %w", err)
	}
	if v == "" {
		return MarketClosed, nil
	}
	return v, nil
}

// SetMarketState writes the market flag. Only MarketOpen and MarketClosed are accepted.
func (s *Store) SetMarketState(ctx context.Context, state string) error {
	if state != MarketOpen && state != MarketClosed {
		return fmt.Errorf("invalid market state %q", state)
	}
	if err := db.SetKV(ctx, s.DB, marketStateKey, state); err != nil {
		return fmt.Errorf("set market state: %w", err)
	}
	return nil
}
