package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/onnwee/coinbot/telemetry"
)

// Registry is the in-memory set of known chat participants, used to avoid
// duplicate player-creation calls. Usernames are case-normalized. Entries
// are never removed for the lifetime of the process.
type Registry struct {
	mu     sync.Mutex
	known  map[string]struct{}
	create func(ctx context.Context, username string) error
}

// NewRegistry returns a registry that invokes create at most once per
// first-seen username.
func NewRegistry(create func(ctx context.Context, username string) error) *Registry {
	return &Registry{
		known:  make(map[string]struct{}),
		create: create,
	}
}

// Warm seeds the registry with usernames already present in storage so they
// are never re-created. Call once before the chat client connects.
func (r *Registry) Warm(usernames []string) {
	r.mu.Lock()
	for _, name := range usernames {
		r.known[strings.ToLower(name)] = struct{}{}
	}
	size := len(r.known)
	r.mu.Unlock()
	telemetry.SetRegistrySize(size)
}

// Ensure records username as known and invokes the creation hook exactly
// once for a first sighting. The username is marked before the creation
// call runs, so a concurrent Ensure for the same name cannot trigger a
// second creation; on creation failure the mark is rolled back so a later
// event retries.
func (r *Registry) Ensure(ctx context.Context, username string) error {
	lower := strings.ToLower(username)
	r.mu.Lock()
	if _, ok := r.known[lower]; ok {
		r.mu.Unlock()
		return nil
	}
	r.known[lower] = struct{}{}
	size := len(r.known)
	r.mu.Unlock()
	telemetry.SetRegistrySize(size)

	if err := r.create(ctx, username); err != nil {
		r.mu.Lock()
		delete(r.known, lower)
		size = len(r.known)
		r.mu.Unlock()
		telemetry.SetRegistrySize(size)
		return fmt.Errorf("register participant %s: %w", username, err)
	}
	if telemetry.PlayersCreated != nil {
		telemetry.PlayersCreated.Inc()
	}
	return nil
}

// Size returns the number of known participants.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.known)
}
