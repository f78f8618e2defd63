package bot

import (
	"context"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/coinbot/telemetry"
)

// Message carries the dispatch context for one command invocation.
type Message struct {
	Channel string
	Sender  string
	Args    []string
}

// HandlerFunc handles one command invocation. Returned errors are logged by
// the router; handlers own their user-visible error replies.
type HandlerFunc func(ctx context.Context, msg Message) error

// Router maps command names to handlers. The table is static after setup:
// handlers are registered once at construction and then only read, so
// Dispatch needs no locking.
type Router struct {
	handlers map[string]HandlerFunc
}

func NewRouter() *Router {
	return &Router{handlers: make(map[string]HandlerFunc)}
}

// Handle registers fn for the given command name (leading '!' included).
func (r *Router) Handle(name string, fn HandlerFunc) {
	r.handlers[name] = fn
}

// Commands returns the sorted list of registered command names.
func (r *Router) Commands() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch routes one parsed command to its handler and reports whether a
// handler existed. Unknown names are counted and otherwise ignored; that is
// a design choice, not an error.
func (r *Router) Dispatch(ctx context.Context, cmd Command, channel, sender string) bool {
	fn, ok := r.handlers[cmd.Name]
	if !ok {
		if telemetry.UnknownCommands != nil {
			telemetry.UnknownCommands.Inc()
		}
		return false
	}
	telemetry.CountCommand(cmd.Name)
	ctx, span := telemetry.StartSpan(ctx, "bot", "command "+cmd.Name,
		attribute.String("command", cmd.Name))
	defer span.End()

	msg := Message{Channel: channel, Sender: sender, Args: cmd.Args}
	var err error
	telemetry.TimeFunc(telemetry.CommandDuration, func() {
		err = fn(ctx, msg)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		slog.Error("command failed",
			slog.String("command", cmd.Name),
			slog.String("sender", sender),
			slog.Any("err", err))
	}
	return true
}
