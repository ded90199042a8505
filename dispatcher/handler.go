package dispatcher

import (
	"context"
	"sort"

	"github.com/weaveworks/pubbot/botapi"
	"github.com/weaveworks/pubbot/store"
	"github.com/weaveworks/pubbot/update"
)

// Handler reacts to one update. Handlers run concurrently with the other
// handlers bound to the same update and keep no state of their own between
// calls except through the store.
type Handler interface {
	Handle(ctx context.Context, u update.Update) error
}

// HandlerFunc is an adapter to allow the use of ordinary functions as Handlers.
type HandlerFunc func(ctx context.Context, u update.Update) error

// Handle calls f(ctx, u).
func (f HandlerFunc) Handle(ctx context.Context, u update.Update) error {
	return f(ctx, u)
}

// Deps are the collaborators injected into every handler.
type Deps struct {
	API   botapi.API
	Store store.Store
}

// Factory builds a handler once, when the registry is built.
type Factory func(Deps) Handler

// Binding ties a handler to an update kind. Patterns, when present, restrict
// a bot_command binding to those command tokens.
type Binding struct {
	Kind     update.Kind
	Name     string
	Handler  Handler
	patterns map[string]struct{}
}

// Patterns returns the command tokens the binding is restricted to, sorted.
func (b Binding) Patterns() []string {
	patterns := make([]string, 0, len(b.patterns))
	for p := range b.patterns {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)
	return patterns
}

// Matches reports whether u is eligible for this binding.
func (b Binding) Matches(u update.Update) bool {
	if u.Kind() != b.Kind {
		return false
	}
	if len(b.patterns) == 0 {
		return true
	}
	cmd, ok := u.(*update.BotCommand)
	if !ok {
		return false
	}
	_, ok = b.patterns[cmd.Command]
	return ok
}
