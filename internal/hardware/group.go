package hardware

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/san-kum/punchcard/internal/grid"
)

// Group connects a set of backends to one store. Backends that fail to
// connect are left out; the rest keep running.
type Group struct {
	store    *grid.Store
	log      *slog.Logger
	backends []Backend

	mu     sync.Mutex
	active []Backend
	subs   []*grid.Subscription
	closed bool
}

func NewGroup(store *grid.Store, logger *slog.Logger, backends ...Backend) *Group {
	if logger == nil {
		logger = slog.Default()
	}
	return &Group{store: store, log: logger, backends: backends}
}

// Connect tries every backend, subscribes and starts those that connect,
// and returns how many are live. It fails only when ctx is done.
func (g *Group) Connect(ctx context.Context) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, b := range g.backends {
		if err := ctx.Err(); err != nil {
			return len(g.active), err
		}
		if err := b.Connect(ctx); err != nil {
			g.log.Warn("backend unavailable, continuing without it", "backend", b.Name(), "error", err)
			continue
		}
		if err := b.Start(); err != nil {
			g.log.Warn("backend failed to start", "backend", b.Name(), "error", err)
			_ = b.Disconnect()
			continue
		}
		g.subs = append(g.subs, g.store.Subscribe(b))
		g.active = append(g.active, b)
		g.log.Info("backend live", "backend", b.Name())
	}
	return len(g.active), nil
}

// Active returns the backends that connected.
func (g *Group) Active() []Backend {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Backend, len(g.active))
	copy(out, g.active)
	return out
}

// Close unsubscribes, stops and disconnects every live backend. Safe to
// call more than once.
func (g *Group) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	for _, sub := range g.subs {
		sub.Cancel()
	}
	var errs []error
	for _, b := range g.active {
		if err := b.Disconnect(); err != nil {
			errs = append(errs, err)
		}
	}
	g.subs, g.active = nil, nil
	return errors.Join(errs...)
}
