package hardware

import (
	"context"
	"sync/atomic"

	"github.com/san-kum/punchcard/internal/grid"
)

// Null accepts everything and drives nothing.
type Null struct {
	connected atomic.Bool
	events    atomic.Uint64
}

func NewNull() *Null { return &Null{} }

func (n *Null) Name() string                      { return "null" }
func (n *Null) Available() bool                   { return n.connected.Load() }
func (n *Null) Connect(ctx context.Context) error { n.connected.Store(true); return nil }
func (n *Null) Disconnect() error                 { n.connected.Store(false); return nil }
func (n *Null) Start() error                      { return nil }
func (n *Null) Stop() error                       { return nil }

func (n *Null) OnGridEvent(ev grid.Event) error {
	n.events.Add(1)
	return nil
}

// Events counts notifications received.
func (n *Null) Events() uint64 { return n.events.Load() }
