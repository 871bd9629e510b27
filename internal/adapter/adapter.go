// Package adapter makes a display object that keeps its own lamp state
// observable through a grid.Store, without that object knowing the store
// exists.
package adapter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/punchcard/internal/grid"
	"github.com/san-kum/punchcard/internal/hollerith"
)

// Display is a target with hookable mutation entry points.
type Display interface {
	SetCell(row, col int, on bool)
	Clear()
}

// GridSource exposes a target's internal lamp matrix.
type GridSource interface {
	Cells() [][]bool
}

// MessageSource exposes only the text a target currently shows.
type MessageSource interface {
	CurrentMessage() string
}

type Strategy string

const (
	StrategyMirror      Strategy = "mirror"
	StrategyPollGrid    Strategy = "poll-grid"
	StrategyPollMessage Strategy = "poll-message"
)

var ErrUnknownStrategy = errors.New("adapter: unknown strategy")

func Strategies() []Strategy {
	return []Strategy{StrategyMirror, StrategyPollGrid, StrategyPollMessage}
}

// ParseStrategy accepts a strategy name; anything else yields
// StrategyMirror together with ErrUnknownStrategy.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	switch s {
	case StrategyMirror, StrategyPollGrid, StrategyPollMessage:
		return s, nil
	case "":
		return StrategyMirror, nil
	}
	return StrategyMirror, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Mirrored forwards every call to the wrapped target and then to the store.
type Mirrored struct {
	target Display
	store  *grid.Store
}

// Mirror wraps target so that each mutation is also applied to store.
// A nil target still updates the store.
func Mirror(target Display, store *grid.Store) *Mirrored {
	return &Mirrored{target: target, store: store}
}

func (m *Mirrored) SetCell(row, col int, on bool) {
	if m.target != nil {
		m.target.SetCell(row, col, on)
	}
	m.store.SetCell(row, col, on)
}

func (m *Mirrored) Clear() {
	if m.target != nil {
		m.target.Clear()
	}
	m.store.Clear()
}

// Target returns the wrapped display.
func (m *Mirrored) Target() Display { return m.target }

// Link is a target connected to a store by one strategy.
type Link struct {
	Strategy Strategy
	// Display is set for StrategyMirror and must be used in place of the
	// original target.
	Display Display
	Poller  *Poller
}

// Bind connects target to store. Mirroring needs a Display; the polling
// strategies accept any target and degrade to a no-op poller when it lacks
// the matching accessor.
func Bind(s Strategy, target any, store *grid.Store, table *hollerith.Table, opts Options) (*Link, error) {
	switch s {
	case StrategyMirror:
		d, ok := target.(Display)
		if !ok {
			return nil, fmt.Errorf("adapter: %T has no SetCell/Clear to mirror", target)
		}
		return &Link{Strategy: s, Display: Mirror(d, store)}, nil
	case StrategyPollGrid:
		src, _ := target.(GridSource)
		p := NewGridPoller(store, src, opts)
		p.StartMonitoring()
		return &Link{Strategy: s, Poller: p}, nil
	case StrategyPollMessage:
		src, _ := target.(MessageSource)
		p := NewMessagePoller(store, src, table, opts)
		p.StartMonitoring()
		return &Link{Strategy: s, Poller: p}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Sync forces one diff pass for polling links.
func (l *Link) Sync() {
	if l.Poller != nil {
		l.Poller.Poll()
	}
}

func (l *Link) Close() error {
	if l.Poller != nil {
		return l.Poller.StopMonitoring()
	}
	return nil
}
