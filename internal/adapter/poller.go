package adapter

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/san-kum/punchcard/internal/grid"
	"github.com/san-kum/punchcard/internal/hollerith"
)

const (
	DefaultInterval    = 100 * time.Millisecond
	defaultStopTimeout = 2 * time.Second
)

var ErrStopTimeout = errors.New("adapter: poller did not stop in time")

type Options struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Poller periodically reads a target's lamps, diffs them against the last
// copy it saw and forwards only the changed cells to the store.
type Poller struct {
	store    *grid.Store
	read     func() grid.Matrix
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cache  grid.Matrix
	stopCh chan struct{}
	done   chan struct{}
}

func newPoller(store *grid.Store, read func() grid.Matrix, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Poller{store: store, read: read, interval: opts.Interval, logger: opts.Logger}
}

// NewGridPoller watches a target that exposes its matrix. A nil src gives a
// poller that does nothing.
func NewGridPoller(store *grid.Store, src GridSource, opts Options) *Poller {
	if src == nil {
		return newPoller(store, nil, opts)
	}
	return newPoller(store, func() grid.Matrix {
		return grid.Matrix(src.Cells()).Clone()
	}, opts)
}

// NewMessagePoller watches a target that only exposes its current text and
// re-derives the lamps from it with table.
func NewMessagePoller(store *grid.Store, src MessageSource, table *hollerith.Table, opts Options) *Poller {
	if src == nil {
		return newPoller(store, nil, opts)
	}
	if table == nil {
		table = hollerith.Standard()
	}
	rows, cols := store.Rows(), store.Cols()
	return newPoller(store, func() grid.Matrix {
		return Render(table, src.CurrentMessage(), rows, cols)
	}, opts)
}

// Render encodes text into a rows x cols matrix, one character per column.
func Render(table *hollerith.Table, text string, rows, cols int) grid.Matrix {
	m := grid.NewMatrix(rows, cols)
	for c, p := range table.Encode(text, cols) {
		for r := 0; r < rows && r < hollerith.Rows; r++ {
			m[r][c] = p[r]
		}
	}
	return m
}

// Noop reports whether the poller has no source to watch.
func (p *Poller) Noop() bool { return p.read == nil }

// Poll runs one diff pass and returns the number of cells forwarded.
func (p *Poller) Poll() int {
	if p.read == nil {
		return 0
	}
	next := p.read()

	p.mu.Lock()
	if p.cache == nil {
		p.cache = p.store.Snapshot()
	}
	type change struct {
		row, col int
		on       bool
	}
	var changes []change
	for r := range p.cache {
		for c := range p.cache[r] {
			v := r < len(next) && c < len(next[r]) && next[r][c]
			if p.cache[r][c] != v {
				p.cache[r][c] = v
				changes = append(changes, change{r, c, v})
			}
		}
	}
	p.mu.Unlock()

	for _, ch := range changes {
		p.store.SetCell(ch.row, ch.col, ch.on)
	}
	if len(changes) > 0 {
		p.logger.Debug("adapter forwarded changes", "cells", len(changes))
	}
	return len(changes)
}

// StartMonitoring launches the polling goroutine. It is a no-op when already
// running or when there is nothing to watch.
func (p *Poller) StartMonitoring() {
	if p.read == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopCh != nil {
		return
	}
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(p.stopCh, p.done)
}

func (p *Poller) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.Poll()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.Poll()
		}
	}
}

// StopMonitoring ends the polling goroutine and waits for it, at most two
// seconds. Safe to call more than once.
func (p *Poller) StopMonitoring() error {
	p.mu.Lock()
	stopCh, done := p.stopCh, p.done
	p.stopCh, p.done = nil, nil
	p.mu.Unlock()
	if stopCh == nil {
		return nil
	}
	close(stopCh)
	select {
	case <-done:
		return nil
	case <-time.After(defaultStopTimeout):
		return ErrStopTimeout
	}
}

func (p *Poller) Monitoring() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopCh != nil
}
