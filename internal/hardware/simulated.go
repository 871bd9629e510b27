package hardware

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/san-kum/punchcard/internal/grid"
)

// Simulated stands in for a lamp board. It logs transitions, rate limited
// to one line per interval, and can forward snapshots to a Sink.
type Simulated struct {
	src      Source
	sink     Sink
	log      *slog.Logger
	interval time.Duration
	loop     *loop

	connected atomic.Bool
	pushing   atomic.Bool

	mu         sync.Mutex
	last       grid.Matrix
	lastLog    time.Time
	suppressed int
	frames     uint64
}

func NewSimulated(opts Options) *Simulated {
	s := &Simulated{
		src:      opts.Source,
		sink:     opts.Sink,
		log:      opts.logger().With("backend", "simulated"),
		interval: opts.Config.LogInterval,
	}
	s.loop = newLoop(opts.Config.Hz, func() { s.push(grid.KindBulk) })
	return s
}

func (s *Simulated) Name() string    { return "simulated" }
func (s *Simulated) Available() bool { return s.connected.Load() }

func (s *Simulated) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.connected.Store(true)
	s.log.Info("simulated lamp board connected")
	return nil
}

func (s *Simulated) Disconnect() error {
	err := s.Stop()
	if s.connected.Swap(false) {
		s.log.Info("simulated lamp board disconnected", "frames", s.Frames())
	}
	return err
}

func (s *Simulated) Start() error {
	if !s.connected.Load() {
		return ErrNotConnected
	}
	s.loop.start()
	return nil
}

func (s *Simulated) Stop() error { return s.loop.stop() }

func (s *Simulated) OnGridEvent(ev grid.Event) error {
	if !s.connected.Load() {
		return nil
	}
	s.push(ev.Kind())
	return nil
}

// Frames counts distinct snapshots pushed.
func (s *Simulated) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// push is idempotent: an unchanged snapshot is dropped, so the loop and
// the event path can both wake it. A push triggered from inside its own
// sink call returns immediately.
func (s *Simulated) push(kind grid.Kind) {
	if s.src == nil || !s.pushing.CompareAndSwap(false, true) {
		return
	}
	defer s.pushing.Store(false)

	snap := s.src.Snapshot()
	s.mu.Lock()
	if s.last != nil && s.last.Equal(snap) {
		s.mu.Unlock()
		return
	}
	changed := diffCount(s.last, snap)
	s.last = snap
	s.frames++
	now := time.Now()
	shouldLog := now.Sub(s.lastLog) >= s.interval
	suppressed := s.suppressed
	if shouldLog {
		s.lastLog = now
		s.suppressed = 0
	} else {
		s.suppressed++
	}
	s.mu.Unlock()

	if shouldLog {
		s.log.Debug("lamp transition",
			"kind", kind.String(),
			"changed", changed,
			"lit", snap.Lit(),
			"suppressed", suppressed)
	}
	if s.sink != nil {
		s.sink.PushSnapshot(snap.Clone())
	}
}

func diffCount(a, b grid.Matrix) int {
	n := 0
	for r := range b {
		for c := range b[r] {
			var prev bool
			if r < len(a) && c < len(a[r]) {
				prev = a[r][c]
			}
			if prev != b[r][c] {
				n++
			}
		}
	}
	return n
}
