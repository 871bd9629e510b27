package hardware

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/warthog618/go-gpiocdev"

	"github.com/san-kum/punchcard/internal/config"
	"github.com/san-kum/punchcard/internal/grid"
)

// maxIOFailures consecutive write errors mark the board unavailable.
const maxIOFailures = 3

// Lines is the subset of *gpiocdev.Lines the GPIO backend drives. Values
// are ordered data, clock, latch, enable.
type Lines interface {
	SetValues(values []int) error
	Close() error
}

// Opener requests the output lines of a chip.
type Opener func(chip string, offsets []int) (Lines, error)

func requestLines(chip string, offsets []int) (Lines, error) {
	// Enable is active low: start with the output blanked.
	return gpiocdev.RequestLines(chip, offsets,
		gpiocdev.AsOutput(0, 0, 0, 1),
		gpiocdev.WithConsumer("punchcard"))
}

const (
	pinData = iota
	pinClock
	pinLatch
	pinEnable
)

// GPIO drives a chain of shift-register LEDs: one bit per lamp clocked out
// on the data line, then latched, like a single-colour HUB75 row.
type GPIO struct {
	cfg    config.GPIOConfig
	src    Source
	log    *slog.Logger
	open   Opener
	layout Layout
	loop   *loop

	invert     bool
	brightness atomic.Uint64 // percent, 0..100

	connected atomic.Bool
	available atomic.Bool

	mu       sync.Mutex
	lines    Lines
	rows     int
	cols     int
	frame    []bool
	pushed   []bool
	failures int
	writes   uint64
}

func NewGPIO(opts Options) *GPIO {
	rows, cols := grid.DefaultRows, grid.DefaultCols
	if opts.Source != nil {
		rows, cols = opts.Source.Rows(), opts.Source.Cols()
	}
	open := opts.Opener
	if open == nil {
		open = requestLines
	}
	g := &GPIO{
		cfg:    opts.Config.GPIO,
		src:    opts.Source,
		log:    opts.logger().With("backend", "gpio", "chip", opts.Config.GPIO.Chip),
		open:   open,
		layout: ParseLayout(opts.Config.GPIO.Layout),
		invert: opts.Config.Invert,
		rows:   rows,
		cols:   cols,
		frame:  make([]bool, rows*cols),
	}
	g.SetBrightness(opts.Config.Brightness)
	g.loop = newLoop(opts.Config.Hz, g.refresh)
	return g
}

func (g *GPIO) Name() string    { return "gpio" }
func (g *GPIO) Available() bool { return g.connected.Load() && g.available.Load() }

// SetBrightness stores a 0..1 scalar. Zero blanks the board through the
// enable line; anything above zero lights it at full duty.
func (g *GPIO) SetBrightness(b float64) {
	if b < 0 {
		b = 0
	}
	if b > 1 {
		b = 1
	}
	g.brightness.Store(uint64(b*100 + 0.5))
}

func (g *GPIO) Brightness() float64 { return float64(g.brightness.Load()) / 100 }

// Connect requests the lines. A missing chip is reported as
// ErrDeviceUnavailable and leaves the backend disconnected.
func (g *GPIO) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.connected.Load() {
		return nil
	}
	offsets := []int{g.cfg.Data, g.cfg.Clock, g.cfg.Latch, g.cfg.Enable}
	lines, err := g.open(g.cfg.Chip, offsets)
	if err != nil {
		g.log.Warn("gpio lines unavailable", "offsets", offsets, "error", err)
		return fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, g.cfg.Chip, err)
	}
	g.mu.Lock()
	g.lines = lines
	g.failures = 0
	g.pushed = nil
	g.mu.Unlock()
	g.connected.Store(true)
	g.available.Store(true)
	g.log.Info("gpio lamp board connected", "layout", string(g.layout), "offsets", offsets)
	return nil
}

func (g *GPIO) Disconnect() error {
	stopErr := g.Stop()
	if !g.connected.Swap(false) {
		return stopErr
	}
	g.available.Store(false)
	g.mu.Lock()
	lines := g.lines
	g.lines = nil
	g.mu.Unlock()
	if lines == nil {
		return stopErr
	}
	_ = lines.SetValues([]int{0, 0, 0, 1})
	if err := lines.Close(); err != nil {
		g.log.Warn("closing gpio lines", "error", err)
		return err
	}
	return stopErr
}

func (g *GPIO) Start() error {
	if !g.connected.Load() {
		return ErrNotConnected
	}
	g.loop.start()
	return nil
}

func (g *GPIO) Stop() error { return g.loop.stop() }

// OnGridEvent patches the private frame for cell, row and column events and
// reloads it from a snapshot for bulk ones, then shifts it out.
func (g *GPIO) OnGridEvent(ev grid.Event) error {
	if !g.Available() || g.src == nil {
		return nil
	}
	switch ev.Kind() {
	case grid.KindCell:
		g.mu.Lock()
		g.setLocked(ev.Row, ev.Col, ev.State)
		g.mu.Unlock()
	case grid.KindColumn:
		col := g.src.Column(ev.Col)
		g.mu.Lock()
		for r, v := range col {
			g.setLocked(r, ev.Col, v)
		}
		g.mu.Unlock()
	case grid.KindRow:
		row := g.src.Row(ev.Row)
		g.mu.Lock()
		for c, v := range row {
			g.setLocked(ev.Row, c, v)
		}
		g.mu.Unlock()
	default:
		g.load(g.src.Snapshot())
	}
	g.flush()
	return nil
}

func (g *GPIO) refresh() {
	if !g.Available() || g.src == nil {
		return
	}
	g.load(g.src.Snapshot())
	g.flush()
}

func (g *GPIO) load(m grid.Matrix) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for r, row := range m {
		for c, v := range row {
			g.setLocked(r, c, v)
		}
	}
}

func (g *GPIO) setLocked(row, col int, v bool) {
	if i := g.layout.Index(row, col, g.rows, g.cols); i >= 0 {
		g.frame[i] = v
	}
}

// Frame returns a copy of the chain bits in shift order.
func (g *GPIO) Frame() []bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]bool, len(g.frame))
	copy(out, g.frame)
	return out
}

// Writes counts frames shifted out.
func (g *GPIO) Writes() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.writes
}

// flush shifts the frame out unless it matches the last one written. Write
// errors are logged and counted; after maxIOFailures in a row the board is
// marked unavailable.
func (g *GPIO) flush() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lines == nil || equalBits(g.frame, g.pushed) {
		return
	}
	if err := g.shiftOutLocked(); err != nil {
		g.failures++
		g.log.Warn("gpio write failed", "error", err, "failures", g.failures)
		if g.failures >= maxIOFailures {
			g.available.Store(false)
			g.log.Error("gpio lamp board marked unavailable")
		}
		return
	}
	g.failures = 0
	g.writes++
	g.pushed = append(g.pushed[:0], g.frame...)
}

func (g *GPIO) shiftOutLocked() error {
	vals := []int{0, 0, 0, 1}
	set := func() error { return g.lines.SetValues(vals) }

	// Blank while shifting so the old frame does not smear.
	if err := set(); err != nil {
		return err
	}
	for i := len(g.frame) - 1; i >= 0; i-- {
		vals[pinData] = bit(g.frame[i] != g.invert)
		vals[pinClock] = 1
		if err := set(); err != nil {
			return err
		}
		vals[pinClock] = 0
		if err := set(); err != nil {
			return err
		}
	}
	vals[pinData] = 0
	vals[pinLatch] = 1
	if err := set(); err != nil {
		return err
	}
	vals[pinLatch] = 0
	if g.brightness.Load() > 0 {
		vals[pinEnable] = 0
	}
	return set()
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}

func equalBits(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
