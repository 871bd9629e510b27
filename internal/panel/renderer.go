package panel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"

	"github.com/san-kum/punchcard/internal/grid"
)

var (
	// ErrFallback is logged when the terminal UI gives way to plain output.
	ErrFallback = errors.New("panel: terminal unsuitable, using plain output")

	ErrStopTimeout = errors.New("panel: render loop did not stop in time")
)

const (
	defaultStopTimeout = 2 * time.Second
	// room for borders, row labels, status, log pane and help
	chromeWidth  = 8
	chromeHeight = 12
)

type Options struct {
	Title    string
	Rows     int
	Cols     int
	Glyphs   string
	Theme    string
	Color    bool
	MaxLogs  int
	TickRate time.Duration

	Input  io.Reader
	Output io.Writer

	// ForceFallback skips the terminal UI entirely.
	ForceFallback bool
	// CatchSignals stops the renderer, restoring the terminal, when one of
	// Signals arrives. Handlers installed elsewhere with signal.Notify still
	// receive the signal themselves.
	CatchSignals bool
	// Signals defaults to SIGINT and SIGTERM.
	Signals []os.Signal
	// Reraise resets the caught signal to its default action after cleanup
	// and sends it again, so the process ends as it would have without the
	// renderer. Leave it off when the caller handles the signal itself.
	Reraise bool
	// OnQuit runs when the user quits from the keyboard.
	OnQuit func()
}

// Renderer draws the grid, a bounded log and a status line. Producers on
// any goroutine feed it through PushSnapshot, PushCell, Log, SetStatus and
// SetProgress; the render loop picks the changes up on its next tick.
type Renderer struct {
	opts Options
	box  *inbox

	fallback atomic.Bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	program *tea.Program
	source  *grid.Store
	sigCh   chan os.Signal
}

func New(opts Options) *Renderer {
	if opts.Rows <= 0 {
		opts.Rows = grid.DefaultRows
	}
	if opts.Cols <= 0 {
		opts.Cols = grid.DefaultCols
	}
	if opts.MaxLogs <= 0 {
		opts.MaxLogs = 200
	}
	if opts.TickRate <= 0 {
		opts.TickRate = 50 * time.Millisecond
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Title == "" {
		opts.Title = "punchcard"
	}
	if len(opts.Signals) == 0 {
		opts.Signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	return &Renderer{opts: opts, box: newInbox(opts.Rows, opts.Cols, opts.MaxLogs)}
}

func (r *Renderer) PushSnapshot(m grid.Matrix) { r.box.pushSnapshot(m) }

func (r *Renderer) PushCell(row, col int, on bool) { r.box.pushCell(row, col, on) }

func (r *Renderer) Log(level Level, text string) {
	r.box.appendLog(Entry{Time: time.Now(), Level: level, Text: text})
}

func (r *Renderer) Logf(level Level, format string, args ...any) {
	r.Log(level, fmt.Sprintf(format, args...))
}

// SetStatus replaces the status line. A non-empty status shows the spinner.
func (r *Renderer) SetStatus(text string) { r.box.setStatus(text, text != "") }

func (r *Renderer) SetProgress(p float64) { r.box.setProgress(p) }

// Logs returns the retained log entries, oldest first.
func (r *Renderer) Logs() []Entry { return r.box.retained() }

// Grid returns the renderer's current copy of the lamps.
func (r *Renderer) Grid() grid.Matrix { return r.box.snapshot() }

func (r *Renderer) Fallback() bool { return r.fallback.Load() }

// Attach subscribes the renderer to a store and copies its current state.
func (r *Renderer) Attach(store *grid.Store) *grid.Subscription {
	r.mu.Lock()
	r.source = store
	r.mu.Unlock()
	r.PushSnapshot(store.Snapshot())
	return store.Subscribe(r)
}

// OnGridEvent mirrors single cells directly and re-reads the source for
// column, row and bulk events.
func (r *Renderer) OnGridEvent(ev grid.Event) error {
	if ev.Kind() == grid.KindCell {
		r.PushCell(ev.Row, ev.Col, ev.State)
		return nil
	}
	r.mu.Lock()
	src := r.source
	r.mu.Unlock()
	if src != nil {
		r.PushSnapshot(src.Snapshot())
	}
	return nil
}

// Start launches the render loop. It returns once the loop is running; a
// terminal that cannot host the UI is not an error, the loop falls back to
// plain output instead.
func (r *Renderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true

	useTUI := !r.opts.ForceFallback && r.terminalFits()
	if useTUI {
		r.program = tea.NewProgram(newModel(r),
			tea.WithContext(ctx),
			tea.WithInput(r.opts.Input),
			tea.WithOutput(r.opts.Output),
			tea.WithAltScreen(),
			tea.WithoutSignalHandler(),
		)
	} else {
		r.fallback.Store(true)
	}
	if r.opts.CatchSignals {
		r.sigCh = make(chan os.Signal, 1)
		signal.Notify(r.sigCh, r.opts.Signals...)
		go r.watchSignals(r.sigCh)
	}
	go r.run(ctx, r.program, r.done)
	return nil
}

func (r *Renderer) terminalFits() bool {
	f, ok := r.opts.Output.(*os.File)
	if !ok || !term.IsTerminal(f.Fd()) {
		return false
	}
	w, h, err := term.GetSize(f.Fd())
	if err != nil {
		return false
	}
	return w >= r.opts.Cols+chromeWidth && h >= r.opts.Rows+chromeHeight
}

func (r *Renderer) run(ctx context.Context, p *tea.Program, done chan<- struct{}) {
	defer close(done)
	if p != nil {
		_, err := p.Run()
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			if r.opts.OnQuit != nil {
				r.opts.OnQuit()
			}
			return
		}
		r.fallback.Store(true)
		r.Logf(LevelWarning, "%v: %v", ErrFallback, err)
	}
	r.plainLoop(ctx)
}

// Stop ends the render loop and waits for the terminal to be restored.
// Safe to call more than once.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	cancel, done, p, sigCh := r.cancel, r.done, r.program, r.sigCh
	r.program, r.sigCh = nil, nil
	r.mu.Unlock()

	if sigCh != nil {
		signal.Stop(sigCh)
		close(sigCh)
	}
	if p != nil {
		p.Quit()
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-time.After(defaultStopTimeout):
		if p != nil {
			p.Kill()
		}
		return ErrStopTimeout
	}
}

func (r *Renderer) watchSignals(ch <-chan os.Signal) {
	sig, ok := <-ch
	if !ok {
		return
	}
	_ = r.Stop()
	if !r.opts.Reraise {
		return
	}
	// every Notify channel already got sig once; only the default action
	// is left to run
	signal.Reset(sig)
	if proc, err := os.FindProcess(os.Getpid()); err == nil {
		_ = proc.Signal(sig)
	}
}
