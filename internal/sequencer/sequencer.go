// Package sequencer animates messages onto the lamp grid: each character is
// encoded into a punch card column and typed out, then the card is held,
// "received", slid off to the left and cleared.
package sequencer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/san-kum/punchcard/internal/config"
	"github.com/san-kum/punchcard/internal/grid"
	"github.com/san-kum/punchcard/internal/history"
	"github.com/san-kum/punchcard/internal/hollerith"
)

// History records messages and how often they were shown.
type History interface {
	AddMessage(content, source string) (int, error)
	RecordDisplay(seq int) error
	GetMessage(seq int) (history.Message, error)
}

// Status receives the human readable state of the cycle, e.g. the panel
// renderer.
type Status interface {
	SetStatus(text string)
	SetProgress(p float64)
}

type Options struct {
	Store   *grid.Store
	Table   *hollerith.Table
	Timing  config.Timing
	History History
	Status  Status
	Logger  *slog.Logger
	// OnPhase is called on entry to every phase, on the caller's goroutine.
	OnPhase func(Phase, history.Message)
	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

type Sequencer struct {
	store   *grid.Store
	table   *hollerith.Table
	timing  config.Timing
	history History
	status  Status
	logger  *slog.Logger
	onPhase func(Phase, history.Message)
	sleep   func(ctx context.Context, d time.Duration) error

	// one message in flight at a time
	slot chan struct{}

	mu       sync.Mutex
	phase    Phase
	current  history.Message
	hasMsg   bool
	localSeq int
}

func New(opts Options) *Sequencer {
	if opts.Table == nil {
		opts.Table = hollerith.Standard()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	t := opts.Timing
	t.Clamp()
	return &Sequencer{
		store:   opts.Store,
		table:   opts.Table,
		timing:  t,
		history: opts.History,
		status:  opts.Status,
		logger:  opts.Logger,
		onPhase: opts.OnPhase,
		sleep:   opts.Sleep,
		slot:    make(chan struct{}, 1),
		phase:   PhaseThinking,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Phase returns the phase currently running, or the last one that ran.
// Before the first message it is Thinking.
func (s *Sequencer) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Current returns the message being shown, if any.
func (s *Sequencer) Current() (history.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.hasMsg
}

func (s *Sequencer) Timing() config.Timing { return s.timing }

// Clear blanks the grid without touching the phase.
func (s *Sequencer) Clear() { s.store.Clear() }

// DisplayCharacter writes the pattern of ch into column col.
func (s *Sequencer) DisplayCharacter(ch rune, col int) {
	s.store.SetColumn(col, s.table.Pattern(ch).Bools())
}

// ShowMessage runs text through the whole cycle and returns once the grid
// has been cleared again. Concurrent callers wait their turn; a caller
// never interrupts the message in flight. Cancelling ctx stops the cycle
// at the next step and leaves the grid as it was.
func (s *Sequencer) ShowMessage(ctx context.Context, text, source string) (history.Message, error) {
	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return history.Message{}, ctx.Err()
	}
	defer func() { <-s.slot }()

	msg := s.accept(text, source)
	steps := []func(context.Context, *history.Message) error{
		s.typing,
		s.idle,
		s.receiving,
		s.transitioning,
		s.thinking,
	}
	for i, step := range steps {
		s.enter(Phase(i), msg)
		if err := step(ctx, &msg); err != nil {
			s.logger.Debug("message interrupted", "seq", msg.Seq, "phase", Phase(i).String(), "error", err)
			return msg, err
		}
	}
	return msg, nil
}

// accept registers the message with the history, falling back to a local
// counter when there is none or it fails.
func (s *Sequencer) accept(text, source string) history.Message {
	content := string(hollerith.Fit(text, s.store.Cols()))
	msg := history.Message{Content: content, Source: source, GeneratedAt: time.Now()}

	if s.history != nil {
		seq, err := s.history.AddMessage(content, source)
		if err == nil {
			msg.Seq = seq
			if stored, err := s.history.GetMessage(seq); err == nil {
				msg = stored
			}
		} else {
			s.logger.Warn("history add failed", "error", err)
		}
	}

	s.mu.Lock()
	if msg.Seq == 0 {
		s.localSeq++
		msg.Seq = s.localSeq
	} else if msg.Seq > s.localSeq {
		s.localSeq = msg.Seq
	}
	s.current, s.hasMsg = msg, true
	s.mu.Unlock()

	s.logger.Info("message accepted", "seq", msg.Seq, "source", source)
	return msg
}

func (s *Sequencer) enter(p Phase, msg history.Message) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
	s.logger.Debug("phase", "phase", p.String(), "seq", msg.Seq)
	if s.onPhase != nil {
		s.onPhase(p, msg)
	}
}

func (s *Sequencer) setStatus(text string, progress float64) {
	if s.status == nil {
		return
	}
	s.status.SetStatus(text)
	s.status.SetProgress(progress)
}

func (s *Sequencer) progress(p float64) {
	if s.status != nil {
		s.status.SetProgress(p)
	}
}

// typing writes the message one column at a time.
func (s *Sequencer) typing(ctx context.Context, msg *history.Message) error {
	s.setStatus(fmt.Sprintf("typing #%d", msg.Seq), 0)
	if err := s.sleep(ctx, s.timing.MessageDelay); err != nil {
		return err
	}
	s.store.Clear()

	cols := s.store.Cols()
	for col, p := range s.table.Encode(msg.Content, cols) {
		s.store.SetColumn(col, p.Bools())
		s.progress(float64(col+1) / float64(cols))
		if err := s.sleep(ctx, s.timing.LEDDelay); err != nil {
			return err
		}
	}

	now := time.Now()
	msg.DisplayCount++
	msg.LastDisplayed = now
	if s.history != nil {
		if err := s.history.RecordDisplay(msg.Seq); err != nil {
			s.logger.Warn("history record failed", "seq", msg.Seq, "error", err)
		} else if stored, err := s.history.GetMessage(msg.Seq); err == nil {
			*msg = stored
		}
	}
	s.mu.Lock()
	s.current = *msg
	s.mu.Unlock()
	return nil
}

func (s *Sequencer) idle(ctx context.Context, msg *history.Message) error {
	s.setStatus("", 0)
	return s.sleep(ctx, s.timing.CompletionHold())
}

// receiving advances the progress bar without touching the grid.
func (s *Sequencer) receiving(ctx context.Context, msg *history.Message) error {
	s.setStatus("listening", 0)
	steps := max(s.timing.ReceiveSteps, 1)
	per := s.timing.ReceiveDuration / time.Duration(steps)
	for i := 1; i <= steps; i++ {
		s.progress(float64(i) / float64(steps))
		if err := s.sleep(ctx, per); err != nil {
			return err
		}
	}
	return nil
}

// transitioning slides the card off to the left: at progress p the grid is
// the typed card shifted by round(p*cols).
func (s *Sequencer) transitioning(ctx context.Context, msg *history.Message) error {
	s.setStatus("saving", 0)
	prior := s.store.Snapshot()
	cols := float64(s.store.Cols())
	steps := max(s.timing.TransitionSteps, 1)
	for i := 0; i < steps; i++ {
		p := float64(i) / float64(steps)
		s.store.SetRegion(prior.ShiftLeft(int(math.Round(p * cols))))
		s.progress(p)
		if err := s.sleep(ctx, s.timing.TransitionDelay); err != nil {
			return err
		}
	}
	s.progress(1)
	return s.sleep(ctx, s.timing.PostSaveDelay)
}

func (s *Sequencer) thinking(ctx context.Context, msg *history.Message) error {
	s.store.Clear()
	s.setStatus("thinking", 0)
	return s.sleep(ctx, s.timing.ThinkingDelay)
}
