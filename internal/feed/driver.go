package feed

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/san-kum/punchcard/internal/config"
	"github.com/san-kum/punchcard/internal/history"
)

// Shower is the part of the sequencer the driver needs.
type Shower interface {
	ShowMessage(ctx context.Context, text, source string) (history.Message, error)
}

// Driver pulls messages from a source and shows them one after another,
// waiting the generation delay between them.
type Driver struct {
	Source Source
	Shower Shower
	Timing config.Timing
	Label  string
	Logger *slog.Logger
	// Limit stops the driver after that many messages. Zero runs until ctx
	// is done.
	Limit int
	Rand  *rand.Rand
}

// Delay is the pause before the next message: uniform in [IdleMin, IdleMax]
// when RandomIdle is set, IdleMin otherwise.
func (d *Driver) Delay() time.Duration {
	t := d.Timing
	if !t.RandomIdle || t.IdleMax <= t.IdleMin {
		return t.IdleMin
	}
	span := int64(t.IdleMax - t.IdleMin)
	var n int64
	if d.Rand != nil {
		n = d.Rand.Int63n(span + 1)
	} else {
		n = rand.Int63n(span + 1)
	}
	return t.IdleMin + time.Duration(n)
}

// Run returns nil when Limit is reached or the source is exhausted, and
// ctx.Err() when cancelled.
func (d *Driver) Run(ctx context.Context) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	label := d.Label
	if label == "" {
		label = "feed"
	}

	for shown := 0; d.Limit == 0 || shown < d.Limit; shown++ {
		text, err := d.Source.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrEmpty) {
				logger.Info("feed exhausted", "shown", shown)
				return nil
			}
			return err
		}
		msg, err := d.Shower.ShowMessage(ctx, text, label)
		if err != nil {
			return err
		}
		logger.Info("message shown", "seq", msg.Seq, "count", msg.DisplayCount)

		if d.Limit != 0 && shown+1 >= d.Limit {
			break
		}
		wait := d.Delay()
		logger.Debug("waiting for next message", "delay", wait)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}
