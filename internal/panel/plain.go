package panel

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// gridEvery limits how often the plain loop reprints the whole grid.
const gridEvery = time.Second

// plainLoop is the fallback renderer: sequential lines on the output, fed
// from the same inbox as the terminal UI, so nothing queued before the
// switch is lost.
func (r *Renderer) plainLoop(ctx context.Context) {
	var c cursor
	var lastGrid time.Time
	pendingGrid := false
	ticker := time.NewTicker(r.opts.TickRate)
	defer ticker.Stop()

	flush := func(final bool) {
		u := r.box.collect(&c)
		pendingGrid = pendingGrid || u.grid != nil
		printGrid := pendingGrid && (final || time.Since(lastGrid) >= gridEvery)
		if u.empty() && !printGrid {
			return
		}
		var b strings.Builder
		if u.missed > 0 {
			fmt.Fprintf(&b, "%s WARN  %d log lines dropped\n", time.Now().Format("15:04:05"), u.missed)
		}
		for _, e := range u.fresh {
			writeEntry(&b, e)
		}
		if u.statNew && u.status != "" {
			fmt.Fprintf(&b, "» %s", u.status)
			if u.progress > 0 {
				fmt.Fprintf(&b, " %3.0f%%", u.progress*100)
			}
			b.WriteByte('\n')
		}
		if printGrid {
			g := GetGlyphs(r.opts.Glyphs)
			b.WriteString(r.box.snapshot().Format(g.On, g.Off))
			b.WriteByte('\n')
			lastGrid = time.Now()
			pendingGrid = false
		}
		io.WriteString(r.opts.Output, b.String())
	}

	for {
		select {
		case <-ctx.Done():
			flush(true)
			return
		case <-ticker.C:
			flush(false)
		}
	}
}

func writeEntry(b *strings.Builder, e Entry) {
	fmt.Fprintf(b, "%s %-5s %s\n", e.Time.Format("15:04:05"), e.Level, e.Text)
}
