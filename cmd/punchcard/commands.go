package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/punchcard/internal/adapter"
	"github.com/san-kum/punchcard/internal/card"
	"github.com/san-kum/punchcard/internal/config"
	"github.com/san-kum/punchcard/internal/export"
	"github.com/san-kum/punchcard/internal/feed"
	"github.com/san-kum/punchcard/internal/hardware"
	"github.com/san-kum/punchcard/internal/history"
	"github.com/san-kum/punchcard/internal/hollerith"
	"github.com/san-kum/punchcard/internal/panel"
)

// start loads the config and assembles the app under a context that ends
// on SIGINT, SIGTERM or a quit key in the panel.
func start(cmd *cobra.Command) (context.Context, *app, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(sigCtx)

	a, err := newApp(ctx, cfg, !noPanel, cancel)
	if err != nil {
		cancel()
		stopSignals()
		return nil, nil, nil, err
	}
	done := func() {
		if err := a.close(); err != nil {
			fmt.Fprintln(os.Stderr, "shutdown:", err)
		}
		cancel()
		stopSignals()
	}
	return ctx, a, done, nil
}

func runFeed(cmd *cobra.Command, args []string) error {
	ctx, a, done, err := start(cmd)
	if err != nil {
		return err
	}
	defer done()

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	var src feed.Source
	if a.cfg.Feed.File != "" {
		lines, err := feed.LoadLines(a.cfg.Feed.File, a.cfg.Feed.Shuffle, seed)
		if err != nil {
			return err
		}
		src = lines
	} else {
		src = feed.NewLines(feed.Builtin, a.cfg.Feed.Shuffle, seed)
	}

	d := &feed.Driver{
		Source: src,
		Shower: a.seq,
		Timing: a.cfg.Timing,
		Label:  "feed",
		Logger: a.logger,
		Limit:  limit,
		Rand:   rand.New(rand.NewSource(seed)),
	}
	a.logger.Info("display running", "backends", len(a.group.Active()), "limit", limit)
	return ignoreCancel(d.Run(ctx))
}

func showMessage(cmd *cobra.Command, args []string) error {
	ctx, a, done, err := start(cmd)
	if err != nil {
		return err
	}
	defer done()

	msg, err := a.seq.ShowMessage(ctx, strings.Join(args, " "), "cli")
	if err != nil {
		return ignoreCancel(err)
	}
	a.logger.Info("message shown", "seq", msg.Seq)
	return nil
}

func encodeText(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	table := hollerith.Standard()
	c := card.New(config.DefaultRows, config.DefaultCols, table)
	c.Punch(text)
	fmt.Print(c.Render())
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COL\tCHAR\tPUNCHES\tDESCRIPTION")
	for i, r := range []rune(c.CurrentMessage()) {
		p := table.Pattern(r)
		fmt.Fprintf(w, "%d\t%q\t%s\t%s\n", i+1, r, p.Code(), table.Describe(r))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if svgOut != "" {
		svg := export.CardToSVG(c.Cells(), c.CurrentMessage(), 10)
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", svgOut)
	}
	return nil
}

// replayHistory punches stored messages onto a card and lets the adapter
// carry the card's lamps into the store, backends and panel.
func replayHistory(cmd *cobra.Command, args []string) error {
	ctx, a, done, err := start(cmd)
	if err != nil {
		return err
	}
	defer done()

	msgs, err := a.history.List()
	if err != nil {
		return err
	}
	if replaySeq != 0 {
		m, err := a.history.GetMessage(replaySeq)
		if err != nil {
			return err
		}
		msgs = []history.Message{m}
	}
	if len(msgs) == 0 {
		a.logger.Warn("history is empty, nothing to replay", "dir", a.cfg.History.Dir)
		return nil
	}

	s, err := adapter.ParseStrategy(a.cfg.Adapter.Strategy)
	if err != nil {
		a.logger.Warn("unknown adapter strategy, mirroring", "error", err)
	}
	table := hollerith.Standard()
	c := card.New(a.cfg.Rows, a.cfg.Cols, table)
	link, err := adapter.Bind(s, c, a.store, table, adapter.Options{Interval: a.cfg.Adapter.Interval, Logger: a.logger})
	if err != nil {
		return err
	}
	defer link.Close()

	hold := a.cfg.Timing.CompletionHold()
	for _, m := range msgs {
		if err := ctx.Err(); err != nil {
			return nil
		}
		a.logger.Info("replaying", "seq", m.Seq, "strategy", string(s))
		if a.renderer != nil {
			a.renderer.SetStatus(fmt.Sprintf("replay #%d", m.Seq))
		}
		if link.Display != nil {
			link.Display.Clear()
			lamps := adapter.Render(table, m.Content, a.cfg.Rows, a.cfg.Cols)
			for r, row := range lamps {
				for col, on := range row {
					if on {
						link.Display.SetCell(r, col, true)
					}
				}
			}
		} else {
			c.Punch(m.Content)
			link.Sync()
		}
		if err := a.history.RecordDisplay(m.Seq); err != nil {
			a.logger.Warn("history record failed", "seq", m.Seq, "error", err)
		}

		timer := time.NewTimer(hold)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
	return nil
}

func listHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	msgs, err := history.New(cfg.History.Dir).List()
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		fmt.Println("no messages found")
		return nil
	}
	if jsonOut != "" {
		if err := export.HistoryJSON(jsonOut, msgs); err != nil {
			return err
		}
		fmt.Printf("exported %d messages to %s\n", len(msgs), jsonOut)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tSHOWN\tLAST\tSOURCE\tMESSAGE")
	counts := make([]float64, len(msgs))
	for i, m := range msgs {
		last := "-"
		if !m.LastDisplayed.IsZero() {
			last = m.LastDisplayed.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", m.Seq, m.DisplayCount, last, m.Source, strings.TrimRight(m.Content, " "))
		counts[i] = float64(m.DisplayCount)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(counts) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(counts,
			asciigraph.Height(8),
			asciigraph.Width(min(len(counts)*2, 80)),
			asciigraph.Caption("display count by message"),
		))
	}
	return nil
}

func listBackends(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "backends\t%s\n", strings.Join(hardware.Names(), ", "))
	fmt.Fprintf(w, "presets\t%s\n", strings.Join(config.ListPresets(), ", "))
	fmt.Fprintf(w, "glyphs\t%s\n", strings.Join(panel.GlyphNames(), ", "))
	fmt.Fprintf(w, "themes\t%s\n", strings.Join(panel.ThemeNames(), ", "))
	strategies := make([]string, 0, 3)
	for _, s := range adapter.Strategies() {
		strategies = append(strategies, string(s))
	}
	fmt.Fprintf(w, "strategies\t%s\n", strings.Join(strategies, ", "))
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := "punchcard.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	cfg := config.DefaultConfig()
	if preset != "" {
		t, ok := config.GetPreset(preset)
		if !ok {
			return fmt.Errorf("unknown preset %q", preset)
		}
		cfg.Timing = t
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
