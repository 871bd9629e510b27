package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/punchcard/internal/config"
	"github.com/san-kum/punchcard/internal/grid"
	"github.com/san-kum/punchcard/internal/hardware"
	"github.com/san-kum/punchcard/internal/history"
	"github.com/san-kum/punchcard/internal/logs"
	"github.com/san-kum/punchcard/internal/panel"
	"github.com/san-kum/punchcard/internal/sequencer"
)

// loadConfig reads the config file and lays the flags that were set on
// the command line over it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	boot := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg := config.LoadOrDefault(configFile, boot)

	if preset != "" {
		t, ok := config.GetPreset(preset)
		if !ok {
			return nil, fmt.Errorf("unknown preset %q (have %v)", preset, config.ListPresets())
		}
		cfg.Timing = t
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend.Type = backendType
	}
	if flags.Changed("data") {
		cfg.History.Dir = historyDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}
	if flags.Changed("journal") {
		cfg.Log.Journal = journal
	}
	if flags.Changed("glyphs") {
		cfg.Panel.Glyphs = glyphs
	}
	if flags.Changed("theme") {
		cfg.Panel.Theme = theme
	}
	if flags.Changed("strategy") {
		cfg.Adapter.Strategy = strategy
	}
	if flags.Changed("feed") {
		cfg.Feed.File = feedFile
	}
	if flags.Changed("shuffle") {
		cfg.Feed.Shuffle = shuffle
	}
	for _, field := range cfg.Clamp() {
		boot.Warn("config value clamped", "field", field)
	}
	return cfg, nil
}

// panelOutput is where the panel draws.
var panelOutput io.Writer = os.Stdout

// app is the assembled display: store, renderer, backends and sequencer.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *grid.Store
	renderer *panel.Renderer
	group    *hardware.Group
	history  *history.Store
	seq      *sequencer.Sequencer
	panelSub *grid.Subscription

	closers []func() error
}

// newApp wires everything up. With the panel enabled the logger writes only
// to the log pane (and the log file or journal) so the terminal stays
// clean.
func newApp(ctx context.Context, cfg *config.Config, withPanel bool, onQuit func()) (*app, error) {
	a := &app{cfg: cfg}

	if withPanel {
		a.renderer = panel.New(panel.Options{
			Rows:         cfg.Rows,
			Cols:         cfg.Cols,
			Glyphs:       cfg.Panel.Glyphs,
			Theme:        cfg.Panel.Theme,
			Color:        cfg.Panel.Color,
			MaxLogs:      cfg.Panel.MaxLogs,
			TickRate:     cfg.Panel.TickRate,
			Output:       panelOutput,
			CatchSignals: true,
			OnQuit:       onQuit,
		})
	}

	logOpts := logs.Options{Level: cfg.Log.Level, Journal: cfg.Log.Journal}
	switch {
	case cfg.Log.File != "":
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.closers = append(a.closers, f.Close)
		logOpts.Writer = f
	case !withPanel:
		logOpts.Writer = os.Stderr
	}
	if a.renderer != nil {
		logOpts.Handlers = append(logOpts.Handlers, panel.NewHandler(a.renderer, slog.LevelDebug))
	}
	a.logger, _ = logs.New(logOpts)
	slog.SetDefault(a.logger)

	a.store = grid.NewStore(cfg.Rows, cfg.Cols, a.logger)

	a.history = history.New(cfg.History.Dir)
	if err := a.history.Init(); err != nil {
		a.close()
		return nil, fmt.Errorf("history: %w", err)
	}

	opts := hardware.Options{Config: cfg.Backend, Source: a.store, Logger: a.logger}
	if a.renderer != nil {
		opts.Sink = a.renderer
	}
	var backend hardware.Backend
	if backendFile != "" {
		backend = hardware.NewFromFile(backendFile, opts)
	} else {
		backend = hardware.New(opts)
	}
	// the simulated board draws straight into the panel; anything else
	// leaves the panel to follow the store itself
	if a.renderer != nil && backend.Name() != "simulated" {
		a.panelSub = a.renderer.Attach(a.store)
	}

	a.group = hardware.NewGroup(a.store, a.logger, backend)
	n, err := a.group.Connect(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	if n == 0 {
		a.logger.Warn("no lamp backend available, panel only")
	}

	if a.renderer != nil {
		if err := a.renderer.Start(ctx); err != nil {
			a.close()
			return nil, err
		}
		if a.renderer.Fallback() {
			a.logger.Info("panel using plain output")
		}
	}

	var status sequencer.Status
	if a.renderer != nil {
		status = a.renderer
	}
	a.seq = sequencer.New(sequencer.Options{
		Store:   a.store,
		Timing:  cfg.Timing,
		History: a.history,
		Status:  status,
		Logger:  a.logger,
	})
	return a, nil
}

// close shuts down in reverse order of assembly and reports every error.
func (a *app) close() error {
	var errs []error
	if a.panelSub != nil {
		a.panelSub.Cancel()
	}
	if a.renderer != nil {
		errs = append(errs, a.renderer.Stop())
	}
	if a.group != nil {
		errs = append(errs, a.group.Close())
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
