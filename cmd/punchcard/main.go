package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile  string
	preset      string
	backendType string
	backendFile string
	historyDir  string
	logLevel    string
	logFile     string
	journal     bool
	noPanel     bool
	glyphs      string
	theme       string
	strategy    string
	feedFile    string
	shuffle     bool
	limit       int
	seed        int64
	replaySeq   int
	svgOut      string
	jsonOut     string
)

// main registers the punchcard commands and runs the selected one, exiting
// with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "punchcard",
		Short:         "punch card lamp display",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "timing preset (standard, fast, debug, instant)")
	pf.StringVar(&backendType, "backend", "", "lamp backend (null, simulated, gpio)")
	pf.StringVar(&backendFile, "backend-config", "", "yaml file with a backend section")
	pf.StringVar(&historyDir, "data", "", "history directory")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "write logs to this file")
	pf.BoolVar(&journal, "journal", false, "also log to the systemd journal")
	pf.BoolVar(&noPanel, "no-panel", false, "disable the terminal panel")
	pf.StringVar(&glyphs, "glyphs", "", "lamp glyphs (block, circle, square, ascii, hole, dot)")
	pf.StringVar(&theme, "theme", "", "panel theme")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "show messages from the feed until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runFeed,
	}
	runCmd.Flags().StringVar(&feedFile, "feed", "", "file with one message per line")
	runCmd.Flags().BoolVar(&shuffle, "shuffle", false, "shuffle the feed")
	runCmd.Flags().IntVar(&limit, "limit", 0, "stop after this many messages")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "shuffle and idle seed (0 = time based)")

	showCmd := &cobra.Command{
		Use:   "show [text]",
		Short: "show one message and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE:  showMessage,
	}

	encodeCmd := &cobra.Command{
		Use:   "encode [text]",
		Short: "print the punch card for text",
		Args:  cobra.MinimumNArgs(1),
		RunE:  encodeText,
	}
	encodeCmd.Flags().StringVar(&svgOut, "svg", "", "also write the card as svg")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "replay messages from history on a card",
		Args:  cobra.NoArgs,
		RunE:  replayHistory,
	}
	replayCmd.Flags().StringVar(&strategy, "strategy", "", "card adapter (mirror, poll-grid, poll-message)")
	replayCmd.Flags().IntVar(&replaySeq, "seq", 0, "replay only this message")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "list shown messages",
		Args:  cobra.NoArgs,
		RunE:  listHistory,
	}
	historyCmd.Flags().StringVar(&jsonOut, "json", "", "export history as json")

	backendsCmd := &cobra.Command{
		Use:   "backends",
		Short: "list backends, presets, glyphs and themes",
		Args:  cobra.NoArgs,
		RunE:  listBackends,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "configuration helpers",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default config",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(runCmd, showCmd, encodeCmd, replayCmd, historyCmd, backendsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
