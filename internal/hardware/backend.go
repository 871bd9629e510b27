package hardware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/punchcard/internal/config"
	"github.com/san-kum/punchcard/internal/grid"
)

var (
	// ErrNotConnected is returned by Start before a successful Connect.
	ErrNotConnected = errors.New("hardware: backend not connected")

	// ErrDeviceUnavailable reports that the device could not be opened.
	// It is a normal outcome, not a fault: the caller carries on without
	// this backend.
	ErrDeviceUnavailable = errors.New("hardware: device unavailable")

	// ErrStopTimeout reports a refresh loop that did not exit in time.
	ErrStopTimeout = errors.New("hardware: refresh loop did not stop in time")
)

// Backend reflects the lamp grid onto an external medium. Each backend owns
// a refresh loop that re-pushes the latest snapshot at a fixed rate, in
// addition to the event-driven updates it receives as a grid.Observer.
type Backend interface {
	grid.Observer
	Name() string
	Connect(ctx context.Context) error
	Disconnect() error
	Start() error
	Stop() error
	Available() bool
}

// Source is the read side of the grid store.
type Source interface {
	Rows() int
	Cols() int
	Snapshot() grid.Matrix
	Column(col int) []bool
	Row(row int) []bool
}

// Sink receives full snapshots, e.g. the panel renderer.
type Sink interface {
	PushSnapshot(m grid.Matrix)
}

// Options carries everything a backend constructor may need.
type Options struct {
	Config config.BackendConfig
	Source Source
	Logger *slog.Logger
	Sink   Sink
	// Opener overrides how GPIO lines are requested. Tests use it.
	Opener Opener
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

var registry = map[string]func(Options) Backend{
	"null":      func(o Options) Backend { return NewNull() },
	"simulated": func(o Options) Backend { return NewSimulated(o) },
	"gpio":      func(o Options) Backend { return NewGPIO(o) },
}

// Names lists the backend types New understands.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New picks a backend by opts.Config.Type. Empty or unknown types give the
// simulated backend.
func New(opts Options) Backend {
	kind := strings.ToLower(strings.TrimSpace(opts.Config.Type))
	fn, ok := registry[kind]
	if !ok {
		if kind != "" {
			opts.logger().Warn("unknown backend type, using simulated", "type", opts.Config.Type)
		}
		fn = registry["simulated"]
	}
	return fn(opts)
}

// NewFromFile reads a YAML backend section from path and builds the
// backend with New. Missing or malformed files give the simulated backend
// with default settings.
func NewFromFile(path string, opts Options) Backend {
	cfg, err := loadBackendConfig(path)
	if err != nil {
		opts.logger().Warn("backend config unusable, using simulated", "path", path, "error", err)
		opts.Config = config.DefaultConfig().Backend
		opts.Config.Type = "simulated"
		return New(opts)
	}
	opts.Config = cfg
	return New(opts)
}

func loadBackendConfig(path string) (config.BackendConfig, error) {
	cfg := config.DefaultConfig().Backend
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Type == "" {
		return cfg, fmt.Errorf("%s: missing backend type", path)
	}
	return cfg, nil
}
