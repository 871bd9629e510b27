package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps YAML that does not decode into a Config.
var ErrInvalid = errors.New("config: invalid file")

const (
	DefaultRows            = 12
	DefaultCols            = 80
	DefaultLEDDelay        = 50 * time.Millisecond
	DefaultMessageDelay    = time.Second
	DefaultCompletionDelay = 5 * time.Second
	DefaultReceiveDuration = 2 * time.Second
	DefaultReceiveSteps    = 20
	DefaultTransitionSteps = 40
	DefaultTransitionDelay = 25 * time.Millisecond
	DefaultPostSaveDelay   = time.Second
	DefaultThinkingDelay   = 2 * time.Second
	DefaultIdleMin         = 5 * time.Second
	DefaultIdleMax         = 15 * time.Second
	DefaultBackendHz       = 30
	DefaultLogInterval     = time.Second
	DefaultMaxLogs         = 200
	DefaultTickRate        = 50 * time.Millisecond
	DefaultPollInterval    = 100 * time.Millisecond
)

type Config struct {
	Rows    int           `yaml:"rows"`
	Cols    int           `yaml:"cols"`
	Timing  Timing        `yaml:"timing"`
	Backend BackendConfig `yaml:"backend"`
	Panel   PanelConfig   `yaml:"panel"`
	Adapter AdapterConfig `yaml:"adapter"`
	History HistoryConfig `yaml:"history"`
	Feed    FeedConfig    `yaml:"feed"`
	Log     LogConfig     `yaml:"log"`
}

// Timing is the animation timing profile.
type Timing struct {
	LEDDelay        time.Duration `yaml:"led_delay"`
	MessageDelay    time.Duration `yaml:"message_delay"`
	CompletionDelay time.Duration `yaml:"completion_delay"`
	ReceiveDuration time.Duration `yaml:"receive_duration"`
	ReceiveSteps    int           `yaml:"receive_steps"`
	TransitionSteps int           `yaml:"transition_steps"`
	TransitionDelay time.Duration `yaml:"transition_delay"`
	PostSaveDelay   time.Duration `yaml:"post_save_delay"`
	ThinkingDelay   time.Duration `yaml:"thinking_delay"`
	IdleMin         time.Duration `yaml:"idle_min"`
	IdleMax         time.Duration `yaml:"idle_max"`
	RandomIdle      bool          `yaml:"random_idle"`
	Debug           bool          `yaml:"debug"`
}

type BackendConfig struct {
	Type        string        `yaml:"type"`
	Hz          int           `yaml:"hz"`
	Invert      bool          `yaml:"invert"`
	Brightness  float64       `yaml:"brightness"`
	LogInterval time.Duration `yaml:"log_interval"`
	GPIO        GPIOConfig    `yaml:"gpio"`
}

// UnmarshalYAML reads an unquoted `type: null` as the null backend rather
// than as an absent value.
func (b *BackendConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain BackendConfig
	if err := node.Decode((*plain)(b)); err != nil {
		return err
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if key.Value == "type" && val.Kind == yaml.ScalarNode && val.ShortTag() == "!!null" && val.Value != "" {
			b.Type = "null"
		}
	}
	return nil
}

// GPIOConfig names the line offsets of a shift-register LED chain.
type GPIOConfig struct {
	Chip   string `yaml:"chip"`
	Data   int    `yaml:"data"`
	Clock  int    `yaml:"clock"`
	Latch  int    `yaml:"latch"`
	Enable int    `yaml:"enable"`
	Layout string `yaml:"layout"`
}

type PanelConfig struct {
	Glyphs   string        `yaml:"glyphs"`
	Theme    string        `yaml:"theme"`
	Color    bool          `yaml:"color"`
	MaxLogs  int           `yaml:"max_logs"`
	TickRate time.Duration `yaml:"tick_rate"`
}

type AdapterConfig struct {
	Strategy string        `yaml:"strategy"`
	Interval time.Duration `yaml:"interval"`
}

type HistoryConfig struct {
	Dir string `yaml:"dir"`
}

type FeedConfig struct {
	File    string `yaml:"file"`
	Shuffle bool   `yaml:"shuffle"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Journal bool   `yaml:"journal"`
}

func DefaultTiming() Timing {
	return Timing{
		LEDDelay:        DefaultLEDDelay,
		MessageDelay:    DefaultMessageDelay,
		CompletionDelay: DefaultCompletionDelay,
		ReceiveDuration: DefaultReceiveDuration,
		ReceiveSteps:    DefaultReceiveSteps,
		TransitionSteps: DefaultTransitionSteps,
		TransitionDelay: DefaultTransitionDelay,
		PostSaveDelay:   DefaultPostSaveDelay,
		ThinkingDelay:   DefaultThinkingDelay,
		IdleMin:         DefaultIdleMin,
		IdleMax:         DefaultIdleMax,
		RandomIdle:      true,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Rows:   DefaultRows,
		Cols:   DefaultCols,
		Timing: DefaultTiming(),
		Backend: BackendConfig{
			Type:        "simulated",
			Hz:          DefaultBackendHz,
			Brightness:  1.0,
			LogInterval: DefaultLogInterval,
			GPIO: GPIOConfig{
				Chip:   "gpiochip0",
				Data:   17,
				Clock:  27,
				Latch:  22,
				Enable: 23,
				Layout: "row-major",
			},
		},
		Panel: PanelConfig{
			Glyphs:   "block",
			Theme:    "retro",
			Color:    true,
			MaxLogs:  DefaultMaxLogs,
			TickRate: DefaultTickRate,
		},
		Adapter: AdapterConfig{
			Strategy: "mirror",
			Interval: DefaultPollInterval,
		},
		History: HistoryConfig{Dir: ".punchcard"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads a YAML file over the defaults and clamps the result.
func Load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	return cfg, cfg.Clamp(), nil
}

// LoadOrDefault never fails: a missing or malformed file yields the
// defaults, and every substitution or clamp is logged as a warning.
func LoadOrDefault(path string, logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return DefaultConfig()
	}
	cfg, clamped, err := Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("config file not found, using defaults", "path", path)
		} else {
			logger.Warn("config unreadable, using defaults", "path", path, "error", err)
		}
		return DefaultConfig()
	}
	for _, field := range clamped {
		logger.Warn("config value clamped", "field", field)
	}
	return cfg
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
