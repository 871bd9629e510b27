package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Rows != 12 || cfg.Cols != 80 {
		t.Errorf("expected 12x80 grid, got %dx%d", cfg.Rows, cfg.Cols)
	}
	if cfg.Backend.Type != "simulated" {
		t.Errorf("expected simulated backend, got %s", cfg.Backend.Type)
	}
	if changed := cfg.Clamp(); len(changed) != 0 {
		t.Errorf("defaults should already be in range, clamped %v", changed)
	}
}

func TestClampTiming(t *testing.T) {
	tm := DefaultTiming()
	tm.LEDDelay = -time.Second
	tm.ReceiveSteps = 0
	tm.TransitionSteps = 10000
	tm.IdleMin = 10 * time.Second
	tm.IdleMax = time.Second

	changed := tm.Clamp()

	if tm.LEDDelay != 0 {
		t.Errorf("expected led delay 0, got %v", tm.LEDDelay)
	}
	if tm.ReceiveSteps != 1 {
		t.Errorf("expected receive steps 1, got %d", tm.ReceiveSteps)
	}
	if tm.TransitionSteps != MaxSteps {
		t.Errorf("expected transition steps %d, got %d", MaxSteps, tm.TransitionSteps)
	}
	if tm.IdleMax != tm.IdleMin {
		t.Errorf("expected idle max raised to idle min, got %v", tm.IdleMax)
	}
	if len(changed) != 4 {
		t.Errorf("expected 4 clamped fields, got %v", changed)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "punchcard.yaml")
	data := []byte("backend:\n  type: gpio\n  hz: 1000\ntiming:\n  led_delay: 20ms\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, clamped, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Backend.Type != "gpio" {
		t.Errorf("expected gpio, got %s", cfg.Backend.Type)
	}
	if cfg.Backend.Hz != MaxBackendHz {
		t.Errorf("expected hz clamped to %d, got %d", MaxBackendHz, cfg.Backend.Hz)
	}
	if cfg.Timing.LEDDelay != 20*time.Millisecond {
		t.Errorf("expected 20ms, got %v", cfg.Timing.LEDDelay)
	}
	if cfg.Timing.ThinkingDelay != DefaultThinkingDelay {
		t.Errorf("unset keys should keep defaults, got %v", cfg.Timing.ThinkingDelay)
	}
	if len(clamped) != 1 || clamped[0] != "backend.hz" {
		t.Errorf("expected backend.hz clamped, got %v", clamped)
	}
}

func TestLoadNullBackendType(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bare null", "backend:\n  type: null\n", "null"},
		{"quoted null", "backend:\n  type: \"null\"\n", "null"},
		{"tilde", "backend:\n  type: ~\n", "null"},
		{"upper case", "backend:\n  type: NULL\n  hz: 10\n", "null"},
		{"empty keeps default", "backend:\n  type:\n", "simulated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "punchcard.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			cfg, _, err := Load(path)
			if err != nil {
				t.Fatalf("load failed: %v", err)
			}
			if cfg.Backend.Type != tt.want {
				t.Errorf("expected %q, got %q", tt.want, cfg.Backend.Type)
			}
		})
	}
}

func TestSaveLoadKeepsNullBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "punchcard.yaml")
	cfg := DefaultConfig()
	cfg.Backend.Type = "null"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, _, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Backend.Type != "null" {
		t.Errorf("expected null backend after round trip, got %q", got.Backend.Type)
	}
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	dir := t.TempDir()

	cfg := LoadOrDefault(filepath.Join(dir, "missing.yaml"), nil)
	if cfg.Backend.Type != "simulated" {
		t.Errorf("missing file should give defaults, got %s", cfg.Backend.Type)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("rows: [not, a, number"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(bad); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
	cfg = LoadOrDefault(bad, nil)
	if cfg.Rows != DefaultRows {
		t.Errorf("malformed file should give defaults, got rows=%d", cfg.Rows)
	}
}

func TestSaveLoadKeepsDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.Timing.ThinkingDelay = 1500 * time.Millisecond

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, _, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Timing.ThinkingDelay != 1500*time.Millisecond {
		t.Errorf("expected 1.5s, got %v", loaded.Timing.ThinkingDelay)
	}
}

func TestCompletionHold(t *testing.T) {
	tm := DefaultTiming()
	if tm.CompletionHold() != DefaultCompletionDelay {
		t.Errorf("expected full hold, got %v", tm.CompletionHold())
	}
	tm.Debug = true
	if tm.CompletionHold() != DefaultCompletionDelay/10 {
		t.Errorf("expected shortened hold, got %v", tm.CompletionHold())
	}
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != 4 {
		t.Errorf("expected 4 presets, got %v", names)
	}
	tm, ok := GetPreset("instant")
	if !ok {
		t.Fatal("expected instant preset")
	}
	if tm.LEDDelay != 0 || tm.ReceiveSteps != 20 {
		t.Errorf("unexpected instant preset %+v", tm)
	}
	if _, ok := GetPreset("nonexistent"); ok {
		t.Error("expected no preset")
	}
	for _, name := range names {
		p, _ := GetPreset(name)
		if changed := p.Clamp(); len(changed) != 0 {
			t.Errorf("preset %s out of range: %v", name, changed)
		}
	}
}
