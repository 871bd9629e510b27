package config

import (
	"sort"
	"time"
)

// Presets are named timing profiles selectable with --preset.
var Presets = map[string]Timing{
	"standard": DefaultTiming(),
	"fast": {
		LEDDelay: 10 * time.Millisecond, MessageDelay: 200 * time.Millisecond,
		CompletionDelay: time.Second, ReceiveDuration: 500 * time.Millisecond, ReceiveSteps: 20,
		TransitionSteps: 20, TransitionDelay: 10 * time.Millisecond, PostSaveDelay: 200 * time.Millisecond,
		ThinkingDelay: 500 * time.Millisecond, IdleMin: time.Second, IdleMax: 3 * time.Second, RandomIdle: true,
	},
	"debug": {
		LEDDelay: 5 * time.Millisecond, MessageDelay: 100 * time.Millisecond,
		CompletionDelay: 2 * time.Second, ReceiveDuration: 200 * time.Millisecond, ReceiveSteps: 20,
		TransitionSteps: 10, TransitionDelay: 5 * time.Millisecond, PostSaveDelay: 100 * time.Millisecond,
		ThinkingDelay: 200 * time.Millisecond, IdleMin: 500 * time.Millisecond, IdleMax: 500 * time.Millisecond,
		Debug: true,
	},
	"instant": {
		ReceiveSteps: 20, TransitionSteps: 4,
	},
}

func GetPreset(name string) (Timing, bool) {
	t, ok := Presets[name]
	return t, ok
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
