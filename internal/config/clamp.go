package config

import "time"

// Valid ranges for values read from disk.
const (
	MaxLEDDelay     = 2 * time.Second
	MaxShortDelay   = 30 * time.Second
	MaxLongDelay    = 10 * time.Minute
	MaxIdle         = 24 * time.Hour
	MaxSteps        = 400
	MinBackendHz    = 1
	MaxBackendHz    = 240
	MinMaxLogs      = 10
	MaxMaxLogs      = 10000
	MinTickRate     = 10 * time.Millisecond
	MaxTickRate     = time.Second
	MinPollInterval = 10 * time.Millisecond
	MaxPollInterval = 10 * time.Second
	MaxGridSize     = 256
)

func clampDur(v *time.Duration, lo, hi time.Duration, name string, out *[]string) {
	switch {
	case *v < lo:
		*v = lo
	case *v > hi:
		*v = hi
	default:
		return
	}
	*out = append(*out, name)
}

func clampInt(v *int, lo, hi int, name string, out *[]string) {
	switch {
	case *v < lo:
		*v = lo
	case *v > hi:
		*v = hi
	default:
		return
	}
	*out = append(*out, name)
}

func clampFloat(v *float64, lo, hi float64, name string, out *[]string) {
	switch {
	case *v < lo:
		*v = lo
	case *v > hi:
		*v = hi
	default:
		return
	}
	*out = append(*out, name)
}

// Clamp forces every timing value into its valid range and returns the
// names of the fields it changed.
func (t *Timing) Clamp() []string {
	var changed []string
	clampDur(&t.LEDDelay, 0, MaxLEDDelay, "timing.led_delay", &changed)
	clampDur(&t.MessageDelay, 0, MaxShortDelay, "timing.message_delay", &changed)
	clampDur(&t.CompletionDelay, 0, MaxLongDelay, "timing.completion_delay", &changed)
	clampDur(&t.ReceiveDuration, 0, MaxLongDelay, "timing.receive_duration", &changed)
	clampInt(&t.ReceiveSteps, 1, MaxSteps, "timing.receive_steps", &changed)
	clampInt(&t.TransitionSteps, 1, MaxSteps, "timing.transition_steps", &changed)
	clampDur(&t.TransitionDelay, 0, MaxLEDDelay, "timing.transition_delay", &changed)
	clampDur(&t.PostSaveDelay, 0, MaxLongDelay, "timing.post_save_delay", &changed)
	clampDur(&t.ThinkingDelay, 0, MaxLongDelay, "timing.thinking_delay", &changed)
	clampDur(&t.IdleMin, 0, MaxIdle, "timing.idle_min", &changed)
	clampDur(&t.IdleMax, t.IdleMin, MaxIdle, "timing.idle_max", &changed)
	return changed
}

// Clamp applies Timing.Clamp and the range checks of the other sections.
func (c *Config) Clamp() []string {
	var changed []string
	clampInt(&c.Rows, 1, MaxGridSize, "rows", &changed)
	clampInt(&c.Cols, 1, MaxGridSize, "cols", &changed)
	changed = append(changed, c.Timing.Clamp()...)
	clampInt(&c.Backend.Hz, MinBackendHz, MaxBackendHz, "backend.hz", &changed)
	clampFloat(&c.Backend.Brightness, 0, 1, "backend.brightness", &changed)
	clampDur(&c.Backend.LogInterval, 0, time.Minute, "backend.log_interval", &changed)
	clampInt(&c.Panel.MaxLogs, MinMaxLogs, MaxMaxLogs, "panel.max_logs", &changed)
	clampDur(&c.Panel.TickRate, MinTickRate, MaxTickRate, "panel.tick_rate", &changed)
	clampDur(&c.Adapter.Interval, MinPollInterval, MaxPollInterval, "adapter.interval", &changed)
	return changed
}

// CompletionHold is the Idle phase hold, shortened in debug mode.
func (t Timing) CompletionHold() time.Duration {
	if t.Debug {
		return t.CompletionDelay / 10
	}
	return t.CompletionDelay
}
