package panel

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors of the panels.
type Theme struct {
	Name   string
	Lamp   lipgloss.Color
	Dark   lipgloss.Color
	Border lipgloss.Color
	Title  lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Warn   lipgloss.Color
	Error  lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:   "cyberpunk",
		Lamp:   lipgloss.Color("#ff00ff"),
		Dark:   lipgloss.Color("#333333"),
		Border: lipgloss.Color("#00ffff"),
		Title:  lipgloss.Color("#ffff00"),
		Text:   lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#666666"),
		Warn:   lipgloss.Color("#ff8800"),
		Error:  lipgloss.Color("#ff0000"),
	}

	// Green phosphor.
	ThemeRetro = Theme{
		Name:   "retro",
		Lamp:   lipgloss.Color("#00ff00"),
		Dark:   lipgloss.Color("#003300"),
		Border: lipgloss.Color("#00cc00"),
		Title:  lipgloss.Color("#88ff88"),
		Text:   lipgloss.Color("#00ff00"),
		Muted:  lipgloss.Color("#005500"),
		Warn:   lipgloss.Color("#ffff00"),
		Error:  lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:   "minimal",
		Lamp:   lipgloss.Color("#ffffff"),
		Dark:   lipgloss.Color("#444444"),
		Border: lipgloss.Color("#888888"),
		Title:  lipgloss.Color("#0088ff"),
		Text:   lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#888888"),
		Warn:   lipgloss.Color("#ffaa00"),
		Error:  lipgloss.Color("#ff0000"),
	}

	ThemeOcean = Theme{
		Name:   "ocean",
		Lamp:   lipgloss.Color("#00a8cc"),
		Dark:   lipgloss.Color("#113355"),
		Border: lipgloss.Color("#0077be"),
		Title:  lipgloss.Color("#ffd700"),
		Text:   lipgloss.Color("#e0f0ff"),
		Muted:  lipgloss.Color("#4488aa"),
		Warn:   lipgloss.Color("#ffcc00"),
		Error:  lipgloss.Color("#ff4444"),
	}

	// Warm amber lamps, closest to the incandescent bulbs of a real panel.
	ThemeSunset = Theme{
		Name:   "sunset",
		Lamp:   lipgloss.Color("#feca57"),
		Dark:   lipgloss.Color("#3d2b3e"),
		Border: lipgloss.Color("#ff6b6b"),
		Title:  lipgloss.Color("#ff9ff3"),
		Text:   lipgloss.Color("#fff5f5"),
		Muted:  lipgloss.Color("#8b6b8c"),
		Warn:   lipgloss.Color("#ffc048"),
		Error:  lipgloss.Color("#ff4757"),
	}

	Themes = []Theme{
		ThemeCyberpunk,
		ThemeRetro,
		ThemeMinimal,
		ThemeOcean,
		ThemeSunset,
	}
)

// GetTheme returns a theme by name, defaulting to retro.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeRetro
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func themeIndex(name string) int {
	for i, t := range Themes {
		if t.Name == name {
			return i
		}
	}
	return 1
}
