package panel

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/punchcard/internal/grid"
	"github.com/san-kum/punchcard/internal/hollerith"
)

const logPaneHeight = 6

type keyMap struct {
	Glyphs key.Binding
	Theme  key.Binding
	Color  key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Glyphs, k.Theme, k.Color, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var keys = keyMap{
	Glyphs: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "glyphs")),
	Theme:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
	Color:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "color")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type tickMsg time.Time

type model struct {
	r      *Renderer
	cursor cursor

	grid     grid.Matrix
	logs     []Entry
	status   string
	busy     bool
	progress float64

	// eased progress bar position
	shown    float64
	velocity float64
	spring   harmonica.Spring

	spinner  spinner.Model
	viewport viewport.Model
	help     help.Model

	glyph int
	theme int
	color bool

	width, height int
	dirty         bool
	cached        string
}

func newModel(r *Renderer) *model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	fps := int(time.Second / r.opts.TickRate)
	if fps < 1 {
		fps = 1
	}
	m := &model{
		r:        r,
		grid:     grid.NewMatrix(r.opts.Rows, r.opts.Cols),
		spring:   harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
		spinner:  sp,
		viewport: viewport.New(r.opts.Cols+chromeWidth, logPaneHeight),
		help:     help.New(),
		glyph:    glyphIndex(r.opts.Glyphs),
		theme:    themeIndex(r.opts.Theme),
		color:    r.opts.Color,
		width:    r.opts.Cols + chromeWidth,
		height:   r.opts.Rows + chromeHeight,
		dirty:    true,
	}
	return m
}

func (m *model) tick() tea.Cmd {
	return tea.Tick(m.r.opts.TickRate, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.spinner.Tick)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Glyphs):
			m.glyph = (m.glyph + 1) % len(GlyphSets)
		case key.Matches(msg, keys.Theme):
			m.theme = (m.theme + 1) % len(Themes)
		case key.Matches(msg, keys.Color):
			m.color = !m.color
		default:
			return m, nil
		}
		m.viewport.SetContent(m.renderLogs())
		m.dirty = true
		return m, nil
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = max(msg.Width-2, 1)
		m.viewport.SetContent(m.renderLogs())
		m.viewport.GotoBottom()
		m.dirty = true
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.busy {
			m.dirty = true
		}
		return m, cmd
	case tickMsg:
		m.apply(m.r.box.collect(&m.cursor))
		m.animate()
		return m, m.tick()
	}
	return m, nil
}

func (m *model) apply(u update) {
	if u.empty() {
		return
	}
	if u.grid != nil {
		m.grid = u.grid
	}
	if u.logs != nil {
		m.logs = u.logs
		m.viewport.SetContent(m.renderLogs())
		m.viewport.GotoBottom()
	}
	if u.statNew {
		m.status, m.busy, m.progress = u.status, u.busy, u.progress
	}
	m.dirty = true
}

func (m *model) animate() {
	if abs(m.shown-m.progress) < 0.001 && abs(m.velocity) < 0.001 {
		m.shown, m.velocity = m.progress, 0
		return
	}
	m.shown, m.velocity = m.spring.Update(m.shown, m.velocity, m.progress)
	m.dirty = true
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// View returns the cached frame unless something changed since it was drawn.
func (m *model) View() string {
	if !m.dirty && m.cached != "" {
		return m.cached
	}
	m.cached = m.render()
	m.dirty = false
	return m.cached
}

func (m *model) style(c lipgloss.Color) lipgloss.Style {
	if !m.color {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(c)
}

func (m *model) render() string {
	th := Themes[m.theme]
	border := lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	if m.color {
		border = border.BorderForeground(th.Border)
	}
	title := m.style(th.Title).Bold(true).Render(m.r.opts.Title)

	card := border.Render(m.renderGrid())
	logs := border.Render(m.viewport.View())
	status := m.renderStatus()
	helpLine := m.help.View(keys)

	return lipgloss.JoinVertical(lipgloss.Left, title, card, logs, status, helpLine)
}

// renderGrid styles runs of equal lamps in one call per run.
func (m *model) renderGrid() string {
	th := Themes[m.theme]
	g := GlyphSets[m.glyph]
	on, off := m.style(th.Lamp), m.style(th.Dark)
	label := m.style(th.Muted)

	var b strings.Builder
	for r, row := range m.grid {
		name := ""
		if r < len(hollerith.RowLabels) && len(m.grid) == hollerith.Rows {
			name = hollerith.RowLabels[r]
		}
		b.WriteString(label.Render(fmt.Sprintf("%2s ", name)))
		for c := 0; c < len(row); {
			end := c
			for end < len(row) && row[end] == row[c] {
				end++
			}
			if row[c] {
				b.WriteString(on.Render(strings.Repeat(g.On, end-c)))
			} else {
				b.WriteString(off.Render(strings.Repeat(g.Off, end-c)))
			}
			c = end
		}
		if r < len(m.grid)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// renderLogs wraps each entry to the pane width so long lines stay whole.
func (m *model) renderLogs() string {
	th := Themes[m.theme]
	wrap := lipgloss.NewStyle().Width(max(m.viewport.Width, 1))
	var b strings.Builder
	for i, e := range m.logs {
		var line strings.Builder
		lvl := m.style(th.Muted)
		switch e.Level {
		case LevelWarning:
			lvl = m.style(th.Warn)
		case LevelError:
			lvl = m.style(th.Error)
		}
		line.WriteString(m.style(th.Muted).Render(e.Time.Format("15:04:05")))
		line.WriteByte(' ')
		line.WriteString(lvl.Render(fmt.Sprintf("%-5s", e.Level)))
		line.WriteByte(' ')
		line.WriteString(m.style(th.Text).Render(e.Text))
		b.WriteString(wrap.Render(line.String()))
		if i < len(m.logs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m *model) renderStatus() string {
	th := Themes[m.theme]
	var b strings.Builder
	if m.busy {
		b.WriteString(m.spinner.View())
		b.WriteByte(' ')
	}
	b.WriteString(m.style(th.Text).Render(m.status))
	if m.shown > 0.001 {
		b.WriteByte(' ')
		b.WriteString(m.style(th.Lamp).Render(ProgressBar(m.shown, 30)))
		b.WriteString(m.style(th.Muted).Render(fmt.Sprintf(" %3.0f%%", m.progress*100)))
	}
	return b.String()
}

// ProgressBar draws a filled/empty bar of the given width.
func ProgressBar(percent float64, width int) string {
	filled := int(percent*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
