package panel

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/punchcard/internal/grid"
)

// syncBuffer guards a bytes.Buffer against the plain loop writing while the
// test reads.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func newPlain(out *syncBuffer) *Renderer {
	return New(Options{
		Output:   out,
		Input:    strings.NewReader(""),
		Glyphs:   "ascii",
		TickRate: 5 * time.Millisecond,
		MaxLogs:  4,
	})
}

func TestFallbackWhenOutputIsNotTerminal(t *testing.T) {
	out := &syncBuffer{}
	r := newPlain(out)
	r.Log(LevelInfo, "queued before start")

	require.NoError(t, r.Start(context.Background()))
	require.True(t, r.Fallback())

	m := grid.NewMatrix(grid.DefaultRows, grid.DefaultCols)
	m[0][0] = true
	r.PushSnapshot(m)
	r.SetStatus("listening")
	r.SetProgress(0.5)
	r.Log(LevelWarning, "after start")

	require.NoError(t, r.Stop())

	text := out.String()
	require.Contains(t, text, "queued before start")
	require.Contains(t, text, "WARN  after start")
	require.Contains(t, text, "» listening  50%")
	require.Contains(t, text, "#"+strings.Repeat(".", grid.DefaultCols-1))
}

func TestStopIsIdempotent(t *testing.T) {
	r := newPlain(&syncBuffer{})
	require.NoError(t, r.Stop(), "stop before start")
	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Start(context.Background()), "second start is a no-op")
	require.NoError(t, r.Stop())
	require.NoError(t, r.Stop())
}

func TestLogIsBounded(t *testing.T) {
	r := newPlain(&syncBuffer{})
	for i := 0; i < 10; i++ {
		r.Logf(LevelInfo, "line %d", i)
	}
	logs := r.Logs()
	require.Len(t, logs, 4)
	require.Equal(t, "line 6", logs[0].Text)
	require.Equal(t, "line 9", logs[3].Text)
}

func TestCollectReportsOnlyChanges(t *testing.T) {
	b := newInbox(2, 3, 2)
	var c cursor

	require.True(t, b.collect(&c).empty())

	b.pushCell(1, 2, true)
	u := b.collect(&c)
	require.NotNil(t, u.grid)
	require.True(t, u.grid[1][2])
	require.True(t, b.collect(&c).empty(), "cursor advanced")

	b.pushCell(1, 2, true)
	require.True(t, b.collect(&c).empty(), "unchanged cell does not bump the version")

	for i := 0; i < 5; i++ {
		b.appendLog(Entry{Text: fmt.Sprint(i)})
	}
	u = b.collect(&c)
	require.Equal(t, 3, u.missed)
	require.Len(t, u.fresh, 2)
	require.Equal(t, "4", u.fresh[1].Text)

	b.setStatus("saving", true)
	b.setProgress(2)
	u = b.collect(&c)
	require.True(t, u.statNew)
	require.Equal(t, "saving", u.status)
	require.Equal(t, 1.0, u.progress)
}

func TestPushCellIgnoresOutOfRange(t *testing.T) {
	r := newPlain(&syncBuffer{})
	r.PushCell(-1, 0, true)
	r.PushCell(0, grid.DefaultCols, true)
	require.Equal(t, 0, r.Grid().Lit())
}

func TestAttachMirrorsStore(t *testing.T) {
	store := grid.NewStore(grid.DefaultRows, grid.DefaultCols, nil)
	store.SetCell(3, 3, true)

	r := newPlain(&syncBuffer{})
	sub := r.Attach(store)
	require.True(t, r.Grid()[3][3], "attach copies current state")

	store.SetCell(4, 5, true)
	require.True(t, r.Grid()[4][5])

	store.SetColumn(10, []bool{true, true})
	require.True(t, r.Grid()[0][10])
	require.True(t, r.Grid()[1][10])

	store.Clear()
	require.Equal(t, 0, r.Grid().Lit())

	sub.Cancel()
	store.SetCell(0, 0, true)
	require.False(t, r.Grid()[0][0])
}

func TestHandlerFeedsLog(t *testing.T) {
	r := newPlain(&syncBuffer{})
	logger := slog.New(NewHandler(r, slog.LevelInfo)).With("backend", "gpio")

	logger.Debug("hidden")
	logger.WithGroup("io").Error("write failed", "pin", 17)

	logs := r.Logs()
	require.Len(t, logs, 1)
	require.Equal(t, LevelError, logs[0].Level)
	require.Equal(t, "write failed backend=gpio io.pin=17", logs[0].Text)
}

func TestGlyphsAndThemes(t *testing.T) {
	require.Equal(t, "#", GetGlyphs("ascii").On)
	require.Equal(t, GlyphsBlock, GetGlyphs("nope"))
	require.Len(t, GlyphNames(), 6)

	require.Equal(t, "ocean", GetTheme("ocean").Name)
	require.Equal(t, ThemeRetro, GetTheme(""))
	require.ElementsMatch(t, []string{"cyberpunk", "retro", "minimal", "ocean", "sunset"}, ThemeNames())
}

func TestProgressBar(t *testing.T) {
	require.Equal(t, "░░░░", ProgressBar(0, 4))
	require.Equal(t, "██░░", ProgressBar(0.5, 4))
	require.Equal(t, "████", ProgressBar(3, 4))
}

func TestModelKeysAndView(t *testing.T) {
	r := New(Options{Glyphs: "ascii", Title: "card", Rows: 12, Cols: 8})
	m := newModel(r)
	m.color = false

	r.PushCell(0, 0, true)
	r.Log(LevelInfo, "hello")
	r.SetStatus("thinking")
	m.Update(tickMsg(time.Now()))

	view := m.View()
	require.Contains(t, view, "card")
	require.Contains(t, view, "12 #.......")
	require.Contains(t, view, "hello")
	require.Contains(t, view, "thinking")

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")})
	require.Equal(t, GlyphSets[glyphIndex("ascii")+1].Name, GlyphSets[m.glyph].Name)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	require.True(t, m.color)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
}

func TestLogPaneWrapsLongEntries(t *testing.T) {
	r := New(Options{Glyphs: "ascii", Rows: 12, Cols: 8})
	m := newModel(r)
	m.color = false

	r.Log(LevelWarning, "gpio unavailable, lamps dark")
	m.Update(tickMsg(time.Now()))

	pane := m.viewport.View()
	require.Contains(t, pane, "unavailable,")
	require.Contains(t, pane, "lamps dark")
	for _, line := range strings.Split(pane, "\n") {
		require.LessOrEqual(t, lipgloss.Width(line), m.viewport.Width, line)
	}
}

func TestLogPaneRewrapsOnResize(t *testing.T) {
	r := New(Options{Glyphs: "ascii", Rows: 12, Cols: 80})
	m := newModel(r)
	m.color = false

	long := "backend gpio unavailable after repeated write failures on chip gpiochip0, the board stays dark until restart"
	r.Log(LevelWarning, long)
	m.Update(tickMsg(time.Now()))
	require.Contains(t, m.viewport.View(), "restart")

	m.Update(tea.WindowSizeMsg{Width: 42, Height: 40})
	require.Equal(t, 40, m.viewport.Width)
	pane := m.viewport.View()
	require.Contains(t, pane, "restart")
	require.Contains(t, pane, "gpiochip0,")
}
