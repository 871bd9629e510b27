package panel

import (
	"sync"
	"time"

	"github.com/san-kum/punchcard/internal/grid"
)

// Level is the severity of a log pane entry.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "INFO"
}

type Entry struct {
	Time  time.Time
	Level Level
	Text  string
}

// inbox is the shared state between producer goroutines and the render
// loop. Producers write under the mutex; the loop collects whatever changed
// since its last cursor.
type inbox struct {
	mu       sync.Mutex
	max      int
	grid     grid.Matrix
	gridVer  uint64
	logs     []Entry
	logTotal uint64
	status   string
	progress float64
	busy     bool
	statVer  uint64
}

type cursor struct {
	gridVer  uint64
	logTotal uint64
	statVer  uint64
}

type update struct {
	grid     grid.Matrix
	fresh    []Entry
	missed   int
	logs     []Entry
	status   string
	progress float64
	busy     bool
	statNew  bool
}

func (u update) empty() bool {
	return u.grid == nil && len(u.fresh) == 0 && u.missed == 0 && !u.statNew
}

func newInbox(rows, cols, max int) *inbox {
	return &inbox{max: max, grid: grid.NewMatrix(rows, cols)}
}

func (b *inbox) pushSnapshot(m grid.Matrix) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for r := range b.grid {
		for c := range b.grid[r] {
			if r < len(m) && c < len(m[r]) {
				b.grid[r][c] = m[r][c]
			}
		}
	}
	b.gridVer++
}

func (b *inbox) pushCell(row, col int, on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if row < 0 || row >= len(b.grid) || col < 0 || col >= len(b.grid[row]) {
		return
	}
	if b.grid[row][col] == on {
		return
	}
	b.grid[row][col] = on
	b.gridVer++
}

// appendLog keeps at most max entries, dropping the oldest.
func (b *inbox) appendLog(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logs = append(b.logs, e)
	if len(b.logs) > b.max {
		b.logs = append(b.logs[:0:0], b.logs[len(b.logs)-b.max:]...)
	}
	b.logTotal++
}

func (b *inbox) setStatus(text string, busy bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status == text && b.busy == busy {
		return
	}
	b.status, b.busy = text, busy
	b.statVer++
}

func (b *inbox) setProgress(p float64) {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.progress == p {
		return
	}
	b.progress = p
	b.statVer++
}

func (b *inbox) retained() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, len(b.logs))
	copy(out, b.logs)
	return out
}

func (b *inbox) snapshot() grid.Matrix {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.grid.Clone()
}

// collect returns everything that changed since c and advances c.
func (b *inbox) collect(c *cursor) update {
	b.mu.Lock()
	defer b.mu.Unlock()
	var u update
	if b.gridVer != c.gridVer {
		u.grid = b.grid.Clone()
		c.gridVer = b.gridVer
	}
	if b.logTotal != c.logTotal {
		n := int(b.logTotal - c.logTotal)
		if n > len(b.logs) {
			u.missed = n - len(b.logs)
			n = len(b.logs)
		}
		u.fresh = make([]Entry, n)
		copy(u.fresh, b.logs[len(b.logs)-n:])
		u.logs = make([]Entry, len(b.logs))
		copy(u.logs, b.logs)
		c.logTotal = b.logTotal
	}
	if b.statVer != c.statVer {
		u.status, u.progress, u.busy, u.statNew = b.status, b.progress, b.busy, true
		c.statVer = b.statVer
	}
	return u
}
