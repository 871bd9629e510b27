// Package card is a stand-alone punch card: a lamp matrix plus the text it
// was punched from. It knows nothing about grid stores; the adapter package
// connects it to one.
package card

import (
	"strings"
	"sync"

	"github.com/san-kum/punchcard/internal/grid"
	"github.com/san-kum/punchcard/internal/hollerith"
)

type Card struct {
	table *hollerith.Table

	mu      sync.RWMutex
	cells   grid.Matrix
	message string
}

// New returns a blank card of rows x cols. A nil table means the standard
// Hollerith table.
func New(rows, cols int, table *hollerith.Table) *Card {
	if rows <= 0 {
		rows = grid.DefaultRows
	}
	if cols <= 0 {
		cols = grid.DefaultCols
	}
	if table == nil {
		table = hollerith.Standard()
	}
	return &Card{table: table, cells: grid.NewMatrix(rows, cols)}
}

func (c *Card) Rows() int { return c.cells.Rows() }
func (c *Card) Cols() int { return c.cells.Cols() }

// Punch replaces the whole card with text, one character per column. It
// writes the matrix directly and does not go through SetCell.
func (c *Card) Punch(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cols := c.cells.Cols()
	c.message = strings.TrimRight(string(hollerith.Fit(text, cols)), " ")
	for col, p := range c.table.Encode(text, cols) {
		for row := range c.cells {
			c.cells[row][col] = row < hollerith.Rows && p[row]
		}
	}
}

func (c *Card) SetCell(row, col int, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if row < 0 || row >= len(c.cells) || col < 0 || col >= len(c.cells[row]) {
		return
	}
	c.cells[row][col] = on
}

func (c *Card) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, row := range c.cells {
		clear(row)
	}
	c.message = ""
}

// Cells returns a copy of the matrix.
func (c *Card) Cells() [][]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cells.Clone()
}

func (c *Card) CurrentMessage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.message
}

// Render draws the card in ASCII: the punched text along the top edge, then
// one line per row with its label. Holes are '#'; unpunched digit rows show
// their digit as printed on a real card.
func (c *Card) Render() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cols := c.cells.Cols()
	var b strings.Builder
	edge := "   +" + strings.Repeat("-", cols) + "+\n"

	b.WriteString(edge)
	b.WriteString("   |")
	text := []rune(c.message)
	for i := 0; i < cols; i++ {
		if i < len(text) {
			b.WriteRune(text[i])
		} else {
			b.WriteByte(' ')
		}
	}
	b.WriteString("|\n")

	for r, row := range c.cells {
		label := ""
		if r < len(hollerith.RowLabels) && len(c.cells) == hollerith.Rows {
			label = hollerith.RowLabels[r]
		}
		b.WriteString(padLeft(label, 2))
		b.WriteString(" |")
		for _, on := range row {
			switch {
			case on:
				b.WriteByte('#')
			case len(label) == 1:
				b.WriteString(label)
			default:
				b.WriteByte('.')
			}
		}
		b.WriteString("|\n")
	}
	b.WriteString(edge)
	return b.String()
}

func padLeft(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat(" ", n-len(s)) + s
}
