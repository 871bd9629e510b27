package card

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPunchEncodesColumns(t *testing.T) {
	c := New(0, 0, nil)
	c.Punch("a1")

	cells := c.Cells()
	require.Len(t, cells, 12)
	require.Len(t, cells[0], 80)

	// A is 12-1, 1 is the digit row alone.
	require.True(t, cells[0][0])
	require.True(t, cells[3][0])
	require.True(t, cells[3][1])
	require.False(t, cells[0][1])
	for r := range cells {
		require.False(t, cells[r][2], "padding column %d row %d", 2, r)
	}
	require.Equal(t, "a1", c.CurrentMessage())
}

func TestPunchTruncates(t *testing.T) {
	c := New(12, 4, nil)
	c.Punch("ABCDEFG")
	require.Equal(t, "ABCD", c.CurrentMessage())
}

func TestCellsIsACopy(t *testing.T) {
	c := New(12, 4, nil)
	cells := c.Cells()
	cells[0][0] = true
	require.False(t, c.Cells()[0][0])
}

func TestSetCellAndClear(t *testing.T) {
	c := New(12, 4, nil)
	c.Punch("X")
	c.SetCell(11, 3, true)
	c.SetCell(12, 0, true)
	require.True(t, c.Cells()[11][3])

	c.Clear()
	require.Empty(t, c.CurrentMessage())
	for _, row := range c.Cells() {
		for _, v := range row {
			require.False(t, v)
		}
	}
}

func TestRender(t *testing.T) {
	c := New(12, 3, nil)
	c.Punch("A")
	out := c.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	require.Len(t, lines, 15)
	require.Equal(t, "   +---+", lines[0])
	require.Equal(t, "   |A  |", lines[1])
	require.Equal(t, "12 |#..|", lines[2])
	require.Equal(t, " 0 |000|", lines[4])
	require.Equal(t, " 1 |#11|", lines[5])
}
