package grid

import "strings"

const (
	DefaultRows = 12
	DefaultCols = 80
)

// Matrix is a rows x cols lamp grid, indexed [row][col].
type Matrix [][]bool

func NewMatrix(rows, cols int) Matrix {
	m := make(Matrix, rows)
	for r := range m {
		m[r] = make([]bool, cols)
	}
	return m
}

func (m Matrix) Clone() Matrix {
	c := make(Matrix, len(m))
	for r, row := range m {
		c[r] = make([]bool, len(row))
		copy(c[r], row)
	}
	return c
}

func (m Matrix) Rows() int { return len(m) }

func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

func (m Matrix) Equal(o Matrix) bool {
	if len(m) != len(o) {
		return false
	}
	for r := range m {
		if len(m[r]) != len(o[r]) {
			return false
		}
		for c := range m[r] {
			if m[r][c] != o[r][c] {
				return false
			}
		}
	}
	return true
}

// Lit counts the lamps that are on.
func (m Matrix) Lit() int {
	n := 0
	for _, row := range m {
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}

// ShiftLeft returns a copy moved left by n columns; vacated columns on the
// right are blank.
func (m Matrix) ShiftLeft(n int) Matrix {
	out := NewMatrix(m.Rows(), m.Cols())
	if n < 0 {
		n = 0
	}
	for r, row := range m {
		for c := n; c < len(row); c++ {
			out[r][c-n] = row[c]
		}
	}
	return out
}

// Format renders the matrix with the given glyphs, one line per row.
func (m Matrix) Format(on, off string) string {
	var b strings.Builder
	for r, row := range m {
		for _, v := range row {
			if v {
				b.WriteString(on)
			} else {
				b.WriteString(off)
			}
		}
		if r < len(m)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
