package hardware

import "strings"

// Layout maps grid coordinates to a position on the LED shift chain.
type Layout string

const (
	RowMajor    Layout = "row-major"
	ColumnMajor Layout = "column-major"
	// Serpentine chains run left to right on even rows and right to left
	// on odd rows, the usual wiring of strip-built matrices.
	Serpentine Layout = "serpentine"
)

func ParseLayout(name string) Layout {
	switch Layout(strings.ToLower(name)) {
	case ColumnMajor:
		return ColumnMajor
	case Serpentine:
		return Serpentine
	}
	return RowMajor
}

// Index returns the chain position of (row, col), or -1 out of range.
func (l Layout) Index(row, col, rows, cols int) int {
	if row < 0 || row >= rows || col < 0 || col >= cols {
		return -1
	}
	switch l {
	case ColumnMajor:
		return col*rows + row
	case Serpentine:
		if row%2 == 1 {
			return row*cols + (cols - 1 - col)
		}
	}
	return row*cols + col
}
