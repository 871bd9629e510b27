// Package hollerith maps characters to 12-row punch card column patterns.
package hollerith

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Rows is the number of punch positions in one card column.
const Rows = 12

// RowLabels names the punch rows top to bottom: zone rows 12, 11, 0 and
// digit rows 1 to 9. Row 0 doubles as a zone and a digit.
var RowLabels = [Rows]string{"12", "11", "0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}

// Pattern is one column of punches, index 0 being the top (row 12).
type Pattern [Rows]bool

// Blank is the "no punch" pattern.
var Blank Pattern

// Bools returns the pattern as a slice suitable for grid.Store.SetColumn.
func (p Pattern) Bools() []bool {
	out := make([]bool, Rows)
	copy(out, p[:])
	return out
}

func (p Pattern) IsBlank() bool { return p == Blank }

// Punched lists the row indexes that are punched.
func (p Pattern) Punched() []int {
	var rows []int
	for i, v := range p {
		if v {
			rows = append(rows, i)
		}
	}
	return rows
}

// Code renders the punches with row labels, e.g. "12-1" for A.
func (p Pattern) Code() string {
	var labels []string
	for _, i := range p.Punched() {
		labels = append(labels, RowLabels[i])
	}
	if len(labels) == 0 {
		return "no punch"
	}
	return strings.Join(labels, "-")
}

// Entry is one row of the table.
type Entry struct {
	Char        rune
	Pattern     Pattern
	Description string
}

// Table is an immutable character to pattern lookup.
type Table struct {
	entries map[rune]Entry
}

func punch(labels ...string) Pattern {
	var p Pattern
	for _, l := range labels {
		for i, name := range RowLabels {
			if name == l {
				p[i] = true
			}
		}
	}
	return p
}

func digit(n int) string { return strconv.Itoa(n) }

var standard = buildStandard()

func buildStandard() *Table {
	t := &Table{entries: make(map[rune]Entry)}
	add := func(ch rune, desc string, labels ...string) {
		t.entries[ch] = Entry{Char: ch, Pattern: punch(labels...), Description: desc}
	}

	add(' ', "space")
	for n := 0; n <= 9; n++ {
		add(rune('0'+n), "digit "+digit(n), digit(n))
	}
	for i := 0; i < 9; i++ {
		add(rune('A'+i), "letter, zone 12 + digit "+digit(i+1), "12", digit(i+1))
		add(rune('J'+i), "letter, zone 11 + digit "+digit(i+1), "11", digit(i+1))
	}
	for i := 0; i < 8; i++ {
		add(rune('S'+i), "letter, zone 0 + digit "+digit(i+2), "0", digit(i+2))
	}

	add('&', "ampersand", "12")
	add('-', "hyphen", "11")
	add('/', "slash", "0", "1")
	add('.', "period", "12", "3", "8")
	add('<', "less than", "12", "4", "8")
	add('(', "left parenthesis", "12", "5", "8")
	add('+', "plus", "12", "6", "8")
	add('|', "vertical bar", "12", "7", "8")
	add('!', "exclamation", "11", "2", "8")
	add('$', "dollar", "11", "3", "8")
	add('*', "asterisk", "11", "4", "8")
	add(')', "right parenthesis", "11", "5", "8")
	add(';', "semicolon", "11", "6", "8")
	add(',', "comma", "0", "3", "8")
	add('%', "percent", "0", "4", "8")
	add('_', "underscore", "0", "5", "8")
	add('>', "greater than", "0", "6", "8")
	add('?', "question mark", "0", "7", "8")
	add(':', "colon", "2", "8")
	add('#', "number sign", "3", "8")
	add('@', "at sign", "4", "8")
	add('\'', "apostrophe", "5", "8")
	add('=', "equals", "6", "8")
	add('"', "quotation mark", "7", "8")
	return t
}

// Standard returns the shared IBM 029 style table. It is never mutated.
func Standard() *Table { return standard }

// Lookup resolves a character case-insensitively. Unmapped characters give
// the blank pattern and ok == false.
func (t *Table) Lookup(ch rune) (Pattern, bool) {
	e, ok := t.entries[unicode.ToUpper(ch)]
	if !ok {
		return Blank, false
	}
	return e.Pattern, true
}

// Pattern is Lookup without the presence flag.
func (t *Table) Pattern(ch rune) Pattern {
	p, _ := t.Lookup(ch)
	return p
}

func (t *Table) Describe(ch rune) string {
	e, ok := t.entries[unicode.ToUpper(ch)]
	if !ok {
		return "unmapped"
	}
	return e.Description
}

func (t *Table) Len() int { return len(t.entries) }

// Entries lists the table sorted by character.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Char < out[j].Char })
	return out
}

// Fit truncates text to width columns and right-pads it with spaces.
func Fit(text string, width int) []rune {
	runes := []rune(text)
	if len(runes) > width {
		runes = runes[:width]
	}
	out := make([]rune, width)
	copy(out, runes)
	for i := len(runes); i < width; i++ {
		out[i] = ' '
	}
	return out
}

// Encode turns text into one pattern per column, fitted to width.
func (t *Table) Encode(text string, width int) []Pattern {
	runes := Fit(text, width)
	out := make([]Pattern, len(runes))
	for i, r := range runes {
		out[i] = t.Pattern(r)
	}
	return out
}
