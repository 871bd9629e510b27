// Package feed supplies messages to the sequencer and paces them.
package feed

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
)

var ErrEmpty = errors.New("feed: no messages")

// Source hands out the next message to show.
type Source interface {
	Next(ctx context.Context) (string, error)
}

// Builtin is the line list used when no feed file is configured.
var Builtin = []string{
	"HELLO, WORLD",
	"THE QUICK BROWN FOX JUMPS OVER THE LAZY DOG 0123456789",
	"DO NOT FOLD, SPINDLE OR MUTILATE",
	"IBM 029 CARD PUNCH / 12 ROWS X 80 COLUMNS",
	"ALL WORK AND NO PLAY MAKES JACK A DULL BOY",
	"READY.",
	"END OF JOB",
}

// Lines cycles through a fixed list of messages, optionally reshuffling
// on every pass.
type Lines struct {
	mu      sync.Mutex
	lines   []string
	order   []int
	pos     int
	shuffle bool
	rng     *rand.Rand
}

func NewLines(lines []string, shuffle bool, seed int64) *Lines {
	l := &Lines{lines: lines, shuffle: shuffle, rng: rand.New(rand.NewSource(seed))}
	l.reorder()
	return l
}

// LoadLines reads one message per line from path. Blank lines and lines
// starting with '#' are skipped.
func LoadLines(path string, shuffle bool, seed int64) (*Lines, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("feed: read %s: %w", path, err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmpty, path)
	}
	return NewLines(lines, shuffle, seed), nil
}

func (l *Lines) reorder() {
	l.order = make([]int, len(l.lines))
	for i := range l.order {
		l.order[i] = i
	}
	if l.shuffle {
		l.rng.Shuffle(len(l.order), func(i, j int) { l.order[i], l.order[j] = l.order[j], l.order[i] })
	}
	l.pos = 0
}

func (l *Lines) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.lines) == 0 {
		return "", ErrEmpty
	}
	if l.pos >= len(l.order) {
		l.reorder()
	}
	line := l.lines[l.order[l.pos]]
	l.pos++
	return line, nil
}

func (l *Lines) Len() int { return len(l.lines) }
