package grid

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Store is the single source of truth for lamp state.
//
// The mutex guards the matrix only. Observers are called after it is
// released, so a callback may write back into the store or cancel its own
// subscription without deadlocking. The price is last-writer-wins
// visibility: an observer can receive an event after another writer has
// already moved the grid further, so consumers re-read Snapshot when they
// need the current picture.
type Store struct {
	rows, cols int
	log        *slog.Logger

	mu     sync.Mutex
	cells  Matrix
	seq    uint64
	subsMu sync.Mutex
	subs   []*Subscription
	nextID uint64
}

// Subscription is the token returned by Subscribe.
type Subscription struct {
	id     uint64
	obs    Observer
	store  *Store
	active atomic.Bool
}

// Cancel removes the observer. Safe to call more than once and from inside
// the observer's own callback.
func (s *Subscription) Cancel() {
	if s == nil || !s.active.Swap(false) {
		return
	}
	s.store.remove(s.id)
}

func (s *Subscription) Active() bool { return s != nil && s.active.Load() }

func NewStore(rows, cols int, logger *slog.Logger) *Store {
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		rows:  rows,
		cols:  cols,
		log:   logger.With("component", "grid"),
		cells: NewMatrix(rows, cols),
	}
}

func (s *Store) Rows() int { return s.rows }
func (s *Store) Cols() int { return s.cols }

func (s *Store) inBounds(row, col int) bool {
	return row >= 0 && row < s.rows && col >= 0 && col < s.cols
}

// SetCell changes one lamp. Out-of-range coordinates and writes that do not
// change the lamp are ignored without notification.
func (s *Store) SetCell(row, col int, state bool) {
	if !s.inBounds(row, col) {
		return
	}
	s.mu.Lock()
	if s.cells[row][col] == state {
		s.mu.Unlock()
		return
	}
	s.cells[row][col] = state
	s.seq++
	ev := Event{Row: row, Col: col, State: state, Seq: s.seq}
	s.mu.Unlock()

	s.notify(ev)
}

// SetAll writes every lamp and always emits exactly one bulk event.
func (s *Store) SetAll(state bool) {
	s.mu.Lock()
	for r := range s.cells {
		for c := range s.cells[r] {
			s.cells[r][c] = state
		}
	}
	s.seq++
	ev := Event{Row: Sentinel, Col: Sentinel, State: state, Seq: s.seq}
	s.mu.Unlock()

	s.notify(ev)
}

func (s *Store) Clear() { s.SetAll(false) }

// SetRegion copies m onto the grid, clipped to the grid bounds. Cells that m
// does not cover are left alone. One bulk event is emitted if anything
// changed.
func (s *Store) SetRegion(m Matrix) {
	s.mu.Lock()
	changed := false
	for r := 0; r < len(m) && r < s.rows; r++ {
		for c := 0; c < len(m[r]) && c < s.cols; c++ {
			if s.cells[r][c] != m[r][c] {
				s.cells[r][c] = m[r][c]
				changed = true
			}
		}
	}
	if !changed {
		s.mu.Unlock()
		return
	}
	s.seq++
	ev := Event{Row: Sentinel, Col: Sentinel, State: s.anyLitLocked(), Seq: s.seq}
	s.mu.Unlock()

	s.notify(ev)
}

// SetColumn writes one column from a top-to-bottom pattern. Pattern entries
// beyond the grid height are ignored; missing ones leave the lamp alone.
func (s *Store) SetColumn(col int, pattern []bool) {
	if col < 0 || col >= s.cols {
		return
	}
	s.mu.Lock()
	changed := false
	lit := false
	for r := 0; r < s.rows; r++ {
		if r < len(pattern) && s.cells[r][col] != pattern[r] {
			s.cells[r][col] = pattern[r]
			changed = true
		}
		lit = lit || s.cells[r][col]
	}
	if !changed {
		s.mu.Unlock()
		return
	}
	s.seq++
	ev := Event{Row: Sentinel, Col: col, State: lit, Seq: s.seq}
	s.mu.Unlock()

	s.notify(ev)
}

// SetRow writes one row left to right, emitting a (row, -1) event.
func (s *Store) SetRow(row int, values []bool) {
	if row < 0 || row >= s.rows {
		return
	}
	s.mu.Lock()
	changed := false
	lit := false
	for c := 0; c < s.cols; c++ {
		if c < len(values) && s.cells[row][c] != values[c] {
			s.cells[row][c] = values[c]
			changed = true
		}
		lit = lit || s.cells[row][c]
	}
	if !changed {
		s.mu.Unlock()
		return
	}
	s.seq++
	ev := Event{Row: row, Col: Sentinel, State: lit, Seq: s.seq}
	s.mu.Unlock()

	s.notify(ev)
}

func (s *Store) anyLitLocked() bool {
	for _, row := range s.cells {
		for _, v := range row {
			if v {
				return true
			}
		}
	}
	return false
}

// Cell reports a lamp; out-of-range coordinates read as off.
func (s *Store) Cell(row, col int) bool {
	if !s.inBounds(row, col) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cells[row][col]
}

// Column returns a copy of one column, top to bottom.
func (s *Store) Column(col int) []bool {
	out := make([]bool, s.rows)
	if col < 0 || col >= s.cols {
		return out
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for r := 0; r < s.rows; r++ {
		out[r] = s.cells[r][col]
	}
	return out
}

// Row returns a copy of one row, left to right.
func (s *Store) Row(row int) []bool {
	out := make([]bool, s.cols)
	if row < 0 || row >= s.rows {
		return out
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(out, s.cells[row])
	return out
}

// Snapshot returns a deep copy that never aliases the store.
func (s *Store) Snapshot() Matrix {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cells.Clone()
}

// Seq is the number of notifications issued so far.
func (s *Store) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

func (s *Store) Subscribe(o Observer) *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.nextID++
	sub := &Subscription{id: s.nextID, obs: o, store: s}
	sub.active.Store(true)
	s.subs = append(s.subs, sub)
	return sub
}

func (s *Store) SubscribeFunc(fn func(Event) error) *Subscription {
	return s.Subscribe(ObserverFunc(fn))
}

func (s *Store) Observers() int {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	return len(s.subs)
}

func (s *Store) remove(id uint64) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

func (s *Store) notify(ev Event) {
	s.subsMu.Lock()
	subs := make([]*Subscription, len(s.subs))
	copy(subs, s.subs)
	s.subsMu.Unlock()

	for _, sub := range subs {
		if !sub.active.Load() {
			continue
		}
		if err := s.deliver(sub, ev); err != nil {
			s.log.Warn("observer failed", "observer", sub.id, "event", ev.String(), "error", err)
		}
	}
}

func (s *Store) deliver(sub *Subscription, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("grid: observer panic: %v", r)
		}
	}()
	return sub.obs.OnGridEvent(ev)
}
