package grid

import "fmt"

// Kind classifies an Event by its coordinate form.
type Kind int

const (
	KindCell Kind = iota
	KindColumn
	KindRow
	KindBulk
)

func (k Kind) String() string {
	switch k {
	case KindCell:
		return "cell"
	case KindColumn:
		return "column"
	case KindRow:
		return "row"
	case KindBulk:
		return "bulk"
	}
	return "unknown"
}

// Sentinel is the reserved coordinate used for the whole-row, whole-column
// and whole-grid forms of an Event.
const Sentinel = -1

// Event describes one change to the store. Row or Col set to Sentinel
// denote a column, row or bulk update; for those forms State is the
// uniform value written by SetAll, or true when any lamp in the
// affected line is lit.
type Event struct {
	Row   int
	Col   int
	State bool
	Seq   uint64
}

func (e Event) Kind() Kind {
	switch {
	case e.Row == Sentinel && e.Col == Sentinel:
		return KindBulk
	case e.Row == Sentinel:
		return KindColumn
	case e.Col == Sentinel:
		return KindRow
	}
	return KindCell
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%d,%d)=%t#%d", e.Kind(), e.Row, e.Col, e.State, e.Seq)
}

// Observer receives store notifications. Implementations must not assume
// that the store still holds the reported state when the call arrives.
type Observer interface {
	OnGridEvent(ev Event) error
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(ev Event) error

func (f ObserverFunc) OnGridEvent(ev Event) error { return f(ev) }
