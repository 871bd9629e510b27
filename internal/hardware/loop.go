package hardware

import (
	"sync"
	"time"
)

const defaultStopTimeout = 2 * time.Second

// loop runs push at a fixed rate on its own goroutine.
type loop struct {
	hz      int
	timeout time.Duration
	push    func()

	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}
}

func newLoop(hz int, push func()) *loop {
	if hz <= 0 {
		hz = 30
	}
	return &loop{hz: hz, timeout: defaultStopTimeout, push: push}
}

// start is a no-op when the loop is already running.
func (l *loop) start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopCh != nil {
		return
	}
	l.stopCh = make(chan struct{})
	l.done = make(chan struct{})
	go l.run(l.stopCh, l.done)
}

func (l *loop) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Second / time.Duration(l.hz))
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.push()
		}
	}
}

// stop signals the goroutine and waits at most l.timeout for it.
func (l *loop) stop() error {
	l.mu.Lock()
	stopCh, done := l.stopCh, l.done
	l.stopCh, l.done = nil, nil
	l.mu.Unlock()
	if stopCh == nil {
		return nil
	}
	close(stopCh)
	select {
	case <-done:
		return nil
	case <-time.After(l.timeout):
		return ErrStopTimeout
	}
}

func (l *loop) running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopCh != nil
}
