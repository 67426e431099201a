package game

import (
	"sync"
	"time"
)

// TickSource yields a tick channel and a function that stops it.
type TickSource func() (<-chan time.Time, func())

// SecondTicks ticks once per second.
func SecondTicks() (<-chan time.Time, func()) {
	t := time.NewTicker(time.Second)
	return t.C, t.Stop
}

// Ticker runs a callback on every tick between Start and Stop. It is tied to
// the playing screen: the owner starts it on entry and stops it on exit.
type Ticker struct {
	source TickSource

	mu   sync.Mutex
	stop chan struct{}
}

func NewTicker(source TickSource) *Ticker {
	if source == nil {
		source = SecondTicks
	}
	return &Ticker{source: source}
}

// Start begins ticking. It is a no-op when already running.
func (t *Ticker) Start(onTick func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	ticks, stopSource := t.source()
	stop := make(chan struct{})
	t.stop = stop

	go func() {
		defer stopSource()
		for {
			select {
			case <-stop:
				return
			case _, ok := <-ticks:
				if !ok {
					return
				}
				select {
				case <-stop:
					return
				default:
				}
				onTick()
			}
		}
	}()
}

// Stop cancels ticking. It does not wait for an in-progress callback.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
}

// Running reports whether the ticker has been started and not stopped.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}
