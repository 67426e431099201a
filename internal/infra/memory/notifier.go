package memory

import (
	"context"
	"sync"
)

// Notifier fans change notifications out to in-process subscribers.
type Notifier struct {
	mu     sync.Mutex
	topics map[string]map[chan struct{}]struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{topics: make(map[string]map[chan struct{}]struct{})}
}

// Publish wakes every subscriber of topic. Pending wake-ups coalesce.
func (n *Notifier) Publish(_ context.Context, topic string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.topics[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (n *Notifier) Subscribe(_ context.Context, topic string) (<-chan struct{}, func(), error) {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	if n.topics[topic] == nil {
		n.topics[topic] = make(map[chan struct{}]struct{})
	}
	n.topics[topic][ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.topics[topic], ch)
			close(ch)
			n.mu.Unlock()
		})
	}
	return ch, cancel, nil
}
