package redis

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Notifier delivers change notifications over Redis pub/sub so every
// instance sharing the store sees them.
type Notifier struct {
	client *redis.Client
}

func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) Publish(ctx context.Context, topic string) error {
	return n.client.Publish(ctx, channel(topic), "1").Err()
}

// Subscribe returns once Redis has confirmed the subscription.
func (n *Notifier) Subscribe(ctx context.Context, topic string) (<-chan struct{}, func(), error) {
	pubsub := n.client.Subscribe(ctx, channel(topic))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan struct{}, 1)
	done := make(chan struct{})
	msgs := pubsub.Channel()
	go func() {
		defer close(out)
		for {
			select {
			case <-done:
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}
	return out, cancel, nil
}

func channel(topic string) string {
	return "trivia:changes:" + topic
}
