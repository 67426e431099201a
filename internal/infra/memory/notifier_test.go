package memory

import (
	"context"
	"testing"
	"time"

	"halloween-trivia/internal/domain"
)

func TestNotifierDeliversPerTopic(t *testing.T) {
	ctx := context.Background()
	n := NewNotifier()

	players, cancelPlayers, _ := n.Subscribe(ctx, domain.TopicPlayers)
	defer cancelPlayers()
	settings, cancelSettings, _ := n.Subscribe(ctx, domain.TopicAdminSettings)
	defer cancelSettings()

	if err := n.Publish(ctx, domain.TopicPlayers); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case <-players:
	case <-time.After(time.Second):
		t.Fatalf("expected players notification")
	}
	select {
	case <-settings:
		t.Fatalf("unexpected admin_settings notification")
	default:
	}
}

func TestNotifierCancelCloses(t *testing.T) {
	n := NewNotifier()
	ch, cancel, _ := n.Subscribe(context.Background(), domain.TopicPlayers)
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	if err := n.Publish(context.Background(), domain.TopicPlayers); err != nil {
		t.Fatalf("publish after cancel: %v", err)
	}
}
