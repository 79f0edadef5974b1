package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/kafka"
)

type recordingPublisher struct {
	events []kafka.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, event kafka.Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func TestNotifier_RunCompleted(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewNotifier(pub)
	err := n.RunCompleted(context.Background(), RunCompleted{
		RunID:   "abc123",
		Sources: []string{"a.txt"},
		Mode:    "lines",
		Stats:   indexer.Stats{Sources: 1, Tokens: 4, Words: 3},
	})
	if err != nil {
		t.Fatalf("RunCompleted error = %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Key != "abc123" {
		t.Errorf("Key = %q, want abc123", ev.Key)
	}

	msg, err := kafka.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	var decoded RunCompleted
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Stats.Words != 3 || decoded.Stats.Tokens != 4 {
		t.Errorf("decoded stats = %+v", decoded.Stats)
	}
	if decoded.CompletedAt.IsZero() {
		t.Error("CompletedAt should be filled in")
	}
}

func TestNotifier_PublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	err := NewNotifier(pub).RunCompleted(context.Background(), RunCompleted{RunID: "r"})
	if !errors.Is(err, pub.err) {
		t.Errorf("RunCompleted error = %v, want wrapped broker error", err)
	}
}
