// Package events announces finished index runs on Kafka so downstream
// consumers can pick up a fresh snapshot.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/kafka"
)

// RunCompleted is published once per run, keyed by RunID.
type RunCompleted struct {
	RunID         string        `json:"run_id"`
	Sources       []string      `json:"sources"`
	Mode          string        `json:"mode"`
	Stats         indexer.Stats `json:"stats"`
	SnapshotSaved bool          `json:"snapshot_saved"`
	DurationMS    int64         `json:"duration_ms"`
	CompletedAt   time.Time     `json:"completed_at"`
}

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

type Notifier struct {
	publisher Publisher
	logger    *slog.Logger
}

func NewNotifier(publisher Publisher) *Notifier {
	return &Notifier{
		publisher: publisher,
		logger:    slog.Default().With("component", "run-events"),
	}
}

// RunCompleted publishes ev. A zero CompletedAt is set to now.
func (n *Notifier) RunCompleted(ctx context.Context, ev RunCompleted) error {
	if ev.CompletedAt.IsZero() {
		ev.CompletedAt = time.Now().UTC()
	}
	if err := n.publisher.Publish(ctx, kafka.Event{Key: ev.RunID, Value: ev}); err != nil {
		return fmt.Errorf("publishing run %s: %w", ev.RunID, err)
	}
	n.logger.Info("run event published",
		"run_id", ev.RunID,
		"words", ev.Stats.Words,
	)
	return nil
}
