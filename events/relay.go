package events

import (
	"context"
	"fmt"
	"time"

	"neighborly/models"

	"go.uber.org/zap"
)

type OutboxStore interface {
	PendingOutbox(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	MarkOutboxPublished(ctx context.Context, id int64, at time.Time) error
}

// Relay moves committed outbox rows to a Publisher in id order.
// Delivery is at-least-once: a crash between publish and mark re-sends the row.
type Relay struct {
	store    OutboxStore
	pub      Publisher
	log      *zap.Logger
	interval time.Duration
	batch    int
}

func NewRelay(store OutboxStore, pub Publisher, log *zap.Logger, interval time.Duration, batch int) *Relay {
	if batch <= 0 {
		batch = 100
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Relay{store: store, pub: pub, log: log, interval: interval, batch: batch}
}

// Run flushes on every tick until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				r.log.Warn("outbox flush failed", zap.Error(err))
			}
		}
	}
}

// Flush publishes one batch and returns how many rows were sent. It stops at
// the first failure so later events never overtake an earlier one.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	evs, err := r.store.PendingOutbox(ctx, r.batch)
	if err != nil {
		return 0, fmt.Errorf("load outbox: %w", err)
	}
	sent := 0
	for _, ev := range evs {
		msg := Message{ID: ev.ID, Topic: ev.Topic, Key: ev.Key, Payload: ev.Payload, OccurredAt: ev.CreatedAt}
		if err := r.pub.Publish(ctx, msg); err != nil {
			return sent, fmt.Errorf("publish event %d: %w", ev.ID, err)
		}
		if err := r.store.MarkOutboxPublished(ctx, ev.ID, time.Now()); err != nil {
			return sent, fmt.Errorf("mark event %d: %w", ev.ID, err)
		}
		sent++
	}
	return sent, nil
}
