package outbox

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/savora/api/internal/database"
	"github.com/savora/api/internal/ws"
)

// Store defines the database methods needed by the dispatcher.
// Satisfied by *database.Queries; narrow interface for testability.
type Store interface {
	ListUnpublishedOutboxEvents(ctx context.Context, limit int32) ([]database.OutboxEvent, error)
	MarkOutboxEventPublished(ctx context.Context, id int64) error
}

// Broadcaster is the delivery side of the dispatcher. Satisfied by
// *ws.Hub.
type Broadcaster interface {
	Broadcast(event ws.Event)
}

const (
	defaultInterval = time.Second
	batchSize       = 100
)

// Dispatcher polls the outbox table and pushes pending events to the
// staff order feed. An event is marked published only after it has been
// handed to the hub, so a crash between poll and publish re-delivers
// rather than drops.
type Dispatcher struct {
	store    Store
	hub      Broadcaster
	interval time.Duration
}

// NewDispatcher creates a dispatcher polling at the default interval.
func NewDispatcher(store Store, hub Broadcaster) *Dispatcher {
	return &Dispatcher{store: store, hub: hub, interval: defaultInterval}
}

// Run polls until the context is cancelled.
// This should be called as a goroutine: go dispatcher.Run(ctx)
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.dispatchPending(ctx); err != nil {
				log.Printf("ERROR: dispatch outbox events: %v", err)
			}
		}
	}
}

func (d *Dispatcher) dispatchPending(ctx context.Context) error {
	events, err := d.store.ListUnpublishedOutboxEvents(ctx, batchSize)
	if err != nil {
		return err
	}

	for _, event := range events {
		d.hub.Broadcast(ws.Event{
			Type:    event.Topic,
			Payload: json.RawMessage(event.Payload),
		})
		if err := d.store.MarkOutboxEventPublished(ctx, event.ID); err != nil {
			return err
		}
	}
	return nil
}
