// Package events publishes domain events after their transaction commits.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	InvoiceCreated Type = "invoice_created"
	StockUpdated   Type = "stock_update"
	LowStock       Type = "low_stock"
)

// Event is addressed to the tenant that owns the affected rows.
type Event struct {
	Type       Type      `json:"type"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

func New(t Type, ownerID uuid.UUID, payload any) Event {
	return Event{Type: t, OwnerID: ownerID, Payload: payload, OccurredAt: time.Now().UTC()}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Fanout sends every event to all publishers and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
