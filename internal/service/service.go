package service

import (
	"context"
	"time"

	"go-pos-ws/internal/apperr"
	"go-pos-ws/internal/events"
	"go-pos-ws/internal/logging"
	"go-pos-ws/internal/model"
	"go-pos-ws/pkg/validator"
)

const publishTimeout = 5 * time.Second

func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return apperr.Validation("%s", validator.Message(errs))
	}
	return nil
}

func requireActor(actor *model.User) error {
	if actor == nil {
		return apperr.Unauthorized("authentication required")
	}
	return nil
}

// publishAsync delivers events after commit without holding up the caller.
// Delivery failures are logged and never undo the committed work.
func publishAsync(ctx context.Context, pub events.Publisher, evs ...events.Event) {
	if pub == nil || len(evs) == 0 {
		return
	}
	log := logging.FromContext(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		for _, e := range evs {
			if err := pub.Publish(ctx, e); err != nil {
				log.Warn("event publish failed", "type", e.Type, "owner_id", e.OwnerID, "error", err)
			}
		}
	}()
}
