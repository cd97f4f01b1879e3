// Package notifier delivers push payloads to user devices. The app
// protocol is a flat string map with a "type" key naming the event and
// a same-named key carrying the subject document id.
package notifier

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"frrand-backend/internal/domain"
	"frrand-backend/internal/logger"
	"frrand-backend/internal/repository"
)

// Payload is the wire format of one push message.
type Payload map[string]string

// Notifier sends a payload to a single device. The bool reports
// delivery success; senders that must not proceed on failure (device
// provisioning) check it, everything else fires and forgets.
type Notifier interface {
	Send(ctx context.Context, deviceID string, payload Payload) bool
}

// NewPayload builds the standard event payload.
func NewPayload(kind string, ref primitive.ObjectID) Payload {
	return Payload{
		"type": kind,
		kind:   ref.Hex(),
	}
}

// EventSender resolves domain events to device pushes. Lookup or
// delivery failures are logged and swallowed; notifications are best
// effort everywhere except provisioning, which uses Notifier directly.
type EventSender struct {
	users    repository.UserRepository
	notifier Notifier
}

func NewEventSender(users repository.UserRepository, n Notifier) *EventSender {
	return &EventSender{users: users, notifier: n}
}

// Dispatch sends one push per event to each recipient's registered
// device. Recipients without a device are skipped.
func (s *EventSender) Dispatch(ctx context.Context, events []domain.Event) {
	for _, ev := range events {
		user, err := s.users.GetByID(ctx, ev.To)
		if err != nil {
			logger.Warn("notify: recipient lookup failed", "user", ev.To.Hex(), "type", ev.Kind, "error", err)
			continue
		}
		if user.DeviceID == "" {
			continue
		}
		if !s.notifier.Send(ctx, user.DeviceID, NewPayload(ev.Kind, ev.Ref)) {
			logger.Warn("notify: delivery failed", "user", ev.To.Hex(), "type", ev.Kind)
		}
	}
}
