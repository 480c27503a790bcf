// Package usersink forwards entity commit events to a go-users ActivitySink.
package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-entities/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook forwards entity commit events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
	// Channel is used when the event carries none.
	Channel string
	// Now stamps records whose event has no OccurredAt. Defaults to time.Now.
	Now func() time.Time
}

var _ activity.ActivityHook = Hook{}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
// Events without a verb or object are dropped.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil || !event.Routable() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, h.record(event))
}

func (h Hook) record(event activity.Event) usertypes.ActivityRecord {
	channel := strings.TrimSpace(event.Channel)
	if channel == "" {
		channel = strings.TrimSpace(h.Channel)
	}
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = h.now()
	}
	return usertypes.ActivityRecord{
		ActorID:    parseUUID(event.ActorID),
		UserID:     parseUUID(event.UserID),
		TenantID:   parseUUID(event.TenantID),
		Verb:       strings.TrimSpace(event.Verb),
		ObjectType: strings.TrimSpace(event.ObjectType),
		ObjectID:   strings.TrimSpace(event.ObjectID),
		Channel:    channel,
		Data:       event.Data(),
		OccurredAt: occurredAt,
	}
}

func (h Hook) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// parseUUID maps identifiers that are not UUIDs to uuid.Nil.
func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
