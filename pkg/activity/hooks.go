// Package activity carries entity commit events to external sinks.
package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrHookPanic wraps a panic recovered from a hook.
var ErrHookPanic = errors.New("activity: hook panicked")

// Event describes one committed write to an entity. IDs are strings so call
// sites are not tied to a UUID type.
type Event struct {
	Verb       string
	ActorID    string
	UserID     string
	TenantID   string
	ObjectType string
	ObjectID   string
	Channel    string
	CommitID   string
	// Attributes lists the attribute names written, in input order.
	Attributes []string
	// Keys lists the store keys the commit changed.
	Keys       []string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Routable reports whether the event names a verb and an object.
func (e Event) Routable() bool {
	return strings.TrimSpace(e.Verb) != "" &&
		strings.TrimSpace(e.ObjectType) != "" &&
		strings.TrimSpace(e.ObjectID) != ""
}

// Data flattens the commit details and metadata into one payload map.
// Metadata entries never override the commit fields.
func (e Event) Data() map[string]any {
	data := cloneMap(e.Metadata)
	if len(e.Attributes) > 0 {
		data = ensureMap(data)
		data["attributes"] = append([]string{}, e.Attributes...)
	}
	if len(e.Keys) > 0 {
		data = ensureMap(data)
		data["keys"] = append([]string{}, e.Keys...)
	}
	if e.CommitID != "" {
		data = ensureMap(data)
		data["commit_id"] = e.CommitID
	}
	return data
}

// ActivityHook receives normalized activity events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans out events to zero or more hooks.
type Hooks []ActivityHook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes the event and forwards it to every hook. Events that are
// not routable are dropped. Hook failures, panics included, are joined; one
// failing hook does not stop the others.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}

	normalized := NormalizeEvent(event)
	if !normalized.Routable() {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := notify(ctx, hook, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func notify(ctx context.Context, hook ActivityHook, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHookPanic, r)
		}
	}()
	return hook.Notify(ctx, event)
}

// NormalizeEvent trims identifiers, detaches slices and metadata and stamps
// a missing OccurredAt with the current time.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.Verb = strings.TrimSpace(event.Verb)
	normalized.ActorID = strings.TrimSpace(event.ActorID)
	normalized.UserID = strings.TrimSpace(event.UserID)
	normalized.TenantID = strings.TrimSpace(event.TenantID)
	normalized.ObjectType = strings.TrimSpace(event.ObjectType)
	normalized.ObjectID = strings.TrimSpace(event.ObjectID)
	normalized.Channel = strings.TrimSpace(event.Channel)
	normalized.CommitID = strings.TrimSpace(event.CommitID)
	normalized.Attributes = cloneStrings(event.Attributes)
	normalized.Keys = cloneStrings(event.Keys)
	normalized.Metadata = cloneMap(event.Metadata)
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

func cloneStrings(src []string) []string {
	if len(src) == 0 {
		return nil
	}
	return append([]string{}, src...)
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}

func ensureMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
