package activity

import (
	"context"
	"strings"
)

// DefaultChannel is used when neither the event nor the emitter names one.
const DefaultChannel = "entities"

// Config holds values applied to events that leave them blank.
type Config struct {
	Channel  string
	ActorID  string
	UserID   string
	TenantID string
}

// Emitter fans events out to hooks after filling blanks from its Config.
type Emitter struct {
	hooks    Hooks
	defaults Config
}

// NewEmitter builds an emitter over a copy of hooks with nil entries removed.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	cfg.Channel = strings.TrimSpace(cfg.Channel)
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	return &Emitter{
		hooks:    cloneHooks(hooks),
		defaults: cfg,
	}
}

// Enabled reports whether the emitter has any hook to notify.
func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

// Hooks returns a copy of the emitter's hooks.
func (e *Emitter) Hooks() Hooks {
	if e == nil {
		return nil
	}
	return cloneHooks(e.hooks)
}

// Config returns the defaults applied by Emit.
func (e *Emitter) Config() Config {
	if e == nil {
		return Config{Channel: DefaultChannel}
	}
	return e.defaults
}

// Emit applies the defaults and notifies every hook.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	event.Channel = fallback(event.Channel, e.defaults.Channel)
	event.ActorID = fallback(event.ActorID, e.defaults.ActorID)
	event.UserID = fallback(event.UserID, e.defaults.UserID)
	event.TenantID = fallback(event.TenantID, e.defaults.TenantID)
	return e.hooks.Notify(ctx, event)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

func cloneHooks(hooks Hooks) Hooks {
	normalized := make(Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			normalized = append(normalized, hook)
		}
	}
	if len(normalized) == 0 {
		return nil
	}
	return normalized
}
