package entities

import "github.com/goliatone/go-entities/pkg/activity"

// WithActivityHooks attaches hooks notified after every successful commit.
// Nil entries are dropped and the slice is copied, so later changes to the
// caller's slice do not reach the entity.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := make(activity.Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			normalized = append(normalized, hook)
		}
	}
	return func(cfg *entityConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityDefaults sets the channel and actor fields applied to commit
// events that do not carry their own.
func WithActivityDefaults(defaults activity.Config) Option {
	return func(cfg *entityConfig) {
		cfg.activityConfig = defaults
	}
}
