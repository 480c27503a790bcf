package entities

import "time"

// Log operations reported through Logger.
const (
	LogOpGet      = "get"
	LogOpSet      = "set"
	LogOpCommit   = "commit"
	LogOpEvaluate = "evaluate"
	LogOpActivity = "activity"
)

// LogEvent describes one resolution, write, commit or evaluation step.
type LogEvent struct {
	Op        string
	Attribute string
	Keys      []string
	Engine    string
	Expr      string
	Duration  time.Duration
	Err       error
}

// Logger records entity events.
type Logger interface {
	Log(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// Log implements Logger.
func (f LoggerFunc) Log(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) Log(LogEvent) {}

// WithLogger attaches a logger to the entity configuration.
func WithLogger(logger Logger) Option {
	return func(cfg *entityConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

func loggerOrNoop(logger Logger) Logger {
	if logger == nil {
		return noopLogger{}
	}
	return logger
}
