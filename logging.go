package formstate

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Operation names reported in OperationEvent.Op.
const (
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
	OpChange      = "change"
	OpValidate    = "validate"
	OpRegister    = "register"
	OpActivity    = "activity"
)

// OperationEvent describes a store operation for logging.
type OperationEvent struct {
	Op string
	// Kind is the subscription family (value, children, error, selection) for
	// subscribe and unsubscribe events.
	Kind           string
	Path           string
	SubscriptionID string
	Duration       time.Duration
	// Revalidated counts the paths whose errors may have changed.
	Revalidated int
	Err         error
}

// Logger records store operations.
type Logger interface {
	LogOperation(OperationEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(OperationEvent)

// LogOperation implements Logger.
func (f LoggerFunc) LogOperation(event OperationEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogOperation(OperationEvent) {}

// WithLogger attaches an operation logger to the store.
func WithLogger(logger Logger) Option {
	return func(cfg *storeConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger adapts a logrus entry to Logger. Successful operations log
// at debug level, failures at warn level.
func NewLogrusLogger(entry *logrus.Entry) Logger {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return logrusLogger{entry: entry}
}

func (l logrusLogger) LogOperation(event OperationEvent) {
	fields := logrus.Fields{
		"op":       event.Op,
		"path":     event.Path,
		"duration": event.Duration,
	}
	if event.Kind != "" {
		fields["kind"] = event.Kind
	}
	if event.SubscriptionID != "" {
		fields["subscription_id"] = event.SubscriptionID
	}
	if event.Revalidated > 0 {
		fields["revalidated"] = event.Revalidated
	}
	entry := l.entry.WithFields(fields)
	if event.Err != nil {
		entry.WithError(event.Err).Warn("formstate operation failed")
		return
	}
	entry.Debug("formstate operation")
}
