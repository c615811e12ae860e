package formstate

import "github.com/goliatone/go-formstate/validation"

// Subscription families reported in OperationEvent.Kind.
const (
	KindValue     = "value"
	KindChildren  = "children"
	KindError     = "error"
	KindSelection = "selection"
)

// ValueHandler receives an independent copy of the value at a subscribed path.
type ValueHandler func(value any)

// ErrorHandler receives the errors filed at or below a subscribed path.
type ErrorHandler func(errs []validation.ValidationError)

type listener struct {
	id       string
	active   bool
	onValue  ValueHandler
	onErrors ErrorHandler
}

func (l *listener) value(v any) {
	if l.active && l.onValue != nil {
		l.onValue(v)
	}
}

func (l *listener) errors(errs []validation.ValidationError) {
	if l.active && l.onErrors != nil {
		l.onErrors(errs)
	}
}

// Subscription is the deregistration handle returned by the Subscribe family.
type Subscription struct {
	id     string
	kind   string
	path   string
	cancel func()
}

// ID returns the subscription identifier.
func (s *Subscription) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Path returns the resolved path the subscription is registered at. Selection
// subscriptions report the joined dependency paths.
func (s *Subscription) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Unsubscribe removes the handler. The handler is not invoked again, even when
// Unsubscribe runs from inside a notification. Calling it twice is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.cancel == nil {
		return
	}
	cancel := s.cancel
	s.cancel = nil
	cancel()
}
