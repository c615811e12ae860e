package formstate

import (
	"errors"

	"github.com/goliatone/go-formstate/selector"
	"github.com/goliatone/go-formstate/tree"
)

var (
	// ErrReentrantChange indicates ChangeValue or RunAllValidation called from
	// inside a listener or validator of the same store.
	ErrReentrantChange = errors.New("formstate: store is already applying a change")
	// ErrNilHandler indicates a subscription without a handler.
	ErrNilHandler = errors.New("formstate: handler is nil")

	// ErrUnsupportedKeyKind is returned when a selector accesses a key that is
	// neither a string nor a non-negative integer.
	ErrUnsupportedKeyKind = selector.ErrUnsupportedKeyKind
	// ErrUndefinedIntermediate is returned when a change traverses a missing
	// container.
	ErrUndefinedIntermediate = tree.ErrUndefinedIntermediate
)
