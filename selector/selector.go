// Package selector resolves projection functions into value tree paths.
//
// A Selector is a plain function over an Accessor. Callers describe the slice
// of the tree they care about by chaining Field/Index/Key calls:
//
//	price := func(r selector.Accessor) any {
//		return r.Field("items").Index(0).Field("price")
//	}
//
// Resolution executes the selector against a tracer Accessor that records every
// access as a tree of nodes instead of reading data, so the path never has to be
// declared as data. Selectors must only chain reads; branching on runtime values
// is not observable by the tracer.
//
// Selectors may also combine several reads into a record:
//
//	summary := func(r selector.Accessor) any {
//		return map[string]any{"name": r.Field("name"), "total": r.Field("total")}
//	}
//
// AccessedPaths reports every path such a selector touches, while Evaluate runs
// it against a real value tree and replaces the returned accessors with values.
package selector

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/goliatone/go-formstate/paths"
)

var (
	// ErrUnsupportedKeyKind indicates an access that cannot be represented as a
	// flat string or non-negative integer path segment.
	ErrUnsupportedKeyKind = errors.New("selector: unsupported key kind")
	// ErrNilSelector indicates a nil selector function.
	ErrNilSelector = errors.New("selector: selector is nil")
)

// Accessor is the property/index access capability handed to selectors.
type Accessor interface {
	// Field accesses a record property.
	Field(name string) Accessor
	// Index accesses a sequence element.
	Index(i int) Accessor
	// Key accesses a property or element by a dynamic key. Strings behave like
	// Field and integer kinds like Index; any other kind is unsupported.
	Key(key any) Accessor
}

// Selector projects a value out of the tree reachable from its argument.
type Selector func(root Accessor) any

// FromPath builds a selector that performs the accesses of a joined path.
// Index segments become Index calls.
func FromPath(path string) Selector {
	segments := paths.Split(path)
	return func(root Accessor) any {
		current := root
		for _, segment := range segments {
			if paths.IsIndex(segment) {
				i, err := strconv.Atoi(segment)
				if err == nil {
					current = current.Index(i)
					continue
				}
			}
			current = current.Field(segment)
		}
		return current
	}
}

// Fields builds a selector from a list of property names.
func Fields(names ...string) Selector {
	return func(root Accessor) any {
		current := root
		for _, name := range names {
			current = current.Field(name)
		}
		return current
	}
}

// keySegment converts a dynamic key into a path segment.
func keySegment(key any) (string, error) {
	switch typed := key.(type) {
	case string:
		return typed, nil
	case nil:
		return "", fmt.Errorf("%w: <nil>", ErrUnsupportedKeyKind)
	}
	rv := reflect.ValueOf(key)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Int() < 0 {
			return "", fmt.Errorf("%w: negative index %d", ErrUnsupportedKeyKind, rv.Int())
		}
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.String:
		return rv.String(), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedKeyKind, key)
	}
}

func indexSegment(i int) (string, error) {
	if i < 0 {
		return "", fmt.Errorf("%w: negative index %d", ErrUnsupportedKeyKind, i)
	}
	return strconv.Itoa(i), nil
}
