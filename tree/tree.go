// Package tree implements the value tree collaborator of the store: the
// canonical representation of form data and structural get/set by path.
//
// A canonical tree is built only from map[string]any records, []any
// sequences and scalar leaves. Normalize converts arbitrary Go values into that
// shape; every other helper assumes it.
package tree

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/goliatone/go-formstate/paths"
)

var (
	// ErrUndefinedIntermediate indicates a write whose path traverses a
	// currently absent container. Missing containers are never created.
	ErrUndefinedIntermediate = errors.New("tree: undefined intermediate")
	// ErrNotContainer indicates a path that steps into a scalar, or a field
	// segment addressed on a sequence.
	ErrNotContainer = errors.New("tree: not a container")
	// ErrIndexOutOfRange indicates a sequence write past the append position.
	ErrIndexOutOfRange = errors.New("tree: index out of range")
	// ErrUnsupportedValue indicates a Go value with no canonical tree form.
	ErrUnsupportedValue = errors.New("tree: unsupported value")
)

// PathError records the operation and path of a failed tree access.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e == nil {
		return "<nil>"
	}
	path := e.Path
	if path == paths.Root {
		path = "<root>"
	}
	return fmt.Sprintf("%s %s: %v", e.Op, path, e.Err)
}

func (e *PathError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Get walks segments from root and returns the value found there. Missing
// steps report false.
func Get(root any, segments []string) (any, bool) {
	current := root
	for _, segment := range segments {
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			i, ok := sequenceIndex(segment)
			if !ok || i >= len(typed) {
				return nil, false
			}
			current = typed[i]
		default:
			return nil, false
		}
	}
	return current, true
}

// Lookup is Get over a joined path.
func Lookup(root any, path string) (any, bool) {
	return Get(root, paths.Split(path))
}

// Len returns the length of the sequence at path, or zero when path does not
// hold a sequence.
func Len(root any, path string) int {
	value, ok := Lookup(root, path)
	if !ok {
		return 0
	}
	list, ok := value.([]any)
	if !ok {
		return 0
	}
	return len(list)
}

// Set returns a tree equal to root with value written at segments. Containers
// along the path are copied so root itself is never modified; on error root is
// still the current tree and nothing was written.
//
// Writing at index len(sequence) appends. Writing with no segments replaces the
// whole tree.
func Set(root any, segments []string, value any) (any, error) {
	if len(segments) == 0 {
		return value, nil
	}
	return set(root, segments, 0, value)
}

func set(container any, segments []string, depth int, value any) (any, error) {
	segment := segments[depth]
	last := depth == len(segments)-1
	fail := func(err error) error {
		return &PathError{Op: "set", Path: paths.Join(segments[:depth+1]), Err: err}
	}

	switch typed := container.(type) {
	case map[string]any:
		next := make(map[string]any, len(typed)+1)
		for key, item := range typed {
			next[key] = item
		}
		if last {
			next[segment] = value
			return next, nil
		}
		child, ok := typed[segment]
		if !ok || child == nil {
			return nil, fail(ErrUndefinedIntermediate)
		}
		updated, err := set(child, segments, depth+1, value)
		if err != nil {
			return nil, err
		}
		next[segment] = updated
		return next, nil
	case []any:
		i, ok := sequenceIndex(segment)
		if !ok {
			return nil, fail(ErrNotContainer)
		}
		if last {
			switch {
			case i < len(typed):
				next := append([]any(nil), typed...)
				next[i] = value
				return next, nil
			case i == len(typed):
				next := make([]any, len(typed), len(typed)+1)
				copy(next, typed)
				return append(next, value), nil
			default:
				return nil, fail(ErrIndexOutOfRange)
			}
		}
		if i >= len(typed) || typed[i] == nil {
			return nil, fail(ErrUndefinedIntermediate)
		}
		updated, err := set(typed[i], segments, depth+1, value)
		if err != nil {
			return nil, err
		}
		next := append([]any(nil), typed...)
		next[i] = updated
		return next, nil
	case nil:
		return nil, &PathError{Op: "set", Path: paths.Join(segments[:depth]), Err: ErrUndefinedIntermediate}
	default:
		return nil, &PathError{Op: "set", Path: paths.Join(segments[:depth]), Err: ErrNotContainer}
	}
}

// Clone deep copies the containers of a canonical tree. Scalars are shared.
func Clone(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		if typed == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = Clone(item)
		}
		return out
	case []any:
		if typed == nil {
			return []any(nil)
		}
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = Clone(item)
		}
		return out
	default:
		return value
	}
}

func sequenceIndex(segment string) (int, bool) {
	if !paths.IsIndex(segment) {
		return 0, false
	}
	i, err := strconv.Atoi(segment)
	if err != nil {
		return 0, false
	}
	return i, true
}
