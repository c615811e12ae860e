package selector

import (
	"strconv"
)

// reader is the Accessor used by Evaluate. It walks a canonical value tree
// (map[string]any, []any, scalars); missing steps read as nil.
type reader struct {
	value any
	err   *error
}

func (r reader) Field(name string) Accessor {
	return r.step(name, nil)
}

func (r reader) Index(i int) Accessor {
	segment, err := indexSegment(i)
	return r.step(segment, err)
}

func (r reader) Key(key any) Accessor {
	segment, err := keySegment(key)
	return r.step(segment, err)
}

func (r reader) step(segment string, err error) Accessor {
	if *r.err != nil {
		return reader{err: r.err}
	}
	if err != nil {
		*r.err = err
		return reader{err: r.err}
	}
	switch typed := r.value.(type) {
	case map[string]any:
		return reader{value: typed[segment], err: r.err}
	case []any:
		i, convErr := strconv.Atoi(segment)
		if convErr != nil || i < 0 || i >= len(typed) {
			return reader{err: r.err}
		}
		return reader{value: typed[i], err: r.err}
	default:
		return reader{err: r.err}
	}
}

// Evaluate runs sel against root and returns its result with every Accessor
// it returned (directly or nested in map[string]any / []any records) replaced
// by the value it points at. Results alias root; callers that hand them out
// should clone first.
func Evaluate(sel Selector, root any) (any, error) {
	if sel == nil {
		return nil, ErrNilSelector
	}
	var err error
	result := sel(reader{value: root, err: &err})
	if err != nil {
		return nil, err
	}
	return unwrap(result), nil
}

func unwrap(value any) any {
	switch typed := value.(type) {
	case reader:
		return typed.value
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = unwrap(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = unwrap(item)
		}
		return out
	default:
		return value
	}
}
