package formstate

import (
	"fmt"

	"github.com/goliatone/go-formstate/internal/hydrate"
	"github.com/goliatone/go-formstate/paths"
	"github.com/goliatone/go-formstate/selector"
)

// Decode converts the value at the selector's path into T using json struct
// tags. The store is not modified.
func Decode[T any](s *Store, sel selector.Selector) (T, error) {
	var zero T
	path, err := selector.ResolvePath(sel)
	if err != nil {
		return zero, fmt.Errorf("formstate: decode: %w", err)
	}
	return decodeAt[T](s, path)
}

// SnapshotAs converts the whole tree into T.
func SnapshotAs[T any](s *Store) (T, error) {
	return decodeAt[T](s, paths.Root)
}

func decodeAt[T any](s *Store, path string) (T, error) {
	decoder := hydrate.NewDecoder[T]()
	return decoder.Decode(hydrate.Context{FormID: s.id, Path: path}, s.valueAt(path))
}
