// Package paths implements the slash-joined path algebra shared by the
// selector resolver, the value tree helpers and the validation scheduler.
//
// A path is an ordered list of segments. Its canonical form joins the segments
// with "/" ("items/2/price"). The root of the tree is the empty path, which is
// both the empty string and the empty segment list. Segments made only of
// ASCII digits are treated as array indices; replacing every such segment with
// "*" yields the wildcard form used as a generic registration key.
package paths

import "strings"

const (
	// Separator joins path segments.
	Separator = "/"
	// Wildcard replaces index segments in wildcard paths.
	Wildcard = "*"
)

// Root is the path of the whole value tree.
const Root = ""

// Join concatenates segments into a canonical path. Nil or empty input yields
// Root.
func Join(segments []string) string {
	if len(segments) == 0 {
		return Root
	}
	return strings.Join(segments, Separator)
}

// Split is the inverse of Join. Root splits into a nil slice so callers can
// range over the result without special-casing the root.
func Split(path string) []string {
	if path == Root {
		return nil
	}
	return strings.Split(path, Separator)
}

// Ancestors returns every non-root prefix of path, shortest first, ending with
// path itself. Root is left out, and Root itself yields nil; callers that
// notify or aggregate at the root add it explicitly.
func Ancestors(path string) []string {
	segments := Split(path)
	if len(segments) == 0 {
		return nil
	}
	out := make([]string, len(segments))
	for i := range segments {
		out[i] = Join(segments[:i+1])
	}
	return out
}

// IsIndex reports whether segment is a non-empty run of ASCII digits.
func IsIndex(segment string) bool {
	if segment == "" {
		return false
	}
	for i := 0; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}

// ToWildcard replaces every index segment in path with Wildcard.
func ToWildcard(path string) string {
	segments := Split(path)
	changed := false
	for i, segment := range segments {
		if IsIndex(segment) {
			segments[i] = Wildcard
			changed = true
		}
	}
	if !changed {
		return path
	}
	return Join(segments)
}

// ExtractIndices returns the index segments of path in encounter order, or nil
// when path has none.
func ExtractIndices(path string) []string {
	var indices []string
	for _, segment := range Split(path) {
		if IsIndex(segment) {
			indices = append(indices, segment)
		}
	}
	return indices
}

// Restore substitutes the Wildcard segments of wildcardPath left to right with
// indices. Placeholders left over once indices run out stay in the result;
// surplus indices are ignored.
func Restore(wildcardPath string, indices []string) string {
	if len(indices) == 0 {
		return wildcardPath
	}
	segments := Split(wildcardPath)
	next := 0
	for i, segment := range segments {
		if next >= len(indices) {
			break
		}
		if segment == Wildcard {
			segments[i] = indices[next]
			next++
		}
	}
	return Join(segments)
}

// HasWildcard reports whether any segment of path is still a placeholder.
func HasWildcard(path string) bool {
	for _, segment := range Split(path) {
		if segment == Wildcard {
			return true
		}
	}
	return false
}

// HasPrefix reports whether path equals prefix or descends from it. The match
// is segment aware: "objArr/10" does not descend from "objArr/1". Every path
// descends from Root.
func HasPrefix(path, prefix string) bool {
	if prefix == Root {
		return true
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+Separator)
}

// FirstWildcard returns the segments preceding the first placeholder in path
// and whether a placeholder was found.
func FirstWildcard(path string) ([]string, bool) {
	segments := Split(path)
	for i, segment := range segments {
		if segment == Wildcard {
			return segments[:i], true
		}
	}
	return segments, false
}
