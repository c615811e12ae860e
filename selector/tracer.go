package selector

import (
	"fmt"

	"github.com/goliatone/go-formstate/paths"
)

// node is the tracer Accessor. Every access on a node appends a fresh child
// and returns it, so the same node handed out twice (for example cached in a
// local variable) keeps recording both branches under itself.
type node struct {
	name     string
	children []*node
	rec      *recorder
}

type recorder struct {
	err error
}

func (n *node) Field(name string) Accessor {
	return n.access(name, nil)
}

func (n *node) Index(i int) Accessor {
	segment, err := indexSegment(i)
	return n.access(segment, err)
}

func (n *node) Key(key any) Accessor {
	segment, err := keySegment(key)
	return n.access(segment, err)
}

func (n *node) access(segment string, err error) Accessor {
	if n.rec.err != nil {
		return n
	}
	if err != nil {
		n.rec.err = err
		return n
	}
	child := &node{name: segment, rec: n.rec}
	n.children = append(n.children, child)
	return child
}

// trace runs sel against a fresh tracer and returns the recorded access tree.
func trace(sel Selector) (*node, error) {
	if sel == nil {
		return nil, ErrNilSelector
	}
	root := &node{rec: &recorder{}}
	sel(root)
	if root.rec.err != nil {
		return nil, root.rec.err
	}
	return root, nil
}

// Resolve returns the segments of the single access chain a linear selector
// performs. When the selector branches, the deepest chain wins; ties go to the
// branch accessed first. A selector that returns its argument resolves to the
// root (no segments).
func Resolve(sel Selector) ([]string, error) {
	root, err := trace(sel)
	if err != nil {
		return nil, err
	}
	segments := []string{}
	current := root
	for len(current.children) > 0 {
		deepest := current.children[0]
		best := depth(deepest)
		for _, child := range current.children[1:] {
			if d := depth(child); d > best {
				deepest, best = child, d
			}
		}
		segments = append(segments, deepest.name)
		current = deepest
	}
	return segments, nil
}

// ResolvePath is Resolve joined into a canonical path.
func ResolvePath(sel Selector) (string, error) {
	segments, err := Resolve(sel)
	if err != nil {
		return "", err
	}
	return paths.Join(segments), nil
}

func depth(n *node) int {
	best := 0
	for _, child := range n.children {
		if d := depth(child); d > best {
			best = d
		}
	}
	return best + 1
}

// AccessedPaths flattens the whole access tree into the distinct joined paths
// visited, in first-visit order. With includeParent false a node is reported
// only when nothing was accessed below it, so a read of "a/b" followed by a
// read of "a/b/c" on a fresh chain reports both, but a read of "c" through a
// cached "a/b" accessor reports only "a/b/c".
func AccessedPaths(sel Selector, includeParent bool) ([]string, error) {
	root, err := trace(sel)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	out := []string{}
	var walk func(n *node, prefix []string)
	walk = func(n *node, prefix []string) {
		for _, child := range n.children {
			segments := append(append([]string(nil), prefix...), child.name)
			if includeParent || len(child.children) == 0 {
				path := paths.Join(segments)
				if _, ok := seen[path]; !ok {
					seen[path] = struct{}{}
					out = append(out, path)
				}
			}
			walk(child, segments)
		}
	}
	walk(root, nil)
	return out, nil
}

// Route returns the ancestor-inclusive joined paths along the selector's
// linear access chain, shortest first.
func Route(sel Selector) ([]string, error) {
	path, err := ResolvePath(sel)
	if err != nil {
		return nil, err
	}
	return paths.Ancestors(path), nil
}

// Relation pairs a path with the set of paths equal to or below it along a
// selector's route.
type Relation struct {
	Path     string
	Included []string
}

// InclusionRelations returns, for every path on the selector's route, the
// route paths that are equal to or descend from it.
func InclusionRelations(sel Selector) ([]Relation, error) {
	route, err := Route(sel)
	if err != nil {
		return nil, err
	}
	relations := make([]Relation, len(route))
	for i, path := range route {
		relations[i] = Relation{Path: path, Included: append([]string(nil), route[i:]...)}
	}
	return relations, nil
}

// MustResolvePath is ResolvePath for selectors known to be valid at init time.
func MustResolvePath(sel Selector) string {
	path, err := ResolvePath(sel)
	if err != nil {
		panic(fmt.Sprintf("selector: %v", err))
	}
	return path
}
