// Package validation schedules path-scoped validators and maintains the index
// of validation errors they produce.
//
// Validators are registered against wildcard paths ("items/*/price"), so one
// registration covers every element of an array. A run expands the paths
// scheduled since the previous run into concrete validator instances, using the
// current value tree to enumerate array elements, and reports which paths may
// need error re-notification.
package validation

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/internal/multimap"
	"github.com/goliatone/go-formstate/paths"
	"github.com/goliatone/go-formstate/tree"
)

var (
	// ErrNoSelection indicates a registration without selection paths.
	ErrNoSelection = errors.New("validation: at least one selection path is required")
	// ErrNilValidator indicates a registration with a nil validator function.
	ErrNilValidator = errors.New("validation: validator is nil")
)

// ValidatorFunc checks the values read at a validator's selection paths, in
// registration order. It returns an empty string when the values are valid and
// the error message otherwise.
type ValidatorFunc func(values []any) string

// ValidationError is a message filed under a set of concrete related paths.
type ValidationError struct {
	Paths  []string `json:"paths"`
	Errors []string `json:"errors"`
}

type registration struct {
	id        int
	validate  ValidatorFunc
	selection []string
	related   []string
}

// entry is one filed error. The same entry is stored under each of its paths
// and is identified by pointer when aggregating.
type entry struct {
	owner int
	err   ValidationError
}

type instance struct {
	reg       *registration
	selection []string
	related   []string
}

// Scheduler owns validator registrations, the dirty path set and the error
// index. It is not safe for concurrent use.
type Scheduler struct {
	registry *multimap.SliceMap[string, *registration]
	index    *multimap.SliceMap[string, *entry]
	dirty    []string
	pending  map[string]struct{}
	nextID   int
}

// NewScheduler constructs an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		registry: multimap.NewSliceMap[string, *registration](),
		index:    multimap.NewSliceMap[string, *entry](),
		pending:  map[string]struct{}{},
	}
}

// Register stores validate under every wildcard form of selection. Errors are
// filed under related, or under selection when related is empty. Registration
// is permanent.
func (s *Scheduler) Register(selection []string, validate ValidatorFunc, related ...string) error {
	if len(selection) == 0 {
		return ErrNoSelection
	}
	if validate == nil {
		return ErrNilValidator
	}
	reg := &registration{
		id:        s.nextID,
		validate:  validate,
		selection: wildcardAll(selection),
	}
	if len(related) == 0 {
		reg.related = append([]string(nil), reg.selection...)
	} else {
		reg.related = wildcardAll(related)
	}
	s.nextID++

	seen := map[string]struct{}{}
	for _, path := range reg.selection {
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		s.registry.Upsert(path, reg)
	}
	return nil
}

// Schedule marks path dirty. Nothing runs until Run.
func (s *Scheduler) Schedule(path string) {
	if _, ok := s.pending[path]; ok {
		return
	}
	s.pending[path] = struct{}{}
	s.dirty = append(s.dirty, path)
}

// Pending returns the dirty paths in scheduling order.
func (s *Scheduler) Pending() []string {
	return append([]string(nil), s.dirty...)
}

// Run validates everything affected by the dirty paths against root and
// returns, sorted, every path whose aggregated errors may have changed. The
// dirty set is consumed.
func (s *Scheduler) Run(root any) []string {
	instances, owners := s.expand(root)
	revalidated := map[string]struct{}{}
	touch := func(path string) {
		for _, ancestor := range paths.Ancestors(path) {
			revalidated[ancestor] = struct{}{}
		}
	}

	for _, inst := range instances {
		for _, path := range inst.related {
			s.index.DeleteFunc(path, func(e *entry) bool { return e.owner == inst.reg.id })
			touch(path)
		}
	}
	for _, dirty := range s.dirty {
		for _, key := range s.index.Keys() {
			if !paths.HasPrefix(key, dirty) {
				continue
			}
			stale := s.index.DeleteFunc(key, func(e *entry) bool {
				_, ok := owners[e.owner]
				return ok
			})
			if stale > 0 {
				touch(key)
			}
		}
	}

	for _, inst := range instances {
		values := make([]any, len(inst.selection))
		for i, path := range inst.selection {
			value, _ := tree.Lookup(root, path)
			values[i] = tree.Clone(value)
		}
		msg := inst.reg.validate(values)
		if msg == "" {
			continue
		}
		e := &entry{
			owner: inst.reg.id,
			err: ValidationError{
				Paths:  append([]string(nil), inst.related...),
				Errors: []string{msg},
			},
		}
		for _, path := range uniqueStrings(inst.related) {
			s.index.Upsert(path, e)
		}
	}

	s.dirty = nil
	s.pending = map[string]struct{}{}

	out := make([]string, 0, len(revalidated))
	for path := range revalidated {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// expand turns the dirty set into the deduplicated list of concrete validator
// instances to run. It also returns the ids of every registration matched by a
// dirty path, including those that currently yield no instances.
func (s *Scheduler) expand(root any) ([]instance, map[int]struct{}) {
	var out []instance
	seen := map[string]struct{}{}
	owners := map[int]struct{}{}
	add := func(reg *registration, indices []string) {
		owners[reg.id] = struct{}{}
		for _, inst := range instantiate(reg, indices, root) {
			key := inst.key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, inst)
		}
	}

	for _, dirty := range s.dirty {
		wildcard := paths.ToWildcard(dirty)
		indices := paths.ExtractIndices(dirty)

		// Registrations at the dirty path or above it.
		for _, key := range append([]string{paths.Root}, paths.Ancestors(wildcard)...) {
			for _, reg := range s.registry.Get(key) {
				add(reg, indices)
			}
		}
		// Registrations scoped below the dirty path.
		for _, key := range s.registry.Keys() {
			if key == wildcard || !paths.HasPrefix(key, wildcard) {
				continue
			}
			for _, reg := range s.registry.Get(key) {
				add(reg, indices)
			}
		}
	}
	return out, owners
}

// instantiate restores indices into every path of reg and enumerates the
// current array elements for any placeholder still left, one instance per
// element combination. A placeholder over an absent or empty array yields no
// instances.
func instantiate(reg *registration, indices []string, root any) []instance {
	selection := restoreAll(reg.selection, indices)
	related := restoreAll(reg.related, indices)

	open := ""
	for _, path := range append(append([]string(nil), selection...), related...) {
		if paths.HasWildcard(path) {
			open = path
			break
		}
	}
	if open == "" {
		return []instance{{reg: reg, selection: selection, related: related}}
	}

	prefix, _ := paths.FirstWildcard(open)
	n := tree.Len(root, paths.Join(prefix))
	var out []instance
	for i := 0; i < n; i++ {
		next := append(append([]string(nil), indices...), strconv.Itoa(i))
		out = append(out, instantiate(reg, next, root)...)
	}
	return out
}

func (i instance) key() string {
	return fmt.Sprintf("%d|%s|%s", i.reg.id, strings.Join(i.selection, ","), strings.Join(i.related, ","))
}

// ErrorsForPath returns the errors filed at path or below it. Root returns
// every error. Each error is reported once even when filed under several of
// the matching paths.
func (s *Scheduler) ErrorsForPath(path string) []ValidationError {
	seen := map[*entry]struct{}{}
	out := []ValidationError{}
	for _, key := range s.index.Keys() {
		if !paths.HasPrefix(key, path) {
			continue
		}
		for _, e := range s.index.Get(key) {
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e.err.clone())
		}
	}
	return out
}

// ErrorIndex returns a copy of the error index keyed by concrete path.
func (s *Scheduler) ErrorIndex() map[string][]ValidationError {
	out := make(map[string][]ValidationError, s.index.Len())
	for _, key := range s.index.Keys() {
		for _, e := range s.index.Get(key) {
			out[key] = append(out[key], e.err.clone())
		}
	}
	return out
}

// HasErrors reports whether any error is filed at path or below it.
func (s *Scheduler) HasErrors(path string) bool {
	for _, key := range s.index.Keys() {
		if paths.HasPrefix(key, path) {
			return true
		}
	}
	return false
}

func (e ValidationError) clone() ValidationError {
	return ValidationError{
		Paths:  append([]string(nil), e.Paths...),
		Errors: append([]string(nil), e.Errors...),
	}
}

func wildcardAll(in []string) []string {
	out := make([]string, len(in))
	for i, path := range in {
		out[i] = paths.ToWildcard(path)
	}
	return out
}

func restoreAll(in []string, indices []string) []string {
	out := make([]string, len(in))
	for i, path := range in {
		out[i] = paths.Restore(path, indices)
	}
	return out
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, value := range in {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
