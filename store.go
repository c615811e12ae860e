// Package formstate implements a path-addressed reactive store for form data.
//
// A Store owns one value tree. Callers address slices of it with selectors,
// plain functions over a selector.Accessor, and subscribe to the value at a
// path, to changes anywhere below a path, or to the validation errors filed at
// or below a path. ChangeValue is the only mutator: it writes the new value,
// notifies the affected listeners and re-runs the validators whose inputs may
// have changed.
//
// Every value handed to a caller is an independent copy of the tree. A Store
// is single threaded; concurrent use must be serialized by the caller.
package formstate

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-formstate/internal/multimap"
	"github.com/goliatone/go-formstate/paths"
	"github.com/goliatone/go-formstate/pkg/activity"
	"github.com/goliatone/go-formstate/selector"
	"github.com/goliatone/go-formstate/tree"
	"github.com/goliatone/go-formstate/validation"
)

// Store holds a value tree and its listener registries.
type Store struct {
	id   string
	root any
	cfg  storeConfig

	scheduler *validation.Scheduler
	emitter   *activity.Emitter

	values     *multimap.SetMap[string, *listener]
	children   *multimap.SetMap[string, *listener]
	errs       *multimap.SetMap[string, *listener]
	selections *multimap.SetMap[string, *listener]
	// inclusion maps a path to the subscribed paths equal to or below it.
	inclusion *multimap.SetMap[string, string]

	changing bool
}

// New constructs a Store around a normalized copy of initial.
func New(initial any, opts ...Option) (*Store, error) {
	cfg := applyOptions(opts)

	root, err := tree.Normalize(initial)
	if err != nil {
		return nil, fmt.Errorf("formstate: initial value: %w", err)
	}
	if cfg.hasDefaults {
		defaults, err := tree.Normalize(cfg.defaults)
		if err != nil {
			return nil, fmt.Errorf("formstate: defaults: %w", err)
		}
		root = tree.Merge(root, defaults)
	}

	id := cfg.id
	if id == "" {
		id = uuid.NewString()
	}

	return &Store{
		id:        id,
		root:      root,
		cfg:       cfg,
		scheduler: validation.NewScheduler(),
		emitter: activity.NewEmitter(cfg.activityHooks, activity.Config{
			Enabled: len(cfg.activityHooks) > 0,
			Channel: cfg.activityChannel,
			Now:     cfg.now,
		}),
		values:     multimap.NewSetMap[string, *listener](),
		children:   multimap.NewSetMap[string, *listener](),
		errs:       multimap.NewSetMap[string, *listener](),
		selections: multimap.NewSetMap[string, *listener](),
		inclusion:  multimap.NewSetMap[string, string](),
	}, nil
}

// ID returns the store identifier.
func (s *Store) ID() string {
	return s.id
}

// Snapshot returns an independent copy of the whole tree.
func (s *Store) Snapshot() any {
	return tree.Clone(s.root)
}

// Value returns a copy of the value at the selector's path. Missing paths read
// as nil.
func (s *Store) Value(sel selector.Selector) (any, error) {
	path, err := selector.ResolvePath(sel)
	if err != nil {
		return nil, fmt.Errorf("formstate: value: %w", err)
	}
	return s.valueAt(path), nil
}

// SubscribeValue registers handler for the value at the selector's path. The
// handler fires immediately and again whenever that path or one of its
// ancestors is written.
func (s *Store) SubscribeValue(sel selector.Selector, handler ValueHandler) (*Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	path, err := selector.ResolvePath(sel)
	if err != nil {
		return nil, s.subscribeFailed(KindValue, err)
	}
	relations, err := selector.InclusionRelations(sel)
	if err != nil {
		return nil, s.subscribeFailed(KindValue, err)
	}
	s.inclusion.Upsert(paths.Root, paths.Root)
	for _, relation := range relations {
		s.inclusion.Upsert(paths.Root, relation.Included...)
		s.inclusion.Upsert(relation.Path, relation.Included...)
	}

	l := s.newListener(handler, nil)
	s.values.Upsert(path, l)
	sub := s.subscription(KindValue, path, l, func() { s.values.Delete(path, l) })
	l.value(s.valueAt(path))
	return sub, nil
}

// SubscribeChildren registers handler for changes at or below the selector's
// path. The handler fires immediately and again whenever a write lands on the
// path or anywhere beneath it. A root subscription receives the whole tree.
func (s *Store) SubscribeChildren(sel selector.Selector, handler ValueHandler) (*Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	path, err := selector.ResolvePath(sel)
	if err != nil {
		return nil, s.subscribeFailed(KindChildren, err)
	}

	l := s.newListener(handler, nil)
	s.children.Upsert(path, l)
	sub := s.subscription(KindChildren, path, l, func() { s.children.Delete(path, l) })
	l.value(s.valueAt(path))
	return sub, nil
}

// SubscribeError registers handler for the errors filed at or below the
// selector's path. The root path aggregates every error in the form.
func (s *Store) SubscribeError(sel selector.Selector, handler ErrorHandler) (*Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	path, err := selector.ResolvePath(sel)
	if err != nil {
		return nil, s.subscribeFailed(KindError, err)
	}

	l := s.newListener(nil, handler)
	s.errs.Upsert(path, l)
	sub := s.subscription(KindError, path, l, func() { s.errs.Delete(path, l) })
	l.errors(s.scheduler.ErrorsForPath(path))
	return sub, nil
}

// SubscribeSelection registers handler for a selector that may read several
// paths and combine them. The handler receives the evaluated selector result;
// it fires immediately and whenever a write lands on, above or below any leaf
// path the selector reads.
func (s *Store) SubscribeSelection(sel selector.Selector, handler ValueHandler) (*Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	deps, err := selector.AccessedPaths(sel, false)
	if err != nil {
		return nil, s.subscribeFailed(KindSelection, err)
	}
	if len(deps) == 0 {
		deps = []string{paths.Root}
	}

	evaluate := func(any) {
		value, err := selector.Evaluate(sel, s.root)
		if err != nil {
			return
		}
		handler(tree.Clone(value))
	}
	l := s.newListener(evaluate, nil)
	for _, dep := range deps {
		s.selections.Upsert(dep, l)
	}
	sub := s.subscription(KindSelection, strings.Join(deps, ","), l, func() {
		for _, dep := range deps {
			s.selections.Delete(dep, l)
		}
	})
	l.value(nil)
	return sub, nil
}

// ChangeValue writes next at the selector's path and runs the notification
// pipeline: value listeners at or below the path, children listeners at or
// above it, selection listeners overlapping it, then validation and error
// listeners. A failed write leaves the store unchanged.
func (s *Store) ChangeValue(sel selector.Selector, next any) (err error) {
	start := s.cfg.now()
	path := ""
	revalidated := 0
	defer func() {
		s.cfg.logger.LogOperation(OperationEvent{
			Op:          OpChange,
			Path:        path,
			Duration:    s.cfg.now().Sub(start),
			Revalidated: revalidated,
			Err:         err,
		})
	}()

	if s.changing {
		return ErrReentrantChange
	}
	segments, err := selector.Resolve(sel)
	if err != nil {
		return fmt.Errorf("formstate: change value: %w", err)
	}
	path = paths.Join(segments)

	value, err := tree.Normalize(next)
	if err != nil {
		return fmt.Errorf("formstate: change value: %w", err)
	}
	root, err := tree.Set(s.root, segments, value)
	if err != nil {
		return fmt.Errorf("formstate: change value: %w", err)
	}
	old, _ := tree.Lookup(s.root, path)
	s.root = root

	s.changing = true
	defer func() { s.changing = false }()

	s.notifyValues(path)
	s.notifyChildren(path)
	s.notifySelections(path)

	s.scheduler.Schedule(path)
	changed := s.validate()
	revalidated = len(changed)

	s.emit(path, activity.BuildValueChangedEvent(s.eventInput(activity.FormEventInput{
		Path:     path,
		OldValue: tree.Clone(old),
		NewValue: tree.Clone(value),
	})))
	s.emitValidation(changed)
	return nil
}

// RegisterValidator registers validate over the values at the selection
// paths. Errors are filed under the related paths, or under the selection
// paths when related is empty. Index segments act as wildcards, so a
// validator registered on items/0/price applies to every element of items.
// Registration does not run the validator.
func (s *Store) RegisterValidator(selection []selector.Selector, validate validation.ValidatorFunc, related ...selector.Selector) (err error) {
	start := s.cfg.now()
	var selectionPaths []string
	defer func() {
		s.cfg.logger.LogOperation(OperationEvent{
			Op:       OpRegister,
			Path:     strings.Join(selectionPaths, ","),
			Duration: s.cfg.now().Sub(start),
			Err:      err,
		})
	}()

	selectionPaths, err = resolveAll(selection)
	if err != nil {
		return fmt.Errorf("formstate: register validator: %w", err)
	}
	relatedPaths, err := resolveAll(related)
	if err != nil {
		return fmt.Errorf("formstate: register validator: %w", err)
	}
	if err := s.scheduler.Register(selectionPaths, validate, relatedPaths...); err != nil {
		return fmt.Errorf("formstate: register validator: %w", err)
	}

	s.emit(strings.Join(selectionPaths, ","), activity.BuildValidatorRegisteredEvent(s.eventInput(activity.FormEventInput{
		Paths: append([]string(nil), selectionPaths...),
	})))
	return nil
}

// RunAllValidation validates the whole tree and notifies error listeners. It
// is typically called once after the initial validators are registered.
func (s *Store) RunAllValidation() error {
	if s.changing {
		return ErrReentrantChange
	}
	s.changing = true
	defer func() { s.changing = false }()

	s.scheduler.Schedule(paths.Root)
	changed := s.validate()
	s.emitValidation(changed)
	return nil
}

// Errors returns the errors filed at or below the selector's path.
func (s *Store) Errors(sel selector.Selector) ([]validation.ValidationError, error) {
	path, err := selector.ResolvePath(sel)
	if err != nil {
		return nil, fmt.Errorf("formstate: errors: %w", err)
	}
	return s.scheduler.ErrorsForPath(path), nil
}

// HasErrors reports whether any error is filed anywhere in the form.
func (s *Store) HasErrors() bool {
	return s.scheduler.HasErrors(paths.Root)
}

func (s *Store) notifyValues(path string) {
	for _, target := range s.inclusion.Values(path) {
		for _, l := range s.values.Values(target) {
			l.value(s.valueAt(target))
		}
	}
}

func (s *Store) notifyChildren(path string) {
	for _, ancestor := range paths.Ancestors(path) {
		for _, l := range s.children.Values(ancestor) {
			l.value(s.valueAt(ancestor))
		}
	}
	for _, l := range s.children.Values(paths.Root) {
		l.value(s.Snapshot())
	}
}

func (s *Store) notifySelections(path string) {
	seen := map[*listener]struct{}{}
	var targets []*listener
	for _, dep := range s.selections.Keys() {
		if !paths.HasPrefix(dep, path) && !paths.HasPrefix(path, dep) {
			continue
		}
		for _, l := range s.selections.Values(dep) {
			if _, ok := seen[l]; ok {
				continue
			}
			seen[l] = struct{}{}
			targets = append(targets, l)
		}
	}
	for _, l := range targets {
		l.value(nil)
	}
}

// validate runs the scheduler and notifies error listeners at every path it
// reports, plus the root listeners when anything changed.
func (s *Store) validate() []string {
	start := s.cfg.now()
	changed := s.scheduler.Run(s.root)

	for _, path := range changed {
		if path == paths.Root {
			continue
		}
		for _, l := range s.errs.Values(path) {
			l.errors(s.scheduler.ErrorsForPath(path))
		}
	}
	if len(changed) > 0 {
		for _, l := range s.errs.Values(paths.Root) {
			l.errors(s.scheduler.ErrorsForPath(paths.Root))
		}
	}

	s.cfg.logger.LogOperation(OperationEvent{
		Op:          OpValidate,
		Duration:    s.cfg.now().Sub(start),
		Revalidated: len(changed),
	})
	return changed
}

func (s *Store) valueAt(path string) any {
	value, _ := tree.Lookup(s.root, path)
	return tree.Clone(value)
}

func (s *Store) newListener(onValue ValueHandler, onErrors ErrorHandler) *listener {
	return &listener{
		id:       uuid.NewString(),
		active:   true,
		onValue:  onValue,
		onErrors: onErrors,
	}
}

func (s *Store) subscription(kind, path string, l *listener, remove func()) *Subscription {
	s.cfg.logger.LogOperation(OperationEvent{Op: OpSubscribe, Kind: kind, Path: path, SubscriptionID: l.id})
	return &Subscription{
		id:   l.id,
		kind: kind,
		path: path,
		cancel: func() {
			l.active = false
			remove()
			s.cfg.logger.LogOperation(OperationEvent{Op: OpUnsubscribe, Kind: kind, Path: path, SubscriptionID: l.id})
		},
	}
}

func (s *Store) subscribeFailed(kind string, err error) error {
	err = fmt.Errorf("formstate: subscribe %s: %w", kind, err)
	s.cfg.logger.LogOperation(OperationEvent{Op: OpSubscribe, Kind: kind, Err: err})
	return err
}

func (s *Store) eventInput(input activity.FormEventInput) activity.FormEventInput {
	input.FormID = s.id
	input.ActorID = s.cfg.actor.actorID
	input.UserID = s.cfg.actor.userID
	input.TenantID = s.cfg.actor.tenantID
	return input
}

func (s *Store) emitValidation(changed []string) {
	if len(changed) == 0 || !s.emitter.Enabled() {
		return
	}
	var messages []string
	for _, e := range s.scheduler.ErrorsForPath(paths.Root) {
		messages = append(messages, e.Errors...)
	}
	s.emit(paths.Root, activity.BuildValidationChangedEvent(s.eventInput(activity.FormEventInput{
		Paths:  changed,
		Errors: messages,
	})))
}

// emit forwards event to the activity hooks. Hook failures are logged and
// never fail the operation that produced the event.
func (s *Store) emit(path string, event activity.Event) {
	if !s.emitter.Enabled() {
		return
	}
	if err := s.emitter.Emit(context.Background(), event); err != nil {
		s.cfg.logger.LogOperation(OperationEvent{
			Op:   OpActivity,
			Path: path,
			Err:  fmt.Errorf("formstate: activity %s: %w", event.Verb, err),
		})
	}
}

func resolveAll(selectors []selector.Selector) ([]string, error) {
	if len(selectors) == 0 {
		return nil, nil
	}
	out := make([]string, len(selectors))
	for i, sel := range selectors {
		path, err := selector.ResolvePath(sel)
		if err != nil {
			return nil, err
		}
		out[i] = path
	}
	return out, nil
}
