package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formstate/validation"
)

var (
	// ErrInvalidFunction indicates a registration with an empty name or a nil
	// function.
	ErrInvalidFunction = errors.New("rules: invalid function")
	// ErrDuplicateFunction indicates a name registered twice.
	ErrDuplicateFunction = errors.New("rules: function already registered")
	// ErrUnknownFunction indicates a call to a name nothing was registered under.
	ErrUnknownFunction = errors.New("rules: unknown function")
)

// Function is a helper callable from rule expressions. It receives the call
// arguments, usually values read from the form.
type Function func(args ...any) (any, error)

// FunctionRegistry maps case-insensitive names to the helpers an engine
// exposes. Engines copy the registry when configured, so registering after an
// engine is built does not reach it.
type FunctionRegistry struct {
	mu  sync.RWMutex
	fns map[string]Function
}

// NewFunctionRegistry returns an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{fns: map[string]Function{}}
}

// FormFunctions returns a registry preloaded with the form helpers shared with
// the stock validators:
//
//	blank(v)    nil or the empty string
//	lines(s)    line count of a string, 0 for other values
//	number(v)   v as float64, an error for non-numeric values
func FormFunctions() *FunctionRegistry {
	r := NewFunctionRegistry()
	r.mustRegister("blank", unary(func(v any) (any, error) {
		return validation.IsBlank(v), nil
	}))
	r.mustRegister("lines", unary(func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return 0, nil
		}
		return validation.LineCount(s), nil
	}))
	r.mustRegister("number", unary(func(v any) (any, error) {
		n, ok := validation.Number(v)
		if !ok {
			return nil, fmt.Errorf("rules: number: %T is not numeric", v)
		}
		return n, nil
	}))
	return r
}

// Register adds fn under name.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	key := strings.ToLower(strings.TrimSpace(name))
	switch {
	case key == "":
		return fmt.Errorf("%w: empty name", ErrInvalidFunction)
	case fn == nil:
		return fmt.Errorf("%w: %q is nil", ErrInvalidFunction, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fns == nil {
		r.fns = map[string]Function{}
	}
	if _, ok := r.fns[key]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateFunction, name)
	}
	r.fns[key] = fn
	return nil
}

func (r *FunctionRegistry) mustRegister(name string, fn Function) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Call invokes the helper registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	fn := r.lookup(name)
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	return fn(args...)
}

func (r *FunctionRegistry) lookup(name string) Function {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fns[strings.ToLower(name)]
}

// Names returns the registered names, sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone copies the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &FunctionRegistry{fns: make(map[string]Function, len(r.fns))}
	for name, fn := range r.fns {
		out.fns[name] = fn
	}
	return out
}

func (r *FunctionRegistry) bound(name string) func(...any) (any, error) {
	return func(args ...any) (any, error) {
		return r.Call(name, args...)
	}
}

func unary(fn func(any) (any, error)) Function {
	return func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("rules: expected 1 argument, got %d", len(args))
		}
		return fn(args[0])
	}
}
