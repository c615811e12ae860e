// Package rules builds validators from expressions.
//
// An Engine compiles an expression once; the resulting Program is run for
// every validation against an environment holding the selected values:
//
//	values  the selected values in registration order
//	value   the first selected value
//	<name>  the i-th value, for every binding name passed to the validator
//
// Engines are backed by expr-lang/expr, google/cel-go and, behind the js_eval
// build tag, dop251/goja.
package rules

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Engine compiles rule expressions. names lists the bindings the environment
// will carry besides values and value; engines with static type checking
// declare them at compile time.
type Engine interface {
	Name() string
	Compile(expression string, names ...string) (Program, error)
}

// Program is a compiled rule expression.
type Program interface {
	Run(env map[string]any) (any, error)
}

// ProgramCache stores compiled programs keyed by expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

const (
	// DefaultExpiration is the lifetime of cached programs.
	DefaultExpiration = 10 * time.Minute
	// DefaultCleanupInterval is how often expired programs are purged.
	DefaultCleanupInterval = 30 * time.Minute
)

type memoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache returns a ProgramCache backed by go-cache. Non-positive
// durations fall back to the defaults.
func NewMemoryCache(expiration, cleanupInterval time.Duration) ProgramCache {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &memoryCache{cache: gocache.New(expiration, cleanupInterval)}
}

func (c *memoryCache) Get(key string) (any, bool) {
	return c.cache.Get(key)
}

func (c *memoryCache) Set(key string, value any) {
	c.cache.SetDefault(key, value)
}

func environment(values []any, names []string) map[string]any {
	env := map[string]any{
		"values": values,
	}
	if len(values) > 0 {
		env["value"] = values[0]
	} else {
		env["value"] = nil
	}
	for i, name := range names {
		if i < len(values) {
			env[name] = values[i]
		} else {
			env[name] = nil
		}
	}
	return env
}
