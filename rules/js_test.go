//go:build js_eval

package rules

import (
	"strings"
	"testing"
)

func TestJSValidator(t *testing.T) {
	registry := NewFunctionRegistry()
	_ = registry.Register("upper", func(args ...any) (any, error) {
		s, _ := args[0].(string)
		return strings.ToUpper(s), nil
	})
	cache := NewMemoryCache(0, 0)
	engine := NewJSEngine(JSWithProgramCache(cache), JSWithFunctionRegistry(registry))

	validate, err := NewValidator(engine, `upper(value) === "ABC" && values.length === 2`, "not abc")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got := validate([]any{"abc", 1}); got != "" {
		t.Fatalf("expected valid, got %q", got)
	}
	if got := validate([]any{"x", 1}); got != "not abc" {
		t.Fatalf("expected message, got %q", got)
	}
	if _, ok := cache.Get(`upper(value) === "ABC" && values.length === 2`); !ok {
		t.Fatalf("expected program to be cached")
	}

	confirm, err := NewValidator(engine, `password === confirm ? "" : "passwords differ"`, "", WithBindings("password", "confirm"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got := confirm([]any{"a", "b"}); got != "passwords differ" {
		t.Fatalf("expected string result, got %q", got)
	}
}
