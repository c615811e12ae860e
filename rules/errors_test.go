package rules

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapRuleErrorCreatesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := wrapRuleError("expr", "flag && missing", base)

	var ruleErr *RuleError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("expected RuleError, got %T", err)
	}
	if ruleErr.Engine != "expr" {
		t.Fatalf("expected engine expr, got %q", ruleErr.Engine)
	}
	if ruleErr.Expr != "flag && missing" {
		t.Fatalf("expected expression metadata, got %q", ruleErr.Expr)
	}
	if !errors.Is(ruleErr.Err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
	if !strings.Contains(err.Error(), `expr="flag && missing"`) {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrapRuleErrorAugmentsExisting(t *testing.T) {
	base := errors.New("compile failure")
	existing := &RuleError{
		Engine: "expr",
		Err:    base,
	}

	err := wrapRuleError("cel", "rule", existing)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to unwrap")
	}
	if existing.Engine != "expr" {
		t.Fatalf("existing engine should not be overwritten, got %q", existing.Engine)
	}
	if existing.Expr != "rule" {
		t.Fatalf("expression should be filled, got %q", existing.Expr)
	}
}

func TestWrapEngineError(t *testing.T) {
	if wrapEngineError("expr", nil) != nil {
		t.Fatalf("expected nil passthrough")
	}
	prefixed := errors.New("rules: already prefixed")
	if got := wrapEngineError("expr", prefixed); got != prefixed {
		t.Fatalf("expected prefixed error untouched, got %v", got)
	}
	wrapped := wrapEngineError("cel", errors.New("bad env"))
	if wrapped.Error() != "rules: cel engine: bad env" {
		t.Fatalf("unexpected message %q", wrapped.Error())
	}
	if (*RuleError)(nil).Error() != "<nil>" {
		t.Fatalf("expected nil RuleError to render <nil>")
	}
}

func TestFunctionRegistry(t *testing.T) {
	registry := NewFunctionRegistry()
	double := func(args ...any) (any, error) { return args[0].(int) * 2, nil }

	if err := registry.Register("Double", double); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register("double", double); !errors.Is(err, ErrDuplicateFunction) {
		t.Fatalf("expected duplicate registration to fail, got %v", err)
	}
	if err := registry.Register(" ", double); !errors.Is(err, ErrInvalidFunction) {
		t.Fatalf("expected empty name to fail, got %v", err)
	}
	if err := registry.Register("nil", nil); !errors.Is(err, ErrInvalidFunction) {
		t.Fatalf("expected nil function to fail, got %v", err)
	}

	got, err := registry.Call("DOUBLE", 4)
	if err != nil || got != 8 {
		t.Fatalf("Call = %v, %v", got, err)
	}
	if _, err := registry.Call("missing"); !errors.Is(err, ErrUnknownFunction) {
		t.Fatalf("expected unknown function to fail")
	}

	clone := registry.Clone()
	_ = clone.Register("triple", double)
	if names := registry.Names(); len(names) != 1 || names[0] != "double" {
		t.Fatalf("clone should not affect original, got %v", names)
	}

	var nilRegistry *FunctionRegistry
	if nilRegistry.Names() != nil || nilRegistry.Clone() != nil {
		t.Fatalf("expected nil registry helpers to be nil safe")
	}
	if _, err := nilRegistry.Call("x"); !errors.Is(err, ErrUnknownFunction) {
		t.Fatalf("expected nil registry call to fail")
	}
}

func TestJSEngineAvailability(t *testing.T) {
	engine := NewJSEngine()
	if JSAvailable() != (engine != nil) {
		t.Fatalf("JSAvailable() = %v but engine = %v", JSAvailable(), engine)
	}
}
