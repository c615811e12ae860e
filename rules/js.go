//go:build js_eval

package rules

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsEngine struct {
	engineConfig
}

// NewJSEngine constructs an Engine backed by goja.
func NewJSEngine(opts ...JSOption) Engine {
	return &jsEngine{engineConfig: applyEngineOptions(opts)}
}

// JSAvailable reports whether the binary was built with the js_eval tag.
func JSAvailable() bool {
	return true
}

func (e *jsEngine) Name() string { return "js" }

func (e *jsEngine) Compile(expression string, _ ...string) (Program, error) {
	if expression == "" {
		return nil, wrapEngineError("js", ErrEmptyExpression)
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &jsProgram{engine: e, program: program, expression: expression}, nil
}

func (e *jsEngine) loadOrCompile(expression string) (*goja.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", wrapExpression(expression), false)
	if err != nil {
		return nil, wrapRuleError("js", expression, err)
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

func wrapExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

type jsProgram struct {
	engine     *jsEngine
	program    *goja.Program
	expression string
}

func (p *jsProgram) Run(env map[string]any) (any, error) {
	vm := goja.New()
	p.engine.inject(vm, env)
	value, err := vm.RunProgram(p.program)
	if err != nil {
		return nil, wrapRuleError("js", p.expression, err)
	}
	return value.Export(), nil
}

func (e *jsEngine) inject(vm *goja.Runtime, env map[string]any) {
	for key, value := range env {
		vm.Set(key, value)
	}
	if e.registry != nil {
		vm.Set("call", func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		})
		for _, name := range e.registry.Names() {
			vm.Set(name, e.registry.bound(name))
		}
	}
}
