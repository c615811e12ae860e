package rules

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEngine compiles rules with github.com/expr-lang/expr.
type exprEngine struct {
	engineConfig
}

// NewExprEngine constructs an Engine backed by expr-lang/expr.
func NewExprEngine(opts ...ExprOption) Engine {
	return &exprEngine{engineConfig: applyEngineOptions(opts)}
}

func (e *exprEngine) Name() string { return "expr" }

func (e *exprEngine) Compile(expression string, _ ...string) (Program, error) {
	if expression == "" {
		return nil, wrapEngineError("expr", ErrEmptyExpression)
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &exprProgram{engine: e, program: program, expression: expression}, nil
}

func (e *exprEngine) loadOrCompile(expression string) (*exprvm.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.registry.Names() {
		options = append(options, exprlang.Function(name, e.registry.bound(name)))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapRuleError("expr", expression, err)
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

type exprProgram struct {
	engine     *exprEngine
	program    *exprvm.Program
	expression string
}

func (p *exprProgram) Run(env map[string]any) (any, error) {
	result, err := exprlang.Run(p.program, p.engine.environment(env))
	if err != nil {
		return nil, wrapRuleError("expr", p.expression, err)
	}
	return result, nil
}

func (e *exprEngine) environment(base map[string]any) map[string]any {
	env := make(map[string]any, len(base)+1)
	for key, value := range base {
		env[key] = value
	}
	if e.registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		}
		for _, name := range e.registry.Names() {
			env[name] = e.registry.bound(name)
		}
	}
	return env
}
