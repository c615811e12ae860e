package rules

import (
	"strconv"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

const celMaxArity = 3

type celEngine struct {
	engineConfig
}

type celProgram struct {
	program    celgo.Program
	expression string
}

// NewCELEngine constructs an Engine backed by cel-go.
func NewCELEngine(opts ...CELOption) Engine {
	return &celEngine{engineConfig: applyEngineOptions(opts)}
}

func (e *celEngine) Name() string { return "cel" }

func (e *celEngine) Compile(expression string, names ...string) (Program, error) {
	if expression == "" {
		return nil, wrapEngineError("cel", ErrEmptyExpression)
	}
	key := expression + "|" + strings.Join(names, ",")
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv(names)
	if err != nil {
		return nil, wrapEngineError("cel", err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapRuleError("cel", expression, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, wrapRuleError("cel", expression, err)
	}

	program := &celProgram{program: prg, expression: expression}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

func (e *celEngine) buildEnv(names []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("values", celgo.ListType(celgo.DynType)),
		celgo.Variable("value", celgo.DynType),
	}
	for _, name := range names {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	for _, name := range e.registry.Names() {
		opts = append(opts, e.function(name))
	}
	return celgo.NewEnv(opts...)
}

// function declares name with an overload per supported arity, all bound to
// the same registry call.
func (e *celEngine) function(name string) celgo.EnvOption {
	overloads := make([]celgo.FunctionOpt, 0, celMaxArity)
	for arity := 1; arity <= celMaxArity; arity++ {
		args := make([]*celgo.Type, arity)
		for i := range args {
			args[i] = celgo.DynType
		}
		overloads = append(overloads, celgo.Overload(
			name+"_dyn_"+strconv.Itoa(arity),
			args,
			celgo.DynType,
			celgo.FunctionBinding(e.callBinding(name)),
		))
	}
	return celgo.Function(name, overloads...)
}

func (e *celEngine) callBinding(name string) func(values ...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		args := make([]any, 0, len(values))
		for _, val := range values {
			args = append(args, val.Value())
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}

func (p *celProgram) Run(env map[string]any) (any, error) {
	out, _, err := p.program.Eval(env)
	if err != nil {
		return nil, wrapRuleError("cel", p.expression, err)
	}
	return out.Value(), nil
}
