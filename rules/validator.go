package rules

import (
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-formstate/validation"
)

// ErrNilEngine indicates a validator built without an engine.
var ErrNilEngine = errors.New("rules: engine is nil")

// ValidatorOption configures NewValidator.
type ValidatorOption func(*validatorConfig)

type validatorConfig struct {
	names  []string
	logger Logger
	now    func() time.Time
}

// WithBindings names the selected values in the expression environment, in
// selection order.
func WithBindings(names ...string) ValidatorOption {
	return func(cfg *validatorConfig) {
		cfg.names = append(cfg.names, names...)
	}
}

// WithLogger attaches an evaluation logger to the validator.
func WithLogger(logger Logger) ValidatorOption {
	return func(cfg *validatorConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

// NewValidator compiles expression and returns a validator that runs it
// against the selected values. The result decides the outcome:
//
//	true, nil, ""     valid
//	false             message
//	non-empty string  that string
//
// Any other result, or an evaluation error, reports message (or the error text
// when message is empty) and is logged. An empty message on a false result
// reports `rule "<expression>" failed`.
func NewValidator(engine Engine, expression, message string, opts ...ValidatorOption) (validation.ValidatorFunc, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	cfg := validatorConfig{logger: noopLogger{}, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	program, err := engine.Compile(expression, cfg.names...)
	if err != nil {
		return nil, err
	}

	names := append([]string(nil), cfg.names...)
	return func(values []any) string {
		start := cfg.now()
		result, err := program.Run(environment(values, names))
		if err == nil {
			var ok bool
			result, ok = normalizeResult(result)
			if !ok {
				err = wrapRuleError(engine.Name(), expression, fmt.Errorf("unexpected result type %T", result))
			}
		}
		cfg.logger.LogEvaluation(EvaluationEvent{
			Engine:   engine.Name(),
			Expr:     expression,
			Result:   result,
			Duration: cfg.now().Sub(start),
			Err:      err,
		})
		if err != nil {
			if message == "" {
				return err.Error()
			}
			return message
		}

		switch typed := result.(type) {
		case bool:
			if typed {
				return ""
			}
			if message == "" {
				return fmt.Sprintf("rule %q failed", expression)
			}
			return message
		case string:
			return typed
		default:
			return ""
		}
	}, nil
}

// normalizeResult accepts nil, bools and strings.
func normalizeResult(result any) (any, bool) {
	switch result.(type) {
	case nil, bool, string:
		return result, true
	default:
		return result, false
	}
}
