package rules

import "time"

// EvaluationEvent describes a validator run for logging.
type EvaluationEvent struct {
	Engine   string
	Expr     string
	Result   any
	Duration time.Duration
	Err      error
}

// Logger records rule evaluations.
type Logger interface {
	LogEvaluation(EvaluationEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(EvaluationEvent)

// LogEvaluation implements Logger.
func (f LoggerFunc) LogEvaluation(event EvaluationEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogEvaluation(EvaluationEvent) {}
