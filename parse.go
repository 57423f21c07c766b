package rpncalc

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"time"
)

// Evaluator compiles and evaluates expressions with a registry, logging
// failures and recording metrics. An Evaluator is safe for concurrent use.
type Evaluator struct {
	reg     *Registry
	log     *slog.Logger
	metrics MetricsRecorder
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRegistry sets the registry of operators and functions. By default an
// Evaluator uses the registry returned by Default at the time of each call.
func WithRegistry(r *Registry) Option {
	return func(e *Evaluator) {
		e.reg = r
	}
}

// WithLogger sets a logger for failed compilations and evaluations, which are
// logged at debug level. A nil logger disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		e.log = l
	}
}

// WithMetrics sets the metrics recorder. A nil recorder disables metrics.
func WithMetrics(m MetricsRecorder) Option {
	return func(e *Evaluator) {
		if m == nil {
			m = NoopMetrics{}
		}
		e.metrics = m
	}
}

// NewEvaluator creates an Evaluator with the given options applied in order.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{metrics: NoopMetrics{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) registry() *Registry {
	if e.reg != nil {
		return e.reg
	}
	return Default()
}

// Compile compiles an expression. See Registry.Compile.
func (e *Evaluator) Compile(expr string, consts map[string]float64) (*Program, error) {
	p, err := e.registry().Compile(expr, consts)
	n := 0
	if p != nil {
		n = p.Len()
	}
	e.metrics.RecordCompile(context.Background(), n, err)
	if err != nil {
		e.logFailure("compile failed", expr, err)
		return nil, err
	}
	return p, nil
}

// Eval compiles and evaluates an expression.
func (e *Evaluator) Eval(expr string, consts map[string]float64) (float64, error) {
	p, err := e.Compile(expr, consts)
	if err != nil {
		return 0, err
	}
	return e.Run(p)
}

// Run evaluates a compiled program.
func (e *Evaluator) Run(p *Program) (float64, error) {
	start := time.Now()
	r, err := p.Eval()
	e.metrics.RecordEval(context.Background(), time.Since(start), err)
	if err != nil {
		e.logFailure("evaluation failed", p.Source(), err)
		return 0, err
	}
	return r, nil
}

// RunBig evaluates a compiled program with prec bits of precision. See
// Program.EvalBig.
func (e *Evaluator) RunBig(p *Program, prec uint) (*big.Float, error) {
	start := time.Now()
	r, err := p.EvalBig(prec)
	e.metrics.RecordEval(context.Background(), time.Since(start), err)
	if err != nil {
		e.logFailure("evaluation failed", p.Source(), err)
		return nil, err
	}
	return r, nil
}

// Parse compiles and evaluates an expression, reporting only whether it
// succeeded. On failure the result is 0.
func (e *Evaluator) Parse(expr string, consts map[string]float64) (float64, bool) {
	r, err := e.Eval(expr, consts)
	return r, err == nil
}

func (e *Evaluator) logFailure(msg, expr string, err error) {
	if e.log == nil {
		return
	}
	attrs := []any{
		slog.String("expr", expr),
		slog.String("error", err.Error()),
		slog.String("class", errclass(err)),
	}
	var ie InputError
	if errors.As(err, &ie) {
		attrs = append(attrs, slog.Int("col", ie.Pos()))
	}
	e.log.Debug(msg, attrs...)
}

var defaultEvaluator = NewEvaluator()

// Eval is a shortcut to compile and evaluate an expression with the default
// registry.
func Eval(expr string, consts map[string]float64) (float64, error) {
	return defaultEvaluator.Eval(expr, consts)
}

// Parse compiles and evaluates an expression with the default registry. The
// second result reports whether the expression was valid; if it is false,
// the first result is 0. Use Eval to learn why an expression failed.
func Parse(expr string, consts map[string]float64) (float64, bool) {
	return defaultEvaluator.Parse(expr, consts)
}
