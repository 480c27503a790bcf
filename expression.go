package entities

import (
	"time"
)

// DefaultEvaluator returns the expr-lang evaluator used when callers have no
// preference.
func DefaultEvaluator(opts ...EvaluatorOption) Evaluator {
	return NewExprEvaluator(opts...)
}

// ExpressionOption configures an expression-backed property.
type ExpressionOption func(*expressionConfig)

type expressionConfig struct {
	attribute string
	args      map[string]any
	metadata  map[string]any
	logger    Logger
}

// WithAttributeName labels evaluation errors and log events with name.
func WithAttributeName(name string) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.attribute = name
	}
}

// WithExpressionArgs exposes args to expressions as `args`.
func WithExpressionArgs(args map[string]any) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.args = copyMetadata(args)
	}
}

// WithExpressionMetadata exposes metadata to expressions as `metadata`.
func WithExpressionMetadata(metadata map[string]any) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.metadata = copyMetadata(metadata)
	}
}

// WithExpressionLogger records every evaluation on logger.
func WithExpressionLogger(logger Logger) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.logger = logger
	}
}

func applyExpressionOptions(opts []ExpressionOption) expressionConfig {
	cfg := expressionConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg expressionConfig) evaluate(evaluator Evaluator, expr string, snapshot map[string]any) (any, error) {
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	ctx := RuleContext{
		Values:    snapshot,
		Args:      copyMetadata(cfg.args),
		Metadata:  copyMetadata(cfg.metadata),
		Attribute: cfg.attribute,
	}.withDefaults()
	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, err := evaluator.Evaluate(ctx, expr)
	duration := time.Since(start)
	err = wrapEvaluationError(engine, expr, cfg.attribute, err)
	loggerOrNoop(cfg.logger).Log(LogEvent{
		Op:        LogOpEvaluate,
		Attribute: cfg.attribute,
		Engine:    engine,
		Expr:      expr,
		Duration:  duration,
		Err:       err,
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// evaluatorEngineName reports the engine of the built-in evaluators and
// "custom" for any other implementation.
func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	if named, ok := e.(interface{ engine() string }); ok {
		return named.engine()
	}
	return "custom"
}

// ExprDecoratorProperty is a decorator whose transforms are expressions.
// The value in flight is bound to `value`. An empty expression passes the
// value through unchanged.
type ExprDecoratorProperty struct {
	Inner     Property
	Evaluator Evaluator
	GetExpr   string
	SetExpr   string

	cfg expressionConfig
}

// ExprDecorate wraps inner with expression transforms run by evaluator.
func ExprDecorate(inner Property, evaluator Evaluator, getExpr, setExpr string, opts ...ExpressionOption) *ExprDecoratorProperty {
	return &ExprDecoratorProperty{
		Inner:     inner,
		Evaluator: evaluator,
		GetExpr:   getExpr,
		SetExpr:   setExpr,
		cfg:       applyExpressionOptions(opts),
	}
}

// GetValue reads through the inner property and evaluates GetExpr.
func (p *ExprDecoratorProperty) GetValue(entity Entity) (any, error) {
	if p.Inner == nil {
		return nil, ErrNoInnerProperty
	}
	value, err := p.Inner.GetValue(entity)
	if err != nil {
		return nil, err
	}
	if p.GetExpr == "" {
		return value, nil
	}
	return p.cfg.evaluate(p.Evaluator, p.GetExpr, map[string]any{"value": value})
}

// SetValue evaluates SetExpr and writes the result through the inner property.
func (p *ExprDecoratorProperty) SetValue(entity Entity, value any) (*ChangeSet, error) {
	if p.Inner == nil {
		return nil, ErrNoInnerProperty
	}
	if p.SetExpr != "" {
		transformed, err := p.cfg.evaluate(p.Evaluator, p.SetExpr, map[string]any{"value": value})
		if err != nil {
			return nil, err
		}
		value = transformed
	}
	return p.Inner.SetValue(entity, value)
}

// ComputedProperty is a read-only attribute derived from other attributes of
// the same entity. Each dependency is read with Entity.Get, so schema
// defaults apply, and bound to the expression under its attribute name.
// Writes are discarded.
type ComputedProperty struct {
	Evaluator Evaluator
	Expr      string
	Deps      []string

	cfg expressionConfig
}

// Computed returns a property evaluating expr over the attributes in deps.
func Computed(evaluator Evaluator, expr string, deps []string, opts ...ExpressionOption) *ComputedProperty {
	return &ComputedProperty{
		Evaluator: evaluator,
		Expr:      expr,
		Deps:      append([]string(nil), deps...),
		cfg:       applyExpressionOptions(opts),
	}
}

// GetValue reads the dependencies and evaluates the expression. A failing
// dependency, including a missing value, is returned as is.
func (p *ComputedProperty) GetValue(entity Entity) (any, error) {
	snapshot := make(map[string]any, len(p.Deps))
	for _, dep := range p.Deps {
		value, err := entity.Get(dep)
		if err != nil {
			return nil, err
		}
		snapshot[dep] = value
	}
	return p.cfg.evaluate(p.Evaluator, p.Expr, snapshot)
}

// SetValue returns an empty change set.
func (p *ComputedProperty) SetValue(Entity, any) (*ChangeSet, error) {
	return NewChangeSet(), nil
}
