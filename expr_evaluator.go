package entities

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEvaluator runs expressions with github.com/expr-lang/expr. Programs
// are compiled without a typed environment so one program serves any
// attribute values.
type exprEvaluator struct {
	cfg evaluatorConfig
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr.
func NewExprEvaluator(opts ...EvaluatorOption) Evaluator {
	return &exprEvaluator{cfg: applyEvaluatorOptions(opts)}
}

func (e *exprEvaluator) engine() string {
	return EngineExpr
}

// Evaluate compiles, or loads from the cache, and runs expression.
func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineExpr, errEmptyExpression)
	}
	program, err := cachedProgram(e.cfg, e.cfg.cacheKey(EngineExpr, expression), func() (*exprvm.Program, error) {
		return e.compile(expression)
	})
	if err != nil {
		return nil, wrapEvaluationError(EngineExpr, expression, ctx.Attribute, err)
	}
	result, err := exprlang.Run(program, bindings(ctx))
	if err != nil {
		return nil, wrapEvaluationError(EngineExpr, expression, ctx.Attribute, err)
	}
	return result, nil
}

func (e *exprEvaluator) compile(expression string) (*exprvm.Program, error) {
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for name, fn := range e.cfg.functions() {
		options = append(options, exprlang.Function(name, fn))
	}
	return exprlang.Compile(expression, options...)
}
