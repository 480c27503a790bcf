//go:build js_eval

package entities

import (
	"fmt"

	"github.com/dop251/goja"
)

// jsEvaluator runs expressions as JavaScript with goja. Each evaluation
// gets a fresh runtime; compiled programs are shared through the cache.
type jsEvaluator struct {
	cfg evaluatorConfig
}

// NewJSEvaluator constructs an Evaluator backed by goja.
func NewJSEvaluator(opts ...EvaluatorOption) Evaluator {
	return &jsEvaluator{cfg: applyEvaluatorOptions(opts)}
}

func (e *jsEvaluator) engine() string {
	return EngineJS
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineJS, errEmptyExpression)
	}
	program, err := cachedProgram(e.cfg, programKey(EngineJS, expression), func() (*goja.Program, error) {
		return goja.Compile("", fmt.Sprintf("(function(){ return (%s); })()", expression), false)
	})
	if err != nil {
		return nil, wrapEvaluationError(EngineJS, expression, ctx.Attribute, err)
	}

	vm := goja.New()
	for name, value := range bindings(ctx) {
		if err := vm.Set(name, value); err != nil {
			return nil, wrapEvaluationError(EngineJS, expression, ctx.Attribute, err)
		}
	}
	for name, fn := range e.cfg.functions() {
		if err := vm.Set(name, fn); err != nil {
			return nil, wrapEvaluationError(EngineJS, expression, ctx.Attribute, err)
		}
	}

	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, wrapEvaluationError(EngineJS, expression, ctx.Attribute, err)
	}
	return value.Export(), nil
}
