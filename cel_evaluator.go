package entities

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// celEvaluator runs expressions with cel-go. CEL checks expressions against
// declared variables, so programs are cached per expression and variable
// set; every variable is declared dyn.
type celEvaluator struct {
	cfg evaluatorConfig
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Registered
// functions are reachable through call(name, args...) with up to
// maxCELCallArgs arguments.
func NewCELEvaluator(opts ...EvaluatorOption) Evaluator {
	return &celEvaluator{cfg: applyEvaluatorOptions(opts)}
}

func (e *celEvaluator) engine() string {
	return EngineCEL
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineCEL, errEmptyExpression)
	}
	vars := bindings(ctx)
	program, err := cachedProgram(e.cfg, e.cfg.celCacheKey(expression, vars), func() (celgo.Program, error) {
		return e.compile(expression, vars)
	})
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, ctx.Attribute, err)
	}
	out, _, err := program.Eval(vars)
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, ctx.Attribute, err)
	}
	return out.Value(), nil
}

func (e *celEvaluator) compile(expression string, vars map[string]any) (celgo.Program, error) {
	opts := make([]celgo.EnvOption, 0, len(vars)+1)
	for _, name := range sortedNames(vars) {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	if e.cfg.registry != nil {
		opts = append(opts, celgo.Function("call", e.callOverloads()...))
	}
	env, err := celgo.NewEnv(opts...)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	return env.Program(ast)
}

const maxCELCallArgs = 4

// callOverloads declares call(name, args...) for 0 to maxCELCallArgs
// arguments; CEL has no variadic functions.
func (e *celEvaluator) callOverloads() []celgo.FunctionOpt {
	call := e.cfg.functions()["call"]
	binding := celgo.FunctionBinding(func(values ...ref.Val) ref.Val {
		args := make([]any, len(values))
		for i, val := range values {
			args[i] = val.Value()
		}
		result, err := call(args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	})

	overloads := make([]celgo.FunctionOpt, 0, maxCELCallArgs+1)
	for arity := 0; arity <= maxCELCallArgs; arity++ {
		params := []*celgo.Type{celgo.StringType}
		for i := 0; i < arity; i++ {
			params = append(params, celgo.DynType)
		}
		overloads = append(overloads, celgo.Overload(
			fmt.Sprintf("call_string_dyn_%d", arity),
			params,
			celgo.DynType,
			binding,
		))
	}
	return overloads
}
