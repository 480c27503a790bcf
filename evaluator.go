package entities

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Engine names reported in EvaluationError and LogEvent.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

var errEmptyExpression = errors.New("expression must not be empty")

// EvaluatorOption configures the built-in evaluators.
type EvaluatorOption func(*evaluatorConfig)

type evaluatorConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// WithProgramCache stores compiled programs in cache. Keys are prefixed
// with the engine name, so one cache can back several evaluators.
func WithProgramCache(cache ProgramCache) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry exposes a copy of registry to expressions, both as
// call(name, args...) and under each registered name.
func WithFunctionRegistry(registry *FunctionRegistry) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyEvaluatorOptions(opts []EvaluatorOption) evaluatorConfig {
	cfg := evaluatorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func programKey(engine, expression string) string {
	return engine + ":" + expression
}

// cacheKey is programKey plus the registered function names, which are
// compiled into expr and CEL programs.
func (cfg evaluatorConfig) cacheKey(engine, expression string) string {
	if names := cfg.registry.Names(); len(names) > 0 {
		expression = "fn=" + strings.Join(names, ",") + "|" + expression
	}
	return programKey(engine, expression)
}

// cachedProgram returns the program cached under key or compiles and
// caches a new one. A cached value of another type is recompiled.
func cachedProgram[P any](cfg evaluatorConfig, key string, compile func() (P, error)) (P, error) {
	if cfg.cache != nil {
		if cached, ok := cfg.cache.Get(key); ok {
			if program, ok := cached.(P); ok {
				return program, nil
			}
		}
	}
	program, err := compile()
	if err != nil {
		var zero P
		return zero, err
	}
	if cfg.cache != nil {
		cfg.cache.Set(key, program)
	}
	return program, nil
}

// bindings returns the variables visible to an expression. Values shadow
// the reserved names now, args, metadata and attribute.
func bindings(ctx RuleContext) map[string]any {
	ctx = ctx.withDefaults()
	vars := make(map[string]any, len(ctx.Values)+4)
	vars["now"] = ctx.timestamp()
	vars["args"] = ctx.Args
	vars["metadata"] = ctx.Metadata
	vars["attribute"] = ctx.Attribute
	for key, value := range ctx.Values {
		vars[key] = value
	}
	return vars
}

func sortedNames(vars map[string]any) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// functions returns the registry bindings: call plus one function per
// registered name.
func (cfg evaluatorConfig) functions() map[string]func(...any) (any, error) {
	if cfg.registry == nil {
		return nil
	}
	registry := cfg.registry
	out := map[string]func(...any) (any, error){
		"call": func(args ...any) (any, error) {
			if len(args) == 0 {
				return nil, fmt.Errorf("entities: call requires a function name")
			}
			name, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("entities: call name must be a string, got %T", args[0])
			}
			return registry.Call(name, args[1:]...)
		},
	}
	for _, name := range registry.Names() {
		name := name
		out[name] = func(args ...any) (any, error) {
			return registry.Call(name, args...)
		}
	}
	return out
}

func (cfg evaluatorConfig) celCacheKey(expression string, vars map[string]any) string {
	return cfg.cacheKey(EngineCEL, strings.Join(sortedNames(vars), ",")+"|"+expression)
}
