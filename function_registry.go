package entities

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
)

var (
	// ErrFunctionNotRegistered reports a call to a name the registry does not hold.
	ErrFunctionNotRegistered = errors.New("entities: function not registered")
	// ErrInvalidFunctionName reports a name that cannot be bound in an expression.
	ErrInvalidFunctionName = errors.New("entities: invalid function name")
)

// Names bound by every evaluator; a function cannot shadow them.
var reservedFunctionNames = map[string]struct{}{
	"call":      {},
	"now":       {},
	"args":      {},
	"metadata":  {},
	"attribute": {},
	"value":     {},
}

// Function is a helper callable from expression properties.
type Function func(args ...any) (any, error)

// FunctionRegistry holds expression helpers keyed by lower-cased name.
// It is safe for concurrent use.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: map[string]Function{}}
}

// StandardFunctions returns a registry preloaded with coalesce and slugify.
func StandardFunctions() *FunctionRegistry {
	registry := NewFunctionRegistry()
	registry.MustRegister("coalesce", coalesce)
	registry.MustRegister("slugify", slugify)
	return registry
}

// Register binds fn to name. Names are case-insensitive identifiers and
// may be registered once.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if err := validateFunctionName(key); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("entities: function %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = map[string]Function{}
	}
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("entities: function %q already registered", key)
	}
	r.functions[key] = fn
	return nil
}

// MustRegister is Register that panics on error.
func (r *FunctionRegistry) MustRegister(name string, fn Function) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Has reports whether name is registered.
func (r *FunctionRegistry) Has(name string) bool {
	return r.lookup(name) != nil
}

// Call runs the function registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	fn := r.lookup(name)
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotRegistered, name)
	}
	return fn(args...)
}

// Clone returns an independent registry with the same functions.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{functions: make(map[string]Function, len(r.functions))}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// Names returns the registered names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *FunctionRegistry) lookup(name string) Function {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.functions[strings.ToLower(name)]
}

func validateFunctionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidFunctionName)
	}
	if _, reserved := reservedFunctionNames[name]; reserved {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidFunctionName, name)
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return fmt.Errorf("%w: %q is not an identifier", ErrInvalidFunctionName, name)
	}
	return nil
}

// coalesce returns the first argument that is neither nil nor an empty string.
func coalesce(args ...any) (any, error) {
	for _, arg := range args {
		if arg == nil {
			continue
		}
		if text, ok := arg.(string); ok && text == "" {
			continue
		}
		return arg, nil
	}
	return nil, nil
}

// slugify lower-cases its argument and collapses every run of characters
// other than letters and digits into a single dash.
func slugify(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("entities: slugify expects 1 argument, got %d", len(args))
	}
	text, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("entities: slugify expects a string, got %T", args[0])
	}
	var builder strings.Builder
	dash := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && builder.Len() > 0 {
				builder.WriteByte('-')
			}
			builder.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return builder.String(), nil
}
