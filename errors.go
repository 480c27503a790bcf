package entities

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingValue signals that no value is currently available for a
	// store key or attribute. Entity.Get recovers from it using schema
	// defaults and Defaulting properties recover by trying the next key.
	ErrMissingValue = errors.New("entities: missing value")
	// ErrUnknownAttribute signals a name that is not registered in the schema.
	ErrUnknownAttribute = errors.New("entities: unknown attribute")
	// ErrNoKeys is returned when writing through a Defaulting property that
	// was built without any store keys.
	ErrNoKeys = errors.New("entities: property has no store keys")
	// ErrNoEvaluator indicates an expression property without an evaluator.
	ErrNoEvaluator = errors.New("entities: evaluator not configured")
	// ErrAttributeCycle is returned when reading an attribute requires
	// reading itself, directly or through other attributes.
	ErrAttributeCycle = errors.New("entities: attribute cycle")
	// ErrNoInnerProperty is returned by decorators built without a property
	// to wrap.
	ErrNoInnerProperty = errors.New("entities: decorator has no inner property")
)

// MissingValue returns an error wrapping ErrMissingValue for key.
func MissingValue(key string) error {
	return fmt.Errorf("%w: %q", ErrMissingValue, key)
}

// UnknownAttribute returns an error wrapping ErrUnknownAttribute for name.
func UnknownAttribute(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
}

// AttributeCycle returns an error wrapping ErrAttributeCycle for the chain
// of attribute reads in path.
func AttributeCycle(path []string) error {
	return fmt.Errorf("%w: %s", ErrAttributeCycle, strings.Join(path, " -> "))
}

// IsMissing reports whether err signals a missing value.
func IsMissing(err error) bool {
	return errors.Is(err, ErrMissingValue)
}

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine    string
	Expr      string
	Attribute string
	Err       error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("entities: %s evaluator %s attribute=%s: %v", e.Engine, describeExpression(e.Expr), describeAttribute(e.Attribute), e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func describeAttribute(attribute string) string {
	if attribute == "" {
		return "<none>"
	}
	return attribute
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "entities:") {
		return err
	}
	return fmt.Errorf("entities: %s evaluator: %w", engine, err)
}

func wrapEvaluationError(engine, expr, attribute string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Attribute == "" {
			evalErr.Attribute = attribute
		}
		return evalErr
	}

	return &EvaluationError{
		Engine:    engine,
		Expr:      expr,
		Attribute: attribute,
		Err:       err,
	}
}
