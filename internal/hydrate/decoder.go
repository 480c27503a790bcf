package hydrate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-entities/layering"
)

// Decode stages reported by DecodeError.
const (
	StagePrepare  = "prepare"
	StageDecode   = "decode"
	StageValidate = "validate"
)

var errNilPayload = errors.New("payload is nil")

// Context identifies the entity an exported payload was read from.
type Context struct {
	ObjectType string
	ObjectID   string
}

// Label names the entity in errors.
func (c Context) Label() string {
	switch {
	case c.ObjectType != "" && c.ObjectID != "":
		return c.ObjectType + "/" + c.ObjectID
	case c.ObjectType != "":
		return c.ObjectType
	case c.ObjectID != "":
		return c.ObjectID
	default:
		return "entity"
	}
}

// DecodeError reports the stage at which hydrating an entity failed.
type DecodeError struct {
	Object string
	Stage  string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("hydrate %s: %s: %v", e.Object, e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// PreHook rewrites the exported attributes before decoding. Returning nil
// keeps the payload it was given.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook adjusts or validates the hydrated value.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces the JSON decoding step.
type CustomDecoder[T any] func(Context, map[string]any) (T, error)

// DecoderOption configures a Decoder.
type DecoderOption[T any] func(*Decoder[T])

// Decoder turns exported entity attributes into a typed value. Attribute
// names are matched against JSON field names.
type Decoder[T any] struct {
	preHooks  []PreHook
	postHooks []PostHook[T]
	configure []func(*json.Decoder)
	custom    CustomDecoder[T]
}

func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.preHooks = append(d.preHooks, hook)
		}
	}
}

func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.postHooks = append(d.postHooks, hook)
		}
	}
}

// WithUseNumber keeps numbers in interface fields as json.Number.
func WithUseNumber[T any]() DecoderOption[T] {
	return WithDecoderConfig[T]((*json.Decoder).UseNumber)
}

// WithDisallowUnknownFields fails on attributes T has no field for.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return WithDecoderConfig[T]((*json.Decoder).DisallowUnknownFields)
}

// WithDecoderConfig exposes the json.Decoder used for the decode stage.
func WithDecoderConfig[T any](configure func(*json.Decoder)) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if configure != nil {
			d.configure = append(d.configure, configure)
		}
	}
}

// WithCustomDecoder replaces JSON decoding with decoder.
func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.custom = decoder
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode hydrates payload into T. Pre hooks work on a deep copy, so the
// caller's payload is never modified.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var zero T
	fail := func(stage string, err error) (T, error) {
		return zero, &DecodeError{Object: ctx.Label(), Stage: stage, Err: err}
	}

	if payload == nil {
		return fail(StagePrepare, errNilPayload)
	}
	current := layering.Clone(payload)
	for _, hook := range d.preHooks {
		next, err := hook(ctx, current)
		if err != nil {
			return fail(StagePrepare, err)
		}
		if next != nil {
			current = next
		}
	}

	result, err := d.decode(ctx, current)
	if err != nil {
		return fail(StageDecode, err)
	}

	for _, hook := range d.postHooks {
		if err := hook(ctx, &result); err != nil {
			return fail(StageValidate, err)
		}
	}
	return result, nil
}

func (d *Decoder[T]) decode(ctx Context, payload map[string]any) (T, error) {
	if d.custom != nil {
		return d.custom(ctx, payload)
	}
	var result T
	buffer, err := json.Marshal(payload)
	if err != nil {
		return result, err
	}
	decoder := json.NewDecoder(bytes.NewReader(buffer))
	for _, configure := range d.configure {
		configure(decoder)
	}
	err = decoder.Decode(&result)
	return result, err
}
