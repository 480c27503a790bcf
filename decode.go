package entities

import (
	"reflect"

	"github.com/goliatone/go-entities/internal/hydrate"
)

// DecodeOption configures Decode.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	strict    bool
	useNumber bool
	skipValid bool
}

// DecodeStrict rejects exported attributes that T has no field for.
func DecodeStrict() DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.strict = true
	}
}

// DecodeUseNumber decodes numbers held in interface fields as json.Number.
func DecodeUseNumber() DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.useNumber = true
	}
}

// DecodeSkipValidation disables the Validate call on the decoded value.
func DecodeSkipValidation() DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.skipValid = true
	}
}

// Decode exports entity and hydrates the attributes into T using the
// attribute names as JSON field names. When T (or *T) has a
// `Validate() error` method it runs after decoding.
func Decode[T any](entity Entity, opts ...DecodeOption) (T, error) {
	var zero T
	cfg := decodeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	exported, err := entity.Export()
	if err != nil {
		return zero, err
	}

	decoderOpts := []hydrate.DecoderOption[T]{}
	if cfg.strict {
		decoderOpts = append(decoderOpts, hydrate.WithDisallowUnknownFields[T]())
	}
	if cfg.useNumber {
		decoderOpts = append(decoderOpts, hydrate.WithUseNumber[T]())
	}
	if !cfg.skipValid {
		decoderOpts = append(decoderOpts, hydrate.WithPostHook[T](func(_ hydrate.Context, value *T) error {
			return validateValue(value)
		}))
	}

	ctx := hydrate.Context{
		ObjectType: entity.cfg.objectType,
		ObjectID:   entity.cfg.objectID,
	}
	return hydrate.NewDecoder[T](decoderOpts...).Decode(ctx, exported)
}

func validateValue[T any](value *T) error {
	if value == nil {
		return nil
	}
	if v, ok := any(value).(interface{ Validate() error }); ok {
		return v.Validate()
	}
	if v, ok := any(*value).(interface{ Validate() error }); ok {
		if rv := reflect.ValueOf(*value); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil
		}
		return v.Validate()
	}
	return nil
}
