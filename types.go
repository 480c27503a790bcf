package entities

import (
	"time"

	"github.com/goliatone/go-entities/pkg/activity"
)

// Store is an immutable key/value mapping. Set never mutates the receiver;
// it returns a new Store holding the receiver's entries with changes
// applied.
type Store interface {
	// Get returns the value for key or an error wrapping ErrMissingValue.
	Get(key string) (any, error)
	// Has reports whether Get would succeed for key.
	Has(key string) bool
	// Set returns a new Store with changes merged in.
	Set(changes *ChangeSet) (Store, error)
}

// Property translates one entity attribute into store operations. A
// Property holds no per-entity state and can be shared across entities.
type Property interface {
	// GetValue reads the attribute from entity.
	GetValue(entity Entity) (any, error)
	// SetValue returns the store-level change set that writes value. It must
	// not mutate entity or its store.
	SetValue(entity Entity, value any) (*ChangeSet, error)
}

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

const (
	// SchemaFormatDescriptors represents the flattened field descriptors.
	SchemaFormatDescriptors SchemaFormat = "descriptors"
	// SchemaFormatOpenAPI represents OpenAPI-compatible JSON Schema documents.
	SchemaFormatOpenAPI SchemaFormat = "openapi"
)

// SchemaDocument encapsulates a generated schema output alongside its format
// identifier. Implementations must ensure Document is JSON-serialisable.
type SchemaDocument struct {
	Format   SchemaFormat
	Document any
}

// SchemaGenerator transforms an entity schema into a schema document.
// Implementations must handle a nil schema by returning an empty document.
type SchemaGenerator interface {
	Generate(schema *Schema) (SchemaDocument, error)
}

// RuleContext carries the inputs of one expression evaluation. Values are
// the attribute values in scope: the value in flight for a decorator, the
// dependencies for a computed property.
type RuleContext struct {
	Values    map[string]any
	Now       *time.Time
	Args      map[string]any
	Metadata  map[string]any
	Attribute string
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	if ctx.Now == nil {
		return time.Now()
	}
	return *ctx.Now
}

// Evaluator runs an expression against a rule context. Implementations
// must be safe for concurrent use; expression properties share them
// across entities.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
}

// Option configures an Entity.
type Option func(*entityConfig)

type entityConfig struct {
	logger         Logger
	activityHooks  activity.Hooks
	activityConfig activity.Config
	emitter        *activity.Emitter
	lenientWrites  bool
	objectType     string
	objectID       string
}

func applyOptions(opts []Option) entityConfig {
	cfg := entityConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if len(cfg.activityHooks) > 0 {
		cfg.emitter = activity.NewEmitter(cfg.activityHooks, cfg.activityConfig)
	}
	return cfg
}

// WithLenientWrites makes Entity.Set drop the contribution of an attribute
// whose property write fails with a non-missing error instead of failing
// the whole batch. Dropped writes are reported through the Logger.
func WithLenientWrites() Option {
	return func(cfg *entityConfig) {
		cfg.lenientWrites = true
	}
}

// WithObjectType sets the object type reported in activity events.
func WithObjectType(objectType string) Option {
	return func(cfg *entityConfig) {
		cfg.objectType = objectType
	}
}

// WithObjectID sets the object identifier reported in activity events.
func WithObjectID(id string) Option {
	return func(cfg *entityConfig) {
		cfg.objectID = id
	}
}
