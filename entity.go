package entities

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-entities/pkg/activity"
)

// Entity pairs a Schema with a Store. It is an immutable value: Set returns
// a new Entity and leaves the receiver untouched. No attribute state is
// cached; every read is recomputed from the store through the schema's
// properties.
type Entity struct {
	schema *Schema
	store  Store
	cfg    entityConfig

	// attributes being read on this call path, set only on the entity
	// handed to a property's GetValue
	resolving *resolution
}

// New constructs an Entity over store using schema.
func New(schema *Schema, store Store, opts ...Option) Entity {
	return Entity{
		schema: schema,
		store:  store,
		cfg:    applyOptions(opts),
	}
}

// Schema returns the entity schema.
func (e Entity) Schema() *Schema {
	return e.schema
}

// Store returns the backing store.
func (e Entity) Store() Store {
	return e.store
}

// Get returns the value of attribute name. When the property reports a
// missing value and the schema holds a default for name, the default is
// returned. Every other failure is returned unchanged.
func (e Entity) Get(name string) (any, error) {
	trace, err := e.resolve(name)
	if err != nil {
		return nil, err
	}
	return trace.Value, nil
}

// Trace resolves attribute name and reports where its value came from.
// The returned error matches what Get would return.
func (e Entity) Trace(name string) (Trace, error) {
	return e.resolve(name)
}

func (e Entity) resolve(name string) (Trace, error) {
	trace := Trace{Attribute: name}
	property, ok := e.schema.Property(name)
	if !ok {
		err := UnknownAttribute(name)
		trace.Error = err.Error()
		return trace, err
	}
	if e.resolving.contains(name) {
		err := AttributeCycle(e.resolving.path(name))
		trace.Error = err.Error()
		return trace, err
	}
	trace.Keys = StoreKeys(property)
	if tracer, ok := e.store.(layerTracer); ok {
		for _, key := range trace.Keys {
			trace.Layers = append(trace.Layers, tracer.Trace(key)...)
		}
	}

	reading := e
	reading.resolving = &resolution{name: name, parent: e.resolving}
	start := time.Now()
	value, err := property.GetValue(reading)
	e.logger().Log(LogEvent{
		Op:        LogOpGet,
		Attribute: name,
		Keys:      trace.Keys,
		Duration:  time.Since(start),
		Err:       err,
	})
	if err == nil {
		trace.Source = SourceProperty
		trace.Value = value
		trace.Found = true
		return trace, nil
	}

	trace.Error = err.Error()
	if !IsMissing(err) {
		return trace, err
	}
	if def, ok := e.schema.Default(name); ok {
		trace.Source = SourceDefault
		trace.Value = def
		trace.Found = true
		return trace, nil
	}
	return trace, err
}

// Set writes values, keyed by attribute name, and returns the entity
// wrapping the resulting store. It is SetContext with a background context.
func (e Entity) Set(values *ChangeSet) (Entity, error) {
	return e.SetContext(context.Background(), values)
}

// SetContext writes values, keyed by attribute name, in their iteration
// order. Every name is resolved before any property is asked to write, so
// an unknown attribute fails the call without touching the store. The
// change sets returned by the properties are merged, later entries winning
// on shared store keys, and applied with exactly one Store.Set call.
//
// A property write failing with ErrMissingValue only drops that attribute.
// Any other failure aborts the call, unless the entity was built with
// WithLenientWrites, in which case that attribute is dropped as well.
//
// The store is committed even when no property produced a change, but an
// activity event is only emitted when at least one store key was written.
//
// ctx is only used to deliver activity events.
func (e Entity) SetContext(ctx context.Context, values *ChangeSet) (Entity, error) {
	names := values.Keys()
	properties := make([]Property, len(names))
	for i, name := range names {
		property, ok := e.schema.Property(name)
		if !ok {
			return Entity{}, UnknownAttribute(name)
		}
		properties[i] = property
	}

	merged := NewChangeSet()
	written := make([]string, 0, len(names))
	for i, name := range names {
		value, _ := values.Get(name)
		start := time.Now()
		changes, err := properties[i].SetValue(e, value)
		e.logger().Log(LogEvent{
			Op:        LogOpSet,
			Attribute: name,
			Keys:      changes.Keys(),
			Duration:  time.Since(start),
			Err:       err,
		})
		if err != nil {
			if IsMissing(err) || e.cfg.lenientWrites {
				continue
			}
			return Entity{}, err
		}
		merged.Merge(changes)
		written = append(written, name)
	}

	start := time.Now()
	store, err := e.store.Set(merged)
	e.logger().Log(LogEvent{
		Op:       LogOpCommit,
		Keys:     merged.Keys(),
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return Entity{}, err
	}

	next := Entity{schema: e.schema, store: store, cfg: e.cfg}
	if merged.Len() > 0 {
		e.emitCommit(ctx, written, merged)
	}
	return next, nil
}

// Export reads every schema attribute. The first failing attribute, in
// name order, aborts the export.
func (e Entity) Export() (map[string]any, error) {
	names := e.schema.Names()
	out := make(map[string]any, len(names))
	for _, name := range names {
		value, err := e.Get(name)
		if err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, nil
}

// ActivityHooks returns a copy of the hooks configured on the entity.
func (e Entity) ActivityHooks() activity.Hooks {
	return e.cfg.emitter.Hooks()
}

func (e Entity) logger() Logger {
	return loggerOrNoop(e.cfg.logger)
}

func (e Entity) emitCommit(ctx context.Context, attributes []string, changes *ChangeSet) {
	if !e.cfg.emitter.Enabled() {
		return
	}
	event := activity.BuildEntityUpdatedEvent(activity.EntityEventInput{
		ObjectType: e.cfg.objectType,
		ObjectID:   e.cfg.objectID,
		CommitID:   uuid.NewString(),
		Attributes: attributes,
		Keys:       changes.Keys(),
	})
	err := e.cfg.emitter.Emit(ctx, event)
	if err != nil {
		e.logger().Log(LogEvent{Op: LogOpActivity, Keys: changes.Keys(), Err: err})
	}
}

// resolution is the chain of attribute reads in progress, innermost first.
type resolution struct {
	name   string
	parent *resolution
}

func (r *resolution) contains(name string) bool {
	for ; r != nil; r = r.parent {
		if r.name == name {
			return true
		}
	}
	return false
}

// path renders the chain outermost first, ending with name.
func (r *resolution) path(name string) []string {
	var out []string
	for ; r != nil; r = r.parent {
		out = append(out, r.name)
	}
	slices.Reverse(out)
	return append(out, name)
}
