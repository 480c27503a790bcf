package entities

// DirectProperty binds an attribute to a single store key.
type DirectProperty struct {
	Key string
}

// Direct returns a property that reads and writes key.
func Direct(key string) *DirectProperty {
	return &DirectProperty{Key: key}
}

// GetValue returns the store value for Key, propagating missing values.
func (p *DirectProperty) GetValue(entity Entity) (any, error) {
	return entity.Store().Get(p.Key)
}

// SetValue writes value to Key.
func (p *DirectProperty) SetValue(_ Entity, value any) (*ChangeSet, error) {
	return NewChangeSet(P(p.Key, value)), nil
}

// DefaultingProperty binds an attribute to an ordered chain of store keys.
// Reads return the first key that holds a value; writes always go to the
// first key.
type DefaultingProperty struct {
	Keys []string
}

// Defaulting returns a property reading keys in order.
func Defaulting(keys ...string) *DefaultingProperty {
	return &DefaultingProperty{Keys: append([]string(nil), keys...)}
}

// GetValue tries each key in order. A failure other than a missing value
// stops the chain and is returned as is.
func (p *DefaultingProperty) GetValue(entity Entity) (any, error) {
	store := entity.Store()
	for _, key := range p.Keys {
		value, err := store.Get(key)
		if err == nil {
			return value, nil
		}
		if !IsMissing(err) {
			return nil, err
		}
	}
	if len(p.Keys) == 0 {
		return nil, MissingValue("")
	}
	return nil, MissingValue(p.Keys[len(p.Keys)-1])
}

// SetValue writes value to the first key in the chain.
func (p *DefaultingProperty) SetValue(_ Entity, value any) (*ChangeSet, error) {
	if len(p.Keys) == 0 {
		return nil, ErrNoKeys
	}
	return NewChangeSet(P(p.Keys[0], value)), nil
}

// StaticProperty always reads a fixed value and discards writes.
type StaticProperty struct {
	Value any
}

// Static returns a property fixed to value.
func Static(value any) *StaticProperty {
	return &StaticProperty{Value: value}
}

// GetValue returns the fixed value.
func (p *StaticProperty) GetValue(Entity) (any, error) {
	return p.Value, nil
}

// SetValue returns an empty change set.
func (p *StaticProperty) SetValue(Entity, any) (*ChangeSet, error) {
	return NewChangeSet(), nil
}

// Getter reads an attribute directly from an entity.
type Getter func(entity Entity) (any, error)

// Setter builds a change set for value directly from an entity.
type Setter func(entity Entity, value any) (*ChangeSet, error)

// CallbackProperty delegates reads and writes to functions. Without a
// getter it reads as nil with no error; without a setter writes produce an
// empty change set.
type CallbackProperty struct {
	Getter Getter
	Setter Setter
}

// Callback returns a property backed by getter and setter, either of
// which may be nil.
func Callback(getter Getter, setter Setter) *CallbackProperty {
	return &CallbackProperty{Getter: getter, Setter: setter}
}

// GetValue calls the getter.
func (p *CallbackProperty) GetValue(entity Entity) (any, error) {
	if p.Getter == nil {
		return nil, nil
	}
	return p.Getter(entity)
}

// SetValue calls the setter.
func (p *CallbackProperty) SetValue(entity Entity, value any) (*ChangeSet, error) {
	if p.Setter == nil {
		return NewChangeSet(), nil
	}
	changes, err := p.Setter(entity, value)
	if err != nil {
		return nil, err
	}
	if changes == nil {
		return NewChangeSet(), nil
	}
	return changes, nil
}

// Transform maps a value in flight between an entity and a wrapped property.
type Transform func(entity Entity, value any) (any, error)

// DecoratorProperty wraps another property, transforming values read from
// it and values written to it. A nil transform passes the value through.
type DecoratorProperty struct {
	Inner        Property
	GetTransform Transform
	SetTransform Transform
}

// Decorate wraps inner with the given transforms.
func Decorate(inner Property, getTransform, setTransform Transform) *DecoratorProperty {
	return &DecoratorProperty{
		Inner:        inner,
		GetTransform: getTransform,
		SetTransform: setTransform,
	}
}

// GetValue reads through the inner property and applies GetTransform.
func (p *DecoratorProperty) GetValue(entity Entity) (any, error) {
	if p.Inner == nil {
		return nil, ErrNoInnerProperty
	}
	value, err := p.Inner.GetValue(entity)
	if err != nil {
		return nil, err
	}
	if p.GetTransform == nil {
		return value, nil
	}
	return p.GetTransform(entity, value)
}

// SetValue applies SetTransform and writes through the inner property.
func (p *DecoratorProperty) SetValue(entity Entity, value any) (*ChangeSet, error) {
	if p.Inner == nil {
		return nil, ErrNoInnerProperty
	}
	if p.SetTransform != nil {
		transformed, err := p.SetTransform(entity, value)
		if err != nil {
			return nil, err
		}
		value = transformed
	}
	return p.Inner.SetValue(entity, value)
}
