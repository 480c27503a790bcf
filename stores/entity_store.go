package stores

import (
	"errors"
	"fmt"

	entities "github.com/goliatone/go-entities"
)

// EntityStore exposes an entity as a Store, so one entity's attributes can
// serve as the store keys of another.
type EntityStore struct {
	entity entities.Entity
}

var _ entities.Store = EntityStore{}

// NewEntityStore wraps entity.
func NewEntityStore(entity entities.Entity) EntityStore {
	return EntityStore{entity: entity}
}

// Entity returns the wrapped entity.
func (s EntityStore) Entity() entities.Entity {
	return s.entity
}

// Get reads attribute key from the wrapped entity. A name the wrapped schema
// does not define is a missing key for the outer entity, so Defaulting
// properties fall through and outer defaults apply. The error still matches
// ErrUnknownAttribute.
func (s EntityStore) Get(key string) (any, error) {
	value, err := s.entity.Get(key)
	if errors.Is(err, entities.ErrUnknownAttribute) {
		return nil, fmt.Errorf("%w: %w", entities.MissingValue(key), err)
	}
	return value, err
}

// Has reports whether reading attribute key succeeds.
func (s EntityStore) Has(key string) bool {
	_, err := s.entity.Get(key)
	return err == nil
}

// Set writes changes as attributes of the wrapped entity and returns a new
// adapter around the resulting entity.
func (s EntityStore) Set(changes *entities.ChangeSet) (entities.Store, error) {
	next, err := s.entity.Set(changes)
	if err != nil {
		return nil, err
	}
	return EntityStore{entity: next}, nil
}
