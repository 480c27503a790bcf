package stores

import (
	"sort"

	entities "github.com/goliatone/go-entities"
	"github.com/goliatone/go-entities/layering"
)

// MapStore is an immutable ordered key/value store. Set copies the
// receiver's entries, overwrites existing keys in place and appends new keys
// in change-set order.
//
// Only the mapping is copied on write. Values are held by reference, so Get,
// Changes and successive stores return the same value that was written and
// callers must not mutate a value after handing it to the store. Snapshot is
// the detached view.
type MapStore struct {
	order  []string
	values map[string]any
}

var _ entities.Store = (*MapStore)(nil)

// NewMapStore builds a store from initial with keys in sorted order.
func NewMapStore(initial map[string]any) *MapStore {
	keys := make([]string, 0, len(initial))
	for key := range initial {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	s := &MapStore{
		order:  make([]string, 0, len(keys)),
		values: make(map[string]any, len(keys)),
	}
	for _, key := range keys {
		s.put(key, initial[key])
	}
	return s
}

// NewMapStoreFrom builds a store from changes, keeping their order.
func NewMapStoreFrom(changes *entities.ChangeSet) *MapStore {
	s := &MapStore{values: make(map[string]any, changes.Len())}
	changes.Each(s.put)
	return s
}

// Get returns the value for key or a missing value error.
func (s *MapStore) Get(key string) (any, error) {
	if s != nil {
		if value, ok := s.values[key]; ok {
			return value, nil
		}
	}
	return nil, entities.MissingValue(key)
}

// Has reports whether key is present.
func (s *MapStore) Has(key string) bool {
	_, err := s.Get(key)
	return err == nil
}

// Set returns a new store with changes applied. The receiver is unchanged.
func (s *MapStore) Set(changes *entities.ChangeSet) (entities.Store, error) {
	return s.With(changes), nil
}

// With is Set with the concrete return type.
func (s *MapStore) With(changes *entities.ChangeSet) *MapStore {
	next := &MapStore{
		order:  make([]string, 0, s.Len()+changes.Len()),
		values: make(map[string]any, s.Len()+changes.Len()),
	}
	if s != nil {
		next.order = append(next.order, s.order...)
		for key, value := range s.values {
			next.values[key] = value
		}
	}
	changes.Each(next.put)
	return next
}

// Keys returns the keys in store order.
func (s *MapStore) Keys() []string {
	if s == nil || len(s.order) == 0 {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of entries.
func (s *MapStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Snapshot returns a deep copy of the entries.
func (s *MapStore) Snapshot() map[string]any {
	out := make(map[string]any, s.Len())
	if s == nil {
		return out
	}
	for key, value := range s.values {
		out[key] = layering.Clone(value)
	}
	return out
}

// Changes returns the entries as an ordered change set sharing the stored
// values.
func (s *MapStore) Changes() *entities.ChangeSet {
	out := entities.NewChangeSet()
	for _, key := range s.Keys() {
		out.Set(key, s.values[key])
	}
	return out
}

// put is only called while building a new store.
func (s *MapStore) put(key string, value any) {
	if _, exists := s.values[key]; !exists {
		s.order = append(s.order, key)
	}
	s.values[key] = value
}
