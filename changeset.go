package entities

import "sort"

// Pair is a single key/value entry used to build a ChangeSet in order.
type Pair struct {
	Key   string
	Value any
}

// P is shorthand for Pair{Key: key, Value: value}.
func P(key string, value any) Pair {
	return Pair{Key: key, Value: value}
}

// ChangeSet is an ordered mapping of keys to values. Property writes return
// one keyed by store keys; Entity.Set accepts one keyed by attribute names.
// Overwriting an existing key keeps its original position.
//
// Read methods are safe on a nil receiver, which behaves as an empty set.
type ChangeSet struct {
	order  []string
	values map[string]any
}

// NewChangeSet builds a change set from pairs, applied in order.
func NewChangeSet(pairs ...Pair) *ChangeSet {
	c := &ChangeSet{values: make(map[string]any, len(pairs))}
	for _, pair := range pairs {
		c.Set(pair.Key, pair.Value)
	}
	return c
}

// ChangeSetFromMap builds a change set from m with keys in sorted order so
// the result is deterministic.
func ChangeSetFromMap(m map[string]any) *ChangeSet {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	c := &ChangeSet{values: make(map[string]any, len(m))}
	for _, key := range keys {
		c.Set(key, m[key])
	}
	return c
}

// Set stores value under key and returns c for chaining.
func (c *ChangeSet) Set(key string, value any) *ChangeSet {
	if c.values == nil {
		c.values = map[string]any{}
	}
	if _, exists := c.values[key]; !exists {
		c.order = append(c.order, key)
	}
	c.values[key] = value
	return c
}

// Get returns the value stored under key.
func (c *ChangeSet) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, ok := c.values[key]
	return value, ok
}

// Has reports whether key is present.
func (c *ChangeSet) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Len returns the number of entries.
func (c *ChangeSet) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Keys returns the keys in insertion order.
func (c *ChangeSet) Keys() []string {
	if c == nil || len(c.order) == 0 {
		return nil
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Each calls fn for every entry in order.
func (c *ChangeSet) Each(fn func(key string, value any)) {
	if c == nil || fn == nil {
		return
	}
	for _, key := range c.order {
		fn(key, c.values[key])
	}
}

// Merge applies other's entries onto c in order; entries from other win.
func (c *ChangeSet) Merge(other *ChangeSet) *ChangeSet {
	other.Each(func(key string, value any) {
		c.Set(key, value)
	})
	return c
}

// Clone returns an independent copy of c.
func (c *ChangeSet) Clone() *ChangeSet {
	out := &ChangeSet{values: make(map[string]any, c.Len())}
	return out.Merge(c)
}

// Map returns the entries as a plain map.
func (c *ChangeSet) Map() map[string]any {
	out := make(map[string]any, c.Len())
	c.Each(func(key string, value any) {
		out[key] = value
	})
	return out
}
