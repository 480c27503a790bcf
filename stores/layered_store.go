package stores

import (
	"errors"
	"fmt"
	"sort"

	entities "github.com/goliatone/go-entities"
	"github.com/goliatone/go-entities/layering"
)

var (
	// ErrNoLayers is returned when writing to a LayeredStore without layers.
	ErrNoLayers = errors.New("stores: layered store has no layers")
	// ErrSnapshotUnsupported is returned by Snapshot when a layer store cannot
	// report its entries.
	ErrSnapshotUnsupported = errors.New("stores: layer does not support snapshots")
)

// Snapshotter is implemented by stores that can report all of their entries.
type Snapshotter interface {
	Snapshot() map[string]any
}

// Layer pairs a scope with the store holding that scope's entries.
type Layer struct {
	Scope      entities.Scope
	Store      entities.Store
	SnapshotID string
}

// LayerOption configures optional metadata for a layer.
type LayerOption func(*Layer)

// WithSnapshotID sets the snapshot identifier used for auditing.
func WithSnapshotID(id string) LayerOption {
	return func(layer *Layer) {
		layer.SnapshotID = id
	}
}

// NewLayer constructs a Layer with a detached copy of the scope metadata.
func NewLayer(scope entities.Scope, store entities.Store, opts ...LayerOption) Layer {
	layer := Layer{
		Scope: scope.Clone(),
		Store: store,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&layer)
	}
	return layer
}

// LayeredStore resolves keys across scoped stores ordered from strongest to
// weakest. Reads fall through to weaker layers on a missing value; writes
// always land in the strongest layer.
type LayeredStore struct {
	layers []Layer
}

var _ entities.Store = (*LayeredStore)(nil)

// NewLayeredStore validates and sorts layers so that the highest priority
// is first. Scope names must be present and unique and priorities distinct.
func NewLayeredStore(layers ...Layer) (*LayeredStore, error) {
	if len(layers) == 0 {
		return &LayeredStore{}, nil
	}

	seenNames := make(map[string]struct{}, len(layers))
	copied := make([]Layer, len(layers))
	for i, layer := range layers {
		layer.Scope = layer.Scope.Clone()
		if layer.Scope.Name == "" {
			return nil, entities.ErrScopeNameRequired
		}
		if _, ok := seenNames[layer.Scope.Name]; ok {
			return nil, fmt.Errorf("%w: %s", entities.ErrDuplicateScopeName, layer.Scope.Name)
		}
		seenNames[layer.Scope.Name] = struct{}{}
		if layer.Store == nil {
			layer.Store = NewMapStore(nil)
		}
		copied[i] = layer
	}

	sort.Slice(copied, func(i, j int) bool {
		if copied[i].Scope.Priority == copied[j].Scope.Priority {
			return copied[i].Scope.Name < copied[j].Scope.Name
		}
		return copied[i].Scope.Priority > copied[j].Scope.Priority
	})

	for i := 1; i < len(copied); i++ {
		if copied[i-1].Scope.Priority <= copied[i].Scope.Priority {
			return nil, fmt.Errorf("%w: %d", entities.ErrPriorityOrder, copied[i].Scope.Priority)
		}
	}

	return &LayeredStore{layers: copied}, nil
}

// Get returns the value from the strongest layer holding key. A failure
// other than a missing value stops the search.
func (s *LayeredStore) Get(key string) (any, error) {
	if s != nil {
		for _, layer := range s.layers {
			value, err := layer.Store.Get(key)
			if err == nil {
				return value, nil
			}
			if !entities.IsMissing(err) {
				return nil, err
			}
		}
	}
	return nil, entities.MissingValue(key)
}

// Has reports whether any layer holds key.
func (s *LayeredStore) Has(key string) bool {
	_, err := s.Get(key)
	return err == nil
}

// Set writes changes to the strongest layer and returns a new stack sharing
// the untouched weaker layers.
func (s *LayeredStore) Set(changes *entities.ChangeSet) (entities.Store, error) {
	if s == nil || len(s.layers) == 0 {
		return nil, ErrNoLayers
	}
	strongest := s.layers[0]
	store, err := strongest.Store.Set(changes)
	if err != nil {
		return nil, fmt.Errorf("stores: set scope %q: %w", strongest.Scope.Name, err)
	}
	layers := make([]Layer, len(s.layers))
	copy(layers, s.layers)
	layers[0].Store = store
	return &LayeredStore{layers: layers}, nil
}

// Layers returns a copy of the layers, strongest first.
func (s *LayeredStore) Layers() []Layer {
	if s == nil || len(s.layers) == 0 {
		return nil
	}
	out := make([]Layer, len(s.layers))
	for i, layer := range s.layers {
		layer.Scope = layer.Scope.Clone()
		out[i] = layer
	}
	return out
}

// Len returns the number of layers.
func (s *LayeredStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Trace reports, per layer and strongest first, whether key is present.
func (s *LayeredStore) Trace(key string) []entities.Provenance {
	if s == nil {
		return nil
	}
	out := make([]entities.Provenance, 0, len(s.layers))
	for _, layer := range s.layers {
		value, err := layer.Store.Get(key)
		entry := entities.Provenance{
			Scope:      layer.Scope.Clone(),
			Key:        key,
			Found:      err == nil,
			SnapshotID: layer.SnapshotID,
		}
		if err == nil {
			entry.Value = value
		}
		out = append(out, entry)
	}
	return out
}

// Snapshot flattens all layers into one mapping, stronger layers winning
// and nested maps merged key by key.
func (s *LayeredStore) Snapshot() (map[string]any, error) {
	if s == nil || len(s.layers) == 0 {
		return map[string]any{}, nil
	}
	snapshots := make([]map[string]any, len(s.layers))
	for i, layer := range s.layers {
		snapshotter, ok := layer.Store.(Snapshotter)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotUnsupported, layer.Scope.Name)
		}
		snapshots[i] = snapshotter.Snapshot()
	}
	return layering.MergeSnapshots(snapshots...), nil
}
