package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	entities "github.com/goliatone/go-entities"
	"github.com/goliatone/go-entities/stores"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

// ErrScopeNotLoaded is returned by Save when the entity store holds no layer
// for the ref scope.
var ErrScopeNotLoaded = errors.New("state: scope not loaded")

// Ref identifies one persisted snapshot for one entity domain.
type Ref struct {
	Domain string
	Scope  entities.Scope
}

// Meta is storage-owned metadata used for trace/audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads/saves one snapshot of store keys for a single scope reference.
type Store interface {
	Load(ctx context.Context, ref Ref) (snapshot map[string]any, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot map[string]any, meta Meta) (Meta, error)
}

// Loader assembles entities from scoped snapshots. Options are applied to
// every entity it builds.
type Loader struct {
	Store   Store
	Options []entities.Option
}

// Mutator applies writes to a loaded entity and returns the result.
type Mutator func(entities.Entity) (entities.Entity, error)

func (r Ref) Identifier() (string, error) {
	switch r.Scope.Name {
	case "system":
		return fmt.Sprintf("system/%s", r.Domain), nil
	case "tenant", "org", "team", "user":
		metadataKey := r.Scope.Name + "_id"
		id, ok := r.Scope.Metadata[metadataKey]
		if !ok {
			return "", fmt.Errorf("missing metadata key %q for scope %q", metadataKey, r.Scope.Name)
		}
		idString, ok := id.(string)
		if !ok || idString == "" {
			return "", fmt.Errorf("missing metadata key %q for scope %q", metadataKey, r.Scope.Name)
		}
		return fmt.Sprintf("%s/%s/%s", r.Scope.Name, idString, r.Domain), nil
	default:
		return "", fmt.Errorf("unsupported scope name %q", r.Scope.Name)
	}
}

// Load builds an entity over one layer per scope. Scopes without a stored
// snapshot still get an empty layer so writes land in the strongest scope.
func (l Loader) Load(ctx context.Context, domain string, schema *entities.Schema, scopes ...entities.Scope) (entities.Entity, error) {
	if l.Store == nil {
		return entities.Entity{}, fmt.Errorf("state: store is required")
	}
	if domain == "" {
		return entities.Entity{}, fmt.Errorf("state: domain is required")
	}
	if len(scopes) == 0 {
		return entities.Entity{}, fmt.Errorf("state: at least one scope is required")
	}

	layers := make([]stores.Layer, 0, len(scopes))
	for _, scope := range scopes {
		snapshot, meta, ok, err := l.Store.Load(ctx, Ref{Domain: domain, Scope: scope})
		if err != nil {
			return entities.Entity{}, fmt.Errorf("state: load %q for scope %q: %w", domain, scope.Name, err)
		}
		if !ok {
			snapshot, meta = nil, Meta{}
		}
		layers = append(layers, stores.NewLayer(scope, stores.NewMapStore(snapshot), stores.WithSnapshotID(meta.SnapshotID)))
	}

	layered, err := stores.NewLayeredStore(layers...)
	if err != nil {
		return entities.Entity{}, fmt.Errorf("state: layers: %w", err)
	}
	return entities.New(schema, layered, l.Options...), nil
}

// Save persists the snapshot held for ref.Scope in the entity store. A
// layered store contributes the matching layer only; any other store must
// report its entries through stores.Snapshotter. When meta carries an ETag
// it must match the stored one.
func (l Loader) Save(ctx context.Context, ref Ref, entity entities.Entity, meta Meta) (Meta, error) {
	_, saved, err := l.save(ctx, ref, entity, meta)
	return saved, err
}

func (l Loader) save(ctx context.Context, ref Ref, entity entities.Entity, meta Meta) (map[string]any, Meta, error) {
	if l.Store == nil {
		return nil, Meta{}, fmt.Errorf("state: store is required")
	}
	if ref.Domain == "" {
		return nil, Meta{}, fmt.Errorf("state: domain is required")
	}
	if ref.Scope.Name == "" {
		return nil, Meta{}, fmt.Errorf("state: scope name is required")
	}

	snapshot, err := scopeSnapshot(entity.Store(), ref.Scope.Name)
	if err != nil {
		return nil, Meta{}, err
	}

	_, loadedMeta, ok, err := l.Store.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: load %q for scope %q: %w", ref.Domain, ref.Scope.Name, err)
	}
	if !ok {
		loadedMeta = Meta{}
	}
	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return nil, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	saved, err := l.Store.Save(ctx, ref, snapshot, mergeMeta(loadedMeta, meta))
	if err != nil {
		return nil, loadedMeta, fmt.Errorf("state: save %q for scope %q: %w", ref.Domain, ref.Scope.Name, err)
	}
	return snapshot, saved, nil
}

// Mutate loads the single scope in ref, applies fn and saves the result. The
// snapshot is only saved when fn succeeds. The returned entity carries the
// saved snapshot id in its provenance.
func (l Loader) Mutate(ctx context.Context, ref Ref, schema *entities.Schema, meta Meta, fn Mutator) (entities.Entity, Meta, error) {
	if fn == nil {
		return entities.Entity{}, Meta{}, fmt.Errorf("state: mutator is required")
	}
	entity, err := l.Load(ctx, ref.Domain, schema, ref.Scope)
	if err != nil {
		return entities.Entity{}, Meta{}, err
	}
	next, err := fn(entity)
	if err != nil {
		return entities.Entity{}, Meta{}, err
	}
	snapshot, saved, err := l.save(ctx, ref, next, meta)
	if err != nil {
		return entities.Entity{}, saved, err
	}
	layered, err := stores.NewLayeredStore(stores.NewLayer(ref.Scope, stores.NewMapStore(snapshot), stores.WithSnapshotID(saved.SnapshotID)))
	if err != nil {
		return entities.Entity{}, saved, fmt.Errorf("state: layers: %w", err)
	}
	return entities.New(schema, layered, l.Options...), saved, nil
}

func scopeSnapshot(store entities.Store, scope string) (map[string]any, error) {
	if layered, ok := store.(*stores.LayeredStore); ok {
		for _, layer := range layered.Layers() {
			if layer.Scope.Name != scope {
				continue
			}
			return snapshotOf(layer.Store, scope)
		}
		return nil, fmt.Errorf("%w: %s", ErrScopeNotLoaded, scope)
	}
	return snapshotOf(store, scope)
}

func snapshotOf(store entities.Store, scope string) (map[string]any, error) {
	snapshotter, ok := store.(stores.Snapshotter)
	if !ok {
		return nil, fmt.Errorf("%w: %s", stores.ErrSnapshotUnsupported, scope)
	}
	return snapshotter.Snapshot(), nil
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
