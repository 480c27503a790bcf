// Package state defines persistence-facing contracts for loading and saving
// per-scope entity snapshots, plus a Loader that assembles scoped snapshots
// into an entity backed by a stores.LayeredStore.
//
// A Store only loads and saves a single snapshot for a single Ref. The core
// entities package stays persistence-agnostic; backends live behind Store
// implementations supplied by consumers.
//
// Data flow:
//
//	Store -> Loader.Load -> stores.NewLayeredStore(...) -> entities.Entity
//	entities.Entity -> Loader.Save -> Store
//
// Meta.SnapshotID is recorded on each stores.Layer and surfaces through
// Entity.Trace provenance.
//
// Ref.Identifier() provides a canonical storage key based on the scope name
// and its `<scope>_id` metadata (`system/tenant/org/team/user`).
package state
