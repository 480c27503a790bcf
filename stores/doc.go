// Package stores provides the reference entities.Store implementations:
//
//   - MapStore: an ordered in-memory mapping with copy-on-write Set.
//   - EntityStore: adapts an entities.Entity so it can back another entity.
//   - LayeredStore: a stack of scoped stores resolved strongest first.
//
// Every Set returns a new store and leaves the receiver unchanged, so stores
// can be shared between goroutines without locking.
package stores
