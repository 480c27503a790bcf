package stores

import (
	"reflect"
	"testing"

	entities "github.com/goliatone/go-entities"
)

func TestMapStoreGetAndHas(t *testing.T) {
	store := NewMapStore(map[string]any{"b": 2, "a": 1})

	if got, err := store.Get("a"); err != nil || got != 1 {
		t.Fatalf("expected 1, got %v err=%v", got, err)
	}
	if !store.Has("b") || store.Has("c") {
		t.Fatalf("unexpected Has results")
	}
	if _, err := store.Get("c"); !entities.IsMissing(err) {
		t.Fatalf("expected missing value, got %v", err)
	}
	if !reflect.DeepEqual(store.Keys(), []string{"a", "b"}) {
		t.Fatalf("expected sorted initial keys, got %v", store.Keys())
	}
}

func TestMapStoreSetIsCopyOnWrite(t *testing.T) {
	original := NewMapStore(map[string]any{"a": 1, "b": 2})

	next, err := original.Set(entities.NewChangeSet(entities.P("c", 3), entities.P("a", 10)))
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	updated := next.(*MapStore)

	if !reflect.DeepEqual(updated.Keys(), []string{"a", "b", "c"}) {
		t.Fatalf("expected overwrite in place and append, got %v", updated.Keys())
	}
	if got, _ := updated.Get("a"); got != 10 {
		t.Fatalf("expected overwritten value, got %v", got)
	}
	if got, _ := original.Get("a"); got != 1 || original.Has("c") {
		t.Fatalf("expected original untouched, got %v", original.Snapshot())
	}
}

func TestMapStoreSharesValuesAndDetachesSnapshot(t *testing.T) {
	nested := map[string]any{"size": 1}
	store := NewMapStoreFrom(entities.NewChangeSet(entities.P("nested", nested)))

	got, _ := store.Get("nested")
	if reflect.ValueOf(got).Pointer() != reflect.ValueOf(nested).Pointer() {
		t.Fatalf("expected Get to return the stored value")
	}
	next := store.With(entities.NewChangeSet(entities.P("other", 2)))
	carried, _ := next.Get("nested")
	if reflect.ValueOf(carried).Pointer() != reflect.ValueOf(nested).Pointer() {
		t.Fatalf("expected With to carry values by reference")
	}

	snapshot := store.Snapshot()
	snapshot["nested"].(map[string]any)["size"] = 42
	if nested["size"] != 1 {
		t.Fatalf("expected snapshot to be detached, got %v", nested)
	}
}

type linkedNode struct {
	Name string
	Next *linkedNode
}

func TestMapStoreHoldsCyclicValues(t *testing.T) {
	node := &linkedNode{Name: "root"}
	node.Next = node

	store := NewMapStore(map[string]any{"node": node})
	next := store.With(entities.NewChangeSet(entities.P("other", 1)))

	for _, s := range []*MapStore{store, next} {
		got, err := s.Get("node")
		if err != nil || got != node {
			t.Fatalf("expected the same node back, got %v err=%v", got, err)
		}
	}

	copied := next.Snapshot()["node"].(*linkedNode)
	if copied == node || copied.Next != copied {
		t.Fatalf("expected snapshot to copy the cycle, got %+v", copied)
	}
}

func TestMapStoreChangesKeepOrder(t *testing.T) {
	store := NewMapStoreFrom(entities.NewChangeSet(entities.P("z", 1), entities.P("a", 2)))
	if !reflect.DeepEqual(store.Changes().Keys(), []string{"z", "a"}) {
		t.Fatalf("expected change-set order, got %v", store.Changes().Keys())
	}
}

func TestMapStoreNilReceiver(t *testing.T) {
	var store *MapStore
	if store.Len() != 0 || store.Keys() != nil || store.Has("a") {
		t.Fatalf("expected nil store to be empty")
	}
	next := store.With(entities.NewChangeSet(entities.P("a", 1)))
	if got, _ := next.Get("a"); got != 1 {
		t.Fatalf("expected With on nil store to build a new store, got %v", got)
	}
}
