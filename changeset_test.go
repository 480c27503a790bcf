package entities

import (
	"reflect"
	"testing"
)

func TestChangeSetKeepsInsertionOrder(t *testing.T) {
	changes := NewChangeSet(P("b", 1), P("a", 2), P("c", 3))
	changes.Set("a", 20)

	if !reflect.DeepEqual(changes.Keys(), []string{"b", "a", "c"}) {
		t.Fatalf("unexpected order %v", changes.Keys())
	}
	if value, _ := changes.Get("a"); value != 20 {
		t.Fatalf("expected overwrite in place, got %v", value)
	}
}

func TestChangeSetFromMapSortsKeys(t *testing.T) {
	changes := ChangeSetFromMap(map[string]any{"z": 1, "a": 2, "m": 3})
	if !reflect.DeepEqual(changes.Keys(), []string{"a", "m", "z"}) {
		t.Fatalf("unexpected order %v", changes.Keys())
	}
}

func TestChangeSetMergeLaterWins(t *testing.T) {
	base := NewChangeSet(P("a", 1), P("b", 2))
	base.Merge(NewChangeSet(P("c", 3), P("a", 10)))

	if !reflect.DeepEqual(base.Keys(), []string{"a", "b", "c"}) {
		t.Fatalf("unexpected order %v", base.Keys())
	}
	if !reflect.DeepEqual(base.Map(), map[string]any{"a": 10, "b": 2, "c": 3}) {
		t.Fatalf("unexpected values %v", base.Map())
	}
}

func TestChangeSetCloneIsIndependent(t *testing.T) {
	original := NewChangeSet(P("a", 1))
	clone := original.Clone()
	clone.Set("b", 2)

	if original.Has("b") || original.Len() != 1 {
		t.Fatalf("expected original untouched, got %v", original.Map())
	}
}

func TestChangeSetNilIsEmpty(t *testing.T) {
	var changes *ChangeSet
	if changes.Len() != 0 || changes.Keys() != nil || changes.Has("a") {
		t.Fatalf("expected nil change set to behave as empty")
	}
	if len(changes.Map()) != 0 || changes.Clone().Len() != 0 {
		t.Fatalf("expected empty map and clone")
	}
	visited := 0
	changes.Each(func(string, any) { visited++ })
	if visited != 0 {
		t.Fatalf("expected no iteration")
	}
	if NewChangeSet().Merge(nil).Len() != 0 {
		t.Fatalf("expected merging nil to be a no-op")
	}
}
