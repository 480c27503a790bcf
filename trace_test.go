package entities

import (
	"testing"
)

type tracingStore struct {
	*recordingStore
	layers []Provenance
}

func (s tracingStore) Trace(key string) []Provenance {
	out := make([]Provenance, 0, len(s.layers))
	for _, layer := range s.layers {
		layer.Key = key
		out = append(out, layer)
	}
	return out
}

func TestTraceIncludesLayerProvenance(t *testing.T) {
	store := tracingStore{
		recordingStore: newRecordingStore(P("post_title", "Hello")),
		layers: []Provenance{
			{Scope: NewScope("user", ScopePriorityUser), Found: false},
			{Scope: NewScope("system", ScopePrioritySystem), Found: true, Value: "Hello", SnapshotID: "snap-1"},
		},
	}
	entity := New(articleSchema(), store)

	trace, err := entity.Trace("title")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if len(trace.Layers) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(trace.Layers))
	}
	if trace.Layers[1].Scope.Name != "system" || trace.Layers[1].Key != "post_title" || trace.Layers[1].SnapshotID != "snap-1" {
		t.Fatalf("unexpected provenance %+v", trace.Layers[1])
	}

	trace, _ = entity.Trace("status")
	if len(trace.Layers) != 4 {
		t.Fatalf("expected one entry per layer and key, got %d", len(trace.Layers))
	}
}

func TestTraceJSONRoundTrip(t *testing.T) {
	trace := Trace{
		Attribute: "title",
		Keys:      []string{"post_title"},
		Source:    SourceProperty,
		Value:     "Hello",
		Found:     true,
		Layers: []Provenance{{
			Scope:      NewScope("tenant", ScopePriorityTenant, WithScopeLabel("Tenant")),
			Key:        "post_title",
			Value:      "Hello",
			Found:      true,
			SnapshotID: "snap-9",
		}},
	}

	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	decoded, err := TraceFromJSON(payload)
	if err != nil {
		t.Fatalf("TraceFromJSON: %v", err)
	}
	if decoded.Attribute != "title" || decoded.Value != "Hello" || !decoded.Found {
		t.Fatalf("unexpected decoded trace %+v", decoded)
	}
	if len(decoded.Layers) != 1 || decoded.Layers[0].Scope.Label != "Tenant" || decoded.Layers[0].SnapshotID != "snap-9" {
		t.Fatalf("unexpected decoded layers %+v", decoded.Layers)
	}

	if _, err := TraceFromJSON([]byte("{")); err == nil {
		t.Fatalf("expected invalid payload error")
	}
}

func TestTraceSupplier(t *testing.T) {
	trace := Trace{Layers: []Provenance{
		{Scope: NewScope("user", ScopePriorityUser), Key: "theme"},
		{Scope: NewScope("tenant", ScopePriorityTenant), Key: "theme", Found: true, Value: "dark"},
		{Scope: NewScope("system", ScopePrioritySystem), Key: "theme", Found: true, Value: "light"},
	}}

	supplier, ok := trace.Supplier()
	if !ok || supplier.Scope.Name != "tenant" || supplier.Value != "dark" {
		t.Fatalf("expected tenant to supply the value, got %+v ok=%v", supplier, ok)
	}
	if _, ok := (Trace{}).Supplier(); ok {
		t.Fatalf("expected no supplier without layers")
	}
}
