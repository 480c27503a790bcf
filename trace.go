package entities

import (
	"encoding/json"
	"fmt"
)

// Trace sources.
const (
	SourceProperty = "property"
	SourceDefault  = "default"
)

// Trace captures how an attribute was resolved: the store keys its property
// reads, whether the value came from the property or the schema default, and
// the property error observed on the way, if any. Layers is filled when the
// backing store can report per-layer provenance.
type Trace struct {
	Attribute string       `json:"attribute"`
	Keys      []string     `json:"keys,omitempty"`
	Source    string       `json:"source,omitempty"`
	Value     any          `json:"value,omitempty"`
	Found     bool         `json:"found"`
	Error     string       `json:"error,omitempty"`
	Layers    []Provenance `json:"layers,omitempty"`
}

// Provenance details how a specific scope contributed to a store key.
type Provenance struct {
	Scope      Scope  `json:"scope"`
	Key        string `json:"key"`
	Value      any    `json:"value,omitempty"`
	Found      bool   `json:"found"`
	SnapshotID string `json:"snapshot_id,omitempty"`
}

type layerTracer interface {
	Trace(key string) []Provenance
}

// Supplier returns the strongest layer that held a key for the trace, if
// the store reported layers.
func (t Trace) Supplier() (Provenance, bool) {
	for _, layer := range t.Layers {
		if layer.Found {
			return layer, true
		}
	}
	return Provenance{}, false
}

// ToJSON encodes the trace for logs and debugging endpoints.
func (t Trace) ToJSON() ([]byte, error) {
	return json.Marshal(t)
}

// TraceFromJSON decodes a payload produced by ToJSON. Values come back as
// their JSON types.
func TraceFromJSON(payload []byte) (Trace, error) {
	var trace Trace
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, fmt.Errorf("entities: decode trace: %w", err)
	}
	return trace, nil
}
