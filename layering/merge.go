// Package layering deep-clones values and merges layered snapshots. Stores
// use it to detach caller-owned values and to flatten scoped layers into a
// single snapshot.
package layering

// MergeSnapshots flattens snapshots ordered from strongest to weakest. A
// key set in a stronger layer wins, except that nested map[string]any
// values are merged key by key so weaker layers fill their gaps. The result
// shares nothing with the inputs; nil layers are skipped.
func MergeSnapshots(layers ...map[string]any) map[string]any {
	merged := map[string]any{}
	for i := len(layers) - 1; i >= 0; i-- {
		overlay(merged, layers[i])
	}
	return merged
}

// overlay writes src over dst in place.
func overlay(dst, src map[string]any) {
	for key, value := range src {
		nested, isMap := value.(map[string]any)
		existing, hasMap := dst[key].(map[string]any)
		if isMap && hasMap && existing != nil {
			overlay(existing, nested)
			continue
		}
		dst[key] = Clone(value)
	}
}
