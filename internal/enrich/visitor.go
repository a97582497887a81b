package enrich

import (
	"maps"
	"slices"
)

// FindAll returns every value stored under key at any depth of a decoded
// JSON document. Maps and slices are both descended, including maps nested
// inside a matching value. Map keys are visited in sorted order so the
// result is deterministic.
func FindAll(doc any, key string) []any {
	var found []any
	var visit func(v any)
	visit = func(v any) {
		switch node := v.(type) {
		case map[string]any:
			for _, k := range slices.Sorted(maps.Keys(node)) {
				child := node[k]
				if k == key {
					found = append(found, child)
				}
				visit(child)
			}
		case []any:
			for _, child := range node {
				visit(child)
			}
		}
	}
	visit(doc)
	return found
}
