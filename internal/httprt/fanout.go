package httprt

import "github.com/hanpama/httpgraph/internal/blueprint"

// Fanout distributes a batched response. items are indexed by the value found
// at batchKey in each item; requests[i] holds the keys of the i-th requester
// and the returned slice is aligned with requests.
//
// For single-valued fields the first item matching a key wins and a miss
// yields nil. For list fields every matching item is collected in response
// order and a miss yields an empty list.
func Fanout(items []any, batchKey []string, requests [][]any, list bool) []any {
	index := make(map[string][]any, len(items))
	for _, it := range items {
		k, ok := blueprint.Lookup(it, batchKey)
		if !ok || k == nil {
			continue
		}
		s := blueprint.FormatValue(k)
		if !list && len(index[s]) > 0 {
			continue
		}
		index[s] = append(index[s], it)
	}

	out := make([]any, len(requests))
	for i, keys := range requests {
		if list {
			matches := []any{}
			for _, k := range keys {
				matches = append(matches, index[blueprint.FormatValue(k)]...)
			}
			out[i] = matches
			continue
		}
		for _, k := range keys {
			if m := index[blueprint.FormatValue(k)]; len(m) > 0 {
				out[i] = m[0]
				break
			}
		}
	}
	return out
}
