package summarizer

import (
	"encoding/json"
	"fmt"
	"maps"
	"unicode/utf8"
)

// chunkObjects splits data objects into chunks whose serialized size stays
// near the configured limit. Splitting happens on object boundaries; a single
// object that alone exceeds the limit is broken into response segments so no
// chunk dwarfs the others.
func (s *Summarizer) chunkObjects(objects []map[string]any) [][]map[string]any {
	if serializedSize(objects) <= s.maxChunkSize {
		return [][]map[string]any{objects}
	}

	var chunks [][]map[string]any
	var current []map[string]any
	currentSize := 0

	for _, obj := range objects {
		parts := []map[string]any{obj}
		if serializedSize(obj) > s.maxChunkSize {
			parts = splitOversize(obj, s.maxChunkSize)
		}

		for _, part := range parts {
			size := serializedSize(part)
			if currentSize+size > s.maxChunkSize && len(current) > 0 {
				chunks = append(chunks, current)
				current = []map[string]any{part}
				currentSize = size
			} else {
				current = append(current, part)
				currentSize += size
			}
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, current)
	}

	return chunks
}

// splitOversize breaks an object whose serialized form exceeds max into
// copies carrying consecutive segments of its response text. Objects without
// a response string cannot be split and are returned whole.
func splitOversize(obj map[string]any, max int) []map[string]any {
	response, ok := obj["response"].(string)
	if !ok || response == "" {
		return []map[string]any{obj}
	}

	// Room left for response text once the other fields are accounted for.
	room := max - (serializedSize(obj) - len(response))
	if room < 1 {
		room = max / 2
	}

	segments := splitAtRuneBoundary(response, room)
	parts := make([]map[string]any, 0, len(segments))
	for i, segment := range segments {
		part := maps.Clone(obj)
		part["response"] = segment
		part["segment"] = fmt.Sprintf("%d of %d", i+1, len(segments))
		parts = append(parts, part)
	}

	return parts
}

// splitAtRuneBoundary cuts s into pieces of at most size bytes without
// breaking a multi-byte rune.
func splitAtRuneBoundary(s string, size int) []string {
	var out []string
	for start := 0; start < len(s); {
		end := start + size
		if end >= len(s) {
			end = len(s)
		} else {
			for end > start && !utf8.RuneStart(s[end]) {
				end--
			}
			if end == start {
				end = start + size
			}
		}
		out = append(out, s[start:end])
		start = end
	}
	return out
}

// serializedSize measures v the same way the chunk limit is expressed: as
// the length of its compact JSON encoding.
func serializedSize(v any) int {
	b, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return len(b)
}
