// Package mapping computes a best-effort correspondence between data file
// headers and template field names.
//
// The mapping is a convenience heuristic, not a correctness gate: headers
// that find no qualifying field stay unmapped and callers may override the
// result before generation.
package mapping

import (
	"strings"

	"go-formfill/internal/fields"
)

// Threshold is the minimum similarity score for an automatic assignment.
const Threshold = 0.5

// AutoMap assigns each header the highest-scoring unclaimed field name,
// in header order. A field name is claimed at most once per call.
func AutoMap(headers []string, schema []fields.Descriptor) map[string]string {
	result := make(map[string]string)
	claimed := make(map[string]bool, len(schema))

	for _, header := range headers {
		bestScore := -1.0
		bestField := ""
		for _, f := range schema {
			if claimed[f.Name] {
				continue
			}
			if score := Similarity(header, f.Name); score > bestScore {
				bestScore = score
				bestField = f.Name
			}
		}
		if bestScore >= Threshold && bestField != "" {
			result[header] = bestField
			claimed[bestField] = true
		}
	}
	return result
}

// Similarity scores two names in [0, 1]. Normalized-identical names score 1,
// a substring relation scores 0.8, anything else falls back to edit
// distance scaled by the longer length.
func Similarity(a, b string) float64 {
	na, nb := normalize(a), normalize(b)
	if na == nb {
		return 1
	}
	if na != "" && nb != "" && (strings.Contains(na, nb) || strings.Contains(nb, na)) {
		return 0.8
	}
	longest := max(len(na), len(nb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(editDistance(na, nb))/float64(longest)
}

// normalize lower-cases and strips separators so "First Name", "first_name"
// and "FIRST-NAME" compare equal.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case '_', '-', ' ', '\t':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// editDistance is the classic Levenshtein distance with unit costs.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
