package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-formfill/internal/fields"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical", a: "Name", b: "Name", want: 1},
		{name: "case_and_separators_ignored", a: "First Name", b: "first_name", want: 1},
		{name: "hyphens_ignored", a: "E-Mail", b: "email", want: 1},
		{name: "substring_forward", a: "Name", b: "Full Name", want: 0.8},
		{name: "substring_reverse", a: "Full Name", b: "Name", want: 0.8},
		{name: "both_empty", a: "", b: "", want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilarity_EditDistanceFallback(t *testing.T) {
	// "cat" vs "car": one substitution over length 3.
	assert.InDelta(t, 1-1.0/3, Similarity("cat", "car"), 1e-9)
	// Unrelated names score low.
	assert.Less(t, Similarity("zip", "quantity"), Threshold)
}

func TestAutoMap(t *testing.T) {
	schema := []fields.Descriptor{
		{Name: "Full Name", Type: fields.TypeText},
		{Name: "Email", Type: fields.TypeText},
		{Name: "Paid", Type: fields.TypeCheckbox},
	}

	t.Run("maps_matching_headers", func(t *testing.T) {
		got := AutoMap([]string{"full_name", "email", "paid"}, schema)
		assert.Equal(t, map[string]string{
			"full_name": "Full Name",
			"email":     "Email",
			"paid":      "Paid",
		}, got)
	})

	t.Run("below_threshold_stays_unmapped", func(t *testing.T) {
		got := AutoMap([]string{"telephone"}, schema)
		assert.NotContains(t, got, "telephone")
	})

	t.Run("no_field_claimed_twice", func(t *testing.T) {
		got := AutoMap([]string{"name", "full name"}, schema)
		seen := map[string]int{}
		for _, field := range got {
			seen[field]++
		}
		for field, count := range seen {
			assert.Equal(t, 1, count, "field %q assigned to multiple headers", field)
		}
	})

	t.Run("first_header_wins", func(t *testing.T) {
		got := AutoMap([]string{"full name", "fullname"}, schema)
		assert.Equal(t, "Full Name", got["full name"])
		assert.NotEqual(t, "Full Name", got["fullname"])
	})

	t.Run("empty_headers_yield_empty_mapping", func(t *testing.T) {
		assert.Empty(t, AutoMap(nil, schema))
	})
}
