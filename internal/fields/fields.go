// Package fields defines the form field model shared by the schema store,
// the data applicator, and the renderer.
//
// Types:
//   - Descriptor: A placed form field on a template page. Coordinates use
//     the PDF convention (points, origin at the bottom-left of the page).
//   - Type: Closed enum of supported field types.
//
// A Descriptor doubles as a filled field once Value is set; values are
// scalars (string, float64, bool) so a value copy of the struct is a full
// clone.
package fields

// Type identifies the kind of a form field.
type Type string

const (
	TypeText      Type = "text"
	TypeNumber    Type = "number"
	TypeDate      Type = "date"
	TypeDay       Type = "day"
	TypeTime      Type = "time"
	TypeTextarea  Type = "textarea"
	TypeCheckbox  Type = "checkbox"
	TypeDropdown  Type = "dropdown"
	TypeSignature Type = "signature"
)

// Descriptor describes one placed field on a template.
type Descriptor struct {
	Name     string  `json:"name"`
	Type     Type    `json:"type"`
	Page     int     `json:"page"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Required bool    `json:"required"`
	FontSize float64 `json:"fontSize,omitempty"`

	// Value holds the concrete fill value: bool for checkboxes, a data-URI
	// string for signatures, a string otherwise. Schema defaults (a pre-set
	// signature image, for example) survive until a record overrides them.
	Value any `json:"value,omitempty"`
}

// Clone returns an independent copy of the descriptor.
func (d Descriptor) Clone() Descriptor {
	return d
}

// CloneAll copies a field list so callers can fill values without touching
// the shared schema.
func CloneAll(list []Descriptor) []Descriptor {
	out := make([]Descriptor, len(list))
	for i, d := range list {
		out[i] = d.Clone()
	}
	return out
}

// ValidTypes lists every supported field type.
func ValidTypes() []Type {
	return []Type{
		TypeText, TypeNumber, TypeDate, TypeDay, TypeTime,
		TypeTextarea, TypeCheckbox, TypeDropdown, TypeSignature,
	}
}

// IsValidType reports whether t is one of the supported field types.
func IsValidType(t Type) bool {
	for _, v := range ValidTypes() {
		if t == v {
			return true
		}
	}
	return false
}
