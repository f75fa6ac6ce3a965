// Package detect suggests field placements for a template. Documents with
// an interactive AcroForm yield one suggestion per widget annotation; plain
// documents are scanned for fill-in text patterns instead: underscore runs
// ("Name: ______") become text fields and bracket boxes ("[ ] Option")
// become checkboxes.
//
// Suggestions carry page numbers and bottom-left-origin geometry, ready to
// be adjusted and saved as a field schema. Detection is a convenience;
// templates with no recognizable fields simply yield no suggestions.
package detect

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"go-formfill/internal/fields"
)

const (
	defaultFontSize = 12.0
	// Text chunks whose baselines differ by less than this are one line.
	lineTolerance = 2.0
)

var (
	underscoreRun = regexp.MustCompile(`_{4,}`)
	checkboxBox   = regexp.MustCompile(`\[[ xX]?\]`)
	labelTrim     = regexp.MustCompile(`[:\s_]+$`)
)

// chunk is one positioned text fragment with its byte range in the
// assembled line string.
type chunk struct {
	text  pdf.Text
	start int
	end   int
}

// line is all text sharing one baseline, in reading order.
type line struct {
	y      float64
	chunks []chunk
	s      string
}

// SuggestFields returns suggested field descriptors for the PDF at path in
// page/reading order. AcroForm widgets take precedence; the text-pattern
// scan only runs when the document has no usable form fields.
func SuggestFields(path string) ([]fields.Descriptor, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open template: %w", err)
	}
	defer f.Close()

	if suggestions := acroFormFields(reader); len(suggestions) > 0 {
		return suggestions, nil
	}

	var suggestions []fields.Descriptor
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		for _, ln := range assembleLines(content.Text) {
			suggestions = append(suggestions, scanLine(ln, pageNum, len(suggestions))...)
		}
	}
	return suggestions, nil
}

// acroFormFields collects one descriptor per form widget annotation. Merged
// field/widget dictionaries carry everything directly; split hierarchies
// inherit the field type and name through the Parent chain.
func acroFormFields(reader *pdf.Reader) []fields.Descriptor {
	var out []fields.Descriptor
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		annots := page.V.Key("Annots")
		if annots.Kind() != pdf.Array {
			continue
		}
		for i := 0; i < annots.Len(); i++ {
			a := annots.Index(i)
			if a.Kind() != pdf.Dict || a.Key("Subtype").Name() != "Widget" {
				continue
			}
			f, ok := widgetField(a, pageNum)
			if !ok {
				continue
			}
			if f.Name == "" {
				f.Name = fmt.Sprintf("Field %d", len(out)+1)
			}
			out = append(out, f)
		}
	}
	return out
}

func widgetField(a pdf.Value, pageNum int) (fields.Descriptor, bool) {
	name, ftype, flags := fieldIdentity(a)
	if ftype == "" {
		return fields.Descriptor{}, false
	}
	// Push buttons carry no value.
	if ftype == "Btn" && flags&0x10000 != 0 {
		return fields.Descriptor{}, false
	}

	rect := a.Key("Rect")
	if rect.Kind() != pdf.Array || rect.Len() < 4 {
		return fields.Descriptor{}, false
	}
	x0, y0 := rect.Index(0).Float64(), rect.Index(1).Float64()
	x1, y1 := rect.Index(2).Float64(), rect.Index(3).Float64()

	return fields.Descriptor{
		Name:     name,
		Type:     widgetType(ftype, flags),
		Page:     pageNum,
		X:        math.Min(x0, x1),
		Y:        math.Min(y0, y1),
		Width:    math.Abs(x1 - x0),
		Height:   math.Abs(y1 - y0),
		Required: flags&2 != 0,
	}, true
}

// fieldIdentity resolves the field name, type, and flags for a widget,
// walking up the Parent chain for split field hierarchies.
func fieldIdentity(a pdf.Value) (name, ftype string, flags int64) {
	v := a
	for depth := 0; depth < 8 && v.Kind() == pdf.Dict; depth++ {
		if t := v.Key("T"); t.Kind() == pdf.String {
			if name == "" {
				name = t.Text()
			} else {
				name = t.Text() + "." + name
			}
		}
		if ftype == "" {
			ftype = v.Key("FT").Name()
		}
		if flags == 0 {
			flags = v.Key("Ff").Int64()
		}
		v = v.Key("Parent")
	}
	return name, ftype, flags
}

func widgetType(ftype string, flags int64) fields.Type {
	switch ftype {
	case "Tx":
		if flags&0x1000 != 0 {
			return fields.TypeTextarea
		}
		return fields.TypeText
	case "Btn":
		return fields.TypeCheckbox
	case "Ch":
		return fields.TypeDropdown
	case "Sig":
		return fields.TypeSignature
	default:
		return fields.TypeText
	}
}

// assembleLines groups positioned text by baseline and orders each group
// left to right.
func assembleLines(texts []pdf.Text) []line {
	var lines []line
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		placed := false
		for i := range lines {
			if math.Abs(lines[i].y-t.Y) < lineTolerance {
				lines[i].chunks = append(lines[i].chunks, chunk{text: t})
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, line{y: t.Y, chunks: []chunk{{text: t}}})
		}
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].y > lines[j].y })
	for i := range lines {
		sort.Slice(lines[i].chunks, func(a, b int) bool {
			return lines[i].chunks[a].text.X < lines[i].chunks[b].text.X
		})
		var b strings.Builder
		for c := range lines[i].chunks {
			lines[i].chunks[c].start = b.Len()
			b.WriteString(lines[i].chunks[c].text.S)
			lines[i].chunks[c].end = b.Len()
		}
		lines[i].s = b.String()
	}
	return lines
}

// scanLine extracts field suggestions from one assembled line.
func scanLine(ln line, pageNum, offset int) []fields.Descriptor {
	var out []fields.Descriptor

	for _, loc := range underscoreRun.FindAllStringIndex(ln.s, -1) {
		x0, x1, size := spanGeometry(ln, loc[0], loc[1])
		if x1 <= x0 {
			continue
		}
		name := labelBefore(ln.s, loc[0])
		if name == "" {
			name = fmt.Sprintf("Field %d", offset+len(out)+1)
		}
		out = append(out, fields.Descriptor{
			Name:   name,
			Type:   fields.TypeText,
			Page:   pageNum,
			X:      x0,
			Y:      ln.y - 2,
			Width:  x1 - x0,
			Height: size * 1.4,
		})
	}

	for _, loc := range checkboxBox.FindAllStringIndex(ln.s, -1) {
		x0, _, size := spanGeometry(ln, loc[0], loc[1])
		name := labelAfter(ln.s, loc[1])
		if name == "" {
			name = fmt.Sprintf("Checkbox %d", offset+len(out)+1)
		}
		box := size * 1.1
		out = append(out, fields.Descriptor{
			Name:   name,
			Type:   fields.TypeCheckbox,
			Page:   pageNum,
			X:      x0,
			Y:      ln.y - 2,
			Width:  box,
			Height: box,
		})
	}
	return out
}

// spanGeometry returns the horizontal extent and font size of the chunks
// overlapping byte range [start, end) of the line string.
func spanGeometry(ln line, start, end int) (x0, x1, size float64) {
	x0 = math.MaxFloat64
	size = defaultFontSize
	for _, c := range ln.chunks {
		if c.end <= start || c.start >= end {
			continue
		}
		x0 = math.Min(x0, c.text.X)
		x1 = math.Max(x1, c.text.X+c.text.W)
		if c.text.FontSize > 0 {
			size = c.text.FontSize
		}
	}
	if x0 == math.MaxFloat64 {
		x0, x1 = 0, 0
	}
	return x0, x1, size
}

// labelBefore takes the text preceding a fill-in run as its field name.
func labelBefore(s string, pos int) string {
	label := s[:pos]
	if i := strings.LastIndexAny(label, "_]"); i >= 0 {
		label = label[i+1:]
	}
	return labelTrim.ReplaceAllString(strings.TrimSpace(label), "")
}

// labelAfter takes the text following a checkbox as its field name.
func labelAfter(s string, pos int) string {
	label := s[pos:]
	if i := strings.IndexAny(label, "[_"); i >= 0 {
		label = label[:i]
	}
	label = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(label), ":"))
	return label
}
