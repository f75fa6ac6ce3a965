// Package render draws filled form fields onto a source PDF.
//
// Each field value is stamped as a pdfcpu watermark at the field's
// coordinates (points, origin bottom-left): single-line text for most field
// types, wrapped lines for textareas, a ZapfDingbats check glyph for
// checkboxes, and an embedded raster image for signatures. After drawing,
// any remaining interactive form fields can be locked so the output behaves
// as static content.
//
// Failure model: an unreadable source document fails the whole render; a
// single field failing to draw is logged and skipped.
package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"go-formfill/internal/fields"
)

const (
	textPadding    = 2.0  // left inset for single-line text
	maxFontSize    = 12.0 // cap when no explicit fontSize is set
	lineHeight     = 14.0 // fixed line height for textarea content
	checkboxInset  = 0.2  // padding fraction on each side of a checkmark
	charWidthRatio = 0.52 // approximate Helvetica glyph width per point

	maxSignatureBytes = 5 * 1024 * 1024
)

// Renderer stamps field values onto PDF documents.
type Renderer struct {
	conf   *model.Configuration
	tmpDir string
}

func NewRenderer() *Renderer {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Renderer{conf: conf, tmpDir: os.TempDir()}
}

// Render draws every filled field onto a copy of src and returns the new
// document. Fields with empty values or unknown pages are skipped. A field
// that fails to draw (bad image, bad geometry) does not stop the remaining
// fields; the failures are reported in the returned error alongside the
// rendered bytes, so callers decide whether a partial render is usable.
// Only a corrupt source document returns nil bytes.
func (r *Renderer) Render(src []byte, filled []fields.Descriptor, flatten bool) ([]byte, error) {
	ctx, err := pdfapi.ReadContext(bytes.NewReader(src), r.conf)
	if err != nil {
		return nil, fmt.Errorf("unreadable source document: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("unreadable source document: %w", err)
	}
	pageCount := ctx.PageCount

	cur := src
	var fieldErrs []string
	for _, f := range filled {
		if f.Page < 1 || f.Page > pageCount {
			continue
		}
		if !drawable(f) {
			continue
		}
		out, err := r.drawField(cur, f)
		if err != nil {
			log.Printf("render: skipping field %q on page %d: %v", f.Name, f.Page, err)
			fieldErrs = append(fieldErrs, fmt.Sprintf("field %q: %v", f.Name, err))
			continue
		}
		cur = out
	}

	if flatten {
		cur = r.lockForm(cur)
	}
	if len(fieldErrs) > 0 {
		return cur, fmt.Errorf("%s", strings.Join(fieldErrs, "; "))
	}
	return cur, nil
}

// drawable reports whether the field carries something to draw. A false
// checkbox draws nothing; the source document supplies the empty box.
func drawable(f fields.Descriptor) bool {
	if f.Type == fields.TypeCheckbox {
		return fields.CoerceCheckbox(f.Value)
	}
	return strings.TrimSpace(fields.StringValue(f.Value)) != ""
}

// drawField dispatches to the drawing strategy for the field's type.
func (r *Renderer) drawField(doc []byte, f fields.Descriptor) ([]byte, error) {
	switch f.Type {
	case fields.TypeCheckbox:
		return r.drawCheckmark(doc, f)
	case fields.TypeSignature:
		return r.drawSignature(doc, f)
	case fields.TypeTextarea:
		return r.drawMultiline(doc, f)
	case fields.TypeTime:
		clone := f.Clone()
		clone.Value = FormatTime(fields.StringValue(f.Value))
		return r.drawSingleLine(doc, clone)
	default:
		return r.drawSingleLine(doc, f)
	}
}

func (r *Renderer) drawSingleLine(doc []byte, f fields.Descriptor) ([]byte, error) {
	size := f.FontSize
	if size <= 0 {
		size = math.Min(f.Height*0.7, maxFontSize)
	}
	// Baseline placed so the cap height sits centered in the box.
	baseline := f.Y + (f.Height-size*0.7)/2
	wm, err := textWatermark(fields.StringValue(f.Value), "Helvetica", int(size+0.5), f.X+textPadding, baseline)
	if err != nil {
		return nil, err
	}
	return r.applyWatermark(doc, f.Page, wm)
}

func (r *Renderer) drawMultiline(doc []byte, f fields.Descriptor) ([]byte, error) {
	size := f.FontSize
	if size <= 0 {
		size = math.Min(lineHeight*0.7, maxFontSize)
	}
	maxChars := int((f.Width - 2*textPadding) / (size * charWidthRatio))
	lines := textareaLines(fields.StringValue(f.Value), maxChars)

	cur := doc
	baseline := f.Y + f.Height - lineHeight
	for _, line := range lines {
		if baseline < f.Y {
			break
		}
		if line != "" {
			wm, err := textWatermark(line, "Helvetica", int(size+0.5), f.X+textPadding, baseline)
			if err != nil {
				return nil, err
			}
			out, err := r.applyWatermark(cur, f.Page, wm)
			if err != nil {
				return nil, err
			}
			cur = out
		}
		baseline -= lineHeight
	}
	return cur, nil
}

func (r *Renderer) drawCheckmark(doc []byte, f fields.Descriptor) ([]byte, error) {
	size := math.Min(f.Width, f.Height) * (1 - 2*checkboxInset)
	if size < 1 {
		return nil, fmt.Errorf("checkbox box too small: %.1fx%.1f", f.Width, f.Height)
	}
	dx := f.X + (f.Width-size)/2
	dy := f.Y + (f.Height-size)/2
	// 0x33 renders the check mark glyph in ZapfDingbats.
	wm, err := textWatermark("3", "ZapfDingbats", int(size+0.5), dx, dy)
	if err != nil {
		return nil, err
	}
	return r.applyWatermark(doc, f.Page, wm)
}

func (r *Renderer) drawSignature(doc []byte, f fields.Descriptor) ([]byte, error) {
	raw, err := decodeDataURI(fields.StringValue(f.Value))
	if err != nil {
		return nil, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("undecodable signature image: %w", err)
	}
	if cfg.Width < 1 || cfg.Height < 1 {
		return nil, errors.New("signature image has no dimensions")
	}

	scale := math.Min(f.Width/float64(cfg.Width), f.Height/float64(cfg.Height))
	if scale > 1 {
		scale = 1
	}
	dx := f.X + (f.Width-float64(cfg.Width)*scale)/2
	dy := f.Y + (f.Height-float64(cfg.Height)*scale)/2

	// pdfcpu detects the image format from the file; stage the bytes as PNG
	// first and fall back to JPEG when the stamp fails.
	out, pngErr := r.stampImage(doc, f.Page, raw, "sig-*.png", scale, dx, dy)
	if pngErr == nil {
		return out, nil
	}
	out, jpgErr := r.stampImage(doc, f.Page, raw, "sig-*.jpg", scale, dx, dy)
	if jpgErr != nil {
		return nil, fmt.Errorf("signature stamp failed: %w", pngErr)
	}
	return out, nil
}

func (r *Renderer) stampImage(doc []byte, page int, img []byte, pattern string, scale, dx, dy float64) ([]byte, error) {
	tmp, err := os.CreateTemp(r.tmpDir, pattern)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(img); err != nil {
		tmp.Close()
		return nil, err
	}
	tmp.Close()

	desc := fmt.Sprintf("scale:%.2f abs, pos:bl, rot:0, op:1", scale)
	wm, err := pdfcpu.ParseImageWatermarkDetails(tmp.Name(), desc, true, types.POINTS)
	if err != nil {
		return nil, err
	}
	wm.Dx = dx
	wm.Dy = dy
	return r.applyWatermark(doc, page, wm)
}

func textWatermark(text, font string, points int, dx, dy float64) (*model.Watermark, error) {
	if points < 1 {
		points = 1
	}
	desc := fmt.Sprintf("font:%s, points:%d, scale:1 abs, pos:bl, rot:0, op:1, fillc:#000000", font, points)
	wm, err := pdfcpu.ParseTextWatermarkDetails(text, desc, true, types.POINTS)
	if err != nil {
		return nil, err
	}
	wm.Dx = dx
	wm.Dy = dy
	return wm, nil
}

func (r *Renderer) applyWatermark(doc []byte, page int, wm *model.Watermark) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdfapi.AddWatermarks(bytes.NewReader(doc), &buf, []string{strconv.Itoa(page)}, wm, r.conf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// lockForm renders remaining interactive form fields read-only. Documents
// without an AcroForm pass through unchanged.
func (r *Renderer) lockForm(doc []byte) []byte {
	ctx, err := pdfapi.ReadContext(bytes.NewReader(doc), r.conf)
	if err != nil || !hasAcroForm(ctx) {
		return doc
	}
	var buf bytes.Buffer
	if err := pdfapi.LockFormFields(bytes.NewReader(doc), &buf, nil, r.conf); err != nil {
		log.Printf("render: form lock skipped: %v", err)
		return doc
	}
	return buf.Bytes()
}

func hasAcroForm(ctx *model.Context) bool {
	rootDict, err := ctx.Catalog()
	if err != nil {
		return false
	}
	obj, found := rootDict.Find("AcroForm")
	if !found {
		return false
	}
	d, err := ctx.DereferenceDict(obj)
	return err == nil && d != nil
}

// decodeDataURI decodes a base64 data URI into raw image bytes.
func decodeDataURI(v string) ([]byte, error) {
	idx := strings.Index(v, "base64,")
	if !strings.HasPrefix(v, "data:") || idx < 0 {
		return nil, errors.New("signature value is not a base64 data URI")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(v[idx+len("base64,"):]))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 signature data: %w", err)
	}
	if len(raw) > maxSignatureBytes {
		return nil, fmt.Errorf("signature image too large: %d bytes", len(raw))
	}
	return raw, nil
}
