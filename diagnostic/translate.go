package diagnostic

import (
	"math"

	"github.com/a-h/clazylsp/document"
)

// EndOfLine is a column past the end of any line. Clients clamp it to the
// actual line length.
const EndOfLine = math.MaxInt32

// Translate converts clazy's coordinates (byte offsets, 1-based lines and
// columns) into 0-based character coordinates valid for doc. The input slice
// is not modified.
func Translate(doc *document.Document, diagnostics []Diagnostic) (translated []Diagnostic) {
	translated = make([]Diagnostic, len(diagnostics))
	for i, d := range diagnostics {
		translated[i] = translateOne(doc, d)
	}
	return translated
}

func translateOne(doc *document.Document, d Diagnostic) Diagnostic {
	switch {
	case d.Offset != nil:
		pos := doc.PositionAt(doc.CharOffset(*d.Offset))
		d.Offset = ptr(doc.OffsetAt(pos))
		d.Line = ptr(pos.Line)
		d.Column = ptr(pos.Character)
	case d.Line != nil && d.Column != nil:
		pos := doc.PositionAt(doc.OffsetAt(document.Position{
			Line:      *d.Line - 1,
			Character: *d.Column - 1,
		}))
		d.Offset = ptr(doc.OffsetAt(pos))
		d.Line = ptr(pos.Line)
		d.Column = ptr(pos.Character)
	}

	if len(d.Related) > 0 {
		related := make([]Related, len(d.Related))
		for i, r := range d.Related {
			r.Line--
			r.Column--
			related[i] = r
		}
		d.Related = related
	}

	if len(d.Replacements) > 0 {
		replacements := make([]Replacement, len(d.Replacements))
		for i, r := range d.Replacements {
			r.Offset, r.Length = doc.CharSpan(r.Offset, r.Length)
			replacements[i] = r
		}
		d.Replacements = replacements
	}
	return d
}

// Range is the display range of a translated diagnostic.
//
// Without replacements it covers the whole line the diagnostic is on, so the
// diagnostic is visible. With replacements it runs from the start of the
// first replacement to the furthest end of any replacement.
func (d Diagnostic) Range(doc *document.Document) (start, end document.Position) {
	if len(d.Replacements) == 0 {
		line := deref(d.Line)
		return document.Position{Line: line}, document.Position{Line: line, Character: EndOfLine}
	}
	first := d.Replacements[0].Offset
	last := first + d.Replacements[0].Length
	for _, r := range d.Replacements[1:] {
		if e := r.Offset + r.Length; e > last {
			last = e
		}
	}
	return doc.PositionAt(first), doc.PositionAt(last)
}
