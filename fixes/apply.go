package fixes

import (
	"errors"
	"sort"
	"strings"

	"github.com/a-h/clazylsp/diagnostic"
	"github.com/a-h/clazylsp/document"
	"github.com/a-h/clazylsp/messages"
)

var ErrOverlap = errors.New("replacements overlap")

// Edits converts spans into a single set of text edits against doc. The
// edits must be applied together, since each is relative to the same version
// of the document.
func Edits(doc *document.Document, spans []diagnostic.Span) (edits []messages.TextEdit) {
	edits = make([]messages.TextEdit, len(spans))
	for i, s := range spans {
		start := doc.PositionAt(s.Offset)
		end := doc.PositionAt(s.Offset + s.Length)
		edits[i] = messages.TextEdit{
			Range: messages.NewRange(
				messages.NewPosition(start.Line, start.Character),
				messages.NewPosition(end.Line, end.Character),
			),
			NewText: s.Text,
		}
	}
	return edits
}

// Apply applies spans to the document text in one pass.
func Apply(doc *document.Document, spans []diagnostic.Span) (text string, err error) {
	sorted, err := sortSpans(spans)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	var pos int
	for _, s := range sorted {
		sb.WriteString(doc.Slice(pos, s.Offset))
		sb.WriteString(s.Text)
		pos = s.Offset + s.Length
	}
	sb.WriteString(doc.Slice(pos, doc.Len()))
	return sb.String(), nil
}

// Combine merges the spans of several fixes, skipping any fix that overlaps
// one already taken. Fixes are considered in order, and the indexes of the
// fixes taken are returned.
func Combine(fixes [][]diagnostic.Span) (spans []diagnostic.Span, applied []int) {
	for i, fix := range fixes {
		candidate := append(append([]diagnostic.Span{}, spans...), fix...)
		if _, err := sortSpans(candidate); err != nil {
			continue
		}
		spans = candidate
		applied = append(applied, i)
	}
	return spans, applied
}

func sortSpans(spans []diagnostic.Span) (sorted []diagnostic.Span, err error) {
	sorted = append([]diagnostic.Span{}, spans...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		if prev.Offset+prev.Length > sorted[i].Offset {
			return nil, ErrOverlap
		}
	}
	return sorted, nil
}
