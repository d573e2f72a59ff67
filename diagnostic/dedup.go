package diagnostic

// Dedup collapses diagnostics that report the same finding. clazy can report
// a finding once in the export-fixes document and again in its log, with or
// without replacements.
//
// The earlier of two equivalent diagnostics is kept. It takes the longer
// replacement list, and the related information of the later one if it has
// none of its own.
func Dedup(diagnostics []Diagnostic) (deduped []Diagnostic) {
	deduped = make([]Diagnostic, 0, len(diagnostics))
outer:
	for _, d := range diagnostics {
		for i := range deduped {
			kept := &deduped[i]
			if !equivalent(*kept, d) {
				continue
			}
			if len(kept.Replacements) < len(d.Replacements) {
				kept.Replacements = d.Replacements
			}
			if len(kept.Related) == 0 && len(d.Related) > 0 {
				kept.Related = d.Related
			}
			continue outer
		}
		deduped = append(deduped, d)
	}
	return deduped
}

func equivalent(a, b Diagnostic) bool {
	return a.CheckName == b.CheckName &&
		a.Message == b.Message &&
		a.FilePath == b.FilePath &&
		a.Severity == b.Severity &&
		equalInt(a.Offset, b.Offset) &&
		equalInt(a.Line, b.Line) &&
		equalInt(a.Column, b.Column)
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
