package diagnostic

import "strings"

type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "warning"
	}
}

// ParseSeverity is case-insensitive. Anything it doesn't recognise is a
// warning.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SeverityInfo
	case "error":
		return SeverityError
	case "hint":
		return SeverityHint
	default:
		return SeverityWarning
	}
}

// Replacement is a candidate text edit. Offset and Length are byte counts as
// reported by clazy until the diagnostic is translated, and character counts
// afterwards.
type Replacement struct {
	FilePath string
	Offset   int
	Length   int
	Text     string
}

// Related is a secondary location, such as a "note:" line.
type Related struct {
	FilePath string
	Line     int
	Column   int
	Message  string
}

// Diagnostic is a single clazy finding.
//
// As decoded, exactly one of Offset or Line/Column is set, and Line/Column are
// 1-based. Translate sets all three, 0-based, in characters.
type Diagnostic struct {
	CheckName    string
	Message      string
	FilePath     string
	Severity     Severity
	Offset       *int
	Line         *int
	Column       *int
	Replacements []Replacement
	Related      []Related
}

// Span is a replacement resolved against a document.
type Span struct {
	Offset int
	Length int
	Text   string
}

// Spans returns the replacements of a translated diagnostic.
func (d Diagnostic) Spans() []Span {
	if len(d.Replacements) == 0 {
		return nil
	}
	spans := make([]Span, len(d.Replacements))
	for i, r := range d.Replacements {
		spans[i] = Span{
			Offset: r.Offset,
			Length: r.Length,
			Text:   r.Text,
		}
	}
	return spans
}

// ShortName is the check name without the "clazy-" prefix.
func (d Diagnostic) ShortName() string {
	return strings.TrimPrefix(d.CheckName, "clazy-")
}

func ptr[T any](v T) *T {
	return &v
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
