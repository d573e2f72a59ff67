package diagnostic

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/a-h/clazylsp/document"
)

const source = `#include <QString>
#include <QList>

// Grüße
void f(const QList<QString> &list)
{
    for (auto s : list) {
        QString x = "€" + s;
    }
}
`

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input    string
		expected Severity
	}{
		{input: "Warning", expected: SeverityWarning},
		{input: "error", expected: SeverityError},
		{input: "ERROR", expected: SeverityError},
		{input: "Info", expected: SeverityInfo},
		{input: "hint", expected: SeverityHint},
		{input: "fatal", expected: SeverityWarning},
		{input: "", expected: SeverityWarning},
	}
	for _, test := range tests {
		if actual := ParseSeverity(test.input); actual != test.expected {
			t.Errorf("%q: expected %v, got %v", test.input, test.expected, actual)
		}
	}
}

func TestTranslateOffsetRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "LF", text: source},
		{name: "CRLF", text: strings.ReplaceAll(source, "\n", "\r\n")},
		{name: "CRLF without trailing text", text: "int a;\r\nint b;\r\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc := document.New(test.text, nil)
			raw := make([]Diagnostic, 0, len(doc.Bytes()))
			for i := range doc.Bytes() {
				raw = append(raw, Diagnostic{Offset: ptr(i)})
			}
			for i, d := range Translate(doc, raw) {
				if d.Line == nil || d.Column == nil || d.Offset == nil {
					t.Fatalf("byte offset %d: expected line, column and offset to be set", i)
				}
				actual := doc.OffsetAt(document.Position{Line: *d.Line, Character: *d.Column})
				if actual != *d.Offset {
					t.Errorf("byte offset %d: position %d:%d maps to %d, expected %d", i, *d.Line, *d.Column, actual, *d.Offset)
				}
			}
		})
	}
}

func TestTranslateOffset(t *testing.T) {
	doc := document.New(source, nil)
	// "for" on line 6, after the two byte "ü" and "ß" on line 3.
	byteOffset := strings.Index(source, "for")
	d := Translate(doc, []Diagnostic{{Offset: ptr(byteOffset)}})[0]
	expected := Diagnostic{
		Offset: ptr(byteOffset - 2),
		Line:   ptr(6),
		Column: ptr(4),
	}
	if diff := cmp.Diff(expected, d); diff != "" {
		t.Error(diff)
	}
}

func TestTranslateLineAndColumn(t *testing.T) {
	doc := document.New(strings.Repeat("int a = 0;\n", 12), nil)
	d := Translate(doc, []Diagnostic{{
		CheckName: "clazy-range-loop-detach",
		Line:      ptr(10),
		Column:    ptr(5),
		Related: []Related{
			{FilePath: "foo.cpp", Line: 3, Column: 1, Message: "declared here"},
		},
	}})[0]
	expected := Diagnostic{
		CheckName: "clazy-range-loop-detach",
		Offset:    ptr(9*11 + 4),
		Line:      ptr(9),
		Column:    ptr(4),
		Related: []Related{
			{FilePath: "foo.cpp", Line: 2, Column: 0, Message: "declared here"},
		},
	}
	if diff := cmp.Diff(expected, d); diff != "" {
		t.Error(diff)
	}
}

func TestTranslateReplacementLength(t *testing.T) {
	doc := document.New(source, nil)
	euro := strings.Index(source, "€")
	raw := []Diagnostic{{
		Offset: ptr(euro),
		Replacements: []Replacement{
			{Offset: euro, Length: len("€"), Text: "E"},
			{Offset: euro - 1, Length: len("\"€\""), Text: "QStringLiteral(\"E\")"},
		},
	}}
	d := Translate(doc, raw)[0]
	charOffset := doc.CharOffset(euro)
	expected := []Replacement{
		{Offset: charOffset, Length: 1, Text: "E"},
		{Offset: charOffset - 1, Length: 3, Text: "QStringLiteral(\"E\")"},
	}
	if diff := cmp.Diff(expected, d.Replacements); diff != "" {
		t.Error(diff)
	}
	if raw[0].Replacements[0].Length != 3 {
		t.Error("expected the input to be left unmodified")
	}
}

func TestRange(t *testing.T) {
	doc := document.New("aaaa\nbbbb\ncccc\n", nil)
	tests := []struct {
		name          string
		diagnostic    Diagnostic
		expectedStart document.Position
		expectedEnd   document.Position
	}{
		{
			name:          "without replacements the whole line is covered",
			diagnostic:    Diagnostic{Offset: ptr(7), Line: ptr(1), Column: ptr(2)},
			expectedStart: document.Position{Line: 1, Character: 0},
			expectedEnd:   document.Position{Line: 1, Character: EndOfLine},
		},
		{
			name: "a single replacement is covered",
			diagnostic: Diagnostic{Offset: ptr(5), Line: ptr(1), Column: ptr(0), Replacements: []Replacement{
				{Offset: 6, Length: 2},
			}},
			expectedStart: document.Position{Line: 1, Character: 1},
			expectedEnd:   document.Position{Line: 1, Character: 3},
		},
		{
			name: "the range ends at the furthest replacement, not the first",
			diagnostic: Diagnostic{Offset: ptr(5), Line: ptr(1), Column: ptr(0), Replacements: []Replacement{
				{Offset: 6, Length: 1},
				{Offset: 11, Length: 2},
				{Offset: 8, Length: 0},
			}},
			expectedStart: document.Position{Line: 1, Character: 1},
			expectedEnd:   document.Position{Line: 2, Character: 3},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			start, end := test.diagnostic.Range(doc)
			if diff := cmp.Diff(test.expectedStart, start); diff != "" {
				t.Errorf("start: %s", diff)
			}
			if diff := cmp.Diff(test.expectedEnd, end); diff != "" {
				t.Errorf("end: %s", diff)
			}
		})
	}
}

func TestDedup(t *testing.T) {
	base := func() Diagnostic {
		return Diagnostic{
			CheckName: "clazy-qstring-allocations",
			Message:   "QString(const char*) being called",
			FilePath:  "/src/main.cpp",
			Severity:  SeverityWarning,
			Offset:    ptr(42),
			Line:      ptr(3),
			Column:    ptr(8),
		}
	}
	withReplacements := base()
	withReplacements.Replacements = []Replacement{
		{FilePath: "/src/main.cpp", Offset: 42, Length: 5, Text: "QStringLiteral("},
		{FilePath: "/src/main.cpp", Offset: 50, Length: 0, Text: ")"},
	}
	withRelated := base()
	withRelated.Related = []Related{{FilePath: "/src/main.cpp", Line: 1, Column: 0, Message: "expanded from macro"}}
	otherLine := base()
	otherLine.Line = ptr(4)
	otherSeverity := base()
	otherSeverity.Severity = SeverityError

	tests := []struct {
		name     string
		input    []Diagnostic
		expected []Diagnostic
	}{
		{
			name:     "empty input",
			input:    nil,
			expected: []Diagnostic{},
		},
		{
			name:  "the richer replacement list is kept",
			input: []Diagnostic{withRelated, withReplacements},
			expected: []Diagnostic{{
				CheckName:    withRelated.CheckName,
				Message:      withRelated.Message,
				FilePath:     withRelated.FilePath,
				Severity:     withRelated.Severity,
				Offset:       withRelated.Offset,
				Line:         withRelated.Line,
				Column:       withRelated.Column,
				Replacements: withReplacements.Replacements,
				Related:      withRelated.Related,
			}},
		},
		{
			name:  "related information is taken from the later duplicate",
			input: []Diagnostic{withReplacements, withRelated, base()},
			expected: []Diagnostic{{
				CheckName:    withRelated.CheckName,
				Message:      withRelated.Message,
				FilePath:     withRelated.FilePath,
				Severity:     withRelated.Severity,
				Offset:       withRelated.Offset,
				Line:         withRelated.Line,
				Column:       withRelated.Column,
				Replacements: withReplacements.Replacements,
				Related:      withRelated.Related,
			}},
		},
		{
			name:     "different positions and severities are not merged",
			input:    []Diagnostic{base(), otherLine, otherSeverity},
			expected: []Diagnostic{base(), otherLine, otherSeverity},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			actual := Dedup(test.input)
			if diff := cmp.Diff(test.expected, actual); diff != "" {
				t.Error(diff)
			}
			if diff := cmp.Diff(actual, Dedup(actual)); diff != "" {
				t.Errorf("dedup is not idempotent: %s", diff)
			}
		})
	}
}
