package decode

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/a-h/clazylsp/diagnostic"
)

const exportFixesOutput = `[1/2] Building CXX object src/CMakeFiles/app.dir/main.cpp.o
clazy-standalone: warning: compile_commands.json is stale
---
MainSourceFile:  '/src/main.cpp'
Diagnostics:
  - DiagnosticName:  clazy-qstring-allocations
    DiagnosticMessage:
      Message:         'QString(const char*) being called'
      FilePath:        '/src/main.cpp'
      FileOffset:      120
      Replacements:
        - FilePath:        '/src/main.cpp'
          Offset:          120
          Length:          0
          ReplacementText: 'QStringLiteral('
        - FilePath:        '/src/main.cpp'
          Offset:          127
          Length:          0
          ReplacementText: ')'
    Level:           Warning
  - DiagnosticName:  clazy-range-loop-detach
    DiagnosticMessage:
      Message:         'c++11 range-loop might detach Qt container (QList)'
      FilePath:        '/src/main.cpp'
      FileOffset:      200
      Replacements:    []
      Severity:        error
...
`

func TestExportFixes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []diagnostic.Diagnostic
	}{
		{
			name:     "output without a document has no findings",
			input:    "[1/2] Building CXX object main.cpp.o\n",
			expected: nil,
		},
		{
			name:     "a marker that isn't a whole line is ignored",
			input:    "a --- b\n",
			expected: nil,
		},
		{
			name:     "a document without diagnostics has no findings",
			input:    "---\nMainSourceFile: '/src/main.cpp'\nDiagnostics: []\n...\n",
			expected: []diagnostic.Diagnostic{},
		},
		{
			name:  "build output before the marker is skipped",
			input: exportFixesOutput,
			expected: []diagnostic.Diagnostic{
				{
					CheckName: "clazy-qstring-allocations",
					Message:   "QString(const char*) being called",
					FilePath:  "/src/main.cpp",
					Severity:  diagnostic.SeverityWarning,
					Offset:    ptr(120),
					Replacements: []diagnostic.Replacement{
						{FilePath: "/src/main.cpp", Offset: 120, Length: 0, Text: "QStringLiteral("},
						{FilePath: "/src/main.cpp", Offset: 127, Length: 0, Text: ")"},
					},
				},
				{
					CheckName: "clazy-range-loop-detach",
					Message:   "c++11 range-loop might detach Qt container (QList)",
					FilePath:  "/src/main.cpp",
					Severity:  diagnostic.SeverityError,
					Offset:    ptr(200),
				},
			},
		},
		{
			name: "malformed replacement lists are treated as empty",
			input: `---
Diagnostics:
  - DiagnosticName:  clazy-strict-iterators
    DiagnosticMessage:
      Message:         'Mixing iterators with const_iterators'
      FilePath:        '/src/main.cpp'
      FileOffset:      12
      Replacements:    'none'
      Severity:        Fatal
`,
			expected: []diagnostic.Diagnostic{
				{
					CheckName: "clazy-strict-iterators",
					Message:   "Mixing iterators with const_iterators",
					FilePath:  "/src/main.cpp",
					Severity:  diagnostic.SeverityWarning,
					Offset:    ptr(12),
				},
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			actual, err := ExportFixes(test.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(test.expected, actual); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestExportFixesSyntaxError(t *testing.T) {
	actual, err := ExportFixes("---\nDiagnostics: [\n")
	if err == nil {
		t.Error("expected an error")
	}
	if len(actual) != 0 {
		t.Errorf("expected no diagnostics, got %d", len(actual))
	}
}

func TestLog(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []diagnostic.Diagnostic
	}{
		{
			name:     "a clean file has no findings",
			input:    "",
			expected: nil,
		},
		{
			name:  "a single warning",
			input: "foo.cpp:10:5: warning: avoid range-loop detach [-Wclazy-range-loop-detach]\n1 warning generated.",
			expected: []diagnostic.Diagnostic{
				{
					CheckName: "clazy-range-loop-detach",
					Message:   "avoid range-loop detach",
					FilePath:  "foo.cpp",
					Severity:  diagnostic.SeverityWarning,
					Line:      ptr(10),
					Column:    ptr(5),
				},
			},
		},
		{
			name:  "levels are case-insensitive",
			input: "foo.cpp:10:5: Warning: caps [-Wclazy-x]\nfoo.cpp:11:1: ERROR: shouted\nfoo.cpp:12:1: Note: attached\n",
			expected: []diagnostic.Diagnostic{
				{
					CheckName: "clazy-x",
					Message:   "caps",
					FilePath:  "foo.cpp",
					Severity:  diagnostic.SeverityWarning,
					Line:      ptr(10),
					Column:    ptr(5),
				},
				{
					Message:  "shouted",
					FilePath: "foo.cpp",
					Severity: diagnostic.SeverityError,
					Line:     ptr(11),
					Column:   ptr(1),
					Related: []diagnostic.Related{
						{FilePath: "foo.cpp", Line: 12, Column: 1, Message: "attached"},
					},
				},
			},
		},
		{
			name:  "unknown levels are warnings",
			input: "foo.cpp:1:2: suggestion: prefer QStringLiteral [-Wclazy-qstring-allocations]\nfoo.cpp:3:4: Fatal Error: missing header\n",
			expected: []diagnostic.Diagnostic{
				{
					CheckName: "clazy-qstring-allocations",
					Message:   "prefer QStringLiteral",
					FilePath:  "foo.cpp",
					Severity:  diagnostic.SeverityWarning,
					Line:      ptr(1),
					Column:    ptr(2),
				},
				{
					Message:  "missing header",
					FilePath: "foo.cpp",
					Severity: diagnostic.SeverityError,
					Line:     ptr(3),
					Column:   ptr(4),
				},
			},
		},
		{
			name:  "trailing whitespace after the check name",
			input: "foo.cpp:1:1: warning: msg [-Wclazy-x] \t\n",
			expected: []diagnostic.Diagnostic{
				{
					CheckName: "clazy-x",
					Message:   "msg",
					FilePath:  "foo.cpp",
					Severity:  diagnostic.SeverityWarning,
					Line:      ptr(1),
					Column:    ptr(1),
				},
			},
		},
		{
			name: "notes are attached to the previous diagnostic",
			input: `/src/main.cpp:7:5: warning: c++11 range-loop might detach Qt container (QList) [-Wclazy-range-loop-detach]
    for (auto s : list) {
    ^
/src/main.cpp:5:29: note: container declared here
1 warning generated.
`,
			expected: []diagnostic.Diagnostic{
				{
					CheckName: "clazy-range-loop-detach",
					Message:   "c++11 range-loop might detach Qt container (QList)",
					FilePath:  "/src/main.cpp",
					Severity:  diagnostic.SeverityWarning,
					Line:      ptr(7),
					Column:    ptr(5),
					Related: []diagnostic.Related{
						{FilePath: "/src/main.cpp", Line: 5, Column: 29, Message: "container declared here"},
					},
				},
			},
		},
		{
			name:     "a note without a diagnostic is dropped",
			input:    "main.cpp:1:1: note: in instantiation of template\n",
			expected: nil,
		},
		{
			name: "lines after the summary are ignored",
			input: `main.cpp:1:1: error: unknown type name 'QStrin'
1 error generated.
main.cpp:2:1: warning: ignored [-Wclazy-foo]
`,
			expected: []diagnostic.Diagnostic{
				{
					Message:  "unknown type name 'QStrin'",
					FilePath: "main.cpp",
					Severity: diagnostic.SeverityError,
					Line:     ptr(1),
					Column:   ptr(1),
				},
			},
		},
		{
			name: "windows paths and line endings",
			input: "C:\\src\\main.cpp:3:14: warning: Use QStringLiteral [-Wclazy-qstring-allocations,-Werror]\r\n" +
				"2 warnings and 1 error generated.\r\n",
			expected: []diagnostic.Diagnostic{
				{
					CheckName: "clazy-qstring-allocations",
					Message:   "Use QStringLiteral",
					FilePath:  "C:\\src\\main.cpp",
					Severity:  diagnostic.SeverityWarning,
					Line:      ptr(3),
					Column:    ptr(14),
				},
			},
		},
		{
			name: "build chatter is skipped",
			input: `[3/10] Building CXX object CMakeFiles/app.dir/main.cpp.o
In file included from /src/main.cpp:1:
/src/widget.h:12:1: fatal error: 'QWidget' file not found
`,
			expected: []diagnostic.Diagnostic{
				{
					Message:  "'QWidget' file not found",
					FilePath: "/src/widget.h",
					Severity: diagnostic.SeverityError,
					Line:     ptr(12),
					Column:   ptr(1),
				},
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			actual := Log(test.input)
			if diff := cmp.Diff(test.expected, actual); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestOutput(t *testing.T) {
	actual, err := Output(exportFixesOutput, "/src/main.cpp:3:1: warning: x [-Wclazy-x]\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(actual) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", len(actual))
	}
	if actual[2].CheckName != "clazy-x" {
		t.Errorf("expected the log findings last, got %q", actual[2].CheckName)
	}
}
