package decode

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"fortio.org/safecast"
	"gopkg.in/yaml.v3"

	"github.com/a-h/clazylsp/diagnostic"
)

// documentMarker starts the export-fixes document within clazy's stdout.
const documentMarker = "---"

type exportFixes struct {
	MainSourceFile string            `yaml:"MainSourceFile"`
	Diagnostics    []exportedFinding `yaml:"Diagnostics"`
}

type exportedFinding struct {
	DiagnosticName    string          `yaml:"DiagnosticName"`
	DiagnosticMessage exportedMessage `yaml:"DiagnosticMessage"`
	// Level is where clang-tidy style exports put the severity.
	Level string `yaml:"Level"`
}

type exportedMessage struct {
	Message      string                `yaml:"Message"`
	FilePath     string                `yaml:"FilePath"`
	FileOffset   int64                 `yaml:"FileOffset"`
	Replacements []exportedReplacement `yaml:"Replacements"`
	Severity     string                `yaml:"Severity"`
}

type exportedReplacement struct {
	FilePath        string `yaml:"FilePath"`
	Offset          int64  `yaml:"Offset"`
	Length          int64  `yaml:"Length"`
	ReplacementText string `yaml:"ReplacementText"`
}

// ExportFixes decodes the document that `--export-fixes=-` writes to stdout.
// Anything before the "---" line is compiler output and is skipped. Output
// without the marker contains no findings.
func ExportFixes(output string) (diagnostics []diagnostic.Diagnostic, err error) {
	doc, ok := findDocument(output)
	if !ok {
		return nil, nil
	}
	var parsed exportFixes
	if err = yaml.Unmarshal([]byte(doc), &parsed); err != nil {
		// Fields with the wrong type are left empty, the rest is still usable.
		var typeErr *yaml.TypeError
		if !errors.As(err, &typeErr) {
			return nil, fmt.Errorf("failed to parse export-fixes document: %w", err)
		}
		err = nil
	}
	diagnostics = make([]diagnostic.Diagnostic, 0, len(parsed.Diagnostics))
	for _, f := range parsed.Diagnostics {
		severity := f.DiagnosticMessage.Severity
		if severity == "" {
			severity = f.Level
		}
		d := diagnostic.Diagnostic{
			CheckName: f.DiagnosticName,
			Message:   f.DiagnosticMessage.Message,
			FilePath:  f.DiagnosticMessage.FilePath,
			Severity:  diagnostic.ParseSeverity(severity),
			Offset:    ptr(toInt(f.DiagnosticMessage.FileOffset)),
		}
		for _, r := range f.DiagnosticMessage.Replacements {
			d.Replacements = append(d.Replacements, diagnostic.Replacement{
				FilePath: r.FilePath,
				Offset:   toInt(r.Offset),
				Length:   toInt(r.Length),
				Text:     r.ReplacementText,
			})
		}
		diagnostics = append(diagnostics, d)
	}
	return diagnostics, nil
}

func findDocument(output string) (doc string, ok bool) {
	var offset int
	for _, line := range strings.SplitAfter(output, "\n") {
		if strings.TrimRight(line, "\r\n") == documentMarker {
			return output[offset:], true
		}
		offset += len(line)
	}
	return "", false
}

func toInt(v int64) int {
	n, err := safecast.Conv[int](v)
	if err != nil {
		if v < 0 {
			return 0
		}
		return math.MaxInt
	}
	return n
}

func ptr[T any](v T) *T {
	return &v
}
