// Package decode turns clazy's output into diagnostics.
//
// clazy reports findings twice: as an export-fixes YAML document on stdout
// (with byte offsets and replacements) and as compiler style lines on stderr
// (with 1-based lines and columns, and notes). Both are decoded here, and
// overlaps are removed later by diagnostic.Dedup.
package decode

import "github.com/a-h/clazylsp/diagnostic"

// Output decodes both of clazy's output streams. The export-fixes findings
// come first. A malformed export-fixes document is reported as an error
// alongside whatever the log contained, and contributes no findings.
func Output(stdout, stderr string) (diagnostics []diagnostic.Diagnostic, err error) {
	diagnostics, err = ExportFixes(stdout)
	diagnostics = append(diagnostics, Log(stderr)...)
	return diagnostics, err
}
