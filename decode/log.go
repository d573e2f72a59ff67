package decode

import (
	"strconv"
	"strings"

	"github.com/a-h/parse"

	"github.com/a-h/clazylsp/diagnostic"
)

// logLine is a compiler style line: `path:line:col: level: message`.
type logLine struct {
	Path    string
	Line    int
	Column  int
	Level   string
	Message string
}

var number = parse.Convert(parse.StringFrom(parse.OneOrMore(parse.ZeroToNine)), strconv.Atoi)

// The path may itself contain colons (C:\src\main.cpp), so it runs until the
// first `:line:col: `.
var path = parse.StringUntil(parse.MustRegexp(`:\d+:\d+: `))

// level is a word or two, such as "warning" or "fatal error", in any case.
var level = parse.MustRegexp(`[A-Za-z][A-Za-z ]*`)

var restOfLine = parse.Func(func(in *parse.Input) (s string, ok bool, err error) {
	s, ok = in.Peek(-1)
	if ok {
		in.Take(len(s))
	}
	return
})

var logLineParser = parse.Func(func(in *parse.Input) (l logLine, ok bool, err error) {
	location, ok, err := parse.SequenceOf5(path, parse.Rune(':'), number, parse.Rune(':'), number).Parse(in)
	if err != nil || !ok {
		return
	}
	rest, ok, err := parse.SequenceOf4(parse.String(": "), level, parse.String(": "), restOfLine).Parse(in)
	if err != nil || !ok {
		return
	}
	l = logLine{
		Path:    location.A,
		Line:    location.C,
		Column:  location.E,
		Level:   rest.B,
		Message: rest.D,
	}
	return l, l.Path != "", nil
})

// summary is clang's closing line, e.g. "3 warnings generated.".
var summary = parse.MustRegexp(`^\d+ (?:warning|error)s?(?: and \d+ (?:warning|error)s?)? generated`)

// Log decodes the compiler style diagnostics clazy writes to stderr.
//
// A "note:" line is attached to the diagnostic before it. Scanning stops at the
// "N warnings generated." line. Lines that aren't diagnostics are build noise
// and are skipped.
func Log(output string) (diagnostics []diagnostic.Diagnostic) {
	for _, text := range strings.Split(output, "\n") {
		text = strings.TrimRight(text, "\r")
		if _, ok, _ := summary.Parse(parse.NewInput(text)); ok {
			break
		}
		l, ok, err := logLineParser.Parse(parse.NewInput(text))
		if err != nil || !ok {
			continue
		}
		if strings.EqualFold(l.Level, "note") {
			if len(diagnostics) == 0 {
				continue
			}
			last := &diagnostics[len(diagnostics)-1]
			last.Related = append(last.Related, diagnostic.Related{
				FilePath: l.Path,
				Line:     l.Line,
				Column:   l.Column,
				Message:  l.Message,
			})
			continue
		}
		message, checkName := splitCheckName(l.Message)
		diagnostics = append(diagnostics, diagnostic.Diagnostic{
			CheckName: checkName,
			Message:   message,
			FilePath:  l.Path,
			Severity:  parseLevel(l.Level),
			Line:      ptr(l.Line),
			Column:    ptr(l.Column),
		})
	}
	return diagnostics
}

// splitCheckName splits "message [-Wclazy-check]" into its parts.
func splitCheckName(s string) (message, checkName string) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, " [")
	if i < 0 || !strings.HasSuffix(s, "]") {
		return s, ""
	}
	flag := s[i+2 : len(s)-1]
	if !strings.HasPrefix(flag, "-W") {
		return s, ""
	}
	flag, _, _ = strings.Cut(flag, ",")
	return s[:i], strings.TrimPrefix(flag, "-W")
}

func parseLevel(level string) diagnostic.Severity {
	if strings.EqualFold(strings.TrimSpace(level), "fatal error") {
		return diagnostic.SeverityError
	}
	return diagnostic.ParseSeverity(level)
}
