package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"

	"github.com/a-h/clazylsp/clazy"
	"github.com/a-h/clazylsp/config"
	"github.com/a-h/clazylsp/decode"
	"github.com/a-h/clazylsp/diagnostic"
	"github.com/a-h/clazylsp/document"
	"github.com/a-h/clazylsp/fixes"
)

var (
	pathColor    = color.New(color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgBlue, color.Bold)
	checkColor   = color.New(color.FgCyan)
	fixedColor   = color.New(color.FgGreen)
)

func newLintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "lint [flags] FILE...",
		Short:        "Lint files with clazy and print the findings",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         runLint,
	}
	cmd.Flags().Bool("fix", false, "apply fixes to the files")
	cmd.Flags().StringP("dir", "C", "", "directory to run clazy in (default the working directory)")
	cmd.Flags().Int("jobs", 0, "number of files to lint in parallel (default GOMAXPROCS)")
	return cmd
}

type lintResult struct {
	fileName    string
	doc         *document.Document
	diagnostics []diagnostic.Diagnostic
	fixed       int
}

func runLint(cmd *cobra.Command, args []string) error {
	fix, err := cmd.Flags().GetBool("fix")
	if err != nil {
		return err
	}
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	level := slog.LevelWarn
	if logLevel(cmd) == slog.LevelDebug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	enc, err := document.Encoding(c.Encoding)
	if err != nil {
		return err
	}
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return err
		}
	}

	runner := clazy.NewRunner(log, nil)
	results := make([]lintResult, len(args))
	var errs *multierror.Error
	var errsLock sync.Mutex
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(jobs)
	for i, fileName := range args {
		i, fileName := i, fileName
		g.Go(func() error {
			r, err := lintFile(ctx, log, runner, c, enc, dir, fileName, fix)
			results[i] = r
			if err != nil {
				errsLock.Lock()
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", fileName, err))
				errsLock.Unlock()
			}
			// Carry on linting the other files.
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	var total, fixed int
	for _, r := range results {
		if r.doc == nil {
			continue
		}
		printResult(w, r)
		total += len(r.diagnostics)
		fixed += r.fixed
	}
	fmt.Fprintf(w, "%d diagnostics in %d files", total, len(args))
	if fix {
		fmt.Fprintf(w, ", %s", fixedColor.Sprintf("%d fixed", fixed))
	}
	fmt.Fprintln(w)
	return errs.ErrorOrNil()
}

func lintFile(ctx context.Context, log *slog.Logger, runner *clazy.Runner, c config.Config, enc encoding.Encoding, dir, fileName string, fix bool) (r lintResult, err error) {
	if !filepath.IsAbs(fileName) {
		fileName = filepath.Join(dir, fileName)
	}
	r.fileName = fileName
	doc, err := document.Load(fileName, enc)
	if err != nil {
		return r, err
	}
	output, err := runner.Run(ctx, c, dir, []string{fileName})
	if err != nil {
		var exitErr *clazy.ExitError
		if errors.As(err, &exitErr) && output.Stderr != "" {
			return r, fmt.Errorf("%w\n%s", err, output.Stderr)
		}
		return r, err
	}
	raw, err := decode.Output(output.Stdout, output.Stderr)
	if err != nil {
		log.Debug("ignoring export-fixes document", slog.String("file", fileName), slog.Any("error", err))
	}
	var matched []diagnostic.Diagnostic
	for _, d := range raw {
		reported := d.FilePath
		if !filepath.IsAbs(reported) {
			reported = filepath.Join(dir, reported)
		}
		if filepath.Clean(reported) == filepath.Clean(fileName) {
			matched = append(matched, d)
		}
	}
	r.doc = doc
	r.diagnostics = diagnostic.Dedup(diagnostic.Translate(doc, matched))
	if !fix {
		return r, nil
	}

	all := make([][]diagnostic.Span, len(r.diagnostics))
	for i, d := range r.diagnostics {
		all[i] = d.Spans()
	}
	spans, applied := fixes.Combine(all)
	if len(spans) == 0 {
		return r, nil
	}
	text, err := fixes.Apply(doc, spans)
	if err != nil {
		return r, err
	}
	if err = document.New(text, enc).WriteFile(fileName); err != nil {
		return r, err
	}
	for _, i := range applied {
		if len(all[i]) > 0 {
			r.fixed++
		}
	}
	return r, nil
}

func printResult(w io.Writer, r lintResult) {
	for _, d := range r.diagnostics {
		line, col := 1, 1
		if d.Line != nil && d.Column != nil {
			line, col = *d.Line+1, *d.Column+1
		}
		fmt.Fprintf(w, "%s: %s %s", pathColor.Sprintf("%s:%d:%d", r.fileName, line, col), severityColor(d.Severity).Sprintf("%s:", d.Severity), d.Message)
		if d.CheckName != "" {
			fmt.Fprintf(w, " %s", checkColor.Sprintf("[%s]", d.CheckName))
		}
		fmt.Fprintln(w)
		for _, related := range d.Related {
			fmt.Fprintf(w, "  %s: note: %s\n", pathColor.Sprintf("%s:%d:%d", related.FilePath, related.Line+1, related.Column+1), related.Message)
		}
	}
}

func severityColor(s diagnostic.Severity) *color.Color {
	switch s {
	case diagnostic.SeverityError:
		return errorColor
	case diagnostic.SeverityWarning:
		return warningColor
	default:
		return infoColor
	}
}
