package server

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/exp/slog"

	"github.com/a-h/clazylsp/clazy"
	"github.com/a-h/clazylsp/config"
	"github.com/a-h/clazylsp/decode"
	"github.com/a-h/clazylsp/diagnostic"
	"github.com/a-h/clazylsp/document"
	"github.com/a-h/clazylsp/fixes"
	"github.com/a-h/clazylsp/messages"
)

const (
	failureMessage = "Error occurred while running Clazy. Check the output for more details."
	checkDocsURL   = "https://github.com/KDE/clazy/tree/master/docs/checks/README-"
)

type lintRun struct {
	seq    uint64
	cancel context.CancelFunc
}

type lintOptions struct {
	// explicit lints were requested by the user, and skip the blacklist and
	// workspace folder checks.
	explicit bool
	// fix applies every fix once the diagnostics are published.
	fix bool
}

type lintRequest struct {
	uri      string
	fileName string
	dir      string
	text     string
	version  int
	config   config.Config
	seq      uint64
	fix      bool
}

// lint starts linting an open document in the background, cancelling any
// lint of the same document that is still running.
func (s *Server) lint(uri string, opts lintOptions) (reason string) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.shutdown {
		return "The server is shutting down."
	}
	doc, ok := s.docs[uri]
	if !ok {
		return "Document is not open."
	}
	fileName, reason := s.lintableLocked(doc, opts.explicit)
	if reason != "" {
		s.log.Debug("not linting document", slog.String("uri", uri), slog.String("reason", reason))
		return reason
	}
	if previous, ok := s.lints[uri]; ok {
		previous.cancel()
	}
	s.seq++
	ctx, cancel := context.WithCancel(s.ctx)
	s.lints[uri] = lintRun{seq: s.seq, cancel: cancel}
	req := lintRequest{
		uri:      uri,
		fileName: fileName,
		dir:      s.workingDirLocked(fileName),
		text:     doc.text,
		version:  doc.version,
		config:   s.config,
		seq:      s.seq,
		fix:      opts.fix,
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.runLint(ctx, req)
	}()
	return ""
}

func (s *Server) runLint(ctx context.Context, req lintRequest) {
	log := s.log.With(slog.String("uri", req.uri), slog.Uint64("run", req.seq))
	log.Info("linting document")

	output, err := s.runner.Run(ctx, req.config, req.dir, []string{req.fileName})
	if ctx.Err() != nil {
		log.Info("lint cancelled")
		return
	}
	if err != nil {
		s.reportFailure(req, output, err)
		s.publish(req, nil, nil)
		return
	}

	raw, err := decode.Output(output.Stdout, output.Stderr)
	if err != nil {
		log.Debug("ignoring export-fixes document", slog.Any("error", err))
	}
	var matched []diagnostic.Diagnostic
	for _, d := range raw {
		if samePath(req.dir, d.FilePath, req.fileName) {
			matched = append(matched, d)
		}
	}
	enc, err := document.Encoding(req.config.Encoding)
	if err != nil {
		log.Warn("using utf-8", slog.Any("error", err))
	}
	doc := document.New(req.text, enc)
	found := diagnostic.Dedup(diagnostic.Translate(doc, matched))
	log.Info("lint complete", slog.Int("decoded", len(raw)), slog.Int("published", len(found)))

	if !s.publish(req, doc, found) {
		log.Info("lint superseded")
		return
	}
	if req.fix {
		s.fixAll(ctx, req.uri)
	}
}

// publish replaces the diagnostics and fixes of a document, as long as no
// other lint of the document has started since req.
func (s *Server) publish(req lintRequest, doc *document.Document, found []diagnostic.Diagnostic) (ok bool) {
	published := make([]messages.Diagnostic, len(found))
	entries := make(map[string][]diagnostic.Span, len(found))
	for i, d := range found {
		id := fmt.Sprintf("%s#%d.%d", req.uri, req.seq, i)
		published[i] = toLSP(doc, d, id)
		entries[id] = d.Spans()
	}

	s.m.Lock()
	defer s.m.Unlock()
	if run, ok := s.lints[req.uri]; !ok || run.seq != req.seq {
		return false
	}
	delete(s.lints, req.uri)
	s.fixes.Replace(req.uri, entries)
	s.published[req.uri] = published
	s.notify(messages.PublishDiagnosticsMethod, messages.PublishDiagnosticsParams{
		URI:         req.uri,
		Version:     ptr(req.version),
		Diagnostics: published,
	})
	return true
}

func (s *Server) reportFailure(req lintRequest, output clazy.Output, err error) {
	s.log.Error("clazy failed", slog.String("uri", req.uri), slog.Any("error", err))
	s.showError(failureMessage)

	var sb strings.Builder
	fmt.Fprintf(&sb, "> %s\n", clazy.CommandLine(req.config.Executable, clazy.Args(req.config, []string{req.fileName})))
	fmt.Fprintf(&sb, "Working Directory: %s\n", req.dir)
	sb.WriteString(err.Error())
	if output.Stderr != "" {
		sb.WriteString("\n")
		sb.WriteString(output.Stderr)
	}
	s.notify(messages.LogMessageMethod, messages.LogMessageParams{
		Type:    messages.MessageTypeError,
		Message: sb.String(),
	})
}

// removeDiagnostics unpublishes diagnostics once their fixes are applied.
func (s *Server) removeDiagnostics(uri string, ids ...string) {
	remove := make(map[string]bool, len(ids))
	for _, id := range ids {
		remove[id] = true
		s.fixes.Remove(id)
	}
	s.m.Lock()
	defer s.m.Unlock()
	previous, ok := s.published[uri]
	if !ok {
		return
	}
	kept := []messages.Diagnostic{}
	for _, d := range previous {
		if d.Data != nil && remove[d.Data.ID] {
			continue
		}
		kept = append(kept, d)
	}
	s.published[uri] = kept
	s.notify(messages.PublishDiagnosticsMethod, messages.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: kept,
	})
}

// fixAll applies every fix published for a document that doesn't overlap an
// earlier one, as a single edit.
func (s *Server) fixAll(ctx context.Context, uri string) {
	s.m.Lock()
	published := s.published[uri]
	s.m.Unlock()

	var ids []string
	var all [][]diagnostic.Span
	for _, d := range published {
		if d.Data == nil {
			continue
		}
		if _, spans, ok := s.fixes.Get(d.Data.ID); ok {
			ids = append(ids, d.Data.ID)
			all = append(all, spans)
		}
	}
	if len(all) == 0 {
		return
	}
	spans, applied := fixes.Combine(all)
	log := s.log.With(slog.String("uri", uri))
	log.Info("fixing document", slog.Int("fixes", len(applied)), slog.Int("skipped", len(all)-len(applied)))
	if err := s.applyEdit(ctx, uri, spans, "[Clazy] Fix all"); err != nil {
		log.Error("failed to fix document", slog.Any("error", err))
		return
	}
	fixed := make([]string, len(applied))
	for i, index := range applied {
		fixed[i] = ids[index]
	}
	s.removeDiagnostics(uri, fixed...)
}

func toLSP(doc *document.Document, d diagnostic.Diagnostic, id string) (ld messages.Diagnostic) {
	start, end := d.Range(doc)
	ld = messages.Diagnostic{
		Range: messages.NewRange(
			messages.NewPosition(start.Line, start.Character),
			messages.NewPosition(end.Line, end.Character),
		),
		Severity: ptr(toSeverity(d.Severity)),
		Source:   ptr(source),
		Message:  d.Message,
		Data:     &messages.DiagnosticData{ID: id},
	}
	if code := d.ShortName(); code != "" {
		ld.Code = ptr(code)
		ld.CodeDescription = &messages.CodeDescription{
			HREF: checkDocsURL + code + ".md",
		}
	}
	for _, r := range d.Related {
		pos := messages.NewPosition(max(r.Line, 0), max(r.Column, 0))
		ld.RelatedInformation = append(ld.RelatedInformation, messages.DiagnosticRelatedInformation{
			Location: messages.Location{
				URI:   pathToURI(r.FilePath),
				Range: messages.NewRange(pos, pos),
			},
			Message: r.Message,
		})
	}
	return ld
}

func toSeverity(s diagnostic.Severity) messages.DiagnosticSeverity {
	switch s {
	case diagnostic.SeverityError:
		return messages.DiagnosticSeverityError
	case diagnostic.SeverityInfo:
		return messages.DiagnosticSeverityInformation
	case diagnostic.SeverityHint:
		return messages.DiagnosticSeverityHint
	default:
		return messages.DiagnosticSeverityWarning
	}
}
