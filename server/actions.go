package server

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/exp/slog"

	"github.com/a-h/clazylsp/diagnostic"
	"github.com/a-h/clazylsp/fixes"
	"github.com/a-h/clazylsp/messages"
)

const applyFixTitle = "[Clazy] Apply fix"

func (s *Server) codeAction(ctx context.Context, raw json.RawMessage) (result any, err error) {
	var params messages.CodeActionParams
	if err = unmarshal(raw, &params); err != nil {
		return
	}
	actions := []messages.CodeAction{}
	if !wantsQuickFix(params.Context.Only) {
		return actions, nil
	}
	uri := params.TextDocument.URI
	doc, ok := s.snapshot(uri)
	if !ok {
		return actions, nil
	}
	for _, d := range params.Context.Diagnostics {
		if d.Source == nil || *d.Source != source || d.Data == nil {
			continue
		}
		fixURI, spans, ok := s.fixes.Get(d.Data.ID)
		if !ok || fixURI != uri {
			continue
		}
		actions = append(actions, messages.CodeAction{
			Title:       applyFixTitle,
			Kind:        messages.CodeActionKindQuickFix,
			Diagnostics: []messages.Diagnostic{d},
			IsPreferred: true,
			Edit: &messages.WorkspaceEdit{
				Changes: map[string][]messages.TextEdit{
					uri: fixes.Edits(doc, spans),
				},
			},
			Command: &messages.Command{
				Title:     "Save",
				Command:   CommandOnFixApplied,
				Arguments: []any{uri, d.Data.ID},
			},
		})
	}
	s.log.Debug("code actions", slog.String("uri", uri), slog.Int("count", len(actions)))
	return actions, nil
}

func wantsQuickFix(only []messages.CodeActionKind) bool {
	if len(only) == 0 {
		return true
	}
	for _, kind := range only {
		if kind == messages.CodeActionKindQuickFix {
			return true
		}
	}
	return false
}

func (s *Server) executeCommand(ctx context.Context, raw json.RawMessage) (result any, err error) {
	var params messages.ExecuteCommandParams
	if err = unmarshal(raw, &params); err != nil {
		return
	}
	log := s.log.With(slog.String("command", params.Command))
	log.Info("received executeCommand request")
	switch params.Command {
	case CommandLintFile:
		var uri string
		if err = arguments(params.Arguments, &uri); err != nil {
			return
		}
		return nil, s.lintFile(uri)
	case CommandLintOpenFiles:
		s.m.Lock()
		var uris []string
		for uri, doc := range s.docs {
			if fileName := uriToPath(uri); fileName != "" && isCpp(doc.languageID, fileName) {
				uris = append(uris, uri)
			}
		}
		s.m.Unlock()
		for _, uri := range uris {
			if err = s.lintFile(uri); err != nil {
				log.Warn("failed to lint document", slog.String("uri", uri), slog.Any("error", err))
			}
		}
		return nil, nil
	case CommandApplyFix:
		var uri, id string
		if err = arguments(params.Arguments, &uri, &id); err != nil {
			return
		}
		return nil, s.applyFix(ctx, uri, id)
	case CommandOnFixApplied:
		var uri, id string
		if err = arguments(params.Arguments, &uri, &id); err != nil {
			return
		}
		return nil, s.onFixApplied(uri, id)
	}
	return nil, invalidParams("unknown command %q", params.Command)
}

// lintFile saves a document if it has unsaved changes, then lints it.
func (s *Server) lintFile(uri string) (err error) {
	s.m.Lock()
	doc, ok := s.docs[uri]
	var text string
	var dirty bool
	if ok {
		text, dirty = doc.text, doc.dirty
	}
	s.m.Unlock()
	if !ok {
		s.showError("Document is not open.")
		return nil
	}
	if dirty && isCpp(doc.languageID, uriToPath(uri)) {
		if err = s.save(uri, text); err != nil {
			return err
		}
	}
	if reason := s.lint(uri, lintOptions{explicit: true}); reason != "" {
		s.showError(reason)
	}
	return nil
}

// applyFix asks the client to apply a fix, then saves the document.
func (s *Server) applyFix(ctx context.Context, uri, id string) (err error) {
	fixURI, spans, ok := s.fixes.Get(id)
	if !ok || fixURI != uri {
		return invalidParams("no fix for diagnostic %q", id)
	}
	if err = s.applyEdit(ctx, uri, spans, applyFixTitle); err != nil {
		return err
	}
	s.removeDiagnostics(uri, id)
	return nil
}

// onFixApplied saves a document after the client has applied a fix from a
// code action.
func (s *Server) onFixApplied(uri, id string) (err error) {
	s.m.Lock()
	doc, ok := s.docs[uri]
	var text string
	if ok {
		text = doc.text
	}
	s.m.Unlock()
	if ok {
		if err = s.save(uri, text); err != nil {
			return err
		}
	}
	s.removeDiagnostics(uri, id)
	return nil
}

// applyEdit applies spans to an open document as a single workspace edit,
// then saves the result.
func (s *Server) applyEdit(ctx context.Context, uri string, spans []diagnostic.Span, label string) (err error) {
	doc, ok := s.snapshot(uri)
	if !ok {
		return fmt.Errorf("document %q is not open", uri)
	}
	text, err := fixes.Apply(doc, spans)
	if err != nil {
		return err
	}
	params := messages.ApplyWorkspaceEditParams{
		Label: label,
		Edit: messages.WorkspaceEdit{
			Changes: map[string][]messages.TextEdit{
				uri: fixes.Edits(doc, spans),
			},
		},
	}
	var result messages.ApplyWorkspaceEditResult
	if err = s.client.Call(ctx, messages.ApplyWorkspaceEditRequestMethod, params, &result); err != nil {
		return fmt.Errorf("failed to apply edit: %w", err)
	}
	if !result.Applied {
		reason := "unknown reason"
		if result.FailureReason != nil {
			reason = *result.FailureReason
		}
		return fmt.Errorf("the client did not apply the edit: %s", reason)
	}
	s.setText(uri, doc.Text(), text)
	return s.save(uri, text)
}

// arguments unmarshals command arguments in order.
func arguments(raw []json.RawMessage, into ...any) error {
	if len(raw) < len(into) {
		return invalidParams("expected %d arguments, got %d", len(into), len(raw))
	}
	for i, v := range into {
		if err := json.Unmarshal(raw[i], v); err != nil {
			return invalidParams("invalid argument %d: %v", i, err)
		}
	}
	return nil
}
