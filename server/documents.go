package server

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/exp/slog"

	"github.com/a-h/clazylsp/document"
	"github.com/a-h/clazylsp/messages"
)

type openDocument struct {
	uri        string
	languageID string
	version    int
	text       string
	// dirty is true when the buffer has changed since it was last saved.
	dirty bool
}

var cppExtensions = map[string]bool{
	".c":   true,
	".cc":  true,
	".cpp": true,
	".cxx": true,
	".c++": true,
	".h":   true,
	".hh":  true,
	".hpp": true,
	".hxx": true,
}

func isCpp(languageID, fileName string) bool {
	switch languageID {
	case "cpp", "c":
		return true
	case "":
		return cppExtensions[strings.ToLower(filepath.Ext(fileName))]
	}
	return false
}

func (s *Server) didOpen(ctx context.Context, raw json.RawMessage) (err error) {
	var params messages.DidOpenTextDocumentParams
	if err = unmarshal(raw, &params); err != nil {
		return
	}
	s.log.Info("received didOpen notification", slog.String("uri", params.TextDocument.URI))
	s.m.Lock()
	s.docs[params.TextDocument.URI] = &openDocument{
		uri:        params.TextDocument.URI,
		languageID: params.TextDocument.LanguageID,
		version:    params.TextDocument.Version,
		text:       params.TextDocument.Text,
	}
	s.m.Unlock()
	s.lint(params.TextDocument.URI, lintOptions{})
	return nil
}

func (s *Server) didChange(ctx context.Context, raw json.RawMessage) (err error) {
	var params messages.DidChangeTextDocumentParams
	if err = unmarshal(raw, &params); err != nil {
		return
	}
	if len(params.ContentChanges) == 0 {
		return nil
	}
	s.m.Lock()
	defer s.m.Unlock()
	doc, ok := s.docs[params.TextDocument.URI]
	if !ok {
		return fmt.Errorf("received change for unopened document %q", params.TextDocument.URI)
	}
	text := params.ContentChanges[len(params.ContentChanges)-1].Text
	if text != doc.text {
		doc.dirty = true
	}
	doc.text = text
	doc.version = params.TextDocument.Version
	return nil
}

func (s *Server) didSave(ctx context.Context, raw json.RawMessage) (err error) {
	var params messages.DidSaveTextDocumentParams
	if err = unmarshal(raw, &params); err != nil {
		return
	}
	uri := params.TextDocument.URI
	s.m.Lock()
	doc, ok := s.docs[uri]
	if ok {
		if params.Text != nil {
			doc.text = *params.Text
		}
		doc.dirty = false
	}
	c := s.config
	s.m.Unlock()
	if !ok {
		return nil
	}
	if c.LintOnSave || c.FixOnSave {
		s.lint(uri, lintOptions{fix: c.FixOnSave})
	}
	return nil
}

func (s *Server) didClose(ctx context.Context, raw json.RawMessage) (err error) {
	var params messages.DidCloseTextDocumentParams
	if err = unmarshal(raw, &params); err != nil {
		return
	}
	uri := params.TextDocument.URI
	s.m.Lock()
	defer s.m.Unlock()
	if run, ok := s.lints[uri]; ok {
		run.cancel()
		delete(s.lints, uri)
	}
	delete(s.docs, uri)
	s.fixes.Clear(uri)
	if _, ok := s.published[uri]; ok {
		delete(s.published, uri)
		s.notify(messages.PublishDiagnosticsMethod, messages.PublishDiagnosticsParams{
			URI:         uri,
			Diagnostics: []messages.Diagnostic{},
		})
	}
	return nil
}

// snapshot returns the current text of an open document.
func (s *Server) snapshot(uri string) (doc *document.Document, ok bool) {
	s.m.Lock()
	defer s.m.Unlock()
	od, ok := s.docs[uri]
	if !ok {
		return nil, false
	}
	return document.New(od.text, s.encodingLocked()), true
}

// setText updates an open document after the server has edited it, unless
// the client has already sent a different version.
func (s *Server) setText(uri, previous, text string) {
	s.m.Lock()
	defer s.m.Unlock()
	if od, ok := s.docs[uri]; ok && od.text == previous {
		od.text = text
	}
}

// save writes the text to disk, in the configured encoding.
func (s *Server) save(uri, text string) (err error) {
	fileName := uriToPath(uri)
	if fileName == "" {
		return fmt.Errorf("document %q is not a local file", uri)
	}
	s.m.Lock()
	enc := s.encodingLocked()
	s.m.Unlock()

	if err = document.New(text, enc).WriteFile(fileName); err != nil {
		return fmt.Errorf("failed to save %q: %w", fileName, err)
	}
	s.m.Lock()
	if od, ok := s.docs[uri]; ok && od.text == text {
		od.dirty = false
	}
	s.m.Unlock()
	s.log.Info("saved document", slog.String("uri", uri))
	return nil
}

// lintableLocked returns the file name of a document that can be linted
// automatically. Explicit requests only need a local C++ document.
func (s *Server) lintableLocked(doc *openDocument, explicit bool) (fileName string, reason string) {
	fileName = uriToPath(doc.uri)
	if fileName == "" {
		return "", "Document is not a local file."
	}
	if !isCpp(doc.languageID, fileName) {
		return "", "Document is not a C++ document."
	}
	if explicit {
		return fileName, ""
	}
	if s.config.Blacklisted(fileName) {
		return "", "Document is blacklisted."
	}
	if len(s.folders) > 0 && s.folderLocked(fileName) == "" {
		return "", "Document is not in a workspace folder."
	}
	return fileName, ""
}

// folderLocked returns the innermost workspace folder containing fileName.
func (s *Server) folderLocked(fileName string) (folder string) {
	for _, f := range s.folders {
		if within(f, fileName) && len(f) > len(folder) {
			folder = f
		}
	}
	return folder
}

func (s *Server) workingDirLocked(fileName string) string {
	if folder := s.folderLocked(fileName); folder != "" {
		return folder
	}
	return filepath.Dir(fileName)
}
