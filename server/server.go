// Package server implements a language server that lints C++ documents with
// clazy, publishes its findings as diagnostics and applies its fixes.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/exp/slog"
	"golang.org/x/text/encoding"

	"github.com/a-h/clazylsp/clazy"
	"github.com/a-h/clazylsp/config"
	"github.com/a-h/clazylsp/document"
	"github.com/a-h/clazylsp/fixes"
	"github.com/a-h/clazylsp/lsp"
	"github.com/a-h/clazylsp/messages"
	"github.com/a-h/clazylsp/protocol"
)

const (
	Name   = "clazylsp"
	source = "clazy"

	CommandLintFile      = "clazy.lintFile"
	CommandLintOpenFiles = "clazy.lintOpenFiles"
	CommandApplyFix      = "clazy.applyFix"
	CommandOnFixApplied  = "clazy.onFixApplied"
)

// Client is the connection to the editor.
type Client interface {
	Notify(method string, params any) error
	Call(ctx context.Context, method string, params any, result any) error
}

type Server struct {
	log     *slog.Logger
	client  Client
	runner  *clazy.Runner
	fixes   *fixes.Registry
	version string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	m         sync.Mutex
	config    config.Config
	docs      map[string]*openDocument
	folders   []string
	lints     map[string]lintRun
	published map[string][]messages.Diagnostic
	seq       uint64
	shutdown  bool
}

func New(log *slog.Logger, client Client, runner *clazy.Runner, c config.Config, version string) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		log:       log,
		client:    client,
		runner:    runner,
		fixes:     fixes.NewRegistry(),
		version:   version,
		ctx:       ctx,
		cancel:    cancel,
		config:    c,
		docs:      map[string]*openDocument{},
		lints:     map[string]lintRun{},
		published: map[string][]messages.Diagnostic{},
	}
}

// Register adds the server's handlers to the mux.
func (s *Server) Register(m *lsp.Mux) {
	m.HandleMethod(messages.InitializeMethod, s.initialize)
	m.HandleNotification(messages.InitializedNotification, s.initialized)
	m.HandleMethod(messages.ShutdownMethod, s.shutdownMethod)
	m.HandleNotification(messages.ExitNotification, s.exit)
	m.HandleNotification(messages.DidOpenTextDocumentNotification, s.didOpen)
	m.HandleNotification(messages.DidChangeTextDocumentNotification, s.didChange)
	m.HandleNotification(messages.DidSaveTextDocumentNotification, s.didSave)
	m.HandleNotification(messages.DidCloseTextDocumentNotification, s.didClose)
	m.HandleNotification(messages.DidChangeConfigurationNotification, s.didChangeConfiguration)
	m.HandleMethod(messages.CodeActionRequestMethod, s.codeAction)
	m.HandleMethod(messages.ExecuteCommandRequestMethod, s.executeCommand)
}

// Wait blocks until running lints have finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) initialize(ctx context.Context, raw json.RawMessage) (result any, err error) {
	var params messages.InitializeParams
	if err = unmarshal(raw, &params); err != nil {
		return
	}
	s.log.Info("received initialize method", slog.Any("clientInfo", params.ClientInfo))

	s.m.Lock()
	defer s.m.Unlock()
	merged, err := s.config.Merge(params.InitializationOptions)
	if err != nil {
		return nil, invalidParams("invalid initializationOptions: %v", err)
	}
	s.config = merged
	for _, f := range params.WorkspaceFolders {
		if fileName := uriToPath(f.URI); fileName != "" {
			s.folders = append(s.folders, fileName)
		}
	}
	if len(s.folders) == 0 && params.RootURI != nil {
		if fileName := uriToPath(*params.RootURI); fileName != "" {
			s.folders = append(s.folders, fileName)
		}
	}

	return messages.InitializeResult{
		Capabilities: messages.ServerCapabilities{
			TextDocumentSync: &messages.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    messages.TextDocumentSyncKindFull,
				Save:      &messages.SaveOptions{},
			},
			CodeActionProvider: &messages.CodeActionOptions{
				CodeActionKinds: []messages.CodeActionKind{messages.CodeActionKindQuickFix},
			},
			ExecuteCommandProvider: &messages.ExecuteCommandOptions{
				Commands: []string{
					CommandLintFile,
					CommandLintOpenFiles,
					CommandApplyFix,
					CommandOnFixApplied,
				},
			},
		},
		ServerInfo: &messages.ServerInfo{
			Name:    Name,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx context.Context, raw json.RawMessage) (err error) {
	s.m.Lock()
	defer s.m.Unlock()
	s.log.Info("received initialized notification", slog.Any("workspaceFolders", s.folders))
	return nil
}

func (s *Server) shutdownMethod(ctx context.Context, raw json.RawMessage) (result any, err error) {
	s.m.Lock()
	defer s.m.Unlock()
	s.shutdown = true
	for uri, run := range s.lints {
		run.cancel()
		delete(s.lints, uri)
	}
	s.log.Info("shutting down")
	return nil, nil
}

func (s *Server) exit(ctx context.Context, raw json.RawMessage) (err error) {
	s.cancel()
	return nil
}

func (s *Server) didChangeConfiguration(ctx context.Context, raw json.RawMessage) (err error) {
	var params messages.DidChangeConfigurationParams
	if err = unmarshal(raw, &params); err != nil {
		return
	}
	s.m.Lock()
	merged, err := s.config.Merge(params.Settings)
	if err != nil {
		s.m.Unlock()
		return err
	}
	s.config = merged
	var uris []string
	for uri, doc := range s.docs {
		if !doc.dirty {
			uris = append(uris, uri)
		}
	}
	s.m.Unlock()

	s.log.Info("configuration changed", slog.Any("config", merged))
	for _, uri := range uris {
		s.lint(uri, lintOptions{})
	}
	return nil
}

// encodingLocked returns the configured on-disk encoding.
func (s *Server) encodingLocked() encoding.Encoding {
	enc, err := document.Encoding(s.config.Encoding)
	if err != nil {
		s.log.Warn("using utf-8", slog.Any("error", err))
		return nil
	}
	return enc
}

func (s *Server) notify(method string, params any) {
	if err := s.client.Notify(method, params); err != nil {
		s.log.Error("failed to send notification", slog.String("method", method), slog.Any("error", err))
	}
}

func (s *Server) showError(message string) {
	s.notify(messages.ShowMessageMethod, messages.ShowMessageParams{
		Type:    messages.MessageTypeError,
		Message: message,
	})
}

func unmarshal(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return invalidParams("%v", err)
	}
	return nil
}

func invalidParams(format string, args ...any) *protocol.Error {
	return &protocol.Error{
		Code:    protocol.ErrInvalidParams.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

func ptr[T any](v T) *T {
	return &v
}
