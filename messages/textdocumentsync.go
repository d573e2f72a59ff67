package messages

const (
	DidOpenTextDocumentNotification   = "textDocument/didOpen"
	DidChangeTextDocumentNotification = "textDocument/didChange"
	DidSaveTextDocumentNotification   = "textDocument/didSave"
	DidCloseTextDocumentNotification  = "textDocument/didClose"
)

// TextDocumentItem is a document as it is opened by the client.
type TextDocumentItem struct {
	URI string `json:"uri"`
	// LanguageID is "cpp" or "c" for documents clazy can lint.
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

type DidChangeTextDocumentParams struct {
	TextDocument VersionedTextDocumentIdentifier `json:"textDocument"`

	// The server registers for full document sync, so each change event
	// carries the whole document. If there is more than one, the last wins.
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

type VersionedTextDocumentIdentifier struct {
	URI string `json:"uri"`
	// The version number of a document will increase after each change,
	// including undo/redo. The number doesn't need to be consecutive.
	Version int `json:"version"`
}

// An event describing a change to a text document. If only a text is provided
// it is considered to be the full content of the document.
type TextDocumentContentChangeEvent struct {
	Range *Range `json:"range"`
	Text  string `json:"text"`
}

type DidSaveTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	// Text is only sent when the server asks for it in its save options.
	Text *string `json:"text,omitempty"`
}

type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}
