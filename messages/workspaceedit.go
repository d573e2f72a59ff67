package messages

const ApplyWorkspaceEditRequestMethod = "workspace/applyEdit"

type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

// WorkspaceEdit changes are applied by the client as a single transaction.
type WorkspaceEdit struct {
	Changes map[string][]TextEdit `json:"changes"`
}

type ApplyWorkspaceEditParams struct {
	Label string        `json:"label,omitempty"`
	Edit  WorkspaceEdit `json:"edit"`
}

type ApplyWorkspaceEditResult struct {
	Applied       bool    `json:"applied"`
	FailureReason *string `json:"failureReason,omitempty"`
}
