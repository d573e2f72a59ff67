package messages

import "encoding/json"

const DidChangeConfigurationNotification = "workspace/didChangeConfiguration"

type DidChangeConfigurationParams struct {
	Settings json.RawMessage `json:"settings"`
}
