package protocol

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
)

const Version = "2.0"

// Message is any JSON-RPC message. Requests have a Method and an ID,
// notifications have a Method but no ID, and responses have an ID, but no
// Method.
type Message struct {
	// ProtocolVersion is a string specifying the version of the JSON-RPC protocol. MUST be exactly "2.0".
	ProtocolVersion string `json:"jsonrpc"`
	// ID is an identifier established by the Client that MUST contain a String, Number, or NULL value if included. If it is not included it is assumed to be a notification. The value SHOULD normally not be Null [1] and Numbers SHOULD NOT contain fractional parts [2]
	ID *json.RawMessage `json:"id,omitempty"`
	// Method is a string containing the name of the method to be invoked. Method names that begin with the word rpc followed by a period character (U+002E or ASCII 46) are reserved for rpc-internal methods and extensions and MUST NOT be used for anything else.
	Method string `json:"method,omitempty"`
	// Params is a structured value that holds the parameter values to be used during the invocation of the method. This member MAY be omitted.
	Params json.RawMessage `json:"params,omitempty"`
	// Result is populated on success.
	Result json.RawMessage `json:"result,omitempty"`
	// Error is populated on failure.
	Error *Error `json:"error,omitempty"`
}

func (msg Message) IsJSONRPC() bool {
	return msg.ProtocolVersion == Version
}

func (msg Message) IsNotification() bool {
	return msg.ID == nil && msg.Method != ""
}

func (msg Message) IsResponse() bool {
	return msg.ID != nil && msg.Method == ""
}

// Request is an outgoing request or notification.
type Request struct {
	ProtocolVersion string           `json:"jsonrpc"`
	ID              *json.RawMessage `json:"id,omitempty"`
	Method          string           `json:"method"`
	Params          any              `json:"params,omitempty"`
}

func NewRequest(id *json.RawMessage, method string, params any) Request {
	return Request{
		ProtocolVersion: Version,
		ID:              id,
		Method:          method,
		Params:          params,
	}
}

func NewNotification(method string, params any) Request {
	return NewRequest(nil, method, params)
}

// Response is an outgoing response.
type Response struct {
	ProtocolVersion string           `json:"jsonrpc"`
	ID              *json.RawMessage `json:"id"`
	// Result is REQUIRED on success, and MUST NOT exist if there was an error.
	Result any `json:"result"`
	// Error is REQUIRED on error, and MUST NOT exist if there was no error.
	Error *Error `json:"error,omitempty"`
}

func NewResponse(id *json.RawMessage, result any) Response {
	return Response{
		ProtocolVersion: Version,
		ID:              id,
		Result:          result,
	}
}

func NewResponseError(id *json.RawMessage, err error) Response {
	return Response{
		ProtocolVersion: Version,
		ID:              id,
		Error:           NewError(err),
	}
}

// NewError converts err to a JSON-RPC error. Errors that aren't already
// JSON-RPC errors are reported as internal errors.
func NewError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{
		Code:    ErrInternal.Code,
		Message: err.Error(),
	}
}

type Error struct {
	// Code is a Number that indicates the error type that occurred.
	Code int64 `json:"code"`
	// Message of the error.
	// The message SHOULD be limited to a concise single sentence.
	Message string `json:"message"`
	// A Primitive or Structured value that contains additional information about the error.
	// This may be omitted.
	// The value of this member is defined by the Server (e.g. detailed error information, nested errors etc.).
	Data any `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrParseError           = &Error{Code: -32700, Message: "Parse error"}
	ErrInvalidRequest       = &Error{Code: -32600, Message: "Invalid Request"}
	ErrMethodNotFound       = &Error{Code: -32601, Message: "Method not found"}
	ErrInvalidParams        = &Error{Code: -32602, Message: "Invalid params"}
	ErrInternal             = &Error{Code: -32603, Message: "Internal error"}
	ErrServerNotInitialized = &Error{Code: -32002, Message: "Server not initialized"}
	ErrRequestCancelled     = &Error{Code: -32800, Message: "Request cancelled"}
)

var ErrInvalidContentLengthHeader = errors.New("missing or invalid Content-Length header")

// Read reads a single Content-Length framed message.
func Read(r *bufio.Reader) (msg Message, err error) {
	// Read header.
	header, err := textproto.NewReader(r).ReadMIMEHeader()
	if err != nil {
		return
	}
	contentLength, err := strconv.ParseInt(header.Get("Content-Length"), 10, 64)
	if err != nil || contentLength < 0 {
		return msg, ErrInvalidContentLengthHeader
	}
	// Read body.
	body := make([]byte, contentLength)
	if _, err = io.ReadFull(r, body); err != nil {
		return
	}
	if err = json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("%w: %v", ErrParseError, err)
	}
	if !msg.IsJSONRPC() {
		return msg, ErrInvalidRequest
	}
	return
}

// Write writes a single Content-Length framed message.
func Write(w *bufio.Writer, msg any) (err error) {
	// Calculate body size.
	body, err := json.Marshal(msg)
	if err != nil {
		return
	}
	// Write the header.
	_, err = w.WriteString(fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body)))
	if err != nil {
		return
	}
	// Write the body.
	_, err = w.Write(body)
	if err != nil {
		return
	}
	// Flush.
	err = w.Flush()
	return
}
