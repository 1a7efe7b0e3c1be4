// Package rpc defines the JSON-RPC 2.0 envelope types and the error
// taxonomy shared by the dispatcher and the tool handlers.
//
// Error codes follow the wire protocol: -32601 method not found, -32602
// invalid params (covers both validation failures and missing document
// ids), -32603 internal error. Handlers signal failures by returning an
// *Error; the dispatcher folds anything else into -32603 so a raw error
// never escapes as a transport failure.
package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// Version is the JSON-RPC protocol version on every envelope.
const Version = "2.0"

// Request is one inbound JSON-RPC call.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is one outbound JSON-RPC result or error envelope.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error is a JSON-RPC error object. It implements error so handlers can
// return it through ordinary error plumbing.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// NewResponse wraps a result in a success envelope.
func NewResponse(id, result any) Response {
	return Response{JSONRPC: Version, ID: id, Result: result}
}

// NewErrorResponse wraps an Error in a failure envelope.
func NewErrorResponse(id any, err *Error) Response {
	return Response{JSONRPC: Version, ID: id, Error: err}
}

// ParseError reports an unparseable request body.
func ParseError(err error) *Error {
	return &Error{Code: mcp.PARSE_ERROR, Message: "parse error", Data: err.Error()}
}

// InvalidRequest reports a structurally invalid envelope.
func InvalidRequest(format string, args ...any) *Error {
	return &Error{Code: mcp.INVALID_REQUEST, Message: fmt.Sprintf(format, args...)}
}

// MethodNotFound reports an unknown method or tool name.
func MethodNotFound(format string, args ...any) *Error {
	return &Error{Code: mcp.METHOD_NOT_FOUND, Message: fmt.Sprintf(format, args...)}
}

// InvalidParams reports a validation failure or a missing document id.
func InvalidParams(format string, args ...any) *Error {
	return &Error{Code: mcp.INVALID_PARAMS, Message: fmt.Sprintf(format, args...)}
}

// Internal reports an unexpected failure, attaching the underlying
// message as data. Partial results are never carried.
func Internal(err error) *Error {
	return &Error{Code: mcp.INTERNAL_ERROR, Message: "internal error", Data: err.Error()}
}

// WithData returns a copy of e carrying extra diagnostic data.
func (e *Error) WithData(data any) *Error {
	clone := *e
	clone.Data = data
	return &clone
}
