package mcpserver

import (
	"fmt"

	"github.com/kdex-dev/kdex/internal/kdexerr"
)

// Custom MCP error codes for kdex, reserved in the implementation-defined
// range below -32000 per JSON-RPC convention.
const (
	ErrCodeRepoNotFound    = -32001
	ErrCodeStoreBusy       = -32002
	ErrCodeModeUnavailable = -32003
	ErrCodePathNotFound    = -32004

	ErrCodeInvalidParams = -32602
	ErrCodeMethodNotFound = -32601
	ErrCodeInternalError  = -32603
)

// MCPError is the structured error shape returned to MCP clients.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts a kdexerr.Error (or any error) into an MCPError,
// grounded on the teacher's internal/mcp/errors.go MapError dispatch.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	switch kdexerr.KindOf(err) {
	case kdexerr.RepoNotFound:
		return &MCPError{Code: ErrCodeRepoNotFound, Message: "repository not found. Run `kdex add` first."}
	case kdexerr.PathNotFound:
		return &MCPError{Code: ErrCodePathNotFound, Message: err.Error()}
	case kdexerr.StoreBusy:
		return &MCPError{Code: ErrCodeStoreBusy, Message: "index is busy; try again shortly."}
	case kdexerr.ModeUnavailable:
		return &MCPError{Code: ErrCodeModeUnavailable, Message: "semantic search is not available; enable it in the config and reindex."}
	case kdexerr.EmptyQuery:
		return &MCPError{Code: ErrCodeInvalidParams, Message: "query must not be empty."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: err.Error()}
	}
}

// NewInvalidParamsError builds an MCPError for a malformed tool call.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}
