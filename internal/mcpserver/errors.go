package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"

	"texteditmcp/internal/apperrors"
)

// toErrorResult renders any error returned by the edit engine as the
// {result, reason, file_hash?, suggestion?, hint?} structured content
// spec.md's error handling section requires, wrapping unexpected
// non-apperrors failures as InternalError per spec.md's "the transport
// wraps any unexpected internal failure" rule.
func toErrorResult(err error) *mcp.CallToolResult {
	appErr, ok := err.(*apperrors.Error)
	if !ok {
		appErr = apperrors.NewInternal(err)
	}
	resp := appErr.Response()
	out := mcp.NewToolResultStructured(resp, resp.Reason)
	out.IsError = true
	return out
}
