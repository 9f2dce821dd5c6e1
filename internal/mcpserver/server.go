// Package mcpserver adapts internal/editengine to the wire: tool
// registration, argument binding, and resource-template reads, using
// github.com/mark3labs/mcp-go the way the reference corpus's fs-mcp-go
// server does.
package mcpserver

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"texteditmcp/internal/editengine"
	"texteditmcp/internal/models"
)

// wrapStructuredHandler adapts a typed StructuredToolHandlerFunc into the
// untyped handler mcp-go's AddTool expects, binding arguments and
// rendering engine errors as structured error content on failure.
func wrapStructuredHandler[TArgs any, TResult any](h mcp.StructuredToolHandlerFunc[TArgs, TResult]) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args TArgs
		if err := req.BindArguments(&args); err != nil {
			return toErrorResult(err), nil
		}
		res, err := h(ctx, req, args)
		if err != nil {
			return toErrorResult(err), nil
		}
		return &mcp.CallToolResult{StructuredContent: res}, nil
	}
}

// New builds the MCP server exposing the six spec.md tools plus the
// list_text_files, peek_text_file_contents, and append_text_file_from_path
// expansions and the text:// resource template.
func New(eng *editengine.Engine, defaultEncoding string, allowRoots []string) *server.MCPServer {
	s := server.NewMCPServer("texteditmcp", "1.0.0")

	getTool := mcp.NewTool("get_text_file_contents",
		mcp.WithDescription("Read one or more inclusive line ranges from one or more text files, with content hashes for optimistic-concurrency writes."),
		mcp.WithArray("files", mcp.Required(), mcp.Description("List of {file_path, ranges:[{line_start,line_end?}], encoding?}")),
		mcp.WithOutputSchema[models.GetTextFileContentsResult](),
	)
	s.AddTool(getTool, wrapStructuredHandler(handleGetTextFileContents(eng, defaultEncoding)))

	createTool := mcp.NewTool("create_text_file",
		mcp.WithDescription("Create a new text file. Fails if the file already exists."),
		mcp.WithString("file_path", mcp.Required()),
		mcp.WithString("contents", mcp.Required()),
		mcp.WithString("encoding", mcp.Description("utf-8 (default), utf-8-sig, or ascii")),
		mcp.WithOutputSchema[models.WriteResult](),
	)
	s.AddTool(createTool, wrapStructuredHandler(handleCreateTextFile(eng, defaultEncoding)))

	appendTool := mcp.NewTool("append_text_file_contents",
		mcp.WithDescription("Append text to the end of a file, guarded by its current file_hash."),
		mcp.WithString("file_path", mcp.Required()),
		mcp.WithString("file_hash", mcp.Required()),
		mcp.WithString("contents", mcp.Required()),
		mcp.WithString("encoding"),
		mcp.WithOutputSchema[models.WriteResult](),
	)
	s.AddTool(appendTool, wrapStructuredHandler(handleAppendTextFileContents(eng, defaultEncoding)))

	insertTool := mcp.NewTool("insert_text_file_contents",
		mcp.WithDescription("Insert text before or after a given line, guarded by the file's current file_hash. Exactly one of after/before must be given."),
		mcp.WithString("file_path", mcp.Required()),
		mcp.WithString("file_hash", mcp.Required()),
		mcp.WithString("contents", mcp.Required()),
		mcp.WithNumber("after", mcp.Description("insert immediately after this line (0 means before line 1)")),
		mcp.WithNumber("before", mcp.Description("insert immediately before this line")),
		mcp.WithString("encoding"),
		mcp.WithOutputSchema[models.WriteResult](),
	)
	s.AddTool(insertTool, wrapStructuredHandler(handleInsertTextFileContents(eng, defaultEncoding)))

	deleteTool := mcp.NewTool("delete_text_file_contents",
		mcp.WithDescription("Delete one or more inclusive line ranges from a file, each guarded by its own range_hash."),
		mcp.WithString("file_path", mcp.Required()),
		mcp.WithString("file_hash", mcp.Required()),
		mcp.WithArray("ranges", mcp.Required(), mcp.Description("[{line_start,line_end,range_hash}]")),
		mcp.WithString("encoding"),
		mcp.WithOutputSchema[models.WriteResult](),
	)
	s.AddTool(deleteTool, wrapStructuredHandler(handleDeleteTextFileContents(eng, defaultEncoding)))

	patchTool := mcp.NewTool("patch_text_file_contents",
		mcp.WithDescription("Apply one or more non-overlapping line-range replacements/insertions/deletions to a file in a single atomic commit."),
		mcp.WithString("file_path", mcp.Required()),
		mcp.WithString("file_hash", mcp.Required()),
		mcp.WithArray("patches", mcp.Required(), mcp.Description("[{line_start,line_end?,contents,range_hash?}]")),
		mcp.WithString("encoding"),
		mcp.WithOutputSchema[models.WriteResult](),
	)
	s.AddTool(patchTool, wrapStructuredHandler(handlePatchTextFileContents(eng, defaultEncoding)))

	peekTool := mcp.NewTool("peek_text_file_contents",
		mcp.WithDescription("Read the first num_lines lines of one or more text files, without needing to know each file's total_lines up front."),
		mcp.WithArray("file_paths", mcp.Required(), mcp.WithStringItems(), mcp.Description("paths to peek")),
		mcp.WithNumber("num_lines", mcp.Description("lines to read from the start of each file (default 10)")),
		mcp.WithString("encoding"),
		mcp.WithOutputSchema[models.PeekTextFileContentsResult](),
	)
	s.AddTool(peekTool, wrapStructuredHandler(handlePeekTextFileContents(eng, defaultEncoding)))

	appendFromPathTool := mcp.NewTool("append_text_file_from_path",
		mcp.WithDescription("Append source_file_path's current contents onto target_file_path, guarded by target_file_hash. The source content is read and written server-side and never returned to the caller."),
		mcp.WithString("source_file_path", mcp.Required()),
		mcp.WithString("target_file_path", mcp.Required()),
		mcp.WithString("target_file_hash", mcp.Required()),
		mcp.WithString("encoding"),
		mcp.WithOutputSchema[models.WriteResult](),
	)
	s.AddTool(appendFromPathTool, wrapStructuredHandler(handleAppendTextFileFromPath(eng, defaultEncoding)))

	listTool := mcp.NewTool("list_text_files",
		mcp.WithDescription("List regular files in a directory (defaults to the server's first allow-listed root, or its working directory) with size, modification time, and line count."),
		mcp.WithString("dir_path", mcp.Description("directory to list; defaults to the server's root")),
		mcp.WithOutputSchema[models.ListTextFilesResult](),
	)
	s.AddTool(listTool, wrapStructuredHandler(handleListTextFiles(eng, allowRoots)))

	template := mcp.NewResourceTemplate(
		"text://{path}?lines={start}-{end}",
		"Line range access",
		mcp.WithTemplateDescription("Access specific line ranges in text files. path: absolute path to the text file. start: 1-based starting line. end: optional ending line, defaults to end of file."),
		mcp.WithTemplateMIMEType("text/plain"),
	)
	s.AddResourceTemplate(template, resourceReadHandler(eng, defaultEncoding))

	return s
}

// resourceReadHandler parses text://<path>?lines=S-E and serves it through
// the engine's ReadRange.
func resourceReadHandler(eng *editengine.Engine, defaultEncoding string) func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		uri := req.Params.URI
		path, lines, err := parseTextURI(uri)
		if err != nil {
			return nil, err
		}
		start, end, err := parseLines(lines)
		if err != nil {
			return nil, err
		}
		res, err := eng.ReadRange(path, start, end, defaultEncoding)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: uri, MIMEType: "text/plain", Text: res.Content},
		}, nil
	}
}

func parseTextURI(uri string) (path string, lines string, err error) {
	const prefix = "text://"
	if !strings.HasPrefix(uri, prefix) {
		return "", "", fmt.Errorf("unsupported resource scheme: %s", uri)
	}
	rest := uri[len(prefix):]
	path = rest
	if idx := strings.IndexByte(rest, '?'); idx >= 0 {
		path = rest[:idx]
		query := rest[idx+1:]
		for _, kv := range strings.Split(query, "&") {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) == 2 && parts[0] == "lines" {
				lines = parts[1]
			}
		}
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path, lines, nil
}

func parseLines(lines string) (int, *int, error) {
	if lines == "" {
		return 1, nil, nil
	}
	parts := strings.SplitN(lines, "-", 2)
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, nil, fmt.Errorf("invalid lines start: %s", lines)
	}
	if len(parts) == 1 || parts[1] == "" {
		return start, nil, nil
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, nil, fmt.Errorf("invalid lines end: %s", lines)
	}
	return start, &end, nil
}
