// Package models holds the JSON argument and result shapes bound by the
// MCP tool handlers in internal/mcpserver. Field names are fixed for wire
// compatibility with spec.md's external interface table.
package models

// LineRange is an inclusive, 1-based line range as it appears on the
// wire; LineEnd omitted means "to end of file".
type LineRange struct {
	LineStart int  `json:"line_start"`
	LineEnd   *int `json:"line_end,omitempty"`
}

// FileRangesRequest is one entry of get_text_file_contents' files array.
type FileRangesRequest struct {
	FilePath string      `json:"file_path"`
	Ranges   []LineRange `json:"ranges"`
	Encoding string      `json:"encoding,omitempty"`
}

// GetTextFileContentsArgs binds get_text_file_contents.
type GetTextFileContentsArgs struct {
	Files []FileRangesRequest `json:"files"`
}

// RangeResult is one range's result within get_text_file_contents.
type RangeResult struct {
	Content     string `json:"content"`
	LineStart   int    `json:"line_start"`
	LineEnd     int    `json:"line_end"`
	RangeHash   string `json:"range_hash"`
	TotalLines  int    `json:"total_lines"`
	ContentSize int    `json:"content_size"`
}

// FileReadResult is one path's result within get_text_file_contents.
type FileReadResult struct {
	FileHash string        `json:"file_hash,omitempty"`
	Ranges   []RangeResult `json:"ranges,omitempty"`
	Result   string        `json:"result,omitempty"`
	Reason   string        `json:"reason,omitempty"`
}

// GetTextFileContentsResult maps each requested path to its result.
type GetTextFileContentsResult struct {
	Files map[string]FileReadResult `json:"files"`
}

// CreateTextFileArgs binds create_text_file.
type CreateTextFileArgs struct {
	FilePath string `json:"file_path"`
	Contents string `json:"contents"`
	Encoding string `json:"encoding,omitempty"`
}

// AppendTextFileContentsArgs binds append_text_file_contents.
type AppendTextFileContentsArgs struct {
	FilePath string `json:"file_path"`
	FileHash string `json:"file_hash"`
	Contents string `json:"contents"`
	Encoding string `json:"encoding,omitempty"`
}

// InsertTextFileContentsArgs binds insert_text_file_contents.
type InsertTextFileContentsArgs struct {
	FilePath string `json:"file_path"`
	FileHash string `json:"file_hash"`
	Contents string `json:"contents"`
	After    *int   `json:"after,omitempty"`
	Before   *int   `json:"before,omitempty"`
	Encoding string `json:"encoding,omitempty"`
}

// DeleteRange is one range within delete_text_file_contents' ranges array.
type DeleteRange struct {
	LineStart int    `json:"line_start"`
	LineEnd   int    `json:"line_end"`
	RangeHash string `json:"range_hash"`
}

// DeleteTextFileContentsArgs binds delete_text_file_contents.
type DeleteTextFileContentsArgs struct {
	FilePath string        `json:"file_path"`
	FileHash string        `json:"file_hash"`
	Ranges   []DeleteRange `json:"ranges"`
	Encoding string        `json:"encoding,omitempty"`
}

// PatchEntry is one entry within patch_text_file_contents' patches array.
type PatchEntry struct {
	LineStart int    `json:"line_start"`
	LineEnd   *int   `json:"line_end,omitempty"`
	Contents  string `json:"contents"`
	RangeHash string `json:"range_hash,omitempty"`
}

// PatchTextFileContentsArgs binds patch_text_file_contents.
type PatchTextFileContentsArgs struct {
	FilePath string       `json:"file_path"`
	FileHash string       `json:"file_hash"`
	Patches  []PatchEntry `json:"patches"`
	Encoding string       `json:"encoding,omitempty"`
}

// WriteResult is the {result, file_hash} shape shared by every write
// tool's success response.
type WriteResult struct {
	Result   string `json:"result"`
	FileHash string `json:"file_hash"`
}

// PeekTextFileContentsArgs binds the peek_text_file_contents expansion
// tool: the first num_lines lines of each of file_paths.
type PeekTextFileContentsArgs struct {
	FilePaths []string `json:"file_paths"`
	NumLines  int      `json:"num_lines,omitempty"`
	Encoding  string   `json:"encoding,omitempty"`
}

// PeekFileResult is one path's result within peek_text_file_contents.
type PeekFileResult struct {
	Result         string   `json:"result,omitempty"`
	Reason         string   `json:"reason,omitempty"`
	Filename       string   `json:"filename,omitempty"`
	Lines          []string `json:"lines,omitempty"`
	NumLinesPeeked int      `json:"num_lines_peeked,omitempty"`
	TotalLines     int      `json:"total_lines,omitempty"`
	SizeBytes      int64    `json:"size_bytes,omitempty"`
	PeekHash       string   `json:"peek_hash,omitempty"`
	FileHash       string   `json:"file_hash,omitempty"`
}

// PeekTextFileContentsResult maps each requested path to its peek result.
type PeekTextFileContentsResult struct {
	Files map[string]PeekFileResult `json:"files"`
}

// AppendTextFileFromPathArgs binds the append_text_file_from_path
// expansion tool: appends source_file_path's contents onto
// target_file_path without ever returning the source content to the
// caller.
type AppendTextFileFromPathArgs struct {
	SourceFilePath string `json:"source_file_path"`
	TargetFilePath string `json:"target_file_path"`
	TargetFileHash string `json:"target_file_hash"`
	Encoding       string `json:"encoding,omitempty"`
}

// ListTextFilesArgs binds the list_text_files expansion tool.
type ListTextFilesArgs struct {
	DirPath string `json:"dir_path,omitempty"`
}

// TextFileInfo is one entry of list_text_files' result.
type TextFileInfo struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	SizeBytes    int64  `json:"size_bytes"`
	ModifiedUnix int64  `json:"modified_unix"`
	LineCount    int    `json:"line_count"`
}

// ListTextFilesResult is the result of the list_text_files expansion tool.
type ListTextFilesResult struct {
	Files []TextFileInfo `json:"files"`
}
