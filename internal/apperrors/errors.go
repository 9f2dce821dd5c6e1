// Package apperrors implements the edit engine's closed error taxonomy: a
// fixed set of Kind values, each rendered as the {result, reason,
// file_hash?, suggestion?, hint?} wire shape every tool returns on
// failure.
package apperrors

import (
	"fmt"
)

// Kind is the closed set of error categories the edit engine can raise.
type Kind string

const (
	InvalidPath        Kind = "invalid_path"
	InvalidRange       Kind = "invalid_range"
	InvalidRequest     Kind = "invalid_request"
	FileNotFound       Kind = "file_not_found"
	AlreadyExists      Kind = "already_exists"
	PermissionDenied   Kind = "permission_denied"
	DirectoryError     Kind = "directory_error"
	IoError            Kind = "io_error"
	FileTooLarge       Kind = "file_too_large"
	Encoding           Kind = "encoding_error"
	FileHashMismatch   Kind = "file_hash_mismatch"
	RangeHashMismatch  Kind = "range_hash_mismatch"
	OverlappingPatches Kind = "overlapping_patches"
	Internal           Kind = "internal_error"
)

// Error is the concrete error type every edit engine operation returns on
// failure. It carries everything a tool handler needs to build the wire
// response without re-deriving it.
type Error struct {
	Kind       Kind
	Reason     string
	FileHash   string
	Suggestion string
	Hint       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Response is the {result, reason, file_hash?, suggestion?, hint?} shape
// a tool handler returns as structured error content.
type Response struct {
	Result     string `json:"result"`
	Reason     string `json:"reason"`
	FileHash   string `json:"file_hash,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Hint       string `json:"hint,omitempty"`
}

// Response renders e as the wire error payload.
func (e *Error) Response() Response {
	return Response{
		Result:     "error",
		Reason:     e.Reason,
		FileHash:   e.FileHash,
		Suggestion: e.Suggestion,
		Hint:       e.Hint,
	}
}

func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

func NewInvalidPath(reason string) *Error {
	return New(InvalidPath, reason)
}

func NewInvalidRange(reason string) *Error {
	return New(InvalidRange, reason)
}

func NewInvalidRequest(reason string) *Error {
	return New(InvalidRequest, reason)
}

func NewFileNotFound(path string) *Error {
	return &Error{Kind: FileNotFound, Reason: fmt.Sprintf("file not found: %s", path), Suggestion: "use create_text_file to create it"}
}

func NewAlreadyExists(path string) *Error {
	return &Error{Kind: AlreadyExists, Reason: fmt.Sprintf("file already exists: %s", path), Hint: "use patch_text_file_contents or delete it first"}
}

func NewPermissionDenied(path string) *Error {
	return New(PermissionDenied, fmt.Sprintf("permission denied: %s", path))
}

func NewDirectoryError(reason string) *Error {
	return New(DirectoryError, reason)
}

func NewIoError(err error) *Error {
	return New(IoError, err.Error())
}

// NewFileTooLarge reports that path's size in bytes exceeds the
// configured ceiling, mirroring the teacher's NewFileTooLargeError.
func NewFileTooLarge(path string, sizeBytes, maxBytes int64) *Error {
	return New(FileTooLarge, fmt.Sprintf("%s is %d bytes, which exceeds the configured maximum of %d bytes", path, sizeBytes, maxBytes))
}

// NewLineCountExceeded reports that a file's line count exceeds the
// configured ceiling. The teacher reports this as an invalid-params
// error rather than a distinct kind, so InvalidRequest is reused here.
func NewLineCountExceeded(path string, lineCount, maxLines int) *Error {
	return New(InvalidRequest, fmt.Sprintf("%s has %d lines, which exceeds the configured maximum of %d lines", path, lineCount, maxLines))
}

func NewEncodingError(err error) *Error {
	return New(Encoding, err.Error())
}

// NewFileHashMismatch reports that the caller's expected_file_hash no
// longer matches the file on disk, carrying the current hash so the
// caller can re-read without a second round trip.
func NewFileHashMismatch(currentHash string) *Error {
	return &Error{
		Kind:       FileHashMismatch,
		Reason:     "expected_file_hash does not match the file's current content",
		FileHash:   currentHash,
		Suggestion: "re-read the file to get the current file_hash and retry",
	}
}

// NewRangeHashMismatch reports that a patch's range_hash no longer
// matches the current text at that range.
func NewRangeHashMismatch(currentFileHash string, patchIndex int) *Error {
	return &Error{
		Kind:       RangeHashMismatch,
		Reason:     fmt.Sprintf("patch %d: range_hash does not match the current text of that range", patchIndex),
		FileHash:   currentFileHash,
		Suggestion: "re-read the affected range to get the current range_hash and retry",
	}
}

// NewOverlappingPatches reports that two patches in one request target
// overlapping line ranges.
func NewOverlappingPatches(i, j int) *Error {
	return New(OverlappingPatches, fmt.Sprintf("patch %d and patch %d target overlapping line ranges", i, j))
}

func NewInternal(err error) *Error {
	return New(Internal, err.Error())
}
