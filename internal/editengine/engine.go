// Package editengine implements the Edit Engine: read_range, read_multi,
// patch, insert, delete, append, and create, built on top of internal/peg
// for path/encoding validation, internal/linestore for the line-indexed
// file image, and internal/hashaddr for content addressing.
package editengine

import (
	"errors"
	"fmt"
	"os"

	"texteditmcp/internal/apperrors"
	"texteditmcp/internal/linestore"
	"texteditmcp/internal/peg"
)

// Engine wires the PEG, CA, and LS components into the seven public edit
// operations.
type Engine struct {
	guard            *peg.Guard
	locks            pathLocks
	maxFileSizeBytes int64 // 0 means unlimited
	maxLineCount     int   // 0 means unlimited
}

// New builds an Engine confined to guard's allow-listed roots (if any),
// rejecting files above maxFileSizeMB or maxLineCount lines the same way
// the teacher's service.DefaultFileOperationService does (either limit
// zero or negative means unlimited).
func New(guard *peg.Guard, maxFileSizeMB, maxLineCount int) *Engine {
	e := &Engine{guard: guard}
	if maxFileSizeMB > 0 {
		e.maxFileSizeBytes = int64(maxFileSizeMB) * 1024 * 1024
	}
	if maxLineCount > 0 {
		e.maxLineCount = maxLineCount
	}
	return e
}

// Range is an inclusive, 1-based line range. End == nil means "to end of
// file".
type Range struct {
	Start int
	End   *int
}

func (e *Engine) resolve(path string) (string, error) {
	resolved, err := e.guard.Validate(path)
	if err != nil {
		return "", apperrors.NewInvalidPath(err.Error())
	}
	return resolved, nil
}

// ResolveDir validates dir through the same PEG confinement guard.Validate
// applies to every file path, so directory-listing callers (e.g.
// list_text_files) cannot escape the server's allow-listed roots either.
func (e *Engine) ResolveDir(dir string) (string, error) {
	return e.resolve(dir)
}

func decodeFunc(encoding string) func([]byte) (string, error) {
	return func(data []byte) (string, error) {
		return peg.Decode(data, encoding)
	}
}

// loadImage loads and decodes the file at resolved path, translating
// filesystem and encoding errors into the apperrors taxonomy, and
// rejecting the file up front if it exceeds the engine's configured size
// or line-count ceiling — the same two checks the teacher's
// DefaultFileOperationService runs before every read and edit.
func (e *Engine) loadImage(resolved, encoding string) (*linestore.Image, error) {
	if e.maxFileSizeBytes > 0 {
		if fi, err := os.Stat(resolved); err == nil && fi.Size() > e.maxFileSizeBytes {
			return nil, apperrors.NewFileTooLarge(resolved, fi.Size(), e.maxFileSizeBytes)
		}
	}
	img, err := linestore.Load(resolved, decodeFunc(encoding))
	if err != nil {
		return nil, translateLoadErr(resolved, err)
	}
	if e.maxLineCount > 0 && img.TotalLines() > e.maxLineCount {
		return nil, apperrors.NewLineCountExceeded(resolved, img.TotalLines(), e.maxLineCount)
	}
	return img, nil
}

// checkWriteSize rejects a write whose resulting line count or encoded
// byte size would exceed the engine's configured ceilings, mirroring the
// teacher's post-edit newTotalLines/finalContentBytes checks.
func (e *Engine) checkWriteSize(path string, newLineCount int, encoded []byte) error {
	if e.maxLineCount > 0 && newLineCount > e.maxLineCount {
		return apperrors.NewLineCountExceeded(path, newLineCount, e.maxLineCount)
	}
	if e.maxFileSizeBytes > 0 && int64(len(encoded)) > e.maxFileSizeBytes {
		return apperrors.NewFileTooLarge(path, int64(len(encoded)), e.maxFileSizeBytes)
	}
	return nil
}

func translateLoadErr(path string, err error) error {
	var encErr *peg.EncodingError
	if errors.As(err, &encErr) {
		return apperrors.NewEncodingError(encErr)
	}
	if os.IsNotExist(err) {
		return apperrors.NewFileNotFound(path)
	}
	if os.IsPermission(err) {
		return apperrors.NewPermissionDenied(path)
	}
	return apperrors.NewIoError(err)
}

// clampRange resolves a requested range against total lines, returning
// the effective inclusive [start,end] bounds. An empty file always
// resolves to [0,0]. A start beyond total_lines on a non-empty file is
// InvalidRange.
func clampRange(start int, end *int, total int) (int, int, error) {
	if total == 0 {
		return 0, 0, nil
	}
	if start < 1 {
		start = 1
	}
	if start > total {
		return 0, 0, apperrors.NewInvalidRange(fmt.Sprintf("line_start %d exceeds total_lines %d", start, total))
	}
	e := total
	if end != nil && *end < total {
		e = *end
	}
	if e < start {
		e = start
	}
	return start, e, nil
}

// sliceContent returns the exact substring covered by the 1-based
// inclusive range [start,end] over lines, or "" for an empty selection.
func sliceContent(lines []linestore.Line, start, end int) string {
	if start == 0 && end == 0 {
		return ""
	}
	return linestore.Join(lines[start-1 : end])
}
