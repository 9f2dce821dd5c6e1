package editengine

import (
	"unicode/utf8"

	"texteditmcp/internal/apperrors"
	"texteditmcp/internal/hashaddr"
)

// ReadResult is the outcome of read_range: the exact selected content plus
// enough hashes for the caller to drive a subsequent hash-guarded write.
type ReadResult struct {
	Content     string
	LineStart   int
	LineEnd     int
	FileHash    string
	RangeHash   string
	TotalLines  int
	ContentSize int
}

// ReadRange implements 4.4.1: returns the exact substring of path's lines
// [start,end] (inclusive, 1-based), clamped to end-of-file when end is nil
// or beyond total_lines.
func (e *Engine) ReadRange(path string, start int, end *int, encoding string) (*ReadResult, error) {
	resolved, err := e.resolve(path)
	if err != nil {
		return nil, err
	}
	if end != nil && *end < start {
		return nil, apperrors.NewInvalidRange("line_end is less than line_start")
	}
	img, err := e.loadImage(resolved, encoding)
	if err != nil {
		return nil, err
	}
	total := img.TotalLines()
	s, en, err := clampRange(start, end, total)
	if err != nil {
		return nil, err
	}
	content := sliceContent(img.Lines, s, en)
	return &ReadResult{
		Content:     content,
		LineStart:   s,
		LineEnd:     en,
		FileHash:    hashaddr.Hash(img.Content),
		RangeHash:   hashaddr.Hash(content),
		TotalLines:  total,
		ContentSize: utf8.RuneCountInString(content),
	}, nil
}

// PathRanges is one entry of a read_multi request: a path and the ranges
// requested within it.
type PathRanges struct {
	Path   string
	Ranges []Range
}

// RangeRead is one range's result within a read_multi response — like
// ReadResult but without repeating the file's hash, which is reported
// once per path.
type RangeRead struct {
	Content     string
	LineStart   int
	LineEnd     int
	RangeHash   string
	TotalLines  int
	ContentSize int
}

// FileMultiRead is one path's result within a read_multi response: either
// a shared file hash plus each requested range, or a structured error.
type FileMultiRead struct {
	FileHash string
	Ranges   []RangeRead
	Err      *apperrors.Error
}

// ReadMulti implements 4.4.2: each path is loaded once and its ranges
// served from that single load; a path-level failure does not affect
// other paths in the same call.
func (e *Engine) ReadMulti(items []PathRanges, encoding string) map[string]*FileMultiRead {
	out := make(map[string]*FileMultiRead, len(items))
	for _, item := range items {
		out[item.Path] = e.readOnePath(item, encoding)
	}
	return out
}

func (e *Engine) readOnePath(item PathRanges, encoding string) *FileMultiRead {
	asAppErr := func(err error) *apperrors.Error {
		if ae, ok := err.(*apperrors.Error); ok {
			return ae
		}
		return apperrors.NewInternal(err)
	}

	resolved, err := e.resolve(item.Path)
	if err != nil {
		return &FileMultiRead{Err: asAppErr(err)}
	}
	img, err := e.loadImage(resolved, encoding)
	if err != nil {
		return &FileMultiRead{Err: asAppErr(err)}
	}
	total := img.TotalLines()
	fileHash := hashaddr.Hash(img.Content)

	ranges := make([]RangeRead, 0, len(item.Ranges))
	for _, r := range item.Ranges {
		if r.End != nil && *r.End < r.Start {
			return &FileMultiRead{Err: apperrors.NewInvalidRange("line_end is less than line_start")}
		}
		s, en, err := clampRange(r.Start, r.End, total)
		if err != nil {
			return &FileMultiRead{Err: asAppErr(err)}
		}
		content := sliceContent(img.Lines, s, en)
		ranges = append(ranges, RangeRead{
			Content:     content,
			LineStart:   s,
			LineEnd:     en,
			RangeHash:   hashaddr.Hash(content),
			TotalLines:  total,
			ContentSize: utf8.RuneCountInString(content),
		})
	}
	return &FileMultiRead{FileHash: fileHash, Ranges: ranges}
}
