package editengine

import (
	"texteditmcp/internal/apperrors"
	"texteditmcp/internal/hashaddr"
	"texteditmcp/internal/linestore"
)

// PeekResult is one path's outcome within Peek: the first NumLinesPeeked
// lines of the file plus enough hashes to drive a subsequent hash-guarded
// write, without the caller needing to know total_lines up front.
type PeekResult struct {
	Lines          []string
	NumLinesPeeked int
	TotalLines     int
	SizeBytes      int64
	PeekHash       string
	FileHash       string
	Err            *apperrors.Error
}

// Peek implements the peek_text_file_contents expansion: the first
// numLines lines of each path, read independently so one path's failure
// does not affect another's result, mirroring ReadMulti's per-path
// isolation.
func (e *Engine) Peek(paths []string, numLines int, encoding string) map[string]*PeekResult {
	out := make(map[string]*PeekResult, len(paths))
	for _, p := range paths {
		out[p] = e.peekOne(p, numLines, encoding)
	}
	return out
}

func (e *Engine) peekOne(path string, numLines int, encoding string) *PeekResult {
	asAppErr := func(err error) *apperrors.Error {
		if ae, ok := err.(*apperrors.Error); ok {
			return ae
		}
		return apperrors.NewInternal(err)
	}

	resolved, err := e.resolve(path)
	if err != nil {
		return &PeekResult{Err: asAppErr(err)}
	}
	img, err := e.loadImage(resolved, encoding)
	if err != nil {
		return &PeekResult{Err: asAppErr(err)}
	}

	total := img.TotalLines()
	n := numLines
	if n < 0 {
		n = 0
	}
	if n > total {
		n = total
	}

	var peekedContent string
	lines := make([]string, n)
	if n > 0 {
		peekedContent = sliceContent(img.Lines, 1, n)
		for i := 0; i < n; i++ {
			lines[i] = linestore.Join(img.Lines[i : i+1])
		}
	}

	return &PeekResult{
		Lines:          lines,
		NumLinesPeeked: n,
		TotalLines:     total,
		SizeBytes:      int64(len(img.Content)),
		PeekHash:       hashaddr.Hash(peekedContent),
		FileHash:       hashaddr.Hash(img.Content),
	}
}
