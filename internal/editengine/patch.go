package editengine

import (
	"fmt"
	"os"
	"sort"

	"texteditmcp/internal/apperrors"
	"texteditmcp/internal/hashaddr"
	"texteditmcp/internal/linestore"
	"texteditmcp/internal/peg"
)

// PatchSpec is one entry of a patch request: an inclusive 1-based range
// to replace (or delete, if Contents is empty), or a pure insertion when
// End == Start-1.
type PatchSpec struct {
	Start     int
	End       *int
	Contents  string
	RangeHash string // empty means "not supplied"
}

// WriteResult is the {result, file_hash} shape every write operation
// returns on success.
type WriteResult struct {
	Result   string
	FileHash string
}

// sortedPatch is a PatchSpec annotated with its original request index
// (for error reporting) and its resolved effective end, computed against
// the file's total_lines so nil (replace-to-end-of-file) sorts and
// overlaps correctly.
type sortedPatch struct {
	PatchSpec
	origIndex int
	effEnd    int // End, or total_lines when End is nil
	// requireRangeHash is false for append-at-end classification, for
	// patches on a brand-new file, and for engine-generated insert sugar,
	// per spec.md 4.4.3/4.4.4/4.4.6.
	requireRangeHash bool
}

// Patch implements 4.4.3: the central multi-range write operation.
func (e *Engine) Patch(path, expectedFileHash string, patches []PatchSpec, encoding string) (*WriteResult, error) {
	resolved, err := e.resolve(path)
	if err != nil {
		return nil, err
	}
	unlock := e.locks.lock(resolved)
	defer unlock()
	return e.applyPatches(resolved, expectedFileHash, patches, encoding)
}

// applyPatches runs the validate -> hash-check -> compute -> commit
// pipeline that Patch and Delete funnel through. Insert and Append check
// the file hash themselves and then reuse its loadOrBrandNew, apply, and
// commit steps with a single engine-built patch.
func (e *Engine) applyPatches(resolved, expectedFileHash string, patches []PatchSpec, encoding string) (*WriteResult, error) {
	if len(patches) == 0 {
		return nil, apperrors.NewInvalidRequest("patches must not be empty")
	}

	img, brandNew, err := e.loadOrBrandNew(resolved, expectedFileHash, encoding)
	if err != nil {
		return nil, err
	}
	total := img.TotalLines()

	var actualFileHash string
	if !brandNew {
		actualFileHash = hashaddr.Hash(img.Content)
		if expectedFileHash != "" && expectedFileHash != actualFileHash {
			return nil, apperrors.NewFileHashMismatch(actualFileHash)
		}
	} else {
		actualFileHash = hashaddr.EmptyHash
	}

	sorted, err := classifyAndSort(patches, total, brandNew)
	if err != nil {
		return nil, err
	}
	if err := detectOverlap(sorted); err != nil {
		return nil, err
	}
	if err := verifyRangeHashes(sorted, img.Lines, actualFileHash); err != nil {
		return nil, err
	}

	dominant := linestore.DominantTerminator(img.Lines)
	newLines := apply(img.Lines, sorted, total, dominant)
	linestore.NormalizeInteriorNone(newLines, dominant)
	newContent := linestore.Join(newLines)

	return e.commit(resolved, newContent, len(newLines), encoding)
}

// loadOrBrandNew loads path's current image, or — when path does not
// exist and expectedFileHash is empty — treats the operation as building
// a brand-new file from an empty starting image, per 4.4.3 step 1.
func (e *Engine) loadOrBrandNew(resolved, expectedFileHash, encoding string) (*linestore.Image, bool, error) {
	img, err := e.loadImage(resolved, encoding)
	if err == nil {
		return img, false, nil
	}
	appErr, ok := err.(*apperrors.Error)
	if !ok || appErr.Kind != apperrors.FileNotFound {
		return nil, false, err
	}
	if expectedFileHash != "" {
		return nil, false, apperrors.NewFileNotFound(resolved)
	}
	return &linestore.Image{}, true, nil
}

func classifyAndSort(patches []PatchSpec, total int, brandNew bool) ([]sortedPatch, error) {
	sorted := make([]sortedPatch, len(patches))
	for i, p := range patches {
		if p.Start < 1 || p.Start > total+1 {
			return nil, apperrors.NewInvalidRange(fmt.Sprintf("line_start %d out of range [1,%d]", p.Start, total+1))
		}
		if p.End != nil && *p.End < p.Start-1 {
			return nil, apperrors.NewInvalidRange("line_end is less than line_start-1")
		}
		if p.End != nil && *p.End > total {
			return nil, apperrors.NewInvalidRange(fmt.Sprintf("line_end %d exceeds total_lines %d", *p.End, total))
		}
		effEnd := total
		if p.End != nil {
			effEnd = *p.End
		}
		isAppend := p.Start == total+1 || total == 0
		requireHash := !isAppend && !brandNew
		sorted[i] = sortedPatch{PatchSpec: p, origIndex: i, effEnd: effEnd, requireRangeHash: requireHash}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].effEnd < sorted[j].effEnd
	})
	return sorted, nil
}

// detectOverlap checks each consecutive pair in start order: a patch
// overlaps the next one when its effective end reaches into (or past) the
// next one's start. Insert-points naturally have effEnd == Start-1, so
// this single rule also implements the spec's insert-point special case
// without extra branching: an insert point only "overlaps" a neighbor
// when it truly sits inside that neighbor's replaced range.
func detectOverlap(sorted []sortedPatch) error {
	for i := 1; i < len(sorted); i++ {
		prev, next := sorted[i-1], sorted[i]
		if prev.effEnd >= next.Start {
			return apperrors.NewOverlappingPatches(prev.origIndex, next.origIndex)
		}
	}
	return nil
}

func verifyRangeHashes(sorted []sortedPatch, lines []linestore.Line, currentFileHash string) error {
	for _, p := range sorted {
		if p.RangeHash == "" {
			if p.requireRangeHash {
				return apperrors.NewInvalidRequest(fmt.Sprintf("patch %d: range_hash is required", p.origIndex))
			}
			continue
		}
		start, end := p.Start, p.effEnd
		var current string
		if end >= start {
			current = sliceContent(lines, start, end)
		}
		if hashaddr.Hash(current) != p.RangeHash {
			return apperrors.NewRangeHashMismatch(currentFileHash, p.origIndex)
		}
	}
	return nil
}

// apply walks the original line vector and, at each sorted patch's
// anchor, splices in the patch's contents, preserving every untouched
// line verbatim including its terminator.
func apply(orig []linestore.Line, sorted []sortedPatch, total int, dominant linestore.Terminator) []linestore.Line {
	var out []linestore.Line
	cursor := 1
	for i, p := range sorted {
		if p.Start > cursor {
			out = append(out, orig[cursor-1:p.Start-1]...)
		}
		if p.Contents != "" {
			atEOF := p.effEnd >= total && i == len(sorted)-1
			out = append(out, splitPatchContents(p.Contents, dominant, atEOF)...)
		}
		if p.effEnd >= p.Start {
			cursor = p.effEnd + 1
		} else if p.Start > cursor {
			cursor = p.Start
		}
	}
	if cursor <= total {
		out = append(out, orig[cursor-1:total]...)
	}
	return out
}

// splitPatchContents turns replacement text into line records using the
// same terminator rules as loading a file. A trailing fragment with no
// terminator is left as-is only when the patch sits at the true end of
// the resulting file; otherwise it is terminated with dominant so it does
// not merge with whatever follows.
func splitPatchContents(contents string, dominant linestore.Terminator, atEOF bool) []linestore.Line {
	lines := linestore.Split(contents)
	if len(lines) == 0 {
		return nil
	}
	last := &lines[len(lines)-1]
	if last.Term == linestore.None && !atEOF {
		last.Term = dominant
	}
	return lines
}

// commit encodes newContent and writes it atomically, first rejecting the
// write if newLineCount or the encoded size exceeds the engine's
// configured ceilings, mirroring the teacher's post-edit size checks.
func (e *Engine) commit(resolved, newContent string, newLineCount int, encoding string) (*WriteResult, error) {
	encoded, err := peg.Encode(newContent, encoding)
	if err != nil {
		return nil, apperrors.NewEncodingError(err)
	}
	if err := e.checkWriteSize(resolved, newLineCount, encoded); err != nil {
		return nil, err
	}
	if err := linestore.Store(resolved, encoded); err != nil {
		if os.IsPermission(err) {
			return nil, apperrors.NewPermissionDenied(resolved)
		}
		return nil, apperrors.NewIoError(err)
	}
	return &WriteResult{Result: "ok", FileHash: hashaddr.Hash(newContent)}, nil
}
