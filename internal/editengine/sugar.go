package editengine

import (
	"fmt"
	"os"

	"texteditmcp/internal/apperrors"
	"texteditmcp/internal/hashaddr"
	"texteditmcp/internal/linestore"
	"texteditmcp/internal/peg"
)

// Insert implements 4.4.4 as sugar over the shared apply path: exactly
// one of after/before must be set, and no range_hash is ever required.
func (e *Engine) Insert(path, fileHash, contents string, after, before *int, encoding string) (*WriteResult, error) {
	if (after == nil) == (before == nil) {
		return nil, apperrors.NewInvalidRequest("exactly one of after or before must be set")
	}
	resolved, err := e.resolve(path)
	if err != nil {
		return nil, err
	}
	unlock := e.locks.lock(resolved)
	defer unlock()

	img, brandNew, err := e.loadOrBrandNew(resolved, fileHash, encoding)
	if err != nil {
		return nil, err
	}
	total := img.TotalLines()
	if !brandNew {
		actual := hashaddr.Hash(img.Content)
		if fileHash != "" && fileHash != actual {
			return nil, apperrors.NewFileHashMismatch(actual)
		}
	}

	var k int
	if before != nil {
		k = *before
		if k < 1 || k > total+1 {
			return nil, apperrors.NewInvalidRange(fmt.Sprintf("before %d out of range [1,%d]", k, total+1))
		}
	} else {
		if *after < 0 || *after > total {
			return nil, apperrors.NewInvalidRange(fmt.Sprintf("after %d out of range [0,%d]", *after, total))
		}
		k = *after + 1
	}

	end := k - 1
	spec := PatchSpec{Start: k, End: &end, Contents: contents}
	sorted := []sortedPatch{{PatchSpec: spec, origIndex: 0, effEnd: end, requireRangeHash: false}}

	dominant := linestore.DominantTerminator(img.Lines)
	newLines := apply(img.Lines, sorted, total, dominant)
	linestore.NormalizeInteriorNone(newLines, dominant)
	return e.commit(resolved, linestore.Join(newLines), len(newLines), encoding)
}

// Delete implements 4.4.5: a list of inclusive ranges, each carrying a
// range_hash, applied through the same overlap/hash-check/commit pipeline
// as Patch.
func (e *Engine) Delete(path, fileHash string, ranges []PatchSpec, encoding string) (*WriteResult, error) {
	for i := range ranges {
		ranges[i].Contents = ""
	}
	resolved, err := e.resolve(path)
	if err != nil {
		return nil, err
	}
	unlock := e.locks.lock(resolved)
	defer unlock()
	return e.applyPatches(resolved, fileHash, ranges, encoding)
}

// Append implements 4.4.6: a single patch anchored one line past
// total_lines, which apply() naturally treats as a pure insertion at
// end-of-file. A trailing NONE record on the current last line is
// promoted to dominant by NormalizeInteriorNone once the new content is
// spliced in after it.
func (e *Engine) Append(path, fileHash, contents, encoding string) (*WriteResult, error) {
	resolved, err := e.resolve(path)
	if err != nil {
		return nil, err
	}
	unlock := e.locks.lock(resolved)
	defer unlock()

	img, brandNew, err := e.loadOrBrandNew(resolved, fileHash, encoding)
	if err != nil {
		return nil, err
	}
	total := img.TotalLines()
	if !brandNew {
		actual := hashaddr.Hash(img.Content)
		if fileHash != "" && fileHash != actual {
			return nil, apperrors.NewFileHashMismatch(actual)
		}
	}

	start := total + 1
	end := start - 1
	spec := PatchSpec{Start: start, End: &end, Contents: contents}
	sorted := []sortedPatch{{PatchSpec: spec, origIndex: 0, effEnd: end, requireRangeHash: false}}

	dominant := linestore.DominantTerminator(img.Lines)
	newLines := apply(img.Lines, sorted, total, dominant)
	linestore.NormalizeInteriorNone(newLines, dominant)
	return e.commit(resolved, linestore.Join(newLines), len(newLines), encoding)
}

// AppendFromPath implements the append_text_file_from_path expansion:
// sourcePath's full current content is appended onto targetPath, guarded
// by targetPath's file_hash, exactly like Append — except the content
// never passes back out through the caller, since it is read once here
// and handed straight to Append.
func (e *Engine) AppendFromPath(sourcePath, targetPath, targetFileHash, encoding string) (*WriteResult, error) {
	resolvedSource, err := e.resolve(sourcePath)
	if err != nil {
		return nil, err
	}
	srcImg, err := e.loadImage(resolvedSource, encoding)
	if err != nil {
		return nil, err
	}
	return e.Append(targetPath, targetFileHash, srcImg.Content, encoding)
}

// Create implements 4.4.7: refuses to overwrite an existing file, makes
// missing parent directories, and writes contents atomically.
func (e *Engine) Create(path, contents, encoding string) (*WriteResult, error) {
	resolved, err := e.resolve(path)
	if err != nil {
		return nil, err
	}
	unlock := e.locks.lock(resolved)
	defer unlock()

	if _, err := os.Stat(resolved); err == nil {
		return nil, apperrors.NewAlreadyExists(resolved)
	}

	if err := linestore.EnsureDir(resolved); err != nil {
		return nil, apperrors.NewDirectoryError(err.Error())
	}
	encoded, err := peg.Encode(contents, encoding)
	if err != nil {
		return nil, apperrors.NewEncodingError(err)
	}
	if err := e.checkWriteSize(resolved, len(linestore.Split(contents)), encoded); err != nil {
		return nil, err
	}
	if err := linestore.Store(resolved, encoded); err != nil {
		return nil, apperrors.NewIoError(err)
	}
	return &WriteResult{Result: "ok", FileHash: hashaddr.Hash(contents)}, nil
}
