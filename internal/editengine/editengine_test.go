package editengine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"texteditmcp/internal/apperrors"
	"texteditmcp/internal/hashaddr"
	"texteditmcp/internal/peg"
)

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	return newTestEngineWithLimits(t, 10, 200000)
}

func newTestEngineWithLimits(t *testing.T, maxFileSizeMB, maxLineCount int) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	guard, err := peg.NewGuard(nil)
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}
	return New(guard, maxFileSizeMB, maxLineCount), dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writeFile: %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("readFile: %v", err)
	}
	return string(data)
}

func appErr(t *testing.T, err error) *apperrors.Error {
	t.Helper()
	ae, ok := err.(*apperrors.Error)
	if !ok {
		t.Fatalf("expected *apperrors.Error, got %T: %v", err, err)
	}
	return ae
}

func ptr(i int) *int { return &i }

// scenario 1: read_range returns the exact requested slice and correct hashes.
func TestReadRange_ExactSlice(t *testing.T) {
	eng, dir := newTestEngine(t)
	path := writeFile(t, dir, "a.txt", "one\ntwo\nthree\n")

	res, err := eng.ReadRange(path, 2, ptr(2), "utf-8")
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if res.Content != "two\n" {
		t.Fatalf("got %q, want %q", res.Content, "two\n")
	}
	if res.TotalLines != 3 {
		t.Fatalf("expected total_lines 3, got %d", res.TotalLines)
	}
	wantFileHash := hashaddr.Hash("one\ntwo\nthree\n")
	if res.FileHash != wantFileHash {
		t.Fatalf("file_hash mismatch")
	}
	if res.RangeHash != hashaddr.Hash("two\n") {
		t.Fatalf("range_hash mismatch")
	}
}

func TestReadRange_NilEndReadsToEOF(t *testing.T) {
	eng, dir := newTestEngine(t)
	path := writeFile(t, dir, "a.txt", "one\ntwo\nthree\n")

	res, err := eng.ReadRange(path, 2, nil, "utf-8")
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if res.Content != "two\nthree\n" {
		t.Fatalf("got %q", res.Content)
	}
	if res.LineEnd != 3 {
		t.Fatalf("expected line_end 3, got %d", res.LineEnd)
	}
}

func TestReadRange_StartBeyondTotalLinesIsInvalidRange(t *testing.T) {
	eng, dir := newTestEngine(t)
	path := writeFile(t, dir, "a.txt", "one\n")

	_, err := eng.ReadRange(path, 5, nil, "utf-8")
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr(t, err).Kind != apperrors.InvalidRange {
		t.Fatalf("expected InvalidRange, got %v", appErr(t, err).Kind)
	}
}

// ReadMulti: a failure on one path does not affect another.
func TestReadMulti_IndependentPathFailures(t *testing.T) {
	eng, dir := newTestEngine(t)
	good := writeFile(t, dir, "good.txt", "hello\n")
	missing := filepath.Join(dir, "missing.txt")

	results := eng.ReadMulti([]PathRanges{
		{Path: good, Ranges: []Range{{Start: 1, End: ptr(1)}}},
		{Path: missing, Ranges: []Range{{Start: 1, End: ptr(1)}}},
	}, "utf-8")

	if results[good].Err != nil {
		t.Fatalf("expected good path to succeed, got %v", results[good].Err)
	}
	if len(results[good].Ranges) != 1 || results[good].Ranges[0].Content != "hello\n" {
		t.Fatalf("unexpected good result: %+v", results[good])
	}
	if results[missing].Err == nil {
		t.Fatal("expected missing path to fail")
	}
	if results[missing].Err.Kind != apperrors.FileNotFound {
		t.Fatalf("expected FileNotFound, got %v", results[missing].Err.Kind)
	}
}

// scenario 2: replacing a middle range succeeds and updates surrounding lines correctly.
func TestPatch_ReplaceMiddleRange(t *testing.T) {
	eng, dir := newTestEngine(t)
	path := writeFile(t, dir, "a.txt", "one\ntwo\nthree\n")
	fileHash := hashaddr.Hash("one\ntwo\nthree\n")
	rangeHash := hashaddr.Hash("two\n")

	res, err := eng.Patch(path, fileHash, []PatchSpec{
		{Start: 2, End: ptr(2), Contents: "TWO\n", RangeHash: rangeHash},
	}, "utf-8")
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	got := readFile(t, path)
	if got != "one\nTWO\nthree\n" {
		t.Fatalf("got %q", got)
	}
	if res.FileHash != hashaddr.Hash(got) {
		t.Fatalf("file_hash mismatch")
	}
}

// scenario 3: a stale expected_file_hash is rejected.
func TestPatch_FileHashMismatchRejected(t *testing.T) {
	eng, dir := newTestEngine(t)
	path := writeFile(t, dir, "a.txt", "one\ntwo\n")

	_, err := eng.Patch(path, "stale-hash", []PatchSpec{
		{Start: 1, End: ptr(1), Contents: "ONE\n", RangeHash: hashaddr.Hash("one\n")},
	}, "utf-8")
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr(t, err).Kind != apperrors.FileHashMismatch {
		t.Fatalf("expected FileHashMismatch, got %v", appErr(t, err).Kind)
	}
}

// scenario 4: overlapping patches in one request are rejected.
func TestPatch_OverlappingPatchesRejected(t *testing.T) {
	eng, dir := newTestEngine(t)
	content := "one\ntwo\nthree\nfour\n"
	path := writeFile(t, dir, "a.txt", content)
	fileHash := hashaddr.Hash(content)

	_, err := eng.Patch(path, fileHash, []PatchSpec{
		{Start: 1, End: ptr(2), Contents: "x\n", RangeHash: hashaddr.Hash("one\ntwo\n")},
		{Start: 2, End: ptr(3), Contents: "y\n", RangeHash: hashaddr.Hash("two\nthree\n")},
	}, "utf-8")
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr(t, err).Kind != apperrors.OverlappingPatches {
		t.Fatalf("expected OverlappingPatches, got %v", appErr(t, err).Kind)
	}
}

func TestPatch_RangeHashRequiredButMissingRejected(t *testing.T) {
	eng, dir := newTestEngine(t)
	content := "one\ntwo\n"
	path := writeFile(t, dir, "a.txt", content)
	fileHash := hashaddr.Hash(content)

	_, err := eng.Patch(path, fileHash, []PatchSpec{
		{Start: 1, End: ptr(1), Contents: "ONE\n"},
	}, "utf-8")
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr(t, err).Kind != apperrors.InvalidRequest {
		t.Fatalf("expected InvalidRequest, got %v", appErr(t, err).Kind)
	}
}

// scenario 5: appending to a file with no trailing newline joins the two
// halves onto separate lines instead of concatenating them.
func TestAppend_ToFileWithNoTrailingNewline(t *testing.T) {
	eng, dir := newTestEngine(t)
	path := writeFile(t, dir, "a.txt", "no newline at end")
	fileHash := hashaddr.Hash("no newline at end")

	_, err := eng.Append(path, fileHash, "second line\n", "utf-8")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	got := readFile(t, path)
	if got != "no newline at end\nsecond line\n" {
		t.Fatalf("got %q", got)
	}
}

func TestAppend_PreservesFinalNoneWhenAppendedContentAlsoHasNone(t *testing.T) {
	eng, dir := newTestEngine(t)
	path := writeFile(t, dir, "a.txt", "first\n")
	fileHash := hashaddr.Hash("first\n")

	_, err := eng.Append(path, fileHash, "second", "utf-8")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	got := readFile(t, path)
	if got != "first\nsecond" {
		t.Fatalf("got %q", got)
	}
}

// scenario 6: create refuses to overwrite an existing file.
func TestCreate_RefusesOverwrite(t *testing.T) {
	eng, dir := newTestEngine(t)
	path := writeFile(t, dir, "a.txt", "existing\n")

	_, err := eng.Create(path, "new content\n", "utf-8")
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr(t, err).Kind != apperrors.AlreadyExists {
		t.Fatalf("expected AlreadyExists, got %v", appErr(t, err).Kind)
	}
}

func TestCreate_MakesParentDirs(t *testing.T) {
	eng, dir := newTestEngine(t)
	path := filepath.Join(dir, "nested", "sub", "a.txt")

	res, err := eng.Create(path, "hello\n", "utf-8")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := readFile(t, path); got != "hello\n" {
		t.Fatalf("got %q", got)
	}
	if res.FileHash != hashaddr.Hash("hello\n") {
		t.Fatalf("file_hash mismatch")
	}
}

// universal invariant: deleting every line yields an empty file.
func TestDelete_AllLinesYieldsEmptyFile(t *testing.T) {
	eng, dir := newTestEngine(t)
	content := "one\ntwo\n"
	path := writeFile(t, dir, "a.txt", content)
	fileHash := hashaddr.Hash(content)

	_, err := eng.Delete(path, fileHash, []PatchSpec{
		{Start: 1, End: ptr(2), RangeHash: hashaddr.Hash(content)},
	}, "utf-8")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := readFile(t, path); got != "" {
		t.Fatalf("expected empty file, got %q", got)
	}
}

// universal invariant: insert after=total_lines is equivalent to
// before=total_lines+1.
func TestInsert_AfterTotalLinesEquivalentToBeforeTotalLinesPlusOne(t *testing.T) {
	content := "one\ntwo\n"

	eng1, dir1 := newTestEngine(t)
	path1 := writeFile(t, dir1, "a.txt", content)
	if _, err := eng1.Insert(path1, hashaddr.Hash(content), "three\n", ptr(2), nil, "utf-8"); err != nil {
		t.Fatalf("Insert (after): %v", err)
	}

	eng2, dir2 := newTestEngine(t)
	path2 := writeFile(t, dir2, "a.txt", content)
	if _, err := eng2.Insert(path2, hashaddr.Hash(content), "three\n", nil, ptr(3), "utf-8"); err != nil {
		t.Fatalf("Insert (before): %v", err)
	}

	got1 := readFile(t, path1)
	got2 := readFile(t, path2)
	if got1 != got2 {
		t.Fatalf("after and before produced different results: %q vs %q", got1, got2)
	}
	if got1 != "one\ntwo\nthree\n" {
		t.Fatalf("got %q", got1)
	}
}

func TestInsert_RequiresExactlyOneOfAfterOrBefore(t *testing.T) {
	eng, dir := newTestEngine(t)
	path := writeFile(t, dir, "a.txt", "one\n")

	if _, err := eng.Insert(path, hashaddr.Hash("one\n"), "x\n", nil, nil, "utf-8"); err == nil {
		t.Fatal("expected error when neither after nor before is set")
	}
	if _, err := eng.Insert(path, hashaddr.Hash("one\n"), "x\n", ptr(0), ptr(1), "utf-8"); err == nil {
		t.Fatal("expected error when both after and before are set")
	}
}

func TestInsert_IntoMiddleOfFile(t *testing.T) {
	eng, dir := newTestEngine(t)
	content := "one\ntwo\nthree\n"
	path := writeFile(t, dir, "a.txt", content)

	_, err := eng.Insert(path, hashaddr.Hash(content), "INSERTED\n", ptr(1), nil, "utf-8")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got := readFile(t, path); got != "one\nINSERTED\ntwo\nthree\n" {
		t.Fatalf("got %q", got)
	}
}

func TestReadRange_FileTooLargeRejected(t *testing.T) {
	eng, dir := newTestEngineWithLimits(t, 1, 200000)
	big := strings.Repeat("x", 2*1024*1024) + "\n"
	path := writeFile(t, dir, "big.txt", big)

	_, err := eng.ReadRange(path, 1, nil, "utf-8")
	if err == nil {
		t.Fatal("expected error for oversized file")
	}
	if appErr(t, err).Kind != apperrors.FileTooLarge {
		t.Fatalf("expected FileTooLarge, got %v", appErr(t, err).Kind)
	}
}

func TestReadRange_LineCountExceededRejected(t *testing.T) {
	eng, dir := newTestEngineWithLimits(t, 10, 3)
	path := writeFile(t, dir, "many.txt", "one\ntwo\nthree\nfour\n")

	_, err := eng.ReadRange(path, 1, nil, "utf-8")
	if err == nil {
		t.Fatal("expected error for a file exceeding the configured line-count ceiling")
	}
	if appErr(t, err).Kind != apperrors.InvalidRequest {
		t.Fatalf("expected InvalidRequest, got %v", appErr(t, err).Kind)
	}
}

func TestAppend_ResultExceedingLineCountRejected(t *testing.T) {
	eng, dir := newTestEngineWithLimits(t, 10, 2)
	content := "one\ntwo\n"
	path := writeFile(t, dir, "a.txt", content)

	_, err := eng.Append(path, hashaddr.Hash(content), "three\n", "utf-8")
	if err == nil {
		t.Fatal("expected error: appending would push the file past the line-count ceiling")
	}
	if appErr(t, err).Kind != apperrors.InvalidRequest {
		t.Fatalf("expected InvalidRequest, got %v", appErr(t, err).Kind)
	}
	if got := readFile(t, path); got != content {
		t.Fatalf("expected file left untouched on rejection, got %q", got)
	}
}

func TestCreate_ContentExceedingFileSizeRejected(t *testing.T) {
	eng, dir := newTestEngineWithLimits(t, 1, 200000)
	path := filepath.Join(dir, "big.txt")
	big := strings.Repeat("x", 2*1024*1024)

	_, err := eng.Create(path, big, "utf-8")
	if err == nil {
		t.Fatal("expected error for a create exceeding the configured file-size ceiling")
	}
	if appErr(t, err).Kind != apperrors.FileTooLarge {
		t.Fatalf("expected FileTooLarge, got %v", appErr(t, err).Kind)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		t.Fatal("expected no file to be written on rejection")
	}
}

func TestPatch_BrandNewFileViaEmptyExpectedHash(t *testing.T) {
	eng, dir := newTestEngine(t)
	path := filepath.Join(dir, "brand-new.txt")

	res, err := eng.Patch(path, "", []PatchSpec{
		{Start: 1, End: ptr(0), Contents: "hello\n"},
	}, "utf-8")
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if got := readFile(t, path); got != "hello\n" {
		t.Fatalf("got %q", got)
	}
	if res.FileHash != hashaddr.Hash("hello\n") {
		t.Fatalf("file_hash mismatch")
	}
}

func TestPeek_MultiplePathsWithOneMissing(t *testing.T) {
	eng, dir := newTestEngine(t)
	a := writeFile(t, dir, "a.txt", "one\ntwo\nthree\n")
	missing := filepath.Join(dir, "missing.txt")

	results := eng.Peek([]string{a, missing}, 2, "utf-8")

	ra := results[a]
	if ra.Err != nil {
		t.Fatalf("Peek a.txt: %v", ra.Err)
	}
	if ra.NumLinesPeeked != 2 || ra.TotalLines != 3 {
		t.Fatalf("got peeked=%d total=%d, want peeked=2 total=3", ra.NumLinesPeeked, ra.TotalLines)
	}
	if len(ra.Lines) != 2 || ra.Lines[0] != "one\n" || ra.Lines[1] != "two\n" {
		t.Fatalf("unexpected lines: %#v", ra.Lines)
	}
	if ra.FileHash != hashaddr.Hash("one\ntwo\nthree\n") {
		t.Fatalf("file_hash mismatch")
	}
	if ra.PeekHash != hashaddr.Hash("one\ntwo\n") {
		t.Fatalf("peek_hash mismatch")
	}

	rm := results[missing]
	if rm.Err == nil {
		t.Fatal("expected an error for the missing path")
	}
	if rm.Err.Kind != apperrors.FileNotFound {
		t.Fatalf("expected FileNotFound, got %v", rm.Err.Kind)
	}
}

func TestPeek_NumLinesBeyondTotalClampsToTotal(t *testing.T) {
	eng, dir := newTestEngine(t)
	path := writeFile(t, dir, "a.txt", "one\ntwo\n")

	results := eng.Peek([]string{path}, 100, "utf-8")
	r := results[path]
	if r.Err != nil {
		t.Fatalf("Peek: %v", r.Err)
	}
	if r.NumLinesPeeked != 2 {
		t.Fatalf("expected clamp to total_lines=2, got %d", r.NumLinesPeeked)
	}
}

func TestAppendFromPath_MovesSourceContentOntoTarget(t *testing.T) {
	eng, dir := newTestEngine(t)
	srcContent := "source line one\nsource line two\n"
	src := writeFile(t, dir, "src.txt", srcContent)
	targetContent := "target line\n"
	target := writeFile(t, dir, "target.txt", targetContent)

	res, err := eng.AppendFromPath(src, target, hashaddr.Hash(targetContent), "utf-8")
	if err != nil {
		t.Fatalf("AppendFromPath: %v", err)
	}
	want := targetContent + srcContent
	if got := readFile(t, target); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if res.FileHash != hashaddr.Hash(want) {
		t.Fatalf("file_hash mismatch")
	}
}

func TestAppendFromPath_StaleTargetHashRejected(t *testing.T) {
	eng, dir := newTestEngine(t)
	src := writeFile(t, dir, "src.txt", "appended\n")
	target := writeFile(t, dir, "target.txt", "original\n")

	_, err := eng.AppendFromPath(src, target, hashaddr.Hash("stale content"), "utf-8")
	if err == nil {
		t.Fatal("expected error for a stale target_file_hash")
	}
	if appErr(t, err).Kind != apperrors.FileHashMismatch {
		t.Fatalf("expected FileHashMismatch, got %v", appErr(t, err).Kind)
	}
	if got := readFile(t, target); got != "original\n" {
		t.Fatalf("expected target left untouched, got %q", got)
	}
}
