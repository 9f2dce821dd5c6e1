package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"texteditmcp/internal/apperrors"
	"texteditmcp/internal/editengine"
	"texteditmcp/internal/linestore"
	"texteditmcp/internal/models"
	"texteditmcp/internal/peg"
)

func handleGetTextFileContents(eng *editengine.Engine, defaultEncoding string) mcp.StructuredToolHandlerFunc[models.GetTextFileContentsArgs, models.GetTextFileContentsResult] {
	return func(ctx context.Context, req mcp.CallToolRequest, args models.GetTextFileContentsArgs) (models.GetTextFileContentsResult, error) {
		result := models.GetTextFileContentsResult{Files: make(map[string]models.FileReadResult, len(args.Files))}
		for _, f := range args.Files {
			encoding := f.Encoding
			if encoding == "" {
				encoding = defaultEncoding
			}
			ranges := make([]editengine.Range, 0, len(f.Ranges))
			for _, r := range f.Ranges {
				ranges = append(ranges, editengine.Range{Start: r.LineStart, End: r.LineEnd})
			}
			multi := eng.ReadMulti([]editengine.PathRanges{{Path: f.FilePath, Ranges: ranges}}, encoding)
			fr := multi[f.FilePath]
			if fr.Err != nil {
				resp := fr.Err.Response()
				result.Files[f.FilePath] = models.FileReadResult{Result: resp.Result, Reason: resp.Reason}
				continue
			}
			rr := make([]models.RangeResult, 0, len(fr.Ranges))
			for _, r := range fr.Ranges {
				rr = append(rr, models.RangeResult{
					Content:     r.Content,
					LineStart:   r.LineStart,
					LineEnd:     r.LineEnd,
					RangeHash:   r.RangeHash,
					TotalLines:  r.TotalLines,
					ContentSize: r.ContentSize,
				})
			}
			result.Files[f.FilePath] = models.FileReadResult{FileHash: fr.FileHash, Ranges: rr}
		}
		return result, nil
	}
}

func handleCreateTextFile(eng *editengine.Engine, defaultEncoding string) mcp.StructuredToolHandlerFunc[models.CreateTextFileArgs, models.WriteResult] {
	return func(ctx context.Context, req mcp.CallToolRequest, args models.CreateTextFileArgs) (models.WriteResult, error) {
		encoding := orDefault(args.Encoding, defaultEncoding)
		res, err := eng.Create(args.FilePath, args.Contents, encoding)
		if err != nil {
			return models.WriteResult{}, err
		}
		return models.WriteResult{Result: res.Result, FileHash: res.FileHash}, nil
	}
}

func handleAppendTextFileContents(eng *editengine.Engine, defaultEncoding string) mcp.StructuredToolHandlerFunc[models.AppendTextFileContentsArgs, models.WriteResult] {
	return func(ctx context.Context, req mcp.CallToolRequest, args models.AppendTextFileContentsArgs) (models.WriteResult, error) {
		encoding := orDefault(args.Encoding, defaultEncoding)
		res, err := eng.Append(args.FilePath, args.FileHash, args.Contents, encoding)
		if err != nil {
			return models.WriteResult{}, err
		}
		return models.WriteResult{Result: res.Result, FileHash: res.FileHash}, nil
	}
}

func handleInsertTextFileContents(eng *editengine.Engine, defaultEncoding string) mcp.StructuredToolHandlerFunc[models.InsertTextFileContentsArgs, models.WriteResult] {
	return func(ctx context.Context, req mcp.CallToolRequest, args models.InsertTextFileContentsArgs) (models.WriteResult, error) {
		if (args.After == nil) == (args.Before == nil) {
			return models.WriteResult{}, apperrors.NewInvalidRequest("exactly one of after or before must be set")
		}
		encoding := orDefault(args.Encoding, defaultEncoding)
		res, err := eng.Insert(args.FilePath, args.FileHash, args.Contents, args.After, args.Before, encoding)
		if err != nil {
			return models.WriteResult{}, err
		}
		return models.WriteResult{Result: res.Result, FileHash: res.FileHash}, nil
	}
}

func handleDeleteTextFileContents(eng *editengine.Engine, defaultEncoding string) mcp.StructuredToolHandlerFunc[models.DeleteTextFileContentsArgs, models.WriteResult] {
	return func(ctx context.Context, req mcp.CallToolRequest, args models.DeleteTextFileContentsArgs) (models.WriteResult, error) {
		encoding := orDefault(args.Encoding, defaultEncoding)
		specs := make([]editengine.PatchSpec, 0, len(args.Ranges))
		for _, r := range args.Ranges {
			end := r.LineEnd
			specs = append(specs, editengine.PatchSpec{Start: r.LineStart, End: &end, RangeHash: r.RangeHash})
		}
		res, err := eng.Delete(args.FilePath, args.FileHash, specs, encoding)
		if err != nil {
			return models.WriteResult{}, err
		}
		return models.WriteResult{Result: res.Result, FileHash: res.FileHash}, nil
	}
}

func handlePatchTextFileContents(eng *editengine.Engine, defaultEncoding string) mcp.StructuredToolHandlerFunc[models.PatchTextFileContentsArgs, models.WriteResult] {
	return func(ctx context.Context, req mcp.CallToolRequest, args models.PatchTextFileContentsArgs) (models.WriteResult, error) {
		encoding := orDefault(args.Encoding, defaultEncoding)
		specs := make([]editengine.PatchSpec, 0, len(args.Patches))
		for _, p := range args.Patches {
			specs = append(specs, editengine.PatchSpec{Start: p.LineStart, End: p.LineEnd, Contents: p.Contents, RangeHash: p.RangeHash})
		}
		res, err := eng.Patch(args.FilePath, args.FileHash, specs, encoding)
		if err != nil {
			return models.WriteResult{}, err
		}
		return models.WriteResult{Result: res.Result, FileHash: res.FileHash}, nil
	}
}

// handlePeekTextFileContents implements the peek_text_file_contents
// expansion tool: the first num_lines lines of each requested file,
// grounded on original_source's PeekTextFileContentsHandler.
func handlePeekTextFileContents(eng *editengine.Engine, defaultEncoding string) mcp.StructuredToolHandlerFunc[models.PeekTextFileContentsArgs, models.PeekTextFileContentsResult] {
	return func(ctx context.Context, req mcp.CallToolRequest, args models.PeekTextFileContentsArgs) (models.PeekTextFileContentsResult, error) {
		numLines := args.NumLines
		if numLines <= 0 {
			numLines = 10
		}
		encoding := orDefault(args.Encoding, defaultEncoding)
		peeked := eng.Peek(args.FilePaths, numLines, encoding)

		result := models.PeekTextFileContentsResult{Files: make(map[string]models.PeekFileResult, len(peeked))}
		for path, pr := range peeked {
			if pr.Err != nil {
				resp := pr.Err.Response()
				result.Files[path] = models.PeekFileResult{Result: resp.Result, Reason: resp.Reason}
				continue
			}
			result.Files[path] = models.PeekFileResult{
				Result:         "ok",
				Filename:       filepath.Base(path),
				Lines:          pr.Lines,
				NumLinesPeeked: pr.NumLinesPeeked,
				TotalLines:     pr.TotalLines,
				SizeBytes:      pr.SizeBytes,
				PeekHash:       pr.PeekHash,
				FileHash:       pr.FileHash,
			}
		}
		return result, nil
	}
}

// handleAppendTextFileFromPath implements the append_text_file_from_path
// expansion tool: moves a source file's content onto the end of a target
// file server-side, so the source content never round-trips through the
// caller, grounded on original_source's AppendTextFileFromPathHandler.
func handleAppendTextFileFromPath(eng *editengine.Engine, defaultEncoding string) mcp.StructuredToolHandlerFunc[models.AppendTextFileFromPathArgs, models.WriteResult] {
	return func(ctx context.Context, req mcp.CallToolRequest, args models.AppendTextFileFromPathArgs) (models.WriteResult, error) {
		encoding := orDefault(args.Encoding, defaultEncoding)
		res, err := eng.AppendFromPath(args.SourceFilePath, args.TargetFilePath, args.TargetFileHash, encoding)
		if err != nil {
			return models.WriteResult{}, err
		}
		return models.WriteResult{Result: res.Result, FileHash: res.FileHash}, nil
	}
}

// handleListTextFiles implements the list_text_files expansion tool:
// a single-directory, non-recursive listing of non-hidden regular files,
// grounded on the teacher's ListFiles. dir_path is run through the same
// PEG confinement every other tool applies to its paths, so a caller
// cannot list outside the server's allow-listed roots.
func handleListTextFiles(eng *editengine.Engine, guardRoots []string) mcp.StructuredToolHandlerFunc[models.ListTextFilesArgs, models.ListTextFilesResult] {
	return func(ctx context.Context, req mcp.CallToolRequest, args models.ListTextFilesArgs) (models.ListTextFilesResult, error) {
		dir := args.DirPath
		if dir == "" {
			if len(guardRoots) > 0 {
				dir = guardRoots[0]
			} else {
				wd, err := os.Getwd()
				if err != nil {
					return models.ListTextFilesResult{}, apperrors.NewIoError(err)
				}
				dir = wd
			}
		}
		resolvedDir, err := eng.ResolveDir(dir)
		if err != nil {
			return models.ListTextFilesResult{}, err
		}
		dir = resolvedDir
		entries, err := os.ReadDir(dir)
		if err != nil {
			return models.ListTextFilesResult{}, apperrors.NewIoError(err)
		}
		files := make([]models.TextFileInfo, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if !info.Mode().IsRegular() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			lineCount := 0
			if data, err := os.ReadFile(path); err == nil {
				if content, err := peg.Decode(data, peg.DefaultEncoding); err == nil {
					lineCount = len(linestore.Split(content))
				}
			}
			files = append(files, models.TextFileInfo{
				Name:         entry.Name(),
				Path:         path,
				SizeBytes:    info.Size(),
				ModifiedUnix: info.ModTime().Unix(),
				LineCount:    lineCount,
			})
		}
		return models.ListTextFilesResult{Files: files}, nil
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
