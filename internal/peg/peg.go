// Package peg implements the Path & Encoding Guard: validation that a
// caller-supplied path is safe to operate on, and the decode/encode pair
// that turns raw file bytes into the string domain the rest of the edit
// engine works in.
package peg

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidPath is wrapped by every path-validation failure. Callers that
// need the apperrors.Kind should treat any error from Guard.Validate as
// InvalidPath.
var ErrInvalidPath = errors.New("invalid path")

// Guard confines resolved paths to an optional set of allow-listed roots.
// A Guard with no roots configured permits any absolute, traversal-free
// path, matching spec.md's "callers are responsible for resolution".
type Guard struct {
	roots []string
}

// NewGuard builds a Guard from zero or more root directories. Each root is
// cleaned and made absolute-relative to itself (callers pass absolute
// paths from config); a non-absolute root is rejected outright since it
// could never contain an absolute target path.
func NewGuard(roots []string) (*Guard, error) {
	cleaned := make([]string, 0, len(roots))
	for _, r := range roots {
		if !filepath.IsAbs(r) {
			return nil, fmt.Errorf("allow-root must be absolute: %s", r)
		}
		cleaned = append(cleaned, filepath.Clean(r))
	}
	return &Guard{roots: cleaned}, nil
}

// Validate checks path for the invariants spec.md's PEG requires: absolute,
// no ".." segment surviving normalization, and (when the guard has
// allow-listed roots configured) confined under one of them once symlinks
// are resolved. A path that does not exist yet is checked through its
// resolved parent directory; when that parent does not exist either, the
// path is checked as written. It returns the cleaned, absolute path to
// operate on.
func (g *Guard) Validate(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: path is empty", ErrInvalidPath)
	}
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: path is not absolute: %s", ErrInvalidPath, path)
	}
	cleaned := filepath.Clean(path)
	for _, seg := range strings.Split(cleaned, string(filepath.Separator)) {
		if seg == ".." {
			return "", fmt.Errorf("%w: path escapes its base via ..: %s", ErrInvalidPath, path)
		}
	}
	if len(g.roots) == 0 {
		return cleaned, nil
	}
	target := cleaned
	if resolved, err := filepath.EvalSymlinks(cleaned); err == nil {
		target = resolved
	} else if dir, err := filepath.EvalSymlinks(filepath.Dir(cleaned)); err == nil {
		target = filepath.Join(dir, filepath.Base(cleaned))
	}
	// A root may itself sit behind a symlink, so the resolved target is
	// compared against each root both as configured and as resolved.
	inside := g.underAnyRoot(target)
	for _, root := range g.roots {
		if inside {
			break
		}
		if r, err := filepath.EvalSymlinks(root); err == nil {
			inside = (&Guard{roots: []string{r}}).underAnyRoot(target)
		}
	}
	if !inside {
		return "", fmt.Errorf("%w: path escapes allowed roots: %s", ErrInvalidPath, path)
	}
	return cleaned, nil
}

func (g *Guard) underAnyRoot(path string) bool {
	for _, root := range g.roots {
		if path == root {
			return true
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return true
	}
	return false
}
