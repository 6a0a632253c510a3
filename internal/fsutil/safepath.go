// Package fsutil confines user-supplied relative paths to a fixed
// storage root.
package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var ErrPathEscapesRoot = errors.New("path escapes storage root")

// Resolved is the outcome of jailing one raw path string. Operations
// carry it forward instead of re-deriving from the raw input, so a
// path is validated exactly once per request.
type Resolved struct {
	Rel       string // cleaned path relative to root, slash-separated
	Abs       string // absolute path under root
	ParentAbs string // absolute path of the parent directory
}

// Resolve maps a user-provided path to a location under root. It
// rejects the root itself and anything that normalizes outside it,
// including traversal through existing symlinks. The escape check runs
// on the final cleaned path, so inputs like "a/../../etc" are caught
// after normalization rather than by substring search.
func Resolve(root, userPath string) (Resolved, error) {
	if root == "" {
		return Resolved{}, errors.New("root is required")
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return Resolved{}, err
	}
	rootAbs = filepath.Clean(rootAbs)

	// Force relative paths.
	p := strings.Trim(userPath, "/\\")
	joined := filepath.Clean(filepath.Join(rootAbs, filepath.FromSlash(p)))

	rel, err := filepath.Rel(rootAbs, joined)
	if err != nil {
		return Resolved{}, ErrPathEscapesRoot
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return Resolved{}, ErrPathEscapesRoot
	}

	if hasSymlinkComponent(rootAbs, joined) {
		return Resolved{}, ErrPathEscapesRoot
	}
	// If any existing segment is a symlink to outside root, block it.
	if existing := nearestExisting(joined); existing != "" {
		resolved, err := filepath.EvalSymlinks(existing)
		if err != nil {
			return Resolved{}, err
		}
		if !isWithin(rootAbs, filepath.Clean(resolved)) {
			return Resolved{}, ErrPathEscapesRoot
		}
	}

	return Resolved{
		Rel:       filepath.ToSlash(rel),
		Abs:       joined,
		ParentAbs: filepath.Dir(joined),
	}, nil
}

func hasSymlinkComponent(rootAbs, fullPath string) bool {
	rel, err := filepath.Rel(rootAbs, fullPath)
	if err != nil {
		return true
	}
	rel = filepath.Clean(rel)
	if rel == "." {
		return false
	}
	cur := rootAbs
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == "" || part == "." {
			continue
		}
		cur = filepath.Join(cur, part)
		st, err := os.Lstat(cur)
		if err != nil {
			// Component doesn't exist (yet): no symlink to traverse.
			return false
		}
		if st.Mode()&os.ModeSymlink != 0 {
			return true
		}
	}
	return false
}

func isWithin(root, candidate string) bool {
	if root == candidate {
		return true
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(candidate, root)
}

func nearestExisting(p string) string {
	cur := p
	for {
		_, err := os.Lstat(cur)
		if err == nil {
			return cur
		}
		if !os.IsNotExist(err) {
			return ""
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return ""
		}
		cur = parent
	}
}
