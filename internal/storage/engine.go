// Package storage implements the jailed file operations behind the
// management API: list, create-directory, upload, move, remove, copy.
// Every user-supplied path is resolved through fsutil exactly once and
// all filesystem access goes through the engine's afero.Fs.
package storage

import (
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/Nhor/static-files-manager/internal/errcode"
	"github.com/Nhor/static-files-manager/internal/fsutil"
)

const (
	TypeDirectory = "directory"
	TypeFile      = "file"
)

// Entry is one child of a listed directory.
type Entry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Engine performs file operations confined to a storage root.
type Engine struct {
	root string
	fs   afero.Fs
}

// New returns an engine rooted at root, backed by the OS filesystem.
func New(root string) *Engine {
	return &Engine{root: root, fs: afero.NewOsFs()}
}

// Root returns the storage root the engine is confined to.
func (e *Engine) Root() string { return e.root }

// ListDirectory enumerates the immediate children of the directory at
// rel. The empty path lists the storage root. Directories come first,
// files after; within a group the order is the filesystem's
// enumeration order. A missing or non-directory path surfaces the raw
// filesystem error, not a domain code.
func (e *Engine) ListDirectory(rel string) ([]Entry, error) {
	abs := e.root
	if strings.Trim(rel, "/") != "" {
		r, err := fsutil.Resolve(e.root, rel)
		if err != nil {
			return nil, err
		}
		abs = r.Abs
	}

	infos, err := afero.ReadDir(e.fs, abs)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		t := TypeFile
		if info.IsDir() {
			t = TypeDirectory
		}
		entries = append(entries, Entry{Name: info.Name(), Type: t})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Type == TypeDirectory && entries[j].Type == TypeFile
	})
	return entries, nil
}

// CreateDirectory creates the directory at rel together with any
// missing ancestors. An existing entry at rel, file or directory,
// fails with DIRECTORY_EXISTS.
func (e *Engine) CreateDirectory(rel string) error {
	r, err := fsutil.Resolve(e.root, rel)
	if err != nil {
		return err
	}
	_, exists, err := e.stat(r.Abs)
	if err != nil {
		return err
	}
	if exists {
		return errcode.New(errcode.DirectoryExists, "directory exists")
	}
	return e.fs.MkdirAll(r.Abs, 0o700)
}

// JoinUploadPath composes the destination path for an uploaded file
// from its directory, name, and optional extension.
func JoinUploadPath(pathname, filename, ext string) string {
	dst := path.Join(strings.Trim(pathname, "/"), filename)
	if ext != "" {
		dst += "." + ext
	}
	return dst
}

// Upload commits a received temporary file to its destination. On any
// failure the temporary source is deleted best-effort; a cleanup error
// never replaces the failure that triggered it.
func (e *Engine) Upload(srcAbs, pathname, filename, ext string) error {
	if err := e.CreateFromTemp(srcAbs, pathname, filename, ext); err != nil {
		_ = e.fs.Remove(srcAbs)
		return err
	}
	return nil
}

// CreateFromTemp moves a temporary file into the storage tree without
// cleanup on failure: destination must not exist, missing parent
// directories are created, and the final step is a single rename.
func (e *Engine) CreateFromTemp(srcAbs, pathname, filename, ext string) error {
	r, err := fsutil.Resolve(e.root, JoinUploadPath(pathname, filename, ext))
	if err != nil {
		return err
	}
	_, exists, err := e.stat(r.Abs)
	if err != nil {
		return err
	}
	if exists {
		return errcode.New(errcode.FileExists, "file exists")
	}
	if err := e.fs.MkdirAll(r.ParentAbs, 0o700); err != nil {
		return err
	}
	return e.fs.Rename(srcAbs, r.Abs)
}

// Remove recursively deletes the file or directory at rel. A second
// call against the same path fails with FILE_NOT_FOUND again; removal
// is not idempotent at the domain level.
func (e *Engine) Remove(rel string) error {
	r, err := fsutil.Resolve(e.root, rel)
	if err != nil {
		return err
	}
	_, exists, err := e.stat(r.Abs)
	if err != nil {
		return err
	}
	if !exists {
		return errcode.New(errcode.FileNotFound, "file not found")
	}
	return e.fs.RemoveAll(r.Abs)
}

// Move renames the entry at srcRel to dstRel. The source must exist,
// the destination must not, and no merge or overwrite happens; missing
// destination parents are created first.
func (e *Engine) Move(srcRel, dstRel string) error {
	src, err := fsutil.Resolve(e.root, srcRel)
	if err != nil {
		return err
	}
	dst, err := fsutil.Resolve(e.root, dstRel)
	if err != nil {
		return err
	}
	_, exists, err := e.stat(src.Abs)
	if err != nil {
		return err
	}
	if !exists {
		return errcode.New(errcode.FileNotFound, "file not found")
	}
	_, exists, err = e.stat(dst.Abs)
	if err != nil {
		return err
	}
	if exists {
		return errcode.New(errcode.FileExists, "file exists")
	}
	if err := e.fs.MkdirAll(dst.ParentAbs, 0o700); err != nil {
		return err
	}
	return e.fs.Rename(src.Abs, dst.Abs)
}

// CopyFile duplicates the regular file at srcRel to dstRel, streaming
// bytes and aborting on the first error. A partially written
// destination is left as-is.
func (e *Engine) CopyFile(srcRel, dstRel string) error {
	src, err := fsutil.Resolve(e.root, srcRel)
	if err != nil {
		return err
	}
	dst, err := fsutil.Resolve(e.root, dstRel)
	if err != nil {
		return err
	}
	info, exists, err := e.stat(src.Abs)
	if err != nil {
		return err
	}
	if !exists || !info.Mode().IsRegular() {
		return errcode.New(errcode.FileNotFound, "file not found")
	}
	_, exists, err = e.stat(dst.Abs)
	if err != nil {
		return err
	}
	if exists {
		return errcode.New(errcode.FileExists, "file exists")
	}
	if err := e.fs.MkdirAll(dst.ParentAbs, 0o700); err != nil {
		return err
	}

	in, err := e.fs.Open(src.Abs)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := e.fs.OpenFile(dst.Abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// stat reports the entry at abs, distinguishing "absent" from real
// stat failures the way the check-then-act sequences need.
func (e *Engine) stat(abs string) (os.FileInfo, bool, error) {
	info, err := e.fs.Stat(abs)
	if err == nil {
		return info, true, nil
	}
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	return nil, false, err
}
