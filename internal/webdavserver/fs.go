package webdavserver

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/webdav"

	"github.com/Nhor/static-files-manager/internal/fsutil"
)

// JailFS adapts the jailed storage root to webdav.FileSystem. Unlike
// the management API, WebDAV addresses the root itself ("/"), so the
// root resolves to itself instead of being rejected.
type JailFS struct {
	root string
}

func NewJailFS(root string) *JailFS {
	return &JailFS{root: root}
}

func (fs *JailFS) resolve(name string) (string, error) {
	if strings.Trim(name, "/") == "" {
		return fs.root, nil
	}
	r, err := fsutil.Resolve(fs.root, name)
	if err != nil {
		return "", err
	}
	return r.Abs, nil
}

func (fs *JailFS) Mkdir(ctx context.Context, name string, perm os.FileMode) error {
	p, err := fs.resolve(name)
	if err != nil {
		return err
	}
	return os.Mkdir(p, perm)
}

func (fs *JailFS) OpenFile(ctx context.Context, name string, flag int, perm os.FileMode) (webdav.File, error) {
	p, err := fs.resolve(name)
	if err != nil {
		return nil, err
	}
	if flag&os.O_CREATE != 0 {
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(p, flag, perm)
}

func (fs *JailFS) RemoveAll(ctx context.Context, name string) error {
	p, err := fs.resolve(name)
	if err != nil {
		return err
	}
	// Refuse to delete the storage root.
	if p == fs.root {
		return os.ErrPermission
	}
	return os.RemoveAll(p)
}

func (fs *JailFS) Rename(ctx context.Context, oldName, newName string) error {
	oldP, err := fs.resolve(oldName)
	if err != nil {
		return err
	}
	newP, err := fs.resolve(newName)
	if err != nil {
		return err
	}
	if oldP == fs.root || newP == fs.root {
		return os.ErrPermission
	}
	if err := os.MkdirAll(filepath.Dir(newP), 0o700); err != nil {
		return err
	}
	return os.Rename(oldP, newP)
}

func (fs *JailFS) Stat(ctx context.Context, name string) (os.FileInfo, error) {
	p, err := fs.resolve(name)
	if err != nil {
		return nil, err
	}
	return os.Stat(p)
}

var _ webdav.FileSystem = (*JailFS)(nil)
