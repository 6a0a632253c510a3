// Package webdavserver exposes the storage root over WebDAV for
// clients that mount it as a network drive. Credentials are checked
// per request against the user store.
package webdavserver

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/net/webdav"

	"github.com/Nhor/static-files-manager/internal/errcode"
	"github.com/Nhor/static-files-manager/internal/user"
)

type Handler struct {
	Users  *user.Service
	Root   string
	Prefix string
	Logger *slog.Logger

	once sync.Once
	ls   webdav.LockSystem
}

func (h *Handler) lockSystem() webdav.LockSystem {
	h.once.Do(func() {
		h.ls = webdav.NewMemLS()
	})
	return h.ls
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	lg := h.Logger
	if lg == nil {
		lg = slog.Default()
	}

	username, password, ok := r.BasicAuth()
	if !ok {
		w.Header().Set("WWW-Authenticate", `Basic realm="static-files-manager WebDAV"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if _, err := h.Users.Login(r.Context(), username, password); err != nil {
		if _, domain := errcode.CodeOf(err); !domain {
			lg.Error("webdav login error", "err", err.Error())
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="static-files-manager WebDAV"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	lg.Debug("webdav authenticated", "user", username, "method", r.Method, "path", r.URL.Path)

	dav := &webdav.Handler{
		Prefix:     strings.TrimSuffix(h.Prefix, "/"),
		FileSystem: NewJailFS(h.Root),
		LockSystem: h.lockSystem(),
		Logger: func(r *http.Request, err error) {
			if err != nil {
				lg.Warn("webdav request error", "method", r.Method, "path", r.URL.Path, "err", err.Error())
			}
		},
	}
	dav.ServeHTTP(w, r)
}
