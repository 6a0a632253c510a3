// Package httpapi exposes the file-management API over HTTP. Handlers
// translate wire requests into engine and store calls and map domain
// failures onto the response codes clients enumerate via /api/error-code.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Nhor/static-files-manager/internal/db"
	"github.com/Nhor/static-files-manager/internal/errcode"
	"github.com/Nhor/static-files-manager/internal/fsutil"
	"github.com/Nhor/static-files-manager/internal/session"
	"github.com/Nhor/static-files-manager/internal/storage"
	"github.com/Nhor/static-files-manager/internal/user"
)

// sessionHeader carries the bearer session identifier.
const sessionHeader = "Session-Id"

type Server struct {
	Users    *user.Service
	Sessions *session.Store
	Engine   *storage.Engine

	SessionConfig  session.Config
	TmpDir         string
	MaxUploadBytes int64
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Handler builds the full route table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.Engine.Root()))))

	mux.HandleFunc("/api/error-code", s.handleErrorCode)
	mux.HandleFunc("/api/login", s.handleLogin)
	mux.HandleFunc("/api/check", s.handleCheck)
	mux.HandleFunc("/api/logout", s.handleLogout)
	mux.HandleFunc("/api/list/", s.handleList)
	mux.HandleFunc("/api/create", s.handleCreate)
	mux.HandleFunc("/api/move", s.handleMove)
	mux.HandleFunc("/api/remove", s.handleRemove)
	mux.HandleFunc("/api/upload", s.handleUpload)

	var h http.Handler = mux
	h = withSecurityHeaders(h)
	h = s.withCORS(h)
	h = s.withRequestLog(h)
	h = s.withRecover(h)
	return h
}

// authenticate resolves the request's session header. Every
// engine-facing handler calls this first; its failure is terminal for
// the request.
func (s *Server) authenticate(r *http.Request) (*db.Session, error) {
	return s.Sessions.GetByID(r.Context(), r.Header.Get(sessionHeader))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, extra map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

func writeCodes(w http.ResponseWriter, status int, codes []errcode.Code) {
	writeJSON(w, status, map[string]any{"success": false, "err": codes})
}

// writeFailure maps an operation error to the wire. Session misses are
// 403, other domain codes 400, and anything unexpected 500 with the
// detail logged server-side only.
func (s *Server) writeFailure(r *http.Request, w http.ResponseWriter, err error) {
	if errors.Is(err, fsutil.ErrPathEscapesRoot) {
		writeCodes(w, http.StatusBadRequest, []errcode.Code{errcode.InvalidPathFormat})
		return
	}
	if code, ok := errcode.CodeOf(err); ok {
		status := http.StatusBadRequest
		if code == errcode.SessionNotFound {
			status = http.StatusForbidden
		}
		writeCodes(w, status, []errcode.Code{code})
		return
	}
	s.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err.Error())
	writeCodes(w, http.StatusInternalServerError, []errcode.Code{errcode.Unknown})
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-content-type-options", "nosniff")
		w.Header().Set("x-frame-options", "DENY")
		w.Header().Set("referrer-policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
