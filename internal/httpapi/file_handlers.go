package httpapi

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/Nhor/static-files-manager/internal/errcode"
	"github.com/Nhor/static-files-manager/internal/validate"
)

// handleList enumerates a directory. The path is everything after
// /api/list/; the empty path lists the storage root.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/list/")
	if !validate.Path(strings.Trim(path, "/")) {
		writeCodes(w, http.StatusBadRequest, []errcode.Code{errcode.InvalidPathFormat})
		return
	}
	if _, err := s.authenticate(r); err != nil {
		s.writeFailure(r, w, err)
		return
	}

	entries, err := s.Engine.ListDirectory(path)
	if err != nil {
		// Missing or non-directory paths surface as a generic failure.
		s.writeFailure(r, w, err)
		return
	}
	writeSuccess(w, map[string]any{"content": entries})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCodes(w, http.StatusBadRequest, []errcode.Code{errcode.InvalidPathFormat})
		return
	}
	if codes := validate.Collect(
		validate.Check{OK: nonRootPath(req.Path), Code: errcode.InvalidPathFormat},
	); len(codes) > 0 {
		writeCodes(w, http.StatusBadRequest, codes)
		return
	}
	if _, err := s.authenticate(r); err != nil {
		s.writeFailure(r, w, err)
		return
	}

	if err := s.Engine.CreateDirectory(req.Path); err != nil {
		s.writeFailure(r, w, err)
		return
	}
	writeSuccess(w, nil)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Path    string `json:"path"`
		NewPath string `json:"newPath"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCodes(w, http.StatusBadRequest, []errcode.Code{
			errcode.InvalidPathFormat,
			errcode.InvalidNewPathFormat,
		})
		return
	}
	if codes := validate.Collect(
		validate.Check{OK: nonRootPath(req.Path), Code: errcode.InvalidPathFormat},
		validate.Check{OK: nonRootPath(req.NewPath), Code: errcode.InvalidNewPathFormat},
	); len(codes) > 0 {
		writeCodes(w, http.StatusBadRequest, codes)
		return
	}
	if _, err := s.authenticate(r); err != nil {
		s.writeFailure(r, w, err)
		return
	}

	if err := s.Engine.Move(req.Path, req.NewPath); err != nil {
		s.writeFailure(r, w, err)
		return
	}
	writeSuccess(w, nil)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCodes(w, http.StatusBadRequest, []errcode.Code{errcode.InvalidPathFormat})
		return
	}
	if codes := validate.Collect(
		validate.Check{OK: nonRootPath(req.Path), Code: errcode.InvalidPathFormat},
	); len(codes) > 0 {
		writeCodes(w, http.StatusBadRequest, codes)
		return
	}
	if _, err := s.authenticate(r); err != nil {
		s.writeFailure(r, w, err)
		return
	}

	if err := s.Engine.Remove(req.Path); err != nil {
		s.writeFailure(r, w, err)
		return
	}
	writeSuccess(w, nil)
}

// handleUpload receives a multipart file into the staging directory
// and commits it through the engine. After the temporary file exists,
// every failure path deletes it best-effort.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeCodes(w, http.StatusBadRequest, []errcode.Code{errcode.InvalidFilesFormat})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	tmpPath, ok := s.receiveFile(r)

	pathname := r.FormValue("path")
	filename := r.FormValue("filename")
	ext := r.FormValue("ext")
	codes := validate.Collect(
		validate.Check{OK: validate.Path(pathname), Code: errcode.InvalidPathFormat},
		validate.Check{OK: validate.Filename(filename), Code: errcode.InvalidFilenameFormat},
		validate.Check{OK: validate.Ext(ext), Code: errcode.InvalidExtFormat},
		validate.Check{OK: ok, Code: errcode.InvalidFilesFormat},
	)
	if len(codes) > 0 {
		s.discardTemp(tmpPath)
		writeCodes(w, http.StatusBadRequest, codes)
		return
	}
	if _, err := s.authenticate(r); err != nil {
		s.discardTemp(tmpPath)
		s.writeFailure(r, w, err)
		return
	}

	if err := s.Engine.Upload(tmpPath, pathname, filename, ext); err != nil {
		// The engine already removed the temporary file.
		s.writeFailure(r, w, err)
		return
	}
	writeSuccess(w, nil)
}

// receiveFile stages the first uploaded file part in TmpDir and
// returns its path. ok is false when no usable file part is present.
func (s *Server) receiveFile(r *http.Request) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	var header *multipart.FileHeader
	for _, hs := range r.MultipartForm.File {
		if len(hs) > 0 {
			header = hs[0]
			break
		}
	}
	if header == nil {
		return "", false
	}

	src, err := header.Open()
	if err != nil {
		return "", false
	}
	defer src.Close()

	if err := os.MkdirAll(s.TmpDir, 0o700); err != nil {
		return "", false
	}
	tmp, err := os.CreateTemp(s.TmpDir, "upload-*")
	if err != nil {
		return "", false
	}
	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", false
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", false
	}
	return tmp.Name(), true
}

// discardTemp removes a staged upload; errors are swallowed so cleanup
// never replaces the failure that triggered it.
func (s *Server) discardTemp(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}

// nonRootPath is the shape check for operations that may not target
// the storage root itself.
func nonRootPath(p string) bool {
	return validate.Path(p) && strings.Trim(p, "/ ") != ""
}
