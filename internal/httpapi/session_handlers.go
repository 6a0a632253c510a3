package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/Nhor/static-files-manager/internal/errcode"
	"github.com/Nhor/static-files-manager/internal/validate"
)

// handleErrorCode serves the code enumeration so clients can map
// numeric failures back to symbolic names.
func (s *Server) handleErrorCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeSuccess(w, map[string]any{"errorCode": errcode.Codes})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCodes(w, http.StatusBadRequest, []errcode.Code{
			errcode.InvalidUsernameFormat,
			errcode.InvalidPasswordFormat,
		})
		return
	}
	if codes := validate.Collect(
		validate.Check{OK: validate.Username(req.Username), Code: errcode.InvalidUsernameFormat},
		validate.Check{OK: validate.Password(req.Password), Code: errcode.InvalidPasswordFormat},
	); len(codes) > 0 {
		writeCodes(w, http.StatusBadRequest, codes)
		return
	}

	ctx := r.Context()
	userID, err := s.Users.Login(ctx, req.Username, req.Password)
	if err != nil {
		if code, ok := errcode.CodeOf(err); ok {
			writeCodes(w, http.StatusUnauthorized, []errcode.Code{code})
			return
		}
		s.writeFailure(r, w, err)
		return
	}

	sess, err := s.Sessions.GetOrCreate(ctx, s.SessionConfig, userID)
	if err != nil {
		s.writeFailure(r, w, err)
		return
	}
	writeSuccess(w, map[string]any{"sessionId": sess.ID})
}

// handleCheck reports whether the presented session is valid.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if _, err := s.authenticate(r); err != nil {
		s.writeFailure(r, w, err)
		return
	}
	writeSuccess(w, nil)
}

// handleLogout resolves the session first so a stale identifier is a
// SESSION_NOT_FOUND failure, then removes it.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	sess, err := s.authenticate(r)
	if err != nil {
		s.writeFailure(r, w, err)
		return
	}
	if err := s.Sessions.Remove(r.Context(), sess.ID); err != nil {
		s.writeFailure(r, w, err)
		return
	}
	writeSuccess(w, nil)
}
