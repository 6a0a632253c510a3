// Package httpapi tests drive the full route table over httptest.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Nhor/static-files-manager/internal/db"
	"github.com/Nhor/static-files-manager/internal/errcode"
	"github.com/Nhor/static-files-manager/internal/session"
	"github.com/Nhor/static-files-manager/internal/storage"
	"github.com/Nhor/static-files-manager/internal/user"
)

type apiResponse struct {
	Success   bool            `json:"success"`
	Err       []int           `json:"err"`
	SessionID string          `json:"sessionId"`
	Content   []storage.Entry `json:"content"`
	ErrorCode map[string]int  `json:"errorCode"`
}

type testEnv struct {
	server    *Server
	handler   http.Handler
	root      string
	sessionID string
}

// newTestEnv builds a server over temp storage with one provisioned
// user ("username"/"password123") and an active session.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	d, err := db.Open(ctx, t.TempDir()+"/test.db")
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	users := user.NewService(d)
	sessions := session.NewStore(d)
	root := t.TempDir()

	s := &Server{
		Users:          users,
		Sessions:       sessions,
		Engine:         storage.New(root),
		SessionConfig:  session.Config{Type: "client", Realm: "test"},
		TmpDir:         t.TempDir(),
		MaxUploadBytes: 8 << 20,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	uid, err := users.Create(ctx, "username", "password123")
	if err != nil {
		t.Fatalf("users.Create: %v", err)
	}
	sess, err := sessions.GetOrCreate(ctx, s.SessionConfig, uid)
	if err != nil {
		t.Fatalf("sessions.GetOrCreate: %v", err)
	}

	return &testEnv{server: s, handler: s.Handler(), root: root, sessionID: sess.ID}
}

// do sends one request; sessionID may be empty to omit the header.
func (e *testEnv) do(t *testing.T, method, target, sessionID string, body any) (int, apiResponse) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	r := httptest.NewRequest(method, target, rd)
	if body != nil {
		r.Header.Set("content-type", "application/json")
	}
	if sessionID != "" {
		r.Header.Set(sessionHeader, sessionID)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)

	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
	}
	return w.Code, resp
}

func wantCodes(t *testing.T, got []int, want ...errcode.Code) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("err codes %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != int(want[i]) {
			t.Fatalf("err codes %v, want %v", got, want)
		}
	}
}

func TestErrorCodeEnumeration(t *testing.T) {
	e := newTestEnv(t)

	code, resp := e.do(t, "GET", "/api/error-code", "", nil)
	if code != 200 || !resp.Success {
		t.Fatalf("status=%d resp=%+v", code, resp)
	}
	if resp.ErrorCode["FILE_EXISTS"] != 10 || resp.ErrorCode["SESSION_NOT_FOUND"] != 8 {
		t.Fatalf("unexpected enumeration: %v", resp.ErrorCode)
	}
}

func TestLoginReturnsReusableSession(t *testing.T) {
	e := newTestEnv(t)

	creds := map[string]string{"username": "username", "password": "password123"}
	code, resp := e.do(t, "POST", "/api/login", "", creds)
	if code != 200 || !resp.Success {
		t.Fatalf("status=%d resp=%+v", code, resp)
	}
	if resp.SessionID != e.sessionID {
		t.Fatalf("login should reuse the active session: %q vs %q", resp.SessionID, e.sessionID)
	}
	if !strings.HasPrefix(resp.SessionID, "SID:client:test:") {
		t.Fatalf("unexpected session id: %q", resp.SessionID)
	}
}

func TestLoginValidation(t *testing.T) {
	e := newTestEnv(t)

	code, resp := e.do(t, "POST", "/api/login", "", map[string]string{})
	if code != 400 {
		t.Fatalf("status=%d", code)
	}
	wantCodes(t, resp.Err, errcode.InvalidUsernameFormat, errcode.InvalidPasswordFormat)
}

func TestLoginFailures(t *testing.T) {
	e := newTestEnv(t)

	code, resp := e.do(t, "POST", "/api/login", "", map[string]string{"username": "nobody", "password": "password123"})
	if code != 401 {
		t.Fatalf("status=%d", code)
	}
	wantCodes(t, resp.Err, errcode.UserNotFound)

	code, resp = e.do(t, "POST", "/api/login", "", map[string]string{"username": "username", "password": "wrongpass1"})
	if code != 401 {
		t.Fatalf("status=%d", code)
	}
	wantCodes(t, resp.Err, errcode.InvalidPassword)
}

func TestCheckSession(t *testing.T) {
	e := newTestEnv(t)

	if code, _ := e.do(t, "GET", "/api/check", e.sessionID, nil); code != 200 {
		t.Fatalf("valid session: status=%d", code)
	}

	code, resp := e.do(t, "GET", "/api/check", "", nil)
	if code != 403 {
		t.Fatalf("missing header: status=%d", code)
	}
	wantCodes(t, resp.Err, errcode.SessionNotFound)

	code, resp = e.do(t, "GET", "/api/check", "invalidSessionId", nil)
	if code != 403 {
		t.Fatalf("bogus session: status=%d", code)
	}
	wantCodes(t, resp.Err, errcode.SessionNotFound)
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t)

	if code, _ := e.do(t, "POST", "/api/logout", e.sessionID, nil); code != 200 {
		t.Fatalf("logout: status=%d", code)
	}
	if code, _ := e.do(t, "GET", "/api/check", e.sessionID, nil); code != 403 {
		t.Fatalf("session should be gone: status=%d", code)
	}
	// A second logout with the stale id is a session miss, not a no-op.
	code, resp := e.do(t, "POST", "/api/logout", e.sessionID, nil)
	if code != 403 {
		t.Fatalf("stale logout: status=%d", code)
	}
	wantCodes(t, resp.Err, errcode.SessionNotFound)
}

// TestCreateRemoveFlow walks the full directory lifecycle.
func TestCreateRemoveFlow(t *testing.T) {
	e := newTestEnv(t)
	body := map[string]string{"path": "path/to/directory"}

	if code, _ := e.do(t, "POST", "/api/create", e.sessionID, body); code != 200 {
		t.Fatalf("create: status=%d", code)
	}
	st, err := os.Stat(filepath.Join(e.root, "path", "to", "directory"))
	if err != nil || !st.IsDir() {
		t.Fatalf("directory should exist: %v", err)
	}

	code, resp := e.do(t, "POST", "/api/create", e.sessionID, body)
	if code != 400 {
		t.Fatalf("repeat create: status=%d", code)
	}
	wantCodes(t, resp.Err, errcode.DirectoryExists)

	if code, _ := e.do(t, "DELETE", "/api/remove", e.sessionID, map[string]string{"path": "path"}); code != 200 {
		t.Fatalf("remove: status=%d", code)
	}
	code, resp = e.do(t, "DELETE", "/api/remove", e.sessionID, map[string]string{"path": "path"})
	if code != 400 {
		t.Fatalf("repeat remove: status=%d", code)
	}
	wantCodes(t, resp.Err, errcode.FileNotFound)
}

func TestCreateRequiresSession(t *testing.T) {
	e := newTestEnv(t)

	code, resp := e.do(t, "POST", "/api/create", "", map[string]string{"path": "dir"})
	if code != 403 {
		t.Fatalf("status=%d", code)
	}
	wantCodes(t, resp.Err, errcode.SessionNotFound)
	if _, err := os.Stat(filepath.Join(e.root, "dir")); !os.IsNotExist(err) {
		t.Fatalf("nothing should be created without a session")
	}
}

func TestCreateValidation(t *testing.T) {
	e := newTestEnv(t)

	code, resp := e.do(t, "POST", "/api/create", e.sessionID, map[string]string{"path": ""})
	if code != 400 {
		t.Fatalf("status=%d", code)
	}
	wantCodes(t, resp.Err, errcode.InvalidPathFormat)

	code, resp = e.do(t, "POST", "/api/create", e.sessionID, map[string]string{"path": "a/../../etc"})
	if code != 400 {
		t.Fatalf("status=%d", code)
	}
	wantCodes(t, resp.Err, errcode.InvalidPathFormat)
}

func TestList(t *testing.T) {
	e := newTestEnv(t)

	if err := os.Mkdir(filepath.Join(e.root, "path"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(e.root, "path", "file.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("writefile: %v", err)
	}

	code, resp := e.do(t, "GET", "/api/list/", e.sessionID, nil)
	if code != 200 {
		t.Fatalf("list root: status=%d", code)
	}
	if len(resp.Content) != 1 || resp.Content[0].Name != "path" || resp.Content[0].Type != "directory" {
		t.Fatalf("root content: %+v", resp.Content)
	}

	code, resp = e.do(t, "GET", "/api/list/path", e.sessionID, nil)
	if code != 200 {
		t.Fatalf("list subdir: status=%d", code)
	}
	if len(resp.Content) != 1 || resp.Content[0].Name != "file.txt" || resp.Content[0].Type != "file" {
		t.Fatalf("subdir content: %+v", resp.Content)
	}
}

func TestListMissingDirectoryIsUnknown(t *testing.T) {
	e := newTestEnv(t)

	code, resp := e.do(t, "GET", "/api/list/missing", e.sessionID, nil)
	if code != 500 {
		t.Fatalf("status=%d", code)
	}
	wantCodes(t, resp.Err, errcode.Unknown)
}

func TestMoveRoute(t *testing.T) {
	e := newTestEnv(t)

	if err := os.WriteFile(filepath.Join(e.root, "file"), []byte("data"), 0o600); err != nil {
		t.Fatalf("writefile: %v", err)
	}

	body := map[string]string{"path": "file", "newPath": "path/to/file"}
	if code, _ := e.do(t, "PUT", "/api/move", e.sessionID, body); code != 200 {
		t.Fatalf("move: status=%d", code)
	}
	if _, err := os.Stat(filepath.Join(e.root, "path", "to", "file")); err != nil {
		t.Fatalf("destination should exist: %v", err)
	}

	code, resp := e.do(t, "PUT", "/api/move", e.sessionID, body)
	if code != 400 {
		t.Fatalf("repeat move: status=%d", code)
	}
	wantCodes(t, resp.Err, errcode.FileNotFound)
}

func TestMoveValidation(t *testing.T) {
	e := newTestEnv(t)

	code, resp := e.do(t, "PUT", "/api/move", e.sessionID, map[string]string{})
	if code != 400 {
		t.Fatalf("status=%d", code)
	}
	wantCodes(t, resp.Err, errcode.InvalidPathFormat, errcode.InvalidNewPathFormat)
}

func (e *testEnv) upload(t *testing.T, sessionID string, fields map[string]string, filePart []byte) (int, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filePart != nil {
		fw, err := mw.CreateFormFile("file", "ignored.bin")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(filePart); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	r := httptest.NewRequest("POST", "/api/upload", &buf)
	r.Header.Set("content-type", mw.FormDataContentType())
	if sessionID != "" {
		r.Header.Set(sessionHeader, sessionID)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)

	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
	}
	return w.Code, resp
}

func TestUpload(t *testing.T) {
	e := newTestEnv(t)
	fields := map[string]string{"path": "path/to", "filename": "file", "ext": "txt"}

	code, _ := e.upload(t, e.sessionID, fields, []byte("payload"))
	if code != 200 {
		t.Fatalf("upload: status=%d", code)
	}
	b, err := os.ReadFile(filepath.Join(e.root, "path", "to", "file.txt"))
	if err != nil || string(b) != "payload" {
		t.Fatalf("uploaded content: %q err=%v", b, err)
	}
	if n := countEntries(t, e.server.TmpDir); n != 0 {
		t.Fatalf("staging dir should be empty, has %d entries", n)
	}

	code, resp := e.upload(t, e.sessionID, fields, []byte("payload"))
	if code != 400 {
		t.Fatalf("repeat upload: status=%d", code)
	}
	wantCodes(t, resp.Err, errcode.FileExists)
	if n := countEntries(t, e.server.TmpDir); n != 0 {
		t.Fatalf("staging dir should be cleaned after failure, has %d entries", n)
	}
}

func TestUploadValidation(t *testing.T) {
	e := newTestEnv(t)

	code, resp := e.upload(t, e.sessionID, map[string]string{"path": "p", "filename": "bad.name", "ext": "txt"}, []byte("x"))
	if code != 400 {
		t.Fatalf("status=%d", code)
	}
	wantCodes(t, resp.Err, errcode.InvalidFilenameFormat)
	if n := countEntries(t, e.server.TmpDir); n != 0 {
		t.Fatalf("staging dir should be cleaned after validation failure")
	}

	code, resp = e.upload(t, e.sessionID, map[string]string{"path": "p", "filename": "file", "ext": "txt"}, nil)
	if code != 400 {
		t.Fatalf("status=%d", code)
	}
	wantCodes(t, resp.Err, errcode.InvalidFilesFormat)
}

func TestUploadRequiresSession(t *testing.T) {
	e := newTestEnv(t)

	code, resp := e.upload(t, "", map[string]string{"path": "p", "filename": "file", "ext": "txt"}, []byte("x"))
	if code != 403 {
		t.Fatalf("status=%d", code)
	}
	wantCodes(t, resp.Err, errcode.SessionNotFound)
	if n := countEntries(t, e.server.TmpDir); n != 0 {
		t.Fatalf("staging dir should be cleaned when auth fails")
	}
	if _, err := os.Stat(filepath.Join(e.root, "p")); !os.IsNotExist(err) {
		t.Fatalf("nothing should be committed without a session")
	}
}

func TestCORS(t *testing.T) {
	e := newTestEnv(t)
	e.server.AllowedOrigins = []string{"https://app.example.com"}
	h := e.server.Handler()

	r := httptest.NewRequest("OPTIONS", "/api/login", nil)
	r.Header.Set("Origin", "https://app.example.com")
	r.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != 204 {
		t.Fatalf("preflight: status=%d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("allow-origin: %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, sessionHeader) {
		t.Fatalf("allow-headers should include the session header: %q", got)
	}

	r = httptest.NewRequest("GET", "/api/error-code", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unlisted origin must get no grant, got %q", got)
	}
}

func countEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0
		}
		t.Fatalf("readdir: %v", err)
	}
	return len(entries)
}
