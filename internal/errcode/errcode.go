// Package errcode defines the domain failure taxonomy used across the
// session and storage layers. Each expected failure carries a stable
// numeric code that the HTTP boundary enumerates to clients; anything
// without a code is treated as unknown and never leaks detail.
package errcode

import "errors"

// Code is a stable, enumerable failure reason.
type Code int

const (
	Unknown               Code = 0
	InvalidUsernameFormat Code = 1
	InvalidPasswordFormat Code = 2
	InvalidPathFormat     Code = 3
	InvalidFilenameFormat Code = 4
	InvalidExtFormat      Code = 5
	InvalidFilesFormat    Code = 6
	UserNotFound          Code = 7
	SessionNotFound       Code = 8
	InvalidPassword       Code = 9
	FileExists            Code = 10
	DirectoryExists       Code = 11
	FileNotFound          Code = 12
	InvalidNewPathFormat  Code = 13
)

// Codes maps symbolic names to numeric codes, in the shape the
// error-code endpoint serves.
var Codes = map[string]Code{
	"UNKNOWN":                 Unknown,
	"INVALID_USERNAME_FORMAT": InvalidUsernameFormat,
	"INVALID_PASSWORD_FORMAT": InvalidPasswordFormat,
	"INVALID_PATH_FORMAT":     InvalidPathFormat,
	"INVALID_FILENAME_FORMAT": InvalidFilenameFormat,
	"INVALID_EXT_FORMAT":      InvalidExtFormat,
	"INVALID_FILES_FORMAT":    InvalidFilesFormat,
	"USER_NOT_FOUND":          UserNotFound,
	"SESSION_NOT_FOUND":       SessionNotFound,
	"INVALID_PASSWORD":        InvalidPassword,
	"FILE_EXISTS":             FileExists,
	"DIRECTORY_EXISTS":        DirectoryExists,
	"FILE_NOT_FOUND":          FileNotFound,
	"INVALID_NEW_PATH_FORMAT": InvalidNewPathFormat,
}

// Error is a domain failure tagged with a Code.
type Error struct {
	Code Code
	msg  string
}

func (e *Error) Error() string { return e.msg }

// New returns a domain failure with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, msg: msg}
}

// CodeOf extracts the domain code from err. The boolean is false when
// err carries no code, i.e. it is an unexpected failure.
func CodeOf(err error) (Code, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Code, true
	}
	return Unknown, false
}

// Is reports whether err is a domain failure with the given code.
func Is(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
