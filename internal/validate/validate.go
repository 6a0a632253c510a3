// Package validate contains shape checks for request fields. It only
// decides whether a string is well formed; path confinement is the
// fsutil package's job.
package validate

import (
	"regexp"
	"strings"

	"github.com/Nhor/static-files-manager/internal/errcode"
)

var (
	usernameRe = regexp.MustCompile(`^[0-9a-zA-Z\-_]{2,16}$`)
	passwordRe = regexp.MustCompile(`^[0-9a-zA-Z$@!%*#?&]{6,32}$`)
	pathRe     = regexp.MustCompile(`^[0-9a-zA-Z/\-_ ]{0,128}$`)
	filenameRe = regexp.MustCompile(`^[0-9a-zA-Z\-_ ]{1,64}$`)
	extRe      = regexp.MustCompile(`^[0-9a-zA-Z]{0,16}$`)
)

// Username requires 2-16 chars of [0-9A-Za-z-_] with at least one letter.
func Username(s string) bool {
	return usernameRe.MatchString(s) && hasLetter(s)
}

// Password requires 6-32 chars of the allowed set with at least one
// letter and one digit.
func Password(s string) bool {
	return passwordRe.MatchString(s) && hasLetter(s) && hasDigit(s)
}

// Path allows up to 128 chars of slash-separated segments and rejects
// duplicate consecutive separators. The empty string is a valid path
// (it refers to the storage root for fields where that is meaningful).
func Path(s string) bool {
	return pathRe.MatchString(s) && !strings.Contains(s, "//")
}

// Filename requires 1-64 chars of [0-9A-Za-z-_ ].
func Filename(s string) bool {
	return filenameRe.MatchString(s)
}

// Ext allows up to 16 alphanumeric chars; empty means no extension.
func Ext(s string) bool {
	return extRe.MatchString(s)
}

// Check pairs one field's shape result with the code reported when the
// field is malformed.
type Check struct {
	OK   bool
	Code errcode.Code
}

// Collect gathers the codes of all failed checks, preserving argument
// order so responses enumerate failures deterministically.
func Collect(checks ...Check) []errcode.Code {
	var out []errcode.Code
	for _, c := range checks {
		if !c.OK {
			out = append(out, c.Code)
		}
	}
	return out
}

func hasLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
