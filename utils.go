package fsapi

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsValidPath validates a path sent as a request payload, relative to the
// caller's directory. It checks that the path:
//   - is relative (does not start with "/")
//   - does not contain ".." (path traversal)
//   - does not contain "//" (empty segments)
//   - does not contain invalid characters: \ ? # ~
//   - is valid UTF-8
//   - does not contain null bytes, control characters (< 0x20) or DEL (0x7f)
//
// The empty path and "." both name the caller's own directory and are valid.
func IsValidPath(p string) bool {
	if p == "" || p == "." {
		return true
	}

	if p[0] == '/' {
		return false
	}

	if strings.Contains(p, "..") {
		return false
	}

	if strings.Contains(p, "//") {
		return false
	}

	if strings.ContainsAny(p, `\?#~`) {
		return false
	}

	if !utf8.ValidString(p) {
		return false
	}

	for _, r := range p {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}

	return true
}

// IsValidIdentity reports whether identity can name a directory directly
// under a home root: a single non-empty segment other than "." and "..",
// free of separators, control characters and whitespace.
func IsValidIdentity(identity string) bool {
	if identity == "" || identity == "." || identity == ".." {
		return false
	}

	if len(identity) > 255 || !utf8.ValidString(identity) {
		return false
	}

	if strings.ContainsAny(identity, `/\`) {
		return false
	}

	for _, r := range identity {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
