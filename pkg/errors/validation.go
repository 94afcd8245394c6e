package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds recipe names and layer identifiers.
const maxNameLength = 256

// ValidateName validates a recipe name or layer identifier. Names are
// slash-separated relative paths because they become file names in the
// output directory.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No absolute paths, empty segments or path traversal sequences
//   - No backslashes (Windows-style paths)
//   - Maximum length of 256 characters
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidPath, "name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "name contains invalid control characters")
		}
	}

	if strings.HasPrefix(name, "/") {
		return New(ErrCodeInvalidPath, "name must be relative (cannot start with /)")
	}

	if strings.Contains(name, "\\") {
		return New(ErrCodeInvalidPath, "name cannot contain backslashes")
	}

	for _, segment := range strings.Split(name, "/") {
		switch segment {
		case "":
			return New(ErrCodeInvalidPath, "name contains an empty path segment")
		case ".", "..":
			return New(ErrCodeInvalidPath, "name cannot contain path traversal sequences (%s)", segment)
		}
	}

	return nil
}
