package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// maxRefIDLength bounds stage reference ids accepted from input files.
const maxRefIDLength = 256

// ValidateRefID validates a stage reference id taken from a pipeline or
// execution document.
//
// The rules are intentionally conservative:
//   - No empty ids
//   - No control characters
//   - Maximum length of 256 characters
func ValidateRefID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "stage ref id cannot be empty")
	}

	if len(id) > maxRefIDLength {
		return New(ErrCodeInvalidInput, "stage ref id too long (max %d characters)", maxRefIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "stage ref id %q contains control characters", id)
		}
	}

	return nil
}

// ValidateInputPath validates a path to a pipeline or execution document.
// Only .json and .toml files are accepted.
func ValidateInputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".toml":
		return nil
	default:
		return New(ErrCodeInvalidFormat, "unsupported input file %q (want .json or .toml)", filepath.Base(path))
	}
}
