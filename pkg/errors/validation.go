package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// nameRegex matches identifiers usable as tile, motif, map, tag and heat map names.
var nameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ValidateName validates a definition name (tile type, motif, map, heat map,
// custom event or variable name).
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - Maximum length of 128 characters
//   - Must start with a letter or underscore
//   - Only letters, digits, '_', '.' and '-' afterwards
//
// Names must never contain the attribute syntax characters ',', '~', '!' or
// '%', which would make serialized attributes ambiguous.
func ValidateName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidDefinition, "%s name cannot be empty", kind)
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidDefinition, "%s name too long (max 128 characters)", kind)
	}

	if !nameRegex.MatchString(name) {
		return New(ErrCodeInvalidDefinition, "invalid %s name: %q", kind, name)
	}

	return nil
}

// ValidatePath validates a file path referenced from a definition (image or
// script) for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}
