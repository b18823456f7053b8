package errors

import (
	"strings"
	"unicode"
)

// ValidatePackageName validates a package name for safety and correctness.
// It rejects names that could be used for path traversal, since package
// names become directory names under node_modules and lock tree paths.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path traversal sequences (.., //, backslash)
//   - Maximum length of 214 characters (the npm registry limit)
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 214 {
		return New(ErrCodeInvalidPackage, "package name too long (max 214 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateSpecifier validates a version specifier before any network call.
// Accepted forms: exact versions, caret/tilde ranges, comparison ranges,
// the wildcards "*" and "x", and the literal "latest". The check is shallow;
// full range parsing is left to the version matcher.
func ValidateSpecifier(spec string) error {
	if spec == "" {
		return New(ErrCodeInvalidSpecifier, "version specifier cannot be empty")
	}
	for _, r := range spec {
		if unicode.IsControl(r) || unicode.IsSpace(r) && r != ' ' {
			return New(ErrCodeInvalidSpecifier, "version specifier contains invalid characters: %q", spec)
		}
	}
	return nil
}
