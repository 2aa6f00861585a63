package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateEntityID validates a process or resource identifier for safety and
// correctness. Identifiers flow into file names, DOT source, and API paths,
// so the rules are intentionally conservative:
//   - No empty ids
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - Maximum length of 64 characters
func ValidateEntityID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "entity id cannot be empty")
	}

	if len(id) > 64 {
		return New(ErrCodeInvalidInput, "entity id too long (max 64 characters)")
	}

	// Check for control characters and null bytes
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "entity id contains invalid control characters")
		}
	}

	// Check for path traversal patterns
	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "entity id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateScenarioFilename validates a scenario filename for safety.
// It ensures the filename is a simple basename without path components.
func ValidateScenarioFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidScenario, "scenario filename cannot be empty")
	}

	// Must be a simple filename, not a path
	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidScenario, "scenario filename cannot contain path separators")
	}

	if strings.HasPrefix(filename, ".") {
		return New(ErrCodeInvalidScenario, "scenario filename cannot be a hidden file")
	}

	return nil
}

// ValidatePath validates a relative output path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
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

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// simulationIDRegex matches server-issued simulation ids (UUID form).
var simulationIDRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ValidateSimulationID validates a simulation identifier from an API path.
func ValidateSimulationID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "simulation id cannot be empty")
	}

	if !simulationIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid simulation id: %q", id)
	}

	return nil
}

// processIDRegex matches conventional process ids (P1, P2, worker-3...).
var processIDRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]*$`)

// ValidateProcessID validates a process identifier.
func ValidateProcessID(id string) error {
	if err := ValidateEntityID(id); err != nil {
		return err
	}

	if !processIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid process id: %q", id)
	}

	return nil
}

// resourceIDRegex matches conventional resource ids (R1, printer, db-lock...).
var resourceIDRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]*$`)

// ValidateResourceID validates a resource identifier.
func ValidateResourceID(id string) error {
	if err := ValidateEntityID(id); err != nil {
		return err
	}

	if !resourceIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid resource id: %q", id)
	}

	return nil
}
