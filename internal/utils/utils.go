// Package utils provides utility functions for filename sanitization and UUID generation.
//
// Functions:
//   - SanitizeFilename: Returns a safe filename for storage.
//     Input: string (filename)
//     Output: string (sanitized filename)
//   - SanitizeBase: Returns a safe basename for generated output files,
//     truncated to the output filename limit.
//   - GenerateUUID: Returns a new UUID string.
//     Output: string (UUID)
//
// Used throughout the backend for safe file handling and unique IDs.
package utils

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Output basenames derived from row data are capped harder than upload names.
const maxOutputBase = 50

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func SanitizeFilename(name string) string {
	base := filepath.Base(name)
	safe := unsafeChars.ReplaceAllString(base, "_")
	if len(safe) > 100 {
		safe = safe[:100]
	}
	return safe
}

// SanitizeBase sanitizes a value taken from row data for use as an output
// file basename. Returns "" when nothing usable remains.
func SanitizeBase(value string) string {
	safe := unsafeChars.ReplaceAllString(value, "_")
	safe = strings.Trim(safe, "_")
	if len(safe) > maxOutputBase {
		safe = safe[:maxOutputBase]
	}
	return safe
}

func GenerateUUID() string {
	return uuid.New().String()
}
