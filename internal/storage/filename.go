// Package storage defines interfaces for image storage backends.
package storage

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"
	"time"
)

// randomSuffixMax bounds the numeric suffix appended to generated filenames.
const randomSuffixMax = 1_000_000_000

// GenerateFilename produces a unique storage filename for an upload,
// preserving the original extension in lowercase.
//
// Example:
//
//	original: "Beach Day.JPG"
//	result:   "1735689600000-384729174.jpg"
func GenerateFilename(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	suffix, err := rand.Int(rand.Reader, big.NewInt(randomSuffixMax))
	if err != nil {
		// crypto/rand failing means the platform is broken; fall back
		// to the timestamp alone rather than aborting the upload.
		return fmt.Sprintf("%d%s", time.Now().UnixMilli(), ext)
	}
	return fmt.Sprintf("%d-%d%s", time.Now().UnixMilli(), suffix.Int64(), ext)
}

// AllowedExtension reports whether the original filename carries one of
// the allowed extensions. Comparison is case-insensitive.
func AllowedExtension(originalName string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(originalName))
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// SanitizeFilename rejects filenames containing directory components.
// Returns the cleaned base name and whether the input was acceptable.
func SanitizeFilename(filename string) (string, bool) {
	if filename == "" || strings.ContainsAny(filename, "/\\") {
		return "", false
	}
	base := filepath.Base(filepath.Clean(filename))
	if base == "." || base == ".." {
		return "", false
	}
	return base, true
}
