// Package id provides unique identifier generation for media handles.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// Prefix marks identifiers minted by Generate.
const Prefix = "media-"

// Generate creates a new unique handle ID.
// Format: media-<uuid without dashes>
// Example: media-3f2a9c1e8b7d4f0a9e6c5b4a3d2e1f00
func Generate() string {
	return Prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Valid reports whether s has the shape produced by Generate.
func Valid(s string) bool {
	raw, ok := strings.CutPrefix(s, Prefix)
	if !ok || len(raw) != 32 {
		return false
	}
	_, err := uuid.Parse(raw)
	return err == nil
}
