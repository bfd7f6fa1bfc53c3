package uuidutil

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// New generates a new random UUID v4 string.
func New() string {
	return uuid.NewString()
}

// BlobKey returns a collision-free storage key under dir that keeps a
// readable form of the original file name, e.g. "dir/<uuid>-facade.jpg".
func BlobKey(dir, name string) string {
	base := SanitizeName(path.Base(strings.ReplaceAll(name, "\\", "/")))
	if base == "" || base == "." || base == "/" {
		base = "blob"
	}
	return path.Join(dir, uuid.NewString()+"-"+base)
}

// SanitizeName replaces every character outside [A-Za-z0-9._-] with '_'.
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
