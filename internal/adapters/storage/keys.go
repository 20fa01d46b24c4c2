// Package storage contains the concrete ports.Backend implementations used
// to hold the captcha pool: a directory tree on local disk, a SQLite
// database and an in-process map.
//
// All backends speak the same key format: slash-separated, relative, no
// ".." segments. Callers should depend on ports.Backend and obtain an
// implementation through Open.
package storage

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned by lookups of keys that are not stored.
	ErrNotFound = errors.New("storage key not found")

	// ErrInvalidKey is returned for keys that are absolute, empty or escape
	// the backend root.
	ErrInvalidKey = errors.New("invalid storage key")
)

// cleanKey normalizes a file key.
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidKey, key)
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q escapes the root", ErrInvalidKey, key)
	}
	return clean, nil
}

// cleanDir normalizes a directory key. "" and "." both mean the root and
// are returned as "".
func cleanDir(dir string) (string, error) {
	if dir == "" || dir == "." || dir == "/" {
		return "", nil
	}
	return cleanKey(dir)
}

// underDir reports whether key lies below dir ("" is the root).
func underDir(key, dir string) bool {
	if dir == "" {
		return true
	}
	return strings.HasPrefix(key, dir+"/")
}
