// internal/core/ports/storage.go
package ports

import "context"

// Backend is the port for the key-addressed blob store holding the captcha
// pool. Keys are slash-separated logical paths such as
// "captcha-render/a/b/image_12_ab34.png".
type Backend interface {
	// Name identifies the backend in logs ("fs", "sqlite", "memory")
	Name() string

	// ListFiles returns the full keys of every file below dir, recursively,
	// sorted. A missing dir yields an empty list.
	ListFiles(ctx context.Context, dir string) ([]string, error)

	// PrepareDirectory makes dir ready to receive files
	PrepareDirectory(ctx context.Context, dir string) error

	// StoreFile copies the local file src to key dst, overwriting
	StoreFile(ctx context.Context, src, dst string) error

	// DeleteFile removes key. Deleting a missing key is not an error.
	DeleteFile(ctx context.Context, key string) error

	// Close releases resources held by the backend
	Close() error
}
