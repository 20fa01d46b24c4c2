package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// fsTempPrefix marks in-flight copies; ListFiles never reports them.
const fsTempPrefix = ".store-"

// FSBackend stores keys as files below a base directory.
type FSBackend struct {
	base string
}

// NewFSBackend creates base if needed and returns a backend rooted there.
func NewFSBackend(base string) (*FSBackend, error) {
	if base == "" {
		return nil, errors.New("fs backend: base directory is empty")
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("fs backend: resolve %s: %w", base, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("fs backend: create %s: %w", abs, err)
	}
	return &FSBackend{base: abs}, nil
}

func (b *FSBackend) Name() string { return TypeFS }

// Base returns the absolute root directory.
func (b *FSBackend) Base() string { return b.base }

func (b *FSBackend) resolve(key string) string {
	return filepath.Join(b.base, filepath.FromSlash(key))
}

// ListFiles walks dir and returns the sorted keys of regular files.
func (b *FSBackend) ListFiles(ctx context.Context, dir string) ([]string, error) {
	d, err := cleanDir(dir)
	if err != nil {
		return nil, err
	}
	root := b.base
	if d != "" {
		root = b.resolve(d)
	}

	keys := make([]string, 0)
	err = filepath.WalkDir(root, func(p string, entry fs.DirEntry, werr error) error {
		if werr != nil {
			if p == root && errors.Is(werr, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return werr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), fsTempPrefix) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		keys = append(keys, path.Join(d, filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fs backend: list %s: %w", dir, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// PrepareDirectory creates dir and its parents.
func (b *FSBackend) PrepareDirectory(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d, err := cleanDir(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(b.resolve(d), 0o755); err != nil {
		return fmt.Errorf("fs backend: prepare %s: %w", dir, err)
	}
	return nil
}

// StoreFile copies src to dst through a temp file and a rename, so readers
// never see a partial image. The destination directory must exist.
func (b *FSBackend) StoreFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := cleanKey(dst)
	if err != nil {
		return err
	}
	target := b.resolve(key)

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("fs backend: open %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(target), fsTempPrefix+"*")
	if err != nil {
		return fmt.Errorf("fs backend: store %s: %w", dst, err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("fs backend: copy %s: %w", src, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("fs backend: close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("fs backend: chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("fs backend: rename to %s: %w", dst, err)
	}
	return nil
}

// DeleteFile removes key. A missing file is not an error.
func (b *FSBackend) DeleteFile(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(b.resolve(k)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("fs backend: delete %s: %w", key, err)
	}
	return nil
}

func (b *FSBackend) Close() error { return nil }
