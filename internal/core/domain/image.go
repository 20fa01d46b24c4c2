// internal/core/domain/image.go
package domain

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultRenderDir is the storage directory holding rendered captchas.
const DefaultRenderDir = "captcha-render"

// MaxDirectoryLevels bounds the shard depth used by ImagePath.
const MaxDirectoryLevels = 10

var imageNamePattern = regexp.MustCompile(`^image_([0-9a-f]+)_([0-9a-f]+)\.png$`)

// ArtifactFile is a generated captcha image found on local disk.
type ArtifactFile struct {
	SourcePath string
	Salt       string
	Hash       string
}

// NewArtifactFile parses the basename of sourcePath.
func NewArtifactFile(sourcePath string) (ArtifactFile, error) {
	salt, hash, err := ParseImageName(filepath.Base(sourcePath))
	if err != nil {
		return ArtifactFile{}, err
	}
	return ArtifactFile{SourcePath: sourcePath, Salt: salt, Hash: hash}, nil
}

// Destination returns the storage key for the file.
func (a ArtifactFile) Destination(renderDir string, levels int) string {
	return ImagePath(renderDir, levels, a.Salt, a.Hash)
}

// ParseImageName splits "image_<salt>_<hash>.png" into salt and hash.
func ParseImageName(basename string) (salt, hash string, err error) {
	m := imageNamePattern.FindStringSubmatch(basename)
	if m == nil {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidImageName, basename)
	}
	return m[1], m[2], nil
}

// ImageName is the inverse of ParseImageName.
func ImageName(salt, hash string) string {
	return "image_" + salt + "_" + hash + ".png"
}

// ImagePath maps (salt, hash) to a storage key, sharding on the leading
// characters of hash: one directory per level.
func ImagePath(renderDir string, levels int, salt, hash string) string {
	if renderDir == "" {
		renderDir = DefaultRenderDir
	}
	levels = max(0, min(levels, MaxDirectoryLevels, len(hash)))

	parts := make([]string, 0, levels+2)
	parts = append(parts, strings.TrimSuffix(renderDir, "/"))
	for i := 0; i < levels; i++ {
		parts = append(parts, hash[i:i+1])
	}
	parts = append(parts, ImageName(salt, hash))
	return path.Join(parts...)
}
