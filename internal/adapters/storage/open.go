package storage

import (
	"fancycaptcha/internal/core/ports"
	"fancycaptcha/internal/platform/config"
	"fancycaptcha/internal/platform/errors"
)

// Backend types accepted by Open.
const (
	TypeFS     = "fs"
	TypeSQLite = "sqlite"
	TypeMemory = "memory"
)

// Open returns the backend selected by cfg.Type. An unknown type is an
// errors.ErrConfiguration.
func Open(cfg config.Storage) (ports.Backend, error) {
	switch cfg.Type {
	case TypeFS:
		b, err := NewFSBackend(cfg.Path)
		if err != nil {
			return nil, errors.Classify(errors.ErrConfiguration, err, "open %s backend at %q", cfg.Type, cfg.Path)
		}
		return b, nil
	case TypeSQLite:
		b, err := OpenSQLiteBackend(cfg.Path)
		if err != nil {
			return nil, errors.Classify(errors.ErrConfiguration, err, "open %s backend at %q", cfg.Type, cfg.Path)
		}
		return b, nil
	case TypeMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, errors.Classify(errors.ErrConfiguration, nil,
			"unknown storage type %q (want %s, %s or %s)", cfg.Type, TypeFS, TypeSQLite, TypeMemory)
	}
}
