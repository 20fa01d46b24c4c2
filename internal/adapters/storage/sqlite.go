package storage

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS captcha_dirs (
	dir        TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS captcha_blobs (
	key       TEXT PRIMARY KEY,
	dir       TEXT NOT NULL,
	data      BLOB NOT NULL,
	sha1      TEXT NOT NULL,
	size      INTEGER NOT NULL,
	stored_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_captcha_blobs_dir ON captcha_blobs(dir);
`

// SQLiteBackend keeps the pool in a single SQLite file, one row per image.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// OpenSQLiteBackend opens (creating if needed) the database at dbPath.
// ":memory:" gives a private in-memory database.
func OpenSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite backend: database path is empty")
	}
	memory := dbPath == ":memory:"
	if !memory {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite backend: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite backend: open: %w", err)
	}
	if memory {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	if !memory {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite backend: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite backend: schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite backend: ping: %w", err)
	}

	return &SQLiteBackend{db: db, path: dbPath}, nil
}

func (s *SQLiteBackend) Name() string { return TypeSQLite }

// ListFiles returns the sorted keys below dir.
func (s *SQLiteBackend) ListFiles(ctx context.Context, dir string) ([]string, error) {
	d, err := cleanDir(dir)
	if err != nil {
		return nil, err
	}

	var rows *sql.Rows
	if d == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT key FROM captcha_blobs ORDER BY key`)
	} else {
		// keys below d sort in [d+"/", d+"0"), '0' being the byte after '/'
		rows, err = s.db.QueryContext(ctx,
			`SELECT key FROM captcha_blobs WHERE key >= ? AND key < ? ORDER BY key`,
			d+"/", d+"0")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite backend: list %s: %w", dir, err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("sqlite backend: scan: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite backend: list %s: %w", dir, err)
	}
	return keys, nil
}

// PrepareDirectory records dir in captcha_dirs.
func (s *SQLiteBackend) PrepareDirectory(ctx context.Context, dir string) error {
	d, err := cleanDir(dir)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO captcha_dirs (dir, created_at) VALUES (?, ?)`,
		d, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("sqlite backend: prepare %s: %w", dir, err)
	}
	return nil
}

// StoreFile reads src and upserts it under dst.
func (s *SQLiteBackend) StoreFile(ctx context.Context, src, dst string) error {
	key, err := cleanKey(dst)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("sqlite backend: read %s: %w", src, err)
	}
	sum := sha1.Sum(data)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO captcha_blobs (key, dir, data, sha1, size, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			data = excluded.data,
			sha1 = excluded.sha1,
			size = excluded.size,
			stored_at = excluded.stored_at`,
		key, path.Dir(key), data, hex.EncodeToString(sum[:]), len(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("sqlite backend: store %s: %w", dst, err)
	}
	return nil
}

// DeleteFile removes key if present.
func (s *SQLiteBackend) DeleteFile(ctx context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM captcha_blobs WHERE key = ?`, k); err != nil {
		return fmt.Errorf("sqlite backend: delete %s: %w", key, err)
	}
	return nil
}

// Read returns the stored bytes for key or ErrNotFound.
func (s *SQLiteBackend) Read(ctx context.Context, key string) ([]byte, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = s.db.QueryRowContext(ctx, `SELECT data FROM captcha_blobs WHERE key = ?`, k).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, k)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite backend: read %s: %w", key, err)
	}
	return data, nil
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
