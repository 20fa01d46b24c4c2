// internal/testutil/helpers.go
package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// WriteImages writes n fake images below root, sharded levels deep, and
// returns their slash-separated paths relative to root.
func WriteImages(t *testing.T, root string, levels, n int) []string {
	t.Helper()
	rels := make([]string, 0, n)
	for i := 0; i < n; i++ {
		salt, hash := FakeImageName(i)
		parts := make([]string, 0, levels+1)
		for l := 0; l < levels && l < len(hash); l++ {
			parts = append(parts, hash[l:l+1])
		}
		parts = append(parts, "image_"+salt+"_"+hash+".png")
		rel := strings.Join(parts, "/")

		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(p), err)
		}
		if err := os.WriteFile(p, []byte("PNG-"+salt), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
		rels = append(rels, rel)
	}
	sort.Strings(rels)
	return rels
}

// RegularFiles lists the regular files below root as sorted slash paths
// relative to root. A missing root yields nil.
func RegularFiles(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == root {
				return filepath.SkipAll
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	sort.Strings(out)
	return out
}

// AssertNoEntriesWithPrefix fails if dir holds an entry whose name starts
// with prefix. Used to check that scratch directories were removed.
func AssertNoEntriesWithPrefix(t *testing.T, dir, prefix string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) {
			t.Errorf("leftover entry %s in %s", e.Name(), dir)
		}
	}
}
