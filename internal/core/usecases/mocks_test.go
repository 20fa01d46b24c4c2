// internal/core/usecases/mocks_test.go
package usecases

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"fancycaptcha/internal/core/domain"
	"fancycaptcha/internal/core/ports"
)

// fakeImage is one file the mock generator writes.
type fakeImage struct {
	Salt string
	Hash string
}

func (f fakeImage) name() string { return domain.ImageName(f.Salt, f.Hash) }

// imagesFrom returns n images with salts start, start+1, ... and distinct
// eight character hashes.
func imagesFrom(start, n int) []fakeImage {
	out := make([]fakeImage, n)
	for i := range out {
		v := start + i
		out[i] = fakeImage{
			Salt: fmt.Sprintf("%x", v),
			Hash: fmt.Sprintf("%08x", uint32(v)*2654435761),
		}
	}
	return out
}

// mockGenerator writes images into the invocation's output dir, sharded like
// the real generator, and records every invocation.
type mockGenerator struct {
	mu          sync.Mutex
	invocations []domain.Invocation

	// images to write; nil writes Count images starting at salt 0x1000
	images []fakeImage
	// extra non-image files written to the output root
	extra []string
	// err is returned after the files are written
	err error
}

func (m *mockGenerator) Name() string { return "mock" }

func (m *mockGenerator) Generate(ctx context.Context, inv domain.Invocation) error {
	m.mu.Lock()
	m.invocations = append(m.invocations, inv)
	m.mu.Unlock()

	images := m.images
	if images == nil {
		images = imagesFrom(0x1000, inv.Request.Count)
	}
	for _, img := range images {
		dir := inv.OutputDir
		for l := 0; l < inv.DirectoryLevels && l < len(img.Hash); l++ {
			dir = filepath.Join(dir, img.Hash[l:l+1])
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, img.name()), []byte("PNG-"+img.Salt), 0o644); err != nil {
			return err
		}
	}
	for _, name := range m.extra {
		if err := os.WriteFile(filepath.Join(inv.OutputDir, name), []byte("junk"), 0o644); err != nil {
			return err
		}
	}
	return m.err
}

func (m *mockGenerator) calls() []domain.Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Invocation(nil), m.invocations...)
}

// recordingBackend wraps a backend and records the order of operations as
// "list:<dir>", "store:<key>" and "delete:<key>". Store and delete failures
// can be injected per key.
type recordingBackend struct {
	ports.Backend

	mu  sync.Mutex
	ops []string

	storeErr  map[string]error
	deleteErr map[string]error
}

func newRecordingBackend(inner ports.Backend) *recordingBackend {
	return &recordingBackend{
		Backend:   inner,
		storeErr:  make(map[string]error),
		deleteErr: make(map[string]error),
	}
}

func (r *recordingBackend) record(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *recordingBackend) ListFiles(ctx context.Context, dir string) ([]string, error) {
	r.record("list:" + dir)
	return r.Backend.ListFiles(ctx, dir)
}

func (r *recordingBackend) StoreFile(ctx context.Context, src, dst string) error {
	r.record("store:" + dst)
	if err, ok := r.storeErr[dst]; ok {
		return err
	}
	return r.Backend.StoreFile(ctx, src, dst)
}

func (r *recordingBackend) DeleteFile(ctx context.Context, key string) error {
	r.record("delete:" + key)
	if err, ok := r.deleteErr[key]; ok {
		return err
	}
	return r.Backend.DeleteFile(ctx, key)
}

func (r *recordingBackend) operations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

// count returns how many recorded operations start with prefix.
func (r *recordingBackend) count(prefix string) int {
	n := 0
	for _, op := range r.operations() {
		if strings.HasPrefix(op, prefix) {
			n++
		}
	}
	return n
}

// eventRecorder collects notifier events.
type eventRecorder struct {
	mu     sync.Mutex
	events []ports.Event
}

func (e *eventRecorder) Notify(ev ports.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *eventRecorder) ofType(t ports.EventType) []ports.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []ports.Event
	for _, ev := range e.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
