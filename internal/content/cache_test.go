package content

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
)

func writeCachePack(t *testing.T, path, hook string) {
	t.Helper()
	doc := `[{"id": 1, "category": "focus", "hook": "` + hook + `", "body_text": "b", "closing_text": "c"}]`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing pack: %v", err)
	}
}

func TestPackCacheReusesUnchangedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tips.json")
	writeCachePack(t, path, "first")

	cache := NewPackCache()

	p1, err := cache.Load("tips", path, Fields{})
	if err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	p2, err := cache.Load("tips", path, Fields{})
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}

	if p1 != p2 {
		t.Error("unchanged pack should be served from cache")
	}
	hits, misses := cache.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("Stats() = %d hits / %d misses, want 1/1", hits, misses)
	}
	if cache.Size() != 1 {
		t.Errorf("Size() = %d, want 1", cache.Size())
	}
}

func TestPackCacheReloadsModifiedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tips.json")
	writeCachePack(t, path, "first")

	cache := NewPackCache()
	if _, err := cache.Load("tips", path, Fields{}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	writeCachePack(t, path, "second")
	// Guard against filesystems with coarse mtime resolution.
	stale := time.Now().Add(-2 * time.Second)
	if err := os.Chtimes(path, stale, stale); err != nil {
		t.Fatalf("touching pack: %v", err)
	}

	p, err := cache.Load("tips", path, Fields{})
	if err != nil {
		t.Fatalf("Load() after edit error = %v", err)
	}
	item, err := p.Item(1)
	if err != nil {
		t.Fatalf("Item(1) error = %v", err)
	}
	if item.Hook != "second" {
		t.Errorf("hook = %q, want the reloaded value", item.Hook)
	}
}

func TestPackCacheMissingFile(t *testing.T) {
	cache := NewPackCache()

	_, err := cache.Load("tips", filepath.Join(t.TempDir(), "nope.json"), Fields{})
	if err == nil {
		t.Fatal("Load() should fail for a missing pack")
	}
	if !kiinerrors.HasCode(err, kiinerrors.CodeMissingConfig) {
		t.Errorf("error code = %v, want %v", kiinerrors.GetCode(err), kiinerrors.CodeMissingConfig)
	}
	if cache.Size() != 0 {
		t.Errorf("Size() = %d after failed load, want 0", cache.Size())
	}
}

func TestPackCacheInvalidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tips.json")
	writeCachePack(t, path, "first")

	cache := NewPackCache()
	if _, err := cache.Load("tips", path, Fields{}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cache.Invalidate("tips")
	if _, err := cache.Load("tips", path, Fields{}); err != nil {
		t.Fatalf("Load() after invalidate error = %v", err)
	}

	_, misses := cache.Stats()
	if misses != 2 {
		t.Errorf("misses = %d, want 2 after invalidation", misses)
	}
}

func TestPackCacheConcurrentLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tips.json")
	writeCachePack(t, path, "first")

	cache := NewPackCache()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load("tips", path, Fields{}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load() error = %v", err)
	}
	if cache.Size() != 1 {
		t.Errorf("Size() = %d, want 1", cache.Size())
	}
}
