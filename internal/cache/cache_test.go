package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/watchdog/internal/model"
)

func TestKey(t *testing.T) {
	a := Key("llm", "ab", "c")
	b := Key("llm", "a", "bc")
	if a == b {
		t.Error("Expected length-prefixed parts to produce distinct keys")
	}
	if !strings.HasPrefix(a, KeyPrefix+"llm:") {
		t.Errorf("Expected namespaced key, got %s", a)
	}
	if Key("llm", "x") != Key("llm", "x") {
		t.Error("Expected deterministic keys")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if got, ok := c.Get("k"); !ok || string(got) != "v" {
		t.Errorf("Expected hit v, got %q %v", got, ok)
	}
	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("Expected miss after delete")
	}
}

func TestDiskCacheExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := Key("evidence", "https://example.com")

	if err := c.Set(key, []byte("body"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, ok := c.Get(key); !ok || string(got) != "body" {
		t.Errorf("Expected hit, got %q %v", got, ok)
	}

	if err := c.Set(key, []byte("stale"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Error("Expected expired entry to miss")
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("Delete of missing entry should succeed, got %v", err)
	}
}

func TestLayeredPromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Hour)
	if err := disk.Set("k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}

	c := NewLayeredCache(time.Minute, dir, time.Hour)
	if got, ok := c.Get("k"); !ok || string(got) != "v" {
		t.Fatalf("Expected disk hit, got %q %v", got, ok)
	}
	if _, ok := c.memory.Get("k"); !ok {
		t.Error("Expected disk hit to be promoted to memory")
	}
}

func TestNew(t *testing.T) {
	if _, ok := New(model.CacheConfig{}).(Noop); !ok {
		t.Error("Expected disabled cache to be Noop")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute}).(*MemoryCache); !ok {
		t.Error("Expected memory-only cache without disk dir")
	}

	c := New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute, DiskDir: t.TempDir(), DiskTTL: time.Hour})
	if _, ok := c.(*LayeredCache); !ok {
		t.Errorf("Expected layered cache, got %T", c)
	}
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	type entry struct{ Text string }

	if err := SetJSON(c, "k", entry{Text: "hi"}, 0); err != nil {
		t.Fatal(err)
	}
	var got entry
	if !GetJSON(c, "k", &got) || got.Text != "hi" {
		t.Errorf("Expected round trip, got %+v", got)
	}
	if GetJSON(c, "missing", &got) {
		t.Error("Expected miss")
	}
}
