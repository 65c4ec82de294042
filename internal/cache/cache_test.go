package cache

import (
	"testing"
	"time"
)

func TestPutGet(t *testing.T) {
	c, err := New(true, t.TempDir(), 3600)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	key := HashKey("model\x00prompt")
	if err := c.Put(key, "FILE: a.go\nISSUE: x\n---"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Get missed after Put")
	}
	if got != "FILE: a.go\nISSUE: x\n---" {
		t.Errorf("Get = %q", got)
	}
}

func TestGetMiss(t *testing.T) {
	c, _ := New(true, t.TempDir(), 3600)
	if _, ok := c.Get("absent"); ok {
		t.Error("Get hit on empty cache")
	}
}

func TestDisabledCacheNoOps(t *testing.T) {
	c, err := New(false, "", 0)
	if err != nil {
		t.Fatalf("New disabled: %v", err)
	}
	if err := c.Put("k", "v"); err != nil {
		t.Errorf("Put on disabled: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("disabled cache returned a hit")
	}
	if c.Enabled() {
		t.Error("Enabled() = true")
	}
}

func TestExpiry(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(true, dir, 1)
	key := HashKey("k")
	if err := c.Put(key, "v"); err != nil {
		t.Fatal(err)
	}

	if got, ok := c.Get(key); !ok || got != "v" {
		t.Fatalf("fresh entry = %q, %v", got, ok)
	}

	time.Sleep(1100 * time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Error("expired entry still served")
	}
}

func TestClearAndStats(t *testing.T) {
	c, _ := New(true, t.TempDir(), 3600)
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Put(k, "reply-"+k); err != nil {
			t.Fatal(err)
		}
	}
	stats, err := c.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Entries != 3 {
		t.Errorf("Entries = %d, want 3", stats.Entries)
	}
	if stats.TotalBytes == 0 {
		t.Error("TotalBytes = 0")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	stats, _ = c.GetStats()
	if stats.Entries != 0 {
		t.Errorf("Entries after Clear = %d", stats.Entries)
	}
}
