package cache

import (
	"testing"
	"time"
)

func TestCache_SetGetExpire(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(time.Second)
	c.now = func() time.Time { return now }

	c.Set("users", []string{"u1"})

	v, ok := c.Get("users")
	if !ok {
		t.Fatalf("expected hit")
	}
	if got := v.([]string); len(got) != 1 || got[0] != "u1" {
		t.Fatalf("unexpected value: %v", got)
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("users"); ok {
		t.Fatalf("expected entry to expire")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be evicted, len=%d", c.Len())
	}
}

func TestCache_Delete(t *testing.T) {
	c := New(time.Minute)
	c.Set("users", 1)
	c.Delete("users")

	if _, ok := c.Get("users"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestCache_DefaultTTL(t *testing.T) {
	if c := New(0); c.ttl != 5*time.Second {
		t.Fatalf("got ttl %v, want 5s", c.ttl)
	}
}
