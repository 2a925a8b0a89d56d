package clock

import (
	"testing"
	"time"
)

func TestMonotonicAcrossRefresh(t *testing.T) {
	c := New()
	defer c.Close()

	t1 := c.Now()
	time.Sleep(500 * time.Millisecond)
	t2 := c.Now()

	if t2 < t1 {
		t.Fatalf("clock went backwards: t1=%d t2=%d", t1, t2)
	}
	diff := t2 - t1
	if diff < 300_000_000 || diff > 700_000_000 {
		t.Fatalf("500ms sleep produced clock delta %dns, want roughly 300-700ms", diff)
	}
}

func TestNowHasNoSyscallOnHotPath(t *testing.T) {
	c := New()
	defer c.Close()

	start := time.Now()
	for i := 0; i < 1_000_000; i++ {
		_ = c.Now()
	}
	elapsed := time.Since(start)
	if elapsed > 50*time.Millisecond {
		t.Fatalf("1,000,000 Now() calls took %v, want well under 50ms", elapsed)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New()
	c.Close()
	c.Close()
}
