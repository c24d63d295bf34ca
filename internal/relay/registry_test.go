package relay

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestSession(id string) *Session {
	return NewSession(id, "CA"+id, "+14155551234", nil, nil)
}

func TestRegistry_PutGetRemove(t *testing.T) {
	r := NewRegistry()

	sess := newTestSession("s1")
	r.Put(sess)

	got, ok := r.Get("s1")
	if !ok {
		t.Fatal("Get() returned false for registered session")
	}
	if got.ID != "s1" {
		t.Errorf("Get() returned session %q, want s1", got.ID)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	r.Remove("s1")
	if _, ok := r.Get("s1"); ok {
		t.Error("Get() returned true after Remove")
	}

	// Removing an absent id must not panic
	r.Remove("s1")
	r.Remove("never-existed")
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			r.Put(newTestSession(id))
			r.Get(id)
			r.Remove(id)
		}(i)
	}
	wg.Wait()

	if r.Len() != 0 {
		t.Errorf("Len() = %d after balanced put/remove, want 0", r.Len())
	}
}

func TestRegistry_Sweep(t *testing.T) {
	r := NewRegistry()

	stale := newTestSession("stale")
	stale.mu.Lock()
	stale.lastActivity = time.Now().Add(-10 * time.Minute)
	stale.mu.Unlock()
	r.Put(stale)

	fresh := newTestSession("fresh")
	r.Put(fresh)

	swept := r.Sweep(5 * time.Minute)
	if len(swept) != 1 {
		t.Fatalf("Sweep() returned %d sessions, want 1", len(swept))
	}
	if swept[0].ID != "stale" {
		t.Errorf("Sweep() evicted %q, want stale", swept[0].ID)
	}
	if _, ok := r.Get("stale"); ok {
		t.Error("swept session still registered")
	}
	if _, ok := r.Get("fresh"); !ok {
		t.Error("fresh session was evicted")
	}
}

func TestRegistry_GetCountsAsActivity(t *testing.T) {
	r := NewRegistry()

	sess := newTestSession("s1")
	sess.mu.Lock()
	sess.lastActivity = time.Now().Add(-10 * time.Minute)
	sess.mu.Unlock()
	r.Put(sess)

	r.Get("s1")

	if swept := r.Sweep(5 * time.Minute); len(swept) != 0 {
		t.Errorf("Sweep() evicted %d sessions after recent Get, want 0", len(swept))
	}
}
