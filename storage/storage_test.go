package storage

import "testing"

func TestStoreGet(t *testing.T) {
	m := NewMap()
	m.Store("hello", []byte("world from client!"))

	v, ok := m.Get("hello")
	if !ok {
		t.Fatal("expected key to be present")
	}
	if string(v) != "world from client!" {
		t.Errorf("got %q", v)
	}
}

func TestGetMissing(t *testing.T) {
	m := NewMap()
	if _, ok := m.Get("non_existent_key"); ok {
		t.Error("expected missing key to report absent")
	}
}

func TestOverwriteIsLastWriterWins(t *testing.T) {
	m := NewMap()
	m.Store("k", []byte("v1"))
	m.Store("k", []byte("v2"))

	v, ok := m.Get("k")
	if !ok || string(v) != "v2" {
		t.Errorf("got (%q, %v), want (v2, true)", v, ok)
	}
	if m.Count() != 1 {
		t.Errorf("count = %d, want 1", m.Count())
	}
}

func TestIdempotentWrite(t *testing.T) {
	m := NewMap()
	m.Store("k", []byte("v"))
	m.Store("k", []byte("v"))

	if m.Count() != 1 {
		t.Errorf("count = %d, want 1", m.Count())
	}
	v, _ := m.Get("k")
	if string(v) != "v" {
		t.Errorf("got %q, want v", v)
	}
}

func TestEmptyKeyRoundTrips(t *testing.T) {
	m := NewMap()
	m.Store("", []byte("value for empty key"))
	v, ok := m.Get("")
	if !ok || string(v) != "value for empty key" {
		t.Errorf("got (%q, %v)", v, ok)
	}
}

func TestEmptyValueRoundTrips(t *testing.T) {
	m := NewMap()
	m.Store("k", []byte{})
	v, ok := m.Get("k")
	if !ok {
		t.Fatal("expected key to be present")
	}
	if len(v) != 0 {
		t.Errorf("got %q, want empty value", v)
	}
}

func TestRemove(t *testing.T) {
	m := NewMap()
	m.Store("k", []byte("v"))
	if !m.Remove("k") {
		t.Error("expected Remove to report the key was present")
	}
	if m.Remove("k") {
		t.Error("expected second Remove to report absent")
	}
	if m.Exists("k") {
		t.Error("expected key to be gone")
	}
}

func TestCountTracksDistinctKeys(t *testing.T) {
	m := NewMap()
	keys := []string{
		"user:alice", "config:cache_size", "a", "b", "c",
		"d", "e", "f", "g", "h", "i", "j",
	}
	for _, k := range keys {
		m.Store(k, []byte(k))
	}
	if m.Count() != len(keys) {
		t.Errorf("count = %d, want %d", m.Count(), len(keys))
	}
	for _, k := range keys {
		v, ok := m.Get(k)
		if !ok || string(v) != k {
			t.Errorf("key %q: got (%q, %v)", k, v, ok)
		}
	}
}

func TestConcurrentWritesToSameKeyLeaveOneValue(t *testing.T) {
	m := NewMap()
	done := make(chan struct{})

	go func() {
		m.Store("k", []byte("v1"))
		close(done)
	}()
	m.Store("k", []byte("v2"))
	<-done

	v, ok := m.Get("k")
	if !ok {
		t.Fatal("expected key to be present")
	}
	if string(v) != "v1" && string(v) != "v2" {
		t.Errorf("torn write: got %q", v)
	}
}
