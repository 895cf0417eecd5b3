package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db handle")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestKVGetSet(t *testing.T) {
	s := openTestStore(t)
	kv := s.KV()
	ctx := context.Background()

	// Absent key.
	_, ok, err := kv.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if ok {
		t.Fatal("expected absent key")
	}

	// Write then read.
	if err := kv.Set(ctx, "course:n4-short:streak", "3"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := kv.Get(ctx, "course:n4-short:streak")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || v != "3" {
		t.Errorf("get = (%q, %v), want (\"3\", true)", v, ok)
	}

	// Overwrite.
	if err := kv.Set(ctx, "course:n4-short:streak", "4"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, _, _ = kv.Get(ctx, "course:n4-short:streak")
	if v != "4" {
		t.Errorf("after overwrite = %q, want \"4\"", v)
	}
}

func TestKVDeleteAndList(t *testing.T) {
	s := openTestStore(t)
	kv := s.KV()
	ctx := context.Background()

	pairs := map[string]string{
		"course:a:streak":     "5",
		"course:a:hide_image": "true",
		"course:b:streak":     "2",
	}
	for k, v := range pairs {
		if err := kv.Set(ctx, k, v); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}

	got, err := kv.List(ctx, "course:a:")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("list len = %d, want 2 (%v)", len(got), got)
	}

	if err := kv.DeletePrefix(ctx, "course:a:"); err != nil {
		t.Fatalf("delete prefix: %v", err)
	}
	_, ok, _ := kv.Get(ctx, "course:a:streak")
	if ok {
		t.Error("expected course:a:streak gone after prefix delete")
	}
	_, ok, _ = kv.Get(ctx, "course:b:streak")
	if !ok {
		t.Error("expected course:b:streak to survive prefix delete")
	}

	// Deleting an absent key is fine.
	if err := kv.Delete(ctx, "nope"); err != nil {
		t.Errorf("delete absent: %v", err)
	}
}
