package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	c, err := NewCache(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	return c
}

func TestFetchDownloadsOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("audio-bytes"))
	}))
	defer srv.Close()

	c := testCache(t)
	ctx := context.Background()

	p1, err := c.Fetch(ctx, srv.URL+"/clip.mp3")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	data, err := os.ReadFile(p1)
	if err != nil {
		t.Fatalf("read cached file: %v", err)
	}
	if string(data) != "audio-bytes" {
		t.Errorf("cached content = %q", data)
	}

	// Second fetch is a cache hit.
	p2, err := c.Fetch(ctx, srv.URL+"/clip.mp3")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if p1 != p2 {
		t.Errorf("paths differ: %q vs %q", p1, p2)
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testCache(t)
	if _, err := c.Fetch(context.Background(), srv.URL+"/gone.mp3"); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestWarmPopulatesCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	c := testCache(t)
	url := srv.URL + "/scene.webp"
	c.Warm(url)

	deadline := time.After(2 * time.Second)
	for {
		if _, err := os.Stat(c.path(url)); err == nil {
			return
		}
		select {
		case <-deadline:
			t.Fatal("warm never populated the cache")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPathStripsQueryNoise(t *testing.T) {
	c := testCache(t)
	p := c.path("https://cdn.example.com/a.mp3?sig=abc")
	if got := p; got == "" {
		t.Fatal("empty path")
	}
	// Signed URL extension contains query characters and must not leak in.
	if ext := p[len(p)-4:]; ext == "?sig" {
		t.Errorf("query leaked into cache filename: %q", p)
	}
}
