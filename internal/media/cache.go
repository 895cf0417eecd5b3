package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Cache downloads remote audio/image assets into a local directory keyed by
// URL hash. Warming the assets of the current and next queue items ahead of
// playback is what hides network latency during normal play: by the time the
// learner advances, the files are already on disk.
type Cache struct {
	dir  string
	http *http.Client
	log  *zap.Logger

	mu       sync.Mutex
	inflight map[string]chan struct{}
}

// NewCache creates a Cache rooted at dir.
func NewCache(dir string, log *zap.Logger) (*Cache, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{
		dir:      dir,
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      log,
		inflight: make(map[string]chan struct{}),
	}, nil
}

// DefaultCacheDir resolves the media cache directory:
// $XDG_CACHE_HOME/kikitori/media, falling back to ~/.cache/kikitori/media.
func DefaultCacheDir() (string, error) {
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheHome, "kikitori", "media"), nil
}

// path maps a URL to its cache file location.
func (c *Cache) path(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	name := hex.EncodeToString(sum[:16])
	if ext := filepath.Ext(rawURL); ext != "" && len(ext) <= 5 && !strings.ContainsAny(ext, "?&") {
		name += ext
	}
	return filepath.Join(c.dir, name)
}

// Fetch returns the local path for rawURL, downloading it first on a cache
// miss. Concurrent fetches of the same URL are coalesced into one download.
func (c *Cache) Fetch(ctx context.Context, rawURL string) (string, error) {
	dst := c.path(rawURL)
	if _, err := os.Stat(dst); err == nil {
		return dst, nil
	}

	// Coalesce concurrent downloads of the same URL.
	c.mu.Lock()
	if ch, ok := c.inflight[rawURL]; ok {
		c.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		if _, err := os.Stat(dst); err == nil {
			return dst, nil
		}
		return "", fmt.Errorf("download %s: concurrent attempt failed", rawURL)
	}
	ch := make(chan struct{})
	c.inflight[rawURL] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inflight, rawURL)
		c.mu.Unlock()
		close(ch)
	}()

	if err := c.download(ctx, rawURL, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// Warm eagerly fetches every URL in the background. Failures are logged and
// otherwise ignored; a later Fetch simply retries.
func (c *Cache) Warm(urls ...string) {
	for _, u := range urls {
		go func(u string) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, err := c.Fetch(ctx, u); err != nil {
				c.log.Debug("media warm-up failed", zap.String("url", u), zap.Error(err))
			}
		}(u)
	}
}

func (c *Cache) download(ctx context.Context, rawURL, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: HTTP %d", rawURL, resp.StatusCode)
	}

	// Write to a temp file first so a torn download never poisons the cache.
	tmp, err := os.CreateTemp(c.dir, ".partial-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("finalize %s: %w", dst, err)
	}
	return nil
}
