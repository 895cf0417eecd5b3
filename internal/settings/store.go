package settings

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// Substrate is the durable key/value layer under the settings store.
// Production uses the SQLite kv table; tests use an in-memory map.
type Substrate interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Store holds per-course session settings and the correct-answer streak.
// Reads are synchronous from an in-memory cache; writes persist to the
// substrate and broadcast through the broker so every store sharing the
// broker (the writer included) observes the change without a re-read.
//
// Persistence failures are logged and otherwise swallowed: the in-memory
// value still updates so the session keeps going (best-effort durability).
type Store struct {
	sub    Substrate
	broker *Broker
	log    *zap.Logger

	mu    sync.RWMutex
	cache map[string]string
}

// New creates a Store over the given substrate and broker and subscribes it
// to change notifications.
func New(sub Substrate, broker *Broker, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		sub:    sub,
		broker: broker,
		log:    log,
		cache:  make(map[string]string),
	}
	broker.Subscribe(s.apply)
	return s
}

func (s *Store) apply(ch Change) {
	s.mu.Lock()
	s.cache[ch.Key] = ch.Value
	s.mu.Unlock()
}

// read returns the cached value, falling back to the substrate on a cache
// miss, and the given default when the key was never written.
func (s *Store) read(ctx context.Context, key, def string) string {
	s.mu.RLock()
	v, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return v
	}

	v, ok, err := s.sub.Get(ctx, key)
	if err != nil {
		s.log.Warn("settings read failed", zap.String("key", key), zap.Error(err))
		return def
	}
	if !ok {
		return def
	}

	s.mu.Lock()
	s.cache[key] = v
	s.mu.Unlock()
	return v
}

// write persists and broadcasts. The broadcast happens even when the
// persist fails, keeping the live session consistent in memory.
func (s *Store) write(ctx context.Context, key, value string) {
	if err := s.sub.Set(ctx, key, value); err != nil {
		s.log.Warn("settings write failed", zap.String("key", key), zap.Error(err))
	}
	s.broker.Publish(Change{Key: key, Value: value})
}

func courseKey(courseID, field string) string {
	return "course:" + courseID + ":" + field
}

// NativeReplyEnabled reports whether the Japanese reply clip should play
// instead of the English one. Defaults to false.
func (s *Store) NativeReplyEnabled(ctx context.Context, courseID string) bool {
	return s.read(ctx, courseKey(courseID, "native_reply"), "false") == "true"
}

// SetNativeReplyEnabled toggles the reply-audio language for the course.
func (s *Store) SetNativeReplyEnabled(ctx context.Context, courseID string, on bool) {
	s.write(ctx, courseKey(courseID, "native_reply"), strconv.FormatBool(on))
}

// ImageHidden reports whether scene images are suppressed for the course.
// Defaults to false.
func (s *Store) ImageHidden(ctx context.Context, courseID string) bool {
	return s.read(ctx, courseKey(courseID, "hide_image"), "false") == "true"
}

// SetImageHidden toggles scene image display for the course.
func (s *Store) SetImageHidden(ctx context.Context, courseID string, hidden bool) {
	s.write(ctx, courseKey(courseID, "hide_image"), strconv.FormatBool(hidden))
}

// Streak returns the current consecutive-correct count for the course.
// Defaults to 0; a corrupted stored value also reads as 0.
func (s *Store) Streak(ctx context.Context, courseID string) int {
	v := s.read(ctx, courseKey(courseID, "streak"), "0")
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// IncrementStreak bumps the streak by one and returns the new value.
// The write is synchronous with the call so a crash immediately after an
// answer never loses or double-counts it.
func (s *Store) IncrementStreak(ctx context.Context, courseID string) int {
	n := s.Streak(ctx, courseID) + 1
	s.write(ctx, courseKey(courseID, "streak"), strconv.Itoa(n))
	return n
}

// ResetStreak sets the streak back to zero. Resetting an already-zero
// streak stays at zero.
func (s *Store) ResetStreak(ctx context.Context, courseID string) {
	s.write(ctx, courseKey(courseID, "streak"), "0")
}

// MemorySubstrate is a Substrate backed by a plain map, for tests and for
// running without a database.
type MemorySubstrate struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemorySubstrate creates an empty in-memory substrate.
func NewMemorySubstrate() *MemorySubstrate {
	return &MemorySubstrate{m: make(map[string]string)}
}

func (ms *MemorySubstrate) Get(_ context.Context, key string) (string, bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	v, ok := ms.m[key]
	return v, ok, nil
}

func (ms *MemorySubstrate) Set(_ context.Context, key, value string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.m[key] = value
	return nil
}
