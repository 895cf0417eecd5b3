package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzmstrjp/kikitori/internal/quiz"
)

func testItems() []quiz.Item {
	return []quiz.Item{
		{
			ID:            "p1",
			Sentence:      "Could you pass the salt?",
			Translation:   "塩を取ってくれる？",
			Reply:         "はい、どうぞ。",
			Distractors:   []string{"砂糖を取ってくれる？", "窓を閉めてくれる？"},
			AudioSentence: "https://cdn.example.com/p1-sentence.mp3",
			AudioReply:    "https://cdn.example.com/p1-reply.mp3",
			SceneLabel:    "dinner table",
		},
		{
			ID:          "p2",
			Sentence:    "The train is delayed again.",
			Translation: "電車がまた遅れている。",
			SceneLabel:  "station platform",
		},
	}
}

func serveBatch(t *testing.T, items []quiz.Item) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/problems", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"problems": items})
	}))
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2.0}
}

func TestFetchBatch(t *testing.T) {
	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		json.NewEncoder(w).Encode(map[string]any{"problems": testItems()})
	}))
	defer srv.Close()

	c := NewClient(DefaultConfig(srv.URL), nil)
	items, err := c.FetchBatch(context.Background(), Filter{Difficulty: "easy", Length: "short"}, 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ID)

	q := gotQuery.Load().(url.Values)
	assert.Equal(t, []string{"easy"}, q["difficulty"])
	assert.Equal(t, []string{"short"}, q["length"])
	assert.Equal(t, []string{"5"}, q["limit"])
	assert.NotContains(t, q, "q")
}

func TestFetchBatchClampsLimit(t *testing.T) {
	var gotLimit atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit.Store(r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode(map[string]any{"problems": testItems()})
	}))
	defer srv.Close()

	c := NewClient(DefaultConfig(srv.URL), nil)
	_, err := c.FetchBatch(context.Background(), Filter{}, 100)
	require.NoError(t, err)
	assert.Equal(t, "10", gotLimit.Load())
}

func TestFetchBatchDropsInvalidItems(t *testing.T) {
	items := testItems()
	items = append(items, quiz.Item{ID: "", Sentence: "no id"})
	srv := serveBatch(t, items)
	defer srv.Close()

	c := NewClient(DefaultConfig(srv.URL), nil)
	got, err := c.FetchBatch(context.Background(), Filter{}, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFetchBatchEmpty(t *testing.T) {
	srv := serveBatch(t, nil)
	defer srv.Close()

	c := NewClient(DefaultConfig(srv.URL), nil)
	_, err := c.FetchBatch(context.Background(), Filter{}, 10)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestFetchBatchRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"problems": testItems()})
	}))
	defer srv.Close()

	cfg := DefaultConfig(srv.URL)
	cfg.Retry = fastRetry()
	c := NewClient(cfg, nil)

	items, err := c.FetchBatch(context.Background(), Filter{}, 10)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchBatchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := DefaultConfig(srv.URL)
	cfg.Retry = fastRetry()
	c := NewClient(cfg, nil)

	_, err := c.FetchBatch(context.Background(), Filter{}, 10)
	require.Error(t, err)
	var unavail *ErrServerUnavailable
	assert.False(t, errors.As(err, &unavail))
	assert.Equal(t, int32(1), calls.Load())
}

func TestFilterForRefillStripsSearch(t *testing.T) {
	f := Filter{Difficulty: "easy", Length: "short", Search: "train"}
	r := f.ForRefill()
	assert.Empty(t, r.Search)
	assert.Equal(t, "easy", r.Difficulty)
	assert.Equal(t, "easy-short", r.CourseID())
	assert.Equal(t, "any-any", Filter{}.CourseID())
}
