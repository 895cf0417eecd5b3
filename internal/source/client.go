package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jzmstrjp/kikitori/internal/quiz"
)

// DefaultBatchLimit bounds how many items one fetch may return.
const DefaultBatchLimit = 10

// ErrEmptyBatch is returned when the source answered successfully but had
// no items for the filter.
var ErrEmptyBatch = errors.New("source returned no items")

// ErrServerUnavailable marks transient HTTP failures worth retrying.
type ErrServerUnavailable struct {
	StatusCode int
}

func (e *ErrServerUnavailable) Error() string {
	return fmt.Sprintf("source unavailable: HTTP %d", e.StatusCode)
}

// Config holds item source connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Retry   RetryConfig
}

// DefaultConfig returns sensible defaults for the hosted quiz API.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 15 * time.Second,
		Retry:   DefaultRetryConfig(),
	}
}

// Client fetches quiz item batches from the external problem API. Items
// arrive with fully resolved, playable media URLs; the client does no URL
// construction or transcoding of its own.
type Client struct {
	cfg      Config
	http     *http.Client
	validate *validator.Validate
	log      *zap.Logger
}

// NewClient creates a Client for the given config.
func NewClient(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: timeout},
		validate: validator.New(),
		log:      log,
	}
}

// FetchBatch requests up to limit items matching the filter. Transient
// failures are retried with exponential backoff before the error is
// surfaced to the caller.
func (c *Client) FetchBatch(ctx context.Context, filter Filter, limit int) ([]quiz.Item, error) {
	if limit <= 0 || limit > DefaultBatchLimit {
		limit = DefaultBatchLimit
	}

	var items []quiz.Item
	err := withRetry(ctx, c.cfg.Retry, func() error {
		var err error
		items, err = c.fetchOnce(ctx, filter, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyBatch
	}
	return items, nil
}

func (c *Client) fetchOnce(ctx context.Context, filter Filter, limit int) ([]quiz.Item, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	u = u.JoinPath("api", "problems")

	q := u.Query()
	if filter.Difficulty != "" {
		q.Set("difficulty", filter.Difficulty)
	}
	if filter.Length != "" {
		q.Set("length", filter.Length)
	}
	if filter.Search != "" {
		q.Set("q", filter.Search)
	}
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &ErrServerUnavailable{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch batch: HTTP %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		Problems []quiz.Item `json:"problems"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}

	// Drop malformed items instead of failing the whole batch; one bad
	// record in the pool must not stall the session.
	items := payload.Problems[:0]
	for _, it := range payload.Problems {
		if err := c.validate.Struct(it); err != nil {
			c.log.Warn("dropping invalid item", zap.String("id", it.ID), zap.Error(err))
			continue
		}
		items = append(items, it)
	}
	return items, nil
}
