package uplink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/scanpipe/scanpipe/internal/record"
)

// ErrSyncFailed reports that every attempt of one Send call failed.
// The local record is unaffected; there is no retry queue beyond the call.
var ErrSyncFailed = errors.New("sync failed")

// Policy controls retry behavior for one Send call.
// The full record is resent on every attempt.
type Policy struct {
	Attempts int           // total attempts (default 3)
	Interval time.Duration // delay between attempts (default 0, immediate retry)
}

// DefaultPolicy returns the stock 3-attempts-no-backoff policy.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3}
}

func (p Policy) withDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	return p
}

// Config holds client configuration.
type Config struct {
	Endpoint string        // remote URL records are POSTed to (required)
	Timeout  time.Duration // per-attempt HTTP timeout
	Policy   Policy
	Logger   *slog.Logger
}

// Client delivers records to a remote endpoint with bounded retries.
type Client struct {
	endpoint string
	policy   Policy
	client   *http.Client
	logger   *slog.Logger
}

// New creates an uplink client.
func New(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, errors.New("uplink endpoint required")
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		endpoint: config.Endpoint,
		policy:   config.Policy.withDefaults(),
		client:   &http.Client{Timeout: config.Timeout},
		logger:   config.Logger,
	}, nil
}

// Send POSTs rec to the endpoint. The first attempt that completes without a
// transport error short-circuits the rest; exhaustion returns ErrSyncFailed
// wrapped around the last attempt's error.
func (c *Client) Send(ctx context.Context, rec record.ScanRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.policy.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrSyncFailed, err)
		}
		lastErr = c.post(ctx, body)
		if lastErr == nil {
			c.logger.Debug("record synced", "id", rec.ID, "attempt", attempt)
			return nil
		}
		c.logger.Debug("sync attempt failed", "id", rec.ID, "attempt", attempt, "error", lastErr)
		if attempt < c.policy.Attempts && c.policy.Interval > 0 {
			select {
			case <-time.After(c.policy.Interval):
			case <-ctx.Done():
				return fmt.Errorf("%w: %w", ErrSyncFailed, ctx.Err())
			}
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrSyncFailed, c.policy.Attempts, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	// Drain so the connection can be reused across attempts.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("HTTP %d", resp.StatusCode)
}
