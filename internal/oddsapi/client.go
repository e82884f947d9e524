package oddsapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// RateLimitedClient wraps http.Client with rate limiting and a hard
// per-request timeout. Failed requests are not retried here - the scheduler's
// cadence naturally re-attempts failed work on the next tick.
type RateLimitedClient struct {
	client      *http.Client
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

func newRateLimiter(requestsPerMinute int) *rateLimiter {
	refillRate := time.Minute / time.Duration(requestsPerMinute)
	return &rateLimiter{
		tokens:     requestsPerMinute / 6, // Start with 10 seconds worth
		maxTokens:  requestsPerMinute / 6, // Max burst of 10 seconds
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (rl *rateLimiter) wait() {
	for {
		rl.mu.Lock()

		// Refill tokens based on time elapsed
		now := time.Now()
		elapsed := now.Sub(rl.lastRefill)
		tokensToAdd := int(elapsed / rl.refillRate)
		if tokensToAdd > 0 {
			rl.tokens = min(rl.tokens+tokensToAdd, rl.maxTokens)
			rl.lastRefill = now
		}

		// If tokens available, consume one and return
		if rl.tokens > 0 {
			rl.tokens--
			rl.mu.Unlock()
			return
		}

		// Calculate wait time and release lock before sleeping
		waitTime := rl.refillRate
		rl.mu.Unlock()
		time.Sleep(waitTime)
		// Loop back to re-check with lock
	}
}

// NewRateLimitedClient creates a client limited to requestsPerMinute.
func NewRateLimitedClient(requestsPerMinute int, timeout time.Duration) *RateLimitedClient {
	return &RateLimitedClient{
		client: &http.Client{
			Timeout: timeout,
		},
		rateLimiter: newRateLimiter(requestsPerMinute),
	}
}

// Get performs a rate-limited GET request and returns the response body.
func (c *RateLimitedClient) Get(ctx context.Context, url string) ([]byte, error) {
	c.rateLimiter.wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
