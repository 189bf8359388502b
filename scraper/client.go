package scraper

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/aluiziolira/go-scrape-hys/config"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Client issues throttled GET requests against the platform with a
// bounded retry budget. All requests, text and file alike, pass through
// one shared throttle.
type Client struct {
	http       *http.Client
	throttle   *throttle
	maxRetries int
	chunkSize  int
	userAgent  string
	metrics    *Metrics

	// cache memoizes successful text responses by URL so repeated
	// library calls within one process do not re-hit the platform.
	// Cache hits bypass the throttle: no request leaves the process.
	cache *lru.Cache[string, []byte]

	requestCount int64
	retryCount   int64
}

// NewClient builds a throttled client from cfg.
func NewClient(cfg *config.Config, metrics *Metrics) (*Client, error) {
	c := &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   cfg.Timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		throttle:   newThrottle(cfg.SleepTime),
		maxRetries: cfg.MaxRetries,
		chunkSize:  cfg.ChunkSize,
		userAgent:  cfg.UserAgent,
		metrics:    metrics,
	}

	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, []byte](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create response cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Get performs a throttled GET and returns the response body. Transport
// errors and non-2xx statuses are retried up to the budget, each
// attempt throttled; exhaustion yields a *RemoteRequestError carrying
// the last observed status.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if c.cache != nil {
		if body, ok := c.cache.Get(url); ok {
			return body, nil
		}
	}

	var lastStatus int
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			atomic.AddInt64(&c.retryCount, 1)
			c.metrics.IncRetries()
		}

		body, status, err := c.fetch(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			lastStatus = 0
			continue
		}
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			lastErr = nil
			lastStatus = status
			continue
		}

		if c.cache != nil {
			c.cache.Add(url, body)
		}
		return body, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("get %s: %w", url, lastErr)
	}
	return nil, &RemoteRequestError{URL: url, Status: lastStatus}
}

// fetch performs one throttled attempt. The throttle timestamp is
// updated whether or not the request succeeded.
func (c *Client) fetch(ctx context.Context, url string) ([]byte, int, error) {
	c.throttle.wait()
	defer c.throttle.mark()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	atomic.AddInt64(&c.requestCount, 1)
	c.metrics.IncRequest("text")
	c.metrics.ObserveDuration(time.Since(start))
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// GetFile performs a throttled GET and streams the body to path in
// fixed-size chunks. Callers pass a temporary path and finalize with a
// rename, so a pre-existing destination is never partially overwritten.
func (c *Client) GetFile(ctx context.Context, url, path string) error {
	c.throttle.wait()
	defer c.throttle.mark()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	atomic.AddInt64(&c.requestCount, 1)
	c.metrics.IncRequest("file")
	c.metrics.ObserveDuration(time.Since(start))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		io.Copy(io.Discard, resp.Body)
		return &RemoteRequestError{URL: url, Status: resp.StatusCode}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	buf := make([]byte, c.chunkSize)
	if _, err := io.CopyBuffer(f, resp.Body, buf); err != nil {
		f.Close()
		return fmt.Errorf("stream %s: %w", url, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Requests returns the number of HTTP requests issued so far.
func (c *Client) Requests() int {
	return int(atomic.LoadInt64(&c.requestCount))
}

// Retries returns the number of retry attempts made so far.
func (c *Client) Retries() int {
	return int(atomic.LoadInt64(&c.retryCount))
}
