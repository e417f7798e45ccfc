// internal/adapters/feed/client.go
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"reviews_dashboard/internal/adapters/observability"
	"reviews_dashboard/internal/domain"
)

// defaultMaxPayload caps the CSV body read into memory.
const defaultMaxPayload = 512 << 20

type Client struct {
	url        string
	host       string
	hc         *http.Client
	rl         *rate.Limiter
	maxPayload int64
}

// New builds a client for one fixed CSV location. rps limits how often the
// location may be fetched (reloads); timeout <= 0 means no client timeout.
func New(rawURL string, rps float64, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid source URL %q", rawURL)
	}
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		url:        rawURL,
		host:       u.Host,
		hc:         &http.Client{Timeout: timeout},
		rl:         rate.NewLimiter(rate.Limit(rps), 1),
		maxPayload: defaultMaxPayload,
	}, nil
}

// Fetch performs a single GET. There is no retry: any transport error or
// non-2xx status is reported as domain.ErrFetchFailed.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "text/csv, text/plain, */*")
	req.Header.Set("User-Agent", "reviews-dashboard/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("feed", c.host, 0, time.Since(start))
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("feed", c.host, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrFetchFailed, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	// one byte past the cap tells a complete body from a cut-off one
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxPayload+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrFetchFailed, err)
	}
	if int64(len(body)) > c.maxPayload {
		return nil, fmt.Errorf("%w: payload too large (over %d bytes)", domain.ErrFetchFailed, c.maxPayload)
	}
	return body, nil
}
