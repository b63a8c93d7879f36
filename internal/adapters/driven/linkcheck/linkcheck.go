// Package linkcheck provides an HTTP LinkProber with proactive rate limiting.
package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure Prober implements the interface.
var _ driven.LinkProber = (*Prober)(nil)

const (
	// UserAgent identifies probe requests.
	UserAgent = "marginalia-linkcheck/1.0"

	// maxRetryAfter caps how long a Retry-After header can make us wait.
	maxRetryAfter = 5 * time.Second

	// maxRedirects bounds redirect chains.
	maxRedirects = 10
)

// Prober checks URLs with HEAD, falling back to GET for servers that
// reject HEAD.
type Prober struct {
	client  *http.Client
	limiter *rate.Limiter
}

// Option configures a Prober.
type Option func(*Prober)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Prober) {
		if c != nil {
			p.client = c
		}
	}
}

// New creates a prober allowing rps requests per second.
func New(rps float64, timeout time.Duration, opts ...Option) *Prober {
	if rps <= 0 {
		rps = domain.DefaultLinkRPS
	}
	if timeout <= 0 {
		timeout = domain.DefaultLinkTimeout
	}
	p := &Prober{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe checks one URL. Transport failures are reported as unreachable
// rather than returned; an error means the URL is malformed or ctx ended.
func (p *Prober) Probe(ctx context.Context, rawURL string) (driven.LinkStatus, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return driven.LinkStatus{}, fmt.Errorf("%w: not an http(s) URL: %q", domain.ErrInvalidInput, rawURL)
	}

	status, err := p.request(ctx, http.MethodHead, rawURL)
	if err != nil {
		return driven.LinkStatus{}, err
	}
	if status.Reachable && needsGet(status.StatusCode) {
		status, err = p.request(ctx, http.MethodGet, rawURL)
		if err != nil {
			return driven.LinkStatus{}, err
		}
	}
	if status.StatusCode == http.StatusTooManyRequests {
		if wait := status.retryAfter; wait > 0 {
			if err := sleep(ctx, wait); err != nil {
				return driven.LinkStatus{}, err
			}
			status, err = p.request(ctx, http.MethodGet, rawURL)
			if err != nil {
				return driven.LinkStatus{}, err
			}
		}
	}
	return status.LinkStatus, nil
}

// needsGet reports statuses that often mean "HEAD not supported".
func needsGet(code int) bool {
	switch code {
	case http.StatusMethodNotAllowed, http.StatusNotImplemented, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

type probeResult struct {
	driven.LinkStatus
	retryAfter time.Duration
}

func (p *Prober) request(ctx context.Context, method, rawURL string) (probeResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return probeResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return probeResult{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return probeResult{}, ctx.Err()
		}
		return probeResult{LinkStatus: driven.LinkStatus{URL: rawURL, Detail: describe(err)}}, nil
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return probeResult{
		LinkStatus: driven.LinkStatus{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Reachable:  true,
			Detail:     resp.Status,
		},
		retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}, nil
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return min(time.Duration(secs)*time.Second, maxRetryAfter)
}

func describe(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if uerr.Timeout() {
			return "timed out"
		}
		return uerr.Err.Error()
	}
	return err.Error()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
