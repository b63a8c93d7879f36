package driven

import (
	"context"
	"net/http"
)

// LinkProber checks whether a URL resolves.
type LinkProber interface {
	Probe(ctx context.Context, url string) (LinkStatus, error)
}

// LinkStatus is the result of probing one URL.
type LinkStatus struct {
	URL        string
	StatusCode int
	Reachable  bool
	Detail     string
}

// Broken returns true for unreachable links or 4xx/5xx responses.
// A 429 means the server exists but is throttling us, so it is not broken.
func (s LinkStatus) Broken() bool {
	return !s.Reachable || (s.StatusCode >= 400 && s.StatusCode != http.StatusTooManyRequests)
}
