package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

type fakeNetError struct{ timeout bool }

func (e fakeNetError) Error() string   { return "net failure" }
func (e fakeNetError) Timeout() bool   { return e.timeout }
func (e fakeNetError) Temporary() bool { return false }

var _ net.Error = fakeNetError{}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.ErrorClass
	}{
		{"nil", nil, domain.ErrorClassNone},
		{"explicit class wins", domain.Classify(domain.ErrorClassNetwork, errors.New("429 too many requests")), domain.ErrorClassNetwork},
		{"timeout sentinel", fmt.Errorf("wrap: %w", domain.ErrPluginTimeout), domain.ErrorClassTimeout},
		{"deadline exceeded", context.DeadlineExceeded, domain.ErrorClassTimeout},
		{"rate sentinel", fmt.Errorf("call: %w", domain.ErrRateLimited), domain.ErrorClassRateLimit},
		{"validation sentinel", domain.ErrValidation, domain.ErrorClassValidation},
		{"analysis unavailable", domain.ErrAnalysisUnavailable, domain.ErrorClassValidation},
		{"network sentinel", domain.ErrNetwork, domain.ErrorClassNetwork},
		{"net error", fakeNetError{}, domain.ErrorClassNetwork},
		{"net timeout", &net.OpError{Op: "dial", Err: fakeNetError{timeout: true}}, domain.ErrorClassTimeout},
		{"429 text", errors.New("HTTP 429: slow down"), domain.ErrorClassRateLimit},
		{"rate limit text", errors.New("Rate limit reached for requests"), domain.ErrorClassRateLimit},
		{"timed out text", errors.New("request timed out"), domain.ErrorClassTimeout},
		{"refused text", errors.New("dial tcp: connection refused"), domain.ErrorClassNetwork},
		{"401 text", errors.New("status 401 from provider"), domain.ErrorClassValidation},
		{"unauthorized", errors.New("Unauthorized"), domain.ErrorClassValidation},
		{"503 text", errors.New("status 503"), domain.ErrorClassUnknown},
		{"other", errors.New("something odd"), domain.ErrorClassUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(domain.ErrorClassTimeout, nil))
	assert.True(t, Retryable(domain.ErrorClassRateLimit, nil))
	assert.True(t, Retryable(domain.ErrorClassNetwork, nil))
	assert.False(t, Retryable(domain.ErrorClassValidation, errors.New("503 temporarily unavailable")))

	assert.True(t, Retryable(domain.ErrorClassUnknown, errors.New("model is temporarily unavailable")))
	assert.True(t, Retryable(domain.ErrorClassUnknown, errors.New("upstream returned 502")))
	assert.True(t, Retryable(domain.ErrorClassUnknown, errors.New("server overloaded")))
	assert.False(t, Retryable(domain.ErrorClassUnknown, errors.New("malformed output")))
	assert.False(t, Retryable(domain.ErrorClassUnknown, nil))
}

func TestRecoveryHint(t *testing.T) {
	desc := domain.PluginDescriptor{ID: domain.PluginFactCheck}

	assert.Contains(t, RecoveryHint(domain.ErrorClassTimeout, desc), "timeout")
	assert.Contains(t, RecoveryHint(domain.ErrorClassValidation, desc), "API credentials")
	assert.Contains(t, RecoveryHint(domain.ErrorClassRateLimit, desc), "rate limiting")
	assert.Contains(t, RecoveryHint(domain.ErrorClassNetwork, desc), "network")
	assert.NotEmpty(t, RecoveryHint(domain.ErrorClassUnknown, desc))

	desc.FallbackHint = "Verify claims manually."
	assert.Contains(t, RecoveryHint(domain.ErrorClassUnknown, desc), "Verify claims manually.")
}
