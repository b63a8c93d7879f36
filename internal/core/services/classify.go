package services

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

var (
	statusValidationRe = regexp.MustCompile(`\b(?:400|401|403|404|422)\b`)
	status5xxRe        = regexp.MustCompile(`\b5\d\d\b`)
)

var (
	timeoutPatterns    = []string{"timed out", "timeout", "deadline exceeded"}
	rateLimitPatterns  = []string{"rate limit", "rate_limit", "too many requests", "429", "quota exceeded"}
	networkPatterns    = []string{"connection refused", "connection reset", "no such host", "network is unreachable", "broken pipe", "unexpected eof", "econnrefused", "enotfound"}
	validationPatterns = []string{"validation", "invalid request", "invalid api key", "unauthorized", "forbidden", "bad request", "permission denied"}
	transientPatterns  = []string{"temporarily unavailable", "service unavailable", "overloaded", "try again", "bad gateway", "gateway timeout"}
)

// Classify maps an execution error to one of the five error classes.
// An explicit domain.ClassifiedError wins over sentinel and text matching.
func Classify(err error) domain.ErrorClass {
	if err == nil {
		return domain.ErrorClassNone
	}

	var ce *domain.ClassifiedError
	if errors.As(err, &ce) && ce.Class != domain.ErrorClassNone {
		return ce.Class
	}

	switch {
	case errors.Is(err, domain.ErrPluginTimeout), errors.Is(err, context.DeadlineExceeded):
		return domain.ErrorClassTimeout
	case errors.Is(err, domain.ErrRateLimited):
		return domain.ErrorClassRateLimit
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrAnalysisUnavailable):
		return domain.ErrorClassValidation
	case errors.Is(err, domain.ErrNetwork):
		return domain.ErrorClassNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return domain.ErrorClassTimeout
		}
		return domain.ErrorClassNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, rateLimitPatterns):
		return domain.ErrorClassRateLimit
	case containsAny(msg, timeoutPatterns):
		return domain.ErrorClassTimeout
	case containsAny(msg, networkPatterns):
		return domain.ErrorClassNetwork
	case containsAny(msg, validationPatterns), statusValidationRe.MatchString(msg):
		return domain.ErrorClassValidation
	}
	return domain.ErrorClassUnknown
}

// Retryable reports whether a failure of the given class should be retried.
// Unknown failures are retried only when the message looks transient.
func Retryable(class domain.ErrorClass, err error) bool {
	switch class {
	case domain.ErrorClassTimeout, domain.ErrorClassRateLimit, domain.ErrorClassNetwork:
		return true
	case domain.ErrorClassUnknown:
		if err == nil {
			return false
		}
		msg := strings.ToLower(err.Error())
		return containsAny(msg, transientPatterns) || status5xxRe.MatchString(msg)
	default:
		return false
	}
}

// RecoveryHint returns a human-readable suggestion for a failed plugin.
func RecoveryHint(class domain.ErrorClass, desc domain.PluginDescriptor) string {
	var hint string
	switch class {
	case domain.ErrorClassTimeout:
		hint = "Increase the timeout (--timeout or analysis.timeout_ms) or analyse a shorter document."
	case domain.ErrorClassRateLimit:
		hint = "The analysis provider is rate limiting requests; wait a minute and retry."
	case domain.ErrorClassNetwork:
		hint = "Check network connectivity and the llm.base_url setting."
	case domain.ErrorClassValidation:
		hint = "Check API credentials (OPENAI_API_KEY) and the llm.provider and llm.model settings."
	default:
		hint = "Re-run with --verbose to see the underlying error."
	}
	if desc.FallbackHint != "" {
		hint += " " + desc.FallbackHint
	}
	return hint
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
