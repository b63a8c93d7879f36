package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

const supervisorDoc = "Two plus two is five. The moon is cheese."

func routed(id domain.PluginID) domain.RoutingDecision {
	return domain.RoutingDecision{PluginID: id, Chunks: chunkText(supervisorDoc, 22), Reason: "test"}
}

type delayRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *delayRecorder) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func TestSupervisor_SucceedsFirstAttempt(t *testing.T) {
	p := newMockPlugin(domain.PluginMath, false)
	p.analyze = func(_ context.Context, _ *mockPlugin, chunks []domain.Chunk, text string) (*domain.PluginResult, error) {
		return &domain.PluginResult{Comments: []domain.Comment{commentAt(domain.PluginMath, text, 0, 3)}, Cost: 0.5}, nil
	}

	out := NewSupervisor(WithSleeper(noSleep)).Run(context.Background(), p, routed(domain.PluginMath), supervisorDoc)

	assert.Equal(t, domain.SectionSucceeded, out.Status)
	assert.True(t, out.Succeeded())
	require.NotNil(t, out.Result)
	assert.Len(t, out.Result.Comments, 1)
	assert.InDelta(t, 0.5, out.Result.Cost, 1e-9)
	require.Len(t, out.Attempts, 1)
	assert.Equal(t, domain.OutcomeSuccess, out.Attempts[0].Outcome)
	assert.Equal(t, 1, out.Attempts[0].Attempt)
	assert.Regexp(t, regexp.MustCompile(`^math:\d+:\d+$`), out.ExecutionID)
	assert.Equal(t, out.ExecutionID, out.Attempts[0].ExecutionID)
}

func TestSupervisor_RetryBound(t *testing.T) {
	p := newMockPlugin(domain.PluginFactCheck, false)
	p.analyze = func(context.Context, *mockPlugin, []domain.Chunk, string) (*domain.PluginResult, error) {
		return nil, fmt.Errorf("provider: %w", domain.ErrRateLimited)
	}
	rec := &delayRecorder{}

	out := NewSupervisor(WithSleeper(rec.sleep), WithRetryBaseDelay(time.Second)).
		Run(context.Background(), p, routed(domain.PluginFactCheck), supervisorDoc)

	assert.Equal(t, int32(3), p.calls.Load(), "1 initial attempt + 2 retries")
	assert.Equal(t, domain.SectionFailed, out.Status)
	assert.Equal(t, domain.ErrorClassRateLimit, out.ErrorClass)
	assert.NotEmpty(t, out.RecoveryHint)
	assert.ErrorIs(t, out.Err, domain.ErrRateLimited)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.delays)

	require.Len(t, out.Attempts, 3)
	for i, a := range out.Attempts {
		assert.Equal(t, i+1, a.Attempt)
		assert.Equal(t, domain.OutcomeFailure, a.Outcome)
		assert.Equal(t, domain.ErrorClassRateLimit, a.ErrorClass)
		assert.Equal(t, out.ExecutionID, a.ExecutionID)
	}
}

func TestSupervisor_MaxAttemptsConfigurable(t *testing.T) {
	p := newMockPlugin(domain.PluginMath, false)
	p.analyze = func(context.Context, *mockPlugin, []domain.Chunk, string) (*domain.PluginResult, error) {
		return nil, domain.ErrNetwork
	}

	out := NewSupervisor(WithSleeper(noSleep), WithMaxAttempts(5)).
		Run(context.Background(), p, routed(domain.PluginMath), supervisorDoc)

	assert.Equal(t, int32(5), p.calls.Load())
	assert.Equal(t, domain.ErrorClassNetwork, out.ErrorClass)
}

func TestSupervisor_ValidationNotRetried(t *testing.T) {
	p := newMockPlugin(domain.PluginMath, false)
	p.analyze = func(context.Context, *mockPlugin, []domain.Chunk, string) (*domain.PluginResult, error) {
		return nil, errors.New("401 unauthorized: invalid api key")
	}

	out := NewSupervisor(WithSleeper(noSleep)).Run(context.Background(), p, routed(domain.PluginMath), supervisorDoc)

	assert.Equal(t, int32(1), p.calls.Load())
	assert.Equal(t, domain.ErrorClassValidation, out.ErrorClass)
	assert.Contains(t, out.RecoveryHint, "API credentials")
}

func TestSupervisor_UnknownErrors(t *testing.T) {
	t.Run("non transient fails fast", func(t *testing.T) {
		p := newMockPlugin(domain.PluginMath, false)
		p.analyze = func(context.Context, *mockPlugin, []domain.Chunk, string) (*domain.PluginResult, error) {
			return nil, errors.New("could not parse model output")
		}
		out := NewSupervisor(WithSleeper(noSleep)).Run(context.Background(), p, routed(domain.PluginMath), supervisorDoc)
		assert.Equal(t, int32(1), p.calls.Load())
		assert.Equal(t, domain.ErrorClassUnknown, out.ErrorClass)
	})

	t.Run("transient retried until success", func(t *testing.T) {
		p := newMockPlugin(domain.PluginMath, false)
		p.analyze = func(_ context.Context, p *mockPlugin, _ []domain.Chunk, _ string) (*domain.PluginResult, error) {
			if p.calls.Load() == 1 {
				return nil, errors.New("503 service temporarily unavailable")
			}
			return &domain.PluginResult{Summary: "ok"}, nil
		}
		out := NewSupervisor(WithSleeper(noSleep)).Run(context.Background(), p, routed(domain.PluginMath), supervisorDoc)
		assert.Equal(t, int32(2), p.calls.Load())
		assert.Equal(t, domain.SectionSucceeded, out.Status)
		require.Len(t, out.Attempts, 2)
		assert.Equal(t, domain.OutcomeFailure, out.Attempts[0].Outcome)
		assert.Equal(t, domain.ErrorClassUnknown, out.Attempts[0].ErrorClass)
		assert.Equal(t, domain.OutcomeSuccess, out.Attempts[1].Outcome)
	})
}

func TestSupervisor_TimeoutReleasesAttempt(t *testing.T) {
	p := newMockPlugin(domain.PluginForecast, false)
	p.analyze = func(ctx context.Context, _ *mockPlugin, _ []domain.Chunk, _ string) (*domain.PluginResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	start := time.Now()
	out := NewSupervisor(
		WithTimeout(20*time.Millisecond),
		WithMaxAttempts(2),
		WithSleeper(noSleep),
	).Run(context.Background(), p, routed(domain.PluginForecast), supervisorDoc)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, int32(2), p.calls.Load())
	assert.Equal(t, domain.SectionFailed, out.Status)
	assert.Equal(t, domain.ErrorClassTimeout, out.ErrorClass)
	assert.Contains(t, out.RecoveryHint, "timeout")
}

func TestSupervisor_PanicIsFailure(t *testing.T) {
	p := newMockPlugin(domain.PluginSpelling, true)
	p.analyze = func(context.Context, *mockPlugin, []domain.Chunk, string) (*domain.PluginResult, error) {
		panic("boom")
	}

	out := NewSupervisor(WithSleeper(noSleep)).Run(context.Background(), p, routed(domain.PluginSpelling), supervisorDoc)

	assert.Equal(t, domain.SectionFailed, out.Status)
	assert.Contains(t, out.Err.Error(), "panicked: boom")
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestSupervisor_SkipsEmptyRouting(t *testing.T) {
	p := newMockPlugin(domain.PluginForecast, false)

	out := NewSupervisor().Run(context.Background(), p,
		domain.RoutingDecision{PluginID: domain.PluginForecast, Reason: domain.ReasonNoRelevantContent}, supervisorDoc)

	assert.Equal(t, domain.SectionSkipped, out.Status)
	assert.True(t, out.Succeeded())
	require.NotNil(t, out.Result)
	assert.Zero(t, out.Result.Cost)
	assert.Equal(t, domain.ReasonNoRelevantContent, out.Result.Summary)
	assert.Zero(t, p.calls.Load())
	assert.Empty(t, out.Attempts)
}

func TestSupervisor_UnconditionalRunsWithoutChunks(t *testing.T) {
	p := newMockPlugin(domain.PluginLinks, true)

	out := NewSupervisor().Run(context.Background(), p, domain.RoutingDecision{PluginID: domain.PluginLinks}, supervisorDoc)

	assert.Equal(t, domain.SectionSucceeded, out.Status)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestSupervisor_NilResultBecomesEmpty(t *testing.T) {
	p := newMockPlugin(domain.PluginMath, false)
	p.analyze = func(context.Context, *mockPlugin, []domain.Chunk, string) (*domain.PluginResult, error) {
		return nil, nil
	}

	out := NewSupervisor().Run(context.Background(), p, routed(domain.PluginMath), supervisorDoc)

	require.NotNil(t, out.Result)
	assert.Empty(t, out.Result.Comments)
}

func TestSupervisor_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := newMockPlugin(domain.PluginMath, false)
	p.analyze = func(context.Context, *mockPlugin, []domain.Chunk, string) (*domain.PluginResult, error) {
		cancel()
		return nil, domain.ErrNetwork
	}

	out := NewSupervisor().Run(ctx, p, routed(domain.PluginMath), supervisorDoc)

	assert.Equal(t, int32(1), p.calls.Load())
	assert.Equal(t, domain.SectionFailed, out.Status)
}

func TestSupervisor_RealBackoffWaits(t *testing.T) {
	p := newMockPlugin(domain.PluginMath, false)
	p.analyze = func(_ context.Context, p *mockPlugin, _ []domain.Chunk, _ string) (*domain.PluginResult, error) {
		if p.calls.Load() < 3 {
			return nil, domain.ErrNetwork
		}
		return &domain.PluginResult{}, nil
	}

	start := time.Now()
	out := NewSupervisor(WithRetryBaseDelay(10*time.Millisecond)).
		Run(context.Background(), p, routed(domain.PluginMath), supervisorDoc)

	assert.Equal(t, domain.SectionSucceeded, out.Status)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond, "waits 1×base then 2×base")
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), 0))
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
}

func TestAttemptState_String(t *testing.T) {
	assert.Equal(t, "pending", statePending.String())
	assert.Equal(t, "retry-scheduled", stateRetryScheduled.String())
	assert.Equal(t, "failed-permanent", stateFailedPermanent.String())
	assert.Equal(t, "unknown", attemptState(99).String())
}
