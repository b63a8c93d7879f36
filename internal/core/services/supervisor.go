package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// attemptState is the supervisor's retry state machine:
//
//	Pending → Attempting → Succeeded
//	                     → RetryScheduled → Attempting
//	                     → FailedPermanent
type attemptState int

const (
	statePending attemptState = iota
	stateAttempting
	stateRetryScheduled
	stateSucceeded
	stateFailedPermanent
)

func (s attemptState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateAttempting:
		return "attempting"
	case stateRetryScheduled:
		return "retry-scheduled"
	case stateSucceeded:
		return "succeeded"
	case stateFailedPermanent:
		return "failed-permanent"
	default:
		return "unknown"
	}
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Supervisor runs one plugin execution with a per-attempt timeout,
// bounded retries and error classification.
type Supervisor struct {
	timeout     time.Duration
	maxAttempts int
	baseDelay   time.Duration
	ids         *ExecutionIDs
	sleep       Sleeper
	now         func() time.Time
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithTimeout sets the wall-clock budget of a single attempt.
func WithTimeout(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxAttempts sets the total number of attempts, including the first.
func WithMaxAttempts(n int) SupervisorOption {
	return func(s *Supervisor) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithRetryBaseDelay sets the base of the linear backoff (attempt × base).
func WithRetryBaseDelay(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		if d >= 0 {
			s.baseDelay = d
		}
	}
}

// WithExecutionIDs sets the execution id generator.
func WithExecutionIDs(ids *ExecutionIDs) SupervisorOption {
	return func(s *Supervisor) {
		if ids != nil {
			s.ids = ids
		}
	}
}

// WithSleeper replaces the backoff wait. Used by tests.
func WithSleeper(fn Sleeper) SupervisorOption {
	return func(s *Supervisor) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// NewSupervisor creates a supervisor with the default budget:
// 300s per attempt, 3 attempts, 1s base delay.
func NewSupervisor(opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		timeout:     domain.DefaultPluginTimeout,
		maxAttempts: domain.DefaultMaxAttempts,
		baseDelay:   domain.DefaultRetryBaseDelay,
		ids:         defaultIDs,
		sleep:       sleepContext,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes plugin over its routed chunks and always returns an outcome.
// A plugin with no assigned chunks that is not unconditional is skipped.
func (s *Supervisor) Run(ctx context.Context, plugin driven.Plugin, decision domain.RoutingDecision, documentText string) domain.PluginOutcome {
	desc := plugin.Descriptor()
	out := domain.PluginOutcome{
		PluginID:    desc.ID,
		ExecutionID: s.ids.Next(desc.ID),
	}
	started := s.now()

	if decision.Empty() && !desc.RunUnconditionally {
		out.Status = domain.SectionSkipped
		out.Result = &domain.PluginResult{Summary: domain.ReasonNoRelevantContent}
		logger.Debug("skipping %s: no relevant content", desc.ID)
		return out
	}

	ctx, span := startSpan(ctx, "plugin.execute",
		attribute.String("plugin.id", desc.ID.String()),
		attribute.String("execution.id", out.ExecutionID),
		attribute.Int("chunks", len(decision.Chunks)))

	var (
		state   = statePending
		attempt int
		result  *domain.PluginResult
		lastErr error
		class   domain.ErrorClass
	)
	for state != stateSucceeded && state != stateFailedPermanent {
		switch state {
		case statePending:
			attempt = 1
			state = stateAttempting

		case stateRetryScheduled:
			delay := time.Duration(attempt) * s.baseDelay
			logger.L().Debug("retry scheduled",
				zap.String("plugin", desc.ID.String()),
				zap.String("execution_id", out.ExecutionID),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			if err := s.sleep(ctx, delay); err != nil {
				lastErr = fmt.Errorf("retry cancelled: %w", err)
				state = stateFailedPermanent
				continue
			}
			attempt++
			state = stateAttempting

		case stateAttempting:
			res, rec, err := s.attempt(ctx, plugin, decision.Chunks, documentText, out.ExecutionID, attempt)
			out.Attempts = append(out.Attempts, rec)
			if err == nil {
				result = res
				state = stateSucceeded
				continue
			}
			lastErr, class = err, rec.ErrorClass
			if attempt < s.maxAttempts && Retryable(class, err) && ctx.Err() == nil {
				state = stateRetryScheduled
			} else {
				state = stateFailedPermanent
			}
		}
	}
	out.Duration = s.now().Sub(started)

	if state == stateSucceeded {
		out.Status = domain.SectionSucceeded
		out.Result = result
		endSpan(span, nil)
		return out
	}

	if class == domain.ErrorClassNone {
		class = Classify(lastErr)
	}
	out.Status = domain.SectionFailed
	out.Err = lastErr
	out.ErrorClass = class
	out.RecoveryHint = RecoveryHint(class, desc)
	logger.L().Warn("plugin failed",
		zap.String("plugin", desc.ID.String()),
		zap.String("execution_id", out.ExecutionID),
		zap.Int("attempts", len(out.Attempts)),
		zap.String("class", string(class)),
		zap.Error(lastErr))
	endSpan(span, lastErr)
	return out
}

type attemptResult struct {
	res *domain.PluginResult
	err error
}

// attempt races one plugin call against the timeout. The deadline context is
// always cancelled on return, and the result channel is buffered so a late
// plugin goroutine can still finish and exit.
func (s *Supervisor) attempt(
	ctx context.Context,
	plugin driven.Plugin,
	chunks []domain.Chunk,
	documentText, executionID string,
	n int,
) (*domain.PluginResult, domain.ExecutionRecord, error) {
	rec := domain.ExecutionRecord{
		PluginID:    plugin.ID(),
		ExecutionID: executionID,
		Attempt:     n,
		StartedAt:   s.now(),
	}

	ctx, span := startSpan(ctx, "plugin.attempt",
		attribute.String("plugin.id", rec.PluginID.String()),
		attribute.String("execution.id", executionID),
		attribute.Int("attempt", n))

	actx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan attemptResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- attemptResult{err: fmt.Errorf("plugin %s panicked: %v", rec.PluginID, r)}
			}
		}()
		res, err := plugin.Analyze(actx, chunks, documentText)
		done <- attemptResult{res: res, err: err}
	}()

	var r attemptResult
	select {
	case r = <-done:
		if r.err == nil && r.res == nil {
			r.res = &domain.PluginResult{}
		}
	case <-actx.Done():
		if ctx.Err() != nil {
			r.err = ctx.Err()
		} else {
			r.err = fmt.Errorf("%w after %s", domain.ErrPluginTimeout, s.timeout)
		}
	}

	rec.Duration = s.now().Sub(rec.StartedAt)
	if r.err != nil {
		rec.Outcome = domain.OutcomeFailure
		rec.ErrorClass = Classify(r.err)
	} else {
		rec.Outcome = domain.OutcomeSuccess
	}
	logger.L().Debug("plugin attempt finished",
		zap.String("plugin", rec.PluginID.String()),
		zap.String("execution_id", executionID),
		zap.Int("attempt", n),
		zap.String("outcome", string(rec.Outcome)),
		zap.String("class", string(rec.ErrorClass)),
		zap.Duration("duration", rec.Duration))
	endSpan(span, r.err)
	return r.res, rec, r.err
}
