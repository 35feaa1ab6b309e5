package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"adscope/domain/analysis"
	"adscope/domain/core"
)

// Policy defines retry behavior for one stage invocation. The attempt
// bound and backoff shape are configuration, not constants.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64 // exponential factor
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
	}
}

// Delay computes the backoff before attempt k (k >= 2):
// BaseDelay * Multiplier^(k-2), capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-2))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	return time.Duration(delay)
}

// ExhaustedError indicates all retry attempts failed.
type ExhaustedError struct {
	Stage    analysis.Stage
	Attempts int
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("stage %s exhausted after %d attempts: %v", e.Stage, e.Attempts, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}

// IsExhausted checks if an error is an ExhaustedError.
func IsExhausted(err error) bool {
	_, ok := err.(*ExhaustedError)
	return ok
}

// Do invokes op up to MaxAttempts times, suspending with exponential
// backoff between attempts. Every attempt, success or failure, is
// appended to the trace recorder before the next attempt is scheduled.
// Returns the first success, or an ExhaustedError carrying the last
// failure's reason.
func Do[T any](ctx context.Context, policy Policy, rec *analysis.TraceRecorder, stage analysis.Stage, op func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(policy.Delay(attempt)):
			}
		}

		start := time.Now()
		result, err := op(ctx)
		elapsed := time.Since(start)

		if err == nil {
			rec.Record(analysis.AttemptRecord{
				Stage:   stage,
				Attempt: attempt,
				Outcome: analysis.OutcomeSuccess,
				Elapsed: elapsed,
			})
			return result, nil
		}

		lastErr = err
		rec.Record(analysis.AttemptRecord{
			Stage:   stage,
			Attempt: attempt,
			Outcome: classify(err),
			Elapsed: elapsed,
			Error:   err.Error(),
		})

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}

	return zero, &ExhaustedError{Stage: stage, Attempts: attempts, LastErr: lastErr}
}

func classify(err error) analysis.AttemptOutcome {
	if core.IsSchemaError(err) {
		return analysis.OutcomeSchemaInvalid
	}
	return analysis.OutcomeInvocationFailed
}
