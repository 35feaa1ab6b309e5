package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"adscope/domain/analysis"
	"adscope/domain/core"
)

// fastPolicy keeps backoff negligible so tests stay quick.
func fastPolicy(maxAttempts int) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Microsecond,
		MaxDelay:    time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestDelaySchedule(t *testing.T) {
	p := Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 0},
		{2, time.Second},
		{3, 2 * time.Second},
		{4, 4 * time.Second},
		{5, 8 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Delay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestDelayCapsAtMax(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 2.0}
	assert.Equal(t, 3*time.Second, p.Delay(4)) // uncapped would be 4s
	assert.Equal(t, 3*time.Second, p.Delay(10))
}

func TestDoReturnsFirstSuccess(t *testing.T) {
	rec := analysis.NewTraceRecorder()
	calls := 0

	got, err := Do(context.Background(), fastPolicy(3), rec, analysis.StagePlan,
		func(ctx context.Context) (string, error) {
			calls++
			return "ok", nil
		})

	assert.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)

	records := rec.Export()
	assert.Len(t, records, 1)
	assert.Equal(t, analysis.OutcomeSuccess, records[0].Outcome)
	assert.Equal(t, 1, records[0].Attempt)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	rec := analysis.NewTraceRecorder()
	calls := 0

	got, err := Do(context.Background(), fastPolicy(3), rec, analysis.StageHypotheses,
		func(ctx context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, core.NewInvocationError(errors.New("transient"))
			}
			return 42, nil
		})

	assert.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)

	records := rec.Export()
	assert.Len(t, records, 3)
	assert.Equal(t, analysis.OutcomeInvocationFailed, records[0].Outcome)
	assert.Equal(t, analysis.OutcomeInvocationFailed, records[1].Outcome)
	assert.Equal(t, analysis.OutcomeSuccess, records[2].Outcome)
	for i, r := range records {
		assert.Equal(t, i+1, r.Attempt)
	}
}

func TestDoExhaustsAndRecordsEveryAttempt(t *testing.T) {
	rec := analysis.NewTraceRecorder()
	permanent := core.NewInvocationError(errors.New("model down"))

	_, err := Do(context.Background(), fastPolicy(3), rec, analysis.StageValidation,
		func(ctx context.Context) (string, error) {
			return "", permanent
		})

	assert.Error(t, err)
	assert.True(t, IsExhausted(err))

	var exhausted *ExhaustedError
	assert.True(t, errors.As(err, &exhausted))
	assert.Equal(t, analysis.StageValidation, exhausted.Stage)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.True(t, core.IsInvocationError(err), "exhausted error must unwrap to the last failure")

	assert.Equal(t, 3, rec.Len())
	for _, r := range rec.ByStage(analysis.StageValidation) {
		assert.Equal(t, analysis.OutcomeInvocationFailed, r.Outcome)
		assert.NotEmpty(t, r.Error)
	}
}

func TestDoClassifiesSchemaFailures(t *testing.T) {
	rec := analysis.NewTraceRecorder()

	_, err := Do(context.Background(), fastPolicy(2), rec, analysis.StageHypotheses,
		func(ctx context.Context) (string, error) {
			return "", core.NewParseError(errors.New("not json"))
		})
	assert.True(t, IsExhausted(err))

	// Parse failures are invocation-class, not schema-class.
	for _, r := range rec.Export() {
		assert.Equal(t, analysis.OutcomeInvocationFailed, r.Outcome)
	}

	rec2 := analysis.NewTraceRecorder()
	_, err = Do(context.Background(), fastPolicy(2), rec2, analysis.StageHypotheses,
		func(ctx context.Context) (string, error) {
			return "", core.ErrSchema
		})
	assert.True(t, IsExhausted(err))
	for _, r := range rec2.Export() {
		assert.Equal(t, analysis.OutcomeSchemaInvalid, r.Outcome)
	}
}

func TestDoStopsOnContextCancellation(t *testing.T) {
	rec := analysis.NewTraceRecorder()
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := Do(ctx, Policy{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 2.0}, rec, analysis.StagePlan,
		func(ctx context.Context) (string, error) {
			calls++
			cancel()
			return "", core.NewInvocationError(errors.New("boom"))
		})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "must not sleep an hour and try again after cancellation")
}

func TestDoSingleAttemptPolicy(t *testing.T) {
	rec := analysis.NewTraceRecorder()
	_, err := Do(context.Background(), fastPolicy(1), rec, analysis.StageCreative,
		func(ctx context.Context) (string, error) {
			return "", core.NewInvocationError(errors.New("no"))
		})
	assert.True(t, IsExhausted(err))
	assert.Equal(t, 1, rec.Len())
}
