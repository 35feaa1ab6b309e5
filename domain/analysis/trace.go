package analysis

import (
	"encoding/json"
	"strings"
	"time"

	"adscope/domain/core"
)

// AttemptOutcome classifies one recorded invocation attempt.
type AttemptOutcome string

const (
	OutcomeSuccess          AttemptOutcome = "SUCCESS"
	OutcomeSchemaInvalid    AttemptOutcome = "SCHEMA_INVALID"
	OutcomeInvocationFailed AttemptOutcome = "INVOCATION_FAILED"
	OutcomeFallbackUsed     AttemptOutcome = "FALLBACK_USED"
)

// AttemptRecord is one logged invocation attempt. Append-only; never
// mutated after creation.
type AttemptRecord struct {
	Stage      Stage          `json:"stage"`
	Attempt    int            `json:"attempt"` // 1-based
	Outcome    AttemptOutcome `json:"outcome"`
	Elapsed    time.Duration  `json:"elapsed_ns"`
	Error      string         `json:"error,omitempty"`
	RecordedAt core.Timestamp `json:"recorded_at"`
}

// TraceRecorder is the per-run append-only record of invocation attempts.
// Not safe for concurrent use; the pipeline is single-threaded and each
// run owns a private recorder.
type TraceRecorder struct {
	records []AttemptRecord
}

// NewTraceRecorder creates an empty recorder.
func NewTraceRecorder() *TraceRecorder {
	return &TraceRecorder{}
}

// Record appends one attempt. There is no delete or mutate operation.
func (r *TraceRecorder) Record(rec AttemptRecord) {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = core.Now()
	}
	r.records = append(r.records, rec)
}

// Export returns the attempts in recording order. The returned slice is a
// copy; callers cannot alter the trace through it.
func (r *TraceRecorder) Export() []AttemptRecord {
	out := make([]AttemptRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of recorded attempts.
func (r *TraceRecorder) Len() int { return len(r.records) }

// ByStage returns the attempts recorded for one stage, in order.
func (r *TraceRecorder) ByStage(stage Stage) []AttemptRecord {
	var out []AttemptRecord
	for _, rec := range r.records {
		if rec.Stage == stage {
			out = append(out, rec)
		}
	}
	return out
}

// ExportJSONL renders the trace as one JSON record per line, consumable by
// an external log sink.
func (r *TraceRecorder) ExportJSONL() (string, error) {
	var b strings.Builder
	for _, rec := range r.records {
		line, err := json.Marshal(rec)
		if err != nil {
			return "", err
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}
