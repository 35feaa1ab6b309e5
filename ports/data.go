package ports

import (
	"context"

	"adscope/domain/dataset"
)

// DataSummarizer is the abstract data-summary capability, consumed once
// per run at the DataSummary stage. A failure here is the pipeline's one
// fatal condition.
type DataSummarizer interface {
	Summarize(ctx context.Context) (*dataset.Summary, error)
}
