package ports

import (
	"context"

	"adscope/domain/analysis"
	"adscope/domain/core"
)

// RunStore persists completed (or halted) runs for later inspection.
type RunStore interface {
	SaveRun(ctx context.Context, run *analysis.Context) error
	GetRun(ctx context.Context, id core.RunID) (*analysis.Context, error)
	ListRuns(ctx context.Context, limit int) ([]*analysis.Context, error)
}
