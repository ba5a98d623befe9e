package state

import (
	"context"
	"io"
	"time"

	"github.com/ShayCichocki/skillflow/pkg/models"
)

// RunStore persists pipeline run history.
type RunStore interface {
	RecordRun(ctx context.Context, r *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	PurgeRuns(ctx context.Context, cutoff time.Time) (int64, error)
}

// ScanStore persists security scan outcomes keyed by path and content hash.
type ScanStore interface {
	LookupScan(ctx context.Context, path, hash string) (models.RiskLevel, string, bool, error)
	StoreScan(ctx context.Context, path, hash string, risk models.RiskLevel, detail string) error
	ClearScanCache(ctx context.Context) (int64, error)
}

// Store is everything the CLI needs from the state database.
type Store interface {
	io.Closer
	RunStore
	ScanStore
}

var (
	_ Store     = (*DB)(nil)
	_ RunStore  = (*DB)(nil)
	_ ScanStore = (*DB)(nil)
)
