package reports

import (
	"context"
	"time"

	"github.com/pagelint/pagelint/internal/domain/corrections"
)

// Repository port (interface for persistence)
type Repository interface {
	// Create inserts a new report row and fills in its numeric ID.
	Create(ctx context.Context, r *Report) error
	// SetStage records the stage about to run, before its work begins.
	SetStage(ctx context.Context, id int64, stage string) error
	MarkCompleted(ctx context.Context, id int64, end time.Time) error
	MarkFailed(ctx context.Context, id int64, stateInternal string, end time.Time) error
	// InsertCorrections persists the final correction set in one batch.
	InsertCorrections(ctx context.Context, cs []corrections.Correction) error
	GetByUUID(ctx context.Context, uuid string) (*Report, error)
	GetFull(ctx context.Context, uuid string) (*ReportWithCorrections, error)
	ListWithCounts(ctx context.Context) ([]Summary, error)
	// Delete removes a report and, via cascade, its corrections. It returns
	// the UUIDs of the deleted corrections so screenshots can be cleaned up.
	Delete(ctx context.Context, uuid string) ([]string, error)
}

// ScreenshotStore port (interface for screenshot persistence, keyed by
// correction UUID)
type ScreenshotStore interface {
	Save(ctx context.Context, uuid string, png []byte) error
	Get(ctx context.Context, uuid string) ([]byte, error)
	Remove(ctx context.Context, uuid string) error
}
