package driven

import (
	"context"

	"github.com/ericfisherdev/assetsync/internal/domain/model"
)

// SyncRunStore defines the driven port for synchronization history.
type SyncRunStore interface {
	// Record persists a finished run and returns its assigned ID.
	Record(ctx context.Context, run model.SyncRun) (int64, error)
	// ListRecent returns up to limit runs, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.SyncRun, error)
}
