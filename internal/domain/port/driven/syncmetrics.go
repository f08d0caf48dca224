package driven

import (
	"time"

	"github.com/ericfisherdev/assetsync/internal/domain/model"
)

// SyncMetrics receives counters for synchronization activity.
type SyncMetrics interface {
	FileProcessed(stage model.FileStage, result model.FileResult)
	RunFinished(trigger model.Trigger, status model.RunStatus, elapsed time.Duration)
}
