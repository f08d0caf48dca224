package application

import (
	"time"

	"github.com/ericfisherdev/assetsync/internal/domain/model"
)

// nopMetrics discards all metrics.
type nopMetrics struct{}

func (nopMetrics) FileProcessed(model.FileStage, model.FileResult) {}

func (nopMetrics) RunFinished(model.Trigger, model.RunStatus, time.Duration) {}
