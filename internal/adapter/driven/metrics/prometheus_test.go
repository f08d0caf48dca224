package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/assetsync/internal/adapter/driven/metrics"
	"github.com/ericfisherdev/assetsync/internal/domain/model"
)

func TestPrometheus_HandlerExposesCounters(t *testing.T) {
	p := metrics.NewPrometheus()

	p.FileProcessed(model.StageFetch, model.FileOK)
	p.FileProcessed(model.StageFetch, model.FileOK)
	p.FileProcessed(model.StageFetch, model.FileFailed)
	p.RunFinished(model.TriggerWebhook, model.RunCompleted, 2*time.Second)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, `assetsync_files_total{result="ok",stage="fetch"} 2`)
	assert.Contains(t, text, `assetsync_files_total{result="failed",stage="fetch"} 1`)
	assert.Contains(t, text, `assetsync_sync_runs_total{status="completed",trigger="webhook"} 1`)
	assert.Contains(t, text, `assetsync_sync_duration_seconds_count{trigger="webhook"} 1`)
}

func TestPrometheus_IndependentRegistries(t *testing.T) {
	a := metrics.NewPrometheus()
	b := metrics.NewPrometheus()

	a.FileProcessed(model.StageDelete, model.FileAbsent)

	n, err := testutil.GatherAndCount(a.Registry(), "assetsync_files_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = testutil.GatherAndCount(b.Registry(), "assetsync_files_total")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
