package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/assetsync/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// pushPayload is the subset of a push webhook body the service reads.
type pushPayload struct {
	Ref        string `json:"ref"`
	After      string `json:"after"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Commits []struct {
		ID       string   `json:"id"`
		Added    []string `json:"added"`
		Modified []string `json:"modified"`
		Removed  []string `json:"removed"`
	} `json:"commits"`
}

func (p pushPayload) toModel() model.PushEvent {
	event := model.PushEvent{
		Ref:          p.Ref,
		After:        p.After,
		RepoFullName: p.Repository.FullName,
	}
	for _, c := range p.Commits {
		event.Commits = append(event.Commits, model.Commit{
			ID:       c.ID,
			Added:    c.Added,
			Modified: c.Modified,
			Removed:  c.Removed,
		})
	}
	return event
}

// SyncReportResponse is the JSON representation of one repository's pass.
type SyncReportResponse struct {
	Repo    string               `json:"repo,omitempty"`
	Status  string               `json:"status"`
	Message string               `json:"message"`
	Summary *SyncSummaryResponse `json:"summary,omitempty"`
}

// SyncSummaryResponse carries the file counts of a completed pass.
type SyncSummaryResponse struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
	Promoted int `json:"promoted"`
	Deleted  int `json:"deleted"`
	Failed   int `json:"failed"`
}

// SyncRunResponse is the JSON representation of a recorded pass.
type SyncRunResponse struct {
	ID         int64  `json:"id"`
	Trigger    string `json:"trigger"`
	Repo       string `json:"repo"`
	Ref        string `json:"ref"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	Added      int    `json:"added"`
	Modified   int    `json:"modified"`
	Removed    int    `json:"removed"`
	Promoted   int    `json:"promoted"`
	Deleted    int    `json:"deleted"`
	Failed     int    `json:"failed"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	DurationMS int64  `json:"duration_ms"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toSyncReportResponse converts a domain SyncReport to its JSON representation.
func toSyncReportResponse(r model.SyncReport) SyncReportResponse {
	resp := SyncReportResponse{
		Repo:    r.Repo,
		Status:  string(r.Status),
		Message: r.Message,
	}
	if res := r.Result; res != nil {
		resp.Summary = &SyncSummaryResponse{
			Added:    res.Added,
			Modified: res.Modified,
			Removed:  res.Removed,
			Promoted: res.Promoted(),
			Deleted:  res.Deleted(),
			Failed:   res.Failed(),
		}
	}
	return resp
}

// toSyncRunResponse converts a domain SyncRun to its JSON representation.
func toSyncRunResponse(run model.SyncRun) SyncRunResponse {
	return SyncRunResponse{
		ID:         run.ID,
		Trigger:    string(run.Trigger),
		Repo:       run.Repo,
		Ref:        run.Ref,
		Status:     string(run.Status),
		Message:    run.Message,
		Added:      run.Added,
		Modified:   run.Modified,
		Removed:    run.Removed,
		Promoted:   run.Promoted,
		Deleted:    run.Deleted,
		Failed:     run.Failed,
		StartedAt:  run.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: run.FinishedAt.UTC().Format(time.RFC3339),
		DurationMS: run.Duration().Milliseconds(),
	}
}
