package model

// FileStage names the step of a synchronization pass a file outcome belongs to.
type FileStage string

const (
	StageFetch   FileStage = "fetch"
	StageDelete  FileStage = "delete"
	StagePromote FileStage = "promote"
)

// FileResult is the result of one per-file operation.
type FileResult string

const (
	FileOK      FileResult = "ok"
	FileFailed  FileResult = "failed"
	FileSkipped FileResult = "skipped" // Nothing staged to promote.
	FileAbsent  FileResult = "absent"  // Nothing in production to delete.
)

// FileOutcome records what happened to a single path in a single stage.
type FileOutcome struct {
	Path      string
	LocalPath string
	Stage     FileStage
	Result    FileResult
	Bytes     int64
	Err       error
}

// SyncResult summarizes one synchronization pass for one repository.
type SyncResult struct {
	Repo     string
	Added    int
	Modified int
	Removed  int
	Outcomes []FileOutcome
}

// Count returns how many outcomes match stage and result.
func (r SyncResult) Count(stage FileStage, result FileResult) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Stage == stage && o.Result == result {
			n++
		}
	}
	return n
}

// Promoted returns the number of files moved into production.
func (r SyncResult) Promoted() int { return r.Count(StagePromote, FileOK) }

// Deleted returns the number of production files deleted.
func (r SyncResult) Deleted() int { return r.Count(StageDelete, FileOK) }

// Failed returns the number of per-file operations that failed in any stage.
func (r SyncResult) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Result == FileFailed {
			n++
		}
	}
	return n
}
