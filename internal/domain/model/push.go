package model

// PushEvent is the subset of a push webhook notification used for syncing.
// A nil Commits slice means the notification carried no commit list.
type PushEvent struct {
	Ref          string
	After        string
	RepoFullName string
	Commits      []Commit
}

// Commit lists the paths a single pushed commit touched.
type Commit struct {
	ID       string
	Added    []string
	Modified []string
	Removed  []string
}
