package model

// CompareStatus is the relationship of the head ref to the base ref.
type CompareStatus string

const (
	CompareAhead     CompareStatus = "ahead"
	CompareBehind    CompareStatus = "behind"
	CompareIdentical CompareStatus = "identical"
	CompareDiverged  CompareStatus = "diverged"
)

// FileStatus is the per-file status reported by a ref comparison.
type FileStatus string

const (
	FileStatusAdded    FileStatus = "added"
	FileStatusRemoved  FileStatus = "removed"
	FileStatusModified FileStatus = "modified"
	FileStatusRenamed  FileStatus = "renamed"
)

// CompareResult is the outcome of comparing a base ref against a head ref.
type CompareResult struct {
	Base         string
	Head         string
	Status       CompareStatus
	TotalCommits int
	Files        []FileChange
}

// FileChange is one changed file in a CompareResult. PreviousFilename is set
// only for renames.
type FileChange struct {
	Filename         string
	PreviousFilename string
	Status           FileStatus
}
