package model

import "sort"

// ChangeKind classifies a repository path within a ChangeSet.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// ChangeSet holds the repository-relative paths touched by a trigger, split
// into added, modified and removed. A path lives in exactly one of the three
// sets: recording a path again moves it to the newer classification.
type ChangeSet struct {
	kinds map[string]ChangeKind
}

// NewChangeSet returns an empty ChangeSet.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{kinds: make(map[string]ChangeKind)}
}

// Record classifies path as kind, replacing any earlier classification.
func (c *ChangeSet) Record(kind ChangeKind, path string) {
	c.kinds[path] = kind
}

// Kind returns the classification of path and whether it is present.
func (c *ChangeSet) Kind(path string) (ChangeKind, bool) {
	k, ok := c.kinds[path]
	return k, ok
}

// Added returns the added paths in sorted order.
func (c *ChangeSet) Added() []string { return c.collect(ChangeAdded) }

// Modified returns the modified paths in sorted order.
func (c *ChangeSet) Modified() []string { return c.collect(ChangeModified) }

// Removed returns the removed paths in sorted order.
func (c *ChangeSet) Removed() []string { return c.collect(ChangeRemoved) }

// ToDelete returns removed ∪ modified: every path whose production copy must
// be deleted before promotion.
func (c *ChangeSet) ToDelete() []string { return c.collect(ChangeRemoved, ChangeModified) }

// ToFetch returns added ∪ modified: every path whose current content must be
// downloaded and promoted.
func (c *ChangeSet) ToFetch() []string { return c.collect(ChangeAdded, ChangeModified) }

// Len returns the number of distinct paths in the set.
func (c *ChangeSet) Len() int { return len(c.kinds) }

// IsEmpty reports whether no path has been recorded.
func (c *ChangeSet) IsEmpty() bool { return len(c.kinds) == 0 }

func (c *ChangeSet) collect(kinds ...ChangeKind) []string {
	out := []string{}
	for path, k := range c.kinds {
		for _, want := range kinds {
			if k == want {
				out = append(out, path)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}
