package application

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// RepoLocks serializes synchronization passes per repository. A nil
// *RepoLocks is valid and never blocks, which is the default: concurrent
// triggers for one repository may interleave unless locking is enabled.
type RepoLocks struct {
	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

// NewRepoLocks creates an empty lock table.
func NewRepoLocks() *RepoLocks {
	return &RepoLocks{locks: make(map[string]*semaphore.Weighted)}
}

// Acquire blocks until the caller holds the repository's lock or ctx ends.
// The returned release func must be called exactly once.
func (l *RepoLocks) Acquire(ctx context.Context, repoFullName string) (func(), error) {
	if l == nil {
		return func() {}, nil
	}

	l.mu.Lock()
	sem, ok := l.locks[repoFullName]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.locks[repoFullName] = sem
	}
	l.mu.Unlock()

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { sem.Release(1) }, nil
}
