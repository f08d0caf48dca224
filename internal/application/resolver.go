package application

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/assetsync/internal/domain/model"
)

// DefaultMaxCompareCommits is the compare-mode safety ceiling.
const DefaultMaxCompareCommits = 250

// Sentinel errors returned by the Resolver.
var (
	// ErrMalformedPayload indicates a notification missing a field without
	// which no safe decision can be made (e.g. the ref).
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrMissingRepository indicates a notification without a repository name.
	ErrMissingRepository = errors.New("repository name is not defined")

	// ErrTooManyCommits indicates a comparison spans more commits than the
	// configured ceiling; the repository must be updated manually.
	ErrTooManyCommits = errors.New("too many commits since latest tag")
)

// Resolution is the outcome of resolving a trigger for one repository. When
// NoOp is non-empty there is nothing to do and Changes is nil.
type Resolution struct {
	Mapping model.RepoMapping
	Changes *model.ChangeSet
	NoOp    string
}

// Resolver turns push notifications and ref comparisons into change sets
// scoped to the catalog's source prefixes.
type Resolver struct {
	catalog    *model.Catalog
	branch     string
	trackedRef string
	maxCommits int
	logger     *slog.Logger
}

// NewResolver creates a Resolver for the tracked branch. maxCommits <= 0
// selects DefaultMaxCompareCommits.
func NewResolver(catalog *model.Catalog, branch string, maxCommits int, logger *slog.Logger) *Resolver {
	if maxCommits <= 0 {
		maxCommits = DefaultMaxCompareCommits
	}
	return &Resolver{
		catalog:    catalog,
		branch:     branch,
		trackedRef: "refs/heads/" + branch,
		maxCommits: maxCommits,
		logger:     logger,
	}
}

// Branch returns the tracked branch name.
func (r *Resolver) Branch() string { return r.branch }

// TrackedRef returns the fully qualified tracked ref.
func (r *Resolver) TrackedRef() string { return r.trackedRef }

// Catalog returns the repository catalog.
func (r *Resolver) Catalog() *model.Catalog { return r.catalog }

// Push resolves a push notification. Checks run in this order: ref present,
// ref tracked, commits present, repository named, repository cataloged.
func (r *Resolver) Push(event model.PushEvent) (Resolution, error) {
	if event.Ref == "" {
		return Resolution{}, fmt.Errorf("%w: no ref in push", ErrMalformedPayload)
	}
	if event.Ref != r.trackedRef {
		return Resolution{NoOp: "Push to another branch"}, nil
	}
	if len(event.Commits) == 0 {
		return Resolution{NoOp: "No commits in push"}, nil
	}
	if event.RepoFullName == "" {
		return Resolution{}, ErrMissingRepository
	}

	mapping, err := r.catalog.Lookup(event.RepoFullName)
	if err != nil {
		return Resolution{}, fmt.Errorf("%s: %w", event.RepoFullName, err)
	}

	changes := model.NewChangeSet()
	for _, c := range event.Commits {
		r.logger.Info("loading commit", "repo", mapping.FullName, "commit", c.ID)
		r.record(changes, model.ChangeAdded, c.Added, mapping)
		r.record(changes, model.ChangeModified, c.Modified, mapping)
		r.record(changes, model.ChangeRemoved, c.Removed, mapping)
	}

	return Resolution{Mapping: mapping, Changes: changes}, nil
}

// Compare resolves a ref comparison for a cataloged repository. A result
// that is not ahead, or is ahead without a commit count, is a no-op. One
// spanning more than the ceiling returns ErrTooManyCommits.
func (r *Resolver) Compare(mapping model.RepoMapping, result *model.CompareResult) (Resolution, error) {
	if result == nil || result.Status == "" {
		return Resolution{NoOp: "Compare status was not defined"}, nil
	}
	if result.Status != model.CompareAhead {
		return Resolution{NoOp: fmt.Sprintf("No files changed, status: %s", result.Status)}, nil
	}
	if result.TotalCommits <= 0 {
		return Resolution{NoOp: "Total commits were not defined"}, nil
	}
	if result.TotalCommits > r.maxCommits {
		return Resolution{}, fmt.Errorf("%w: %d exceeds %d", ErrTooManyCommits, result.TotalCommits, r.maxCommits)
	}

	changes := model.NewChangeSet()
	for _, f := range result.Files {
		if f.Filename == "" {
			continue
		}
		switch f.Status {
		case model.FileStatusAdded:
			r.record(changes, model.ChangeAdded, []string{f.Filename}, mapping)
		case model.FileStatusRemoved:
			r.record(changes, model.ChangeRemoved, []string{f.Filename}, mapping)
		case model.FileStatusRenamed:
			if f.PreviousFilename != "" {
				r.record(changes, model.ChangeRemoved, []string{f.PreviousFilename}, mapping)
			}
			r.record(changes, model.ChangeModified, []string{f.Filename}, mapping)
		default:
			r.record(changes, model.ChangeModified, []string{f.Filename}, mapping)
		}
	}

	return Resolution{Mapping: mapping, Changes: changes}, nil
}

// record adds the in-scope paths to the change set. Paths outside the source
// prefix belong to another part of the repository and are dropped silently;
// unsafe paths are dropped with a warning.
func (r *Resolver) record(changes *model.ChangeSet, kind model.ChangeKind, paths []string, mapping model.RepoMapping) {
	for _, p := range paths {
		if !strings.HasPrefix(p, mapping.SourcePrefix) || p == mapping.SourcePrefix {
			continue
		}
		if !model.IsSafePath(p) {
			r.logger.Warn("dropping unsafe path", "repo", mapping.FullName, "path", p)
			continue
		}
		changes.Record(kind, p)
	}
}
