package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/assetsync/internal/domain/model"
)

// ErrNoTags indicates the repository has no tags to compare against.
var ErrNoTags = errors.New("repository has no tags")

// GitHubClient defines the driven port for the structured GitHub REST API.
type GitHubClient interface {
	// LatestTag returns the name of the newest tag of the repository.
	// Returns ErrNoTags if the repository has none.
	LatestTag(ctx context.Context, repoFullName string) (string, error)
	// CompareRefs compares head against base (base...head).
	CompareRefs(ctx context.Context, repoFullName, base, head string) (*model.CompareResult, error)
}
