package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/assetsync/internal/domain/model"
	"github.com/ericfisherdev/assetsync/internal/domain/port/driven"
)

// DefaultFetchConcurrency bounds concurrent downloads within one pass.
const DefaultFetchConcurrency = 4

// Stager downloads file content from the remote host into the staging root.
// Each repository gets its own owner/repo folder, and the layout below it
// mirrors the remote. Each file is independent: a failure only
// removes that file from the pass.
type Stager struct {
	source      driven.ContentSource
	root        string
	concurrency int
	metrics     driven.SyncMetrics
	logger      *slog.Logger
}

// NewStager creates a Stager writing under root. concurrency <= 0 selects
// DefaultFetchConcurrency. metrics may be nil.
func NewStager(source driven.ContentSource, root string, concurrency int, metrics driven.SyncMetrics, logger *slog.Logger) *Stager {
	if concurrency <= 0 {
		concurrency = DefaultFetchConcurrency
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Stager{
		source:      source,
		root:        root,
		concurrency: concurrency,
		metrics:     metrics,
		logger:      logger,
	}
}

// Root returns the staging root directory.
func (s *Stager) Root() string { return s.root }

// StagedPath returns where repoPath of repoFullName is staged.
func (s *Stager) StagedPath(repoFullName, repoPath string) string {
	return StagedPath(s.root, repoFullName, repoPath)
}

// StagedPath returns the staging location of repoPath under root. Repositories
// never share a slot, even when their paths collide.
func StagedPath(root, repoFullName, repoPath string) string {
	return filepath.Join(root, filepath.FromSlash(repoFullName), filepath.FromSlash(repoPath))
}

// Stage downloads every path at the tip of branch. It returns one outcome
// per path, in the order given, and never fails as a whole.
func (s *Stager) Stage(ctx context.Context, repoFullName, branch string, paths []string) []model.FileOutcome {
	outcomes := make([]model.FileOutcome, len(paths))

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, p := range paths {
		g.Go(func() error {
			outcomes[i] = s.stageOne(ctx, repoFullName, branch, p)
			s.metrics.FileProcessed(model.StageFetch, outcomes[i].Result)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (s *Stager) stageOne(ctx context.Context, repoFullName, branch, repoPath string) model.FileOutcome {
	dest := s.StagedPath(repoFullName, repoPath)
	outcome := model.FileOutcome{Path: repoPath, LocalPath: dest, Stage: model.StageFetch}

	n, err := s.download(ctx, repoFullName, branch, repoPath, dest)
	if err != nil {
		// Never leave a partial or stale file behind for promotion to pick up.
		if rmErr := os.Remove(dest); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			s.logger.Error("failed to remove staged file", "repo", repoFullName, "path", repoPath, "error", rmErr)
		}
		s.logger.Error("could not download file", "repo", repoFullName, "path", repoPath, "error", err)
		outcome.Result = model.FileFailed
		outcome.Err = err
		return outcome
	}

	s.logger.Debug("file staged", "repo", repoFullName, "path", repoPath, "size", humanize.Bytes(uint64(n)))
	outcome.Result = model.FileOK
	outcome.Bytes = n
	return outcome
}

func (s *Stager) download(ctx context.Context, repoFullName, branch, repoPath, dest string) (int64, error) {
	body, err := s.source.OpenRaw(ctx, repoFullName, branch, repoPath)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("create staging folder: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create staged file: %w", err)
	}

	n, copyErr := io.Copy(f, body)
	closeErr := f.Close()
	if copyErr != nil {
		return n, fmt.Errorf("write staged file: %w", copyErr)
	}
	if closeErr != nil {
		return n, fmt.Errorf("close staged file: %w", closeErr)
	}

	return n, nil
}
