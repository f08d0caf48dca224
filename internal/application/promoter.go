package application

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/ericfisherdev/assetsync/internal/domain/model"
	"github.com/ericfisherdev/assetsync/internal/domain/port/driven"
)

// Promoter reconciles the production root with a resolved change set: it
// deletes removed and modified paths, then moves staged files into place.
// The two passes are sequential and not transactional across files.
type Promoter struct {
	stagingRoot string
	prodRoot    string
	metrics     driven.SyncMetrics
	logger      *slog.Logger
}

// NewPromoter creates a Promoter. metrics may be nil.
func NewPromoter(stagingRoot, prodRoot string, metrics driven.SyncMetrics, logger *slog.Logger) *Promoter {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Promoter{
		stagingRoot: stagingRoot,
		prodRoot:    prodRoot,
		metrics:     metrics,
		logger:      logger,
	}
}

// LocalPath returns the production path a repository path maps to.
func (p *Promoter) LocalPath(repoPath string, mapping model.RepoMapping) string {
	return filepath.Join(p.prodRoot, filepath.FromSlash(model.Remap(repoPath, mapping.SourcePrefix, mapping.DestSubfolder)))
}

// Apply runs the deletion pass then the promotion pass and returns one
// outcome per path per pass. Individual failures are logged and recorded,
// never returned.
func (p *Promoter) Apply(mapping model.RepoMapping, changes *model.ChangeSet) []model.FileOutcome {
	toDelete := changes.ToDelete()
	toPromote := changes.ToFetch()
	outcomes := make([]model.FileOutcome, 0, len(toDelete)+len(toPromote))

	for _, repoPath := range toDelete {
		o := p.deleteOne(mapping, repoPath)
		p.metrics.FileProcessed(o.Stage, o.Result)
		outcomes = append(outcomes, o)
	}

	for _, repoPath := range toPromote {
		o := p.promoteOne(mapping, repoPath)
		p.metrics.FileProcessed(o.Stage, o.Result)
		outcomes = append(outcomes, o)
	}

	return outcomes
}

func (p *Promoter) deleteOne(mapping model.RepoMapping, repoPath string) model.FileOutcome {
	local := p.LocalPath(repoPath, mapping)
	o := model.FileOutcome{Path: repoPath, LocalPath: local, Stage: model.StageDelete}

	err := os.Remove(local)
	switch {
	case err == nil:
		o.Result = model.FileOK
	case errors.Is(err, os.ErrNotExist):
		p.logger.Info("file to delete not present", "repo", mapping.FullName, "path", repoPath)
		o.Result = model.FileAbsent
	default:
		p.logger.Error("could not delete file", "repo", mapping.FullName, "path", repoPath, "error", err)
		o.Result = model.FileFailed
		o.Err = err
	}
	return o
}

func (p *Promoter) promoteOne(mapping model.RepoMapping, repoPath string) model.FileOutcome {
	staged := StagedPath(p.stagingRoot, mapping.FullName, repoPath)
	local := p.LocalPath(repoPath, mapping)
	o := model.FileOutcome{Path: repoPath, LocalPath: local, Stage: model.StagePromote}

	info, err := os.Stat(staged)
	if err != nil || info.IsDir() {
		// The fetch stage already logged why nothing was staged.
		o.Result = model.FileSkipped
		return o
	}
	o.Bytes = info.Size()

	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		p.logger.Error("could not create production folder", "repo", mapping.FullName, "path", repoPath, "error", err)
		o.Result = model.FileFailed
		o.Err = err
		return o
	}

	if err := moveFile(staged, local); err != nil {
		p.logger.Error("could not promote file", "repo", mapping.FullName, "path", repoPath, "error", err)
		o.Result = model.FileFailed
		o.Err = err
		return o
	}

	o.Result = model.FileOK
	return o
}

// moveFile renames src to dst. When the two roots live on different volumes
// the rename fails with EXDEV and the file is copied into a temp file beside
// dst, renamed over dst, and src removed.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return err
	}

	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("copy across volumes: %w", err)
	}
	return os.Remove(src)
}

// copyFile copies src to dst through a temp file in dst's directory so dst
// is replaced atomically.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".assetsync-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, dst)
}
