// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/assetsync/internal/domain/model"
	"github.com/ericfisherdev/assetsync/internal/domain/port/driven"
)

// SyncService drives the resolve -> stage -> promote pipeline for webhook
// pushes and for the catalog-wide compare sweep.
type SyncService struct {
	resolver *Resolver
	ghClient driven.GitHubClient
	stager   *Stager
	promoter *Promoter
	runStore driven.SyncRunStore
	metrics  driven.SyncMetrics
	locks    *RepoLocks
	logger   *slog.Logger
}

// NewSyncService creates a SyncService. runStore, metrics and locks may be
// nil; a nil locks table leaves concurrent passes unserialized.
func NewSyncService(
	resolver *Resolver,
	ghClient driven.GitHubClient,
	stager *Stager,
	promoter *Promoter,
	runStore driven.SyncRunStore,
	metrics driven.SyncMetrics,
	locks *RepoLocks,
	logger *slog.Logger,
) *SyncService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &SyncService{
		resolver: resolver,
		ghClient: ghClient,
		stager:   stager,
		promoter: promoter,
		runStore: runStore,
		metrics:  metrics,
		locks:    locks,
		logger:   logger,
	}
}

// SyncPush applies a verified push notification. Benign no-ops come back as
// a report with RunNoop; a malformed payload or a repository the catalog
// cannot place returns an error. Per-file failures never produce an error.
func (s *SyncService) SyncPush(ctx context.Context, event model.PushEvent) (model.SyncReport, error) {
	start := time.Now()

	res, err := s.resolver.Push(event)
	if err != nil {
		return model.SyncReport{}, err
	}

	var report model.SyncReport
	if res.NoOp != "" {
		s.logger.Info("push ignored", "reason", res.NoOp, "ref", event.Ref, "repo", event.RepoFullName)
		report = model.SyncReport{Repo: event.RepoFullName, Status: model.RunNoop, Message: res.NoOp}
	} else {
		report = s.apply(ctx, res)
	}

	s.finish(ctx, model.TriggerWebhook, event.Ref, start, report)
	return report, nil
}

// SweepCompare compares the latest tag of every cataloged repository with
// the tracked branch and applies the difference. A repository that cannot be
// compared, is not ahead, or exceeds the commit ceiling is skipped and the
// sweep moves on to the next one.
func (s *SyncService) SweepCompare(ctx context.Context) []model.SyncReport {
	catalog := s.resolver.Catalog()
	reports := make([]model.SyncReport, 0, catalog.Len())

	for _, name := range catalog.Repositories() {
		start := time.Now()
		report, ref := s.compareOne(ctx, name)
		s.finish(ctx, model.TriggerCompare, ref, start, report)
		reports = append(reports, report)
	}

	return reports
}

func (s *SyncService) compareOne(ctx context.Context, name string) (model.SyncReport, string) {
	skip := func(msg string, err error) model.SyncReport {
		s.logger.Warn(msg, "repo", name, "error", err)
		return model.SyncReport{Repo: name, Status: model.RunSkipped, Message: fmt.Sprintf("%s: %v", msg, err)}
	}

	s.logger.Info("loading commits", "repo", name)

	mapping, err := s.resolver.Catalog().Lookup(name)
	if err != nil {
		return skip("repository cannot be placed", err), ""
	}

	tag, err := s.ghClient.LatestTag(ctx, name)
	if err != nil {
		return skip("latest tag not found", err), ""
	}

	ref := tag + "..." + s.resolver.Branch()
	result, err := s.ghClient.CompareRefs(ctx, name, tag, s.resolver.Branch())
	if err != nil {
		return skip("compare failed", err), ref
	}

	res, err := s.resolver.Compare(mapping, result)
	if errors.Is(err, ErrTooManyCommits) {
		return skip("too many new commits since the latest tag, update manually", err), ref
	}
	if err != nil {
		return skip("compare could not be resolved", err), ref
	}
	if res.NoOp != "" {
		s.logger.Info("nothing to sync", "repo", name, "reason", res.NoOp)
		return model.SyncReport{Repo: name, Status: model.RunNoop, Message: res.NoOp}, ref
	}

	return s.apply(ctx, res), ref
}

// apply stages every added or modified path, then runs the promoter.
func (s *SyncService) apply(ctx context.Context, res Resolution) model.SyncReport {
	name := res.Mapping.FullName

	release, err := s.locks.Acquire(ctx, name)
	if err != nil {
		s.logger.Warn("could not acquire repository lock", "repo", name, "error", err)
		return model.SyncReport{Repo: name, Status: model.RunSkipped, Message: "repository is busy"}
	}
	defer release()

	changes := res.Changes
	result := model.SyncResult{
		Repo:     name,
		Added:    len(changes.Added()),
		Modified: len(changes.Modified()),
		Removed:  len(changes.Removed()),
	}

	result.Outcomes = append(result.Outcomes, s.stager.Stage(ctx, res.Mapping.FullName, s.resolver.Branch(), changes.ToFetch())...)
	result.Outcomes = append(result.Outcomes, s.promoter.Apply(res.Mapping, changes)...)

	msg := fmt.Sprintf("Finished update with %d added/modified and %d removed files", result.Promoted(), result.Deleted())
	s.logger.Info("sync finished",
		"repo", name,
		"promoted", result.Promoted(),
		"deleted", result.Deleted(),
		"failed", result.Failed(),
	)

	return model.SyncReport{Repo: name, Status: model.RunCompleted, Message: msg, Result: &result}
}

// finish records metrics and history for one pass. History failures are
// logged and otherwise ignored.
func (s *SyncService) finish(ctx context.Context, trigger model.Trigger, ref string, start time.Time, report model.SyncReport) {
	end := time.Now()
	s.metrics.RunFinished(trigger, report.Status, end.Sub(start))

	if s.runStore == nil {
		return
	}

	run := model.SyncRun{
		Trigger:    trigger,
		Repo:       report.Repo,
		Ref:        ref,
		Status:     report.Status,
		Message:    report.Message,
		StartedAt:  start,
		FinishedAt: end,
	}
	if r := report.Result; r != nil {
		run.Added = r.Added
		run.Modified = r.Modified
		run.Removed = r.Removed
		run.Promoted = r.Promoted()
		run.Deleted = r.Deleted()
		run.Failed = r.Failed()
	}

	if _, err := s.runStore.Record(ctx, run); err != nil {
		s.logger.Error("failed to record sync run", "repo", report.Repo, "error", err)
	}
}
