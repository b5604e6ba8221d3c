// Package application contains the reconciliation engine that converges
// issues and pull request comments onto a set of audit advisories.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
	"github.com/ericfisherdev/npm-audit-sync/internal/domain/port/driven"
)

// Options configures a SyncService.
type Options struct {
	Repo        string // owner/repo
	Labels      []string
	Assignees   []string
	MinSeverity model.Severity
	Concurrency int
}

// SyncService runs one reconciliation pass. It holds no state between runs;
// everything it needs is read back from the tracker.
type SyncService struct {
	tracker  driven.IssueTracker
	opts     Options
	issues   *IssueReconciler
	status   *StatusCommentSync
	crossRef *CrossReferenceSync
}

// NewSyncService creates a SyncService with all required dependencies.
func NewSyncService(tracker driven.IssueTracker, opts Options) *SyncService {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &SyncService{
		tracker:  tracker,
		opts:     opts,
		issues:   NewIssueReconciler(tracker, opts.Repo, opts.Labels, opts.Assignees, opts.Concurrency),
		status:   NewStatusCommentSync(tracker, opts.Repo),
		crossRef: NewCrossReferenceSync(tracker, opts.Repo),
	}
}

// Run converges the tracker onto the given advisories. An empty advisory set
// is valid and removes stale status comments.
//
// Failing to read the issue snapshot or to discover pull requests aborts the
// run before any write. Failed individual writes do not stop the run; they
// are recorded in the summary and returned joined once every step has run.
func (s *SyncService) Run(ctx context.Context, trigger model.Trigger, advisories map[int]model.Advisory) (model.RunSummary, error) {
	start := time.Now()
	summary := model.RunSummary{
		Advisories:     s.selectAdvisories(advisories),
		StatusComments: make(map[int]model.StatusCommentAction),
	}

	snapshot, err := s.tracker.ListOpenIssues(ctx, s.opts.Repo)
	if err != nil {
		return summary, fmt.Errorf("snapshotting open issues: %w", err)
	}
	index := NewIssueIndex(snapshot)

	prs, err := DiscoverPullRequests(ctx, s.tracker, s.opts.Repo, trigger)
	if err != nil {
		return summary, err
	}
	summary.PullRequests = prs

	slog.Info("sync started",
		"repo", s.opts.Repo,
		"event", trigger.EventName,
		"sha", trigger.SHA,
		"advisories", len(summary.Advisories),
		"open_issues", index.Len(),
		"pull_requests", len(prs),
	)

	reconciled, failures := s.issues.Reconcile(ctx, summary.Advisories, index)
	summary.Issues = reconciled
	summary.Failures = append(summary.Failures, failures...)
	for _, ri := range reconciled {
		switch {
		case ri.Created:
			summary.IssuesCreated++
		case !ri.Stale:
			summary.IssuesUpdated++
		}
	}

	issues := make([]model.Issue, 0, len(reconciled))
	for _, ri := range reconciled {
		issues = append(issues, ri.Issue)
	}

	s.syncStatusComments(ctx, prs, issues, &summary)
	s.syncCrossReferences(ctx, issues, prs, &summary)

	summary.Duration = time.Since(start)

	slog.Info("sync complete",
		"issues_created", summary.IssuesCreated,
		"issues_updated", summary.IssuesUpdated,
		"status_created", summary.CountStatusComments(model.StatusCommentCreated),
		"status_updated", summary.CountStatusComments(model.StatusCommentUpdated),
		"status_deleted", summary.CountStatusComments(model.StatusCommentDeleted),
		"cross_references_added", summary.CrossReferencesAdded,
		"failures", len(summary.Failures),
		"duration", summary.Duration.Round(time.Millisecond),
	)

	if len(summary.Failures) > 0 {
		errs := make([]error, 0, len(summary.Failures))
		for _, f := range summary.Failures {
			errs = append(errs, fmt.Errorf("%s %s: %w", f.Stage, f.Key, f.Err))
		}
		return summary, fmt.Errorf("%d tracker writes failed: %w", len(summary.Failures), errors.Join(errs...))
	}

	return summary, nil
}

// selectAdvisories drops advisories below the minimum severity and orders
// the rest by id.
func (s *SyncService) selectAdvisories(advisories map[int]model.Advisory) []model.Advisory {
	selected := make([]model.Advisory, 0, len(advisories))
	for _, a := range advisories {
		if !a.Severity.AtLeast(s.opts.MinSeverity) {
			slog.Debug("skipping advisory below severity threshold",
				"advisory_id", a.ID,
				"severity", a.Severity.String(),
				"min_severity", s.opts.MinSeverity.String(),
			)
			continue
		}
		selected = append(selected, a)
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].ID < selected[j].ID })
	return selected
}

func (s *SyncService) syncStatusComments(ctx context.Context, prs []model.PullRequest, issues []model.Issue, summary *model.RunSummary) {
	actions := make([]model.StatusCommentAction, len(prs))
	errs := make([]error, len(prs))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, pr := range prs {
		g.Go(func() error {
			actions[i], errs[i] = s.status.Sync(ctx, pr, issues)
			return nil
		})
	}
	_ = g.Wait()

	for i, pr := range prs {
		if errs[i] != nil {
			slog.Error("status comment sync failed", "pr_number", pr.Number, "error", errs[i])
			summary.Failures = append(summary.Failures, model.Failure{
				Stage: "status_comment",
				Key:   "#" + strconv.Itoa(pr.Number),
				Err:   errs[i],
			})
			continue
		}
		summary.StatusComments[pr.Number] = actions[i]
	}
}

func (s *SyncService) syncCrossReferences(ctx context.Context, issues []model.Issue, prs []model.PullRequest, summary *model.RunSummary) {
	results := make([]CrossReferenceResult, len(issues))
	errs := make([]error, len(issues))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, issue := range issues {
		g.Go(func() error {
			results[i], errs[i] = s.crossRef.Sync(ctx, issue, prs)
			return nil
		})
	}
	_ = g.Wait()

	for i, issue := range issues {
		if errs[i] != nil {
			slog.Error("listing issue comments failed", "issue_number", issue.Number, "error", errs[i])
			summary.Failures = append(summary.Failures, model.Failure{
				Stage: "cross_reference",
				Key:   "#" + strconv.Itoa(issue.Number),
				Err:   errs[i],
			})
			continue
		}
		summary.CrossReferencesAdded += results[i].Added
		summary.CrossReferencesExists += results[i].Existing
		summary.Failures = append(summary.Failures, results[i].Failures...)
	}
}
