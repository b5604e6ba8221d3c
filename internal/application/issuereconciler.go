package application

import (
	"context"
	"log/slog"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
	"github.com/ericfisherdev/npm-audit-sync/internal/domain/port/driven"
)

// IssueReconciler brings the tracker's issues in line with the current advisories.
type IssueReconciler struct {
	tracker     driven.IssueTracker
	repo        string
	labels      []string
	assignees   []string
	concurrency int
}

// NewIssueReconciler creates an IssueReconciler. Labels and assignees are
// applied to newly created issues only.
func NewIssueReconciler(tracker driven.IssueTracker, repo string, labels, assignees []string, concurrency int) *IssueReconciler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &IssueReconciler{
		tracker:     tracker,
		repo:        repo,
		labels:      labels,
		assignees:   assignees,
		concurrency: concurrency,
	}
}

// Reconcile creates or updates one issue per advisory. Every advisory is
// matched against the same index, which must be built before Reconcile is
// called, so concurrent creates within a run never see each other. That is
// only safe because advisory ids are unique within a run.
//
// A failed write for one advisory is returned as a Failure and does not stop
// the others. An existing issue whose update failed is still returned, marked
// Stale, so later steps keep treating it as open. Results are ordered by
// advisory id.
func (r *IssueReconciler) Reconcile(ctx context.Context, advisories []model.Advisory, index *IssueIndex) ([]model.ReconciledIssue, []model.Failure) {
	sorted := append([]model.Advisory(nil), advisories...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	results := make([]*model.ReconciledIssue, len(sorted))
	errs := make([]error, len(sorted))

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, a := range sorted {
		g.Go(func() error {
			issue, err := r.reconcileOne(ctx, a, index)
			errs[i] = err
			if err == nil || issue.Stale {
				results[i] = &issue
			}
			return nil
		})
	}
	_ = g.Wait()

	reconciled := make([]model.ReconciledIssue, 0, len(sorted))
	var failures []model.Failure
	for i, a := range sorted {
		if errs[i] != nil {
			slog.Error("issue reconciliation failed", "advisory_id", a.ID, "error", errs[i])
			failures = append(failures, model.Failure{Stage: "issue", Key: strconv.Itoa(a.ID), Err: errs[i]})
		}
		if results[i] != nil {
			reconciled = append(reconciled, *results[i])
		}
	}

	return reconciled, failures
}

func (r *IssueReconciler) reconcileOne(ctx context.Context, a model.Advisory, index *IssueIndex) (model.ReconciledIssue, error) {
	body := IssueBody(a)

	if existing, ok := index.Lookup(a.ID); ok {
		slog.Info("updating issue for advisory", "advisory_id", a.ID, "issue_number", existing.Number)
		if _, err := r.tracker.UpdateIssue(ctx, r.repo, existing.Number, body); err != nil {
			return model.ReconciledIssue{AdvisoryID: a.ID, Issue: existing, Stale: true}, err
		}
		existing.Body = body
		return model.ReconciledIssue{AdvisoryID: a.ID, Issue: existing}, nil
	}

	slog.Info("creating issue for advisory", "advisory_id", a.ID, "severity", a.Severity.String())
	created, err := r.tracker.CreateIssue(ctx, r.repo, driven.IssueRequest{
		Title:     IssueTitle(a),
		Body:      body,
		Labels:    r.labels,
		Assignees: r.assignees,
	})
	if err != nil {
		return model.ReconciledIssue{}, err
	}

	return model.ReconciledIssue{AdvisoryID: a.ID, Issue: created, Created: true}, nil
}
