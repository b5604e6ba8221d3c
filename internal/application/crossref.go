package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
	"github.com/ericfisherdev/npm-audit-sync/internal/domain/port/driven"
)

// CrossReferenceSync leaves an "affects [PR](url)" comment on an issue for
// every pull request it affects. Links are append-only.
type CrossReferenceSync struct {
	tracker driven.IssueTracker
	repo    string
}

// NewCrossReferenceSync creates a CrossReferenceSync for the given repository.
func NewCrossReferenceSync(tracker driven.IssueTracker, repo string) *CrossReferenceSync {
	return &CrossReferenceSync{tracker: tracker, repo: repo}
}

// CrossReferenceResult reports what Sync did for one issue.
type CrossReferenceResult struct {
	Added    int
	Existing int
	Failures []model.Failure
}

// Sync ensures the issue carries one back-link per pull request. The issue's
// comments are listed once; a link whose exact body is already present is
// skipped. A failed listing is returned as an error; failed creates are
// reported per pull request in the result.
func (s *CrossReferenceSync) Sync(ctx context.Context, issue model.Issue, prs []model.PullRequest) (CrossReferenceResult, error) {
	var res CrossReferenceResult
	if len(prs) == 0 {
		return res, nil
	}

	comments, err := s.tracker.ListComments(ctx, s.repo, issue.Number)
	if err != nil {
		return res, err
	}

	bodies := make(map[string]bool, len(comments))
	for _, c := range comments {
		bodies[c.Body] = true
	}

	for _, pr := range prs {
		body := CrossReferenceBody(pr)
		if bodies[body] {
			res.Existing++
			continue
		}

		if _, err := s.tracker.CreateComment(ctx, s.repo, issue.Number, body); err != nil {
			slog.Error("cross reference failed", "issue_number", issue.Number, "pr_number", pr.Number, "error", err)
			res.Failures = append(res.Failures, model.Failure{
				Stage: "cross_reference",
				Key:   fmt.Sprintf("#%d/#%d", issue.Number, pr.Number),
				Err:   err,
			})
			continue
		}

		slog.Info("linked pull request on issue", "issue_number", issue.Number, "pr_number", pr.Number)
		bodies[body] = true
		res.Added++
	}

	return res, nil
}
