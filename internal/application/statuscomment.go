package application

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
	"github.com/ericfisherdev/npm-audit-sync/internal/domain/port/driven"
)

// StatusCommentSync keeps a single marker comment on a pull request that
// lists the run's issues.
//
//	absent  + no issues -> nothing
//	absent  + issues    -> create
//	present + issues    -> update (always, even if unchanged)
//	present + no issues -> delete
type StatusCommentSync struct {
	tracker driven.IssueTracker
	repo    string
}

// NewStatusCommentSync creates a StatusCommentSync for the given repository.
func NewStatusCommentSync(tracker driven.IssueTracker, repo string) *StatusCommentSync {
	return &StatusCommentSync{tracker: tracker, repo: repo}
}

// Sync converges the status comment of one pull request. The first comment
// containing the marker is the status comment; any later ones are left alone.
func (s *StatusCommentSync) Sync(ctx context.Context, pr model.PullRequest, issues []model.Issue) (model.StatusCommentAction, error) {
	comments, err := s.tracker.ListComments(ctx, s.repo, pr.Number)
	if err != nil {
		return model.StatusCommentNone, err
	}

	existing, found := findStatusComment(pr.Number, comments)

	switch {
	case !found && len(issues) == 0:
		return model.StatusCommentNone, nil

	case !found:
		slog.Info("posting status comment", "pr_number", pr.Number, "issues", len(issues))
		if _, err := s.tracker.CreateComment(ctx, s.repo, pr.Number, StatusCommentBody(issues)); err != nil {
			return model.StatusCommentNone, err
		}
		return model.StatusCommentCreated, nil

	case len(issues) == 0:
		slog.Info("deleting status comment", "pr_number", pr.Number, "comment_id", existing.ID)
		if err := s.tracker.DeleteComment(ctx, s.repo, existing.ID); err != nil {
			return model.StatusCommentNone, err
		}
		return model.StatusCommentDeleted, nil

	default:
		slog.Info("updating status comment", "pr_number", pr.Number, "comment_id", existing.ID, "issues", len(issues))
		if err := s.tracker.UpdateComment(ctx, s.repo, existing.ID, StatusCommentBody(issues)); err != nil {
			return model.StatusCommentNone, err
		}
		return model.StatusCommentUpdated, nil
	}
}

func findStatusComment(prNumber int, comments []model.Comment) (model.Comment, bool) {
	var (
		first   model.Comment
		matches int
	)
	for _, c := range comments {
		if !strings.Contains(c.Body, StatusCommentMarker) {
			continue
		}
		if matches == 0 {
			first = c
		}
		matches++
	}

	if matches > 1 {
		slog.Warn("multiple status comments on pull request, using first",
			"pr_number", prNumber,
			"comment_id", first.ID,
			"matches", matches,
		)
	}

	return first, matches > 0
}
