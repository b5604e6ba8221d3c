package driven

import (
	"context"

	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
)

// IssueRequest is the input to IssueTracker.CreateIssue.
type IssueRequest struct {
	Title     string
	Body      string
	Labels    []string // Optional.
	Assignees []string // Optional.
}

// IssueTracker defines the driven port for the remote tracker that holds
// all durable state. Issue and pull request comments share one comment API,
// so the comment methods take either an issue or a pull request number.
type IssueTracker interface {
	// Read methods

	// ListOpenIssues returns every open issue in the repository, excluding pull requests.
	ListOpenIssues(ctx context.Context, repoFullName string) ([]model.Issue, error)
	// ListComments returns all comments on an issue or pull request, oldest first.
	ListComments(ctx context.Context, repoFullName string, number int) ([]model.Comment, error)
	GetPullRequest(ctx context.Context, repoFullName string, number int) (model.PullRequest, error)
	// ListPullRequestsForCommit returns the pull requests associated with a commit SHA.
	ListPullRequestsForCommit(ctx context.Context, repoFullName string, sha string) ([]model.PullRequest, error)

	// Write methods

	CreateIssue(ctx context.Context, repoFullName string, req IssueRequest) (model.Issue, error)
	// UpdateIssue replaces the body of an existing issue. The title is left untouched.
	UpdateIssue(ctx context.Context, repoFullName string, number int, body string) (model.Issue, error)
	CreateComment(ctx context.Context, repoFullName string, number int, body string) (model.Comment, error)
	UpdateComment(ctx context.Context, repoFullName string, commentID int64, body string) error
	DeleteComment(ctx context.Context, repoFullName string, commentID int64) error
}
