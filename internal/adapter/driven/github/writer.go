package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
	"github.com/ericfisherdev/npm-audit-sync/internal/domain/port/driven"
)

// CreateIssue opens a new issue. Labels and assignees are only sent when set.
func (c *Client) CreateIssue(ctx context.Context, repoFullName string, req driven.IssueRequest) (model.Issue, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return model.Issue{}, err
	}

	issueReq := &gh.IssueRequest{
		Title: gh.Ptr(req.Title),
		Body:  gh.Ptr(req.Body),
	}
	if len(req.Labels) > 0 {
		issueReq.Labels = &req.Labels
	}
	if len(req.Assignees) > 0 {
		issueReq.Assignees = &req.Assignees
	}

	issue, resp, err := c.gh.Issues.Create(ctx, owner, repo, issueReq)
	if err != nil {
		return model.Issue{}, fmt.Errorf("creating issue %q in %s: %w", req.Title, repoFullName, err)
	}

	logRateLimit(resp, repoFullName+"/create-issue", 0, 1)
	return mapIssue(issue), nil
}

// UpdateIssue replaces an issue's body, leaving title, labels and state alone.
func (c *Client) UpdateIssue(ctx context.Context, repoFullName string, number int, body string) (model.Issue, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return model.Issue{}, err
	}

	issue, resp, err := c.gh.Issues.Edit(ctx, owner, repo, number, &gh.IssueRequest{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return model.Issue{}, fmt.Errorf("updating issue %s#%d: %w", repoFullName, number, err)
	}

	logRateLimit(resp, repoFullName+"/update-issue", 0, 1)
	return mapIssue(issue), nil
}

// CreateComment adds a general comment to an issue or pull request via the Issues API.
func (c *Client) CreateComment(ctx context.Context, repoFullName string, number int, body string) (model.Comment, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return model.Comment{}, err
	}

	comment, resp, err := c.gh.Issues.CreateComment(ctx, owner, repo, number, &gh.IssueComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return model.Comment{}, fmt.Errorf("creating comment on %s#%d: %w", repoFullName, number, err)
	}

	logRateLimit(resp, repoFullName+"/create-comment", 0, 1)
	return mapComment(comment), nil
}

// UpdateComment replaces the body of an existing comment.
func (c *Client) UpdateComment(ctx context.Context, repoFullName string, commentID int64, body string) error {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return err
	}

	_, resp, err := c.gh.Issues.EditComment(ctx, owner, repo, commentID, &gh.IssueComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("updating comment %d in %s: %w", commentID, repoFullName, err)
	}

	logRateLimit(resp, repoFullName+"/update-comment", 0, 1)
	return nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, repoFullName string, commentID int64) error {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return err
	}

	resp, err := c.gh.Issues.DeleteComment(ctx, owner, repo, commentID)
	if err != nil {
		return fmt.Errorf("deleting comment %d in %s: %w", commentID, repoFullName, err)
	}

	logRateLimit(resp, repoFullName+"/delete-comment", 0, 1)
	return nil
}
