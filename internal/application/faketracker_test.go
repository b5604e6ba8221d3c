package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
	"github.com/ericfisherdev/npm-audit-sync/internal/domain/port/driven"
)

// --- In-memory tracker fake ---

type issueUpdate struct {
	Number int
	Body   string
}

type commentCall struct {
	Number    int
	CommentID int64
	Body      string
}

// fakeTracker is an in-memory IssueTracker. Writes mutate its state, so a
// second run against the same fake observes the first run's results.
type fakeTracker struct {
	mu sync.Mutex

	issues    []model.Issue
	comments  map[int][]model.Comment
	prs       map[int]model.PullRequest
	commitPRs map[string][]int

	nextIssue   int
	nextComment int64

	issueCreates   []driven.IssueRequest
	issueUpdates   []issueUpdate
	commentCreates []commentCall
	commentUpdates []commentCall
	commentDeletes []int64

	errListIssues    error
	errGetPR         error
	errListPRs       error
	errCreateIssue   func(req driven.IssueRequest) error
	errUpdateIssue   func(number int) error
	errListComments  func(number int) error
	errCreateComment func(number int) error
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		comments:    make(map[int][]model.Comment),
		prs:         make(map[int]model.PullRequest),
		commitPRs:   make(map[string][]int),
		nextIssue:   100,
		nextComment: 1000,
	}
}

var errTransport = errors.New("transport failure")

func (f *fakeTracker) addPR(sha string, pr model.PullRequest) {
	f.prs[pr.Number] = pr
	if sha != "" {
		f.commitPRs[sha] = append(f.commitPRs[sha], pr.Number)
	}
}

func (f *fakeTracker) addComment(number int, body string) int64 {
	f.nextComment++
	f.comments[number] = append(f.comments[number], model.Comment{ID: f.nextComment, Body: body})
	return f.nextComment
}

func (f *fakeTracker) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issueCreates = nil
	f.issueUpdates = nil
	f.commentCreates = nil
	f.commentUpdates = nil
	f.commentDeletes = nil
}

func (f *fakeTracker) ListOpenIssues(_ context.Context, _ string) ([]model.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errListIssues != nil {
		return nil, f.errListIssues
	}
	return append([]model.Issue(nil), f.issues...), nil
}

func (f *fakeTracker) ListComments(_ context.Context, _ string, number int) ([]model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errListComments != nil {
		if err := f.errListComments(number); err != nil {
			return nil, err
		}
	}
	return append([]model.Comment(nil), f.comments[number]...), nil
}

func (f *fakeTracker) GetPullRequest(_ context.Context, _ string, number int) (model.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errGetPR != nil {
		return model.PullRequest{}, f.errGetPR
	}
	pr, ok := f.prs[number]
	if !ok {
		return model.PullRequest{}, fmt.Errorf("pull request %d not found", number)
	}
	return pr, nil
}

func (f *fakeTracker) ListPullRequestsForCommit(_ context.Context, _ string, sha string) ([]model.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errListPRs != nil {
		return nil, f.errListPRs
	}
	var out []model.PullRequest
	for _, n := range f.commitPRs[sha] {
		out = append(out, f.prs[n])
	}
	return out, nil
}

func (f *fakeTracker) CreateIssue(_ context.Context, _ string, req driven.IssueRequest) (model.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errCreateIssue != nil {
		if err := f.errCreateIssue(req); err != nil {
			return model.Issue{}, err
		}
	}
	f.nextIssue++
	issue := model.Issue{
		Number: f.nextIssue,
		Title:  req.Title,
		Body:   req.Body,
		URL:    fmt.Sprintf("https://github.com/owner/repo/issues/%d", f.nextIssue),
	}
	f.issues = append(f.issues, issue)
	f.issueCreates = append(f.issueCreates, req)
	return issue, nil
}

func (f *fakeTracker) UpdateIssue(_ context.Context, _ string, number int, body string) (model.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errUpdateIssue != nil {
		if err := f.errUpdateIssue(number); err != nil {
			return model.Issue{}, err
		}
	}
	f.issueUpdates = append(f.issueUpdates, issueUpdate{Number: number, Body: body})
	for i := range f.issues {
		if f.issues[i].Number == number {
			f.issues[i].Body = body
			return f.issues[i], nil
		}
	}
	return model.Issue{}, fmt.Errorf("issue %d not found", number)
}

func (f *fakeTracker) CreateComment(_ context.Context, _ string, number int, body string) (model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errCreateComment != nil {
		if err := f.errCreateComment(number); err != nil {
			return model.Comment{}, err
		}
	}
	id := f.addComment(number, body)
	f.commentCreates = append(f.commentCreates, commentCall{Number: number, CommentID: id, Body: body})
	return model.Comment{ID: id, Body: body}, nil
}

func (f *fakeTracker) UpdateComment(_ context.Context, _ string, commentID int64, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commentUpdates = append(f.commentUpdates, commentCall{CommentID: commentID, Body: body})
	for n, list := range f.comments {
		for i := range list {
			if list[i].ID == commentID {
				f.comments[n][i].Body = body
				return nil
			}
		}
	}
	return fmt.Errorf("comment %d not found", commentID)
}

func (f *fakeTracker) DeleteComment(_ context.Context, _ string, commentID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commentDeletes = append(f.commentDeletes, commentID)
	for n, list := range f.comments {
		for i := range list {
			if list[i].ID == commentID {
				f.comments[n] = append(list[:i:i], list[i+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("comment %d not found", commentID)
}

// commentsOn returns the comments currently on an issue or pull request.
func (f *fakeTracker) commentsOn(number int) []model.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Comment(nil), f.comments[number]...)
}
