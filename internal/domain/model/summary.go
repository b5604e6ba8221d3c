package model

import "time"

// Failure records an isolated write failure that did not abort the run.
type Failure struct {
	Stage string // "issue", "status_comment" or "cross_reference".
	Key   string // Advisory id, PR number or issue/PR pair.
	Err   error
}

// RunSummary is the outcome of one sync run.
type RunSummary struct {
	RunID        string
	Advisories   []Advisory
	Issues       []ReconciledIssue
	PullRequests []PullRequest

	IssuesCreated         int
	IssuesUpdated         int
	StatusComments        map[int]StatusCommentAction // Keyed by PR number.
	CrossReferencesAdded  int
	CrossReferencesExists int

	Failures []Failure
	Duration time.Duration
}

// CountStatusComments returns how many pull requests had the given action applied.
func (s RunSummary) CountStatusComments(action StatusCommentAction) int {
	n := 0
	for _, a := range s.StatusComments {
		if a == action {
			n++
		}
	}
	return n
}
