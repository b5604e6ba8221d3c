package model

// PullRequest is a read-only reference to a GitHub pull request affected by a run.
type PullRequest struct {
	Number int
	Title  string
	URL    string
}
