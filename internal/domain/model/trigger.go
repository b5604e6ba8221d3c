package model

// EventPullRequest is the GitHub Actions event name for pull request triggers.
const EventPullRequest = "pull_request"

// Trigger describes what started the run. It is passed explicitly to the
// sync service instead of being read from the environment.
type Trigger struct {
	EventName string
	PRNumber  int // Zero unless EventName is a pull request event.
	SHA       string
}

// IsPullRequest reports whether the run was triggered by a pull request event
// that carries a pull request number.
func (t Trigger) IsPullRequest() bool {
	return (t.EventName == EventPullRequest || t.EventName == "pull_request_target") && t.PRNumber > 0
}
