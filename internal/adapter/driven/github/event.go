package github

import (
	"fmt"
	"os"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
)

// LoadTrigger builds the run trigger from the GitHub Actions event name,
// the event payload file and the commit SHA. The payload is only read for
// pull request events, where it supplies the pull request number.
func LoadTrigger(eventName, eventPath, sha string) (model.Trigger, error) {
	trigger := model.Trigger{EventName: eventName, SHA: sha}

	if eventName != model.EventPullRequest && eventName != "pull_request_target" {
		return trigger, nil
	}
	if eventPath == "" {
		return trigger, fmt.Errorf("%s event without an event payload path", eventName)
	}

	payload, err := os.ReadFile(eventPath)
	if err != nil {
		return trigger, fmt.Errorf("reading event payload: %w", err)
	}

	event, err := gh.ParseWebHook(eventName, payload)
	if err != nil {
		return trigger, fmt.Errorf("parsing %s event payload: %w", eventName, err)
	}

	switch e := event.(type) {
	case *gh.PullRequestEvent:
		trigger.PRNumber = e.GetPullRequest().GetNumber()
	case *gh.PullRequestTargetEvent:
		trigger.PRNumber = e.GetPullRequest().GetNumber()
	}

	return trigger, nil
}
