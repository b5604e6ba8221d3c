package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
	"github.com/ericfisherdev/npm-audit-sync/internal/domain/port/driven"
)

// DiscoverPullRequests resolves the pull requests a run reports on: the
// triggering pull request, if any, plus every pull request associated with
// the trigger's commit. The result is deduplicated by number and sorted.
// Read errors are returned; the run cannot continue without this set.
func DiscoverPullRequests(ctx context.Context, tracker driven.IssueTracker, repo string, trigger model.Trigger) ([]model.PullRequest, error) {
	byNumber := make(map[int]model.PullRequest)

	if trigger.IsPullRequest() {
		pr, err := tracker.GetPullRequest(ctx, repo, trigger.PRNumber)
		if err != nil {
			return nil, fmt.Errorf("resolving triggering pull request: %w", err)
		}
		byNumber[pr.Number] = pr
	}

	if trigger.SHA != "" {
		prs, err := tracker.ListPullRequestsForCommit(ctx, repo, trigger.SHA)
		if err != nil {
			return nil, fmt.Errorf("resolving pull requests for commit %s: %w", trigger.SHA, err)
		}
		for _, pr := range prs {
			if _, ok := byNumber[pr.Number]; !ok {
				byNumber[pr.Number] = pr
			}
		}
	}

	result := make([]model.PullRequest, 0, len(byNumber))
	for _, pr := range byNumber {
		result = append(result, pr)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })

	return result, nil
}
