package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/npm-audit-sync/internal/application"
	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
)

func TestDiscoverPullRequests(t *testing.T) {
	tracker := newFakeTracker()
	tracker.addPR("", model.PullRequest{Number: 3, Title: "triggering"})
	tracker.addPR(testSHA, model.PullRequest{Number: 9, Title: "other"})
	tracker.addPR(testSHA, model.PullRequest{Number: 3, Title: "triggering"})

	tests := []struct {
		name    string
		trigger model.Trigger
		want    []int
	}{
		{"push uses commit association", model.Trigger{EventName: "push", SHA: testSHA}, []int{3, 9}},
		{"pull request adds triggering PR without duplicates", model.Trigger{EventName: "pull_request", PRNumber: 3, SHA: testSHA}, []int{3, 9}},
		{"pull request with unassociated commit", model.Trigger{EventName: "pull_request", PRNumber: 3, SHA: "merge-sha"}, []int{3}},
		{"nothing associated", model.Trigger{EventName: "push", SHA: "lonely"}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prs, err := application.DiscoverPullRequests(context.Background(), tracker, "owner/repo", tt.trigger)
			require.NoError(t, err)

			got := make([]int, 0, len(prs))
			for _, pr := range prs {
				got = append(got, pr.Number)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscoverPullRequests_GetFailureIsFatal(t *testing.T) {
	tracker := newFakeTracker()
	tracker.errGetPR = errTransport

	_, err := application.DiscoverPullRequests(context.Background(), tracker, "owner/repo",
		model.Trigger{EventName: "pull_request", PRNumber: 3, SHA: testSHA})

	require.ErrorIs(t, err, errTransport)
}
