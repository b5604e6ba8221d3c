package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/npm-audit-sync/internal/application"
	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
	"github.com/ericfisherdev/npm-audit-sync/internal/domain/port/driven"
)

func TestIssueReconciler_CreateAndUpdate(t *testing.T) {
	tracker := newFakeTracker()
	tracker.issues = []model.Issue{
		{Number: 5, Title: "low: old title in foo - advisory 42", Body: "stale", URL: "https://github.com/owner/repo/issues/5"},
	}
	index := application.NewIssueIndex(append([]model.Issue(nil), tracker.issues...))
	reconciler := application.NewIssueReconciler(tracker, "owner/repo", nil, nil, 4)

	advisories := []model.Advisory{
		{ID: 99, Severity: model.SeverityLow, Title: "Leak", ModuleName: "bar"},
		redosAdvisory(),
	}

	issues, failures := reconciler.Reconcile(context.Background(), advisories, index)

	require.Empty(t, failures)
	require.Len(t, issues, 2)

	assert.Equal(t, 42, issues[0].AdvisoryID)
	assert.False(t, issues[0].Created)
	assert.Equal(t, 5, issues[0].Issue.Number)
	assert.Equal(t, "low: old title in foo - advisory 42", issues[0].Issue.Title, "title is left as found")
	assert.Equal(t, application.IssueBody(redosAdvisory()), issues[0].Issue.Body)

	assert.Equal(t, 99, issues[1].AdvisoryID)
	assert.True(t, issues[1].Created)
	require.Len(t, tracker.issueCreates, 1)
	assert.Equal(t, "low: Leak in bar - advisory 99", tracker.issueCreates[0].Title)
}

func TestIssueReconciler_FailureIsolatedPerAdvisory(t *testing.T) {
	tracker := newFakeTracker()
	tracker.errCreateIssue = func(req driven.IssueRequest) error {
		if req.Title == "low: Leak in bar - advisory 7" {
			return errTransport
		}
		return nil
	}
	reconciler := application.NewIssueReconciler(tracker, "owner/repo", nil, nil, 2)

	issues, failures := reconciler.Reconcile(context.Background(), []model.Advisory{
		{ID: 7, Severity: model.SeverityLow, Title: "Leak", ModuleName: "bar"},
		{ID: 8, Severity: model.SeverityLow, Title: "Leak", ModuleName: "baz"},
	}, application.NewIssueIndex(nil))

	require.Len(t, issues, 1)
	assert.Equal(t, 8, issues[0].AdvisoryID)
	require.Len(t, failures, 1)
	assert.Equal(t, "issue", failures[0].Stage)
	assert.Equal(t, "7", failures[0].Key)
	assert.ErrorIs(t, failures[0].Err, errTransport)
}

func TestIssueReconciler_ConcurrentCreatesUseSnapshot(t *testing.T) {
	tracker := newFakeTracker()
	reconciler := application.NewIssueReconciler(tracker, "owner/repo", nil, nil, 8)

	var advisories []model.Advisory
	for id := 1; id <= 20; id++ {
		advisories = append(advisories, model.Advisory{ID: id, Severity: model.SeverityModerate, Title: "t", ModuleName: "m"})
	}

	issues, failures := reconciler.Reconcile(context.Background(), advisories, application.NewIssueIndex(nil))

	require.Empty(t, failures)
	require.Len(t, issues, 20)
	for i, ri := range issues {
		assert.Equal(t, i+1, ri.AdvisoryID)
		assert.True(t, ri.Created)
	}
	assert.Len(t, tracker.issueCreates, 20)
}

func TestIssueReconciler_UpdateFailureKeepsExistingIssue(t *testing.T) {
	tracker := newFakeTracker()
	existing := model.Issue{Number: 5, Title: "high: ReDoS in foo - advisory 42", Body: "stale", URL: "https://github.com/owner/repo/issues/5"}
	tracker.issues = []model.Issue{existing}
	tracker.errUpdateIssue = func(int) error { return errTransport }
	reconciler := application.NewIssueReconciler(tracker, "owner/repo", nil, nil, 1)

	issues, failures := reconciler.Reconcile(context.Background(), []model.Advisory{redosAdvisory()},
		application.NewIssueIndex([]model.Issue{existing}))

	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, errTransport)
	require.Len(t, issues, 1)
	assert.True(t, issues[0].Stale)
	assert.False(t, issues[0].Created)
	assert.Equal(t, existing, issues[0].Issue)
}
