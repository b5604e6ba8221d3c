package model

// Issue is an issue in the tracker. The tracker is the only durable store
// of reconciled advisories.
type Issue struct {
	Number int
	Title  string
	Body   string
	URL    string // Browser URL, used for links in comments.
}

// ReconciledIssue pairs an advisory with the issue that now represents it.
type ReconciledIssue struct {
	AdvisoryID int
	Issue      Issue
	Created    bool
	// Stale marks an existing issue whose body update failed. The issue is
	// still open and still tracks the advisory.
	Stale bool
}
