package application

import (
	"log/slog"
	"strings"

	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
)

// IssueIndex is a read-only snapshot of the repository's open issues, taken
// once per run before any issue is written. It is safe for concurrent use.
type IssueIndex struct {
	issues []model.Issue
}

// NewIssueIndex creates an index over the given snapshot. Order is preserved
// and decides which issue wins when several match.
func NewIssueIndex(issues []model.Issue) *IssueIndex {
	return &IssueIndex{issues: issues}
}

// Len returns the number of issues in the snapshot.
func (x *IssueIndex) Len() int {
	return len(x.issues)
}

// Lookup returns the open issue tracking the given advisory id. An issue
// matches when its title carries "advisory <id>" as a whole token, so
// advisory 42 never matches "advisory 421". When several issues match, the
// first in snapshot order is returned.
func (x *IssueIndex) Lookup(advisoryID int) (model.Issue, bool) {
	marker := advisoryMarker(advisoryID)

	var (
		found   model.Issue
		matches int
	)
	for _, issue := range x.issues {
		if !containsToken(issue.Title, marker) {
			continue
		}
		if matches == 0 {
			found = issue
		}
		matches++
	}

	if matches > 1 {
		slog.Warn("multiple open issues for advisory, using first",
			"advisory_id", advisoryID,
			"issue_number", found.Number,
			"matches", matches,
		)
	}

	return found, matches > 0
}

// containsToken reports whether token occurs in s with no word character
// directly before or after it.
func containsToken(s, token string) bool {
	for offset := 0; ; {
		i := strings.Index(s[offset:], token)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(token)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		offset = start + 1
	}
}

func isWordByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
