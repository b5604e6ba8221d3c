package model

import (
	"fmt"
	"strings"
)

// Severity is the npm advisory severity. Values are ordered so that
// comparisons reflect urgency.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityModerate
	SeverityHigh
	SeverityCritical
)

// String returns the lowercase npm spelling of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityLow:
		return "low"
	case SeverityModerate:
		return "moderate"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// AtLeast reports whether s is as severe as min or more.
func (s Severity) AtLeast(min Severity) bool {
	return s >= min
}

// ParseSeverity converts an npm severity string to a Severity.
func ParseSeverity(v string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "info":
		return SeverityInfo, nil
	case "low":
		return SeverityLow, nil
	case "moderate", "medium":
		return SeverityModerate, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return SeverityInfo, fmt.Errorf("unknown severity %q", v)
	}
}

// StatusCommentAction is the write performed on a pull request's status comment.
type StatusCommentAction string

const (
	StatusCommentNone    StatusCommentAction = "none"
	StatusCommentCreated StatusCommentAction = "created"
	StatusCommentUpdated StatusCommentAction = "updated"
	StatusCommentDeleted StatusCommentAction = "deleted"
)
