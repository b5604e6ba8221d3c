// Package report renders a run summary as GitHub step summary markdown and
// as a standalone sanitized HTML document.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
}

// RenderMarkdown converts a markdown string to sanitized HTML. Advisory
// text comes from the npm registry and is treated as untrusted.
// Returns empty string for empty input.
func RenderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return htmlSanitizer.Sanitize(src)
	}

	return htmlSanitizer.Sanitize(buf.String())
}

// Markdown renders the run summary: an advisory table linking each issue,
// the convergence counts and any isolated failures.
func Markdown(s model.RunSummary) string {
	var b strings.Builder

	b.WriteString("## npm audit sync\n\n")

	if len(s.Advisories) == 0 {
		b.WriteString("No vulnerabilities found.\n\n")
	} else {
		issueByAdvisory := make(map[int]model.ReconciledIssue, len(s.Issues))
		for _, ri := range s.Issues {
			issueByAdvisory[ri.AdvisoryID] = ri
		}

		b.WriteString("| Advisory | Severity | Module | Vulnerable | Fixed in | Issue |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, a := range s.Advisories {
			issueCell := "failed"
			if ri, ok := issueByAdvisory[a.ID]; ok {
				issueCell = fmt.Sprintf("[#%d](%s)", ri.Issue.Number, ri.Issue.URL)
				if ri.Stale {
					issueCell += " (update failed)"
				}
			}
			fmt.Fprintf(&b, "| [%d](%s) | %s | `%s` | `%s` | `%s` | %s |\n",
				a.ID, a.URL, a.Severity, a.ModuleName,
				cell(a.VulnerableVersions), cell(a.PatchedVersions), issueCell)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "- issues created: %d\n", s.IssuesCreated)
	fmt.Fprintf(&b, "- issues updated: %d\n", s.IssuesUpdated)
	fmt.Fprintf(&b, "- pull requests: %s\n", prList(s.PullRequests))
	fmt.Fprintf(&b, "- status comments created/updated/deleted: %d/%d/%d\n",
		s.CountStatusComments(model.StatusCommentCreated),
		s.CountStatusComments(model.StatusCommentUpdated),
		s.CountStatusComments(model.StatusCommentDeleted))
	fmt.Fprintf(&b, "- cross references added: %d\n", s.CrossReferencesAdded)

	if len(s.Failures) > 0 {
		b.WriteString("\n### Failures\n\n")
		for _, f := range s.Failures {
			fmt.Fprintf(&b, "- %s %s: %s\n", f.Stage, f.Key, f.Err)
		}
	}

	if s.RunID != "" {
		fmt.Fprintf(&b, "\n<sub>run %s</sub>\n", s.RunID)
	}

	return b.String()
}

func prList(prs []model.PullRequest) string {
	if len(prs) == 0 {
		return "none"
	}
	nums := make([]int, 0, len(prs))
	for _, pr := range prs {
		nums = append(nums, pr.Number)
	}
	sort.Ints(nums)

	parts := make([]string, 0, len(nums))
	for _, n := range nums {
		parts = append(parts, fmt.Sprintf("#%d", n))
	}
	return strings.Join(parts, ", ")
}

// cell keeps a value from breaking the table row.
func cell(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}
