package application

import (
	"fmt"
	"strings"

	"github.com/package-url/packageurl-go"

	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
)

// StatusCommentMarker identifies the status comment among a pull request's comments.
const StatusCommentMarker = "# Found npm audit issues"

// IssueTitle renders the title of the issue tracking an advisory. The
// trailing "advisory <id>" is the identity marker used by IssueIndex.
func IssueTitle(a model.Advisory) string {
	return fmt.Sprintf("%s: %s in %s - %s", a.Severity, a.Title, a.ModuleName, advisoryMarker(a.ID))
}

func advisoryMarker(id int) string {
	return fmt.Sprintf("advisory %d", id)
}

// IssueBody renders the issue body for an advisory. Output depends only on
// the advisory's content, so re-applying it to an existing issue is a no-op.
func IssueBody(a model.Advisory) string {
	var b strings.Builder

	b.WriteString("# npm audit found\n")
	b.WriteString(a.Overview)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "*package*: `%s`\n\n", PackageURL(a.ModuleName, ""))
	fmt.Fprintf(&b, "*vulnerable versions*: %s\n\n", orUnknown(a.VulnerableVersions))
	fmt.Fprintf(&b, "*fixed in*: %s\n\n", orUnknown(a.PatchedVersions))
	if a.CWE != "" {
		fmt.Fprintf(&b, "*weakness*: %s\n\n", a.CWE)
	}
	if a.Recommendation != "" {
		fmt.Fprintf(&b, "*recommendation*: %s\n\n", a.Recommendation)
	}
	fmt.Fprintf(&b, "*reference*: %s\n\n", a.References)
	fmt.Fprintf(&b, "*url*: %s\n", a.URL)

	if len(a.Findings) > 0 {
		b.WriteString("\n## Installed versions\n")
		for _, f := range a.Findings {
			fmt.Fprintf(&b, "- `%s`%s: %s\n", f.Version, findingState(f), strings.Join(f.Paths, ", "))
		}
	}

	return b.String()
}

// StatusCommentBody renders the pull request status comment listing issues.
func StatusCommentBody(issues []model.Issue) string {
	var b strings.Builder
	b.WriteString(StatusCommentMarker)
	b.WriteString("\n")
	for _, issue := range issues {
		fmt.Fprintf(&b, "[%s](%s)\n", issue.Title, issue.URL)
	}
	return b.String()
}

// CrossReferenceBody renders the back-link comment left on an issue for a
// pull request it affects. Identity is exact body equality.
func CrossReferenceBody(pr model.PullRequest) string {
	return fmt.Sprintf("affects [%s](%s)", pr.Title, pr.URL)
}

// PackageURL returns the purl of an npm module. Scoped names ("@scope/name")
// map the scope to the purl namespace.
func PackageURL(module, version string) string {
	namespace, name := "", module
	if strings.HasPrefix(module, "@") {
		if i := strings.Index(module, "/"); i > 0 {
			namespace, name = module[:i], module[i+1:]
		}
	}
	return packageurl.NewPackageURL(packageurl.TypeNPM, namespace, name, version, nil, "").ToString()
}

func findingState(f model.Finding) string {
	if f.Vulnerable == nil {
		return ""
	}
	if *f.Vulnerable {
		return " (vulnerable)"
	}
	return " (outside vulnerable range)"
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
