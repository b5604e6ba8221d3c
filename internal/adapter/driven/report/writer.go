package report

import (
	"fmt"
	"html"
	"os"
	"strings"
)

// AppendStepSummary appends markdown to the GitHub Actions step summary file.
func AppendStepSummary(path, markdown string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening step summary %s: %w", path, err)
	}

	if _, err := f.WriteString(markdown + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("writing step summary %s: %w", path, err)
	}

	return f.Close()
}

// WriteHTML renders markdown to a standalone sanitized HTML file.
func WriteHTML(path, title, markdown string) error {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("</head>\n<body>\n")
	b.WriteString(RenderMarkdown(markdown))
	b.WriteString("\n</body>\n</html>\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing html report %s: %w", path, err)
	}
	return nil
}
