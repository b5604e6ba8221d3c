package model

// Finding is one installed copy of a vulnerable module.
type Finding struct {
	Version string
	Paths   []string

	// Vulnerable is nil when the advisory's version range could not be parsed.
	Vulnerable *bool
}

// Advisory is a single vulnerability finding reported by npm audit.
// Advisories are rebuilt from scanner output on every run and never persisted.
type Advisory struct {
	ID                 int
	Severity           Severity
	Title              string
	ModuleName         string
	Overview           string
	Recommendation     string
	VulnerableVersions string
	PatchedVersions    string
	References         string
	CWE                string
	URL                string
	Findings           []Finding
}
