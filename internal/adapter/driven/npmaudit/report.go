package npmaudit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
)

// auditReport covers both npm audit JSON layouts: the npm 6 "advisories"
// map and the npm 7+ "vulnerabilities" map (auditReportVersion 2).
type auditReport struct {
	Error              *auditError                   `json:"error"`
	AuditReportVersion int                           `json:"auditReportVersion"`
	Advisories         map[string]legacyAdvisory     `json:"advisories"`
	Vulnerabilities    map[string]vulnerabilityEntry `json:"vulnerabilities"`
}

type auditError struct {
	Code    string `json:"code"`
	Summary string `json:"summary"`
	Detail  string `json:"detail"`
}

type legacyAdvisory struct {
	ID                 *int            `json:"id"`
	Title              string          `json:"title"`
	ModuleName         string          `json:"module_name"`
	VulnerableVersions string          `json:"vulnerable_versions"`
	PatchedVersions    string          `json:"patched_versions"`
	Overview           string          `json:"overview"`
	Recommendation     string          `json:"recommendation"`
	References         string          `json:"references"`
	Severity           string          `json:"severity"`
	CWE                json.RawMessage `json:"cwe"`
	URL                string          `json:"url"`
	Findings           []legacyFinding `json:"findings"`
}

type legacyFinding struct {
	Version string   `json:"version"`
	Paths   []string `json:"paths"`
}

type vulnerabilityEntry struct {
	Name         string            `json:"name"`
	Via          []json.RawMessage `json:"via"`
	FixAvailable json.RawMessage   `json:"fixAvailable"`
}

// viaAdvisory is an object entry of a v2 "via" list. String entries name
// another vulnerable package and carry no advisory.
type viaAdvisory struct {
	Source   *int            `json:"source"`
	Name     string          `json:"name"`
	Title    string          `json:"title"`
	URL      string          `json:"url"`
	Severity string          `json:"severity"`
	CWE      json.RawMessage `json:"cwe"`
	Range    string          `json:"range"`
}

type fixAvailable struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	IsSemVerMajor bool   `json:"isSemVerMajor"`
}

// ParseReport converts raw npm audit JSON into advisories keyed by advisory id.
// Errors wrap model.ErrMalformedAdvisory, or model.ErrScanExecution when npm
// reported its own failure in place of a report.
func ParseReport(data []byte) (map[int]model.Advisory, error) {
	var report auditReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedAdvisory, err)
	}

	if report.Error != nil {
		return nil, fmt.Errorf("%w: npm audit error %s: %s", model.ErrScanExecution, report.Error.Code, report.Error.Summary)
	}

	switch {
	case report.Advisories != nil:
		return parseLegacy(report.Advisories)
	case report.Vulnerabilities != nil:
		return parseVulnerabilities(report.Vulnerabilities)
	case report.AuditReportVersion == 0:
		return nil, fmt.Errorf("%w: neither advisories nor vulnerabilities present", model.ErrMalformedAdvisory)
	default:
		return map[int]model.Advisory{}, nil
	}
}

func parseLegacy(in map[string]legacyAdvisory) (map[int]model.Advisory, error) {
	out := make(map[int]model.Advisory, len(in))

	for key, a := range in {
		id, err := advisoryID(key, a.ID)
		if err != nil {
			return nil, err
		}

		severity, err := model.ParseSeverity(a.Severity)
		if err != nil {
			return nil, fmt.Errorf("%w: advisory %d: %v", model.ErrMalformedAdvisory, id, err)
		}

		findings := make([]model.Finding, 0, len(a.Findings))
		for _, f := range a.Findings {
			paths := append([]string(nil), f.Paths...)
			sort.Strings(paths)
			findings = append(findings, model.Finding{Version: f.Version, Paths: paths})
		}

		out[id] = model.Advisory{
			ID:                 id,
			Severity:           severity,
			Title:              a.Title,
			ModuleName:         a.ModuleName,
			Overview:           a.Overview,
			Recommendation:     a.Recommendation,
			VulnerableVersions: a.VulnerableVersions,
			PatchedVersions:    a.PatchedVersions,
			References:         a.References,
			CWE:                cweText(a.CWE),
			URL:                a.URL,
			Findings:           classifyFindings(a.VulnerableVersions, findings),
		}
	}

	return out, nil
}

func parseVulnerabilities(in map[string]vulnerabilityEntry) (map[int]model.Advisory, error) {
	out := make(map[int]model.Advisory)

	// Map iteration order is random; walk package names sorted so that the
	// first entry seen for a shared advisory is stable.
	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry := in[name]
		for _, raw := range entry.Via {
			if len(raw) > 0 && raw[0] == '"' {
				continue
			}

			var via viaAdvisory
			if err := json.Unmarshal(raw, &via); err != nil {
				return nil, fmt.Errorf("%w: via entry of %s: %v", model.ErrMalformedAdvisory, name, err)
			}
			if via.Source == nil {
				return nil, fmt.Errorf("%w: via entry of %s has no source id", model.ErrMalformedAdvisory, name)
			}
			if _, seen := out[*via.Source]; seen {
				continue
			}

			severity, err := model.ParseSeverity(via.Severity)
			if err != nil {
				return nil, fmt.Errorf("%w: advisory %d: %v", model.ErrMalformedAdvisory, *via.Source, err)
			}

			module := via.Name
			if module == "" {
				module = name
			}

			out[*via.Source] = model.Advisory{
				ID:                 *via.Source,
				Severity:           severity,
				Title:              via.Title,
				ModuleName:         module,
				Recommendation:     recommendation(entry.FixAvailable),
				VulnerableVersions: via.Range,
				CWE:                cweText(via.CWE),
				URL:                via.URL,
			}
		}
	}

	return out, nil
}

func advisoryID(key string, id *int) (int, error) {
	if id != nil {
		return *id, nil
	}
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, fmt.Errorf("%w: advisory key %q is not numeric", model.ErrMalformedAdvisory, key)
	}
	return n, nil
}

// cweText accepts the npm 6 string form and the newer array form.
func cweText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ", ")
	}
	return ""
}

// recommendation describes a v2 fixAvailable value, which is either a bool
// or an object naming the upgrade.
func recommendation(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var ok bool
	if err := json.Unmarshal(raw, &ok); err == nil {
		if ok {
			return "Run `npm audit fix`."
		}
		return "No fix available."
	}

	var fix fixAvailable
	if err := json.Unmarshal(raw, &fix); err != nil || fix.Name == "" {
		return ""
	}

	rec := fmt.Sprintf("Upgrade %s to %s.", fix.Name, fix.Version)
	if fix.IsSemVerMajor {
		rec += " This is a semver-major change."
	}
	return rec
}
