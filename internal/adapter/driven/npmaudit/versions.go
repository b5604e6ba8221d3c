package npmaudit

import (
	"log/slog"
	"sort"

	npm "github.com/aquasecurity/go-npm-version/pkg"

	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
)

// classifyFindings marks each installed version as inside or outside the
// vulnerable range and sorts findings by version. A range npm semantics
// cannot parse leaves Vulnerable unset.
func classifyFindings(vulnerableRange string, findings []model.Finding) []model.Finding {
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Version < findings[j].Version
	})

	if vulnerableRange == "" || len(findings) == 0 {
		return findings
	}

	constraints, err := npm.NewConstraints(vulnerableRange)
	if err != nil {
		slog.Debug("unparseable vulnerable range", "range", vulnerableRange, "error", err)
		return findings
	}

	for i := range findings {
		v, err := npm.NewVersion(findings[i].Version)
		if err != nil {
			continue
		}
		vulnerable := constraints.Check(v)
		findings[i].Vulnerable = &vulnerable
	}

	return findings
}
