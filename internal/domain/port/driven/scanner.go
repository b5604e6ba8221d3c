package driven

import (
	"context"

	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
)

// ScanResult is the immutable outcome of one scanner invocation.
type ScanResult struct {
	ExitCode int
	Stdout   []byte
}

// FoundVulnerabilities reports whether the scanner signalled findings.
// npm audit exits 1 when vulnerabilities are found.
func (r ScanResult) FoundVulnerabilities() bool {
	return r.ExitCode == 1
}

// Scanner defines the driven port for the dependency audit.
type Scanner interface {
	// Scan runs the audit and returns its captured output. Returned errors wrap
	// model.ErrScanExecution.
	Scan(ctx context.Context) (ScanResult, error)
	// Advisories parses a scan result into advisories keyed by id. Returned
	// errors wrap model.ErrMalformedAdvisory or model.ErrScanExecution.
	Advisories(result ScanResult) (map[int]model.Advisory, error)
}
