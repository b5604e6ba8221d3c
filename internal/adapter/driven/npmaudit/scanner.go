// Package npmaudit implements the Scanner port on top of `npm audit --json`.
package npmaudit

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
	"github.com/ericfisherdev/npm-audit-sync/internal/domain/port/driven"
)

// DefaultCommand is the audit invocation used when none is configured.
var DefaultCommand = []string{"npm", "audit", "--json"}

// Compile-time interface satisfaction check.
var _ driven.Scanner = (*Scanner)(nil)

// Scanner runs an npm audit command in a working directory.
type Scanner struct {
	command []string
	dir     string
}

// NewScanner creates a Scanner. An empty command falls back to DefaultCommand.
func NewScanner(command []string, dir string) *Scanner {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &Scanner{command: command, dir: dir}
}

// Scan runs the audit command and captures its stdout. Exit status 0 (clean)
// and 1 (vulnerabilities found) are both successful scans; anything else,
// including failure to start or termination by signal, is ErrScanExecution.
// Stderr is logged with terminal escapes stripped.
func (s *Scanner) Scan(ctx context.Context) (driven.ScanResult, error) {
	cmd := exec.CommandContext(ctx, s.command[0], s.command[1:]...)
	cmd.Dir = s.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Info("running audit", "command", strings.Join(s.command, " "), "dir", s.dir)
	err := cmd.Run()
	logStderr(stderr.Bytes())

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return driven.ScanResult{}, fmt.Errorf("%w: starting %s: %v", model.ErrScanExecution, s.command[0], err)
		}

		code := exitErr.ExitCode()
		if code != 1 {
			return driven.ScanResult{}, fmt.Errorf("%w: %s exited abnormally (status %d)", model.ErrScanExecution, s.command[0], code)
		}
	}

	result := driven.ScanResult{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.Bytes(),
	}

	slog.Info("audit finished",
		"exit_code", result.ExitCode,
		"found_vulnerabilities", result.FoundVulnerabilities(),
		"stdout_bytes", len(result.Stdout),
	)

	return result, nil
}

// Advisories parses the scan output into advisories keyed by id.
func (s *Scanner) Advisories(result driven.ScanResult) (map[int]model.Advisory, error) {
	if len(bytes.TrimSpace(result.Stdout)) == 0 && !result.FoundVulnerabilities() {
		return map[int]model.Advisory{}, nil
	}
	return ParseReport(result.Stdout)
}

func logStderr(b []byte) {
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(ansi.Strip(sc.Text()))
		if line != "" {
			slog.Error("audit stderr", "line", line)
		}
	}
}
