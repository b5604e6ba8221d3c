package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/npm-audit-sync/internal/adapter/driven/github"
	"github.com/ericfisherdev/npm-audit-sync/internal/adapter/driven/metrics"
	"github.com/ericfisherdev/npm-audit-sync/internal/adapter/driven/npmaudit"
	"github.com/ericfisherdev/npm-audit-sync/internal/adapter/driven/report"
	"github.com/ericfisherdev/npm-audit-sync/internal/application"
	"github.com/ericfisherdev/npm-audit-sync/internal/config"
	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("fatal error", "error", err)
		fmt.Fprintf(os.Stdout, "::error::%s\n", escapeWorkflowData(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "npm-audit-sync",
		Short: "Sync npm audit advisories to GitHub issues and pull request comments",
		Long: `npm-audit-sync runs npm audit and converges the repository onto its findings:
one open issue per advisory, one status comment per affected pull request,
and a back-link from every issue to every pull request it affects.

Configuration comes from GitHub Actions inputs (INPUT_*), the runner
environment (GITHUB_*), an optional .env file, or the flags below.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cmd *cobra.Command) error {
	// 1. Load configuration (fail fast on missing token or repository).
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})).
		With("run_id", runID)
	slog.SetDefault(logger)

	slog.Info("config loaded",
		"repository", cfg.Repository,
		"event", cfg.EventName,
		"sha", cfg.SHA,
		"working_directory", cfg.WorkingDirectory,
		"min_severity", cfg.MinSeverity.String(),
		"concurrency", cfg.Concurrency,
	)

	// 2. Resolve the trigger before touching the tracker.
	trigger, err := githubadapter.LoadTrigger(cfg.EventName, cfg.EventPath, cfg.SHA)
	if err != nil {
		return err
	}

	// 3. Scan. Scan and parse failures abort before any tracker write.
	scanner := npmaudit.NewScanner(cfg.AuditCommand, cfg.WorkingDirectory)
	result, err := scanner.Scan(ctx)
	if err != nil {
		return err
	}
	advisories, err := scanner.Advisories(result)
	if err != nil {
		return err
	}
	slog.Info("audit complete", "exit_code", result.ExitCode, "advisories", len(advisories))

	// 4. Wire the tracker and run the engine. It runs on a clean scan too so
	// stale status comments get deleted.
	client, err := githubadapter.NewClient(cfg.GitHubToken, cfg.APIURL)
	if err != nil {
		return err
	}

	svc := application.NewSyncService(client, application.Options{
		Repo:        cfg.Repository,
		Labels:      cfg.IssueLabels,
		Assignees:   cfg.IssueAssignees,
		MinSeverity: cfg.MinSeverity,
		Concurrency: cfg.Concurrency,
	})

	summary, runErr := svc.Run(ctx, trigger, advisories)
	summary.RunID = runID

	// 5. Reports are written whatever the outcome, so partial progress is visible.
	reportErr := writeReports(cfg, summary)

	return errors.Join(runErr, reportErr)
}

func writeReports(cfg *config.Config, summary model.RunSummary) error {
	var errs []error
	md := report.Markdown(summary)

	if cfg.StepSummary != "" {
		if err := report.AppendStepSummary(cfg.StepSummary, md); err != nil {
			errs = append(errs, err)
		}
	}

	if cfg.ReportHTML != "" {
		title := "npm audit sync: " + cfg.Repository
		if err := report.WriteHTML(cfg.ReportHTML, title, md); err != nil {
			errs = append(errs, err)
		} else {
			slog.Info("html report written", "path", cfg.ReportHTML)
		}
	}

	if cfg.MetricsFile != "" {
		m := metrics.NewMetrics()
		m.Record(summary)
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			errs = append(errs, err)
		} else {
			slog.Info("metrics written", "path", cfg.MetricsFile)
		}
	}

	return errors.Join(errs...)
}

// escapeWorkflowData escapes a message for a GitHub Actions workflow command.
func escapeWorkflowData(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A").Replace(s)
}
