// Package config loads run configuration from flags, GitHub Actions
// environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ericfisherdev/npm-audit-sync/internal/domain/model"
)

// Config holds the resolved configuration of one run.
type Config struct {
	GitHubToken      string
	Repository       string
	EventName        string
	EventPath        string
	SHA              string
	APIURL           string
	WorkingDirectory string
	AuditCommand     []string
	IssueLabels      []string
	IssueAssignees   []string
	MinSeverity      model.Severity
	Concurrency      int
	ReportHTML       string
	MetricsFile      string
	StepSummary      string
	LogLevel         slog.Level
	EnvFile          string
}

// envBindings maps each key to the environment variables that can set it,
// in priority order. Action inputs arrive as INPUT_<NAME>; the runner's own
// context arrives as GITHUB_*.
var envBindings = map[string][]string{
	"github_token":      {"INPUT_GITHUB_TOKEN", "GITHUB_TOKEN"},
	"repository":        {"INPUT_REPOSITORY", "GITHUB_REPOSITORY"},
	"event_name":        {"GITHUB_EVENT_NAME"},
	"event_path":        {"GITHUB_EVENT_PATH"},
	"sha":               {"GITHUB_SHA"},
	"api_url":           {"INPUT_API_URL", "GITHUB_API_URL"},
	"working_directory": {"INPUT_WORKING_DIRECTORY"},
	"audit_command":     {"INPUT_AUDIT_COMMAND"},
	"issue_labels":      {"INPUT_ISSUE_LABELS"},
	"issue_assignees":   {"INPUT_ISSUE_ASSIGNEES"},
	"min_severity":      {"INPUT_MIN_SEVERITY"},
	"concurrency":       {"INPUT_CONCURRENCY"},
	"report_html":       {"INPUT_REPORT_HTML"},
	"metrics_file":      {"INPUT_METRICS_FILE"},
	"step_summary":      {"GITHUB_STEP_SUMMARY"},
	"log_level":         {"INPUT_LOG_LEVEL"},
	"env_file":          {"INPUT_ENV_FILE"},
}

// envVars lists every environment variable Load reads.
func envVars() []string {
	var names []string
	for _, envs := range envBindings {
		names = append(names, envs...)
	}
	return names
}

// RegisterFlags adds a flag for every key. Flag names use dashes; each binds
// to the underscore key of the same name.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("github-token", "", "token used for issue and comment writes")
	flags.String("repository", "", "target repository as owner/repo")
	flags.String("event-name", "", "name of the triggering event")
	flags.String("event-path", "", "path to the triggering event payload")
	flags.String("sha", "", "commit SHA the run is for")
	flags.String("api-url", "", "GitHub REST API base URL")
	flags.String("working-directory", "", "directory to run the audit in")
	flags.String("audit-command", "", "audit command line")
	flags.String("issue-labels", "", "comma-separated labels for new issues")
	flags.String("issue-assignees", "", "comma-separated assignees for new issues")
	flags.String("min-severity", "", "lowest advisory severity to track")
	flags.Int("concurrency", 0, "maximum concurrent tracker writes")
	flags.String("report-html", "", "write an HTML report to this path")
	flags.String("metrics-file", "", "write Prometheus metrics to this path")
	flags.String("step-summary", "", "append a markdown summary to this path")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("env-file", "", "dotenv file loaded before reading the environment")
}

// Load resolves configuration with precedence flag > environment > default.
// flags may be nil. A missing token or malformed repository is an error.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("api_url", "https://api.github.com/")
	v.SetDefault("working_directory", ".")
	v.SetDefault("audit_command", "npm audit --json")
	v.SetDefault("min_severity", "low")
	v.SetDefault("concurrency", 4)
	v.SetDefault("log_level", "info")
	v.SetDefault("env_file", ".env")

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if flags != nil {
		for key := range envBindings {
			flag := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", flag.Name, err)
			}
		}
	}

	envFile := v.GetString("env_file")
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	cfg := &Config{
		GitHubToken:      v.GetString("github_token"),
		Repository:       strings.TrimSpace(v.GetString("repository")),
		EventName:        v.GetString("event_name"),
		EventPath:        v.GetString("event_path"),
		SHA:              v.GetString("sha"),
		APIURL:           v.GetString("api_url"),
		WorkingDirectory: v.GetString("working_directory"),
		AuditCommand:     strings.Fields(v.GetString("audit_command")),
		IssueLabels:      splitList(v.GetString("issue_labels")),
		IssueAssignees:   splitList(v.GetString("issue_assignees")),
		Concurrency:      v.GetInt("concurrency"),
		ReportHTML:       v.GetString("report_html"),
		MetricsFile:      v.GetString("metrics_file"),
		StepSummary:      v.GetString("step_summary"),
		EnvFile:          envFile,
	}

	if cfg.GitHubToken == "" {
		return nil, errors.New("github token is required (INPUT_GITHUB_TOKEN or GITHUB_TOKEN)")
	}

	owner, repo, ok := strings.Cut(cfg.Repository, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("repository must be owner/repo, got %q", cfg.Repository)
	}

	if len(cfg.AuditCommand) == 0 {
		return nil, errors.New("audit command is empty")
	}

	severity, err := model.ParseSeverity(v.GetString("min_severity"))
	if err != nil {
		return nil, fmt.Errorf("min_severity: %w", err)
	}
	cfg.MinSeverity = severity

	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}

	return cfg, nil
}

// loadEnvFile loads a dotenv file without overriding variables already set.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

func splitList(v string) []string {
	items := []string{}
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
