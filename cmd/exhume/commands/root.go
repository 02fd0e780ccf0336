// Package commands implements the exhume command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/exhume/pkg/config"
	"github.com/Sumatoshi-tech/exhume/pkg/history"
	"github.com/Sumatoshi-tech/exhume/pkg/hosting"
	"github.com/Sumatoshi-tech/exhume/pkg/observability"
	"github.com/Sumatoshi-tech/exhume/pkg/resolve"
	"github.com/Sumatoshi-tech/exhume/pkg/sink"
	"github.com/Sumatoshi-tech/exhume/pkg/terminal"
	"github.com/Sumatoshi-tech/exhume/pkg/units"
	"github.com/Sumatoshi-tech/exhume/pkg/version"
)

// ErrRepositoryLoad indicates the explicitly named repository could not be cloned,
// opened or scanned.
var ErrRepositoryLoad = errors.New("failed to load repository")

const (
	defaultGitHubDomain = "github.com"
	defaultGitLabDomain = "gitlab.com"

	restoredSuffix = "_restored"
)

type listerFactory func(host hosting.Host, opts hosting.Options) (hosting.Lister, error)

// RootCommand holds the flags and dependencies of the exhume command.
type RootCommand struct {
	repoURL    string
	repoPath   string
	githubUser string
	gitlabUser string

	githubToken string
	gitlabToken string
	gitlabURL   string

	outputDir         string
	cloneDir          string
	listOnly          bool
	format            string
	minSize           string
	maxSize           string
	excludeExtensions bool
	extensionsFile    string
	skipVendored      bool
	oldestPercent     int

	configPath      string
	noColor         bool
	quiet           bool
	logJSON         bool
	logLevel        string
	metricsTextfile string

	newLister listerFactory
}

// NewRootCommand creates the exhume root command.
func NewRootCommand() *cobra.Command {
	return newRootCommandWithDeps(hosting.New)
}

func newRootCommandWithDeps(newLister listerFactory) *cobra.Command {
	rc := &RootCommand{newLister: newLister}

	cmd := &cobra.Command{
		Use:   "exhume",
		Short: "List or restore files deleted from Git history",
		Long: `exhume walks every commit of a repository, finds files that were deleted
and either lists them or writes their last contents to an output directory.

Select exactly one of --repo-url, --repo-path, --github-username or --gitlab-username.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          rc.run,
	}

	flags := cmd.Flags()

	flags.StringVar(&rc.repoURL, "repo-url", "", "Clone and process one remote repository")
	flags.StringVar(&rc.repoPath, "repo-path", "", "Process one local repository; it is never cloned or removed")
	flags.StringVar(&rc.githubUser, "github-username", "", "Process every non-fork repository owned by a GitHub account")
	flags.StringVar(&rc.gitlabUser, "gitlab-username", "", "Process every non-fork repository owned by a GitLab account")

	flags.StringVar(&rc.githubToken, "github-token", "", "GitHub token for listing and cloning (also GITHUB_TOKEN, GH_TOKEN)")
	flags.StringVar(&rc.gitlabToken, "gitlab-token", "", "GitLab token for listing and cloning (also GITLAB_TOKEN)")
	flags.StringVar(&rc.gitlabURL, "gitlab-url", "", "GitLab API base URL for self-managed instances")

	flags.StringVar(&rc.outputDir, "output-dir", "", "Directory to save restored files (default: restored_repos/<name>_restored)")
	flags.StringVar(&rc.cloneDir, "clone-dir", "", "Directory to clone remote repositories into (default: working directory)")
	flags.BoolVar(&rc.listOnly, "list-only", false, "Only list deleted files, do not restore")
	flags.StringVar(&rc.format, "format", string(sink.FormatTable), "Listing format: table, json, yaml")
	flags.StringVar(&rc.minSize, "minsize", "", "Minimum file size, inclusive (bytes or e.g. 10KB, 1MiB; KB is 1024 bytes)")
	flags.StringVar(&rc.maxSize, "maxsize", "", "Maximum file size, inclusive (bytes or e.g. 10KB, 1MiB; KB is 1024 bytes)")
	flags.BoolVar(&rc.excludeExtensions, "exclude-extensions", false, "Exclude extensions listed in the extensions file")
	flags.StringVar(&rc.extensionsFile, "extensions-file", "", "Extensions file (default: excluded_file_extensions.txt)")
	flags.BoolVar(&rc.skipVendored, "skip-vendored", false, "Skip vendored and generated paths")
	flags.IntVar(&rc.oldestPercent, "scan-oldest-commits", 0, "Only scan the oldest N% of commits by date (1-100, default all)")

	flags.StringVar(&rc.configPath, "config", "", "Config file (default: .exhume.yaml in the working or home directory)")
	flags.BoolVar(&rc.noColor, "no-color", false, "Disable colored output")
	flags.BoolVarP(&rc.quiet, "quiet", "q", false, "Suppress progress and informational output")
	flags.BoolVar(&rc.logJSON, "log-json", false, "Emit logs as JSON")
	flags.StringVar(&rc.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&rc.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")

	return cmd
}

func (rc *RootCommand) run(cmd *cobra.Command, _ []string) error {
	ref, err := resolve.ParseReference(resolve.Selectors{
		RepoURL:    rc.repoURL,
		RepoPath:   rc.repoPath,
		GitHubUser: rc.githubUser,
		GitLabUser: rc.gitlabUser,
	})
	if err != nil {
		return err
	}

	format, err := sink.ParseFormat(rc.format)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(rc.configPath, config.DefaultDotenvFile)
	if err != nil {
		return err
	}

	err = rc.applyFlags(cmd, cfg)
	if err != nil {
		return err
	}

	criteria, err := rc.criteria(cmd, cfg)
	if err != nil {
		return err
	}

	providers, err := initObservability(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("telemetry shutdown", "error", shutdownErr)
		}
	}()

	runMetrics, err := observability.NewRunMetrics(providers.Meter)
	if err != nil {
		return err
	}

	// Machine-readable listings keep stdout clean.
	reporterOut := cmd.OutOrStdout()
	if rc.listOnly && format != sink.FormatTable {
		reporterOut = cmd.ErrOrStderr()
	}

	r := &runner{
		cfg:       cfg,
		criteria:  criteria,
		format:    format,
		listOnly:  rc.listOnly,
		outputDir: rc.outputDir,
		stdout:    cmd.OutOrStdout(),
		reporter:  sink.NewConsoleReporter(reporterOut, terminal.NewConfig(rc.noColor), rc.quiet),
		logger:    providers.Logger,
		tracer:    providers.Tracer,
		metrics:   runMetrics,
	}

	r.resolver, err = rc.resolver(cfg, ref, providers.Logger)
	if err != nil {
		return err
	}

	return r.run(cmd.Context(), ref)
}

// applyFlags lets explicitly set flags win over file and environment settings.
func (rc *RootCommand) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	overrides := []struct {
		flag string
		dst  *string
		val  string
	}{
		{"github-token", &cfg.GitHub.Token, rc.githubToken},
		{"gitlab-token", &cfg.GitLab.Token, rc.gitlabToken},
		{"gitlab-url", &cfg.GitLab.BaseURL, rc.gitlabURL},
		{"clone-dir", &cfg.Clone.Root, rc.cloneDir},
		{"extensions-file", &cfg.Filters.ExtensionsFile, rc.extensionsFile},
		{"log-level", &cfg.Log.Level, rc.logLevel},
		{"metrics-textfile", &cfg.Telemetry.MetricsTextfile, rc.metricsTextfile},
	}

	for _, o := range overrides {
		if changed(o.flag) {
			*o.dst = o.val
		}
	}

	if changed("log-json") {
		cfg.Log.JSON = rc.logJSON
	}

	err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	return nil
}

func (rc *RootCommand) criteria(cmd *cobra.Command, cfg *config.Config) (history.Criteria, error) {
	// Zero is the unset default; asking for it explicitly is out of range.
	if cmd.Flags().Changed("scan-oldest-commits") && rc.oldestPercent == 0 {
		return history.Criteria{}, fmt.Errorf("%w: got 0", history.ErrInvalidPercent)
	}

	criteria := history.Criteria{
		SkipVendored:  rc.skipVendored,
		OldestPercent: rc.oldestPercent,
	}

	var err error

	criteria.MinSize, err = parseBound("minsize", rc.minSize)
	if err != nil {
		return criteria, err
	}

	criteria.MaxSize, err = parseBound("maxsize", rc.maxSize)
	if err != nil {
		return criteria, err
	}

	err = criteria.Validate()
	if err != nil {
		return criteria, err
	}

	if rc.excludeExtensions {
		criteria.ExcludedExts, err = history.LoadExtensions(cfg.Filters.ExtensionsFile)
		if err != nil {
			return criteria, err
		}
	}

	return criteria, nil
}

func parseBound(flag, raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}

	size, err := units.ParseSize(raw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flag, err)
	}

	return &size, nil
}

func (rc *RootCommand) resolver(cfg *config.Config, ref resolve.Reference, logger *slog.Logger) (*resolve.Resolver, error) {
	resolver := resolve.NewResolver(logger)
	resolver.CloneRoot = cfg.Clone.Root
	resolver.Credentials = []resolve.Credential{
		{Host: hosting.GitHub, Domain: hostDomain(cfg.GitHub.BaseURL, defaultGitHubDomain), Token: cfg.GitHub.Token},
		{Host: hosting.GitLab, Domain: hostDomain(cfg.GitLab.BaseURL, defaultGitLabDomain), Token: cfg.GitLab.Token},
	}

	if ref.Kind != resolve.KindAccount {
		return resolver, nil
	}

	hostCfg := cfg.GitHub
	if ref.Host == hosting.GitLab {
		hostCfg = cfg.GitLab
	}

	lister, err := rc.newLister(ref.Host, hosting.Options{
		Token:   hostCfg.Token,
		BaseURL: hostCfg.BaseURL,
		Timeout: cfg.API.Timeout,
		Rate:    cfg.API.Rate,
	})
	if err != nil {
		return nil, err
	}

	resolver.Listers[ref.Host] = lister

	return resolver, nil
}

// hostDomain returns the host name of an API base URL, or fallback when none is set.
// Enterprise API hosts such as api.example.com are not mapped to their git host.
func hostDomain(baseURL, fallback string) string {
	if baseURL == "" {
		return fallback
	}

	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return fallback
	}

	return strings.ToLower(u.Hostname())
}

func initObservability(cfg *config.Config, logOut io.Writer) (observability.Providers, error) {
	level, err := observability.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return observability.Providers{}, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.MetricsTextfile = cfg.Telemetry.MetricsTextfile
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Log.JSON
	obsCfg.LogWriter = logOut

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return observability.Providers{}, fmt.Errorf("init observability: %w", err)
	}

	return providers, nil
}

// runner processes the repositories of one invocation.
type runner struct {
	cfg       *config.Config
	criteria  history.Criteria
	format    sink.Format
	listOnly  bool
	outputDir string

	stdout   io.Writer
	reporter sink.Reporter
	resolver *resolve.Resolver
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *observability.RunMetrics
}

func (r *runner) mode() string {
	if r.listOnly {
		return "list"
	}

	return "restore"
}

func (r *runner) run(ctx context.Context, ref resolve.Reference) error {
	account := ref.Kind == resolve.KindAccount

	if account {
		r.reporter.Info("Listing repositories of %s on %s...", ref.Value, ref.Host)
	}

	refs, err := r.resolver.Expand(ctx, ref)
	if err != nil {
		r.reporter.Failure("Could not list repositories of %s: %v", ref.Value, err)
		r.logger.ErrorContext(ctx, "account lookup failed", "account", ref.Value, "error", err)
		r.reporter.Success("Done.")

		return nil
	}

	if account && len(refs) == 0 {
		r.reporter.Info("No repositories found for %s", ref.Value)
	}

	for _, repoRef := range refs {
		start := time.Now()

		stats, repoErr := r.processRepository(ctx, repoRef, account)

		stats.Mode = r.mode()
		stats.Duration = time.Since(start)
		stats.Status = observability.StatusOK

		if repoErr != nil {
			stats.Status = observability.StatusError
		}

		r.metrics.RecordRepository(ctx, stats)

		if repoErr == nil {
			continue
		}

		if !account {
			return fmt.Errorf("%w: %w", ErrRepositoryLoad, repoErr)
		}

		r.reporter.Failure("Skipping %s: %v", repoRef.Value, repoErr)
		r.logger.WarnContext(ctx, "repository skipped", "url", repoRef.Value, "error", repoErr)
	}

	r.reporter.Success("Done.")

	return nil
}
