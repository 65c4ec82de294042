package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/revlens/revlens/internal/cache"
	"github.com/revlens/revlens/internal/config"
	"github.com/revlens/revlens/internal/gitctx"
	"github.com/revlens/revlens/internal/output"
	"github.com/revlens/revlens/internal/providers"
	"github.com/revlens/revlens/internal/redact"
	"github.com/revlens/revlens/internal/review"
	"github.com/revlens/revlens/internal/store"
)

// Shared review flags
var (
	flagPaths        string
	flagExclude      string
	flagContextLines int
	flagMaxDiffBytes int
	flagProvider     string
	flagModel        string
	flagFormat       string
	flagOut          string
	flagFailOn       string
	flagMaxFindings  int
	flagRules        string
	flagNoRedact     bool
	flagNoCache      bool
	flagNoContext    bool
)

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagPaths, "paths", "", "Include file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().IntVar(&flagContextLines, "context-lines", 0, "Number of context lines in diff")
	cmd.Flags().IntVar(&flagMaxDiffBytes, "max-diff-bytes", 0, "Maximum diff size in bytes")
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (anthropic, openai, ollama, lmstudio)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, low, medium, high)")
	cmd.Flags().IntVar(&flagMaxFindings, "max-findings", 0, "Maximum number of findings")
	cmd.Flags().StringVar(&flagRules, "rules", "", "Rules file path (json or yaml)")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the reply cache")
	cmd.Flags().BoolVar(&flagNoContext, "no-context", false, "Skip file context, review the diff alone")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["failOn"] = flagFailOn
	}
	if flagMaxFindings > 0 {
		m["maxFindings"] = fmt.Sprintf("%d", flagMaxFindings)
	}
	if flagContextLines > 0 {
		m["contextLines"] = fmt.Sprintf("%d", flagContextLines)
	}
	if flagMaxDiffBytes > 0 {
		m["maxDiffBytes"] = fmt.Sprintf("%d", flagMaxDiffBytes)
	}
	if flagRules != "" {
		m["rulesFile"] = flagRules
	}
	return m
}

func buildDiffOpts(cfg config.Config) gitctx.DiffOptions {
	opts := gitctx.DiffOptions{
		ContextLines: cfg.ContextLines,
		MaxDiffBytes: cfg.MaxDiffBytes,
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
	}
	if flagPaths != "" {
		opts.Include = splitComma(flagPaths)
	}
	if flagExclude != "" {
		opts.Exclude = append(opts.Exclude, splitComma(flagExclude)...)
	}
	return opts
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// buildOptions assembles the engine collaborators: rules file, learned
// patterns, cache, and a working-tree file reader. Every piece is
// optional; failures degrade to a diff-only review.
func buildOptions(cfg config.Config) (review.Options, error) {
	var opts review.Options

	rules, err := review.LoadRules(cfg.RulesFile)
	if err != nil {
		return opts, fmt.Errorf("loading rules: %w", err)
	}
	opts.Rules = rules

	if !flagNoCache && cfg.Cache.Enabled {
		c, err := cache.New(true, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cache disabled: %v\n", err)
		} else {
			opts.Cache = c
		}
	}

	if st := openStore(cfg); st != nil {
		defer st.Close()
		patterns, err := st.PatternsPromptSection(cfg.PatternLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping learned patterns: %v\n", err)
		} else {
			opts.Patterns = patterns
		}
	}

	return opts, nil
}

// openStore opens the feedback store, creating it on first use. Returns
// nil when the store path cannot be resolved; reviews proceed without
// persistence.
func openStore(cfg config.Config) *store.Store {
	path := cfg.StorePath
	if path == "" {
		p, err := config.DefaultStorePath()
		if err != nil {
			return nil
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: feedback store unavailable: %v\n", err)
		return nil
	}
	st, err := store.NewStore(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: feedback store unavailable: %v\n", err)
		return nil
	}
	return st
}

func runReview(diff gitctx.DiffResult, cfg config.Config) {
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}

	opts, err := buildOptions(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	if !flagNoContext && diff.Repo.Root != "" {
		root := diff.Repo.Root
		opts.Reader = func(path string) (string, bool) {
			return gitctx.ReadWorkingFile(root, path)
		}
	}

	ctx := context.Background()

	var report *review.Report
	if review.NeedsChunking(diff.Diff) {
		report, err = runChunkedReview(ctx, diff, cfg, opts)
	} else {
		report, err = review.Run(ctx, diff, cfg, opts)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if providers.IsAuthError(err) {
			exitCode = ExitAuthError
		} else {
			exitCode = ExitRuntimeError
		}
		return
	}

	persistReport(report, cfg)

	if err := output.WriteReport(report, cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	// Check fail-on threshold
	if cfg.FailOn != "none" && cfg.FailOn != "" {
		for _, f := range report.Findings {
			if review.MeetsThreshold(f.Severity, cfg.FailOn) {
				exitCode = ExitFindings
				return
			}
		}
	}
}

// runChunkedReview splits an oversized diff per file, reviews the chunks
// concurrently, and folds the results into a single report.
func runChunkedReview(ctx context.Context, diff gitctx.DiffResult, cfg config.Config, opts review.Options) (*review.Report, error) {
	startTime := time.Now()

	provider := opts.Provider
	if provider == nil {
		p, err := providers.New(cfg.Provider, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("creating provider: %w", err)
		}
		provider = p
	}

	diffText := diff.Diff
	if cfg.Privacy.RedactSecrets {
		diffText = redact.Secrets(diffText)
	}
	chunks := review.SplitIntoChunks(diffText, review.ChunkThreshold)
	fmt.Fprintf(os.Stderr, "Large diff: reviewing %d chunks concurrently\n", len(chunks))

	findings, llmMs, err := review.RunChunked(ctx, chunks, provider, cfg, opts)
	if err != nil {
		return nil, err
	}
	if cfg.MaxFindings > 0 && len(findings) > cfg.MaxFindings {
		findings = findings[:cfg.MaxFindings]
	}
	return review.BuildReport(diff, findings, llmMs, time.Since(startTime).Milliseconds()), nil
}

// persistReport saves the run and its findings so verdicts can be
// recorded later. Failures never affect the review result.
func persistReport(report *review.Report, cfg config.Config) {
	st := openStore(cfg)
	if st == nil {
		return
	}
	defer st.Close()

	err := st.SaveRun(store.Run{
		ID:           report.RunID,
		Provider:     cfg.Provider,
		Model:        cfg.Model,
		FindingCount: len(report.Findings),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: saving run: %v\n", err)
		return
	}
	for _, f := range report.Findings {
		_, err := st.SaveFinding(store.Finding{
			RunID:      report.RunID,
			FilePath:   f.FilePath,
			LineNumber: f.LineNumber,
			Severity:   string(f.Severity),
			Issue:      f.Issue,
			Suggestion: f.Suggestion,
			Rule:       f.Rule,
			CheckID:    f.CheckID,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: saving finding: %v\n", err)
			return
		}
	}
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review code changes",
	Long:  "Review code changes using an LLM provider. Use subcommands to specify what to review.",
}

var reviewUnstagedCmd = &cobra.Command{
	Use:   "unstaged",
	Short: "Review unstaged changes (working tree vs index)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		diff, err := gitctx.Unstaged(buildDiffOpts(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		runReview(diff, cfg)
		return nil
	},
}

var reviewStagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Review staged changes (index vs HEAD)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		diff, err := gitctx.Staged(buildDiffOpts(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		runReview(diff, cfg)
		return nil
	},
}

var reviewCommitCmd = &cobra.Command{
	Use:   "commit <sha>",
	Short: "Review a specific commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		diff, err := gitctx.Commit(args[0], buildDiffOpts(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		runReview(diff, cfg)
		return nil
	},
}

var (
	flagMergeBase bool
)

var reviewRangeCmd = &cobra.Command{
	Use:   "range <revRange>",
	Short: "Review a revision range (e.g., origin/main..HEAD)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		diff, err := gitctx.Range(args[0], flagMergeBase, buildDiffOpts(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		runReview(diff, cfg)
		return nil
	},
}

var reviewDiffCmd = &cobra.Command{
	Use:   "diff [file]",
	Short: "Review a unified diff from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		var data []byte
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading diff file: %v\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
		} else {
			data, err = io.ReadAll(os.Stdin)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
		}

		runReview(gitctx.DiffResult{Diff: string(data), Mode: "diff"}, cfg)
		return nil
	},
}

func init() {
	// Add review subcommands
	reviewCmd.AddCommand(reviewUnstagedCmd)
	reviewCmd.AddCommand(reviewStagedCmd)
	reviewCmd.AddCommand(reviewCommitCmd)
	reviewCmd.AddCommand(reviewRangeCmd)
	reviewCmd.AddCommand(reviewDiffCmd)

	// Add shared flags to all review subcommands
	for _, cmd := range []*cobra.Command{
		reviewUnstagedCmd,
		reviewStagedCmd,
		reviewCommitCmd,
		reviewRangeCmd,
		reviewDiffCmd,
	} {
		addReviewFlags(cmd)
	}

	// Range-specific flags
	reviewRangeCmd.Flags().BoolVar(&flagMergeBase, "merge-base", true, "Use merge base for branch comparisons")
}
