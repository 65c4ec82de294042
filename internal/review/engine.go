package review

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/revlens/revlens/internal/cache"
	"github.com/revlens/revlens/internal/config"
	"github.com/revlens/revlens/internal/gitctx"
	"github.com/revlens/revlens/internal/patch"
	"github.com/revlens/revlens/internal/providers"
	"github.com/revlens/revlens/internal/redact"
)

// toolName and toolVersion identify reports produced by this build.
const (
	toolName    = "revlens"
	toolVersion = "1.0"
)

// FileReader resolves a repository-relative path to the current file
// content. A missing or unreadable file must yield ("", false); the
// review then proceeds on the diff alone.
type FileReader func(path string) (string, bool)

// Options carries the engine's injectable collaborators. Zero values are
// valid: no provider means one is built from config, no reader means no
// file context, nil cache means no caching.
type Options struct {
	Provider providers.Completer
	Reader   FileReader
	Rules    *Rules
	Patterns string // learned-pattern few-shot text, preformatted
	Cache    *cache.Cache
}

// Run executes one review: decompose the diff, build bounded file
// context, assemble the prompt, fetch the model reply (through the cache
// when enabled), parse it back into findings, and enrich them with
// snippets from the patch model.
func Run(ctx context.Context, diff gitctx.DiffResult, cfg config.Config, opts Options) (*Report, error) {
	startTime := time.Now()

	redactedDiff := diff.Diff
	if cfg.Privacy.RedactSecrets {
		redactedDiff = redact.Secrets(redactedDiff)
	}
	if strings.TrimSpace(redactedDiff) == "" {
		return emptyReport(diff, startTime), nil
	}

	provider := opts.Provider
	if provider == nil {
		p, err := providers.New(cfg.Provider, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("creating provider: %w", err)
		}
		provider = p
	}

	patches := patch.Decompose(redactedDiff)
	userPrompt := BuildUserPrompt(PromptSections{
		Diff:        redactedDiff,
		Patches:     patches,
		FileContext: buildContexts(patches, opts.Reader, cfg),
		Rules:       BuildRulesPromptSection(opts.Rules),
		Patterns:    opts.Patterns,
		MaxFindings: cfg.MaxFindings,
	})

	reply, llmMs, err := fetchReply(ctx, provider, userPrompt, opts.Cache, cfg.Model)
	if err != nil {
		return nil, err
	}

	findings := ParseReply(reply)
	for i, f := range findings {
		findings[i].CodeSnippet = patch.Snippet(patches, f.FilePath, f.LineNumber)
	}
	ApplySeverityOverrides(findings, opts.Rules)
	SortFindings(findings)
	if cfg.MaxFindings > 0 && len(findings) > cfg.MaxFindings {
		findings = findings[:cfg.MaxFindings]
	}

	return &Report{
		Tool:    toolName,
		Version: toolVersion,
		RunID:   uuid.New().String(),
		Repo: RepoInfo{
			Root:   diff.Repo.Root,
			Head:   diff.Repo.Head,
			Branch: diff.Repo.Branch,
		},
		Inputs:   InputInfo{Mode: diff.Mode, Range: diff.Range},
		Summary:  ComputeSummary(findings),
		Findings: findings,
		Timing: Timing{
			LLMMs:   llmMs,
			TotalMs: time.Since(startTime).Milliseconds(),
		},
	}, nil
}

// buildContexts reads each patched file and renders its bounded,
// line-numbered context block. Unreadable files are silently skipped.
func buildContexts(patches []patch.Patch, reader FileReader, cfg config.Config) map[string]string {
	if reader == nil {
		return nil
	}
	opts := contextOptions(cfg)
	contexts := make(map[string]string, len(patches))
	for _, p := range patches {
		if p.FilePath == "" {
			continue
		}
		content, ok := reader(p.FilePath)
		if !ok {
			continue
		}
		if cfg.Privacy.RedactSecrets {
			content = redact.Content(content, p.FilePath, cfg.Privacy.RedactPaths)
		}
		if block := BuildFileContext(content, p.AddedLines(), opts); block != "" {
			contexts[p.FilePath] = block
		}
	}
	return contexts
}

func contextOptions(cfg config.Config) ContextOptions {
	opts := DefaultContextOptions()
	if cfg.ContextGap > 0 {
		opts.ClusterGap = cfg.ContextGap
	}
	if cfg.ContextPad > 0 {
		opts.ClusterPad = cfg.ContextPad
	}
	return opts
}

// fetchReply returns the model's reply, consulting the cache first when
// one is configured. The key covers the model and the full prompt so a
// prompt revision never replays a stale reply.
func fetchReply(ctx context.Context, provider providers.Completer, userPrompt string, c *cache.Cache, model string) (string, int64, error) {
	key := cache.HashKey(model + "\x00" + systemPrompt + "\x00" + userPrompt)
	if c != nil {
		if reply, ok := c.Get(key); ok {
			return reply, 0, nil
		}
	}

	llmStart := time.Now()
	resp, err := provider.Complete(ctx, providers.Request{
		System:    systemPrompt,
		User:      userPrompt,
		MaxTokens: 8192,
	})
	if err != nil {
		return "", 0, fmt.Errorf("provider completion: %w", err)
	}
	llmMs := time.Since(llmStart).Milliseconds()

	if c != nil {
		_ = c.Put(key, resp.Content) // cache failure never fails a review
	}
	return resp.Content, llmMs, nil
}

// SortFindings orders by severity (high first), then path, then line.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		ri, rj := SeverityRank(findings[i].Severity), SeverityRank(findings[j].Severity)
		if ri != rj {
			return ri > rj
		}
		if findings[i].FilePath != findings[j].FilePath {
			return findings[i].FilePath < findings[j].FilePath
		}
		return findings[i].LineNumber < findings[j].LineNumber
	})
}

// DeduplicateFindings drops findings that repeat the same file, line, and
// issue text, keeping the first occurrence. Chunked review can produce
// duplicates when a file's sections land in different chunks.
func DeduplicateFindings(findings []Finding) []Finding {
	seen := make(map[string]bool)
	var out []Finding
	for _, f := range findings {
		h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%s", f.FilePath, f.LineNumber, f.Issue)))
		key := fmt.Sprintf("%x", h[:8])
		if !seen[key] {
			seen[key] = true
			out = append(out, f)
		}
	}
	return out
}

// BuildReport wraps already-processed findings in a Report envelope.
// Used by the chunked path, where findings are merged across requests.
func BuildReport(diff gitctx.DiffResult, findings []Finding, llmMs, totalMs int64) *Report {
	if findings == nil {
		findings = []Finding{}
	}
	return &Report{
		Tool:    toolName,
		Version: toolVersion,
		RunID:   uuid.New().String(),
		Repo: RepoInfo{
			Root:   diff.Repo.Root,
			Head:   diff.Repo.Head,
			Branch: diff.Repo.Branch,
		},
		Inputs:   InputInfo{Mode: diff.Mode, Range: diff.Range},
		Summary:  ComputeSummary(findings),
		Findings: findings,
		Timing:   Timing{LLMMs: llmMs, TotalMs: totalMs},
	}
}

func emptyReport(diff gitctx.DiffResult, startTime time.Time) *Report {
	return &Report{
		Tool:    toolName,
		Version: toolVersion,
		RunID:   uuid.New().String(),
		Repo: RepoInfo{
			Root:   diff.Repo.Root,
			Head:   diff.Repo.Head,
			Branch: diff.Repo.Branch,
		},
		Inputs:   InputInfo{Mode: diff.Mode, Range: diff.Range},
		Summary:  Summary{},
		Findings: []Finding{},
		Timing:   Timing{TotalMs: time.Since(startTime).Milliseconds()},
	}
}
