package review

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/revlens/revlens/internal/config"
	"github.com/revlens/revlens/internal/patch"
	"github.com/revlens/revlens/internal/providers"
)

const (
	// maxConcurrency limits parallel LLM calls.
	maxConcurrency = 4
	// ChunkThreshold is the byte size above which review switches to
	// per-chunk requests.
	ChunkThreshold = 100000 // 100KB
)

// Chunk is a portion of a diff reviewed in its own request.
type Chunk struct {
	Index int
	Diff  string
	Files []string
}

// NeedsChunking reports whether the diff is large enough to split.
func NeedsChunking(diff string) bool {
	return len(diff) > ChunkThreshold
}

// SplitIntoChunks splits a diff into chunks of whole per-file sections,
// each staying under maxBytes. A single file larger than maxBytes becomes
// its own oversized chunk rather than being split mid-file.
func SplitIntoChunks(diff string, maxBytes int) []Chunk {
	sections := splitFileSections(diff)
	if len(sections) == 0 {
		return nil
	}
	if maxBytes <= 0 {
		maxBytes = ChunkThreshold
	}

	var chunks []Chunk
	var cur strings.Builder
	var files []string
	idx := 0

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		chunks = append(chunks, Chunk{Index: idx, Diff: cur.String(), Files: files})
		idx++
		cur.Reset()
		files = nil
	}

	for _, sec := range sections {
		if cur.Len() > 0 && cur.Len()+len(sec) > maxBytes {
			flush()
		}
		cur.WriteString(sec)
		if path := pathFromSection(sec); path != "" {
			files = append(files, path)
		}
	}
	flush()
	return chunks
}

// RunChunked reviews chunks in parallel with bounded concurrency and
// merges the findings: parse each reply, attach snippets from that
// chunk's own patches, then deduplicate and sort the union.
func RunChunked(ctx context.Context, chunks []Chunk, provider providers.Completer, cfg config.Config, opts Options) ([]Finding, int64, error) {
	results := make([][]Finding, len(chunks))
	errs := make([]error, len(chunks))

	var mu sync.Mutex
	var totalLLMMs int64

	p := pool.New().WithMaxGoroutines(maxConcurrency)
	for i, chunk := range chunks {
		p.Go(func() {
			patches := patch.Decompose(chunk.Diff)
			userPrompt := BuildUserPrompt(PromptSections{
				Diff:        chunk.Diff,
				Patches:     patches,
				FileContext: buildContexts(patches, opts.Reader, cfg),
				Rules:       BuildRulesPromptSection(opts.Rules),
				Patterns:    opts.Patterns,
				MaxFindings: cfg.MaxFindings,
			})

			reply, llmMs, err := fetchReply(ctx, provider, userPrompt, opts.Cache, cfg.Model)
			if err != nil {
				errs[i] = fmt.Errorf("chunk %d: %w", i, err)
				return
			}
			mu.Lock()
			totalLLMMs += llmMs
			mu.Unlock()

			findings := ParseReply(reply)
			for j, f := range findings {
				findings[j].CodeSnippet = patch.Snippet(patches, f.FilePath, f.LineNumber)
			}
			results[i] = findings
		})
	}
	p.Wait()

	var all []Finding
	for i := range chunks {
		if errs[i] != nil {
			return nil, totalLLMMs, errs[i]
		}
		all = append(all, results[i]...)
	}

	all = DeduplicateFindings(all)
	ApplySeverityOverrides(all, opts.Rules)
	SortFindings(all)
	return all, totalLLMMs, nil
}

// splitFileSections cuts a multi-file diff at "diff --git" boundaries.
func splitFileSections(diff string) []string {
	if strings.TrimSpace(diff) == "" {
		return nil
	}
	lines := strings.Split(diff, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var sections []string
	var cur strings.Builder
	for _, line := range lines {
		if strings.HasPrefix(line, "diff --git") && cur.Len() > 0 {
			sections = append(sections, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
	}
	if s := cur.String(); strings.TrimSpace(s) != "" {
		sections = append(sections, s)
	}
	return sections
}

func pathFromSection(section string) string {
	for _, line := range strings.Split(section, "\n") {
		if strings.HasPrefix(line, "+++ b/") {
			return strings.TrimPrefix(line, "+++ b/")
		}
	}
	return ""
}
