package review

import (
	"fmt"
	"strings"

	"github.com/revlens/revlens/internal/patch"
)

const systemPrompt = `You are a strict, expert code reviewer. You review code diffs and report findings as plain-text field blocks.

Rules:
1. Only review the changes shown. Do not comment on unchanged code.
2. Focus on bugs, security issues, performance problems, and correctness. Avoid style nitpicks unless readability suffers.
3. Be concise and actionable. Every finding must include a concrete suggestion.
4. LINE is the 1-based line number in the file AFTER the change is applied, as shown in the numbered context.
5. Rate SEVERITY and CONFIDENCE as Low, Medium, or High.
6. If a listed check matched, set CHECKID to its id; otherwise set CHECKID to none.

Report each finding as exactly this block, ending with a line containing only three dashes:

FILE: relative/path/to/file
LINE: 42
SEVERITY: High
CONFIDENCE: Medium
ISSUE: What is wrong and why it matters
SUGGESTION: How to fix it
FIXEDCODE: corrected line or fragment, if helpful
RULE: category label (Security, Correctness, Performance, ...)
CHECKID: none
---

If there are no issues, reply with the single word NONE.`

// SystemPrompt returns the reviewer instruction block.
func SystemPrompt() string {
	return systemPrompt
}

// PromptSections are the inputs the assembler concatenates into the
// outbound user prompt. Rules and Patterns are preformatted text blocks
// owned by their producers; the assembler only places them.
type PromptSections struct {
	Diff        string
	Patches     []patch.Patch
	FileContext map[string]string // file path -> numbered context block
	Rules       string
	Patterns    string
	MaxFindings int
}

// TokenBudget is the rough token ceiling for an outbound prompt; prompts
// estimated above it fall back to the compact diff-only variant.
const TokenBudget = 48000

// EstimateTokens approximates the token cost of text. Characters divided
// by four is crude but only gates the full-context/compact choice.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// BuildUserPrompt assembles the outbound request body: rule text, learned
// pattern text, the diff, and per-file numbered context. When the full
// variant overruns the token budget the compact variant (no file context)
// is used instead.
func BuildUserPrompt(s PromptSections) string {
	full := assemble(s, true)
	if EstimateTokens(full) <= TokenBudget {
		return full
	}
	return assemble(s, false)
}

func assemble(s PromptSections, withContext bool) string {
	var b strings.Builder
	b.WriteString("Review the following code changes.\n\n")

	if s.MaxFindings > 0 {
		fmt.Fprintf(&b, "Report at most %d findings.\n\n", s.MaxFindings)
	}
	if s.Rules != "" {
		b.WriteString(s.Rules)
		b.WriteString("\n")
	}
	if s.Patterns != "" {
		b.WriteString("Past reviews of this codebase accepted findings like these:\n\n")
		b.WriteString(s.Patterns)
		b.WriteString("\n")
	}

	b.WriteString("--- BEGIN DIFF ---\n")
	b.WriteString(s.Diff)
	if !strings.HasSuffix(s.Diff, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("--- END DIFF ---\n")

	if !withContext {
		return b.String()
	}
	for _, p := range s.Patches {
		ctx := s.FileContext[p.FilePath]
		if ctx == "" {
			continue
		}
		fmt.Fprintf(&b, "\nCurrent content of %s (line-numbered, changed lines marked):\n", p.FilePath)
		b.WriteString(ctx)
	}
	return b.String()
}
