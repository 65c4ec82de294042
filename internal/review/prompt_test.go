package review

import (
	"strings"
	"testing"

	"github.com/revlens/revlens/internal/patch"
)

func TestBuildUserPromptFullVariant(t *testing.T) {
	patches := []patch.Patch{{FilePath: "main.go"}}
	prompt := BuildUserPrompt(PromptSections{
		Diff:        "diff --git a/main.go b/main.go\n+added line\n",
		Patches:     patches,
		FileContext: map[string]string{"main.go": "    1: package main\n"},
		Rules:       "Focus areas: security.\n",
		Patterns:    "- [learned-1] past issue\n",
		MaxFindings: 5,
	})

	for _, want := range []string{
		"Report at most 5 findings.",
		"Focus areas: security.",
		"Past reviews of this codebase accepted findings like these:",
		"- [learned-1] past issue",
		"--- BEGIN DIFF ---",
		"+added line",
		"--- END DIFF ---",
		"Current content of main.go",
		"    1: package main",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildUserPromptOmitsEmptySections(t *testing.T) {
	prompt := BuildUserPrompt(PromptSections{Diff: "+x\n"})

	if strings.Contains(prompt, "Report at most") {
		t.Error("zero MaxFindings should not emit a cap line")
	}
	if strings.Contains(prompt, "Past reviews") {
		t.Error("empty patterns should not emit the patterns preamble")
	}
	if strings.Contains(prompt, "Current content of") {
		t.Error("no file context should emit no context sections")
	}
}

func TestBuildUserPromptFallsBackToCompact(t *testing.T) {
	// File context large enough to push the full variant past the token
	// budget; the compact variant must drop it.
	bigContext := strings.Repeat("    1: padding line\n", 12000)
	prompt := BuildUserPrompt(PromptSections{
		Diff:        "diff --git a/big.go b/big.go\n+x\n",
		Patches:     []patch.Patch{{FilePath: "big.go"}},
		FileContext: map[string]string{"big.go": bigContext},
	})

	if strings.Contains(prompt, "Current content of") {
		t.Error("over-budget prompt should fall back to the compact variant")
	}
	if !strings.Contains(prompt, "--- BEGIN DIFF ---") {
		t.Error("compact variant must still include the diff")
	}
}

func TestBuildUserPromptAppendsDiffNewline(t *testing.T) {
	prompt := BuildUserPrompt(PromptSections{Diff: "+no trailing newline"})
	if !strings.Contains(prompt, "+no trailing newline\n--- END DIFF ---") {
		t.Error("diff without trailing newline should get one before the sentinel")
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(strings.Repeat("a", 400)); got != 100 {
		t.Errorf("EstimateTokens = %d, want 100", got)
	}
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("EstimateTokens(\"\") = %d, want 0", got)
	}
}

func TestSystemPromptShape(t *testing.T) {
	sp := SystemPrompt()
	for _, want := range []string{"FILE:", "LINE:", "SEVERITY:", "CONFIDENCE:", "ISSUE:", "SUGGESTION:", "CHECKID:", "NONE"} {
		if !strings.Contains(sp, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}
