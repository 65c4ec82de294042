package output

import (
	"io"
	"sort"
	"strings"

	"github.com/revlens/revlens/internal/review"
)

// MarkdownWriter outputs the report as GitHub-flavored markdown,
// suitable for pasting into a pull request comment.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}

	total := report.Summary.Counts.High + report.Summary.Counts.Medium + report.Summary.Counts.Low
	ew.printf("# Revlens Code Review\n\n")
	ew.printf("**Mode:** %s", report.Inputs.Mode)
	if report.Inputs.Range != "" {
		ew.printf(" (`%s`)", report.Inputs.Range)
	}
	ew.printf("\n\n")

	if total == 0 {
		ew.printf("No issues found.\n")
		return ew.err
	}

	ew.printf("| Severity | Count |\n")
	ew.printf("|----------|-------|\n")
	ew.printf("| High | %d |\n", report.Summary.Counts.High)
	ew.printf("| Medium | %d |\n", report.Summary.Counts.Medium)
	ew.printf("| Low | %d |\n", report.Summary.Counts.Low)
	ew.printf("\n")

	grouped := groupBySeverity(report.Findings)
	for _, sev := range []review.Severity{review.SeverityHigh, review.SeverityMedium, review.SeverityLow} {
		findings := grouped[sev]
		if len(findings) == 0 {
			continue
		}

		ew.printf("## %s severity\n\n", sev)

		sort.Slice(findings, func(i, j int) bool {
			if findings[i].FilePath != findings[j].FilePath {
				return findings[i].FilePath < findings[j].FilePath
			}
			return findings[i].LineNumber < findings[j].LineNumber
		})

		for _, f := range findings {
			ew.printf("### `%s:%d`\n\n", f.FilePath, f.LineNumber)
			ew.printf("%s\n\n", f.Issue)
			if f.CodeSnippet != "" {
				ew.printf("```\n%s\n```\n\n", strings.TrimRight(f.CodeSnippet, "\n"))
			}
			if f.Suggestion != "" {
				ew.printf("**Suggestion:** %s\n\n", f.Suggestion)
			}
			if f.FixedCode != "" {
				ew.printf("```suggestion\n%s\n```\n\n", strings.TrimRight(f.FixedCode, "\n"))
			}
			ew.printf("<sub>confidence: %s · check: %s · source: %s</sub>\n\n",
				strings.ToLower(string(f.Confidence)), checkLabel(f), f.RuleSource)
		}
	}

	ew.printf("---\n")
	ew.printf("*%s v%s · run `%s` · %dms*\n",
		report.Tool, report.Version, report.RunID, report.Timing.TotalMs)

	return ew.err
}
