package review

import "strings"

// Severity is the reviewer's rating of how serious a finding is. The model
// frequently returns casing and whitespace noise, so values are normalized
// into the closed set and default to Medium when unparsable.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// ParseSeverity normalizes free text into the closed severity set,
// returning SeverityMedium for anything it does not recognize.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow
	case "high", "critical":
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// MeetsThreshold returns true if severity is at or above the threshold.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(ParseSeverity(threshold))
}

// RuleSource identifies the provenance of the check behind a finding.
type RuleSource string

const (
	// SourceRepoRule is a rule configured in the repository itself.
	SourceRepoRule RuleSource = "repo"
	// SourceOrgStandard is an organization-wide standard.
	SourceOrgStandard RuleSource = "org"
	// SourceLearnedPattern is a pattern learned from past review feedback.
	SourceLearnedPattern RuleSource = "learned"
	// SourceModel is unattributed model judgment (no configured check).
	SourceModel RuleSource = "model"
)

// CheckIDNone is the placeholder the model is told to use when no
// configured check matched.
const CheckIDNone = "none"

// RuleSourceForCheckID maps a check identifier to its provenance using the
// id prefix convention. Absent, "none", and unrecognized ids are all
// model-originated.
func RuleSourceForCheckID(id string) RuleSource {
	switch {
	case strings.HasPrefix(id, "repo-"):
		return SourceRepoRule
	case strings.HasPrefix(id, "org-"):
		return SourceOrgStandard
	case strings.HasPrefix(id, "learned-"):
		return SourceLearnedPattern
	default:
		return SourceModel
	}
}

// Finding is one structured review comment reconstructed from the model's
// reply. LineNumber refers to post-change numbering. CodeSnippet is
// attached after parsing by the snippet locator, never by the parser.
type Finding struct {
	FilePath    string     `json:"filePath"`
	LineNumber  int        `json:"lineNumber"`
	Severity    Severity   `json:"severity"`
	Confidence  Severity   `json:"confidence"`
	Issue       string     `json:"issue"`
	Suggestion  string     `json:"suggestion,omitempty"`
	FixedCode   string     `json:"fixedCode,omitempty"`
	Rule        string     `json:"rule,omitempty"`
	CheckID     string     `json:"checkId,omitempty"`
	RuleSource  RuleSource `json:"ruleSource,omitempty"`
	CodeSnippet string     `json:"codeSnippet,omitempty"`
}

// RepoInfo contains repository metadata.
type RepoInfo struct {
	Root   string `json:"root"`
	Head   string `json:"head"`
	Branch string `json:"branch"`
}

// InputInfo describes what was reviewed.
type InputInfo struct {
	Mode  string `json:"mode"`
	Range string `json:"range,omitempty"`
}

// SeverityCounts holds counts by severity level.
type SeverityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// Summary provides an overview of findings.
type Summary struct {
	Counts          SeverityCounts `json:"counts"`
	HighestSeverity Severity       `json:"highestSeverity,omitempty"`
}

// Timing contains performance metrics.
type Timing struct {
	LLMMs   int64 `json:"llmMs"`
	TotalMs int64 `json:"totalMs"`
}

// Report is the top-level review result.
type Report struct {
	Tool     string    `json:"tool"`
	Version  string    `json:"version"`
	RunID    string    `json:"runId"`
	Repo     RepoInfo  `json:"repo"`
	Inputs   InputInfo `json:"inputs"`
	Summary  Summary   `json:"summary"`
	Findings []Finding `json:"findings"`
	Timing   Timing    `json:"timing"`
}

// ComputeSummary calculates the summary from findings.
func ComputeSummary(findings []Finding) Summary {
	var s Summary
	for _, f := range findings {
		switch f.Severity {
		case SeverityLow:
			s.Counts.Low++
		case SeverityMedium:
			s.Counts.Medium++
		case SeverityHigh:
			s.Counts.High++
		}
		if SeverityRank(f.Severity) > SeverityRank(s.HighestSeverity) {
			s.HighestSeverity = f.Severity
		}
	}
	return s
}
