package review

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Check is one configured review check. The id prefix carries provenance
// (repo-, org-, learned-) and is echoed back by the model via CHECKID.
type Check struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// Rules is a rule pack loaded from --rules.
type Rules struct {
	Focus             []string          `json:"focus,omitempty" yaml:"focus,omitempty"`
	SeverityOverrides map[string]string `json:"severityOverrides,omitempty" yaml:"severityOverrides,omitempty"`
	Checks            []Check           `json:"checks,omitempty" yaml:"checks,omitempty"`
}

// LoadRules loads a rule pack from a JSON or YAML file, chosen by
// extension. Returns nil Rules and nil error if path is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var rules Rules
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &rules); err != nil {
			return nil, fmt.Errorf("parsing rules file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &rules); err != nil {
			return nil, fmt.Errorf("parsing rules file: %w", err)
		}
	}
	return &rules, nil
}

// BuildRulesPromptSection renders the rule pack as prompt text for the
// assembler. Returns "" for a nil pack.
func BuildRulesPromptSection(rules *Rules) string {
	if rules == nil {
		return ""
	}

	var b strings.Builder
	if len(rules.Focus) > 0 {
		fmt.Fprintf(&b, "Focus areas: %s. Prioritize findings in these areas.\n\n",
			strings.Join(rules.Focus, ", "))
	}
	if len(rules.SeverityOverrides) > 0 {
		b.WriteString("Severity policy:\n")
		for cat, sev := range rules.SeverityOverrides {
			fmt.Fprintf(&b, "- %s findings should be rated %s severity.\n", cat, sev)
		}
		b.WriteString("\n")
	}
	if len(rules.Checks) > 0 {
		b.WriteString("Configured checks (set CHECKID when one matches):\n")
		for _, c := range rules.Checks {
			fmt.Fprintf(&b, "- [%s] %s\n", c.ID, c.Text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ApplySeverityOverrides rewrites finding severities per the rule pack's
// category overrides, matching on the RULE label case-insensitively.
func ApplySeverityOverrides(findings []Finding, rules *Rules) {
	if rules == nil || len(rules.SeverityOverrides) == 0 {
		return
	}
	for i, f := range findings {
		for cat, sev := range rules.SeverityOverrides {
			if strings.EqualFold(f.Rule, cat) {
				findings[i].Severity = ParseSeverity(sev)
			}
		}
	}
}
