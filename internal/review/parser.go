package review

import (
	"strconv"
	"strings"
)

// terminator is the explicit end-of-record line the model is asked to emit
// after every finding block.
const terminator = "---"

// valueCutset strips the markdown padding models wrap field values in.
const valueCutset = "*` "

// fieldSetters maps a recognized reply field to the mutation it performs
// on the record under construction. One table instead of per-field branch
// logic; adding a field is one entry here plus a line in the prompt.
var fieldSetters = map[string]func(*Finding, string){
	"LINE": func(f *Finding, v string) {
		// Non-numeric line values are dropped silently.
		if n, err := strconv.Atoi(v); err == nil {
			f.LineNumber = n
		}
	},
	"SEVERITY":   func(f *Finding, v string) { f.Severity = ParseSeverity(v) },
	"CONFIDENCE": func(f *Finding, v string) { f.Confidence = ParseSeverity(v) },
	"ISSUE":      func(f *Finding, v string) { f.Issue = v },
	"SUGGESTION": func(f *Finding, v string) { f.Suggestion = v },
	"FIXEDCODE":  func(f *Finding, v string) { f.FixedCode = v },
	"RULE":       func(f *Finding, v string) { f.Rule = v },
	"CHECKID": func(f *Finding, v string) {
		if v == "" {
			v = CheckIDNone
		}
		f.CheckID = v
		f.RuleSource = RuleSourceForCheckID(v)
	},
}

// ParseReply reconstructs findings from the model's raw reply text.
//
// A single pass over the physical lines drives a two-state machine: no
// record in progress, or one record accumulating fields. Field headers are
// matched case-insensitively in both the plain ("ISSUE:") and
// bold-markdown ("**ISSUE:**") notations. A FILE header starts a new
// record, flushing any in-progress record as-is; a bare "---" flushes only
// when the record has issue text, otherwise the record is discarded (a
// known leniency gap kept for compatibility); end of input flushes under
// the same issue-text condition. Repeated fields keep the last value.
// Unmatched lines are ignored; the parser never fails on malformed input.
func ParseReply(reply string) []Finding {
	var findings []Finding
	var current *Finding

	for _, raw := range strings.Split(reply, "\n") {
		line := strings.TrimSpace(raw)

		if line == terminator {
			if current != nil && current.Issue != "" {
				findings = append(findings, *current)
			}
			current = nil
			continue
		}

		key, value, ok := matchField(line)
		if !ok {
			continue
		}

		if key == "FILE" {
			if current != nil {
				findings = append(findings, *current)
			}
			current = newFinding()
			current.FilePath = value
			continue
		}
		if current == nil {
			// Field before any FILE header: no record to attach to.
			continue
		}
		fieldSetters[key](current, value)
	}

	if current != nil && current.Issue != "" {
		findings = append(findings, *current)
	}
	return findings
}

// newFinding returns a record with the documented defaults applied.
func newFinding() *Finding {
	return &Finding{
		Severity:   SeverityMedium,
		Confidence: SeverityMedium,
		CheckID:    CheckIDNone,
		RuleSource: SourceModel,
	}
}

// matchField tests a line against the recognized field headers in both
// accepted notations and returns the canonical key with the cleaned value.
func matchField(line string) (key, value string, ok bool) {
	upper := strings.ToUpper(line)
	for _, k := range [...]string{
		"FILE", "LINE", "SEVERITY", "CONFIDENCE", "ISSUE",
		"SUGGESTION", "FIXEDCODE", "RULE", "CHECKID",
	} {
		var rest string
		switch {
		case strings.HasPrefix(upper, "**"+k+":**"):
			rest = line[len(k)+5:]
		case strings.HasPrefix(upper, "**"+k+"**:"):
			rest = line[len(k)+5:]
		case strings.HasPrefix(upper, k+":"):
			rest = line[len(k)+1:]
		default:
			continue
		}
		return k, strings.Trim(rest, valueCutset), true
	}
	return "", "", false
}
