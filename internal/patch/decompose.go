package patch

import (
	"regexp"
	"strconv"
	"strings"
)

// hunkHeaderRE matches a unified diff hunk header. Submatch 3 is the
// post-change start line; counts are optional ("@@ -1 +1 @@" is valid).
var hunkHeaderRE = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// decomposer tracks the file and hunk being assembled during a single pass
// over the diff text.
type decomposer struct {
	patches  []Patch
	current  *Patch
	hunk     *Hunk
	skipping bool

	// Lines left to consume per the @@ header counts. When both reach
	// zero the hunk is complete, which disambiguates a following
	// "--- next/file" header from in-hunk deletion content.
	oldRemain int
	newRemain int
}

// Decompose parses unified diff text covering one or more files into an
// ordered list of Patches.
//
// Only context and addition lines are retained, marker included; deletion
// lines are dropped because every later stage reasons about the post-change
// file, not the diff. A hunk whose @@ header cannot be parsed is skipped
// and decomposition continues with the next hunk or file; a partially
// reviewable diff beats none. A file section with no parsable hunks still
// yields a Patch with an empty hunk list.
func Decompose(diff string) []Patch {
	d := &decomposer{}
	for _, line := range strings.Split(diff, "\n") {
		d.consume(line)
	}
	d.flushFile()
	return d.patches
}

func (d *decomposer) consume(line string) {
	switch {
	case strings.HasPrefix(line, "diff --git "):
		d.flushFile()
		d.skipping = false

	// Between hunks "---"/"+++" are file headers. Inside a hunk the same
	// prefixes are deletion/addition content ("-- x", "++ x") and fall
	// through to the content path below.
	case d.hunk == nil && strings.HasPrefix(line, "--- "):
		d.flushFile()
		d.skipping = false
		d.current = &Patch{FilePath: stripDiffPath(line[4:])}

	case d.hunk == nil && strings.HasPrefix(line, "+++ "):
		path := stripDiffPath(line[4:])
		if d.current == nil {
			d.current = &Patch{FilePath: path}
		} else if path != "" {
			// Prefer the post-change path; keep the pre-change path
			// for deleted files (+++ /dev/null).
			d.current.FilePath = path
		}

	case strings.HasPrefix(line, "@@"):
		d.flushHunk()
		m := hunkHeaderRE.FindStringSubmatch(line)
		if m == nil {
			// Malformed header: drop this hunk only.
			d.skipping = true
			return
		}
		start, err := strconv.Atoi(m[3])
		if err != nil || start < 1 {
			d.skipping = true
			return
		}
		d.skipping = false
		if d.current == nil {
			d.current = &Patch{}
		}
		d.hunk = &Hunk{StartLine: start}
		d.oldRemain = headerCount(m[2])
		d.newRemain = headerCount(m[4])

	default:
		if d.skipping || d.hunk == nil || line == "" {
			return
		}
		switch line[0] {
		case MarkerContext:
			d.hunk.Lines = append(d.hunk.Lines, line)
			d.oldRemain--
			d.newRemain--
		case MarkerAdded:
			d.hunk.Lines = append(d.hunk.Lines, line)
			d.newRemain--
		case MarkerDeleted:
			// Deletions do not advance the post-change counter and
			// are not stored.
			d.oldRemain--
		case '\\':
			// "\ No newline at end of file"
		default:
			// Trailing noise after the last hunk of a file
			// (index lines, mode changes, commit trailers).
			d.flushHunk()
		}
		if d.hunk != nil && d.oldRemain <= 0 && d.newRemain <= 0 {
			d.flushHunk()
		}
	}
}

// headerCount parses an optional hunk header count; an omitted count means
// a single line per the unified format.
func headerCount(s string) int {
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return n
}

func (d *decomposer) flushHunk() {
	if d.hunk != nil && d.current != nil {
		d.current.Hunks = append(d.current.Hunks, *d.hunk)
	}
	d.hunk = nil
}

func (d *decomposer) flushFile() {
	d.flushHunk()
	if d.current != nil {
		d.patches = append(d.patches, *d.current)
	}
	d.current = nil
}

// stripDiffPath cleans a ---/+++ header payload: drops the a/ or b/ prefix,
// any trailing tab-separated timestamp, and maps /dev/null to "".
func stripDiffPath(s string) string {
	if i := strings.IndexByte(s, '\t'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if s == "/dev/null" {
		return ""
	}
	if strings.HasPrefix(s, "a/") || strings.HasPrefix(s, "b/") {
		return s[2:]
	}
	return s
}
