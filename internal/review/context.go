package review

import (
	"fmt"
	"sort"
	"strings"
)

// ContextOptions are the window-construction policy knobs. The defaults
// are behavioral contract; callers may tune them but rarely should.
type ContextOptions struct {
	// SmallFileLines / SmallFileChars: below both, the whole file is shown.
	SmallFileLines int
	SmallFileChars int
	// HeaderLines are always shown on large files; imports, declarations,
	// and fields are assumed to live near the top.
	HeaderLines int
	// ClusterGap is the maximum distance between changes merged into one
	// window; ClusterPad is the context shown on each side of a window.
	ClusterGap int
	ClusterPad int
}

// DefaultContextOptions returns the standard windowing policy.
func DefaultContextOptions() ContextOptions {
	return ContextOptions{
		SmallFileLines: 1000,
		SmallFileChars: 40000,
		HeaderLines:    200,
		ClusterGap:     100,
		ClusterPad:     50,
	}
}

const changedMarker = "  // CHANGED"

// BuildFileContext renders a line-numbered excerpt of the current file
// content for the reviewer model. Lines whose post-change number appears
// in changed get an explicit marker suffix. Small files are emitted whole;
// large files get the fixed header plus padded windows clustered around
// each group of changes, with omission markers for everything skipped.
//
// The caller is responsible for reading the file; pass empty content when
// the file is missing and the review proceeds on the diff alone.
func BuildFileContext(content string, changed []int, opts ContextOptions) string {
	if content == "" {
		return ""
	}
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	total := len(lines)

	changedSet := make(map[int]bool, len(changed))
	for _, n := range changed {
		changedSet[n] = true
	}

	var b strings.Builder
	if total <= opts.SmallFileLines && len(content) <= opts.SmallFileChars {
		writeLines(&b, lines, 1, total, changedSet)
		return b.String()
	}

	// Large file: fixed header, then one padded window per change cluster.
	emitted := min(opts.HeaderLines, total)
	writeLines(&b, lines, 1, emitted, changedSet)

	for _, cl := range clusterChanges(changed, opts.ClusterGap) {
		start := max(emitted+1, cl.start-opts.ClusterPad)
		end := min(total, cl.end+opts.ClusterPad)
		if end <= emitted {
			// Entirely inside already-emitted content.
			continue
		}
		if start > emitted+1 {
			writeOmission(&b, emitted+1, start-1)
		}
		writeLines(&b, lines, start, end, changedSet)
		emitted = end
	}

	if emitted < total {
		writeOmission(&b, emitted+1, total)
	}
	return b.String()
}

// cluster is an inclusive range of post-change line numbers containing
// changes that are close enough to review as one window.
type cluster struct {
	start, end int
}

// clusterChanges greedily merges sorted change lines: a change within gap
// of the current cluster's end extends it, anything further starts a new
// cluster.
func clusterChanges(changed []int, gap int) []cluster {
	if len(changed) == 0 {
		return nil
	}
	sorted := make([]int, len(changed))
	copy(sorted, changed)
	sort.Ints(sorted)

	clusters := []cluster{{start: sorted[0], end: sorted[0]}}
	for _, n := range sorted[1:] {
		last := &clusters[len(clusters)-1]
		if n-last.end <= gap {
			last.end = n
			continue
		}
		clusters = append(clusters, cluster{start: n, end: n})
	}
	return clusters
}

// writeLines emits lines[start..end] (1-based, inclusive), each prefixed
// with its fixed-width line number and suffixed with the changed marker
// where applicable.
func writeLines(b *strings.Builder, lines []string, start, end int, changed map[int]bool) {
	for n := start; n <= end && n <= len(lines); n++ {
		fmt.Fprintf(b, "%5d: %s", n, lines[n-1])
		if changed[n] {
			b.WriteString(changedMarker)
		}
		b.WriteByte('\n')
	}
}

func writeOmission(b *strings.Builder, from, to int) {
	fmt.Fprintf(b, "  ... omitted lines %d-%d ...\n", from, to)
}
