package patch

// Line markers as they appear in unified diff output. Deletion lines are
// consumed during decomposition for line counting but never stored, so a
// stored hunk line always begins with MarkerContext or MarkerAdded.
const (
	MarkerContext = ' '
	MarkerAdded   = '+'
	MarkerDeleted = '-'
)

// Patch is the change set for a single file: a repository-relative path and
// an ordered sequence of hunks. Patches are built once per review by
// Decompose and are read-only afterward.
type Patch struct {
	FilePath string
	Hunks    []Hunk
}

// Hunk is a contiguous block of retained diff lines anchored at a
// post-change line number. Every stored line keeps its single leading
// marker character and advances the post-change counter by exactly one,
// so LineNumber(i) == StartLine+i.
type Hunk struct {
	StartLine int
	Lines     []string
}

// LineNumber returns the absolute post-change line number of Lines[i].
func (h Hunk) LineNumber(i int) int {
	return h.StartLine + i
}

// EndLine returns the post-change line number of the last stored line, or
// StartLine-1 for an empty hunk.
func (h Hunk) EndLine() int {
	return h.StartLine + len(h.Lines) - 1
}

// AddedLines returns the sorted post-change line numbers of every addition
// in the patch. Hunks are stored in ascending StartLine order by the
// decomposer, so a single in-order walk yields a sorted result.
func (p Patch) AddedLines() []int {
	var lines []int
	for _, h := range p.Hunks {
		for i, l := range h.Lines {
			if len(l) > 0 && l[0] == MarkerAdded {
				lines = append(lines, h.LineNumber(i))
			}
		}
	}
	return lines
}

// AddedLineSet returns the addition line numbers as a membership set.
func (p Patch) AddedLineSet() map[int]bool {
	set := make(map[int]bool)
	for _, n := range p.AddedLines() {
		set[n] = true
	}
	return set
}

// LineAt returns the stored line text (marker stripped) at the given
// post-change line number, or ("", false) when the patch does not touch
// that line.
func (p Patch) LineAt(line int) (string, bool) {
	for _, h := range p.Hunks {
		if line < h.StartLine || line > h.EndLine() {
			continue
		}
		text := h.Lines[line-h.StartLine]
		if len(text) > 0 {
			return text[1:], true
		}
		return "", true
	}
	return "", false
}
