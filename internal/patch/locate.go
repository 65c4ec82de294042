package patch

import "strings"

// Snippet returns the literal post-change line text, marker stripped, at
// the given line of the named file, or "" when no patch covers it. Models
// echo paths back inconsistently (wrong separators, wrong case, partial
// relative paths), so matching is deliberately forgiving and lookup
// failures are silent.
func Snippet(patches []Patch, filePath string, line int) string {
	p := Match(patches, filePath)
	if p == nil || line < 1 {
		return ""
	}
	text, ok := p.LineAt(line)
	if !ok {
		return ""
	}
	return text
}

// Match finds the patch for a file path. Exact matches (after normalizing
// separators and case) win; otherwise a suffix match in either direction
// compensates for partial paths like "Foo.cs" against "src/Foo.cs".
func Match(patches []Patch, filePath string) *Patch {
	want := normalizePath(filePath)
	if want == "" {
		return nil
	}
	for i := range patches {
		if normalizePath(patches[i].FilePath) == want {
			return &patches[i]
		}
	}
	for i := range patches {
		have := normalizePath(patches[i].FilePath)
		if have == "" {
			continue
		}
		if strings.HasSuffix(want, have) || strings.HasSuffix(have, want) {
			return &patches[i]
		}
	}
	return nil
}

func normalizePath(p string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(p), "\\", "/"))
}
