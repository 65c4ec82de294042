package patch

import "testing"

func locatorPatches() []Patch {
	return []Patch{
		{
			FilePath: "src/Foo.cs",
			Hunks: []Hunk{
				{StartLine: 40, Lines: []string{
					" context before",
					"+var secret = key;",
					" context after",
				}},
				{StartLine: 100, Lines: []string{
					"+later addition",
				}},
			},
		},
		{
			FilePath: "lib/util.go",
			Hunks: []Hunk{
				{StartLine: 7, Lines: []string{"+func Util() {}"}},
			},
		},
	}
}

func TestSnippet(t *testing.T) {
	patches := locatorPatches()
	tests := []struct {
		name string
		path string
		line int
		want string
	}{
		{"exact match addition", "src/Foo.cs", 41, "var secret = key;"},
		{"exact match context", "src/Foo.cs", 42, "context after"},
		{"second hunk", "src/Foo.cs", 100, "later addition"},
		{"case insensitive", "SRC/FOO.CS", 41, "var secret = key;"},
		{"backslash separators", `src\Foo.cs`, 41, "var secret = key;"},
		{"suffix match shorter finding", "Foo.cs", 41, "var secret = key;"},
		{"suffix match longer finding", "repo/src/Foo.cs", 41, "var secret = key;"},
		{"line not in any hunk", "src/Foo.cs", 5, ""},
		{"unknown file", "nope.cs", 41, ""},
		{"zero line", "src/Foo.cs", 0, ""},
		{"other patch", "lib/util.go", 7, "func Util() {}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Snippet(patches, tt.path, tt.line); got != tt.want {
				t.Errorf("Snippet(%q, %d) = %q, want %q", tt.path, tt.line, got, tt.want)
			}
		})
	}
}

func TestMatchPrefersExact(t *testing.T) {
	patches := []Patch{
		{FilePath: "a/Foo.cs"},
		{FilePath: "Foo.cs"},
	}
	p := Match(patches, "foo.cs")
	if p == nil || p.FilePath != "Foo.cs" {
		t.Fatalf("Match picked %+v, want exact Foo.cs", p)
	}
}

func TestMatchEmptyPath(t *testing.T) {
	if p := Match(locatorPatches(), "  "); p != nil {
		t.Errorf("Match on blank path = %+v, want nil", p)
	}
}

func TestLineAtBounds(t *testing.T) {
	p := locatorPatches()[0]
	if _, ok := p.LineAt(43); ok {
		t.Error("LineAt(43) reported coverage past hunk end")
	}
	if text, ok := p.LineAt(40); !ok || text != "context before" {
		t.Errorf("LineAt(40) = %q, %v", text, ok)
	}
}
