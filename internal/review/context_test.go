package review

import (
	"fmt"
	"strings"
	"testing"
)

// numberedFile builds a file of n lines where line i has content "line i".
func numberedFile(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	return b.String()
}

func TestBuildFileContextEmpty(t *testing.T) {
	if got := BuildFileContext("", []int{1}, DefaultContextOptions()); got != "" {
		t.Errorf("empty content should yield empty context, got %q", got)
	}
}

func TestBuildFileContextSmallFileWhole(t *testing.T) {
	content := "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n"
	got := BuildFileContext(content, []int{4}, DefaultContextOptions())

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5 (whole file):\n%s", len(lines), got)
	}
	if lines[0] != "    1: package main" {
		t.Errorf("line 1 = %q", lines[0])
	}
	if !strings.HasSuffix(lines[3], "// CHANGED") {
		t.Errorf("changed line 4 missing marker: %q", lines[3])
	}
	if strings.HasSuffix(lines[2], "// CHANGED") {
		t.Errorf("unchanged line 3 has marker: %q", lines[2])
	}
	if strings.Contains(got, "omitted") {
		t.Error("small file should have no omission markers")
	}
}

func TestBuildFileContextLargeFileWindows(t *testing.T) {
	content := numberedFile(1200)
	changed := []int{600, 900}
	got := BuildFileContext(content, changed, DefaultContextOptions())

	// Fixed header.
	if !strings.Contains(got, "    1: line 1") {
		t.Error("missing header start")
	}
	if !strings.Contains(got, "  200: line 200") {
		t.Error("missing header end")
	}

	// The two changes are 300 lines apart, beyond the cluster gap, so
	// they get separate windows: 550-650 and 850-950.
	if !strings.Contains(got, "  ... omitted lines 201-549 ...") {
		t.Errorf("missing omission before first window:\n%s", excerpt(got))
	}
	if !strings.Contains(got, "  550: line 550") || !strings.Contains(got, "  650: line 650") {
		t.Error("first window bounds wrong")
	}
	if !strings.Contains(got, "  600: line 600  // CHANGED") {
		t.Error("changed line 600 not marked")
	}
	if !strings.Contains(got, "  ... omitted lines 651-849 ...") {
		t.Error("missing omission between windows")
	}
	if !strings.Contains(got, "  900: line 900  // CHANGED") {
		t.Error("changed line 900 not marked")
	}
	if !strings.Contains(got, "  ... omitted lines 951-1200 ...") {
		t.Error("missing trailing omission")
	}

	// Lines outside header and windows must not appear.
	if strings.Contains(got, "  400: line 400") {
		t.Error("line 400 should be omitted")
	}
	if strings.Contains(got, " 1100: line 1100") {
		t.Error("line 1100 should be omitted")
	}
}

func TestBuildFileContextSingleTrailingWindow(t *testing.T) {
	content := numberedFile(1200)
	got := BuildFileContext(content, []int{1180}, DefaultContextOptions())

	// Window 1130-1200 is clipped at end of file, no trailing omission.
	if !strings.Contains(got, " 1130: line 1130") {
		t.Error("window start wrong")
	}
	if !strings.Contains(got, " 1200: line 1200") {
		t.Error("window should reach end of file")
	}
	if strings.Contains(got, "omitted lines 1201") {
		t.Error("no omission past end of file")
	}
}

func TestBuildFileContextChangeInsideHeader(t *testing.T) {
	content := numberedFile(1200)
	got := BuildFileContext(content, []int{50}, DefaultContextOptions())

	if !strings.Contains(got, "   50: line 50  // CHANGED") {
		t.Error("header-region change not marked")
	}
	// Window 1-100 is entirely inside the emitted header; only the
	// trailing omission should follow.
	if !strings.Contains(got, "  ... omitted lines 201-1200 ...") {
		t.Errorf("expected single trailing omission:\n%s", excerpt(got))
	}
	if strings.Count(got, "omitted") != 1 {
		t.Errorf("want exactly one omission marker, got %d", strings.Count(got, "omitted"))
	}
}

func TestBuildFileContextNoChanges(t *testing.T) {
	content := numberedFile(1200)
	got := BuildFileContext(content, nil, DefaultContextOptions())

	if !strings.Contains(got, "  200: line 200") {
		t.Error("missing header")
	}
	if !strings.Contains(got, "  ... omitted lines 201-1200 ...") {
		t.Error("missing trailing omission")
	}
	if strings.Contains(got, "// CHANGED") {
		t.Error("no lines should be marked")
	}
}

func TestClusterChanges(t *testing.T) {
	tests := []struct {
		name    string
		changed []int
		gap     int
		want    []cluster
	}{
		{"empty", nil, 100, nil},
		{"single", []int{42}, 100, []cluster{{42, 42}}},
		{"within gap merged", []int{300, 400}, 100, []cluster{{300, 400}}},
		{"past gap split", []int{300, 401}, 100, []cluster{{300, 300}, {401, 401}}},
		{"unsorted input", []int{400, 300}, 100, []cluster{{300, 400}}},
		{"chain extends", []int{100, 190, 280}, 100, []cluster{{100, 280}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clusterChanges(tt.changed, tt.gap)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("cluster %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestContextOptionsCharLimit(t *testing.T) {
	// Few lines but huge content: char limit forces windowed mode.
	long := strings.Repeat("x", 50)
	var b strings.Builder
	for i := 0; i < 900; i++ {
		b.WriteString(long)
		b.WriteByte('\n')
	}
	got := BuildFileContext(b.String(), []int{500}, DefaultContextOptions())
	if !strings.Contains(got, "omitted") {
		t.Error("file over the char limit should be windowed")
	}
}

// excerpt trims long context output for failure messages.
func excerpt(s string) string {
	if len(s) > 800 {
		return s[:400] + "\n...\n" + s[len(s)-400:]
	}
	return s
}
