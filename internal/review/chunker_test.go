package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/revlens/revlens/internal/providers"
)

func fileSection(path string, line int) string {
	return fmt.Sprintf(`diff --git a/%s b/%s
--- a/%s
+++ b/%s
@@ -%d,1 +%d,2 @@
 existing line
+added line in %s
`, path, path, path, path, line, line, path)
}

func TestNeedsChunking(t *testing.T) {
	if NeedsChunking("small diff") {
		t.Error("small diff should not need chunking")
	}
	if !NeedsChunking(strings.Repeat("x", ChunkThreshold+1)) {
		t.Error("oversized diff should need chunking")
	}
}

func TestSplitIntoChunksSingle(t *testing.T) {
	diff := fileSection("a.go", 1) + fileSection("b.go", 1)
	chunks := SplitIntoChunks(diff, ChunkThreshold)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if len(chunks[0].Files) != 2 {
		t.Errorf("Files = %v, want both paths", chunks[0].Files)
	}
	if chunks[0].Diff != diff {
		t.Error("single chunk should carry the whole diff")
	}
}

func TestSplitIntoChunksPerFile(t *testing.T) {
	secA := fileSection("a.go", 1)
	secB := fileSection("b.go", 1)
	// maxBytes below the combined size but above each section.
	chunks := SplitIntoChunks(secA+secB, len(secA)+1)

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].Index != 0 || chunks[1].Index != 1 {
		t.Errorf("indices = %d, %d", chunks[0].Index, chunks[1].Index)
	}
	if !strings.Contains(chunks[0].Diff, "a.go") || strings.Contains(chunks[0].Diff, "b.go") {
		t.Error("chunk 0 should hold only a.go")
	}
	if len(chunks[1].Files) != 1 || chunks[1].Files[0] != "b.go" {
		t.Errorf("chunk 1 Files = %v", chunks[1].Files)
	}
}

func TestSplitIntoChunksOversizedFile(t *testing.T) {
	// A single file larger than maxBytes stays whole in its own chunk.
	big := fileSection("big.go", 1)
	chunks := SplitIntoChunks(big, 10)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Diff != big {
		t.Error("oversized file must not be split mid-file")
	}
}

func TestSplitIntoChunksEmpty(t *testing.T) {
	if got := SplitIntoChunks("", ChunkThreshold); got != nil {
		t.Errorf("empty diff should yield no chunks, got %v", got)
	}
	if got := SplitIntoChunks("   \n", ChunkThreshold); got != nil {
		t.Errorf("blank diff should yield no chunks, got %v", got)
	}
}

// chunkProvider replies per prompt content so each chunk yields its own
// finding.
type chunkProvider struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *chunkProvider) Complete(_ context.Context, req providers.Request) (providers.Response, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.err != nil {
		return providers.Response{}, c.err
	}
	switch {
	case strings.Contains(req.User, "a.go"):
		return providers.Response{Content: "FILE: a.go\nLINE: 2\nSEVERITY: Low\nISSUE: issue in a\n---\n"}, nil
	case strings.Contains(req.User, "b.go"):
		return providers.Response{Content: "FILE: b.go\nLINE: 2\nSEVERITY: High\nISSUE: issue in b\n---\n"}, nil
	default:
		return providers.Response{Content: "NONE"}, nil
	}
}

func (c *chunkProvider) Name() string { return "chunk-stub" }

func TestRunChunked(t *testing.T) {
	secA := fileSection("a.go", 1)
	secB := fileSection("b.go", 1)
	chunks := SplitIntoChunks(secA+secB, len(secA)+1)
	if len(chunks) != 2 {
		t.Fatalf("setup: got %d chunks", len(chunks))
	}

	p := &chunkProvider{}
	findings, _, err := RunChunked(context.Background(), chunks, p, engineConfig(), Options{})
	if err != nil {
		t.Fatalf("RunChunked: %v", err)
	}

	if p.calls != 2 {
		t.Errorf("provider called %d times, want 2", p.calls)
	}
	if len(findings) != 2 {
		t.Fatalf("got %d findings, want 2", len(findings))
	}
	// Merged result is sorted severity-first: b.go's High leads.
	if findings[0].FilePath != "b.go" || findings[1].FilePath != "a.go" {
		t.Errorf("order = %s, %s", findings[0].FilePath, findings[1].FilePath)
	}
	// Snippets come from the chunk's own patches.
	if findings[0].CodeSnippet != "added line in b.go" {
		t.Errorf("CodeSnippet = %q", findings[0].CodeSnippet)
	}
}

func TestRunChunkedError(t *testing.T) {
	chunks := SplitIntoChunks(fileSection("a.go", 1), ChunkThreshold)
	p := &chunkProvider{err: errors.New("rate limited")}

	_, _, err := RunChunked(context.Background(), chunks, p, engineConfig(), Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "chunk 0") {
		t.Errorf("error = %v, want chunk index in message", err)
	}
}

func TestPathFromSection(t *testing.T) {
	if got := pathFromSection(fileSection("dir/file.go", 3)); got != "dir/file.go" {
		t.Errorf("pathFromSection = %q", got)
	}
	if got := pathFromSection("no diff headers here\n"); got != "" {
		t.Errorf("pathFromSection = %q, want empty", got)
	}
}
