// Revlens is a CLI and HTTP service for reviewing code changes with LLM
// providers.
//
// It decomposes unified diffs into per-file patches, builds bounded
// line-numbered context around the changes, and parses the model's
// free-text reply into structured findings with deterministic exit codes
// suitable for CI gating and git hooks.
//
// Usage:
//
//	revlens review unstaged               # review working tree changes
//	revlens review staged                 # review staged changes
//	revlens review commit <sha>           # review a specific commit
//	revlens review range origin/main..HEAD  # review a revision range
//	revlens review diff changes.patch     # review a diff file (or stdin)
//	revlens serve                         # run the HTTP review service
//	revlens feedback accept <finding-id>  # teach revlens from verdicts
//
// See https://github.com/revlens/revlens for full documentation.
package main
