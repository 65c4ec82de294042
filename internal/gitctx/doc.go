// Package gitctx extracts diffs and commit metadata from a git repository.
//
// It supports unstaged, staged, commit, and range review modes by shelling
// out to git with appropriate arguments. Results are filtered by
// include/exclude glob patterns and truncated to a configurable maximum
// byte size. ReadWorkingFile supplies the post-change file content for
// context building; a missing file is reported, never an error.
package gitctx
