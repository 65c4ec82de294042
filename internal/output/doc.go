// Package output renders review reports for consumption: human-readable
// text for the terminal, JSON for machines, and markdown for pull
// request comments. Writers are selected by format name and share the
// same grouping and ordering rules (severity first, then path, then
// line).
package output
