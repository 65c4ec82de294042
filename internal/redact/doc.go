// Package redact strips secret-looking strings from text before it is
// sent to an LLM provider. Detection is heuristic regex matching over
// common credential shapes; path-based policy can redact whole files.
package redact
