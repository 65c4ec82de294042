// Package cache provides file-based caching for raw model replies.
//
// Keys cover the model and the complete prompt, so any change to rules,
// learned patterns, or context construction naturally misses. Entries are
// JSON files with a TTL checked on read; a disabled cache is a valid
// instance whose operations are no-ops.
package cache
