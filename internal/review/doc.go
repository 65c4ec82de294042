// Package review turns staged source-control changes into structured
// findings via an LLM round trip.
//
// The pipeline is pure text transformation: patch.Decompose breaks the
// diff into per-file hunk records, BuildFileContext renders a bounded,
// line-numbered excerpt of each touched file, BuildUserPrompt concatenates
// rules, learned patterns, diff, and context into the outbound request,
// and ParseReply reconstructs findings from the model's semi-structured
// reply with a tolerant line-oriented state machine. Given identical
// inputs the outputs are deterministic; nothing here performs I/O beyond
// the injected file reader and provider call, so independent reviews can
// run concurrently without shared state.
//
// Diffs over 100 KB are split into whole-file chunks and reviewed in
// parallel with bounded concurrency; the merged findings are deduplicated
// by file, line, and issue text.
//
// Rule packs (rules.go) contribute focus areas, severity overrides, and
// configured checks whose ids the model echoes back through CHECKID,
// which also carries the check's provenance prefix.
package review
