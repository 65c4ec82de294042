// Package cli wires together the Cobra command tree for the revlens binary.
//
// It defines the root command and all subcommands (review, config, models,
// cache, hook, serve, patterns, feedback, version), binds flags, reads
// configuration, invokes the review engine, and returns deterministic exit
// codes for CI gating.
package cli
