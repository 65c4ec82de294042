// Package config loads and merges revlens configuration.
//
// Precedence, lowest to highest: built-in defaults, the JSON config file
// in the platform config directory, REVLENS_* environment variables, and
// CLI flag overrides. The context window policy knobs (contextGap,
// contextPad) default to the standard 100/50 values and rarely need
// changing.
package config
