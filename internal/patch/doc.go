// Package patch models a unified diff as per-file, per-hunk change records
// with exact post-change line tracking.
//
// Decompose parses raw diff text into Patches, retaining only context and
// addition lines (marker included) since every downstream stage reasons
// about the resulting file rather than the diff itself. Malformed hunk
// headers skip that hunk only; a broken file never aborts the batch.
//
// Snippet re-walks a matched patch's hunks with the same post-change
// counter rule to recover the literal changed-line text for a review
// finding, tolerating the partial and case-mangled paths that language
// models tend to echo back.
package patch
