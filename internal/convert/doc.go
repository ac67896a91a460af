// Package convert implements the media converter: it expands a changed path
// into candidates, sniffs each one, maps qualifying files into the output
// tree, and runs the encoder for every mapped file.
//
// Per-file problems are recorded in the Summary and never abort the batch.
// Only argument and discovery failures end a run early.
package convert
