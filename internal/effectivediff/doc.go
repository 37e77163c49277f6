// Package effectivediff detects blocks of code that were moved rather than
// rewritten and reduces a diff to the lines that genuinely changed.
//
// The engine matches removed and added lines by normalized content, chains
// matches into blocks, scores each block, re-diffs the surrounding regions of
// the survivors to find edits made inside a move, and finally classifies every
// line of the original diff and rebuilds its hunks without the pure-move lines.
package effectivediff
