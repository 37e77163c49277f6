// Prradar is a local-first CLI that separates moved code from genuinely new
// code in a diff.
//
// It gathers unstaged, staged, commit, range or file diffs from git, detects
// blocks that were moved between or within files, re-diffs each moved block
// against its origin and writes the resulting effective diff, move report and
// parsed hunks as review artifacts.
//
// Usage:
//
//	prradar analyze unstaged                 # working tree changes
//	prradar analyze staged                   # staged changes
//	prradar analyze commit <sha>             # a specific commit
//	prradar analyze range origin/main..HEAD  # a revision range
//	prradar analyze file <path>...           # files vs HEAD
//	prradar analyze diff <path> --old-dir a --new-dir b
//	prradar parse <path|->                   # parse a unified diff
package main
