// Package gitctx extracts diffs and file contents from a git repository.
//
// It supports the five analysis modes (unstaged, staged, commit, range and
// file) by shelling out to git with appropriate arguments. Each [DiffResult]
// records which two versions of the tree it compares, so [DiffResult.Contents]
// can read the full before and after text of every touched file through
// `git show <rev>:<path>`, the index, or the working tree.
//
// Results are filtered by include/exclude glob patterns. A size cap drops
// whole file sections rather than cutting through a hunk.
package gitctx
