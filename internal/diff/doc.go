// Package diff parses unified diff text into immutable structural records.
//
// [Parse] turns multi-file `git diff` output (including rename, copy, mode and
// binary headers) into a [GitDiff] made of [Hunk] values. [Hunk.Lines] walks
// a hunk body and assigns old/new line numbers to every removed, added and
// context line.
//
// Rendering (annotated content, markdown) lives in package output; this
// package only knows structure.
package diff
