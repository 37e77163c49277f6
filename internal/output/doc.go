// Package output renders effective diff results for display and writes the
// phase artifacts.
//
// Artifacts are written into one directory by [WriteArtifacts]:
//   - diff-raw.diff              the original diff text
//   - diff-parsed.json / .md     the parsed diff, hunk content annotated with new-file line numbers
//   - effective-diff-parsed.json / .md   the diff with pure moves removed
//   - effective-diff-moves.json  the move report
//
// Stdout summaries come in three formats: text (default), json and markdown.
// Use [GetWriter] to obtain a [Writer] for a format string, then call
// [Writer.Write] with an [io.Writer] and a [*Report]. [WriteReport] handles
// destination selection.
package output
