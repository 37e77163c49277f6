package effectivediff

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/prradar/internal/diff"
)

// Differ produces a unified diff of two texts, with the file paths in the
// output labelled oldLabel and newLabel. Identical texts yield "".
type Differ interface {
	Diff(ctx context.Context, oldText, newText, oldLabel, newLabel string) (string, error)
}

// DifferFunc adapts a function to the Differ interface.
type DifferFunc func(ctx context.Context, oldText, newText, oldLabel, newLabel string) (string, error)

func (f DifferFunc) Diff(ctx context.Context, oldText, newText, oldLabel, newLabel string) (string, error) {
	return f(ctx, oldText, newText, oldLabel, newLabel)
}

// LineRange is a 1-indexed inclusive range of file lines.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// EffectiveDiffResult holds what re-diffing one candidate's regions found.
// Hunks is empty for a pure move. Hunk line numbers are relative to the
// extracted regions.
type EffectiveDiffResult struct {
	Candidate    MoveCandidate
	Hunks        []diff.Hunk
	RawDiff      string
	SourceRegion LineRange
	TargetRegion LineRange
}

// ChangedLineCount is the number of added and removed lines in the hunks.
func (r EffectiveDiffResult) ChangedLineCount() int {
	n := 0
	for _, h := range r.Hunks {
		n += len(h.ChangedLines())
	}
	return n
}

// ExtendRange widens the source and target spans of c by contextLines on both
// sides. Starts are clamped to 1; ends are clamped later, on extraction.
func ExtendRange(c MoveCandidate, contextLines int) (source, target LineRange) {
	source = LineRange{
		Start: max(1, c.SourceStartLine()-contextLines),
		End:   c.SourceEndLine() + contextLines,
	}
	target = LineRange{
		Start: max(1, c.TargetStartLine()-contextLines),
		End:   c.TargetEndLine() + contextLines,
	}
	return source, target
}

// ExtractLineRange returns lines start through end of text, 1-indexed and
// inclusive, with their line endings. Out-of-range bounds are clamped and an
// empty range yields "".
func ExtractLineRange(text string, start, end int) string {
	lines := strings.SplitAfter(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	start = max(1, start)
	end = min(len(lines), end)
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "")
}

// TrimHunks keeps the hunks whose new-side range, shifted to absolute file
// lines by regionStart, lies within proximity lines of the block.
func TrimHunks(hunks []diff.Hunk, blockStart, blockEnd, regionStart, proximity int) []diff.Hunk {
	var kept []diff.Hunk
	for _, h := range hunks {
		absStart := regionStart + h.NewStart - 1
		absEnd := absStart + max(h.NewLength-1, 0)
		if absStart <= blockEnd+proximity && absEnd >= blockStart-proximity {
			kept = append(kept, h)
		}
	}
	return kept
}

// RediffCandidate re-diffs the extended source region of c against its
// extended target region and keeps the hunks near the moved block.
func RediffCandidate(ctx context.Context, c MoveCandidate, oldFiles, newFiles map[string]string, differ Differ, opts Options) (EffectiveDiffResult, error) {
	source, target := ExtendRange(c, opts.ContextLines)
	result := EffectiveDiffResult{Candidate: c, SourceRegion: source, TargetRegion: target}

	oldText := ExtractLineRange(oldFiles[c.SourceOldFile()], source.Start, source.End)
	newText := ExtractLineRange(newFiles[c.TargetFile()], target.Start, target.End)

	raw, err := differ.Diff(ctx, oldText, newText, c.SourceOldFile(), c.TargetFile())
	if err != nil {
		return EffectiveDiffResult{}, rediffError(c, err)
	}
	if raw == "" {
		return result, nil
	}

	parsed, err := diff.Parse(raw, "")
	if err != nil {
		return EffectiveDiffResult{}, rediffError(c, fmt.Errorf("parse rediff output: %w", err))
	}
	result.RawDiff = raw
	result.Hunks = TrimHunks(parsed.Hunks, c.TargetStartLine(), c.TargetEndLine(), target.Start, opts.TrimProximity)
	return result, nil
}

func rediffError(c MoveCandidate, err error) *RediffError {
	return &RediffError{Candidate: c.ID(), SourceFile: c.SourceFile(), TargetFile: c.TargetFile(), Err: err}
}
