package effectivediff

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dshills/prradar/internal/diff"
)

// Reconstruct rebuilds original without its pure-move lines. Hunks with no
// moved lines are kept as they are. Others are split at every moved line and
// the runs that still hold a change become new hunks with recomputed headers.
//
// A hunk whose classified lines do not add up to its header counts is an
// error in strict mode. Otherwise it is logged and kept unmodified.
func Reconstruct(original diff.GitDiff, hunks []ClassifiedHunk, strict bool, log zerolog.Logger) (diff.GitDiff, error) {
	out := diff.GitDiff{Raw: original.Raw, CommitHash: original.CommitHash}
	for _, ch := range hunks {
		if !hasMoveLine(ch.Lines) {
			out.Hunks = append(out.Hunks, ch.Hunk)
			continue
		}
		if err := reconcile(ch); err != nil {
			if strict {
				return diff.GitDiff{}, err
			}
			log.Warn().Err(err).Str("file", ch.Hunk.FilePath).Msg("keeping hunk unmodified")
			out.Hunks = append(out.Hunks, ch.Hunk)
			continue
		}
		for _, run := range splitAtMoves(ch.Lines) {
			out.Hunks = append(out.Hunks, buildHunk(ch.Hunk, run))
		}
	}
	return out, nil
}

func hasMoveLine(lines []ClassifiedLine) bool {
	for _, l := range lines {
		if l.Classification.IsMove() {
			return true
		}
	}
	return false
}

func reconcile(ch ClassifiedHunk) error {
	removed, added, context := countTypes(ch.Lines)
	if removed+context != ch.Hunk.OldLength {
		return &ReconstructionError{
			FilePath: ch.Hunk.FilePath,
			Hunk:     ch.Hunk,
			Reason:   fmt.Sprintf("old side has %d lines, header says %d", removed+context, ch.Hunk.OldLength),
		}
	}
	if added+context != ch.Hunk.NewLength {
		return &ReconstructionError{
			FilePath: ch.Hunk.FilePath,
			Hunk:     ch.Hunk,
			Reason:   fmt.Sprintf("new side has %d lines, header says %d", added+context, ch.Hunk.NewLength),
		}
	}
	return nil
}

func countTypes(lines []ClassifiedLine) (removed, added, context int) {
	for _, l := range lines {
		switch l.Type {
		case diff.LineRemoved:
			removed++
		case diff.LineAdded:
			added++
		default:
			context++
		}
	}
	return removed, added, context
}

// splitAtMoves returns the maximal runs between moved lines that contain at
// least one added or removed line.
func splitAtMoves(lines []ClassifiedLine) [][]ClassifiedLine {
	var runs [][]ClassifiedLine
	var cur []ClassifiedLine
	flush := func() {
		for _, l := range cur {
			if l.IsChange() {
				runs = append(runs, cur)
				break
			}
		}
		cur = nil
	}
	for _, l := range lines {
		if l.Classification.IsMove() {
			flush()
			continue
		}
		cur = append(cur, l)
	}
	flush()
	return runs
}

func buildHunk(orig diff.Hunk, run []ClassifiedLine) diff.Hunk {
	oldStart, newStart := 0, 0
	removed, added, context := countTypes(run)
	body := make([]string, 0, len(run)+1)
	for _, l := range run {
		if l.Type != diff.LineAdded && (oldStart == 0 || l.OldNumber < oldStart) {
			oldStart = l.OldNumber
		}
		if l.Type != diff.LineRemoved && (newStart == 0 || l.NewNumber < newStart) {
			newStart = l.NewNumber
		}
	}
	if oldStart == 0 {
		oldStart = orig.OldStart
	}
	if newStart == 0 {
		newStart = orig.NewStart
	}

	h := diff.Hunk{
		FilePath:   orig.FilePath,
		RenameFrom: orig.RenameFrom,
		OldStart:   oldStart,
		OldLength:  removed + context,
		NewStart:   newStart,
		NewLength:  added + context,
		FileHeader: orig.FileHeader,
	}
	body = append(body, fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldLength, h.NewStart, h.NewLength))
	for _, l := range run {
		body = append(body, l.Raw)
	}
	h.Body = body
	return h
}
