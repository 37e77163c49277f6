package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/prradar/internal/effectivediff"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}

	ew.printf("prradar effective diff (%s mode)\n", report.Inputs.Mode)
	if report.Inputs.Range != "" {
		ew.printf("Range: %s\n", report.Inputs.Range)
	}
	if report.Repo.Root != "" {
		ew.printf("Repository: %s (branch: %s)\n", report.Repo.Root, report.Repo.Branch)
	}
	if report.CommitHash != "" {
		ew.printf("Commit: %s\n", report.CommitHash)
	}
	ew.println(strings.Repeat("─", 60))

	s := report.Summary
	ew.printf("Files: %d | Hunks: %d | Effective hunks: %d\n", s.Files, s.Hunks, s.EffectiveHunks)
	ew.printf("Moves: %d (%d lines moved, %d lines changed in moves)\n",
		report.Moves.MovesDetected, report.Moves.TotalLinesMoved, report.Moves.TotalLinesEffectivelyChanged)
	ew.printf("Lines: %d new, %d removed, %d moved, %d changed in move\n",
		s.Lines[effectivediff.ClassNew], s.Lines[effectivediff.ClassRemoved],
		s.Lines[effectivediff.ClassMoved], s.Lines[effectivediff.ClassChangedInMove])
	if report.Truncated {
		ew.println("Note: diff exceeded maxDiffBytes; trailing files were skipped")
	}
	ew.println(strings.Repeat("─", 60))

	if report.Moves.MovesDetected == 0 {
		ew.println("\nNo moved code detected.")
	} else {
		ew.println("\nMOVES")
		ew.println(strings.Repeat("─", 40))
		for i, m := range report.Moves.Moves {
			ew.printf("\n  %d. %s:%d-%d -> %s:%d-%d\n", i+1,
				m.SourceFile, m.SourceLines[0], m.SourceLines[1],
				m.TargetFile, m.TargetLines[0], m.TargetLines[1])
			ew.printf("     %d lines matched | score %.2f | %d lines changed\n",
				m.MatchedLines, m.Score, m.EffectiveDiffLines)
		}
	}

	if len(s.PerFile) > 0 {
		ew.println("\nFILES")
		ew.println(strings.Repeat("─", 40))
		for _, f := range s.PerFile {
			ew.printf("  %-40s +%d -%d moved %d/%d changed-in-move %d\n",
				f.Path, f.New, f.Removed, f.Moved, f.MovedRemoval, f.ChangedInMove)
		}
	}

	if len(report.Artifacts) > 0 {
		ew.println("\nArtifacts:")
		for _, a := range report.Artifacts {
			ew.printf("  %s\n", a)
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	cached := ""
	if report.Cached {
		cached = ", cached"
	}
	ew.printf("Completed in %dms (git: %dms, engine: %dms%s)\n",
		report.Timing.TotalMs, report.Timing.GitMs, report.Timing.EngineMs, cached)

	return ew.err
}

// WriteParsedText writes a short outline of a parsed diff: one entry per hunk
// with its old and new line spans.
func WriteParsedText(w io.Writer, p ParsedDiff) error {
	ew := &errWriter{w: w}
	if len(p.Hunks) == 0 {
		ew.println("Empty diff (no hunks found)")
		return ew.err
	}
	if p.CommitHash != "" {
		ew.printf("Commit: %s\n", p.CommitHash)
	}
	ew.printf("Files changed: %d\n", len(p.Files()))
	ew.printf("Total hunks: %d\n", len(p.Hunks))
	for i, h := range p.Hunks {
		ew.printf("\nHunk %d: %s\n", i+1, h.FilePath)
		if h.RenameFrom != "" {
			ew.printf("  Renamed from: %s\n", h.RenameFrom)
		}
		ew.printf("  Old: %s\n", lineSpan(h.OldStart, h.OldLength))
		ew.printf("  New: %s\n", lineSpan(h.NewStart, h.NewLength))
	}
	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
