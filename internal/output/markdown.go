package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/prradar/internal/effectivediff"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}
	s := report.Summary

	ew.printf("## prradar Effective Diff\n\n")

	// Summary table
	ew.printf("| Metric | Count |\n")
	ew.printf("|--------|-------|\n")
	ew.printf("| Files | %d |\n", s.Files)
	ew.printf("| Hunks | %d |\n", s.Hunks)
	ew.printf("| Effective hunks | %d |\n", s.EffectiveHunks)
	ew.printf("| Moves | %d |\n", report.Moves.MovesDetected)
	ew.printf("| Lines moved | %d |\n", report.Moves.TotalLinesMoved)
	ew.printf("| Lines changed in moves | %d |\n", report.Moves.TotalLinesEffectivelyChanged)
	ew.printf("| New lines | %d |\n\n", s.Lines[effectivediff.ClassNew])

	if report.Moves.MovesDetected == 0 {
		ew.println("No moved code detected. :white_check_mark:")
	} else {
		ew.printf("<details>\n<summary>:arrow_right: Moves (%d)</summary>\n\n", report.Moves.MovesDetected)
		ew.printf("| # | From | To | Matched | Score | Changed |\n")
		ew.printf("|---|------|----|---------|-------|---------|\n")
		for i, mv := range report.Moves.Moves {
			ew.printf("| %d | %s | %s | %d | %.2f | %d |\n", i+1,
				mdCode(fmt.Sprintf("%s:%d-%d", mv.SourceFile, mv.SourceLines[0], mv.SourceLines[1])),
				mdCode(fmt.Sprintf("%s:%d-%d", mv.TargetFile, mv.TargetLines[0], mv.TargetLines[1])),
				mv.MatchedLines, mv.Score, mv.EffectiveDiffLines)
		}
		ew.printf("\n</details>\n\n")
	}

	if len(s.PerFile) > 0 {
		ew.printf("<details>\n<summary>Files (%d)</summary>\n\n", len(s.PerFile))
		for _, f := range s.PerFile {
			ew.printf("- %s %s: +%d -%d, %d moved, %d changed in move\n",
				fileIcon(f), mdCode(f.Path), f.New, f.Removed, f.Moved+f.MovedRemoval, f.ChangedInMove)
		}
		ew.printf("\n</details>\n\n")
	}

	ew.printf("*Analyzed in %dms (git: %dms, engine: %dms)*\n",
		report.Timing.TotalMs, report.Timing.GitMs, report.Timing.EngineMs)
	return ew.err
}

func fileIcon(f FileSummary) string {
	switch {
	case f.New == 0 && f.Removed == 0 && f.ChangedInMove == 0:
		return ":recycle:"
	case f.Moved+f.MovedRemoval+f.ChangedInMove > 0:
		return ":twisted_rightwards_arrows:"
	default:
		return ":pencil2:"
	}
}

// mdCode wraps s in inline code, widening the fence if s holds backticks.
func mdCode(s string) string {
	fence := "`"
	for strings.Contains(s, fence) {
		fence += "`"
	}
	return fmt.Sprintf("%s%s%s", fence, s, fence)
}
