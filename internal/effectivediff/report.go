package effectivediff

// MoveDetail summarizes one detected move.
type MoveDetail struct {
	SourceFile         string  `json:"source_file"`
	TargetFile         string  `json:"target_file"`
	SourceLines        [2]int  `json:"source_lines"`
	TargetLines        [2]int  `json:"target_lines"`
	MatchedLines       int     `json:"matched_lines"`
	Score              float64 `json:"score"`
	EffectiveDiffLines int     `json:"effective_diff_lines"`
}

// MoveReport aggregates every detected move.
type MoveReport struct {
	MovesDetected                int          `json:"moves_detected"`
	TotalLinesMoved              int          `json:"total_lines_moved"`
	TotalLinesEffectivelyChanged int          `json:"total_lines_effectively_changed"`
	Moves                        []MoveDetail `json:"moves"`
}

// BuildMoveReport summarizes results, keeping their order.
func BuildMoveReport(results []EffectiveDiffResult) MoveReport {
	report := MoveReport{Moves: make([]MoveDetail, 0, len(results))}
	for _, r := range results {
		c := r.Candidate
		changed := r.ChangedLineCount()
		report.Moves = append(report.Moves, MoveDetail{
			SourceFile:         c.SourceFile(),
			TargetFile:         c.TargetFile(),
			SourceLines:        [2]int{c.SourceStartLine(), c.SourceEndLine()},
			TargetLines:        [2]int{c.TargetStartLine(), c.TargetEndLine()},
			MatchedLines:       c.Len(),
			Score:              c.Score(),
			EffectiveDiffLines: changed,
		})
		report.TotalLinesMoved += c.Len()
		report.TotalLinesEffectivelyChanged += changed
	}
	report.MovesDetected = len(report.Moves)
	return report
}
