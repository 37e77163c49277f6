package effectivediff

import "github.com/dshills/prradar/internal/diff"

// Classification labels one line of the original diff.
type Classification string

const (
	ClassNew           Classification = "new"
	ClassMoved         Classification = "moved"
	ClassChangedInMove Classification = "changedInMove"
	ClassRemoved       Classification = "removed"
	ClassMovedRemoval  Classification = "movedRemoval"
	ClassContext       Classification = "context"
)

// IsMove reports whether the line belongs to a verbatim move.
func (c Classification) IsMove() bool {
	return c == ClassMoved || c == ClassMovedRemoval
}

// ClassifiedLine is a line of the original diff with its classification.
// MoveID is the ID of the highest scoring candidate responsible for the
// line, or 0.
type ClassifiedLine struct {
	diff.Line
	FilePath       string
	HunkIndex      int
	Classification Classification
	MoveID         int
}

// ClassifiedHunk is one original hunk with its classified lines in order.
type ClassifiedHunk struct {
	Hunk  diff.Hunk
	Index int
	Lines []ClassifiedLine
}

// IsMoved reports whether every changed line of the hunk is part of a move.
func (h ClassifiedHunk) IsMoved() bool {
	moved := false
	for _, l := range h.Lines {
		switch {
		case l.Classification.IsMove():
			moved = true
		case l.Classification != ClassContext:
			return false
		}
	}
	return moved
}

// HasNewCode reports whether the hunk adds any line that is not part of a move.
func (h ClassifiedHunk) HasNewCode() bool {
	return h.has(ClassNew)
}

// HasChangesInMove reports whether the hunk holds edits made inside a move.
func (h ClassifiedHunk) HasChangesInMove() bool {
	return h.has(ClassChangedInMove)
}

func (h ClassifiedHunk) has(c Classification) bool {
	for _, l := range h.Lines {
		if l.Classification == c {
			return true
		}
	}
	return false
}

// lineOwners maps file -> line number -> move ID.
type lineOwners map[string]map[int]int

// claim records id for the line unless a higher-ranked move already owns it.
func (o lineOwners) claim(file string, line, id int) {
	lines, ok := o[file]
	if !ok {
		lines = make(map[int]int)
		o[file] = lines
	}
	if _, taken := lines[line]; !taken {
		lines[line] = id
	}
}

func (o lineOwners) owner(file string, line int) (int, bool) {
	id, ok := o[file][line]
	return id, ok
}

// ClassifyLines labels every non-header line of d, in order. results must be
// in score order so that the best candidate owns a contested line.
func ClassifyLines(d diff.GitDiff, results []EffectiveDiffResult) []ClassifiedLine {
	sourceMoved := make(lineOwners)
	targetMoved := make(lineOwners)
	changedInMove := make(lineOwners)

	for _, r := range results {
		c := r.Candidate
		for _, l := range c.removed {
			sourceMoved.claim(l.FilePath, l.LineNumber, c.ID())
		}
		for _, l := range c.added {
			targetMoved.claim(l.FilePath, l.LineNumber, c.ID())
		}
		for _, h := range r.Hunks {
			for _, l := range h.AddedLines() {
				changedInMove.claim(c.TargetFile(), r.TargetRegion.Start+l.NewNumber-1, c.ID())
			}
			// The old side of an edit inside the move left with the block.
			for _, l := range h.RemovedLines() {
				sourceMoved.claim(c.SourceFile(), r.SourceRegion.Start+l.OldNumber-1, c.ID())
			}
		}
	}

	var out []ClassifiedLine
	for idx, h := range d.Hunks {
		for _, l := range h.Lines() {
			cl := ClassifiedLine{Line: l, FilePath: h.FilePath, HunkIndex: idx}
			switch l.Type {
			case diff.LineRemoved:
				if id, ok := sourceMoved.owner(h.FilePath, l.OldNumber); ok {
					cl.Classification, cl.MoveID = ClassMovedRemoval, id
				} else {
					cl.Classification = ClassRemoved
				}
			case diff.LineAdded:
				if id, ok := changedInMove.owner(h.FilePath, l.NewNumber); ok {
					cl.Classification, cl.MoveID = ClassChangedInMove, id
				} else if id, ok := targetMoved.owner(h.FilePath, l.NewNumber); ok {
					cl.Classification, cl.MoveID = ClassMoved, id
				} else {
					cl.Classification = ClassNew
				}
			default:
				cl.Classification = ClassContext
			}
			out = append(out, cl)
		}
	}
	return out
}

// GroupByHunk splits classified lines back into per-hunk containers. Each
// hunk takes as many lines as it has non-header lines, in original order.
func GroupByHunk(d diff.GitDiff, lines []ClassifiedLine) []ClassifiedHunk {
	out := make([]ClassifiedHunk, 0, len(d.Hunks))
	pos := 0
	for idx, h := range d.Hunks {
		n := min(len(h.Lines()), len(lines)-pos)
		out = append(out, ClassifiedHunk{Hunk: h, Index: idx, Lines: lines[pos : pos+n]})
		pos += n
	}
	return out
}
