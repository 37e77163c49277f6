package effectivediff

import (
	"math"
	"sort"
)

// MoveCandidate is a scored hypothesis that a removed block and an added block
// are one move. Removed and added lines have equal length and are each
// ordered by line number.
type MoveCandidate struct {
	id      int
	removed []TaggedLine
	added   []TaggedLine
	score   float64
}

func newMoveCandidate(block []LineMatch, score float64) MoveCandidate {
	c := MoveCandidate{
		removed: make([]TaggedLine, len(block)),
		added:   make([]TaggedLine, len(block)),
		score:   score,
	}
	for i, m := range block {
		c.removed[i] = m.Removed
		c.added[i] = m.Added
	}
	sortByLine(c.removed)
	sortByLine(c.added)
	return c
}

func sortByLine(lines []TaggedLine) {
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].LineNumber < lines[j].LineNumber })
}

// ID is the 1-based rank of the candidate in score order.
func (c MoveCandidate) ID() int { return c.id }

// Score is the product of the size, uniqueness, consistency and distance factors.
func (c MoveCandidate) Score() float64 { return c.score }

// RemovedLines returns a copy of the removed side of the move.
func (c MoveCandidate) RemovedLines() []TaggedLine {
	return append([]TaggedLine(nil), c.removed...)
}

// AddedLines returns a copy of the added side of the move.
func (c MoveCandidate) AddedLines() []TaggedLine {
	return append([]TaggedLine(nil), c.added...)
}

// Len is the number of matched line pairs.
func (c MoveCandidate) Len() int { return len(c.removed) }

// SourceFile is the path of the hunk the block was removed from, as named
// after the change.
func (c MoveCandidate) SourceFile() string { return c.removed[0].FilePath }

// SourceOldFile is the pre-change path of the source file, the key for its
// old contents. It equals SourceFile unless the file was renamed.
func (c MoveCandidate) SourceOldFile() string {
	if p := c.removed[0].OldPath; p != "" {
		return p
	}
	return c.removed[0].FilePath
}

// TargetFile is the path the block was added to.
func (c MoveCandidate) TargetFile() string { return c.added[0].FilePath }

// SourceStartLine is the first removed line number of the block in the old file.
func (c MoveCandidate) SourceStartLine() int { return c.removed[0].LineNumber }

// SourceEndLine is the last removed line number of the block in the old file.
func (c MoveCandidate) SourceEndLine() int { return c.removed[len(c.removed)-1].LineNumber }

// TargetStartLine is the first added line number of the block in the new file.
func (c MoveCandidate) TargetStartLine() int { return c.added[0].LineNumber }

// TargetEndLine is the last added line number of the block in the new file.
func (c MoveCandidate) TargetEndLine() int { return c.added[len(c.added)-1].LineNumber }

// SizeFactor ramps linearly from minBlockSize to 1.0 at ten lines.
func SizeFactor(size, minBlockSize int) float64 {
	if size < minBlockSize {
		return 0
	}
	if size >= fullSizeBlock {
		return 1
	}
	return float64(size-minBlockSize+1) / float64(fullSizeBlock-minBlockSize+1)
}

// LineUniqueness is the mean inverse frequency of the block's lines within
// the full pool of added lines. Boilerplate such as "return nil" scores low.
func LineUniqueness(block []LineMatch, addedPool []TaggedLine) float64 {
	freq := make(map[string]int)
	for _, a := range addedPool {
		if a.Normalized != "" {
			freq[a.Normalized]++
		}
	}

	var sum float64
	n := 0
	for _, m := range block {
		norm := m.Removed.Normalized
		if norm == "" {
			continue
		}
		count := freq[norm]
		if count == 0 {
			count = 1
		}
		sum += 1 / float64(count)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// MatchConsistency measures how tightly the target lines cluster. A block
// whose target lines spread no more than a uniform run over their span scores
// 1.0; more scattered blocks decay with the ratio of the two deviations.
func MatchConsistency(block []LineMatch) float64 {
	if len(block) <= 1 {
		return 1
	}
	lo, hi := math.MaxInt, math.MinInt
	var sum float64
	for _, m := range block {
		n := m.Added.LineNumber
		sum += float64(n)
		lo = min(lo, n)
		hi = max(hi, n)
	}
	mean := sum / float64(len(block))
	var sq float64
	for _, m := range block {
		d := float64(m.Added.LineNumber) - mean
		sq += d * d
	}
	actual := math.Sqrt(sq / float64(len(block)-1))

	span := float64(hi - lo + 1)
	expected := span / (2 * math.Sqrt(3))
	if expected == 0 || actual <= expected {
		return 1
	}
	return expected / actual
}

// DistanceFactor grows with the mean hunk distance of the block: 0.5 at one
// hunk apart, 1.0 from two on.
func DistanceFactor(block []LineMatch) float64 {
	if len(block) == 0 {
		return 0
	}
	total := 0
	for _, m := range block {
		total += m.Distance
	}
	avg := float64(total) / float64(len(block))
	return math.Min(1, avg*0.5)
}

// ScoreBlock combines the four factors into one score in [0, 1].
func ScoreBlock(block []LineMatch, addedPool []TaggedLine, minBlockSize int) float64 {
	size := SizeFactor(len(block), minBlockSize)
	if size == 0 {
		return 0
	}
	return size * LineUniqueness(block, addedPool) * MatchConsistency(block) * DistanceFactor(block)
}

// FindMoveCandidates groups matches into blocks, scores them and returns the
// survivors ordered by score, highest first. IDs are assigned in that order.
func FindMoveCandidates(matches []LineMatch, addedPool []TaggedLine, opts Options) []MoveCandidate {
	var candidates []MoveCandidate
	for _, block := range GroupMatches(matches, opts.GapTolerance) {
		if len(block) < opts.MinBlockSize {
			continue
		}
		score := ScoreBlock(block, addedPool, opts.MinBlockSize)
		if score < opts.MinScore {
			continue
		}
		candidates = append(candidates, newMoveCandidate(block, score))
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	for i := range candidates {
		candidates[i].id = i + 1
	}
	return candidates
}
