package effectivediff

import (
	"strings"

	"github.com/dshills/prradar/internal/diff"
)

// TaggedLine is one removed or added line of a diff with the location data
// needed for matching. FilePath is the post-change path of the hunk; OldPath
// is its pre-change path, which differs only for renamed files.
type TaggedLine struct {
	Content    string
	Normalized string
	FilePath   string
	OldPath    string
	LineNumber int
	HunkIndex  int
	Type       diff.LineType
}

// LineMatch pairs a removed line with an added line of the same content.
type LineMatch struct {
	Removed    TaggedLine
	Added      TaggedLine
	Distance   int
	Similarity float64
}

// Normalize returns the form of a line used for comparison.
func Normalize(s string) string {
	return strings.TrimSpace(s)
}

// TagLines collects every removed and added line of d, in hunk order.
// HunkIndex is the position of the hunk in d.Hunks.
func TagLines(d diff.GitDiff) (removed, added []TaggedLine) {
	for idx, h := range d.Hunks {
		for _, l := range h.Lines() {
			switch l.Type {
			case diff.LineRemoved:
				removed = append(removed, tag(l, h, l.OldNumber, idx))
			case diff.LineAdded:
				added = append(added, tag(l, h, l.NewNumber, idx))
			}
		}
	}
	return removed, added
}

func tag(l diff.Line, h diff.Hunk, number, hunkIndex int) TaggedLine {
	return TaggedLine{
		Content:    l.Content,
		Normalized: Normalize(l.Content),
		FilePath:   h.FilePath,
		OldPath:    h.OldPath(),
		LineNumber: number,
		HunkIndex:  hunkIndex,
		Type:       l.Type,
	}
}

// FindExactMatches pairs removed lines with added lines whose normalized
// content is identical. Blank lines never match. Matches come out in removed
// line order, and for one removed line in added line order.
func FindExactMatches(removed, added []TaggedLine, mode MatchMode) []LineMatch {
	index := make(map[string][]int)
	for i, a := range added {
		if a.Normalized == "" {
			continue
		}
		index[a.Normalized] = append(index[a.Normalized], i)
	}

	claimed := make(map[int]bool)
	var matches []LineMatch
	for _, r := range removed {
		if r.Normalized == "" {
			continue
		}
		for _, i := range index[r.Normalized] {
			if mode == MatchExclusive && claimed[i] {
				continue
			}
			a := added[i]
			matches = append(matches, LineMatch{
				Removed:    r,
				Added:      a,
				Distance:   abs(r.HunkIndex - a.HunkIndex),
				Similarity: 1.0,
			})
			if mode == MatchExclusive {
				claimed[i] = true
				break
			}
		}
	}
	return matches
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
