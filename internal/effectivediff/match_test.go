package effectivediff

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/prradar/internal/diff"
)

func TestTagLines(t *testing.T) {
	d := mustParse(t, pureMoveDiff)
	removed, added := TagLines(d)
	require.Len(t, removed, 5)
	require.Len(t, added, 5)

	assert.Equal(t, "utils.py", removed[0].FilePath)
	assert.Equal(t, 1, removed[0].LineNumber)
	assert.Equal(t, 0, removed[0].HunkIndex)
	assert.Equal(t, diff.LineRemoved, removed[0].Type)
	assert.Equal(t, "total = 0", removed[1].Normalized)
	assert.Equal(t, "    total = 0", removed[1].Content)

	assert.Equal(t, "helpers.py", added[4].FilePath)
	assert.Equal(t, 5, added[4].LineNumber)
	assert.Equal(t, 1, added[4].HunkIndex)
	assert.Equal(t, "utils.py", removed[0].OldPath)
}

func TestTagLines_RenameKeepsOldPath(t *testing.T) {
	d := mustParse(t, `diff --git a/old.go b/new.go
rename from old.go
rename to new.go
--- a/old.go
+++ b/new.go
@@ -1,2 +1,1 @@
 keep()
-gone()
`)
	removed, _ := TagLines(d)
	require.Len(t, removed, 1)
	assert.Equal(t, "new.go", removed[0].FilePath)
	assert.Equal(t, "old.go", removed[0].OldPath)
}

func TestFindExactMatches_All(t *testing.T) {
	removed := []TaggedLine{tagged("a", 1, 0, "x := 1"), tagged("a", 2, 0, "  ")}
	added := []TaggedLine{tagged("b", 4, 1, "x := 1"), tagged("b", 9, 3, "  x := 1"), tagged("b", 10, 3, "")}

	matches := FindExactMatches(removed, added, MatchAll)
	require.Len(t, matches, 2)
	assert.Equal(t, 4, matches[0].Added.LineNumber)
	assert.Equal(t, 1, matches[0].Distance)
	assert.Equal(t, 9, matches[1].Added.LineNumber)
	assert.Equal(t, 3, matches[1].Distance)
	for _, m := range matches {
		assert.Equal(t, 1.0, m.Similarity)
	}
}

func TestFindExactMatches_Exclusive(t *testing.T) {
	removed := []TaggedLine{tagged("a", 1, 0, "return nil"), tagged("a", 7, 0, "return nil")}
	added := []TaggedLine{tagged("b", 3, 1, "return nil"), tagged("b", 8, 1, "return nil")}

	matches := FindExactMatches(removed, added, MatchExclusive)
	require.Len(t, matches, 2)
	assert.Equal(t, 3, matches[0].Added.LineNumber)
	assert.Equal(t, 8, matches[1].Added.LineNumber)

	assert.Len(t, FindExactMatches(removed, added, MatchAll), 4)
}

func TestFindExactMatches_BlankLinesNeverMatch(t *testing.T) {
	removed := []TaggedLine{tagged("a", 1, 0, ""), tagged("a", 2, 0, "\t")}
	added := []TaggedLine{tagged("b", 1, 1, ""), tagged("b", 2, 1, "   ")}
	assert.Empty(t, FindExactMatches(removed, added, MatchAll))
}

func TestGroupMatches_GapToleranceBoundary(t *testing.T) {
	tol := DefaultGapTolerance

	// Lines 1 and 5 leave exactly tol unmatched lines between them.
	merged := GroupMatches([]LineMatch{moveMatch(1, 1, "a"), moveMatch(1+tol+1, 2, "b")}, tol)
	require.Len(t, merged, 1)
	assert.Len(t, merged[0], 2)

	split := GroupMatches([]LineMatch{moveMatch(1, 1, "a"), moveMatch(1+tol+2, 2, "b")}, tol)
	require.Len(t, split, 2)
}

func TestGroupMatches_OneRemovedLineCannotFillABlock(t *testing.T) {
	// One removed line matches three identical added lines.
	matches := []LineMatch{
		moveMatch(2, 2, "return nil"),
		moveMatch(2, 5, "return nil"),
		moveMatch(2, 8, "return nil"),
	}
	blocks := GroupMatches(matches, DefaultGapTolerance)
	require.Len(t, blocks, 1)
	require.Len(t, blocks[0], 1)
	assert.Equal(t, 2, blocks[0][0].Added.LineNumber)

	pool := []TaggedLine{matches[0].Added, matches[1].Added, matches[2].Added}
	assert.Empty(t, FindMoveCandidates(matches, pool, DefaultOptions()))
}

func TestGroupMatches_PairsFollowTheBlock(t *testing.T) {
	// Lines 1-3 moved to 11-13; line 2 also appears at 40.
	matches := []LineMatch{
		moveMatch(1, 11, "open()"),
		moveMatch(2, 12, "return nil"),
		moveMatch(2, 40, "return nil"),
		moveMatch(3, 13, "close()"),
	}
	blocks := GroupMatches(matches, DefaultGapTolerance)
	require.Len(t, blocks, 1)
	require.Len(t, blocks[0], 3)
	var added []int
	for _, m := range blocks[0] {
		added = append(added, m.Added.LineNumber)
	}
	assert.Equal(t, []int{11, 12, 13}, added)
}

func TestGroupMatches_DropsSameHunkMatches(t *testing.T) {
	var matches []LineMatch
	for i := 1; i <= 6; i++ {
		content := fmt.Sprintf("line %d", i)
		matches = append(matches, LineMatch{
			Removed:  tagged("f.go", i, 2, content),
			Added:    tagged("f.go", i+10, 2, content),
			Distance: 0,
		})
	}
	assert.Empty(t, GroupMatches(matches, DefaultGapTolerance))
	assert.Empty(t, FindMoveCandidates(matches, nil, DefaultOptions()))
}

func TestGroupMatches_GroupsPerFilePairInOrder(t *testing.T) {
	other := LineMatch{
		Removed:  tagged("x.go", 1, 0, "q"),
		Added:    tagged("y.go", 1, 2, "q"),
		Distance: 2,
	}
	blocks := GroupMatches([]LineMatch{moveMatch(3, 3, "c"), other, moveMatch(1, 1, "a")}, 3)
	require.Len(t, blocks, 2)
	assert.Equal(t, "src.go", blocks[0][0].Removed.FilePath)
	assert.Equal(t, 1, blocks[0][0].Removed.LineNumber, "group sorted by removed line")
	assert.Equal(t, "x.go", blocks[1][0].Removed.FilePath)
}
