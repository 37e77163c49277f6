package rediff

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/prradar/internal/diff"
	"github.com/dshills/prradar/internal/effectivediff"
)

func TestBuiltin_Identical(t *testing.T) {
	out, err := NewBuiltin().Diff(context.Background(), "a\nb\n", "a\nb", "x", "y")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestBuiltin_SingleEdit(t *testing.T) {
	oldText := "one\ntwo\nthree\nfour\nfive\n"
	newText := "one\ntwo\nTHREE\nfour\nfive\n"
	out, err := NewBuiltin().Diff(context.Background(), oldText, newText, "a.txt", "b.txt")
	require.NoError(t, err)

	d, err := diff.Parse(out, "")
	require.NoError(t, err)
	require.Len(t, d.Hunks, 1)
	h := d.Hunks[0]
	assert.Equal(t, "b.txt", h.FilePath)
	assert.Equal(t, "@@ -1,5 +1,5 @@", h.Header())
	require.Len(t, h.RemovedLines(), 1)
	require.Len(t, h.AddedLines(), 1)
	assert.Equal(t, "three", h.RemovedLines()[0].Content)
	assert.Equal(t, 3, h.AddedLines()[0].NewNumber)
	assert.Contains(t, out, "--- a/a.txt\n+++ b/b.txt\n")
}

func TestBuiltin_SeparateHunks(t *testing.T) {
	var oldText, newText string
	for i := 1; i <= 30; i++ {
		line := fmt.Sprintf("line %d\n", i)
		oldText += line
		switch i {
		case 2:
			newText += "CHANGED\n"
		case 25:
			newText += line + "INSERTED\n"
		default:
			newText += line
		}
	}
	out, err := NewBuiltin().Diff(context.Background(), oldText, newText, "f", "f")
	require.NoError(t, err)

	d, err := diff.Parse(out, "")
	require.NoError(t, err)
	require.Len(t, d.Hunks, 2)
	assert.Equal(t, 1, d.Hunks[0].OldStart)
	assert.Equal(t, 5, d.Hunks[0].OldLength)
	assert.Equal(t, 23, d.Hunks[1].OldStart)
	assert.Equal(t, 23, d.Hunks[1].NewStart)
	assert.Equal(t, 6, d.Hunks[1].OldLength)
	assert.Equal(t, 7, d.Hunks[1].NewLength)
	assert.Equal(t, 26, d.Hunks[1].AddedLines()[0].NewNumber)
}

func TestBuiltin_PureInsertionIntoEmpty(t *testing.T) {
	out, err := (&Builtin{Context: 0}).Diff(context.Background(), "", "x\ny\n", "f", "f")
	require.NoError(t, err)
	d, err := diff.Parse(out, "")
	require.NoError(t, err)
	require.Len(t, d.Hunks, 1)
	assert.Equal(t, "@@ -0,0 +1,2 @@", d.Hunks[0].Header())
}

func TestBuiltin_PureDeletionAnchorsOnPrecedingLine(t *testing.T) {
	out, err := (&Builtin{Context: 0}).Diff(context.Background(), "a\nb\nc\n", "a\nc\n", "f", "f")
	require.NoError(t, err)
	d, err := diff.Parse(out, "")
	require.NoError(t, err)
	require.Len(t, d.Hunks, 1)
	assert.Equal(t, "@@ -2,1 +1,0 @@", d.Hunks[0].Header())
}

func TestBuiltin_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuiltin().Diff(ctx, "a", "b", "x", "y")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuiltin_DrivesPipeline(t *testing.T) {
	utilsOld := "def calculate_total(items):\n    total = 0\n    for item in items:\n        total += item.price\n    return total\n"
	helpersNew := "def calculate_total(items):\n    total = 0  # init\n    for item in items:\n        total += item.price\n    return total\n"
	raw := `diff --git a/utils.py b/utils.py
--- a/utils.py
+++ b/utils.py
@@ -1,5 +0,0 @@
-def calculate_total(items):
-    total = 0
-    for item in items:
-        total += item.price
-    return total
diff --git a/helpers.py b/helpers.py
new file mode 100644
--- /dev/null
+++ b/helpers.py
@@ -0,0 +1,5 @@
+def calculate_total(items):
+    total = 0  # init
+    for item in items:
+        total += item.price
+    return total
`
	d, err := diff.Parse(raw, "")
	require.NoError(t, err)

	p, err := effectivediff.NewPipeline(NewBuiltin(), effectivediff.DefaultOptions(), zerolog.Nop())
	require.NoError(t, err)
	res, err := p.Run(context.Background(), d,
		map[string]string{"utils.py": utilsOld}, map[string]string{"helpers.py": helpersNew})
	require.NoError(t, err)

	target := res.EffectiveDiff.HunksForFile("helpers.py")
	require.Len(t, target, 1)
	assert.Equal(t, []string{"@@ -0,0 +2,1 @@", "+    total = 0  # init"}, target[0].Body)
	assert.Equal(t, 2, res.MoveReport.TotalLinesEffectivelyChanged)
}

func TestNew(t *testing.T) {
	d, err := New("")
	require.NoError(t, err)
	assert.IsType(t, &Builtin{}, d)

	d, err = New(NameGit)
	require.NoError(t, err)
	assert.IsType(t, &Git{}, d)

	_, err = New("svn")
	assert.Error(t, err)
}
