package effectivediff

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dshills/prradar/internal/diff"
)

const utilsOld = `def calculate_total(items):
    total = 0
    for item in items:
        total += item.price
    return total
`

const helpersPure = utilsOld

const helpersEdited = `def calculate_total(items):
    total = 0  # init
    for item in items:
        total += item.price
    return total
`

const pureMoveDiff = `diff --git a/utils.py b/utils.py
index 1111111..0000000 100644
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
index 0000000..2222222
--- /dev/null
+++ b/helpers.py
@@ -0,0 +1,5 @@
+def calculate_total(items):
+    total = 0
+    for item in items:
+        total += item.price
+    return total
`

const editedMoveDiff = `diff --git a/utils.py b/utils.py
index 1111111..0000000 100644
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
index 0000000..2222222
--- /dev/null
+++ b/helpers.py
@@ -0,0 +1,5 @@
+def calculate_total(items):
+    total = 0  # init
+    for item in items:
+        total += item.price
+    return total
`

// editedRediff is what a differ reports for the regions of the edited move.
const editedRediff = `diff --git a/utils.py b/helpers.py
--- a/utils.py
+++ b/helpers.py
@@ -1,5 +1,5 @@
 def calculate_total(items):
-    total = 0
+    total = 0  # init
     for item in items:
         total += item.price
     return total
`

func mustParse(t *testing.T, text string) diff.GitDiff {
	t.Helper()
	d, err := diff.Parse(text, "deadbeef")
	require.NoError(t, err)
	return d
}

// cannedDiffer returns out for every call.
func cannedDiffer(out string) Differ {
	return DifferFunc(func(context.Context, string, string, string, string) (string, error) {
		return out, nil
	})
}

func newTestPipeline(t *testing.T, differ Differ, mutate func(*Options)) *Pipeline {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	p, err := NewPipeline(differ, opts, zerolog.Nop())
	require.NoError(t, err)
	return p
}

func tagged(file string, line, hunk int, content string) TaggedLine {
	return TaggedLine{Content: content, Normalized: Normalize(content), FilePath: file, LineNumber: line, HunkIndex: hunk}
}

// moveMatch builds a match from src:removedLine to dst:addedLine one hunk apart.
func moveMatch(removedLine, addedLine int, content string) LineMatch {
	return LineMatch{
		Removed:    tagged("src.go", removedLine, 0, content),
		Added:      tagged("dst.go", addedLine, 1, content),
		Distance:   1,
		Similarity: 1,
	}
}
