package rediff

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/prradar/internal/diff"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func TestGit_RelabelsPaths(t *testing.T) {
	requireGit(t)
	out, err := NewGit().Diff(context.Background(), "a\nb\nc\n", "a\nB\nc\n", "src/old.py", "src/new.py")
	require.NoError(t, err)

	assert.Contains(t, out, "a/src/old.py")
	assert.Contains(t, out, "b/src/new.py")
	assert.NotContains(t, out, "prradar-rediff-")

	d, err := diff.Parse(out, "")
	require.NoError(t, err)
	require.Len(t, d.Hunks, 1)
	assert.Equal(t, "src/new.py", d.Hunks[0].FilePath)
	assert.Len(t, d.Hunks[0].ChangedLines(), 2)
}

func TestGit_Identical(t *testing.T) {
	requireGit(t)
	out, err := NewGit().Diff(context.Background(), "same\n", "same\n", "x", "y")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGit_BadBinary(t *testing.T) {
	_, err := (&Git{Binary: "/nonexistent/git"}).Diff(context.Background(), "a\n", "b\n", "x", "y")
	assert.Error(t, err)
}

func TestRelabel(t *testing.T) {
	raw := "diff --git a/tmp/d/old.txt b/tmp/d/new.txt\n--- a/tmp/d/old.txt\n+++ b/tmp/d/new.txt\n"
	got := relabel(raw, "/tmp/d/old.txt", "/tmp/d/new.txt", "x.go", "y.go")
	assert.Equal(t, "diff --git a/x.go b/y.go\n--- a/x.go\n+++ b/y.go\n", got)
	assert.Empty(t, relabel("", "a", "b", "c", "d"))
	assert.False(t, strings.Contains(got, "tmp"))
}
