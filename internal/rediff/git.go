package rediff

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Git re-diffs with git diff --no-index on temporary files and relabels the
// temporary paths in its output.
type Git struct {
	// Binary is the git executable; "git" when empty.
	Binary string
}

// NewGit returns a Git differ using the git found on PATH.
func NewGit() *Git {
	return &Git{Binary: "git"}
}

// Diff writes both texts to a temporary directory, runs git diff --no-index
// on them and returns the output with oldLabel and newLabel as the paths. An
// empty result means the texts are identical.
func (g *Git) Diff(ctx context.Context, oldText, newText, oldLabel, newLabel string) (string, error) {
	dir, err := os.MkdirTemp("", "prradar-rediff-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	oldPath := filepath.Join(dir, "old.txt")
	newPath := filepath.Join(dir, "new.txt")
	if err := os.WriteFile(oldPath, []byte(oldText), 0o600); err != nil {
		return "", fmt.Errorf("write old region: %w", err)
	}
	if err := os.WriteFile(newPath, []byte(newText), 0o600); err != nil {
		return "", fmt.Errorf("write new region: %w", err)
	}

	bin := g.Binary
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, "diff", "--no-index", "--no-color", oldPath, newPath)
	out, err := cmd.Output()
	if err != nil {
		// Exit status 1 means the files differ.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
			if exitErr != nil {
				return "", fmt.Errorf("git diff --no-index: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
			}
			return "", fmt.Errorf("git diff --no-index: %w", err)
		}
	}
	return relabel(string(out), oldPath, newPath, oldLabel, newLabel), nil
}

// relabel swaps the temporary paths git printed for the real labels. git drops
// the leading slash of absolute paths after the a/ and b/ prefixes.
func relabel(raw, oldPath, newPath, oldLabel, newLabel string) string {
	if raw == "" {
		return ""
	}
	oldRel := strings.TrimPrefix(filepath.ToSlash(oldPath), "/")
	newRel := strings.TrimPrefix(filepath.ToSlash(newPath), "/")
	raw = strings.ReplaceAll(raw, "a/"+oldRel, "a/"+oldLabel)
	raw = strings.ReplaceAll(raw, "b/"+newRel, "b/"+newLabel)
	return raw
}
