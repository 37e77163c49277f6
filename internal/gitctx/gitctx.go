package gitctx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// EmptyTree is the hash of git's empty tree, used as the old side of an
// initial commit.
const EmptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// IndexRev addresses the staging area in `git show :<path>`.
const IndexRev = ":"

// DiffOptions controls how diffs are gathered.
type DiffOptions struct {
	Dir          string // repository directory; empty means the working directory
	ContextLines int
	MaxDiffBytes int
	Include      []string
	Exclude      []string
}

// Side names one version of the repository's files.
type Side struct {
	Rev      string `json:"rev,omitempty"`
	Worktree bool   `json:"worktree,omitempty"`
}

// RevSide returns the side for a commit-ish.
func RevSide(rev string) Side { return Side{Rev: rev} }

var (
	IndexSide    = Side{Rev: IndexRev}
	WorktreeSide = Side{Worktree: true}
)

func (s Side) String() string {
	switch {
	case s.Worktree:
		return "worktree"
	case s.Rev == IndexRev:
		return "index"
	default:
		return s.Rev
	}
}

// DiffResult holds the collected diff and metadata.
type DiffResult struct {
	Diff      string
	Files     []string
	Mode      string
	Range     string
	Old       Side
	New       Side
	Commit    string // resolved hash of the new side, when it is a commit
	Truncated bool
	Dir       string
	Repo      RepoMeta
}

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// GetRepoMeta collects repository metadata from git.
func GetRepoMeta(ctx context.Context, dir string) (RepoMeta, error) {
	root, err := gitOutput(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	head, err := gitOutput(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		head = "" // new repo with no commits
	}
	branch, err := gitOutput(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// Unstaged returns the diff of working tree vs index.
func Unstaged(ctx context.Context, opts DiffOptions) (DiffResult, error) {
	diff, err := gitOutput(ctx, opts.Dir, diffCommand(opts)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff: %w", err)
	}
	return buildResult(ctx, diff, "unstaged", "", IndexSide, WorktreeSide, opts)
}

// Staged returns the diff of index vs HEAD.
func Staged(ctx context.Context, opts DiffOptions) (DiffResult, error) {
	base := "HEAD"
	if _, err := ResolveRev(ctx, opts.Dir, "HEAD"); err != nil {
		base = EmptyTree // nothing committed yet
	}
	diff, err := gitOutput(ctx, opts.Dir, diffCommand(opts, "--cached", base)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff --cached: %w", err)
	}
	return buildResult(ctx, diff, "staged", "", RevSide(base), IndexSide, opts)
}

// Commit returns the diff for a specific commit vs its parent. An empty parent
// means the first parent, or the empty tree for a root commit.
func Commit(ctx context.Context, sha, parent string, opts DiffOptions) (DiffResult, error) {
	if parent == "" {
		parent = sha + "~1"
		if _, err := ResolveRev(ctx, opts.Dir, parent); err != nil {
			parent = EmptyTree
		}
	}
	diff, err := gitOutput(ctx, opts.Dir, diffCommand(opts, parent, sha)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff %s %s: %w", parent, sha, err)
	}
	return buildResult(ctx, diff, "commit", sha, RevSide(parent), RevSide(sha), opts)
}

// Range returns the combined diff for a revision range. "A..B" compares A with
// B, "A...B" compares the merge base with B, and a single revision compares it
// with the working tree. With mergeBase set, ".." is treated as "...".
func Range(ctx context.Context, revRange string, mergeBase bool, opts DiffOptions) (DiffResult, error) {
	if mergeBase && strings.Contains(revRange, "..") && !strings.Contains(revRange, "...") {
		revRange = strings.Replace(revRange, "..", "...", 1)
	}
	oldSide, newSide, err := rangeSides(ctx, opts.Dir, revRange)
	if err != nil {
		return DiffResult{}, err
	}
	args := []string{oldSide.Rev}
	if !newSide.Worktree {
		args = append(args, newSide.Rev)
	}
	diff, err := gitOutput(ctx, opts.Dir, diffCommand(opts, args...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff %s: %w", revRange, err)
	}
	return buildResult(ctx, diff, "range", revRange, oldSide, newSide, opts)
}

// File returns the diff of the given paths between HEAD and the working tree.
func File(ctx context.Context, paths []string, opts DiffOptions) (DiffResult, error) {
	if len(paths) == 0 {
		return DiffResult{}, errors.New("no file paths given")
	}
	opts.Include = paths
	diff, err := gitOutput(ctx, opts.Dir, diffCommand(opts, "HEAD")...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff HEAD: %w", err)
	}
	return buildResult(ctx, diff, "file", strings.Join(paths, " "), RevSide("HEAD"), WorktreeSide, opts)
}

// ResolveRev returns the full hash of a commit-ish.
func ResolveRev(ctx context.Context, dir, rev string) (string, error) {
	out, err := gitOutput(ctx, dir, "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("unknown revision %s: %w", rev, err)
	}
	return strings.TrimSpace(out), nil
}

func rangeSides(ctx context.Context, dir, revRange string) (Side, Side, error) {
	if left, right, ok := strings.Cut(revRange, "..."); ok {
		left, right = orHead(left), orHead(right)
		base, err := gitOutput(ctx, dir, "merge-base", left, right)
		if err != nil {
			return Side{}, Side{}, fmt.Errorf("git merge-base %s %s: %w", left, right, err)
		}
		return RevSide(strings.TrimSpace(base)), RevSide(right), nil
	}
	if left, right, ok := strings.Cut(revRange, ".."); ok {
		return RevSide(orHead(left)), RevSide(orHead(right)), nil
	}
	if revRange == "" {
		return Side{}, Side{}, errors.New("empty revision range")
	}
	return RevSide(revRange), WorktreeSide, nil
}

func orHead(rev string) string {
	if rev == "" {
		return "HEAD"
	}
	return rev
}

func diffCommand(opts DiffOptions, revs ...string) []string {
	args := append([]string{"diff", "--no-color", "--no-ext-diff", "-M"}, revs...)
	return append(args, buildDiffArgs(opts)...)
}

func buildDiffArgs(opts DiffOptions) []string {
	var args []string
	if opts.ContextLines > 0 {
		args = append(args, fmt.Sprintf("-U%d", opts.ContextLines))
	}
	args = append(args, "--")
	for _, p := range opts.Include {
		if p != "**/*" {
			args = append(args, p)
		}
	}
	return args
}

func buildResult(ctx context.Context, diff, mode, rangeStr string, oldSide, newSide Side, opts DiffOptions) (DiffResult, error) {
	meta, err := GetRepoMeta(ctx, opts.Dir)
	if err != nil {
		meta = RepoMeta{}
	}

	// Filter excludes before truncating so excluded files don't consume the byte budget
	if len(opts.Exclude) > 0 {
		diff = filterExcluded(diff, opts.Exclude)
	}

	var truncated bool
	if opts.MaxDiffBytes > 0 && len(diff) > opts.MaxDiffBytes {
		diff = truncateSections(diff, opts.MaxDiffBytes)
		truncated = true
	}

	res := DiffResult{
		Diff:      diff,
		Files:     extractFiles(diff),
		Mode:      mode,
		Range:     rangeStr,
		Old:       oldSide,
		New:       newSide,
		Truncated: truncated,
		Dir:       opts.Dir,
		Repo:      meta,
	}
	if !newSide.Worktree && newSide.Rev != IndexRev {
		if sha, err := ResolveRev(ctx, opts.Dir, newSide.Rev); err == nil {
			res.Commit = sha
		}
	}
	return res, nil
}

// truncateSections keeps whole file sections while they fit in max bytes.
func truncateSections(diff string, max int) string {
	var b strings.Builder
	for _, section := range splitDiffSections(diff) {
		if b.Len()+len(section) > max {
			break
		}
		b.WriteString(section)
	}
	return b.String()
}

func extractFiles(diff string) []string {
	var files []string
	seen := make(map[string]bool)
	for _, section := range splitDiffSections(diff) {
		f := extractPathFromSection(section)
		if f != "" && !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	return files
}

func filterExcluded(diff string, excludes []string) string {
	sections := splitDiffSections(diff)
	var kept []string
	for _, section := range sections {
		path := extractPathFromSection(section)
		if path == "" || !MatchesAny(path, excludes) {
			kept = append(kept, section)
		}
	}
	return strings.Join(kept, "")
}

func splitDiffSections(diff string) []string {
	if diff == "" {
		return nil
	}
	var sections []string
	var current strings.Builder
	for _, line := range strings.SplitAfter(diff, "\n") {
		if strings.HasPrefix(line, "diff --git") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

// extractPathFromSection returns the new path of a section, or the old path
// for a deletion.
func extractPathFromSection(section string) string {
	var oldPath string
	for _, line := range strings.Split(section, "\n") {
		switch {
		case strings.HasPrefix(line, "+++ b/"):
			return strings.TrimPrefix(line, "+++ b/")
		case strings.HasPrefix(line, "rename to "):
			return strings.TrimPrefix(line, "rename to ")
		case strings.HasPrefix(line, "--- a/"):
			oldPath = strings.TrimPrefix(line, "--- a/")
		}
	}
	return oldPath
}

// MatchesAny returns true if the path matches any of the given glob patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok && !strings.HasPrefix(dir, "**") {
			if path == dir || strings.HasPrefix(path, dir+"/") {
				return true
			}
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
			if dir, ok := strings.CutSuffix(clean, "/**"); ok {
				if strings.HasPrefix(path, dir+"/") || strings.Contains(path, "/"+dir+"/") {
					return true
				}
			}
		}
	}
	return false
}

// Contents reads the old and new text of the given paths from the two sides
// of the diff. Paths missing on a side are left out of that side's map.
func (r DiffResult) Contents(ctx context.Context, oldPaths, newPaths []string) (map[string]string, map[string]string, error) {
	oldFiles, err := ReadFiles(ctx, r.Dir, r.Old, oldPaths)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s files: %w", r.Old, err)
	}
	newFiles, err := ReadFiles(ctx, r.Dir, r.New, newPaths)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s files: %w", r.New, err)
	}
	return oldFiles, newFiles, nil
}

// ReadFiles returns the content of each path at side. Paths are relative to
// the repository root.
func ReadFiles(ctx context.Context, dir string, side Side, paths []string) (map[string]string, error) {
	files := make(map[string]string, len(paths))
	if len(paths) == 0 {
		return files, nil
	}
	if side.Worktree {
		root, err := gitOutput(ctx, dir, "rev-parse", "--show-toplevel")
		if err != nil {
			return nil, fmt.Errorf("not a git repository: %w", err)
		}
		root = strings.TrimSpace(root)
		for _, p := range paths {
			data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(p)))
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				return nil, err
			}
			files[p] = string(data)
		}
		return files, nil
	}
	for _, p := range paths {
		obj := blobName(side.Rev, p)
		if _, err := gitOutput(ctx, dir, "cat-file", "-e", obj); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		content, err := gitOutput(ctx, dir, "show", obj)
		if err != nil {
			return nil, fmt.Errorf("git show %s: %w", obj, err)
		}
		files[p] = content
	}
	return files, nil
}

func blobName(rev, path string) string {
	if rev == IndexRev {
		return ":" + path
	}
	return rev + ":" + path
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
