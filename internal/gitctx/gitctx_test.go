package gitctx

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractFiles(t *testing.T) {
	diff := `diff --git a/main.go b/main.go
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
+import "fmt"
diff --git a/util.go b/util.go
--- a/util.go
+++ b/util.go
@@ -5,3 +5,4 @@
+func helper() {}
`
	files := extractFiles(diff)
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	if files[0] != "main.go" {
		t.Errorf("files[0] = %q, want %q", files[0], "main.go")
	}
	if files[1] != "util.go" {
		t.Errorf("files[1] = %q, want %q", files[1], "util.go")
	}
}

func TestExtractFiles_DeletedAndRenamed(t *testing.T) {
	diff := `diff --git a/gone.go b/gone.go
deleted file mode 100644
--- a/gone.go
+++ /dev/null
@@ -1 +0,0 @@
-package gone
diff --git a/old.go b/new.go
similarity index 100%
rename from old.go
rename to new.go
`
	files := extractFiles(diff)
	want := []string{"gone.go", "new.go"}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("files = %v, want %v", files, want)
	}
}

func TestExtractFiles_Empty(t *testing.T) {
	files := extractFiles("")
	if len(files) != 0 {
		t.Errorf("got %d files from empty diff, want 0", len(files))
	}
}

func TestFilterExcluded(t *testing.T) {
	diff := `diff --git a/main.go b/main.go
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
+import "fmt"
diff --git a/vendor/lib.go b/vendor/lib.go
--- a/vendor/lib.go
+++ b/vendor/lib.go
@@ -1,3 +1,4 @@
+package lib
`
	result := filterExcluded(diff, []string{"vendor/**"})
	if strings.Contains(result, "vendor/lib.go") {
		t.Error("vendor/lib.go should be excluded")
	}
	if !strings.Contains(result, "main.go") {
		t.Error("main.go should be kept")
	}
	if !strings.HasSuffix(result, "+import \"fmt\"\n") {
		t.Errorf("kept section should be byte-identical, got %q", result)
	}
}

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"vendor/lib.go", []string{"vendor/**"}, true},
		{"vendor/github.com/x/lib.go", []string{"vendor/**"}, true},
		{"main.go", []string{"vendor/**"}, false},
		{"vendorish/main.go", []string{"vendor/**"}, false},
		{"foo.gen.go", []string{"**/*.gen.go"}, true},
		{"pkg/foo.gen.go", []string{"**/*.gen.go"}, true},
		{"dist/bundle.js", []string{"**/dist/**"}, true},
		{"web/dist/js/bundle.js", []string{"**/dist/**"}, true},
		{"main.go", []string{"*.go"}, true},
		{"main.go", nil, false},
		{"main.go", []string{}, false},
	}
	for _, tt := range tests {
		got := MatchesAny(tt.path, tt.patterns)
		if got != tt.want {
			t.Errorf("MatchesAny(%q, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
		}
	}
}

func TestSplitDiffSections(t *testing.T) {
	diff := `diff --git a/a.go b/a.go
--- a/a.go
+++ b/a.go
@@ -1,3 +1,4 @@
+line1
diff --git a/b.go b/b.go
--- a/b.go
+++ b/b.go
@@ -1,3 +1,4 @@
+line2
`
	sections := splitDiffSections(diff)
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	if !strings.Contains(sections[0], "a.go") {
		t.Error("section 0 should contain a.go")
	}
	if !strings.Contains(sections[1], "b.go") {
		t.Error("section 1 should contain b.go")
	}
	if strings.Join(sections, "") != diff {
		t.Error("sections should concatenate back to the input")
	}
}

func TestTruncateSections(t *testing.T) {
	small := "diff --git a/main.go b/main.go\n--- a/main.go\n+++ b/main.go\n@@ -1 +1 @@\n+ok\n"
	large := "diff --git a/big.go b/big.go\n--- a/big.go\n+++ b/big.go\n@@ -1 +1 @@\n+" + strings.Repeat("x", 500) + "\n"

	got := truncateSections(small+large, len(small)+10)
	if got != small {
		t.Errorf("truncateSections kept %q, want only the first section", got)
	}
	if got := truncateSections(large+small, 100); got != "" {
		t.Errorf("truncateSections should stop at the first oversized section, got %q", got)
	}
}

func TestBuildDiffArgs(t *testing.T) {
	opts := DiffOptions{
		ContextLines: 5,
		Include:      []string{"*.go"},
	}
	args := buildDiffArgs(opts)
	if args[0] != "-U5" {
		t.Errorf("args[0] = %q, want %q", args[0], "-U5")
	}
	found := false
	for _, a := range args {
		if a == "--" {
			found = true
		}
	}
	if !found {
		t.Error("args should contain -- separator")
	}
	if args[len(args)-1] != "*.go" {
		t.Errorf("last arg = %q, want %q", args[len(args)-1], "*.go")
	}
}

func TestBuildDiffArgs_DefaultInclude(t *testing.T) {
	args := buildDiffArgs(DiffOptions{ContextLines: 3, Include: []string{"**/*"}})
	// **/* should NOT be passed to git (it's the default "include all")
	for _, a := range args {
		if a == "**/*" {
			t.Error("**/* should not be passed as a git path filter")
		}
	}
}

func TestBuildDiffArgs_NoContextLines(t *testing.T) {
	args := buildDiffArgs(DiffOptions{Include: []string{"*.go"}})
	for _, a := range args {
		if strings.HasPrefix(a, "-U") {
			t.Error("Should not have -U flag with ContextLines=0")
		}
	}
}

func TestDiffCommand(t *testing.T) {
	got := strings.Join(diffCommand(DiffOptions{ContextLines: 3}, "--cached", "HEAD"), " ")
	want := "diff --no-color --no-ext-diff -M --cached HEAD -U3 --"
	if got != want {
		t.Errorf("diffCommand = %q, want %q", got, want)
	}
}

func TestExtractPathFromSection(t *testing.T) {
	section := "diff --git a/main.go b/main.go\n--- a/main.go\n+++ b/main.go\n@@ -1,3 +1,4 @@\n+import\n"
	if path := extractPathFromSection(section); path != "main.go" {
		t.Errorf("extractPathFromSection = %q, want %q", path, "main.go")
	}
}

func TestExtractPathFromSection_NoPath(t *testing.T) {
	section := "diff --git a/main.go b/main.go\nsome other content\n"
	if path := extractPathFromSection(section); path != "" {
		t.Errorf("extractPathFromSection = %q, want empty", path)
	}
}

func TestRangeSides_NoMergeBase(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		in       string
		old, new Side
	}{
		{"main..feature", RevSide("main"), RevSide("feature")},
		{"main..", RevSide("main"), RevSide("HEAD")},
		{"..feature", RevSide("HEAD"), RevSide("feature")},
		{"v1.2", RevSide("v1.2"), WorktreeSide},
	}
	for _, tt := range tests {
		oldSide, newSide, err := rangeSides(ctx, "", tt.in)
		if err != nil {
			t.Fatalf("rangeSides(%q) error: %v", tt.in, err)
		}
		if oldSide != tt.old || newSide != tt.new {
			t.Errorf("rangeSides(%q) = (%v, %v), want (%v, %v)", tt.in, oldSide, newSide, tt.old, tt.new)
		}
	}
	if _, _, err := rangeSides(ctx, "", ""); err == nil {
		t.Error("rangeSides(\"\") should fail")
	}
}

func TestSideString(t *testing.T) {
	if IndexSide.String() != "index" || WorktreeSide.String() != "worktree" || RevSide("abc").String() != "abc" {
		t.Errorf("unexpected side names: %s %s %s", IndexSide, WorktreeSide, RevSide("abc"))
	}
}

// setupTestRepo creates a temp git repo with some tracked files and returns
// its path along with a helper that runs commands inside it.
func setupTestRepo(t *testing.T) (string, func(args ...string) string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()

	run := func(args ...string) string {
		t.Helper()
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test",
			"GIT_AUTHOR_EMAIL=test@test.com",
			"GIT_COMMITTER_NAME=test",
			"GIT_COMMITTER_EMAIL=test@test.com",
			"GIT_CONFIG_NOSYSTEM=1",
			"HOME="+dir,
		)
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("command %v failed: %v\n%s", args, err, out)
		}
		return strings.TrimSpace(string(out))
	}

	run("git", "init", "-q")
	run("git", "checkout", "-q", "-b", "main")

	writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")
	writeFile(t, dir, "util.go", "package main\n\nfunc helper() {}\n")
	writeFile(t, dir, "vendor/lib.go", "package vendor\n")

	run("git", "add", "-A")
	run("git", "commit", "-q", "-m", "init")

	return dir, run
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestUnstaged_Contents(t *testing.T) {
	dir, _ := setupTestRepo(t)
	ctx := context.Background()
	writeFile(t, dir, "main.go", "package main\n\nfunc main() { run() }\n")

	res, err := Unstaged(ctx, DiffOptions{Dir: dir, ContextLines: 3})
	if err != nil {
		t.Fatalf("Unstaged error: %v", err)
	}
	if res.Mode != "unstaged" || res.Old != IndexSide || res.New != WorktreeSide {
		t.Errorf("unexpected result metadata: %+v", res)
	}
	if len(res.Files) != 1 || res.Files[0] != "main.go" {
		t.Errorf("Files = %v, want [main.go]", res.Files)
	}
	if res.Commit != "" {
		t.Errorf("Commit = %q, want empty for worktree side", res.Commit)
	}

	oldFiles, newFiles, err := res.Contents(ctx, res.Files, res.Files)
	if err != nil {
		t.Fatalf("Contents error: %v", err)
	}
	if oldFiles["main.go"] != "package main\n\nfunc main() {}\n" {
		t.Errorf("old main.go = %q", oldFiles["main.go"])
	}
	if newFiles["main.go"] != "package main\n\nfunc main() { run() }\n" {
		t.Errorf("new main.go = %q", newFiles["main.go"])
	}
}

func TestStaged_ExcludeFiltersVendor(t *testing.T) {
	dir, run := setupTestRepo(t)
	ctx := context.Background()
	writeFile(t, dir, "util.go", "package main\n\nfunc helper() int { return 1 }\n")
	writeFile(t, dir, "vendor/lib.go", "package vendor\n\nvar X = 1\n")
	run("git", "add", "-A")

	res, err := Staged(ctx, DiffOptions{Dir: dir, Exclude: []string{"vendor/**"}})
	if err != nil {
		t.Fatalf("Staged error: %v", err)
	}
	if res.Old != RevSide("HEAD") || res.New != IndexSide {
		t.Errorf("sides = (%v, %v), want (HEAD, index)", res.Old, res.New)
	}
	if len(res.Files) != 1 || res.Files[0] != "util.go" {
		t.Errorf("Files = %v, want [util.go]", res.Files)
	}
	if strings.Contains(res.Diff, "vendor/lib.go") {
		t.Error("vendor diff should be excluded")
	}

	_, newFiles, err := res.Contents(ctx, nil, []string{"util.go"})
	if err != nil {
		t.Fatalf("Contents error: %v", err)
	}
	if !strings.Contains(newFiles["util.go"], "return 1") {
		t.Errorf("index content = %q", newFiles["util.go"])
	}
}

func TestCommit_RootAndChild(t *testing.T) {
	dir, run := setupTestRepo(t)
	ctx := context.Background()
	root := run("git", "rev-parse", "HEAD")

	res, err := Commit(ctx, root, "", DiffOptions{Dir: dir})
	if err != nil {
		t.Fatalf("Commit(root) error: %v", err)
	}
	if res.Old != RevSide(EmptyTree) {
		t.Errorf("root commit old side = %v, want empty tree", res.Old)
	}
	if len(res.Files) != 3 {
		t.Errorf("root commit Files = %v, want 3 files", res.Files)
	}
	if res.Commit != root {
		t.Errorf("Commit = %q, want %q", res.Commit, root)
	}

	writeFile(t, dir, "added.go", "package main\n")
	run("git", "add", "added.go")
	run("git", "commit", "-q", "-m", "add")
	head := run("git", "rev-parse", "HEAD")

	res, err = Commit(ctx, head, "", DiffOptions{Dir: dir})
	if err != nil {
		t.Fatalf("Commit(head) error: %v", err)
	}
	if len(res.Files) != 1 || res.Files[0] != "added.go" {
		t.Errorf("Files = %v, want [added.go]", res.Files)
	}
	oldFiles, newFiles, err := res.Contents(ctx, res.Files, res.Files)
	if err != nil {
		t.Fatalf("Contents error: %v", err)
	}
	if _, ok := oldFiles["added.go"]; ok {
		t.Error("added file should be absent on the old side")
	}
	if newFiles["added.go"] != "package main\n" {
		t.Errorf("new added.go = %q", newFiles["added.go"])
	}
}

func TestRange_AndMergeBase(t *testing.T) {
	dir, run := setupTestRepo(t)
	ctx := context.Background()
	base := run("git", "rev-parse", "HEAD")

	run("git", "checkout", "-q", "-b", "feature")
	writeFile(t, dir, "feature.go", "package main\n")
	run("git", "add", "-A")
	run("git", "commit", "-q", "-m", "feature")

	run("git", "checkout", "-q", "main")
	writeFile(t, dir, "mainline.go", "package main\n")
	run("git", "add", "-A")
	run("git", "commit", "-q", "-m", "mainline")

	res, err := Range(ctx, "main..feature", true, DiffOptions{Dir: dir})
	if err != nil {
		t.Fatalf("Range error: %v", err)
	}
	if res.Range != "main...feature" {
		t.Errorf("Range = %q, want main...feature", res.Range)
	}
	if res.Old != RevSide(base) {
		t.Errorf("old side = %v, want merge base %s", res.Old, base)
	}
	if len(res.Files) != 1 || res.Files[0] != "feature.go" {
		t.Errorf("Files = %v, want [feature.go]", res.Files)
	}

	res, err = Range(ctx, "main..feature", false, DiffOptions{Dir: dir})
	if err != nil {
		t.Fatalf("Range error: %v", err)
	}
	if len(res.Files) != 2 {
		t.Errorf("two-dot Files = %v, want feature.go and mainline.go", res.Files)
	}
}

func TestFile(t *testing.T) {
	dir, _ := setupTestRepo(t)
	ctx := context.Background()
	writeFile(t, dir, "main.go", "package main\n\nfunc main() { println() }\n")
	writeFile(t, dir, "util.go", "package main\n")

	res, err := File(ctx, []string{"main.go"}, DiffOptions{Dir: dir})
	if err != nil {
		t.Fatalf("File error: %v", err)
	}
	if len(res.Files) != 1 || res.Files[0] != "main.go" {
		t.Errorf("Files = %v, want [main.go]", res.Files)
	}
	if res.Old != RevSide("HEAD") || res.New != WorktreeSide {
		t.Errorf("sides = (%v, %v)", res.Old, res.New)
	}

	if _, err := File(ctx, nil, DiffOptions{Dir: dir}); err == nil {
		t.Error("File with no paths should fail")
	}
}

func TestReadFiles_MissingPathSkipped(t *testing.T) {
	dir, _ := setupTestRepo(t)
	ctx := context.Background()

	files, err := ReadFiles(ctx, dir, RevSide("HEAD"), []string{"main.go", "nope.go"})
	if err != nil {
		t.Fatalf("ReadFiles error: %v", err)
	}
	if _, ok := files["nope.go"]; ok {
		t.Error("missing path should be skipped")
	}
	if files["main.go"] != "package main\n\nfunc main() {}\n" {
		t.Errorf("main.go = %q", files["main.go"])
	}

	files, err = ReadFiles(ctx, dir, WorktreeSide, []string{"vendor/lib.go", "nope.go"})
	if err != nil {
		t.Fatalf("ReadFiles(worktree) error: %v", err)
	}
	if len(files) != 1 || files["vendor/lib.go"] != "package vendor\n" {
		t.Errorf("worktree files = %v", files)
	}
}

func TestGetRepoMeta(t *testing.T) {
	dir, _ := setupTestRepo(t)
	meta, err := GetRepoMeta(context.Background(), dir)
	if err != nil {
		t.Fatalf("GetRepoMeta error: %v", err)
	}
	if meta.Branch != "main" {
		t.Errorf("Branch = %q, want main", meta.Branch)
	}
	if len(meta.Head) != 40 {
		t.Errorf("Head = %q, want a 40-char hash", meta.Head)
	}
}
