package diff

import (
	"path"
	"sort"
	"strings"
)

// LineType classifies a single line of a hunk body.
type LineType string

const (
	LineAdded   LineType = "added"
	LineRemoved LineType = "removed"
	LineContext LineType = "context"
)

// Line is one content line of a hunk with its position in the old and new file.
// OldNumber is 0 for added lines; NewNumber is 0 for removed lines.
type Line struct {
	Content   string
	Raw       string
	Type      LineType
	OldNumber int
	NewNumber int
}

// IsChange reports whether the line was added or removed.
func (l Line) IsChange() bool {
	return l.Type == LineAdded || l.Type == LineRemoved
}

// Hunk is one contiguous region of a diff for one file.
//
// FileHeader holds the file-level lines that precede the hunk (diff --git,
// index, rename from/to, ---, +++). Body holds the @@ header followed by the raw
// hunk lines. A pure rename has an empty Body and zero lengths.
type Hunk struct {
	FilePath   string
	RenameFrom string
	OldStart   int
	OldLength  int
	NewStart   int
	NewLength  int
	FileHeader []string
	Body       []string
}

// IsRename reports whether the hunk belongs to a renamed file.
func (h Hunk) IsRename() bool {
	return h.RenameFrom != "" && h.RenameFrom != h.FilePath
}

// OldPath returns the path of the file before the change.
func (h Hunk) OldPath() string {
	if h.RenameFrom != "" {
		return h.RenameFrom
	}
	return h.FilePath
}

// Header returns the @@ line of the hunk, or "" for a pure rename.
func (h Hunk) Header() string {
	if len(h.Body) == 0 {
		return ""
	}
	return h.Body[0]
}

// Content returns the file header and body joined by newlines.
func (h Hunk) Content() string {
	all := make([]string, 0, len(h.FileHeader)+len(h.Body))
	all = append(all, h.FileHeader...)
	all = append(all, h.Body...)
	return strings.Join(all, "\n")
}

// Extension returns the file extension without the leading dot.
func (h Hunk) Extension() string {
	return strings.TrimPrefix(path.Ext(h.FilePath), ".")
}

// Lines returns the removed, added and context lines of the hunk body with
// sequential line numbers starting at OldStart and NewStart. Header lines and
// "\ No newline at end of file" markers are skipped.
func (h Hunk) Lines() []Line {
	if len(h.Body) < 2 {
		return nil
	}
	lines := make([]Line, 0, len(h.Body)-1)
	oldNum := h.OldStart
	newNum := h.NewStart
	for _, raw := range h.Body[1:] {
		if raw == "" {
			continue
		}
		switch raw[0] {
		case '-':
			lines = append(lines, Line{Content: raw[1:], Raw: raw, Type: LineRemoved, OldNumber: oldNum})
			oldNum++
		case '+':
			lines = append(lines, Line{Content: raw[1:], Raw: raw, Type: LineAdded, NewNumber: newNum})
			newNum++
		case ' ':
			lines = append(lines, Line{Content: raw[1:], Raw: raw, Type: LineContext, OldNumber: oldNum, NewNumber: newNum})
			oldNum++
			newNum++
		}
	}
	return lines
}

// AddedLines returns only the added lines.
func (h Hunk) AddedLines() []Line {
	return h.filterLines(func(l Line) bool { return l.Type == LineAdded })
}

// RemovedLines returns only the removed lines.
func (h Hunk) RemovedLines() []Line {
	return h.filterLines(func(l Line) bool { return l.Type == LineRemoved })
}

// ChangedLines returns the added and removed lines in body order.
func (h Hunk) ChangedLines() []Line {
	return h.filterLines(Line.IsChange)
}

// ChangedContent joins the content of the changed lines, for pattern matching
// against actual changes rather than surrounding context.
func (h Hunk) ChangedContent() string {
	changed := h.ChangedLines()
	parts := make([]string, len(changed))
	for i, l := range changed {
		parts[i] = l.Content
	}
	return strings.Join(parts, "\n")
}

func (h Hunk) filterLines(keep func(Line) bool) []Line {
	var out []Line
	for _, l := range h.Lines() {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

// GitDiff is a parsed multi-file diff.
type GitDiff struct {
	Raw        string
	Hunks      []Hunk
	CommitHash string
}

// IsEmpty reports whether the diff has no hunks.
func (d GitDiff) IsEmpty() bool {
	return len(d.Hunks) == 0
}

// Files returns the distinct file paths in order of first appearance.
func (d GitDiff) Files() []string {
	var files []string
	seen := make(map[string]bool)
	for _, h := range d.Hunks {
		if !seen[h.FilePath] {
			seen[h.FilePath] = true
			files = append(files, h.FilePath)
		}
	}
	return files
}

// OldFiles returns the distinct pre-change paths (rename sources included).
func (d GitDiff) OldFiles() []string {
	var files []string
	seen := make(map[string]bool)
	for _, h := range d.Hunks {
		p := h.OldPath()
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	return files
}

// SortedFiles returns the distinct file paths sorted lexically.
func (d GitDiff) SortedFiles() []string {
	files := d.Files()
	sort.Strings(files)
	return files
}

// HunksForFile returns the hunks that touch path.
func (d GitDiff) HunksForFile(path string) []Hunk {
	var out []Hunk
	for _, h := range d.Hunks {
		if h.FilePath == path {
			out = append(out, h)
		}
	}
	return out
}

// HunksByExtension returns hunks whose file extension is in exts.
// A nil exts returns every hunk.
func (d GitDiff) HunksByExtension(exts []string) []Hunk {
	if exts == nil {
		return d.Hunks
	}
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		want[strings.TrimPrefix(e, ".")] = true
	}
	var out []Hunk
	for _, h := range d.Hunks {
		if want[h.Extension()] {
			out = append(out, h)
		}
	}
	return out
}

// LineCount returns the number of non-header lines across all hunks.
func (d GitDiff) LineCount() int {
	n := 0
	for _, h := range d.Hunks {
		n += len(h.Lines())
	}
	return n
}
