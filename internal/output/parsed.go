package output

import (
	"fmt"
	"strings"

	"github.com/dshills/prradar/internal/diff"
)

// ParsedDiff is the JSON form of a parsed diff.
type ParsedDiff struct {
	CommitHash string       `json:"commit_hash"`
	Hunks      []ParsedHunk `json:"hunks"`
}

// ParsedHunk is the JSON form of one hunk. Content holds the file header and
// the hunk body.
type ParsedHunk struct {
	FilePath   string `json:"file_path"`
	RenameFrom string `json:"rename_from,omitempty"`
	NewStart   int    `json:"new_start"`
	NewLength  int    `json:"new_length"`
	OldStart   int    `json:"old_start"`
	OldLength  int    `json:"old_length"`
	Content    string `json:"content"`
}

// NewParsedDiff converts d. With annotate set, body lines carry their
// new-file line numbers (see [AnnotateHunk]).
func NewParsedDiff(d diff.GitDiff, annotate bool) ParsedDiff {
	p := ParsedDiff{CommitHash: d.CommitHash, Hunks: make([]ParsedHunk, 0, len(d.Hunks))}
	for _, h := range d.Hunks {
		content := h.Content()
		if annotate {
			content = AnnotateHunk(h)
		}
		renameFrom := ""
		if h.IsRename() {
			renameFrom = h.RenameFrom
		}
		p.Hunks = append(p.Hunks, ParsedHunk{
			FilePath:   h.FilePath,
			RenameFrom: renameFrom,
			NewStart:   h.NewStart,
			NewLength:  h.NewLength,
			OldStart:   h.OldStart,
			OldLength:  h.OldLength,
			Content:    content,
		})
	}
	return p
}

// AnnotateHunk returns the hunk content with each body line prefixed by its
// line number in the new file. Added and context lines get "%4d: ",
// removed lines get "   -: ". Header lines are kept as they are.
func AnnotateHunk(h diff.Hunk) string {
	out := make([]string, 0, len(h.FileHeader)+len(h.Body))
	out = append(out, h.FileHeader...)
	newLine := h.NewStart
	for i, line := range h.Body {
		switch {
		case i == 0:
			out = append(out, line)
		case strings.HasPrefix(line, "-"):
			out = append(out, "   -: "+line)
		case strings.HasPrefix(line, "+"), strings.HasPrefix(line, " "):
			out = append(out, fmt.Sprintf("%4d: %s", newLine, line))
			newLine++
		default:
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// Files returns the distinct file paths in order of first appearance.
func (p ParsedDiff) Files() []string {
	var files []string
	seen := make(map[string]bool)
	for _, h := range p.Hunks {
		if !seen[h.FilePath] {
			seen[h.FilePath] = true
			files = append(files, h.FilePath)
		}
	}
	return files
}
