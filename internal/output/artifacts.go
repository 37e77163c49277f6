package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/prradar/internal/diff"
	"github.com/dshills/prradar/internal/effectivediff"
)

// Artifact file names.
const (
	DiffRawFile            = "diff-raw.diff"
	DiffParsedJSONFile     = "diff-parsed.json"
	DiffParsedMDFile       = "diff-parsed.md"
	EffectiveDiffJSONFile  = "effective-diff-parsed.json"
	EffectiveDiffMDFile    = "effective-diff-parsed.md"
	EffectiveDiffMovesFile = "effective-diff-moves.json"
)

// Bundle holds everything needed to write the artifacts and the summary of
// one run. It is what the result cache stores.
type Bundle struct {
	RawDiff       string                   `json:"rawDiff"`
	Parsed        ParsedDiff               `json:"parsed"`
	EffectiveDiff ParsedDiff               `json:"effectiveDiff"`
	Moves         effectivediff.MoveReport `json:"moves"`
	Summary       Summary                  `json:"summary"`
}

// Summary counts what the engine found.
type Summary struct {
	Files          int                                  `json:"files"`
	Hunks          int                                  `json:"hunks"`
	EffectiveHunks int                                  `json:"effectiveHunks"`
	MovedHunks     int                                  `json:"movedHunks"`
	Lines          map[effectivediff.Classification]int `json:"lines"`
	PerFile        []FileSummary                        `json:"perFile"`
}

// FileSummary counts classified lines for one file.
type FileSummary struct {
	Path          string `json:"path"`
	New           int    `json:"new"`
	Removed       int    `json:"removed"`
	Moved         int    `json:"moved"`
	MovedRemoval  int    `json:"movedRemoval"`
	ChangedInMove int    `json:"changedInMove"`
}

// NewBundle collects the artifacts for original and its engine result.
func NewBundle(original diff.GitDiff, res *effectivediff.Result) Bundle {
	return Bundle{
		RawDiff:       original.Raw,
		Parsed:        NewParsedDiff(original, true),
		EffectiveDiff: NewParsedDiff(res.EffectiveDiff, true),
		Moves:         res.MoveReport,
		Summary:       Summarize(original, res),
	}
}

// Summarize counts classified lines overall and per file.
func Summarize(original diff.GitDiff, res *effectivediff.Result) Summary {
	s := Summary{
		Files:          len(original.Files()),
		Hunks:          len(original.Hunks),
		EffectiveHunks: len(res.EffectiveDiff.Hunks),
		Lines:          make(map[effectivediff.Classification]int),
	}
	for _, h := range res.ClassifiedHunks {
		if h.IsMoved() {
			s.MovedHunks++
		}
	}
	index := make(map[string]int)
	for _, l := range res.ClassifiedLines {
		s.Lines[l.Classification]++
		if l.Classification == effectivediff.ClassContext {
			continue
		}
		i, ok := index[l.FilePath]
		if !ok {
			i = len(s.PerFile)
			index[l.FilePath] = i
			s.PerFile = append(s.PerFile, FileSummary{Path: l.FilePath})
		}
		f := &s.PerFile[i]
		switch l.Classification {
		case effectivediff.ClassNew:
			f.New++
		case effectivediff.ClassRemoved:
			f.Removed++
		case effectivediff.ClassMoved:
			f.Moved++
		case effectivediff.ClassMovedRemoval:
			f.MovedRemoval++
		case effectivediff.ClassChangedInMove:
			f.ChangedInMove++
		}
	}
	return s
}

// WriteArtifacts writes every artifact of b into dir, creating it if needed,
// and returns the written paths.
func WriteArtifacts(dir string, b Bundle) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{DiffRawFile, func(w io.Writer) error { return writeString(w, b.RawDiff) }},
		{DiffParsedJSONFile, func(w io.Writer) error { return writeJSON(w, b.Parsed) }},
		{DiffParsedMDFile, func(w io.Writer) error { return WriteParsedMarkdown(w, "Parsed Diff", b.Parsed) }},
		{EffectiveDiffJSONFile, func(w io.Writer) error { return writeJSON(w, b.EffectiveDiff) }},
		{EffectiveDiffMDFile, func(w io.Writer) error { return WriteParsedMarkdown(w, "Effective Diff", b.EffectiveDiff) }},
		{EffectiveDiffMovesFile, func(w io.Writer) error { return writeJSON(w, b.Moves) }},
	}
	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := writeFile(path, f.write); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func writeString(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w)
	return err
}

// WriteParsedMarkdown renders a parsed diff for humans: a file list followed
// by each hunk in a fenced diff block.
func WriteParsedMarkdown(w io.Writer, title string, p ParsedDiff) error {
	ew := &errWriter{w: w}
	ew.printf("# %s\n\n", title)
	if p.CommitHash != "" {
		ew.printf("Commit: `%s`\n\n", p.CommitHash)
	}
	if len(p.Hunks) == 0 {
		ew.println("Empty diff (no hunks found)")
		return ew.err
	}
	files := p.Files()
	ew.printf("Files changed: %d | Hunks: %d\n\n", len(files), len(p.Hunks))
	for _, f := range files {
		ew.printf("- `%s`\n", f)
	}
	for i, h := range p.Hunks {
		ew.printf("\n## Hunk %d: `%s`\n\n", i+1, h.FilePath)
		if h.RenameFrom != "" {
			ew.printf("Renamed from `%s`\n\n", h.RenameFrom)
		}
		ew.printf("- Old: %s\n", lineSpan(h.OldStart, h.OldLength))
		ew.printf("- New: %s\n\n", lineSpan(h.NewStart, h.NewLength))
		fence := "```"
		for strings.Contains(h.Content, fence) {
			fence += "`"
		}
		ew.printf("%sdiff\n%s\n%s\n", fence, h.Content, fence)
	}
	return ew.err
}

func lineSpan(start, length int) string {
	switch length {
	case 0:
		return "none"
	case 1:
		return fmt.Sprintf("line %d", start)
	default:
		return fmt.Sprintf("lines %d-%d (%d lines)", start, start+length-1, length)
	}
}
