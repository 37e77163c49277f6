package diff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)$`)

// ParseError reports a malformed diff header or hunk. Text holds the offending
// raw line and Line its 1-based position in the input.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse diff: line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// fileState tracks the file section currently being read.
type fileState struct {
	header     []string
	path       string
	oldPath    string
	renameFrom string
	hunks      int
}

type parser struct {
	lines []string
	hunks []Hunk

	file    *fileState
	cur     *Hunk
	oldLeft int
	newLeft int
}

// Parse parses unified diff text into a GitDiff. The commitHash is carried
// through unchanged. An empty input yields an empty diff.
func Parse(text, commitHash string) (GitDiff, error) {
	p := &parser{lines: strings.Split(text, "\n")}
	if err := p.run(); err != nil {
		return GitDiff{}, err
	}
	return GitDiff{Raw: text, Hunks: p.hunks, CommitHash: commitHash}, nil
}

// ParseHunks is a convenience wrapper returning only the hunks.
func ParseHunks(text string) ([]Hunk, error) {
	d, err := Parse(text, "")
	if err != nil {
		return nil, err
	}
	return d.Hunks, nil
}

func (p *parser) run() error {
	for i := 0; i < len(p.lines); i++ {
		line := p.lines[i]
		lineNo := i + 1

		if strings.HasPrefix(line, "diff --git ") {
			p.finishFile()
			if err := p.startGitFile(line, lineNo); err != nil {
				return err
			}
			continue
		}

		if p.cur != nil && (p.oldLeft > 0 || p.newLeft > 0) {
			if strings.HasPrefix(line, "@@") {
				// Truncated hunk; the next header takes over.
				if err := p.startHunk(line, lineNo); err != nil {
					return err
				}
				continue
			}
			if err := p.consumeBody(line, lineNo); err != nil {
				return err
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, `\`):
			if p.cur != nil {
				p.cur.Body = append(p.cur.Body, line)
			}
		case strings.HasPrefix(line, "@@"):
			if p.file == nil {
				return &ParseError{Line: lineNo, Text: line, Reason: "hunk header outside a file section"}
			}
			if err := p.startHunk(line, lineNo); err != nil {
				return err
			}
		case strings.HasPrefix(line, "--- ") && i+1 < len(p.lines) && strings.HasPrefix(p.lines[i+1], "+++ ") &&
			(p.file == nil || p.cur != nil):
			// Plain unified diff without a diff --git line.
			p.finishFile()
			p.file = &fileState{}
			p.headerLine(line)
		case line == "":
		case p.cur != nil:
			if line[0] == '+' || line[0] == '-' || line[0] == ' ' {
				return &ParseError{Line: lineNo, Text: line, Reason: "hunk body exceeds header line counts"}
			}
			return &ParseError{Line: lineNo, Text: line, Reason: "unexpected line after hunk"}
		case p.file != nil:
			p.headerLine(line)
		}
	}
	p.finishFile()
	return nil
}

func (p *parser) startGitFile(line string, lineNo int) error {
	a, b, ok := splitGitHeaderPaths(strings.TrimPrefix(line, "diff --git "))
	if !ok {
		return &ParseError{Line: lineNo, Text: line, Reason: "malformed diff --git header"}
	}
	p.file = &fileState{header: []string{line}, path: b, oldPath: a}
	return nil
}

func (p *parser) headerLine(line string) {
	f := p.file
	f.header = append(f.header, line)
	switch {
	case strings.HasPrefix(line, "rename from "):
		f.renameFrom = strings.TrimPrefix(line, "rename from ")
	case strings.HasPrefix(line, "rename to "):
		f.path = strings.TrimPrefix(line, "rename to ")
	case strings.HasPrefix(line, "--- "):
		if name := headerFileName(line[4:]); name != "/dev/null" {
			f.oldPath = name
		}
	case strings.HasPrefix(line, "+++ "):
		name := headerFileName(line[4:])
		if name == "/dev/null" {
			f.path = f.oldPath
		} else {
			f.path = name
		}
	}
}

func (p *parser) startHunk(line string, lineNo int) error {
	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return &ParseError{Line: lineNo, Text: line, Reason: "malformed hunk header"}
	}
	oldStart, oldLen, newStart, newLen, err := hunkNumbers(m)
	if err != nil {
		return &ParseError{Line: lineNo, Text: line, Reason: err.Error()}
	}
	p.finishHunk()

	header := make([]string, len(p.file.header))
	copy(header, p.file.header)
	p.cur = &Hunk{
		FilePath:   p.file.path,
		RenameFrom: p.file.renameFrom,
		OldStart:   oldStart,
		OldLength:  oldLen,
		NewStart:   newStart,
		NewLength:  newLen,
		FileHeader: header,
		Body:       []string{line},
	}
	p.oldLeft = oldLen
	p.newLeft = newLen
	return nil
}

func (p *parser) consumeBody(line string, lineNo int) error {
	if line == "" {
		// Some tools strip the leading space of blank context lines.
		line = " "
	}
	switch line[0] {
	case '-':
		if p.oldLeft == 0 {
			return &ParseError{Line: lineNo, Text: line, Reason: "hunk body exceeds header line counts"}
		}
		p.oldLeft--
	case '+':
		if p.newLeft == 0 {
			return &ParseError{Line: lineNo, Text: line, Reason: "hunk body exceeds header line counts"}
		}
		p.newLeft--
	case ' ':
		if p.oldLeft == 0 || p.newLeft == 0 {
			return &ParseError{Line: lineNo, Text: line, Reason: "hunk body exceeds header line counts"}
		}
		p.oldLeft--
		p.newLeft--
	case '\\':
	default:
		return &ParseError{Line: lineNo, Text: line, Reason: "unexpected line in hunk body"}
	}
	p.cur.Body = append(p.cur.Body, line)
	return nil
}

func (p *parser) finishHunk() {
	if p.cur == nil {
		return
	}
	p.hunks = append(p.hunks, *p.cur)
	p.file.hunks++
	p.cur = nil
	p.oldLeft, p.newLeft = 0, 0
}

func (p *parser) finishFile() {
	p.finishHunk()
	f := p.file
	p.file = nil
	if f == nil || f.hunks > 0 || f.renameFrom == "" {
		return
	}
	// Pure rename: no content change, represented as a zero-length hunk.
	p.hunks = append(p.hunks, Hunk{
		FilePath:   f.path,
		RenameFrom: f.renameFrom,
		FileHeader: f.header,
	})
}

func hunkNumbers(m []string) (oldStart, oldLen, newStart, newLen int, err error) {
	if oldStart, err = strconv.Atoi(m[1]); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid old start: %w", err)
	}
	oldLen = 1
	if m[2] != "" {
		if oldLen, err = strconv.Atoi(m[2]); err != nil {
			return 0, 0, 0, 0, fmt.Errorf("invalid old length: %w", err)
		}
	}
	if newStart, err = strconv.Atoi(m[3]); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid new start: %w", err)
	}
	newLen = 1
	if m[4] != "" {
		if newLen, err = strconv.Atoi(m[4]); err != nil {
			return 0, 0, 0, 0, fmt.Errorf("invalid new length: %w", err)
		}
	}
	return oldStart, oldLen, newStart, newLen, nil
}

// splitGitHeaderPaths splits the "a/<old> b/<new>" part of a diff --git line.
func splitGitHeaderPaths(s string) (string, string, bool) {
	if strings.HasPrefix(s, `"`) {
		end := strings.Index(s[1:], `"`)
		if end < 0 {
			return "", "", false
		}
		a := s[1 : end+1]
		b := strings.Trim(strings.TrimSpace(s[end+2:]), `"`)
		if !strings.HasPrefix(a, "a/") || !strings.HasPrefix(b, "b/") {
			return "", "", false
		}
		return a[2:], b[2:], true
	}
	if !strings.HasPrefix(s, "a/") {
		return "", "", false
	}
	// Same path on both sides is by far the common case: split in the middle.
	if len(s)%2 == 1 {
		mid := len(s) / 2
		a, b := s[:mid], s[mid+1:]
		if strings.HasPrefix(b, "b/") && a[2:] == b[2:] {
			return a[2:], b[2:], true
		}
	}
	idx := strings.Index(s, " b/")
	if idx < 0 {
		idx = strings.Index(s, ` "b/`)
		if idx < 0 {
			return "", "", false
		}
		return s[2:idx], strings.Trim(s[idx+1:], `"`)[2:], true
	}
	return s[2:idx], s[idx+3:], true
}

// headerFileName strips the a/ or b/ prefix, quotes and timestamps from a
// --- or +++ value.
func headerFileName(s string) string {
	if tab := strings.IndexByte(s, '\t'); tab >= 0 {
		s = s[:tab]
	}
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if s == "/dev/null" {
		return s
	}
	if strings.HasPrefix(s, "a/") || strings.HasPrefix(s, "b/") {
		return s[2:]
	}
	return s
}
