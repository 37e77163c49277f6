package rediff

import (
	"context"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultContext is the number of unchanged lines around each change.
const DefaultContext = 3

type opKind byte

const (
	opEqual  opKind = ' '
	opDelete opKind = '-'
	opInsert opKind = '+'
)

// lineOp is one line of the diff. oldBefore and newBefore count the old and
// new lines that precede it.
type lineOp struct {
	kind      opKind
	text      string
	oldBefore int
	newBefore int
}

// Builtin is an in-process line differ producing git-style unified diffs.
type Builtin struct {
	Context int
}

// NewBuiltin returns a Builtin with the default context size.
func NewBuiltin() *Builtin {
	return &Builtin{Context: DefaultContext}
}

// Diff returns the unified diff of oldText and newText, or "" when they are
// equal. A missing trailing newline is treated as present.
func (b *Builtin) Diff(ctx context.Context, oldText, newText, oldLabel, newLabel string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	oldText, newText = withTrailingNewline(oldText), withTrailingNewline(newText)
	if oldText == newText {
		return "", nil
	}

	ops := lineOps(oldText, newText)
	hunks := b.hunkRanges(ops)
	if len(hunks) == 0 {
		return "", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "diff --git a/%s b/%s\n", oldLabel, newLabel)
	fmt.Fprintf(&sb, "--- a/%s\n", oldLabel)
	fmt.Fprintf(&sb, "+++ b/%s\n", newLabel)
	for _, r := range hunks {
		writeHunk(&sb, ops[r[0]:r[1]])
	}
	return sb.String(), nil
}

func withTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// lineOps runs a line-mode diff and numbers every resulting line.
func lineOps(oldText, newText string) []lineOp {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var ops []lineOp
	oldSeen, newSeen := 0, 0
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			op := lineOp{text: line, oldBefore: oldSeen, newBefore: newSeen}
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				op.kind = opEqual
				oldSeen++
				newSeen++
			case diffmatchpatch.DiffDelete:
				op.kind = opDelete
				oldSeen++
			case diffmatchpatch.DiffInsert:
				op.kind = opInsert
				newSeen++
			}
			ops = append(ops, op)
		}
	}
	return ops
}

func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\n")
	}
	return lines
}

// hunkRanges returns [start, end) op index ranges, one per hunk. Changes
// separated by at most twice the context share a hunk.
func (b *Builtin) hunkRanges(ops []lineOp) [][2]int {
	n := max(b.Context, 0)
	var ranges [][2]int
	for i := 0; i < len(ops); i++ {
		if ops[i].kind == opEqual {
			continue
		}
		start := max(0, i-n)
		last := i
		for j := i + 1; j < len(ops); j++ {
			if ops[j].kind == opEqual {
				continue
			}
			if j-last-1 > 2*n {
				break
			}
			last = j
		}
		end := min(len(ops), last+n+1)
		ranges = append(ranges, [2]int{start, end})
		i = last
	}
	return ranges
}

// writeHunk writes one hunk. An empty side is anchored on the line before
// the hunk, as unified diffs do for pure insertions and deletions.
func writeHunk(sb *strings.Builder, ops []lineOp) {
	oldLen, newLen := 0, 0
	for _, op := range ops {
		if op.kind != opInsert {
			oldLen++
		}
		if op.kind != opDelete {
			newLen++
		}
	}
	oldStart, newStart := ops[0].oldBefore, ops[0].newBefore
	if oldLen > 0 {
		oldStart++
	}
	if newLen > 0 {
		newStart++
	}
	fmt.Fprintf(sb, "@@ -%d,%d +%d,%d @@\n", oldStart, oldLen, newStart, newLen)
	for _, op := range ops {
		sb.WriteByte(byte(op.kind))
		sb.WriteString(op.text)
		sb.WriteByte('\n')
	}
}
