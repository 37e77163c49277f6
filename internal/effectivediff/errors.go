package effectivediff

import (
	"fmt"

	"github.com/dshills/prradar/internal/diff"
)

// RediffError reports that re-diffing the regions of a candidate failed.
// It aborts the pipeline: a skipped candidate would skew the classification
// of every other line.
type RediffError struct {
	Candidate  int
	SourceFile string
	TargetFile string
	Err        error
}

func (e *RediffError) Error() string {
	return fmt.Sprintf("rediff move %d (%s -> %s): %v", e.Candidate, e.SourceFile, e.TargetFile, e.Err)
}

func (e *RediffError) Unwrap() error { return e.Err }

// ReconstructionError reports a hunk whose classified lines do not reconcile
// with its header counts.
type ReconstructionError struct {
	FilePath string
	Hunk     diff.Hunk
	Reason   string
}

func (e *ReconstructionError) Error() string {
	return fmt.Sprintf("reconstruct %s %s: %s", e.FilePath, e.Hunk.Header(), e.Reason)
}
