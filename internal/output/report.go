package output

import "github.com/dshills/prradar/internal/effectivediff"

// Report is the stdout summary of one analysis run.
type Report struct {
	Tool       string                   `json:"tool"`
	Version    string                   `json:"version"`
	Inputs     InputInfo                `json:"inputs"`
	Repo       RepoInfo                 `json:"repo"`
	CommitHash string                   `json:"commitHash,omitempty"`
	Summary    Summary                  `json:"summary"`
	Moves      effectivediff.MoveReport `json:"moves"`
	Artifacts  []string                 `json:"artifacts,omitempty"`
	Cached     bool                     `json:"cached"`
	Truncated  bool                     `json:"truncated,omitempty"`
	Timing     Timing                   `json:"timing"`
}

// InputInfo describes what was analyzed.
type InputInfo struct {
	Mode   string `json:"mode"`
	Range  string `json:"range,omitempty"`
	Differ string `json:"differ"`
}

// RepoInfo contains repository metadata.
type RepoInfo struct {
	Root   string `json:"root"`
	Head   string `json:"head"`
	Branch string `json:"branch"`
}

// Timing records how long each phase took.
type Timing struct {
	TotalMs  int64 `json:"totalMs"`
	GitMs    int64 `json:"gitMs"`
	EngineMs int64 `json:"engineMs"`
}

// NewReport builds a report from a bundle. Inputs, repo and timing are filled
// by the caller.
func NewReport(tool, version string, b Bundle) *Report {
	return &Report{
		Tool:       tool,
		Version:    version,
		CommitHash: b.Parsed.CommitHash,
		Summary:    b.Summary,
		Moves:      b.Moves,
	}
}
