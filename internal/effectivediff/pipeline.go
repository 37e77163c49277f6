package effectivediff

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/prradar/internal/diff"
)

// Result is the outcome of one pipeline run.
type Result struct {
	EffectiveDiff   diff.GitDiff
	MoveReport      MoveReport
	ClassifiedLines []ClassifiedLine
	ClassifiedHunks []ClassifiedHunk
	Candidates      []MoveCandidate
	Rediffs         []EffectiveDiffResult
}

// Pipeline runs the effective diff stages in sequence.
type Pipeline struct {
	differ Differ
	opts   Options
	log    zerolog.Logger
}

// NewPipeline returns a pipeline that re-diffs regions with differ.
func NewPipeline(differ Differ, opts Options, log zerolog.Logger) (*Pipeline, error) {
	if differ == nil {
		return nil, errors.New("effectivediff: differ is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		differ: differ,
		opts:   opts,
		log:    log.With().Str("component", "effectivediff").Logger(),
	}, nil
}

// Options returns the options the pipeline runs with.
func (p *Pipeline) Options() Options { return p.opts }

// Run detects moves in d and reduces it to the effective diff. oldFiles and
// newFiles map paths to file contents before and after the change. Either a
// complete result or an error is returned.
func (p *Pipeline) Run(ctx context.Context, d diff.GitDiff, oldFiles, newFiles map[string]string) (*Result, error) {
	removed, added := TagLines(d)
	matches := FindExactMatches(removed, added, p.opts.MatchMode)
	candidates := FindMoveCandidates(matches, added, p.opts)
	p.log.Debug().
		Int("hunks", len(d.Hunks)).
		Int("removed", len(removed)).
		Int("added", len(added)).
		Int("matches", len(matches)).
		Int("candidates", len(candidates)).
		Msg("matched lines")

	rediffs, err := p.rediffAll(ctx, candidates, oldFiles, newFiles)
	if err != nil {
		return nil, err
	}

	report := BuildMoveReport(rediffs)
	lines := ClassifyLines(d, rediffs)
	hunks := GroupByHunk(d, lines)

	effective, err := Reconstruct(d, hunks, p.opts.Strict, p.log)
	if err != nil {
		return nil, fmt.Errorf("reconstruct effective diff: %w", err)
	}
	p.log.Debug().
		Int("moves", report.MovesDetected).
		Int("lines_moved", report.TotalLinesMoved).
		Int("hunks_before", len(d.Hunks)).
		Int("hunks_after", len(effective.Hunks)).
		Msg("effective diff built")

	return &Result{
		EffectiveDiff:   effective,
		MoveReport:      report,
		ClassifiedLines: lines,
		ClassifiedHunks: hunks,
		Candidates:      candidates,
		Rediffs:         rediffs,
	}, nil
}

// rediffAll re-diffs every candidate on a bounded pool. Results are stored by
// candidate index so they stay in score order whatever the completion order.
// The first failure cancels the remaining work and is the error returned.
func (p *Pipeline) rediffAll(ctx context.Context, candidates []MoveCandidate, oldFiles, newFiles map[string]string) ([]EffectiveDiffResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	out := make([]EffectiveDiffResult, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return rediffError(c, err)
			}
			res, err := RediffCandidate(gctx, c, oldFiles, newFiles, p.differ, p.opts)
			if err != nil {
				return err
			}
			p.log.Debug().
				Int("move", c.ID()).
				Str("source", c.SourceFile()).
				Str("target", c.TargetFile()).
				Int("hunks", len(res.Hunks)).
				Msg("rediffed move")
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
