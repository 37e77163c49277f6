package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dshills/prradar/internal/cache"
	"github.com/dshills/prradar/internal/config"
	"github.com/dshills/prradar/internal/diff"
	"github.com/dshills/prradar/internal/effectivediff"
	"github.com/dshills/prradar/internal/gitctx"
	"github.com/dshills/prradar/internal/logging"
	"github.com/dshills/prradar/internal/output"
	"github.com/dshills/prradar/internal/rediff"
)

// Shared analyze flags
var (
	flagRepo         string
	flagPaths        string
	flagExclude      string
	flagContextLines int
	flagMaxDiffBytes int
	flagFormat       string
	flagOut          string
	flagOutputDir    string
	flagDiffer       string
	flagGapTolerance int
	flagMinBlockSize int
	flagMinScore     float64
	flagWorkers      int
	flagMatchMode    string
	flagStrict       bool
	flagNoCache      bool
	flagTimeout      int
)

func addAnalyzeFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVarP(&flagRepo, "repo", "C", "", "Run as if started in this directory")
	f.StringVar(&flagPaths, "paths", "", "Include file path globs (comma-separated)")
	f.StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	f.IntVar(&flagContextLines, "context-lines", 0, "Number of context lines in diff")
	f.IntVar(&flagMaxDiffBytes, "max-diff-bytes", 0, "Maximum diff size in bytes")
	f.StringVar(&flagFormat, "format", "", "Summary format (text, json, markdown)")
	f.StringVar(&flagOut, "out", "", "Summary output file path (default: stdout)")
	f.StringVar(&flagOutputDir, "output-dir", "", "Directory for the diff and effective diff artifacts")
	f.StringVar(&flagDiffer, "differ", "", "Region re-differ (builtin, git)")
	f.IntVar(&flagGapTolerance, "gap-tolerance", 0, "Lines a move block may skip and stay contiguous")
	f.IntVar(&flagMinBlockSize, "min-block-size", 0, "Smallest block counted as a move")
	f.Float64Var(&flagMinScore, "min-score", 0, "Minimum move score (0-1)")
	f.IntVar(&flagWorkers, "workers", 0, "Concurrent region re-diffs")
	f.StringVar(&flagMatchMode, "match-mode", "", "Line matching (all, exclusive)")
	f.BoolVar(&flagStrict, "strict", false, "Fail when a hunk cannot be rebuilt consistently")
	f.BoolVar(&flagNoCache, "no-cache", false, "Bypass the result cache")
	f.IntVar(&flagTimeout, "timeout", 0, "Timeout in seconds for the whole run")
}

// buildOverrides maps the analyze and log flags to config keys. A flag takes
// part when it is non-zero or was set explicitly on the command line, so an
// explicit 0 or false still overrides the config file.
func buildOverrides(flags *pflag.FlagSet) map[string]string {
	m := make(map[string]string)
	changed := func(name string) bool {
		return flags != nil && flags.Changed(name)
	}
	set := func(key, v string) {
		if v != "" {
			m[key] = v
		}
	}
	setInt := func(key, name string, v int) {
		if v > 0 || changed(name) {
			m[key] = strconv.Itoa(v)
		}
	}
	set("format", flagFormat)
	set("outputDir", flagOutputDir)
	set("differ", flagDiffer)
	setInt("contextLines", "context-lines", flagContextLines)
	setInt("maxDiffBytes", "max-diff-bytes", flagMaxDiffBytes)
	setInt("timeoutSeconds", "timeout", flagTimeout)
	setInt("effectiveDiff.gapTolerance", "gap-tolerance", flagGapTolerance)
	setInt("effectiveDiff.minBlockSize", "min-block-size", flagMinBlockSize)
	setInt("effectiveDiff.workers", "workers", flagWorkers)
	if flagMinScore > 0 || changed("min-score") {
		m["effectiveDiff.minScore"] = strconv.FormatFloat(flagMinScore, 'f', -1, 64)
	}
	set("effectiveDiff.matchMode", flagMatchMode)
	if flagStrict || changed("strict") {
		m["effectiveDiff.strict"] = strconv.FormatBool(flagStrict)
	}
	if flagNoCache {
		m["cache.enabled"] = "false"
	}
	set("log.level", flagLogLevel)
	if flagVerbose {
		m["log.level"] = "debug"
	}
	set("log.format", flagLogFormat)
	set("log.file", flagLogFile)
	return m
}

func buildDiffOpts(cfg config.Config) gitctx.DiffOptions {
	opts := gitctx.DiffOptions{
		Dir:          flagRepo,
		ContextLines: cfg.ContextLines,
		MaxDiffBytes: cfg.MaxDiffBytes,
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
	}
	if flagPaths != "" {
		opts.Include = splitComma(flagPaths)
	}
	if flagExclude != "" {
		opts.Exclude = append(opts.Exclude, splitComma(flagExclude)...)
	}
	return opts
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// contentReader returns the old and new text of the files a diff touches.
type contentReader interface {
	Contents(ctx context.Context, oldPaths, newPaths []string) (map[string]string, map[string]string, error)
}

// collectFunc gathers a diff for one analyze mode and the reader for its
// file contents.
type collectFunc func(ctx context.Context, opts gitctx.DiffOptions) (gitctx.DiffResult, contentReader, error)

func fromGit(res gitctx.DiffResult, err error) (gitctx.DiffResult, contentReader, error) {
	return res, res, err
}

func runAnalyze(cmd *cobra.Command, collect collectFunc) error {
	cfg, err := config.Load(buildOverrides(cmd.Flags()))
	if err != nil {
		return fail(cmd, err)
	}
	log, closer, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return fail(cmd, err)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	start := time.Now()
	res, files, err := collect(ctx, buildDiffOpts(cfg))
	if err != nil {
		return fail(cmd, err)
	}
	if res.Truncated {
		log.Warn().Int("maxDiffBytes", cfg.MaxDiffBytes).Msg("diff too large, trailing files skipped")
	}

	run, err := analyze(ctx, cfg, res, files, log)
	if err != nil {
		return fail(cmd, err)
	}

	var artifacts []string
	if cfg.OutputDir != "" {
		artifacts, err = output.WriteArtifacts(cfg.OutputDir, run.bundle)
		if err != nil {
			return fail(cmd, err)
		}
		log.Info().Str("dir", cfg.OutputDir).Int("files", len(artifacts)).Msg("artifacts written")
	}

	report := output.NewReport("prradar", version, run.bundle)
	report.Inputs = output.InputInfo{Mode: res.Mode, Range: res.Range, Differ: cfg.Differ}
	report.Repo = output.RepoInfo{Root: res.Repo.Root, Head: res.Repo.Head, Branch: res.Repo.Branch}
	report.Artifacts = artifacts
	report.Cached = run.cached
	report.Truncated = res.Truncated
	total := time.Since(start)
	report.Timing = output.Timing{
		TotalMs:  total.Milliseconds(),
		GitMs:    (total - run.engine).Milliseconds(),
		EngineMs: run.engine.Milliseconds(),
	}

	if err := output.WriteReportTo(cmd.OutOrStdout(), report, cfg.Format, flagOut); err != nil {
		return fail(cmd, err)
	}
	return nil
}

// analysis is the outcome of one engine run, possibly served from the cache.
type analysis struct {
	bundle output.Bundle
	cached bool
	engine time.Duration
}

// analyze parses the collected diff, reads both sides of every touched file
// and runs the engine unless the cache already holds the result.
func analyze(ctx context.Context, cfg config.Config, res gitctx.DiffResult, files contentReader, log zerolog.Logger) (analysis, error) {
	d, err := diff.Parse(res.Diff, res.Commit)
	if err != nil {
		return analysis{}, err
	}
	oldFiles, newFiles, err := files.Contents(ctx, d.OldFiles(), d.Files())
	if err != nil {
		return analysis{}, err
	}
	return analyzeParsed(ctx, cfg, d, oldFiles, newFiles, log)
}

// cacheOptions is the part of the configuration that changes engine output.
type cacheOptions struct {
	Differ  string                `json:"differ"`
	Engine  effectivediff.Options `json:"engine"`
	Version string                `json:"version"`
}

func analyzeParsed(ctx context.Context, cfg config.Config, d diff.GitDiff, oldFiles, newFiles map[string]string, log zerolog.Logger) (analysis, error) {
	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		log.Warn().Err(err).Msg("cache unavailable")
		c, _ = cache.New(false, "", 0)
	}
	key, err := cache.BuildCacheKey(d.Raw, oldFiles, newFiles, cacheOptions{
		Differ:  cfg.Differ,
		Engine:  cfg.EffectiveDiff,
		Version: version,
	})
	if err != nil {
		return analysis{}, err
	}
	var bundle output.Bundle
	if c.GetJSON(key, &bundle) {
		log.Debug().Str("key", key[:12]).Msg("cache hit")
		// The raw diff is keyed, but the commit hash is not.
		bundle.Parsed.CommitHash = d.CommitHash
		bundle.EffectiveDiff.CommitHash = d.CommitHash
		return analysis{bundle: bundle, cached: true}, nil
	}

	differ, err := rediff.New(cfg.Differ)
	if err != nil {
		return analysis{}, err
	}
	pipeline, err := effectivediff.NewPipeline(differ, cfg.EffectiveDiff, log)
	if err != nil {
		return analysis{}, err
	}

	start := time.Now()
	result, err := pipeline.Run(ctx, d, oldFiles, newFiles)
	if err != nil {
		return analysis{}, fmt.Errorf("effective diff: %w", err)
	}
	elapsed := time.Since(start)
	log.Info().
		Int("moves", result.MoveReport.MovesDetected).
		Int("hunks", len(d.Hunks)).
		Int("effectiveHunks", len(result.EffectiveDiff.Hunks)).
		Dur("elapsed", elapsed).
		Msg("effective diff complete")

	bundle = output.NewBundle(d, result)
	if err := c.PutJSON(key, bundle); err != nil {
		log.Warn().Err(err).Msg("cache write failed")
	}
	return analysis{bundle: bundle, engine: elapsed}, nil
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Detect moved code and build the effective diff",
	Long:  "Gather a diff and the full before and after file contents from git, detect moved blocks, and report the effective diff. Use subcommands to choose what to analyze.",
}

var analyzeUnstagedCmd = &cobra.Command{
	Use:   "unstaged",
	Short: "Analyze unstaged changes (working tree vs index)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd, func(ctx context.Context, opts gitctx.DiffOptions) (gitctx.DiffResult, contentReader, error) {
			return fromGit(gitctx.Unstaged(ctx, opts))
		})
	},
}

var analyzeStagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Analyze staged changes (index vs HEAD)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd, func(ctx context.Context, opts gitctx.DiffOptions) (gitctx.DiffResult, contentReader, error) {
			return fromGit(gitctx.Staged(ctx, opts))
		})
	},
}

var (
	flagParent string
)

var analyzeCommitCmd = &cobra.Command{
	Use:   "commit <sha>",
	Short: "Analyze a specific commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd, func(ctx context.Context, opts gitctx.DiffOptions) (gitctx.DiffResult, contentReader, error) {
			return fromGit(gitctx.Commit(ctx, args[0], flagParent, opts))
		})
	},
}

var (
	flagMergeBase bool
)

var analyzeRangeCmd = &cobra.Command{
	Use:   "range <revRange>",
	Short: "Analyze a revision range (e.g., origin/main..HEAD)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd, func(ctx context.Context, opts gitctx.DiffOptions) (gitctx.DiffResult, contentReader, error) {
			return fromGit(gitctx.Range(ctx, args[0], flagMergeBase, opts))
		})
	},
}

var analyzeFileCmd = &cobra.Command{
	Use:   "file <path>...",
	Short: "Analyze working tree changes to specific files (vs HEAD)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd, func(ctx context.Context, opts gitctx.DiffOptions) (gitctx.DiffResult, contentReader, error) {
			return fromGit(gitctx.File(ctx, args, opts))
		})
	},
}

func init() {
	addAnalyzeFlags(analyzeCmd)
	analyzeCommitCmd.Flags().StringVar(&flagParent, "parent", "", "Compare against this commit instead of the first parent")
	analyzeRangeCmd.Flags().BoolVar(&flagMergeBase, "merge-base", false, "Compare against the merge base (A...B)")

	analyzeCmd.AddCommand(analyzeUnstagedCmd)
	analyzeCmd.AddCommand(analyzeStagedCmd)
	analyzeCmd.AddCommand(analyzeCommitCmd)
	analyzeCmd.AddCommand(analyzeRangeCmd)
	analyzeCmd.AddCommand(analyzeFileCmd)
	analyzeCmd.AddCommand(analyzeDiffCmd)
}
