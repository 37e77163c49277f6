package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/prradar/internal/diff"
	"github.com/dshills/prradar/internal/gitctx"
	"github.com/dshills/prradar/internal/output"
)

var (
	flagParseFormat string
	flagParseCommit string
	flagParseRaw    bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <path|->",
	Short: "Parse a unified diff into structured hunks",
	Long:  "Parse a unified diff from a file (or stdin with -) and print its hunks. Hunk content is annotated with new-file line numbers unless --raw is given.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args[0])
		if err != nil {
			return fail(cmd, err)
		}
		d, err := diff.Parse(text, flagParseCommit)
		if err != nil {
			return fail(cmd, err)
		}
		parsed := output.NewParsedDiff(d, !flagParseRaw)

		w := cmd.OutOrStdout()
		switch flagParseFormat {
		case "json":
			err = writeIndentedJSON(w, parsed)
		case "markdown", "md":
			err = output.WriteParsedMarkdown(w, "Parsed Diff", parsed)
		case "text":
			err = output.WriteParsedText(w, parsed)
		default:
			return fmt.Errorf("unsupported parse format: %s", flagParseFormat)
		}
		if err != nil {
			return fail(cmd, err)
		}
		return nil
	},
}

var (
	flagOldDir string
	flagNewDir string
)

var analyzeDiffCmd = &cobra.Command{
	Use:   "diff <path|->",
	Short: "Analyze a saved diff against two directory trees",
	Long:  "Analyze a unified diff from a file (or stdin with -). File contents before and after the change are read from --old-dir and --new-dir.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args[0])
		if err != nil {
			return fail(cmd, err)
		}
		return runAnalyze(cmd, func(ctx context.Context, opts gitctx.DiffOptions) (gitctx.DiffResult, contentReader, error) {
			res := gitctx.DiffResult{Diff: text, Mode: "diff", Range: args[0]}
			return res, dirContents{oldDir: flagOldDir, newDir: flagNewDir}, nil
		})
	},
}

// dirContents reads file contents from two directory trees.
type dirContents struct {
	oldDir string
	newDir string
}

func (d dirContents) Contents(ctx context.Context, oldPaths, newPaths []string) (map[string]string, map[string]string, error) {
	oldFiles, err := readTree(d.oldDir, oldPaths)
	if err != nil {
		return nil, nil, err
	}
	newFiles, err := readTree(d.newDir, newPaths)
	if err != nil {
		return nil, nil, err
	}
	return oldFiles, newFiles, nil
}

// readTree reads paths under dir. Missing files are left out.
func readTree(dir string, paths []string) (map[string]string, error) {
	files := make(map[string]string, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(p)))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		files[p] = string(data)
	}
	return files, nil
}

// readInput reads a path, or stdin for "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading diff file: %w", err)
	}
	return string(data), nil
}

func init() {
	parseCmd.Flags().StringVar(&flagParseFormat, "format", "json", "Output format (json, markdown, text)")
	parseCmd.Flags().StringVar(&flagParseCommit, "commit", "", "Commit hash to record in the output")
	parseCmd.Flags().BoolVar(&flagParseRaw, "raw", false, "Do not annotate hunk content with line numbers")

	analyzeDiffCmd.Flags().StringVar(&flagOldDir, "old-dir", "", "Directory holding the files before the change")
	analyzeDiffCmd.Flags().StringVar(&flagNewDir, "new-dir", "", "Directory holding the files after the change")
	analyzeDiffCmd.MarkFlagRequired("old-dir")
	analyzeDiffCmd.MarkFlagRequired("new-dir")
}
