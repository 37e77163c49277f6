package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/prradar/internal/config"
	"github.com/dshills/prradar/internal/diff"
)

const version = "0.1.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitUsageError   = 2
	ExitParseError   = 3
	ExitRuntimeError = 4
)

// Global logging flags
var (
	flagLogLevel  string
	flagLogFormat string
	flagLogFile   string
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "prradar",
	Short: "Effective diff analysis for pull requests",
	Long: "prradar detects code that was moved rather than rewritten, reduces a diff to its " +
		"genuinely new or changed lines, and writes the results as review artifacts.",
}

// Run executes the root command and returns an exit code.
func Run() int {
	return run(os.Args[1:])
}

func run(args []string) int {
	exitCode = ExitSuccess
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}
	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// fail reports err on stderr and sets the exit code from its type. It returns
// nil so cobra does not print usage for runtime failures.
func fail(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	var parseErr *diff.ParseError
	var validationErr *config.ValidationError
	switch {
	case errors.As(err, &parseErr):
		exitCode = ExitParseError
	case errors.As(err, &validationErr):
		exitCode = ExitUsageError
	default:
		exitCode = ExitRuntimeError
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print prradar version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "prradar version %s\n", version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level (trace, debug, info, warn, error, disabled)")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format on stderr (console, json)")
	pf.StringVar(&flagLogFile, "log-file", "", "Also write JSON logs to this rotating file")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Shorthand for --log-level debug")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(versionCmd)
}
