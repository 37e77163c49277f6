// Package cli wires together the Cobra command tree for the prradar binary.
//
// It defines the root command and all subcommands (analyze, parse, config,
// cache, hook, version), binds flags, reads configuration, runs the effective
// diff engine, and returns deterministic exit codes.
package cli
