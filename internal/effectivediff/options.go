package effectivediff

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// MatchMode selects how removed lines are paired with added lines.
type MatchMode string

const (
	// MatchAll pairs every removed line with every added line of identical
	// normalized content.
	MatchAll MatchMode = "all"
	// MatchExclusive lets each added line be claimed by at most one removed
	// line, first come first served.
	MatchExclusive MatchMode = "exclusive"
)

// Default engine tuning.
const (
	DefaultGapTolerance  = 3
	DefaultMinBlockSize  = 3
	DefaultMinScore      = 0.0
	DefaultContextLines  = 20
	DefaultTrimProximity = 15
	DefaultWorkers       = 4

	// fullSizeBlock is the block size at which the size factor saturates.
	fullSizeBlock = 10
)

// Options tunes the engine.
type Options struct {
	GapTolerance  int       `json:"gapTolerance" yaml:"gapTolerance" validate:"min=0"`
	MinBlockSize  int       `json:"minBlockSize" yaml:"minBlockSize" validate:"min=1,max=10"`
	MinScore      float64   `json:"minScore" yaml:"minScore" validate:"min=0,max=1"`
	ContextLines  int       `json:"contextLines" yaml:"contextLines" validate:"min=0"`
	TrimProximity int       `json:"trimProximity" yaml:"trimProximity" validate:"min=0"`
	Workers       int       `json:"workers" yaml:"workers" validate:"min=1,max=64"`
	MatchMode     MatchMode `json:"matchMode" yaml:"matchMode" validate:"oneof=all exclusive"`
	Strict        bool      `json:"strict" yaml:"strict"`
}

// DefaultOptions returns the default engine options.
func DefaultOptions() Options {
	return Options{
		GapTolerance:  DefaultGapTolerance,
		MinBlockSize:  DefaultMinBlockSize,
		MinScore:      DefaultMinScore,
		ContextLines:  DefaultContextLines,
		TrimProximity: DefaultTrimProximity,
		Workers:       DefaultWorkers,
		MatchMode:     MatchAll,
	}
}

var validate = validator.New()

// Validate checks that every option is in range.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid effective diff options: %w", err)
	}
	return nil
}
