package rediff

import (
	"fmt"

	"github.com/dshills/prradar/internal/effectivediff"
)

// Names accepted by New.
const (
	NameBuiltin = "builtin"
	NameGit     = "git"
)

// New returns the differ registered under name.
func New(name string) (effectivediff.Differ, error) {
	switch name {
	case NameBuiltin, "":
		return NewBuiltin(), nil
	case NameGit:
		return NewGit(), nil
	default:
		return nil, fmt.Errorf("unknown differ %q (want %s or %s)", name, NameBuiltin, NameGit)
	}
}
