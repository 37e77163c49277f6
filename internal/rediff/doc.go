// Package rediff provides the differs used to re-diff the regions around a
// detected move: an in-process line differ and one backed by git.
package rediff
