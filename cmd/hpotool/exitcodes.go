package main

import (
	"errors"
	"os"

	"github.com/bastiangx/hposerve/pkg/dataset"
	"github.com/bastiangx/hposerve/pkg/ontology"
)

// Exit codes, shared with the release scripts that call `hpotool version`.
const (
	ExitOK         = 0
	ExitNotFound   = 1 // input file missing, or unknown term ids
	ExitNoVersion  = 2 // hpo_version missing, empty or "Unknown"
	ExitDataFormat = 3 // input is not valid JSON or not a known shape
	ExitError      = 4
)

// errUnknownTerm marks ids that are not in the dataset.
var errUnknownTerm = errors.New("unknown term")

func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, os.ErrNotExist), errors.Is(err, errUnknownTerm):
		return ExitNotFound
	case errors.Is(err, dataset.ErrNoVersion):
		return ExitNoVersion
	case errors.Is(err, ontology.ErrDataFormat):
		return ExitDataFormat
	default:
		return ExitError
	}
}
