package kmerdb

import "github.com/pkg/errors"

// Error kinds, matched with errors.Is at the CLI boundary to pick the
// process exit code. Configuration problems are caught before any work
// begins; input problems abort a build or filter with no partial output.
var (
	ErrConfig = errors.New("invalid configuration")
	ErrInput  = errors.New("cannot read input")
)

func configErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfig, format, args...)
}

func inputError(err error, source string) error {
	return errors.Wrapf(ErrInput, "%s: %v", source, err)
}
