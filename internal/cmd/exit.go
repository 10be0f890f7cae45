package cmd

import (
	"github.com/Iron-Ham/tandem/internal/errors"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// errInterrupted is returned when the user interrupted a run.
var errInterrupted = errors.New("interrupted")

// exitError carries the exit code for a failed run. reported is set when the
// error has already been shown to the user.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return ExitFailure
}

// Reported reports whether err was already shown to the user.
func Reported(err error) bool {
	var exitErr *exitError
	return errors.As(err, &exitErr) && exitErr.reported
}
