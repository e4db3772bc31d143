package cli

import "lobster-cli/internal/model"

const (
	exitFailure    = 1
	exitValidation = 2
	exitNotFound   = 3
)

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case model.IsValidation(err):
		return exitValidation
	case model.IsNotFound(err):
		return exitNotFound
	default:
		return exitFailure
	}
}
