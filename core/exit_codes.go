package core

import "errors"

// Exit codes for the application.
// These follow Unix conventions where signal-based exits are 128 + signal number.
const (
	// ExitCodeSuccess indicates the run loop ended on EXIT or end of input
	ExitCodeSuccess = 0

	// ExitCodeError indicates a startup failure or a broken input stream
	ExitCodeError = 1

	// ExitCodeSIGINT indicates termination due to SIGINT (Ctrl+C)
	ExitCodeSIGINT = 130
)

// ErrInterrupted is returned by the root command when SIGINT or SIGTERM
// arrives while the run loop is waiting for input or generating.
var ErrInterrupted = errors.New("interrupted")

// ExitCodeFor maps the error returned by the root command to a process exit code.
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.Is(err, ErrInterrupted):
		return ExitCodeSIGINT
	default:
		return ExitCodeError
	}
}

// ExitCodeName returns a human-readable name for an exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitCodeSuccess:
		return "success"
	case ExitCodeError:
		return "error"
	case ExitCodeSIGINT:
		return "interrupted (SIGINT)"
	default:
		return "unknown"
	}
}
