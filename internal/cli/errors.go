package cli

import (
	"errors"
	"fmt"
)

// ExitError represents a command failure with a specific exit code.
//
// This error type allows Cobra RunE functions to signal non-zero exit codes
// without calling os.Exit() directly, enabling testable CLI behavior.
// A command returns NewExitError(code) after it has already told the user what
// went wrong, for example when `next` is refused because prerequisites are not
// met. [Run] extracts the code with [IsExitError] and prints nothing further.
type ExitError struct {
	// Code is the exit code to return to the shell.
	Code int
}

// Error implements the error interface, returning a string in the format
// "exit status N" where N is the exit code.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewExitError creates an [ExitError] with the given exit code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// IsExitError checks if an error is an [ExitError] and extracts its exit code.
//
// Returns (code, true) if err is or wraps an *ExitError. Returns (0, false)
// for nil or other errors.
func IsExitError(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
