package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Exit codes used by the tutorchat CLI.
const (
	ExitCodeSuccess = 0
	ExitCodeFailure = 1
	ExitCodeUsage   = 2
)

// ExitError carries an exit code through cobra's error return path.
type ExitError struct {
	Code    int
	Err     error
	Printed bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Exitf builds an ExitError with a formatted message.
func Exitf(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

func usageError(cmd *cobra.Command, format string, args ...any) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: "+format+"\n\n", args...)
	_ = cmd.Usage()
	return &ExitError{Code: ExitCodeUsage, Err: fmt.Errorf(format, args...), Printed: true}
}
