package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess         = 0 // Analysis or evaluation succeeded
	ExitGuardrailFailed = 1 // Evaluation ran, but a guardrail check failed
	ExitError           = 2 // Configuration or runtime error
)

// GuardrailError indicates that the evaluation suite ran successfully,
// but one or more guardrail checks fell below threshold.
type GuardrailError struct {
	Message string
}

func (e *GuardrailError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		// Check error type to determine exit code
		var guardrailErr *GuardrailError
		if errors.As(err, &guardrailErr) {
			os.Exit(ExitGuardrailFailed)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
