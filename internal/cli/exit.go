package cli

import (
	"errors"

	"github.com/rika-labs/rikadeploy/internal/domain"
)

// Process exit codes
const (
	ExitOK                 = 0
	ExitFailure            = 1
	ExitVerificationFailed = 2
)

// ExitCode maps a command error to the process exit code. Rejected
// verifications only surface as errors under --strict-verify.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, domain.ErrVerificationFailed):
		return ExitVerificationFailed
	default:
		return ExitFailure
	}
}
