// Package exitcode maps command errors to process exit codes.
package exitcode

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/felixgeelhaar/waveplan/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// InvalidInput indicates unit or plan input that cannot be planned:
	// unreadable files, duplicate IDs, unknown prerequisites, cycles.
	InvalidInput = 3

	// FeedbackRejected indicates a replan report the plan refused.
	FeedbackRejected = 4

	// PlanRejected indicates an operator rejected the plan during review.
	PlanRejected = 5

	// Interrupted follows the shell convention for SIGINT.
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if stderrors.Is(err, context.Canceled) || errors.KindOf(err) == errors.KindCancelled {
		return Interrupted
	}
	if errors.IsConstruction(err) || errors.KindOf(err) == errors.KindIO {
		return InvalidInput
	}
	switch errors.KindOf(err) {
	case errors.KindUnknownUnit, errors.KindInvalidTransition:
		return FeedbackRejected
	}

	if stderrors.Is(err, errors.ErrPlanRejected) {
		return PlanRejected
	}

	errMsg := strings.ToLower(err.Error())
	// cobra reports usage problems as plain errors
	for _, marker := range []string{"invalid flag", "unknown flag", "unknown command", "unknown shorthand flag",
		"required flag", "accepts ", "if any flags in the group", "at least one of the flags in the group"} {
		if strings.Contains(errMsg, marker) {
			return UsageError
		}
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case InvalidInput:
		return "Invalid unit or plan input"
	case FeedbackRejected:
		return "Execution feedback rejected"
	case PlanRejected:
		return "Plan rejected during review"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
