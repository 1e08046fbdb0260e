package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Kind classifies a planning failure. It is the stable part of the error
// contract handed to orchestrators.
type Kind string

// Construction-time kinds abort a build. Replan-time kinds reject a single
// feedback report and leave the session intact.
const (
	KindDuplicateID       Kind = "DuplicateId"
	KindUnknownDependency Kind = "UnknownDependency"
	KindCycle             Kind = "Cycle"
	KindEmptyInput        Kind = "EmptyInput"
	KindInvalidUnit       Kind = "InvalidUnit"

	KindUnknownUnit       Kind = "UnknownUnit"
	KindInvalidTransition Kind = "InvalidTransition"
	KindCancelled         Kind = "Cancelled"

	KindSessionNotFound Kind = "SessionNotFound"
	KindIO              Kind = "IO"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Build errors (BUILD-001 to BUILD-099)
	ErrCodeEmptyInput        ErrorCode = "BUILD-001"
	ErrCodeDuplicateID       ErrorCode = "BUILD-002"
	ErrCodeUnknownDependency ErrorCode = "BUILD-003"
	ErrCodeCycle             ErrorCode = "BUILD-004"
	ErrCodeInvalidUnit       ErrorCode = "BUILD-005"

	// Replan errors (REPLAN-001 to REPLAN-099)
	ErrCodeUnknownUnit       ErrorCode = "REPLAN-001"
	ErrCodeInvalidTransition ErrorCode = "REPLAN-002"

	// Session errors (SESSION-001 to SESSION-099)
	ErrCodeCancelled       ErrorCode = "SESSION-001"
	ErrCodeSessionNotFound ErrorCode = "SESSION-002"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeUnsupportedFile ErrorCode = "IO-004"
	ErrCodeFileUnmarshal   ErrorCode = "IO-005"
	ErrCodeFileMarshal     ErrorCode = "IO-006"
	ErrCodeInvalidPlanFile ErrorCode = "IO-007"
)

var kindCodes = map[Kind]ErrorCode{
	KindEmptyInput:        ErrCodeEmptyInput,
	KindDuplicateID:       ErrCodeDuplicateID,
	KindUnknownDependency: ErrCodeUnknownDependency,
	KindCycle:             ErrCodeCycle,
	KindInvalidUnit:       ErrCodeInvalidUnit,
	KindUnknownUnit:       ErrCodeUnknownUnit,
	KindInvalidTransition: ErrCodeInvalidTransition,
	KindCancelled:         ErrCodeCancelled,
	KindSessionNotFound:   ErrCodeSessionNotFound,
}

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrDuplicateID       = &PlanError{Kind: KindDuplicateID}
	ErrUnknownDependency = &PlanError{Kind: KindUnknownDependency}
	ErrCycle             = &PlanError{Kind: KindCycle}
	ErrEmptyInput        = &PlanError{Kind: KindEmptyInput}
	ErrInvalidUnit       = &PlanError{Kind: KindInvalidUnit}
	ErrUnknownUnit       = &PlanError{Kind: KindUnknownUnit}
	ErrInvalidTransition = &PlanError{Kind: KindInvalidTransition}
	ErrCancelled         = &PlanError{Kind: KindCancelled}
	ErrSessionNotFound   = &PlanError{Kind: KindSessionNotFound}
	ErrIO                = &PlanError{Kind: KindIO}
)

// ErrPlanRejected is returned when an operator rejects a plan under review.
var ErrPlanRejected = stderrors.New("plan rejected")

// PlanError is the structured error returned by every planning component.
// It serialises as {kind, message, offendingIds} plus code and suggestions.
type PlanError struct {
	Code         ErrorCode
	Kind         Kind
	Message      string
	OffendingIDs []string
	Suggestions  []string
	Cause        error
}

// Error implements the error interface
func (e *PlanError) Error() string {
	var b strings.Builder

	if e.Code != "" {
		fmt.Fprintf(&b, "[%s] ", e.Code)
	}
	b.WriteString(e.Message)
	if e.Message == "" {
		b.WriteString(string(e.Kind))
	}

	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			fmt.Fprintf(&b, "\n  • %s", suggestion)
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *PlanError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a PlanError of the same kind.
func (e *PlanError) Is(target error) bool {
	t, ok := target.(*PlanError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// MarshalJSON renders the error in its wire form.
func (e *PlanError) MarshalJSON() ([]byte, error) {
	ids := e.OffendingIDs
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(struct {
		Kind         Kind      `json:"kind"`
		Code         ErrorCode `json:"code,omitempty"`
		Message      string    `json:"message"`
		OffendingIDs []string  `json:"offendingIds"`
		Suggestions  []string  `json:"suggestions,omitempty"`
	}{e.Kind, e.Code, e.Message, ids, e.Suggestions})
}

// New creates a PlanError of the given kind
func New(kind Kind, message string, offending ...string) *PlanError {
	return &PlanError{
		Code:         kindCodes[kind],
		Kind:         kind,
		Message:      message,
		OffendingIDs: offending,
	}
}

// Wrap creates a PlanError wrapping an existing error
func Wrap(kind Kind, message string, cause error, offending ...string) *PlanError {
	e := New(kind, message, offending...)
	e.Cause = cause
	return e
}

// WithSuggestion adds a suggestion to the error
func (e *PlanError) WithSuggestion(suggestion string) *PlanError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *PlanError) WithSuggestions(suggestions ...string) *PlanError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithCode overrides the code derived from the kind.
func (e *PlanError) WithCode(code ErrorCode) *PlanError {
	e.Code = code
	return e
}

// As returns the first PlanError in err's chain.
func As(err error) (*PlanError, bool) {
	var pe *PlanError
	if stderrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// KindOf returns the kind of the first PlanError in err's chain, or "".
func KindOf(err error) Kind {
	if pe, ok := As(err); ok {
		return pe.Kind
	}
	return ""
}

// IsConstruction reports whether err aborts plan construction.
func IsConstruction(err error) bool {
	switch KindOf(err) {
	case KindDuplicateID, KindUnknownDependency, KindCycle, KindEmptyInput, KindInvalidUnit:
		return true
	default:
		return false
	}
}

// Common error constructors for frequently used errors

// NewEmptyInputError reports a build with no units
func NewEmptyInputError() *PlanError {
	return New(KindEmptyInput, "no units supplied").
		WithSuggestion("Check that the planner produced at least one unit")
}

// NewDuplicateIDError reports two units sharing an identifier
func NewDuplicateIDError(id string) *PlanError {
	return New(KindDuplicateID, fmt.Sprintf("duplicate unit id %q", id), id).
		WithSuggestion("Give every unit a unique identifier")
}

// NewUnknownDependencyError reports a prerequisite that was never registered
func NewUnknownDependencyError(missing, dependent string) *PlanError {
	return New(KindUnknownDependency,
		fmt.Sprintf("unit %q depends on unknown unit %q", dependent, missing),
		missing, dependent).
		WithSuggestion(fmt.Sprintf("Register unit %q or remove it from %q's prerequisites", missing, dependent))
}

// NewCycleError reports a dependency cycle along path
func NewCycleError(path []string) *PlanError {
	closed := append(append([]string{}, path...), path[0])
	return New(KindCycle,
		fmt.Sprintf("dependency cycle: %s", strings.Join(closed, " -> ")),
		path...).
		WithSuggestion("Break the cycle by removing one of the listed prerequisites")
}

// NewInvalidUnitError reports a unit whose declared metadata is out of range
func NewInvalidUnitError(id string, cause error) *PlanError {
	return Wrap(KindInvalidUnit, fmt.Sprintf("invalid unit %q", id), cause, id)
}

// NewUnknownUnitError reports feedback for an identifier absent from the plan
func NewUnknownUnitError(id string) *PlanError {
	return New(KindUnknownUnit, fmt.Sprintf("unit %q is not part of the current plan", id), id)
}

// NewInvalidTransitionError reports a status change the unit state machine forbids
func NewInvalidTransitionError(id, from, to string) *PlanError {
	return New(KindInvalidTransition,
		fmt.Sprintf("unit %q cannot move from %s to %s", id, from, to), id)
}

// NewCancelledError reports that the session was cancelled
func NewCancelledError(cause error) *PlanError {
	return Wrap(KindCancelled, "planning cancelled", cause)
}

// NewSessionNotFoundError reports an unknown session identifier
func NewSessionNotFoundError(id string) *PlanError {
	return New(KindSessionNotFound, fmt.Sprintf("session %q not found", id), id)
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *PlanError {
	return New(KindIO, fmt.Sprintf("file not found: %s", path)).
		WithCode(ErrCodeFileNotFound).
		WithSuggestion("Check if the file path is correct")
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *PlanError {
	return Wrap(KindIO, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithCode(ErrCodeFileUnmarshal).
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}

// NewFileReadError reports a file that exists but could not be read
func NewFileReadError(path string, cause error) *PlanError {
	return Wrap(KindIO, fmt.Sprintf("failed to read file: %s", path), cause).
		WithCode(ErrCodeFileReadFailed)
}

// NewFileWriteError reports a file that could not be written
func NewFileWriteError(path string, cause error) *PlanError {
	return Wrap(KindIO, fmt.Sprintf("failed to write file: %s", path), cause).
		WithCode(ErrCodeFileWriteFailed).
		WithSuggestion("Check that the directory exists and is writable")
}

// NewUnsupportedFileError reports a file whose extension names no known format
func NewUnsupportedFileError(path string, want ...string) *PlanError {
	return New(KindIO, fmt.Sprintf("unsupported file extension %q: %s", filepath.Ext(path), path)).
		WithCode(ErrCodeUnsupportedFile).
		WithSuggestion(fmt.Sprintf("Use one of: %s", strings.Join(want, ", ")))
}

// NewInvalidPlanFileError reports an exported plan that parses but breaks the
// wave invariants, usually because it was edited by hand
func NewInvalidPlanFileError(path string, cause error) *PlanError {
	return Wrap(KindIO, fmt.Sprintf("invalid plan file: %s", path), cause).
		WithCode(ErrCodeInvalidPlanFile).
		WithSuggestion("Re-export the plan with --out instead of editing it")
}
