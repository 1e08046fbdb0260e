package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(KindCycle, "test error message", "a", "b")

	if err.Code != ErrCodeCycle {
		t.Errorf("expected code %s, got %s", ErrCodeCycle, err.Code)
	}

	if err.Message != "test error message" {
		t.Errorf("expected message 'test error message', got '%s'", err.Message)
	}

	if len(err.OffendingIDs) != 2 {
		t.Errorf("expected 2 offending ids, got %v", err.OffendingIDs)
	}

	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(KindInvalidUnit, "bad unit", cause, "x")

	if err.Code != ErrCodeInvalidUnit {
		t.Errorf("expected code %s, got %s", ErrCodeInvalidUnit, err.Code)
	}

	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is on the cause")
	}
}

func TestIsMatchesByKind(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"duplicate", NewDuplicateIDError("X"), ErrDuplicateID, true},
		{"unknown dependency", NewUnknownDependencyError("Z", "A"), ErrUnknownDependency, true},
		{"cycle", NewCycleError([]string{"A", "B"}), ErrCycle, true},
		{"empty", NewEmptyInputError(), ErrEmptyInput, true},
		{"kind mismatch", NewEmptyInputError(), ErrCycle, false},
		{"wrapped", fmt.Errorf("build: %w", NewCycleError([]string{"A"})), ErrCycle, true},
		{"plain error", fmt.Errorf("boom"), ErrCycle, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(fmt.Errorf("wrap: %w", NewUnknownUnitError("q"))); got != KindUnknownUnit {
		t.Errorf("KindOf() = %q, want %q", got, KindUnknownUnit)
	}
	if got := KindOf(fmt.Errorf("plain")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
	if got := KindOf(nil); got != "" {
		t.Errorf("KindOf(nil) = %q, want empty", got)
	}
}

func TestIsConstruction(t *testing.T) {
	construction := []error{
		NewEmptyInputError(),
		NewDuplicateIDError("a"),
		NewUnknownDependencyError("a", "b"),
		NewCycleError([]string{"a"}),
		NewInvalidUnitError("a", fmt.Errorf("bad")),
	}
	for _, err := range construction {
		if !IsConstruction(err) {
			t.Errorf("expected %v to be a construction error", err)
		}
	}

	if IsConstruction(NewUnknownUnitError("a")) {
		t.Error("unknown unit is a replan error, not a construction error")
	}
	if IsConstruction(NewCancelledError(context.Canceled)) {
		t.Error("cancellation is not a construction error")
	}
}

func TestNewCycleError(t *testing.T) {
	err := NewCycleError([]string{"A", "B", "C"})

	if !strings.Contains(err.Message, "A -> B -> C -> A") {
		t.Errorf("cycle message should show the closed path, got %q", err.Message)
	}
	if strings.Join(err.OffendingIDs, ",") != "A,B,C" {
		t.Errorf("offending ids = %v, want [A B C]", err.OffendingIDs)
	}
}

func TestNewUnknownDependencyError(t *testing.T) {
	err := NewUnknownDependencyError("Z", "A")

	if err.OffendingIDs[0] != "Z" {
		t.Errorf("first offending id should be the missing unit, got %v", err.OffendingIDs)
	}
	if !strings.Contains(err.Message, `"Z"`) {
		t.Errorf("message should name the missing unit, got %q", err.Message)
	}
	if len(err.Suggestions) == 0 {
		t.Error("expected a suggestion")
	}
}

func TestErrorFormatting(t *testing.T) {
	err := NewDuplicateIDError("X")
	errStr := err.Error()

	if !strings.Contains(errStr, string(ErrCodeDuplicateID)) {
		t.Errorf("error string should contain code, got: %s", errStr)
	}
	if !strings.Contains(errStr, "Suggestions:") {
		t.Errorf("error string should contain suggestions section, got: %s", errStr)
	}

	bare := &PlanError{Kind: KindCycle}
	if bare.Error() != "Cycle" {
		t.Errorf("bare error should fall back to its kind, got %q", bare.Error())
	}
}

func TestCancelledWrapsContextError(t *testing.T) {
	err := NewCancelledError(context.Canceled)

	if !errors.Is(err, ErrCancelled) {
		t.Error("expected ErrCancelled match")
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("expected context.Canceled match through the cause")
	}
}

func TestMarshalJSON(t *testing.T) {
	data, err := json.Marshal(NewDuplicateIDError("X"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var wire struct {
		Kind         string   `json:"kind"`
		Message      string   `json:"message"`
		OffendingIDs []string `json:"offendingIds"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if wire.Kind != "DuplicateId" {
		t.Errorf("kind = %q, want DuplicateId", wire.Kind)
	}
	if len(wire.OffendingIDs) != 1 || wire.OffendingIDs[0] != "X" {
		t.Errorf("offendingIds = %v, want [X]", wire.OffendingIDs)
	}

	empty, _ := json.Marshal(NewEmptyInputError())
	if !strings.Contains(string(empty), `"offendingIds":[]`) {
		t.Errorf("empty offending ids should serialise as [], got %s", empty)
	}
}

func TestFileErrorsAreIOKind(t *testing.T) {
	cause := fmt.Errorf("boom")
	tests := []struct {
		name string
		err  *PlanError
		code ErrorCode
	}{
		{"not found", NewFileNotFoundError("plan.json"), ErrCodeFileNotFound},
		{"read", NewFileReadError("plan.json", cause), ErrCodeFileReadFailed},
		{"write", NewFileWriteError("plan.json", cause), ErrCodeFileWriteFailed},
		{"unsupported", NewUnsupportedFileError("units.txt", ".json", ".yaml"), ErrCodeUnsupportedFile},
		{"unmarshal", NewFileUnmarshalError("plan.json", "json", cause), ErrCodeFileUnmarshal},
		{"invalid plan", NewInvalidPlanFileError("plan.json", cause), ErrCodeInvalidPlanFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, ErrIO) {
				t.Errorf("expected IO kind, got %q", tt.err.Kind)
			}
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
		})
	}

	if msg := NewUnsupportedFileError("units.txt", ".json").Error(); !strings.Contains(msg, `".txt"`) {
		t.Errorf("message should name the extension, got %q", msg)
	}
}

func TestErrPlanRejected(t *testing.T) {
	err := fmt.Errorf("%w: too wide", ErrPlanRejected)
	if !errors.Is(err, ErrPlanRejected) {
		t.Error("expected ErrPlanRejected match through wrapping")
	}
	if KindOf(err) != "" {
		t.Errorf("plan rejection carries no plan error kind, got %q", KindOf(err))
	}
}
