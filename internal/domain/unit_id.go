package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// UnitID identifies an atomic unit within one planning session.
// This is a value object: any non-empty string without whitespace or control
// characters is accepted, so upstream planners keep their own naming schemes.
type UnitID string

// maxUnitIDLength is the maximum allowed length for a unit ID
const maxUnitIDLength = 200

// NewUnitID creates a new UnitID value object with validation
func NewUnitID(value string) (UnitID, error) {
	id := UnitID(value)
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

// Validate checks if the unit ID is valid
func (u UnitID) Validate() error {
	s := string(u)

	if s == "" {
		return fmt.Errorf("unit ID cannot be empty")
	}

	if len(s) > maxUnitIDLength {
		return fmt.Errorf("unit ID %q exceeds maximum length of %d characters", s, maxUnitIDLength)
	}

	if strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) >= 0 {
		return fmt.Errorf("unit ID %q cannot contain whitespace or control characters", s)
	}

	return nil
}

// String returns the string representation
func (u UnitID) String() string {
	return string(u)
}
