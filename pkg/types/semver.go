// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// DefaultVersion is recorded for modules that do not declare a version.
const DefaultVersion SemVer = "0.0.0"

// ErrInvalidSemVer is the sentinel error wrapped by InvalidSemVerError.
var ErrInvalidSemVer = errors.New("invalid semver")

type (
	// SemVer represents a concrete semantic version string (e.g., "1.0.0", "v2.3.4-alpha.1").
	// The leading "v" is optional; Canonical strips it.
	SemVer string

	// InvalidSemVerError is returned when a SemVer value does not match
	// the expected semantic version format.
	InvalidSemVerError struct {
		Value SemVer
	}
)

// Error implements the error interface.
func (e *InvalidSemVerError) Error() string {
	return fmt.Sprintf("invalid semver %q (expected MAJOR.MINOR.PATCH)", e.Value)
}

// Unwrap returns ErrInvalidSemVer so callers can use errors.Is for programmatic detection.
func (e *InvalidSemVerError) Unwrap() error { return ErrInvalidSemVer }

// String returns the string representation of the SemVer.
func (s SemVer) String() string { return string(s) }

// IsValid returns whether the SemVer is a valid semantic version string,
// and a list of validation errors if it is not.
func (s SemVer) IsValid() (bool, []error) {
	if !semver.IsValid(s.prefixed()) {
		return false, []error{&InvalidSemVerError{Value: s}}
	}
	return true, nil
}

// Canonical returns the version without the leading "v", with missing minor and
// patch components filled in ("1.2" becomes "1.2.0"). Invalid versions are
// returned unchanged.
func (s SemVer) Canonical() SemVer {
	c := semver.Canonical(s.prefixed())
	if c == "" {
		return s
	}
	return SemVer(strings.TrimPrefix(c, "v"))
}

// Compare returns -1, 0 or +1 depending on whether s is lower than, equal to,
// or greater than other. An invalid version sorts below every valid one.
func (s SemVer) Compare(other SemVer) int {
	return semver.Compare(s.prefixed(), other.prefixed())
}

func (s SemVer) prefixed() string {
	if strings.HasPrefix(string(s), "v") {
		return string(s)
	}
	return "v" + string(s)
}
