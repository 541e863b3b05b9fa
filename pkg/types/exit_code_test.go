// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"testing"
)

func TestExitCodeValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     ExitCode
		wantValid bool
	}{
		{name: "zero is valid", value: ExitOK, wantValid: true},
		{name: "not found is valid", value: ExitNotFound, wantValid: true},
		{name: "255 is valid", value: 255, wantValid: true},
		{name: "negative is invalid", value: -1, wantValid: false},
		{name: "256 is invalid", value: 256, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.value.Validate()
			if (err == nil) != tt.wantValid {
				t.Fatalf("ExitCode(%d).Validate() error = %v, wantValid %v", tt.value, err, tt.wantValid)
			}
			if !tt.wantValid && !errors.Is(err, ErrInvalidExitCode) {
				t.Errorf("error does not wrap ErrInvalidExitCode: %v", err)
			}
		})
	}
}

func TestExitCodeClasses(t *testing.T) {
	t.Parallel()

	codes := []ExitCode{ExitOK, ExitFailure, ExitInputFormat, ExitMalformedGraph, ExitNotFound}
	seen := make(map[ExitCode]bool, len(codes))
	for _, c := range codes {
		if seen[c] {
			t.Errorf("exit code %d used by more than one class", c)
		}
		seen[c] = true
	}

	if !ExitOK.IsSuccess() {
		t.Error("ExitOK.IsSuccess() = false")
	}
	if ExitNotFound.IsSuccess() {
		t.Error("ExitNotFound.IsSuccess() = true")
	}
	if got := ExitMalformedGraph.String(); got != "3" {
		t.Errorf("ExitMalformedGraph.String() = %q, want %q", got, "3")
	}
}
