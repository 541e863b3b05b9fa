// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"testing"
)

func TestSemVerIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		version SemVer
		want    bool
	}{
		{"1.0.0", true},
		{"v1.0.0", true},
		{"2.3.4-alpha.1", true},
		{"1.2", true},
		{"", false},
		{"latest", false},
		{"1.0.0.0", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.version), func(t *testing.T) {
			t.Parallel()

			ok, errs := tt.version.IsValid()
			if ok != tt.want {
				t.Fatalf("SemVer(%q).IsValid() = %v, want %v", tt.version, ok, tt.want)
			}
			if !ok && !errors.Is(errs[0], ErrInvalidSemVer) {
				t.Errorf("error should wrap ErrInvalidSemVer, got %v", errs[0])
			}
		})
	}
}

func TestSemVerCanonicalAndCompare(t *testing.T) {
	t.Parallel()

	if got := SemVer("v1.2").Canonical(); got != "1.2.0" {
		t.Errorf("Canonical() = %q, want %q", got, "1.2.0")
	}
	if got := SemVer("nope").Canonical(); got != "nope" {
		t.Errorf("Canonical() of invalid version = %q, want it unchanged", got)
	}
	if SemVer("1.0.0").Compare("1.1.0") != -1 {
		t.Error("1.0.0 should sort before 1.1.0")
	}
	if SemVer("v2.0.0").Compare("2.0.0") != 0 {
		t.Error("v2.0.0 and 2.0.0 should compare equal")
	}
	if SemVer("1.0.0").Compare("garbage") != 1 {
		t.Error("a valid version should sort above an invalid one")
	}
}
