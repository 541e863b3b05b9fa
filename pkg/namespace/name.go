// SPDX-License-Identifier: MPL-2.0

package namespace

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Separator is the reserved token between a module name and a local id.
// It is not accepted in module names, so its presence marks an id as tagged.
const Separator = "Ω"

var (
	// ErrInvalidModuleName is returned when a ModuleName value does not match
	// the required format.
	ErrInvalidModuleName = errors.New("invalid module name")

	// moduleNamePattern: starts with a letter, followed by letters, digits,
	// dots, underscores, or hyphens.
	moduleNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._-]*$`)

	nameRunPattern = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
)

type (
	// ModuleName identifies an installed module and owns every id tagged with it.
	ModuleName string

	// Tag is a module name followed by Separator.
	Tag string

	// InvalidModuleNameError is returned when a ModuleName value does not match
	// the required format. It wraps ErrInvalidModuleName for errors.Is() compatibility.
	InvalidModuleNameError struct {
		Value ModuleName
	}
)

// String returns the string representation of the ModuleName.
func (n ModuleName) String() string { return string(n) }

// Validate returns nil if the ModuleName is non-empty, starts with a letter and
// contains only letters, digits, dots, underscores, or hyphens.
func (n ModuleName) Validate() error {
	if n == "" || !moduleNamePattern.MatchString(string(n)) {
		return &InvalidModuleNameError{Value: n}
	}
	return nil
}

// Tag returns the id prefix owned by the module.
func (n ModuleName) Tag() Tag { return Tag(string(n) + Separator) }

// Error implements the error interface for InvalidModuleNameError.
func (e *InvalidModuleNameError) Error() string {
	return fmt.Sprintf(
		"invalid module name %q: must start with a letter and contain only letters, digits, dots, underscores, or hyphens",
		string(e.Value),
	)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidModuleNameError) Unwrap() error {
	return ErrInvalidModuleName
}

// NameFromStem derives a valid module name from an archive file stem such as
// "My Game (2)". Runs of other characters collapse to a single hyphen.
func NameFromStem(stem string) ModuleName {
	name := nameRunPattern.ReplaceAllString(strings.TrimSpace(stem), "-")
	name = strings.Trim(name, "-._")
	if name == "" {
		return "project"
	}
	if c := name[0]; !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
		name = "p" + name
	}
	return ModuleName(name)
}

// IsTagged reports whether id already carries a module tag.
func IsTagged(id string) bool { return strings.Contains(id, Separator) }

// Owner returns the module name an id is tagged with, or "" for untagged ids.
func Owner(id string) ModuleName {
	name, _, ok := strings.Cut(id, Separator)
	if !ok {
		return ""
	}
	return ModuleName(name)
}

// Apply returns id tagged with t. Empty and already tagged ids are returned unchanged.
func (t Tag) Apply(id string) string {
	if id == "" || IsTagged(id) {
		return id
	}
	return string(t) + id
}

// Owns reports whether id was tagged with t.
func (t Tag) Owns(id string) bool { return strings.HasPrefix(id, string(t)) }
