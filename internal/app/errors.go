// SPDX-License-Identifier: MPL-2.0

package app

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// KindSprite marks a NotFoundError about a sprite.
	KindSprite NotFoundKind = "sprite"
	// KindModule marks a NotFoundError about an installed module.
	KindModule NotFoundKind = "module"
)

var (
	// ErrNotFound is the sentinel error wrapped by NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrSelfMerge is returned when the module archive is the host archive.
	ErrSelfMerge = errors.New("module archive is the host archive")
	// ErrNameClash is returned when a module would be installed under the host's own name.
	ErrNameClash = errors.New("module name equals the host name")
)

type (
	// NotFoundKind says what a NotFoundError failed to find.
	NotFoundKind string

	// NotFoundError is returned when a named sprite is missing from a project or
	// a module is not installed on the host sprite. Nothing is written when it
	// is returned. It wraps ErrNotFound for errors.Is() compatibility.
	NotFoundError struct {
		Kind NotFoundKind
		// Name is what was looked up. Empty when the project has no sprite at all.
		Name string
		// Archive is the archive that was searched.
		Archive string
		// Available lists the names that do exist.
		Available []string
		// Err is the underlying lookup error, if any.
		Err error
	}
)

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	var msg strings.Builder
	if e.Name == "" {
		fmt.Fprintf(&msg, "%s has no %s", e.Archive, e.Kind)
	} else {
		fmt.Fprintf(&msg, "%s %q not found in %s", e.Kind, e.Name, e.Archive)
	}
	if len(e.Available) > 0 {
		fmt.Fprintf(&msg, " (available: %s)", strings.Join(e.Available, ", "))
	}
	return msg.String()
}

// Unwrap returns ErrNotFound and the underlying cause.
func (e *NotFoundError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNotFound}
	}
	return []error{ErrNotFound, e.Err}
}
