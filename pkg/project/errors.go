// SPDX-License-Identifier: MPL-2.0

package project

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInputFormat is the sentinel error wrapped by InputFormatError.
	ErrInputFormat = errors.New("invalid project input")
	// ErrTargetNotFound is the sentinel error wrapped by TargetNotFoundError.
	ErrTargetNotFound = errors.New("target not found")
)

type (
	// InputFormatError is returned when an archive or project document cannot be
	// used at all: unreadable container, missing project.json, invalid JSON, or a
	// document whose shape does not match the project format. It wraps
	// ErrInputFormat for errors.Is() compatibility.
	InputFormatError struct {
		// Resource is the archive, file or document path the problem was found in.
		Resource string
		// Reason describes what is wrong.
		Reason string
		// Err is the underlying cause, if any.
		Err error
	}

	// TargetNotFoundError is returned when a sprite or stage name is not present
	// in a project. It wraps ErrTargetNotFound for errors.Is() compatibility.
	TargetNotFoundError struct {
		Name      string
		Available []string
	}
)

// Error implements the error interface.
func (e *InputFormatError) Error() string {
	var msg strings.Builder
	msg.WriteString(ErrInputFormat.Error())
	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}
	if e.Reason != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Reason)
	}
	if e.Err != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Err.Error())
	}
	return msg.String()
}

// Unwrap returns ErrInputFormat and the underlying cause.
func (e *InputFormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInputFormat}
	}
	return []error{ErrInputFormat, e.Err}
}

// Error implements the error interface.
func (e *TargetNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("target %q not found", e.Name)
	}
	return fmt.Sprintf("target %q not found (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// Unwrap returns ErrTargetNotFound for errors.Is() compatibility.
func (e *TargetNotFoundError) Unwrap() error { return ErrTargetNotFound }

func formatErr(resource, reason string, err error) error {
	return &InputFormatError{Resource: resource, Reason: reason, Err: err}
}
