// SPDX-License-Identifier: MPL-2.0

package namespace

import (
	"errors"
	"fmt"
)

// ErrMalformedGraph is the sentinel error wrapped by MalformedGraphError.
var ErrMalformedGraph = errors.New("malformed block graph")

// MalformedGraphError reports a block graph that cannot be namespaced
// consistently: a definition without its custom_block input, a procedure
// without a mutation, an unparsable argument id list, or an input that points
// at a block the target does not contain.
type MalformedGraphError struct {
	Target  string
	BlockID string
	Reason  string
	Err     error
}

// Error implements the error interface.
func (e *MalformedGraphError) Error() string {
	msg := fmt.Sprintf("%s: target %q block %q: %s", ErrMalformedGraph, e.Target, e.BlockID, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns ErrMalformedGraph and the underlying cause.
func (e *MalformedGraphError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedGraph}
	}
	return []error{ErrMalformedGraph, e.Err}
}
