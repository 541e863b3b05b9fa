// SPDX-License-Identifier: MPL-2.0

// Package namespace rewrites the identifiers of one target's block graph into
// a form owned by a module name.
//
// Every block id, comment id, procedure argument id and graph edge of the
// target is prefixed with the module tag (the module name followed by the
// reserved separator Ω). Ids that already contain the separator are left
// alone, which makes Namespace idempotent and lets a host that was namespaced
// under its own name safely receive graphs namespaced under other names.
package namespace
