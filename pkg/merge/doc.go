// SPDX-License-Identifier: MPL-2.0

// Package merge combines a namespaced module target into a host target and
// removes it again.
//
// Adding a module unions variables and lists by name (module wins), copies
// costumes and sounds the host does not yet have by name while recording
// which module contributed them, and replaces every block under the module
// tag with the module's exposed blocks. Removing a module drops every block
// and comment under its tag, the assets it owns, and its registry entry.
// Variables and lists are left in place on removal because host scripts may
// use them.
//
// The engine only mutates in-memory documents; payload files go through the
// AssetStore so callers decide where and when bytes are written.
package merge
