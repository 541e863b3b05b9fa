// SPDX-License-Identifier: MPL-2.0

// Package app orchestrates the spm commands: it unpacks archives, resolves the
// host and module sprites, runs the namespacer and merge engine, and packs the
// host archive back once every mutation has succeeded.
package app
