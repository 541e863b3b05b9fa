// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers that isolate tests from the developer's
// environment: working directory, home directory and SPM_* variables.
//
// Fixture builders for projects and archives live in the projecttest
// subpackage.
package testutil
