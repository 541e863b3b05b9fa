// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for spm.
//
// This package implements the Cobra command hierarchy for the spm CLI: the
// root command, the add, remove, list and info commands that drive
// internal/app, and the config and completion utilities.
package cmd
