// SPDX-License-Identifier: MPL-2.0

// Package projecttest provides test helpers for building project documents,
// targets, blocks and .sb3 archives.
//
// This package is separate from testutil so that testutil stays free of
// domain imports.
//
// # Usage
//
//	import "github.com/spmkit/spm/internal/testutil/projecttest"
//
//	sprite := projecttest.NewTarget("Main",
//	    projecttest.WithBlock("b1", projecttest.Stack("motion_movesteps", "b2", "")),
//	    projecttest.WithBlock("b2", projecttest.Stack("looks_show", "", "b1")),
//	)
//	p := projecttest.NewProject(sprite)
//	path := projecttest.WriteArchive(t, t.TempDir(), "host.sb3", p, nil)
package projecttest
