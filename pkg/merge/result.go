// SPDX-License-Identifier: MPL-2.0

package merge

import (
	"github.com/spmkit/spm/pkg/namespace"
	"github.com/spmkit/spm/pkg/types"
)

// Version changes reported by AddModule and RemoveModule.
const (
	ChangeInstall   VersionChange = "install"
	ChangeUpgrade   VersionChange = "upgrade"
	ChangeDowngrade VersionChange = "downgrade"
	ChangeReinstall VersionChange = "reinstall"
	ChangeRemove    VersionChange = "remove"
)

type (
	// VersionChange classifies an add against the installed version.
	VersionChange string

	// Removal lists what a remove (or the replace step of a re-add) dropped.
	Removal struct {
		Blocks   int
		Costumes []string
		Sounds   []string
		// Payloads are the payload files deleted because nothing referenced them anymore.
		Payloads []string
	}

	// Result summarizes one add or remove.
	Result struct {
		Module          namespace.ModuleName
		Version         types.SemVer
		PreviousVersion types.SemVer
		Change          VersionChange

		BlocksAdded    int
		BlocksFiltered int
		Variables      int
		Lists          int
		Broadcasts     int
		CostumesAdded  []string
		SoundsAdded    []string

		Removal Removal
		// Removed is set by RemoveModule when anything was removed.
		Removed bool
	}
)

func classifyChange(previous, next types.SemVer) VersionChange {
	switch c := next.Compare(previous); {
	case c > 0:
		return ChangeUpgrade
	case c < 0:
		return ChangeDowngrade
	default:
		return ChangeReinstall
	}
}
