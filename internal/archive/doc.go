// SPDX-License-Identifier: MPL-2.0

// Package archive unpacks .sb3 containers into scoped working directories and
// packs them back.
//
// A Workspace owns its temporary directory and removes it on Close, so callers
// defer Close right after Unpack. Pack writes a new archive next to the
// destination and renames it into place, which means the destination is
// either the old archive or the complete new one, never a partial write.
package archive
