// SPDX-License-Identifier: MPL-2.0

// Package project is the typed in-memory model of an unpacked project.json
// document: the ordered targets (one stage plus sprites), their variables,
// lists, broadcasts, comments, costumes, sounds and the block graph.
//
// The model only interprets the members the namespacer and merge engine need.
// Every other JSON member of the project, a target, an asset, a comment, a
// block or a mutation is kept as raw JSON and written back untouched, so a
// Parse/Marshal round trip preserves monitors, extensions, sprite geometry and
// any field newer editors add.
//
// Block map values come in two shapes:
//   - an object describing a stack or reporter block (opcode, next, parent,
//     inputs, fields, shadow, topLevel, optional x/y and mutation);
//   - a bare primitive array ([12, name, id, x, y]) for a variable, list or
//     broadcast reporter dropped loose on the canvas.
//
// Input values are [kind, slot] or [kind, slot, shadowSlot], where a slot is
// null, a block id, or a primitive array such as [4, "10"] or [12, name, id].
package project
