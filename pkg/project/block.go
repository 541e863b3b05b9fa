// SPDX-License-Identifier: MPL-2.0

package project

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Input kinds.
const (
	// InputLiteral holds a shadow block or literal only.
	InputLiteral InputKind = 1
	// InputBlockRef holds a block with no shadow behind it.
	InputBlockRef InputKind = 2
	// InputBlockOrLiteral holds a block obscuring a shadow slot.
	InputBlockOrLiteral InputKind = 3
)

// Well-known opcodes and input names of the procedure machinery.
const (
	OpcodeProcedureDefinition = "procedures_definition"
	OpcodeProcedurePrototype  = "procedures_prototype"
	OpcodeProcedureCall       = "procedures_call"
	InputCustomBlock          = "custom_block"

	FieldVariable  = "VARIABLE"
	FieldList      = "LIST"
	FieldBroadcast = "BROADCAST_OPTION"
)

type (
	// InputKind is the leading code of an input array.
	InputKind int

	// Block is one entry of a target's block map. Exactly one of Primitive or
	// Opcode is meaningful: a Primitive marks a loose reporter stored as a bare
	// array, otherwise the remaining fields describe a regular block.
	Block struct {
		Primitive *Primitive

		Opcode   string
		Next     string
		Parent   string
		Inputs   map[string]*Input
		Fields   map[string]Field
		Shadow   bool
		TopLevel bool
		X        *float64
		Y        *float64
		Mutation *Mutation

		extra members
	}

	// Input is an [kind, slot, shadowSlot?] array.
	Input struct {
		Kind  InputKind
		Slots []Slot
	}

	// Slot is one element of an input array. The zero Slot is JSON null.
	Slot struct {
		ID        string
		Primitive *Primitive
	}

	// Field is a [value, id?] array.
	Field []json.RawMessage
)

// IsTopLevel reports whether the block starts a script on the canvas.
func (b *Block) IsTopLevel() bool {
	return b.Primitive != nil || b.TopLevel
}

// SetPosition moves a top-level block or canvas primitive.
func (b *Block) SetPosition(x, y float64) {
	if b.Primitive != nil {
		b.Primitive.SetPosition(x, y)
		return
	}
	b.X, b.Y = &x, &y
}

// CommentID returns the id of the comment attached to the block, if any.
func (b *Block) CommentID() string {
	raw, ok := b.extra["comment"]
	if !ok {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return ""
	}
	return id
}

// SetCommentID re-points the attached comment reference.
func (b *Block) SetCommentID(id string) error {
	if b.extra == nil {
		b.extra = members{}
	}
	return b.extra.set("comment", id)
}

// UnmarshalJSON decodes either block shape.
func (b *Block) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		b.Primitive = &Primitive{}
		return b.Primitive.UnmarshalJSON(trimmed)
	}
	m, err := readMembers(data)
	if err != nil {
		return err
	}
	if err := m.decode("opcode", &b.Opcode); err != nil {
		return err
	}
	if err := decodeNullableID(m, "next", &b.Next); err != nil {
		return err
	}
	if err := decodeNullableID(m, "parent", &b.Parent); err != nil {
		return err
	}
	if err := m.decode("inputs", &b.Inputs); err != nil {
		return err
	}
	if err := m.decode("fields", &b.Fields); err != nil {
		return err
	}
	if err := m.decode("shadow", &b.Shadow); err != nil {
		return err
	}
	if err := m.decode("topLevel", &b.TopLevel); err != nil {
		return err
	}
	if err := m.decode("x", &b.X); err != nil {
		return err
	}
	if err := m.decode("y", &b.Y); err != nil {
		return err
	}
	if err := m.decode("mutation", &b.Mutation); err != nil {
		return err
	}
	b.extra = m
	return nil
}

// MarshalJSON encodes the block in the shape it was read in.
func (b *Block) MarshalJSON() ([]byte, error) {
	if b.Primitive != nil {
		return b.Primitive.MarshalJSON()
	}
	out := b.extra.clone()
	inputs := b.Inputs
	if inputs == nil {
		inputs = map[string]*Input{}
	}
	fields := b.Fields
	if fields == nil {
		fields = map[string]Field{}
	}
	pairs := []struct {
		key string
		val any
	}{
		{"opcode", b.Opcode},
		{"next", nullableID(b.Next)},
		{"parent", nullableID(b.Parent)},
		{"inputs", inputs},
		{"fields", fields},
		{"shadow", b.Shadow},
		{"topLevel", b.TopLevel},
	}
	for _, p := range pairs {
		if err := out.set(p.key, p.val); err != nil {
			return nil, err
		}
	}
	if b.X != nil {
		if err := out.set("x", *b.X); err != nil {
			return nil, err
		}
	}
	if b.Y != nil {
		if err := out.set("y", *b.Y); err != nil {
			return nil, err
		}
	}
	if b.Mutation != nil {
		if err := out.set("mutation", b.Mutation); err != nil {
			return nil, err
		}
	}
	return out.marshal()
}

// IsNull reports whether the slot is JSON null.
func (s Slot) IsNull() bool { return s.ID == "" && s.Primitive == nil }

// UnmarshalJSON decodes an input array.
func (in *Input) UnmarshalJSON(data []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) < 2 {
		return fmt.Errorf("input array needs a kind and at least one slot, got %d elements", len(arr))
	}
	var kind int
	if err := json.Unmarshal(arr[0], &kind); err != nil {
		return fmt.Errorf("input kind: %w", err)
	}
	in.Kind = InputKind(kind)
	in.Slots = make([]Slot, 0, len(arr)-1)
	for i, raw := range arr[1:] {
		var s Slot
		if err := s.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("input slot %d: %w", i+1, err)
		}
		in.Slots = append(in.Slots, s)
	}
	return nil
}

// MarshalJSON encodes the input array.
func (in *Input) MarshalJSON() ([]byte, error) {
	arr := make([]any, 0, len(in.Slots)+1)
	arr = append(arr, int(in.Kind))
	for _, s := range in.Slots {
		arr = append(arr, s)
	}
	return marshalNoEscape(arr)
}

// UnmarshalJSON decodes null, a block id or a primitive array.
func (s *Slot) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*s = Slot{}
		return nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		return json.Unmarshal(trimmed, &s.ID)
	case len(trimmed) > 0 && trimmed[0] == '[':
		s.Primitive = &Primitive{}
		return s.Primitive.UnmarshalJSON(trimmed)
	default:
		return fmt.Errorf("unexpected input slot %s", trimmed)
	}
}

// MarshalJSON encodes the slot.
func (s Slot) MarshalJSON() ([]byte, error) {
	switch {
	case s.Primitive != nil:
		return s.Primitive.MarshalJSON()
	case s.ID != "":
		return marshalNoEscape(s.ID)
	default:
		return []byte("null"), nil
	}
}

// Value returns the display value of the field.
func (f Field) Value() string { return f.stringAt(0) }

// ID returns the referenced id of the field, or "" when it has none.
func (f Field) ID() string { return f.stringAt(1) }

// CollapseID makes the field's id equal to its value.
func (f Field) CollapseID() {
	if len(f) < 2 {
		return
	}
	var id *string
	if err := json.Unmarshal(f[1], &id); err != nil || id == nil {
		return
	}
	f[1] = append(json.RawMessage(nil), f[0]...)
}

func (f Field) stringAt(i int) string {
	if i >= len(f) {
		return ""
	}
	var s string
	if err := json.Unmarshal(f[i], &s); err != nil {
		return ""
	}
	return s
}
