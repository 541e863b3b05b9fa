// SPDX-License-Identifier: MPL-2.0

package projecttest

import (
	"encoding/json"
	"slices"

	"github.com/spmkit/spm/pkg/project"
)

// BlockOption configures a test block.
type BlockOption func(*project.Block)

// Stack creates a stack block. A block without a parent is top-level at (48, 64).
func Stack(opcode, next, parent string, opts ...BlockOption) *project.Block {
	b := &project.Block{
		Opcode: opcode,
		Next:   next,
		Parent: parent,
		Inputs: map[string]*project.Input{},
		Fields: map[string]project.Field{},
	}
	if parent == "" {
		x, y := 48.0, 64.0
		b.TopLevel = true
		b.X, b.Y = &x, &y
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Definition creates a top-level procedures_definition whose custom_block
// input points at prototypeID.
func Definition(prototypeID, next string, opts ...BlockOption) *project.Block {
	opts = append([]BlockOption{WithBlockInput(project.InputCustomBlock, prototypeID)}, opts...)
	return Stack(project.OpcodeProcedureDefinition, next, "", opts...)
}

// Prototype creates a procedures_prototype shadow. args maps argument ids to
// the argument reporter blocks wired into the prototype.
func Prototype(parent, proccode string, args map[string]string) *project.Block {
	b := Stack(project.OpcodeProcedurePrototype, "", parent)
	b.Shadow = true
	ids := make([]string, 0, len(args))
	for id := range args {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		b.Inputs[id] = &project.Input{Kind: project.InputLiteral, Slots: []project.Slot{{ID: args[id]}}}
	}
	b.Mutation = newMutation(proccode, ids)
	return b
}

// Call creates a procedures_call with an empty text literal per argument id.
func Call(next, parent, proccode string, argIDs ...string) *project.Block {
	b := Stack(project.OpcodeProcedureCall, next, parent)
	for _, id := range argIDs {
		b.Inputs[id] = &project.Input{Kind: project.InputLiteral, Slots: []project.Slot{{Primitive: Literal(project.PrimitiveText, "")}}}
	}
	b.Mutation = newMutation(proccode, argIDs)
	return b
}

// ArgumentReporter creates the string/number argument reporter of a prototype.
func ArgumentReporter(parent, name string) *project.Block {
	b := Stack("argument_reporter_string_number", "", parent)
	b.Shadow = true
	b.Fields["VALUE"] = project.Field{mustRaw(name), json.RawMessage("null")}
	return b
}

// WithBlockInput wires a block id into an input of kind 2.
func WithBlockInput(name, id string) BlockOption {
	return func(b *project.Block) {
		kind := project.InputBlockRef
		if name == project.InputCustomBlock {
			kind = project.InputLiteral
		}
		b.Inputs[name] = &project.Input{Kind: kind, Slots: []project.Slot{{ID: id}}}
	}
}

// WithShadowedInput wires a block id over a literal shadow (kind 3).
func WithShadowedInput(name string, top project.Slot, shadow *project.Primitive) BlockOption {
	return func(b *project.Block) {
		b.Inputs[name] = &project.Input{Kind: project.InputBlockOrLiteral, Slots: []project.Slot{top, {Primitive: shadow}}}
	}
}

// WithVariableField sets a VARIABLE field [name, id].
func WithVariableField(name, id string) BlockOption {
	return func(b *project.Block) {
		b.Fields[project.FieldVariable] = project.Field{mustRaw(name), mustRaw(id)}
	}
}

// WithListField sets a LIST field [name, id].
func WithListField(name, id string) BlockOption {
	return func(b *project.Block) {
		b.Fields[project.FieldList] = project.Field{mustRaw(name), mustRaw(id)}
	}
}

// WithCommentRef attaches a comment id to the block.
func WithCommentRef(id string) BlockOption {
	return func(b *project.Block) {
		if err := b.SetCommentID(id); err != nil {
			panic(err)
		}
	}
}

// Literal builds a literal primitive such as [4, "10"].
func Literal(typ project.PrimitiveType, value string) *project.Primitive {
	return &project.Primitive{Type: typ, Args: []json.RawMessage{mustRaw(value)}}
}

// Ref builds a broadcast, variable or list reference [type, name, id].
func Ref(typ project.PrimitiveType, name, id string) *project.Primitive {
	return &project.Primitive{Type: typ, Args: []json.RawMessage{mustRaw(name), mustRaw(id)}}
}

// CanvasRef builds a loose reporter block [type, name, id, x, y].
func CanvasRef(typ project.PrimitiveType, name, id string, x, y float64) *project.Block {
	p := Ref(typ, name, id)
	p.Args = append(p.Args, mustRaw(x), mustRaw(y))
	return &project.Block{Primitive: p}
}

func newMutation(proccode string, argIDs []string) *project.Mutation {
	m := &project.Mutation{ProcCode: proccode}
	if err := m.SetArgIDs(argIDs); err != nil {
		panic(err)
	}
	return m
}

func mustRaw(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
