// SPDX-License-Identifier: MPL-2.0

package namespace

import (
	"slices"

	"github.com/spmkit/spm/pkg/project"
)

// Namespace tags every identifier of t with name and normalizes local
// variables and lists to be keyed by their names.
//
// The graph is checked before anything is rewritten, so a MalformedGraphError
// leaves t unchanged. Calling Namespace again with the same name is a no-op.
func Namespace(t *project.Target, name ModuleName) error {
	if err := name.Validate(); err != nil {
		return err
	}
	if err := check(t); err != nil {
		return err
	}

	tag := name.Tag()
	localData := rekeyData(t)

	blocks := make(map[string]*project.Block, len(t.Blocks))
	for _, id := range t.SortedBlockIDs() {
		b := t.Blocks[id]
		if err := rewriteBlock(tag, b, localData); err != nil {
			return &MalformedGraphError{Target: t.Name, BlockID: id, Reason: "cannot rewrite argument ids", Err: err}
		}
		blocks[tag.Apply(id)] = b
	}
	t.Blocks = blocks

	comments := make(map[string]*project.Comment, len(t.Comments))
	for id, c := range t.Comments {
		if id == project.RegistryCommentID {
			comments[id] = c
			continue
		}
		c.BlockID = tag.Apply(c.BlockID)
		comments[tag.Apply(id)] = c
	}
	t.Comments = comments
	return nil
}

// check validates every graph edge that Namespace has to follow.
func check(t *project.Target) error {
	for _, id := range t.SortedBlockIDs() {
		b := t.Blocks[id]
		if b.Primitive != nil {
			continue
		}
		malformed := func(reason string, err error) error {
			return &MalformedGraphError{Target: t.Name, BlockID: id, Reason: reason, Err: err}
		}
		for _, key := range sortedInputKeys(b) {
			for _, slot := range b.Inputs[key].Slots {
				if slot.ID == "" {
					continue
				}
				if _, ok := t.Blocks[slot.ID]; !ok {
					return malformed("input "+key+" references missing block "+slot.ID, nil)
				}
			}
		}
		switch b.Opcode {
		case project.OpcodeProcedureDefinition:
			in, ok := b.Inputs[project.InputCustomBlock]
			if !ok || len(in.Slots) == 0 || in.Slots[0].ID == "" {
				return malformed("procedure definition has no custom_block input", nil)
			}
		case project.OpcodeProcedurePrototype, project.OpcodeProcedureCall:
			if b.Mutation == nil {
				return malformed(b.Opcode+" has no mutation", nil)
			}
			if _, err := b.Mutation.ArgIDs(); err != nil {
				return malformed("unparsable argument id list", err)
			}
		}
	}
	return nil
}

// rekeyData re-keys variables and lists by name and returns the set of ids
// (old and new) that now resolve to a local variable or list.
func rekeyData(t *project.Target) map[string]struct{} {
	local := make(map[string]struct{}, len(t.Variables)+len(t.Lists))

	vars := make(map[string]*project.Variable, len(t.Variables))
	for _, id := range sortedKeys(t.Variables) {
		v := t.Variables[id]
		vars[v.Name] = v
		local[id] = struct{}{}
		local[v.Name] = struct{}{}
	}
	t.Variables = vars

	lists := make(map[string]*project.List, len(t.Lists))
	for _, id := range sortedKeys(t.Lists) {
		l := t.Lists[id]
		lists[l.Name] = l
		local[id] = struct{}{}
		local[l.Name] = struct{}{}
	}
	t.Lists = lists
	return local
}

func rewriteBlock(tag Tag, b *project.Block, localData map[string]struct{}) error {
	if b.Primitive != nil {
		if b.Primitive.Type.IsDataReference() {
			b.Primitive.CollapseRefID()
		}
		return nil
	}

	b.Next = tag.Apply(b.Next)
	b.Parent = tag.Apply(b.Parent)
	if id := b.CommentID(); id != "" {
		if err := b.SetCommentID(tag.Apply(id)); err != nil {
			return err
		}
	}

	for _, in := range b.Inputs {
		for i := range in.Slots {
			slot := &in.Slots[i]
			if slot.Primitive != nil {
				collapse(in.Kind, slot.Primitive, localData)
				continue
			}
			slot.ID = tag.Apply(slot.ID)
		}
	}

	for key, f := range b.Fields {
		if key != project.FieldVariable && key != project.FieldList {
			continue
		}
		if _, ok := localData[f.ID()]; ok {
			f.CollapseID()
		}
	}

	if b.Opcode != project.OpcodeProcedurePrototype && b.Opcode != project.OpcodeProcedureCall {
		return nil
	}
	ids, err := b.Mutation.ArgIDs()
	if err != nil {
		return err
	}
	if ids != nil {
		for i, id := range ids {
			ids[i] = tag.Apply(id)
		}
		if err := b.Mutation.SetArgIDs(ids); err != nil {
			return err
		}
	}
	inputs := make(map[string]*project.Input, len(b.Inputs))
	for key, in := range b.Inputs {
		inputs[tag.Apply(key)] = in
	}
	b.Inputs = inputs
	return nil
}

// collapse points a data reporter inside an input at its name. A variable
// reporter placed over a shadow is collapsed whether or not the variable is
// local, since the runtime falls back to a lookup by name. Other reporters
// are collapsed only when they name local data.
func collapse(kind project.InputKind, p *project.Primitive, localData map[string]struct{}) {
	if !p.Type.IsDataReference() {
		return
	}
	if kind == project.InputBlockOrLiteral && p.Type == project.PrimitiveVariable {
		p.CollapseRefID()
		return
	}
	if _, ok := localData[p.RefID()]; ok {
		p.CollapseRefID()
	}
}

func sortedInputKeys(b *project.Block) []string {
	return sortedKeys(b.Inputs)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
