// SPDX-License-Identifier: MPL-2.0

package project

import "encoding/json"

// RegistryCommentID is the reserved comment key that carries the module
// registry record instead of user text. It is never treated as a block or
// comment id by the namespacer.
const RegistryCommentID = "package.json"

// Comment is a workspace comment, optionally attached to a block.
type Comment struct {
	BlockID   string
	Text      string
	Minimized bool

	extra members
}

// NewComment returns a detached, minimized comment at the origin.
func NewComment(text string) *Comment {
	return &Comment{Text: text, Minimized: true, extra: members{
		"x":      json.RawMessage("0"),
		"y":      json.RawMessage("0"),
		"width":  json.RawMessage("200"),
		"height": json.RawMessage("200"),
	}}
}

// UnmarshalJSON decodes the comment keeping geometry members untouched.
func (c *Comment) UnmarshalJSON(data []byte) error {
	m, err := readMembers(data)
	if err != nil {
		return err
	}
	if err := decodeNullableID(m, "blockId", &c.BlockID); err != nil {
		return err
	}
	if err := m.decode("text", &c.Text); err != nil {
		return err
	}
	if err := m.decode("minimized", &c.Minimized); err != nil {
		return err
	}
	c.extra = m
	return nil
}

// MarshalJSON encodes the comment.
func (c *Comment) MarshalJSON() ([]byte, error) {
	out := c.extra.clone()
	if err := out.set("blockId", nullableID(c.BlockID)); err != nil {
		return nil, err
	}
	if err := out.set("text", c.Text); err != nil {
		return nil, err
	}
	if err := out.set("minimized", c.Minimized); err != nil {
		return nil, err
	}
	return out.marshal()
}
