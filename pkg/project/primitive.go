// SPDX-License-Identifier: MPL-2.0

package project

import (
	"encoding/json"
	"fmt"
)

// Primitive type codes used in compressed input slots and top-level arrays.
const (
	PrimitiveMathNumber     PrimitiveType = 4
	PrimitivePositiveNumber PrimitiveType = 5
	PrimitiveWholeNumber    PrimitiveType = 6
	PrimitiveInteger        PrimitiveType = 7
	PrimitiveAngle          PrimitiveType = 8
	PrimitiveColor          PrimitiveType = 9
	PrimitiveText           PrimitiveType = 10
	PrimitiveBroadcast      PrimitiveType = 11
	PrimitiveVariable       PrimitiveType = 12
	PrimitiveList           PrimitiveType = 13
)

type (
	// PrimitiveType is the leading code of a primitive array.
	PrimitiveType int

	// Primitive is a compressed literal or reference: [type, args...].
	// Reference primitives (broadcast, variable, list) carry [type, name, id]
	// and, when they sit loose on the canvas, trailing x and y.
	Primitive struct {
		Type PrimitiveType
		Args []json.RawMessage
	}
)

// IsReference reports whether p names a variable, list or broadcast.
func (t PrimitiveType) IsReference() bool {
	return t == PrimitiveBroadcast || t == PrimitiveVariable || t == PrimitiveList
}

// IsDataReference reports whether p names a variable or a list.
func (t PrimitiveType) IsDataReference() bool {
	return t == PrimitiveVariable || t == PrimitiveList
}

// Name returns the first argument decoded as a string.
func (p *Primitive) Name() string { return p.stringArg(0) }

// RefID returns the id argument of a reference primitive.
func (p *Primitive) RefID() string { return p.stringArg(1) }

// SetRefID replaces the id argument of a reference primitive.
func (p *Primitive) SetRefID(id string) {
	if len(p.Args) < 2 {
		return
	}
	raw, err := marshalNoEscape(id)
	if err != nil {
		return
	}
	p.Args[1] = raw
}

// CollapseRefID makes the id argument equal to the name argument, which is
// how data references stay valid after variables are keyed by name.
func (p *Primitive) CollapseRefID() {
	if len(p.Args) < 2 {
		return
	}
	p.Args[1] = append(json.RawMessage(nil), p.Args[0]...)
}

// SetPosition moves a canvas primitive. Primitives without a position are left alone.
func (p *Primitive) SetPosition(x, y float64) {
	if len(p.Args) < 4 {
		return
	}
	p.Args[2] = json.RawMessage(formatCoord(x))
	p.Args[3] = json.RawMessage(formatCoord(y))
}

func (p *Primitive) stringArg(i int) string {
	if i >= len(p.Args) {
		return ""
	}
	var s string
	if err := json.Unmarshal(p.Args[i], &s); err != nil {
		return ""
	}
	return s
}

// UnmarshalJSON decodes a primitive array.
func (p *Primitive) UnmarshalJSON(data []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) == 0 {
		return fmt.Errorf("empty primitive array")
	}
	var code int
	if err := json.Unmarshal(arr[0], &code); err != nil {
		return fmt.Errorf("primitive type: %w", err)
	}
	p.Type = PrimitiveType(code)
	p.Args = arr[1:]
	return nil
}

// MarshalJSON encodes the primitive back to its array form.
func (p *Primitive) MarshalJSON() ([]byte, error) {
	arr := make([]json.RawMessage, 0, len(p.Args)+1)
	arr = append(arr, json.RawMessage(fmt.Sprintf("%d", p.Type)))
	arr = append(arr, p.Args...)
	return marshalNoEscape(arr)
}

func formatCoord(v float64) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "0"
	}
	return string(raw)
}
