// SPDX-License-Identifier: MPL-2.0

package project

import (
	"encoding/json"
	"fmt"
)

type (
	// Variable is a [name, value] or [name, value, true] entry; the trailing
	// true marks a cloud variable.
	Variable struct {
		Name  string
		Value json.RawMessage
		Cloud bool
	}

	// List is a [name, [values...]] entry.
	List struct {
		Name   string
		Values json.RawMessage
	}
)

// UnmarshalJSON decodes the variable array.
func (v *Variable) UnmarshalJSON(data []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) < 2 {
		return fmt.Errorf("variable entry needs a name and a value, got %d elements", len(arr))
	}
	if err := json.Unmarshal(arr[0], &v.Name); err != nil {
		return fmt.Errorf("variable name: %w", err)
	}
	v.Value = arr[1]
	if len(arr) > 2 {
		if err := json.Unmarshal(arr[2], &v.Cloud); err != nil {
			return fmt.Errorf("variable cloud flag: %w", err)
		}
	}
	return nil
}

// MarshalJSON encodes the variable array.
func (v *Variable) MarshalJSON() ([]byte, error) {
	value := v.Value
	if value == nil {
		value = json.RawMessage("0")
	}
	arr := []any{v.Name, value}
	if v.Cloud {
		arr = append(arr, true)
	}
	return marshalNoEscape(arr)
}

// UnmarshalJSON decodes the list array.
func (l *List) UnmarshalJSON(data []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) < 2 {
		return fmt.Errorf("list entry needs a name and values, got %d elements", len(arr))
	}
	if err := json.Unmarshal(arr[0], &l.Name); err != nil {
		return fmt.Errorf("list name: %w", err)
	}
	l.Values = arr[1]
	return nil
}

// MarshalJSON encodes the list array.
func (l *List) MarshalJSON() ([]byte, error) {
	values := l.Values
	if values == nil {
		values = json.RawMessage("[]")
	}
	return marshalNoEscape([]any{l.Name, values})
}
