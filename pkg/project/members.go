// SPDX-License-Identifier: MPL-2.0

package project

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// members holds the members of a JSON object exactly as they were read.
// Typed fields are decoded out of it on load and written back over a copy of
// it on save, which keeps unknown members intact.
type members map[string]json.RawMessage

func readMembers(data []byte) (members, error) {
	var m members
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("expected a JSON object, got null")
	}
	return m, nil
}

// decode unmarshals the member named key into dst and removes it from m.
// A missing member leaves dst untouched.
func (m members) decode(key string, dst any) error {
	raw, ok := m[key]
	if !ok {
		return nil
	}
	delete(m, key)
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("member %q: %w", key, err)
	}
	return nil
}

// clone returns a shallow copy that can be filled without touching m.
func (m members) clone() members {
	out := make(members, len(m)+8)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m members) set(key string, v any) error {
	raw, err := marshalNoEscape(v)
	if err != nil {
		return fmt.Errorf("member %q: %w", key, err)
	}
	m[key] = raw
	return nil
}

func (m members) marshal() ([]byte, error) {
	return marshalNoEscape(map[string]json.RawMessage(m))
}

// marshalNoEscape encodes v without escaping <, > and & so procedure codes
// and text keep their original bytes.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalString is the JSON layer used for strings embedded in the document,
// such as mutation argument id lists and the registry comment.
func MarshalString(v any) (string, error) {
	raw, err := marshalNoEscape(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// nullableID encodes "" as JSON null.
func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func decodeNullableID(m members, key string, dst *string) error {
	var id *string
	if err := m.decode(key, &id); err != nil {
		return err
	}
	if id != nil {
		*dst = *id
	} else {
		*dst = ""
	}
	return nil
}
