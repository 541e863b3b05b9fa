// SPDX-License-Identifier: MPL-2.0

package project

import (
	"encoding/json"
	"fmt"
)

// Mutation is the mutation object of procedure prototypes and calls.
// Argument ids are stored as a JSON-encoded string array inside the object.
type Mutation struct {
	ProcCode    string
	ArgumentIDs *string

	extra members
}

// ArgIDs decodes the argument id list. A mutation without one yields nil.
func (m *Mutation) ArgIDs() ([]string, error) {
	if m.ArgumentIDs == nil || *m.ArgumentIDs == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(*m.ArgumentIDs), &ids); err != nil {
		return nil, fmt.Errorf("argumentids %q: %w", *m.ArgumentIDs, err)
	}
	return ids, nil
}

// SetArgIDs re-encodes the argument id list.
func (m *Mutation) SetArgIDs(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	s, err := MarshalString(ids)
	if err != nil {
		return err
	}
	m.ArgumentIDs = &s
	return nil
}

// UnmarshalJSON decodes the mutation keeping unknown members.
func (m *Mutation) UnmarshalJSON(data []byte) error {
	raw, err := readMembers(data)
	if err != nil {
		return err
	}
	if err := raw.decode("proccode", &m.ProcCode); err != nil {
		return err
	}
	if err := raw.decode("argumentids", &m.ArgumentIDs); err != nil {
		return err
	}
	m.extra = raw
	return nil
}

// MarshalJSON encodes the mutation.
func (m *Mutation) MarshalJSON() ([]byte, error) {
	out := m.extra.clone()
	if m.ProcCode != "" {
		if err := out.set("proccode", m.ProcCode); err != nil {
			return nil, err
		}
	}
	if m.ArgumentIDs != nil {
		if err := out.set("argumentids", *m.ArgumentIDs); err != nil {
			return nil, err
		}
	}
	return out.marshal()
}
