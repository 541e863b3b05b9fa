// SPDX-License-Identifier: MPL-2.0

package project

import (
	"encoding/json"
	"fmt"
)

// DocumentName is the name of the project document inside an archive.
const DocumentName = "project.json"

// Project is a parsed project document.
type Project struct {
	Targets []*Target

	extra members
}

// Parse decodes a project document. Any decoding or shape problem is reported
// as an InputFormatError.
func Parse(data []byte) (*Project, error) {
	m, err := readMembers(data)
	if err != nil {
		return nil, formatErr(DocumentName, "not a JSON object", err)
	}
	p := &Project{}
	if _, ok := m["targets"]; !ok {
		return nil, formatErr(DocumentName, "missing targets", nil)
	}
	if err := m.decode("targets", &p.Targets); err != nil {
		return nil, formatErr(DocumentName, "malformed targets", err)
	}
	p.extra = m
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Project) validate() error {
	if len(p.Targets) == 0 {
		return formatErr(DocumentName, "project has no targets", nil)
	}
	stages := 0
	seen := make(map[string]struct{}, len(p.Targets))
	for i, t := range p.Targets {
		if t == nil {
			return formatErr(DocumentName, fmt.Sprintf("target %d is null", i), nil)
		}
		if t.Name == "" {
			return formatErr(DocumentName, fmt.Sprintf("target %d has no name", i), nil)
		}
		if _, dup := seen[t.Name]; dup {
			return formatErr(DocumentName, fmt.Sprintf("duplicate target name %q", t.Name), nil)
		}
		seen[t.Name] = struct{}{}
		if t.IsStage {
			stages++
		}
	}
	if stages != 1 {
		return formatErr(DocumentName, fmt.Sprintf("expected exactly one stage, found %d", stages), nil)
	}
	return nil
}

// Marshal encodes the project document. Members the model does not interpret
// are written back exactly as they were read.
func (p *Project) Marshal() ([]byte, error) {
	out := p.extra.clone()
	targets := p.Targets
	if targets == nil {
		targets = []*Target{}
	}
	if err := out.set("targets", targets); err != nil {
		return nil, err
	}
	return out.marshal()
}

// MarshalJSON lets a Project be embedded in other JSON values.
func (p *Project) MarshalJSON() ([]byte, error) { return p.Marshal() }

// UnmarshalJSON decodes through Parse so the same validation applies.
func (p *Project) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}

// Target returns the target with the given name.
func (p *Project) Target(name string) (*Target, error) {
	for _, t := range p.Targets {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, &TargetNotFoundError{Name: name, Available: p.TargetNames()}
}

// TargetNames returns the target names in document order.
func (p *Project) TargetNames() []string {
	names := make([]string, 0, len(p.Targets))
	for _, t := range p.Targets {
		names = append(names, t.Name)
	}
	return names
}

// Stage returns the stage target, or nil for a project that was never validated.
func (p *Project) Stage() *Target {
	for _, t := range p.Targets {
		if t.IsStage {
			return t
		}
	}
	return nil
}

// Sprites returns the non-stage targets in document order.
func (p *Project) Sprites() []*Target {
	sprites := make([]*Target, 0, len(p.Targets))
	for _, t := range p.Targets {
		if !t.IsStage {
			sprites = append(sprites, t)
		}
	}
	return sprites
}

// ReferencesPayload reports whether any target still uses the payload file.
func (p *Project) ReferencesPayload(filename string) bool {
	for _, t := range p.Targets {
		if t.ReferencesPayload(filename) {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the project by re-encoding it.
func (p *Project) Clone() (*Project, error) {
	data, err := p.Marshal()
	if err != nil {
		return nil, err
	}
	var out Project
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
