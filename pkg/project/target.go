// SPDX-License-Identifier: MPL-2.0

package project

import (
	"encoding/json"
	"slices"
)

// Target is the stage or a sprite.
type Target struct {
	Name       string
	IsStage    bool
	Variables  map[string]*Variable
	Lists      map[string]*List
	Broadcasts map[string]string
	Blocks     map[string]*Block
	Comments   map[string]*Comment
	Costumes   []*Asset
	Sounds     []*Asset

	extra members
}

// NewTarget returns an empty sprite or stage.
func NewTarget(name string, isStage bool) *Target {
	t := &Target{Name: name, IsStage: isStage, extra: members{}}
	t.ensureMaps()
	return t
}

func (t *Target) ensureMaps() {
	if t.Variables == nil {
		t.Variables = map[string]*Variable{}
	}
	if t.Lists == nil {
		t.Lists = map[string]*List{}
	}
	if t.Broadcasts == nil {
		t.Broadcasts = map[string]string{}
	}
	if t.Blocks == nil {
		t.Blocks = map[string]*Block{}
	}
	if t.Comments == nil {
		t.Comments = map[string]*Comment{}
	}
}

// Assets returns the costume or sound list of the target.
func (t *Target) Assets(kind AssetKind) []*Asset {
	if kind == KindSound {
		return t.Sounds
	}
	return t.Costumes
}

// SetAssets replaces the costume or sound list of the target.
func (t *Target) SetAssets(kind AssetKind, assets []*Asset) {
	if kind == KindSound {
		t.Sounds = assets
		return
	}
	t.Costumes = assets
}

// FindAsset returns the first costume or sound with the given name.
func (t *Target) FindAsset(kind AssetKind, name string) *Asset {
	for _, a := range t.Assets(kind) {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// ClampCurrentCostume keeps the currentCostume index inside the costume list
// after costumes were removed. A malformed index is left as is.
func (t *Target) ClampCurrentCostume() error {
	raw, ok := t.extra["currentCostume"]
	if !ok {
		return nil
	}
	var current int
	if err := json.Unmarshal(raw, &current); err != nil {
		return nil
	}
	last := max(len(t.Costumes)-1, 0)
	if current <= last {
		return nil
	}
	return t.extra.set("currentCostume", last)
}

// SortedBlockIDs returns the block map keys in a stable order.
func (t *Target) SortedBlockIDs() []string {
	ids := make([]string, 0, len(t.Blocks))
	for id := range t.Blocks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ReferencesPayload reports whether any costume or sound uses the payload file.
func (t *Target) ReferencesPayload(filename string) bool {
	for _, kind := range []AssetKind{KindCostume, KindSound} {
		for _, a := range t.Assets(kind) {
			if a.Filename() == filename {
				return true
			}
		}
	}
	return false
}

// UnmarshalJSON decodes the target keeping sprite geometry and other members.
func (t *Target) UnmarshalJSON(data []byte) error {
	m, err := readMembers(data)
	if err != nil {
		return err
	}
	fields := []struct {
		key string
		dst any
	}{
		{"name", &t.Name},
		{"isStage", &t.IsStage},
		{"variables", &t.Variables},
		{"lists", &t.Lists},
		{"broadcasts", &t.Broadcasts},
		{"blocks", &t.Blocks},
		{"comments", &t.Comments},
		{"costumes", &t.Costumes},
		{"sounds", &t.Sounds},
	}
	for _, f := range fields {
		if err := m.decode(f.key, f.dst); err != nil {
			return err
		}
	}
	t.ensureMaps()
	t.extra = m
	return nil
}

// MarshalJSON encodes the target.
func (t *Target) MarshalJSON() ([]byte, error) {
	t.ensureMaps()
	costumes, sounds := t.Costumes, t.Sounds
	if costumes == nil {
		costumes = []*Asset{}
	}
	if sounds == nil {
		sounds = []*Asset{}
	}
	out := t.extra.clone()
	fields := []struct {
		key string
		val any
	}{
		{"name", t.Name},
		{"isStage", t.IsStage},
		{"variables", t.Variables},
		{"lists", t.Lists},
		{"broadcasts", t.Broadcasts},
		{"blocks", t.Blocks},
		{"comments", t.Comments},
		{"costumes", costumes},
		{"sounds", sounds},
	}
	for _, f := range fields {
		if err := out.set(f.key, f.val); err != nil {
			return nil, err
		}
	}
	return out.marshal()
}
