// SPDX-License-Identifier: MPL-2.0

// Package registry reads and writes the module registry record that a target
// carries in its reserved comment. The record lists the installed modules and
// which module contributed each costume and sound, which is what makes
// removal exact and re-adding idempotent.
package registry

import (
	"cmp"
	"encoding/json"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/spmkit/spm/pkg/namespace"
	"github.com/spmkit/spm/pkg/project"
	"github.com/spmkit/spm/pkg/types"
)

const (
	// CommentID is the comment key the registry record is stored under.
	CommentID = project.RegistryCommentID

	// Notice is written into the record so that people opening the project in
	// an editor leave the comment alone.
	Notice = "This comment is managed by spm, don't edit or delete it!"
)

type (
	// Entry is one installed module.
	Entry struct {
		Name    namespace.ModuleName `json:"name"`
		Version types.SemVer         `json:"version"`
	}

	// Registry is the record persisted in the reserved comment.
	Registry struct {
		Name        namespace.ModuleName            `json:"name"`
		Version     types.SemVer                    `json:"version"`
		Description types.DescriptionText           `json:"description"`
		Readme      string                          `json:"readme"`
		Modules     []Entry                         `json:"modules"`
		Costumes    map[string]namespace.ModuleName `json:"costumes"`
		Sounds      map[string]namespace.ModuleName `json:"sounds"`
	}
)

// New returns an empty registry.
func New() *Registry {
	r := &Registry{Version: types.DefaultVersion, Readme: Notice}
	r.normalize()
	return r
}

func (r *Registry) normalize() {
	if r.Modules == nil {
		r.Modules = []Entry{}
	}
	if r.Costumes == nil {
		r.Costumes = map[string]namespace.ModuleName{}
	}
	if r.Sounds == nil {
		r.Sounds = map[string]namespace.ModuleName{}
	}
}

// Read returns the registry stored on t, or an empty one when t has none.
// A reserved comment that does not hold a registry record is an input-format error.
func Read(t *project.Target) (*Registry, error) {
	c, ok := t.Comments[CommentID]
	if !ok {
		return New(), nil
	}
	r := &Registry{}
	if err := json.Unmarshal([]byte(c.Text), r); err != nil {
		return nil, &project.InputFormatError{
			Resource: t.Name + " comment " + CommentID,
			Reason:   "module registry is not valid JSON",
			Err:      err,
		}
	}
	r.normalize()
	return r, nil
}

// Write replaces the registry stored on t with r.
func Write(t *project.Target, r *Registry) error {
	r.normalize()
	if r.Readme == "" {
		r.Readme = Notice
	}
	text, err := project.MarshalString(r)
	if err != nil {
		return err
	}
	c, ok := t.Comments[CommentID]
	if !ok {
		c = project.NewComment("")
		t.Comments[CommentID] = c
	}
	c.Text = text
	c.BlockID = ""
	c.Minimized = true
	return nil
}

// Has reports whether the module is installed.
func (r *Registry) Has(name namespace.ModuleName) bool {
	_, ok := r.Module(name)
	return ok
}

// Module returns the entry of an installed module.
func (r *Registry) Module(name namespace.ModuleName) (Entry, bool) {
	for _, e := range r.Modules {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Sorted returns the installed modules sorted by name.
func (r *Registry) Sorted() []Entry {
	out := slices.Clone(r.Modules)
	slices.SortFunc(out, func(a, b Entry) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// Put records the module, replacing an existing entry of the same name.
func (r *Registry) Put(e Entry) {
	for i := range r.Modules {
		if r.Modules[i].Name == e.Name {
			r.Modules[i] = e
			return
		}
	}
	r.Modules = append(r.Modules, e)
}

// Drop forgets the module and every asset ownership it holds. It reports
// whether the module was installed.
func (r *Registry) Drop(name namespace.ModuleName) bool {
	before := len(r.Modules)
	r.Modules = slices.DeleteFunc(r.Modules, func(e Entry) bool { return e.Name == name })
	for _, kind := range []project.AssetKind{project.KindCostume, project.KindSound} {
		owners := r.Owners(kind)
		maps.DeleteFunc(owners, func(_ string, owner namespace.ModuleName) bool { return owner == name })
	}
	return len(r.Modules) != before
}

// Owners returns the asset-name to owner map for the given kind.
func (r *Registry) Owners(kind project.AssetKind) map[string]namespace.ModuleName {
	r.normalize()
	if kind == project.KindSound {
		return r.Sounds
	}
	return r.Costumes
}

// Claim records owner as the owner of an asset name unless it already has one.
// It reports whether the claim was recorded.
func (r *Registry) Claim(kind project.AssetKind, asset string, owner namespace.ModuleName) bool {
	owners := r.Owners(kind)
	if _, taken := owners[asset]; taken {
		return false
	}
	owners[asset] = owner
	return true
}

// Owned returns the sorted asset names of the given kind owned by a module.
func (r *Registry) Owned(kind project.AssetKind, owner namespace.ModuleName) []string {
	owners := r.Owners(kind)
	names := make([]string, 0, len(owners))
	for _, name := range slices.Sorted(maps.Keys(owners)) {
		if owners[name] == owner {
			names = append(names, name)
		}
	}
	return names
}

// OwnedCostumes returns the costume names owned by a module.
func (r *Registry) OwnedCostumes(owner namespace.ModuleName) []string {
	return r.Owned(project.KindCostume, owner)
}

// OwnedSounds returns the sound names owned by a module.
func (r *Registry) OwnedSounds(owner namespace.ModuleName) []string {
	return r.Owned(project.KindSound, owner)
}

// Reconcile drops ownership entries whose asset is no longer present on t
// and returns the pruned names, costumes first.
func (r *Registry) Reconcile(t *project.Target) []string {
	var pruned []string
	for _, kind := range []project.AssetKind{project.KindCostume, project.KindSound} {
		owners := r.Owners(kind)
		for _, name := range slices.Sorted(maps.Keys(owners)) {
			if t.FindAsset(kind, name) == nil {
				delete(owners, name)
				pruned = append(pruned, name)
			}
		}
	}
	return pruned
}
