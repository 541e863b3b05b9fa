// SPDX-License-Identifier: MPL-2.0

package merge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/spmkit/spm/pkg/namespace"
	"github.com/spmkit/spm/pkg/project"
	"github.com/spmkit/spm/pkg/registry"
	"github.com/spmkit/spm/pkg/types"
)

const (
	// DefaultPrivateMarker in a procedure signature keeps the definition out of the host.
	DefaultPrivateMarker = "#"
	// DefaultHiddenMarker in a procedure signature marks the exposed definition as shadow.
	DefaultHiddenMarker = "_"
)

// ErrNoHostTarget is returned when a Host has no project or target to merge into.
var ErrNoHostTarget = errors.New("host has no target")

type (
	// AssetStore copies and deletes payload files of the host archive.
	AssetStore interface {
		// Copy brings srcDir/filename into the host's working directory.
		Copy(ctx context.Context, srcDir, filename string) error
		// Remove deletes filename from the host's working directory.
		Remove(ctx context.Context, filename string) error
	}

	// Options tunes the add policies.
	Options struct {
		PrivateMarker  string
		HiddenMarker   string
		ResetPositions bool
	}

	// Engine adds and removes modules.
	Engine struct {
		assets AssetStore
		opts   Options
	}

	// Host is the project and target receiving modules. The target must
	// already be namespaced under the host's own name.
	Host struct {
		Project *project.Project
		Target  *project.Target
	}

	// Module is a module target ready to be merged.
	Module struct {
		Name    namespace.ModuleName
		Version types.SemVer
		Target  *project.Target
		// Broadcasts are the module project's broadcast messages (id to name).
		Broadcasts map[string]string
		// AssetDir holds the module's payload files.
		AssetDir string
	}
)

// DefaultOptions returns the stock marker characters with position reset on.
func DefaultOptions() Options {
	return Options{
		PrivateMarker:  DefaultPrivateMarker,
		HiddenMarker:   DefaultHiddenMarker,
		ResetPositions: true,
	}
}

// NewEngine creates an Engine that moves payloads through assets.
func NewEngine(assets AssetStore, opts Options) *Engine {
	return &Engine{assets: assets, opts: opts}
}

// AddModule merges mod into host. Adding an installed module replaces it.
func (e *Engine) AddModule(ctx context.Context, host Host, mod Module) (*Result, error) {
	if host.Project == nil || host.Target == nil {
		return nil, ErrNoHostTarget
	}
	if mod.Target == nil {
		return nil, fmt.Errorf("module %q has no target", mod.Name)
	}
	if err := namespace.Namespace(mod.Target, mod.Name); err != nil {
		return nil, err
	}
	if mod.Version == "" {
		mod.Version = types.DefaultVersion
	}
	mod.Version = mod.Version.Canonical()
	logger := log.FromContext(ctx).With("module", mod.Name)

	reg, err := registry.Read(host.Target)
	if err != nil {
		return nil, err
	}

	res := &Result{Module: mod.Name, Version: mod.Version, Change: ChangeInstall}
	if prev, ok := reg.Module(mod.Name); ok {
		res.PreviousVersion = prev.Version
		res.Change = classifyChange(prev.Version, mod.Version)
		logger.Debug("module already installed, replacing", "previous", prev.Version)
	}
	// Also clears stale blocks left by an unregistered earlier add.
	if err := e.detach(ctx, host, reg, mod.Name, &res.Removal); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for name, v := range mod.Target.Variables {
		host.Target.Variables[name] = v
		res.Variables++
	}
	for name, l := range mod.Target.Lists {
		host.Target.Lists[name] = l
		res.Lists++
	}

	for _, kind := range []project.AssetKind{project.KindCostume, project.KindSound} {
		added, err := e.copyAssets(ctx, host, reg, mod, kind)
		if err != nil {
			return nil, err
		}
		if kind == project.KindSound {
			res.SoundsAdded = added
		} else {
			res.CostumesAdded = added
		}
	}

	keep, filtered := e.exposedBlocks(mod)
	res.BlocksFiltered = filtered
	broadcastIDs := unionBroadcasts(host, mod)
	for id, b := range keep {
		e.normalize(b, mod.Target)
		remapBroadcasts(b, broadcastIDs)
		host.Target.Blocks[id] = b
	}
	res.BlocksAdded = len(keep)
	res.Broadcasts = len(broadcastIDs)

	tag := mod.Name.Tag()
	for id, c := range mod.Target.Comments {
		if !tag.Owns(id) {
			continue
		}
		if _, kept := keep[c.BlockID]; kept {
			host.Target.Comments[id] = c
		}
	}

	reg.Put(registry.Entry{Name: mod.Name, Version: mod.Version})
	if err := registry.Write(host.Target, reg); err != nil {
		return nil, err
	}

	logger.Info("module added",
		"version", mod.Version,
		"blocks", res.BlocksAdded,
		"filtered", res.BlocksFiltered,
		"costumes", len(res.CostumesAdded),
		"sounds", len(res.SoundsAdded),
	)
	return res, nil
}

// RemoveModule drops everything the named module contributed to host.
// Removing a module that is neither registered nor owns any block is a no-op
// reported through Result.Removed.
func (e *Engine) RemoveModule(ctx context.Context, host Host, name namespace.ModuleName) (*Result, error) {
	if host.Project == nil || host.Target == nil {
		return nil, ErrNoHostTarget
	}
	if err := name.Validate(); err != nil {
		return nil, err
	}
	reg, err := registry.Read(host.Target)
	if err != nil {
		return nil, err
	}

	res := &Result{Module: name, Change: ChangeRemove}
	if prev, ok := reg.Module(name); ok {
		res.PreviousVersion = prev.Version
	}
	installed := reg.Has(name)
	if err := e.detach(ctx, host, reg, name, &res.Removal); err != nil {
		return nil, err
	}
	res.Removed = installed || res.Removal.Blocks > 0
	if !res.Removed {
		log.FromContext(ctx).Debug("module not installed, nothing to remove", "module", name)
		return res, nil
	}
	if err := registry.Write(host.Target, reg); err != nil {
		return nil, err
	}
	log.FromContext(ctx).Info("module removed",
		"module", name,
		"blocks", res.Removal.Blocks,
		"costumes", len(res.Removal.Costumes),
		"sounds", len(res.Removal.Sounds),
	)
	return res, nil
}

// detach removes the module's blocks, comments, owned assets and registry
// entry from host without writing the registry back.
func (e *Engine) detach(ctx context.Context, host Host, reg *registry.Registry, name namespace.ModuleName, out *Removal) error {
	tag := name.Tag()
	for id := range host.Target.Blocks {
		if tag.Owns(id) {
			delete(host.Target.Blocks, id)
			out.Blocks++
		}
	}
	for id := range host.Target.Comments {
		if tag.Owns(id) {
			delete(host.Target.Comments, id)
		}
	}

	for _, kind := range []project.AssetKind{project.KindCostume, project.KindSound} {
		owned := reg.Owned(kind, name)
		if len(owned) == 0 {
			continue
		}
		drop := make(map[string]struct{}, len(owned))
		for _, n := range owned {
			drop[n] = struct{}{}
		}
		var payloads []string
		kept := host.Target.Assets(kind)[:0]
		for _, a := range host.Target.Assets(kind) {
			if _, ok := drop[a.Name]; ok {
				payloads = append(payloads, a.Filename())
				continue
			}
			kept = append(kept, a)
		}
		host.Target.SetAssets(kind, kept)
		if kind == project.KindSound {
			out.Sounds = append(out.Sounds, owned...)
		} else {
			out.Costumes = append(out.Costumes, owned...)
			if err := host.Target.ClampCurrentCostume(); err != nil {
				return fmt.Errorf("clamp current costume after removing %s: %w", name, err)
			}
		}

		for _, payload := range payloads {
			if payload == "" || host.Project.ReferencesPayload(payload) {
				continue
			}
			if err := e.assets.Remove(ctx, payload); err != nil {
				return fmt.Errorf("remove payload %s of module %s: %w", payload, name, err)
			}
			out.Payloads = append(out.Payloads, payload)
		}
	}
	reg.Drop(name)
	return nil
}

// copyAssets appends module assets the host does not have by name and
// records the module as their owner.
func (e *Engine) copyAssets(ctx context.Context, host Host, reg *registry.Registry, mod Module, kind project.AssetKind) ([]string, error) {
	var added []string
	for _, a := range mod.Target.Assets(kind) {
		if host.Target.FindAsset(kind, a.Name) != nil {
			continue
		}
		if payload := a.Filename(); payload != "" {
			if err := e.assets.Copy(ctx, mod.AssetDir, payload); err != nil {
				return nil, fmt.Errorf("copy %s %q of module %s: %w", kind, a.Name, mod.Name, err)
			}
		}
		host.Target.SetAssets(kind, append(host.Target.Assets(kind), a.Clone()))
		reg.Claim(kind, a.Name, mod.Name)
		added = append(added, a.Name)
	}
	return added, nil
}

// exposedBlocks returns the module-tagged blocks minus private definitions.
// Only the definition hat is dropped; its prototype and body stay.
func (e *Engine) exposedBlocks(mod Module) (map[string]*project.Block, int) {
	tag := mod.Name.Tag()
	blocks := mod.Target.Blocks

	private := map[string]struct{}{}
	for id, b := range blocks {
		if b.Opcode == project.OpcodeProcedureDefinition && e.hasMarker(procCode(b, blocks), e.opts.PrivateMarker) {
			private[id] = struct{}{}
		}
	}

	keep := make(map[string]*project.Block, len(blocks))
	filtered := 0
	for id, b := range blocks {
		if !tag.Owns(id) {
			continue
		}
		if _, ok := private[id]; ok {
			filtered++
			continue
		}
		keep[id] = b
	}
	return keep, filtered
}

func (e *Engine) normalize(b *project.Block, owner *project.Target) {
	if e.opts.ResetPositions && b.IsTopLevel() {
		b.SetPosition(0, 0)
	}
	if b.Opcode == project.OpcodeProcedureDefinition && e.hasMarker(procCode(b, owner.Blocks), e.opts.HiddenMarker) {
		b.Shadow = true
	}
}

func (e *Engine) hasMarker(proccode, marker string) bool {
	return marker != "" && strings.Contains(proccode, marker)
}

// procCode returns the signature of a definition through its prototype.
func procCode(def *project.Block, blocks map[string]*project.Block) string {
	in, ok := def.Inputs[project.InputCustomBlock]
	if !ok || len(in.Slots) == 0 {
		return ""
	}
	proto, ok := blocks[in.Slots[0].ID]
	if !ok || proto.Mutation == nil {
		return ""
	}
	return proto.Mutation.ProcCode
}
