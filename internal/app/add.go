// SPDX-License-Identifier: MPL-2.0

package app

import (
	"context"
	"fmt"
	"maps"
	"os"

	"github.com/charmbracelet/log"

	"github.com/spmkit/spm/internal/archive"
	"github.com/spmkit/spm/internal/manifest"
	"github.com/spmkit/spm/pkg/merge"
	"github.com/spmkit/spm/pkg/namespace"
	"github.com/spmkit/spm/pkg/project"
	"github.com/spmkit/spm/pkg/registry"
	"github.com/spmkit/spm/pkg/types"
)

type (
	// AddRequest describes one module installation.
	AddRequest struct {
		HostArchive   string
		ModuleArchive string
		// HostSprite and ModuleSprite override sprite resolution when set.
		HostSprite   string
		ModuleSprite string
		// Name and Version override the module identity when set.
		Name    namespace.ModuleName
		Version types.SemVer
		// Output packs the result to another archive instead of the host archive.
		Output string
		DryRun bool
	}

	// AddResult reports what an add did.
	AddResult struct {
		*merge.Result
		// HostName is the namespace of the host sprite.
		HostName   namespace.ModuleName
		HostSprite string
		// ModuleSprite is the module target that was merged.
		ModuleSprite string
		// Output is the archive that was (or on a dry run would have been) written.
		Output string
		DryRun bool
	}

	// moduleIdentity is the resolved name, version and sprite of a module archive.
	moduleIdentity struct {
		name    namespace.ModuleName
		version types.SemVer
		sprite  string
	}
)

// Add merges the module archive into the host archive.
func (s *Service) Add(ctx context.Context, req AddRequest) (*AddResult, error) {
	if err := sameArchive(req.HostArchive, req.ModuleArchive); err != nil {
		return nil, err
	}

	h, err := s.openHost(ctx, req.HostArchive, req.HostSprite, true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = h.ws.Close() }()

	modWs, modProject, err := s.unpack(ctx, req.ModuleArchive)
	if err != nil {
		return nil, err
	}
	defer func() { _ = modWs.Close() }()

	id, err := s.moduleIdentity(modWs, req)
	if err != nil {
		return nil, err
	}
	modTarget, err := resolveSprite(modProject, req.ModuleArchive, id.sprite, s.opts.ModuleSprite)
	if err != nil {
		return nil, err
	}
	if id.name == "" {
		id.name, id.version = embeddedIdentity(modTarget, req.ModuleArchive, id.version)
	}
	if err := id.name.Validate(); err != nil {
		return nil, err
	}
	if id.name == h.name {
		return nil, fmt.Errorf("%w: %q", ErrNameClash, id.name)
	}

	logger := log.FromContext(ctx).With("host", h.target.Name)
	logger.Debug("merging module", "module", id.name, "sprite", modTarget.Name, "version", id.version)

	assets, err := archive.NewAssetStore(h.ws, s.opts.DigestCacheSize)
	if err != nil {
		return nil, err
	}
	res, err := merge.NewEngine(assets, s.opts.Merge).AddModule(log.WithContext(ctx, logger), merge.Host{
		Project: h.project,
		Target:  h.target,
	}, merge.Module{
		Name:       id.name,
		Version:    id.version,
		Target:     modTarget,
		Broadcasts: moduleBroadcasts(modProject, modTarget),
		AssetDir:   modWs.Dir,
	})
	if err != nil {
		return nil, err
	}

	output, err := s.commit(ctx, h, req.Output, req.DryRun)
	if err != nil {
		return nil, err
	}
	return &AddResult{
		Result:       res,
		HostName:     h.name,
		HostSprite:   h.target.Name,
		ModuleSprite: modTarget.Name,
		Output:       output,
		DryRun:       req.DryRun,
	}, nil
}

// moduleIdentity applies request overrides over the archive's spm.toml.
// The name stays empty when neither sets it.
func (s *Service) moduleIdentity(ws *archive.Workspace, req AddRequest) (moduleIdentity, error) {
	id := moduleIdentity{name: req.Name, version: req.Version, sprite: req.ModuleSprite}

	m, err := manifest.Load(ws.Dir)
	if err != nil {
		return id, err
	}
	if m != nil {
		if id.name == "" {
			id.name = m.Module.Name
		}
		if id.version == "" {
			id.version = m.Module.Version
		}
		if id.sprite == "" {
			id.sprite = m.Module.Sprite
		}
	}
	if id.version != "" {
		if ok, errs := id.version.IsValid(); !ok {
			return id, &project.InputFormatError{Resource: req.ModuleArchive, Reason: "invalid module version", Err: errs[0]}
		}
	}
	return id, nil
}

// embeddedIdentity falls back to the registry a module project keeps on its
// own sprite, then to the archive file name.
func embeddedIdentity(t *project.Target, archivePath string, version types.SemVer) (namespace.ModuleName, types.SemVer) {
	name := namespace.NameFromStem(stem(archivePath))
	if reg, err := registry.Read(t); err == nil && reg.Name != "" && reg.Name.Validate() == nil {
		name = reg.Name
		if version == "" {
			version = reg.Version
		}
	}
	return name, version
}

// moduleBroadcasts collects the module project's broadcasts, which normally
// live on its stage.
func moduleBroadcasts(p *project.Project, t *project.Target) map[string]string {
	out := make(map[string]string)
	if stage := p.Stage(); stage != nil {
		maps.Copy(out, stage.Broadcasts)
	}
	maps.Copy(out, t.Broadcasts)
	return out
}

// sameArchive rejects merging an archive into itself.
func sameArchive(hostPath, modulePath string) error {
	hostInfo, err := os.Stat(hostPath)
	if err != nil {
		return nil // Unpack reports the unreadable archive
	}
	modInfo, err := os.Stat(modulePath)
	if err != nil {
		return nil
	}
	if os.SameFile(hostInfo, modInfo) {
		return fmt.Errorf("%w: %s", ErrSelfMerge, hostPath)
	}
	return nil
}
