// SPDX-License-Identifier: MPL-2.0

package app

import (
	"context"

	"github.com/spmkit/spm/pkg/namespace"
	"github.com/spmkit/spm/pkg/project"
	"github.com/spmkit/spm/pkg/registry"
	"github.com/spmkit/spm/pkg/types"
)

type (
	// ListRequest names the host sprite whose modules are listed.
	ListRequest struct {
		HostArchive string
		HostSprite  string
	}

	// ListResult is the registry of one sprite.
	ListResult struct {
		Archive     string                `json:"archive"`
		Sprite      string                `json:"sprite"`
		Name        namespace.ModuleName  `json:"name"`
		Version     types.SemVer          `json:"version"`
		Description types.DescriptionText `json:"description,omitempty"`
		Modules     []registry.Entry      `json:"modules"`
	}

	// InfoResult summarizes every target of an archive.
	InfoResult struct {
		Archive string       `json:"archive"`
		Targets []TargetInfo `json:"targets"`
	}

	// TargetInfo summarizes one target.
	TargetInfo struct {
		Name      string `json:"name"`
		Stage     bool   `json:"stage"`
		Blocks    int    `json:"blocks"`
		Variables int    `json:"variables"`
		Lists     int    `json:"lists"`
		Costumes  int    `json:"costumes"`
		Sounds    int    `json:"sounds"`
		Comments  int    `json:"comments"`
		// ModuleBlocks counts tagged blocks per owning namespace.
		ModuleBlocks map[namespace.ModuleName]int `json:"module_blocks,omitempty"`
		// Modules is the installed module list, nil when the target has no registry.
		Modules []registry.Entry `json:"modules,omitempty"`
	}
)

// List returns the modules installed on the host sprite. The archive is not
// modified.
func (s *Service) List(ctx context.Context, req ListRequest) (*ListResult, error) {
	h, err := s.openHost(ctx, req.HostArchive, req.HostSprite, false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = h.ws.Close() }()

	reg, err := registry.Read(h.target)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Archive:     req.HostArchive,
		Sprite:      h.target.Name,
		Name:        h.name,
		Version:     reg.Version,
		Description: reg.Description,
		Modules:     reg.Sorted(),
	}, nil
}

// Info describes every target of an archive.
func (s *Service) Info(ctx context.Context, archivePath string) (*InfoResult, error) {
	ws, p, err := s.unpack(ctx, archivePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ws.Close() }()

	out := &InfoResult{Archive: archivePath, Targets: make([]TargetInfo, 0, len(p.Targets))}
	for _, t := range p.Targets {
		info, err := describeTarget(t)
		if err != nil {
			return nil, err
		}
		out.Targets = append(out.Targets, info)
	}
	return out, nil
}

func describeTarget(t *project.Target) (TargetInfo, error) {
	info := TargetInfo{
		Name:      t.Name,
		Stage:     t.IsStage,
		Blocks:    len(t.Blocks),
		Variables: len(t.Variables),
		Lists:     len(t.Lists),
		Costumes:  len(t.Costumes),
		Sounds:    len(t.Sounds),
		Comments:  len(t.Comments),
	}
	for id := range t.Blocks {
		if owner := namespace.Owner(id); owner != "" {
			if info.ModuleBlocks == nil {
				info.ModuleBlocks = make(map[namespace.ModuleName]int)
			}
			info.ModuleBlocks[owner]++
		}
	}
	if _, ok := t.Comments[registry.CommentID]; ok {
		reg, err := registry.Read(t)
		if err != nil {
			return info, err
		}
		info.Modules = reg.Sorted()
		info.Comments--
	}
	return info, nil
}
