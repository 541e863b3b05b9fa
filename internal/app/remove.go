// SPDX-License-Identifier: MPL-2.0

package app

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/spmkit/spm/internal/archive"
	"github.com/spmkit/spm/pkg/merge"
	"github.com/spmkit/spm/pkg/namespace"
	"github.com/spmkit/spm/pkg/registry"
)

type (
	// RemoveRequest describes one module removal.
	RemoveRequest struct {
		HostArchive string
		HostSprite  string
		Name        namespace.ModuleName
		Output      string
		DryRun      bool
	}

	// RemoveResult reports what a remove did.
	RemoveResult struct {
		*merge.Result
		HostSprite string
		Output     string
		DryRun     bool
	}
)

// Remove deletes a module from the host archive. A module that is neither
// registered nor owns any block is reported as a NotFoundError and nothing is
// written.
func (s *Service) Remove(ctx context.Context, req RemoveRequest) (*RemoveResult, error) {
	if err := req.Name.Validate(); err != nil {
		return nil, err
	}

	h, err := s.openHost(ctx, req.HostArchive, req.HostSprite, true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = h.ws.Close() }()

	assets, err := archive.NewAssetStore(h.ws, s.opts.DigestCacheSize)
	if err != nil {
		return nil, err
	}
	logger := log.FromContext(ctx).With("host", h.target.Name)
	res, err := merge.NewEngine(assets, s.opts.Merge).RemoveModule(log.WithContext(ctx, logger), merge.Host{
		Project: h.project,
		Target:  h.target,
	}, req.Name)
	if err != nil {
		return nil, err
	}
	if !res.Removed {
		return nil, &NotFoundError{
			Kind:      KindModule,
			Name:      req.Name.String(),
			Archive:   req.HostArchive,
			Available: installedNames(h),
		}
	}

	output, err := s.commit(ctx, h, req.Output, req.DryRun)
	if err != nil {
		return nil, err
	}
	return &RemoveResult{Result: res, HostSprite: h.target.Name, Output: output, DryRun: req.DryRun}, nil
}

func installedNames(h *host) []string {
	reg, err := registry.Read(h.target)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(reg.Modules))
	for _, e := range reg.Sorted() {
		names = append(names, e.Name.String())
	}
	return names
}
