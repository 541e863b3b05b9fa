// SPDX-License-Identifier: MPL-2.0

package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/spmkit/spm/internal/archive"
	"github.com/spmkit/spm/pkg/merge"
	"github.com/spmkit/spm/pkg/namespace"
	"github.com/spmkit/spm/pkg/project"
	"github.com/spmkit/spm/pkg/registry"
)

type (
	// Options configures a Service. The zero value uses the OS temp dir,
	// keeps every payload on pack and applies merge.DefaultOptions.
	Options struct {
		// TempDir is the parent directory for unpacked archives.
		TempDir string
		// Exclude lists doublestar patterns for payload files dropped on pack.
		Exclude []string
		// Merge tunes the merge engine. A zero value means merge.DefaultOptions.
		Merge merge.Options
		// HostSprite and ModuleSprite are fallbacks used when a request names no sprite.
		HostSprite   string
		ModuleSprite string
		// DigestCacheSize bounds the payload digest cache.
		DigestCacheSize int
	}

	// Service runs spm commands against archives on disk.
	Service struct {
		opts Options
	}

	// host is an unpacked host archive with its resolved, namespaced sprite.
	host struct {
		ws      *archive.Workspace
		project *project.Project
		target  *project.Target
		name    namespace.ModuleName
	}
)

// New creates a Service.
func New(opts Options) *Service {
	if opts.Merge == (merge.Options{}) {
		opts.Merge = merge.DefaultOptions()
	}
	if opts.DigestCacheSize <= 0 {
		opts.DigestCacheSize = archive.DefaultDigestCacheSize
	}
	return &Service{opts: opts}
}

func (s *Service) unpack(ctx context.Context, path string) (*archive.Workspace, *project.Project, error) {
	ws, err := archive.Unpack(ctx, path, archive.Options{TempDir: s.opts.TempDir, Exclude: s.opts.Exclude})
	if err != nil {
		return nil, nil, err
	}
	p, err := ws.ReadProject()
	if err != nil {
		_ = ws.Close() // Best-effort cleanup; the read error is what matters
		return nil, nil, err
	}
	return ws, p, nil
}

// openHost unpacks the host archive, resolves its sprite and, when prepare is
// set, namespaces the sprite under the host name and records that name in its
// registry. Callers must Close the returned workspace.
func (s *Service) openHost(ctx context.Context, path, sprite string, prepare bool) (*host, error) {
	ws, p, err := s.unpack(ctx, path)
	if err != nil {
		return nil, err
	}
	h := &host{ws: ws, project: p}
	if h.target, err = resolveSprite(p, path, sprite, s.opts.HostSprite); err != nil {
		_ = ws.Close()
		return nil, err
	}

	reg, err := registry.Read(h.target)
	if err != nil {
		_ = ws.Close()
		return nil, err
	}
	h.name = reg.Name
	if h.name == "" || h.name.Validate() != nil {
		h.name = namespace.NameFromStem(stem(path))
	}
	if !prepare {
		return h, nil
	}

	if err := namespace.Namespace(h.target, h.name); err != nil {
		_ = ws.Close()
		return nil, err
	}
	reg.Name = h.name
	if pruned := reg.Reconcile(h.target); len(pruned) > 0 {
		log.FromContext(ctx).Warn("dropping ownership of assets missing from the sprite", "assets", pruned)
	}
	if err := registry.Write(h.target, reg); err != nil {
		_ = ws.Close()
		return nil, err
	}
	return h, nil
}

// commit stores the host project and packs it to output, or back over the
// source archive when output is empty. Nothing is packed on a dry run.
func (s *Service) commit(ctx context.Context, h *host, output string, dryRun bool) (string, error) {
	if err := h.ws.WriteProject(h.project); err != nil {
		return "", err
	}
	dest := output
	if dest == "" {
		dest = h.ws.Source
	}
	if dryRun {
		log.FromContext(ctx).Info("dry run, archive left untouched", "archive", dest)
		return dest, nil
	}
	if err := h.ws.Pack(ctx, dest); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return dest, nil
}

// resolveSprite picks the working target of a project. An explicit name must
// exist. Otherwise the configured fallback is used when present, then a
// sprite named like the archive, then the first sprite.
func resolveSprite(p *project.Project, archivePath, explicit, fallback string) (*project.Target, error) {
	if explicit != "" {
		t, err := p.Target(explicit)
		if err != nil {
			var tnf *project.TargetNotFoundError
			available := p.TargetNames()
			if errors.As(err, &tnf) {
				available = tnf.Available
			}
			return nil, &NotFoundError{Kind: KindSprite, Name: explicit, Archive: archivePath, Available: available, Err: err}
		}
		return t, nil
	}
	for _, name := range []string{fallback, stem(archivePath)} {
		if name == "" {
			continue
		}
		if t, err := p.Target(name); err == nil && !t.IsStage {
			return t, nil
		}
	}
	sprites := p.Sprites()
	if len(sprites) == 0 {
		return nil, &NotFoundError{Kind: KindSprite, Archive: archivePath, Available: p.TargetNames()}
	}
	return sprites[0], nil
}

// stem returns the archive file name without directory and extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
